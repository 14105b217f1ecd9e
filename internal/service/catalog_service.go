package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	ErrForbidden         = errors.New("operation not permitted")
	ErrInvalidPriceRange = errors.New("min price exceeds max price")
)

// NormalizePage applies the paging defaults and caps shared by every
// paginated listing
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// ProductInput carries the seller-editable fields of a product.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.NullDecimal
	Stock       int
	CategoryID  uuid.UUID
}

// CatalogService defines the interface for category and product business logic
type CatalogService interface {
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name, description string, isActive bool) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*domain.Category, error)

	CreateProduct(ctx context.Context, sellerID uuid.UUID, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, actorID uuid.UUID, actorRole string, productID uuid.UUID, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, actorID uuid.UUID, actorRole string, productID uuid.UUID) error
	AttachProductImage(ctx context.Context, actorID uuid.UUID, actorRole string, productID uuid.UUID, image io.Reader) (*domain.Product, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	media        storage.MediaStore
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	media storage.MediaStore,
) CatalogService {
	return &catalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		media:        media,
	}
}

// CreateCategory creates a new active category
func (s *catalogService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

// UpdateCategory replaces the mutable fields of a category
func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name, description string, isActive bool) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	category.Name = name
	category.Description = description
	category.IsActive = isActive

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return category, nil
}

// DeleteCategory deactivates a category. Products in the category stay in
// place but drop out of the public catalog until it is reactivated.
func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryRepo.SoftDelete(ctx, id); err != nil {
		if err == repository.ErrCategoryNotFound {
			return err
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// ListCategories returns all active categories
func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateProduct creates a product owned by the calling seller. The target
// category must exist and be active.
func (s *catalogService) CreateProduct(ctx context.Context, sellerID uuid.UUID, input ProductInput) (*domain.Product, error) {
	if _, err := s.categoryRepo.FindActiveByID(ctx, input.CategoryID); err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	product := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		IsActive:    true,
		SellerID:    sellerID,
		CategoryID:  input.CategoryID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// UpdateProduct replaces the mutable fields of a product. Only the owning
// seller or an admin may modify it.
func (s *catalogService) UpdateProduct(ctx context.Context, actorID uuid.UUID, actorRole string, productID uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.findOwnedProduct(ctx, actorID, actorRole, productID)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != product.CategoryID {
		if _, err := s.categoryRepo.FindActiveByID(ctx, input.CategoryID); err != nil {
			return nil, fmt.Errorf("failed to find category: %w", err)
		}
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.Stock = input.Stock
	product.CategoryID = input.CategoryID

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// DeleteProduct deactivates a product owned by the caller and drops its
// stored image
func (s *catalogService) DeleteProduct(ctx context.Context, actorID uuid.UUID, actorRole string, productID uuid.UUID) error {
	product, err := s.findOwnedProduct(ctx, actorID, actorRole, productID)
	if err != nil {
		return err
	}

	if err := s.productRepo.SoftDelete(ctx, productID); err != nil {
		if err == repository.ErrProductNotFound {
			return err
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if product.ImageURL != "" {
		_ = s.media.Remove(ctx, product.ImageURL)
	}
	return nil
}

// AttachProductImage stores an uploaded image and links it to the product.
// A previously attached image is removed from storage after the swap.
func (s *catalogService) AttachProductImage(ctx context.Context, actorID uuid.UUID, actorRole string, productID uuid.UUID, image io.Reader) (*domain.Product, error) {
	product, err := s.findOwnedProduct(ctx, actorID, actorRole, productID)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.media.Save(ctx, image)
	if err != nil {
		if errors.Is(err, storage.ErrImageTooLarge) || errors.Is(err, storage.ErrUnsupportedImageType) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	if err := s.productRepo.UpdateImageURL(ctx, productID, imageURL); err != nil {
		return nil, fmt.Errorf("failed to update product image: %w", err)
	}

	if product.ImageURL != "" {
		// Old image is orphaned either way, removal failures are not fatal
		_ = s.media.Remove(ctx, product.ImageURL)
	}

	product.ImageURL = imageURL
	return product, nil
}

// GetProduct retrieves a product visible in the public catalog
func (s *catalogService) GetProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindVisibleByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// ListProducts returns a page of visible products matching the filter.
// Filtering on an absent or inactive category is reported as not found
// rather than as an empty page.
func (s *catalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, 0, ErrInvalidPriceRange
	}
	if filter.CategoryID != nil {
		if _, err := s.categoryRepo.FindActiveByID(ctx, *filter.CategoryID); err != nil {
			return nil, 0, fmt.Errorf("failed to find category: %w", err)
		}
	}
	filter.Page, filter.PageSize = NormalizePage(filter.Page, filter.PageSize)

	products, total, err := s.productRepo.ListVisible(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// findOwnedProduct loads a product and verifies the actor may modify it
func (s *catalogService) findOwnedProduct(ctx context.Context, actorID uuid.UUID, actorRole string, productID uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if actorRole != domain.RoleAdmin && product.SellerID != actorID {
		return nil, ErrForbidden
	}
	return product, nil
}
