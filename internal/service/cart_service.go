package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartService defines the interface for shopping cart business logic
type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error)
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's cart with line products and running totals
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return buildCart(items), nil
}

// AddItem puts a product into the cart. Adding a product already in the
// cart raises the line quantity instead of creating a second line. The
// product must exist and be active; stock is only checked at checkout.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if _, err := findActiveProduct(ctx, s.productRepo, productID); err != nil {
		return nil, err
	}

	item := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.cartRepo.Upsert(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	return s.GetCart(ctx, userID)
}

// UpdateItem replaces the quantity of a cart line. The product must
// still be active.
func (s *cartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if _, err := findActiveProduct(ctx, s.productRepo, productID); err != nil {
		return nil, err
	}

	if err := s.cartRepo.SetQuantity(ctx, userID, productID, quantity); err != nil {
		if err == repository.ErrCartItemNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem deletes a cart line
func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*domain.Cart, error) {
	if err := s.cartRepo.Remove(ctx, userID, productID); err != nil {
		if err == repository.ErrCartItemNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return s.GetCart(ctx, userID)
}

// ClearCart empties the cart. Clearing an already empty cart succeeds.
func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// findActiveProduct loads a product and hides inactive ones behind the
// not found sentinel, matching what the public catalog exposes
func findActiveProduct(ctx context.Context, repo repository.ProductRepository, productID uuid.UUID) (*domain.Product, error) {
	product, err := repo.FindByID(ctx, productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if !product.IsActive {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

// buildCart assembles cart totals from the stored lines. Lines whose
// product carries no price contribute zero to the total.
func buildCart(items []*domain.CartItem) *domain.Cart {
	cart := &domain.Cart{
		Items:      items,
		TotalPrice: decimal.Zero,
	}

	for _, item := range items {
		cart.TotalQuantity += item.Quantity
		if item.Product != nil && item.Product.Price.Valid {
			lineTotal := item.Product.Price.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity)))
			cart.TotalPrice = cart.TotalPrice.Add(lineTotal)
		}
	}

	return cart
}
