package transport

import (
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest represents the product create and update payload
type ProductRequest struct {
	Name        string              `json:"name" validate:"required,min=2,max=200"`
	Description string              `json:"description" validate:"omitempty,max=2000"`
	Price       decimal.NullDecimal `json:"price"`
	Stock       int                 `json:"stock" validate:"gte=0"`
	CategoryID  uuid.UUID           `json:"category_id" validate:"required"`
}

// ProductResponse represents product data returned to clients
type ProductResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Price       decimal.NullDecimal `json:"price"`
	Stock       int                 `json:"stock"`
	Rating      decimal.NullDecimal `json:"rating"`
	ImageURL    string              `json:"image_url,omitempty"`
	CategoryID  string              `json:"category_id"`
	SellerID    string              `json:"seller_id"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ProductListResponse represents a page of products
type ProductListResponse struct {
	Items    []ProductResponse `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

func newProductResponse(product *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          product.ID.String(),
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		Rating:      product.Rating,
		ImageURL:    product.ImageURL,
		CategoryID:  product.CategoryID.String(),
		SellerID:    product.SellerID.String(),
		CreatedAt:   product.CreatedAt,
	}
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalogService service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. Reads are public, writes
// require the seller role (admins may edit any product).
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, sellerMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{productID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(sellerMiddleware)
			r.Post("/", h.Create)
			r.Put("/{productID}", h.Update)
			r.Delete("/{productID}", h.Delete)
			r.Post("/{productID}/image", h.UploadImage)
		})
	})
}

// List handles the public product listing with filtering, search and
// pagination
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseListFilter(w, r)
	if !ok {
		return
	}

	products, total, err := h.catalogService.ListProducts(r.Context(), filter)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPriceRange) {
			middleware.RespondWithError(w, http.StatusBadRequest, "min_price must not exceed max_price")
			return
		}
		if errors.Is(err, repository.ErrCategoryNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
			return
		}

		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	page, pageSize := service.NormalizePage(filter.Page, filter.PageSize)
	response := ProductListResponse{
		Items:    make([]ProductResponse, 0, len(products)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, product := range products {
		response.Items = append(response.Items, newProductResponse(product))
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

func (h *ProductHandler) parseListFilter(w http.ResponseWriter, r *http.Request) (repository.ProductFilter, bool) {
	filter := repository.ProductFilter{
		Query: r.URL.Query().Get("q"),
	}

	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category_id")
			return filter, false
		}
		filter.CategoryID = &categoryID
	}

	if raw := r.URL.Query().Get("min_price"); raw != "" {
		minPrice, err := decimal.NewFromString(raw)
		if err != nil || minPrice.IsNegative() {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid min_price")
			return filter, false
		}
		filter.MinPrice = &minPrice
	}

	if raw := r.URL.Query().Get("max_price"); raw != "" {
		maxPrice, err := decimal.NewFromString(raw)
		if err != nil || maxPrice.IsNegative() {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid max_price")
			return filter, false
		}
		filter.MaxPrice = &maxPrice
	}

	var err error
	if filter.Page, err = queryInt(r, "page"); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid page")
		return filter, false
	}
	if filter.PageSize, err = queryInt(r, "page_size"); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid page_size")
		return filter, false
	}

	return filter, true
}

// Get handles the public product detail lookup
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, err := uuidParam(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}

		h.logger.Error("Failed to get product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

// Create handles product creation by a seller
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := currentUserID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, ok := h.decodeProductRequest(w, r)
	if !ok {
		return
	}

	product, err := h.catalogService.CreateProduct(r.Context(), sellerID, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
			return
		}

		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("seller_id", sellerID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, newProductResponse(product))
}

// Update handles product updates by the owning seller
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID, err := uuidParam(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	actorID, ok := currentUserID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, ok := h.decodeProductRequest(w, r)
	if !ok {
		return
	}

	product, err := h.catalogService.UpdateProduct(r.Context(), actorID, currentUserRole(r), productID, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		h.respondProductWriteError(w, err, "Failed to update product")
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

// Delete handles product soft deletion by the owning seller
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, err := uuidParam(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	actorID, ok := currentUserID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.catalogService.DeleteProduct(r.Context(), actorID, currentUserRole(r), productID); err != nil {
		h.respondProductWriteError(w, err, "Failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", productID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// UploadImage handles the multipart product image upload
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	productID, err := uuidParam(r, "productID")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	actorID, ok := currentUserID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	// Cap the request body well above the image limit so oversize uploads
	// fail with a clean error instead of an aborted connection
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+1<<20)

	file, _, err := r.FormFile("image")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	product, err := h.catalogService.AttachProductImage(r.Context(), actorID, currentUserRole(r), productID, file)
	if err != nil {
		if errors.Is(err, storage.ErrImageTooLarge) {
			middleware.RespondWithError(w, http.StatusBadRequest, "image exceeds the 2 MiB limit")
			return
		}
		if errors.Is(err, storage.ErrUnsupportedImageType) {
			middleware.RespondWithError(w, http.StatusBadRequest, "image must be JPEG, PNG or WebP")
			return
		}

		h.respondProductWriteError(w, err, "Failed to upload product image")
		return
	}

	h.logger.Info("Product image uploaded",
		zap.String("product_id", product.ID.String()),
		zap.String("image_url", product.ImageURL),
	)
	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

func (h *ProductHandler) decodeProductRequest(w http.ResponseWriter, r *http.Request) (ProductRequest, bool) {
	var req ProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return req, false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}

	if req.Price.Valid && req.Price.Decimal.IsNegative() {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: "price", Message: "Value must be greater than or equal to 0"},
		})
		return req, false
	}

	return req, true
}

func (h *ProductHandler) respondProductWriteError(w http.ResponseWriter, err error, logMessage string) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, service.ErrForbidden):
		middleware.RespondWithError(w, http.StatusForbidden, "you do not own this product")
	default:
		h.logger.Error(logMessage, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "request failed")
	}
}
