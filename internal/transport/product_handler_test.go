package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
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

type stubCatalogService struct {
	product   *domain.Product
	products  []*domain.Product
	total     int
	createErr error
	updateErr error
	deleteErr error
	attachErr error
	getErr    error
	listErr   error

	category          *domain.Category
	categories        []*domain.Category
	categoryCreateErr error
	categoryUpdateErr error
	categoryDeleteErr error
}

func (s *stubCatalogService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	return s.category, s.categoryCreateErr
}

func (s *stubCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name, description string, isActive bool) (*domain.Category, error) {
	if s.categoryUpdateErr != nil {
		return nil, s.categoryUpdateErr
	}
	return s.category, nil
}

func (s *stubCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categoryDeleteErr
}

func (s *stubCatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories, nil
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, sellerID uuid.UUID, input service.ProductInput) (*domain.Product, error) {
	return s.product, s.createErr
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, actorID uuid.UUID, actorRole string, productID uuid.UUID, input service.ProductInput) (*domain.Product, error) {
	return s.product, s.updateErr
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, actorID uuid.UUID, actorRole string, productID uuid.UUID) error {
	return s.deleteErr
}

func (s *stubCatalogService) AttachProductImage(ctx context.Context, actorID uuid.UUID, actorRole string, productID uuid.UUID, image io.Reader) (*domain.Product, error) {
	return s.product, s.attachErr
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	return s.product, s.getErr
}

func (s *stubCatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	return s.products, s.total, s.listErr
}

func newProductRouter(svc service.CatalogService) http.Handler {
	router := chi.NewRouter()
	auth := identityMiddleware(uuid.New(), domain.RoleSeller)
	NewProductHandler(svc, zap.NewNop()).RegisterRoutes(router, auth, anonymousMiddleware)
	return router
}

func catalogProduct() *domain.Product {
	return &domain.Product{
		ID:         uuid.New(),
		Name:       "Kettle",
		Price:      decimal.NullDecimal{Decimal: decimal.NewFromFloat(25.50), Valid: true},
		Stock:      10,
		IsActive:   true,
		ImageURL:   "/media/kettle.png",
		SellerID:   uuid.New(),
		CategoryID: uuid.New(),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

func productPayload() string {
	return `{"name": "Kettle", "price": "25.50", "stock": 10, "category_id": "` + uuid.New().String() + `"}`
}

func TestListProductsRejectsBadFilters(t *testing.T) {
	router := newProductRouter(&stubCatalogService{})

	queries := []string{
		"?category_id=not-a-uuid",
		"?min_price=abc",
		"?min_price=-5",
		"?max_price=-0.01",
		"?page=x",
		"?page_size=x",
	}
	for _, query := range queries {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/"+query, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %s, got %d", query, w.Code)
		}
	}
}

func TestListProductsMapsServiceErrors(t *testing.T) {
	router := newProductRouter(&stubCatalogService{listErr: service.ErrInvalidPriceRange})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/?min_price=50&max_price=10", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for inverted price range, got %d", w.Code)
	}

	router = newProductRouter(&stubCatalogService{listErr: repository.ErrCategoryNotFound})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/?category_id="+uuid.New().String(), nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown category, got %d", w.Code)
	}
}

func TestListProductsReturnsNormalizedPage(t *testing.T) {
	router := newProductRouter(&stubCatalogService{
		products: []*domain.Product{catalogProduct()},
		total:    7,
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response ProductListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Page != 1 || response.PageSize != service.DefaultPageSize {
		t.Errorf("Expected default paging 1/%d, got %d/%d",
			service.DefaultPageSize, response.Page, response.PageSize)
	}
	if response.Total != 7 || len(response.Items) != 1 {
		t.Errorf("Expected total 7 with 1 item, got total %d with %d items", response.Total, len(response.Items))
	}
}

func TestGetProductStatusMapping(t *testing.T) {
	product := catalogProduct()

	router := newProductRouter(&stubCatalogService{product: product})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/"+product.ID.String(), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var response ProductResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.ID != product.ID.String() || response.Name != "Kettle" {
		t.Errorf("Unexpected product payload: %+v", response)
	}
	if !response.Price.Valid || !response.Price.Decimal.Equal(decimal.NewFromFloat(25.50)) {
		t.Errorf("Expected price 25.50, got %+v", response.Price)
	}

	router = newProductRouter(&stubCatalogService{getErr: repository.ErrProductNotFound})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/"+uuid.New().String(), nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/not-a-uuid", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestCreateProductValidation(t *testing.T) {
	invalidPayloads := []string{
		`{"stock": 10, "category_id": "` + uuid.New().String() + `"}`,
		`{"name": "K", "stock": 10, "category_id": "` + uuid.New().String() + `"}`,
		`{"name": "Kettle", "stock": -1, "category_id": "` + uuid.New().String() + `"}`,
		`{"name": "Kettle", "stock": 10}`,
		`{"name": "Kettle", "price": "-1.00", "stock": 10, "category_id": "` + uuid.New().String() + `"}`,
		`not json`,
	}

	router := newProductRouter(&stubCatalogService{product: catalogProduct()})
	for _, payload := range invalidPayloads {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/products/", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %s, got %d", payload, w.Code)
		}
	}

	// A well-formed product is created
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/products/", strings.NewReader(productPayload()))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	// Creation against an unknown category
	router = newProductRouter(&stubCatalogService{createErr: repository.ErrCategoryNotFound})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/products/", strings.NewReader(productPayload()))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown category, got %d", w.Code)
	}
}

func TestProductWriteErrorMapping(t *testing.T) {
	product := catalogProduct()

	// A seller touching someone else's product
	router := newProductRouter(&stubCatalogService{updateErr: service.ErrForbidden})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/products/"+product.ID.String(), strings.NewReader(productPayload()))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d: %s", w.Code, w.Body.String())
	}
	var response middleware.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if response.Error.Message != "you do not own this product" {
		t.Errorf("Unexpected message: %q", response.Error.Message)
	}

	// Deleting a product that does not exist
	router = newProductRouter(&stubCatalogService{deleteErr: repository.ErrProductNotFound})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/products/"+product.ID.String(), nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func imageUploadRequest(t *testing.T, productID uuid.UUID, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "upload.png")
	if err != nil {
		t.Fatalf("Failed to build multipart body: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write multipart body: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/products/"+productID.String()+"/image", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadImageStatusMapping(t *testing.T) {
	product := catalogProduct()

	router := newProductRouter(&stubCatalogService{product: product})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, imageUploadRequest(t, product.ID, []byte("fake image")))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var response ProductResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.ImageURL != product.ImageURL {
		t.Errorf("Expected image URL %s, got %s", product.ImageURL, response.ImageURL)
	}

	// Rejected uploads
	router = newProductRouter(&stubCatalogService{attachErr: storage.ErrImageTooLarge})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, imageUploadRequest(t, product.ID, []byte("huge")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for oversized image, got %d", w.Code)
	}

	router = newProductRouter(&stubCatalogService{attachErr: storage.ErrUnsupportedImageType})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, imageUploadRequest(t, product.ID, []byte("gif")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unsupported type, got %d", w.Code)
	}

	// The image form field is required
	router = newProductRouter(&stubCatalogService{product: product})
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/products/"+product.ID.String()+"/image", strings.NewReader("no file"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing file, got %d", w.Code)
	}
}
