package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubReviewService struct {
	review    *domain.Review
	reviews   []*domain.Review
	createErr error
	deleteErr error
	listErr   error
}

func (s *stubReviewService) CreateReview(ctx context.Context, userID, productID uuid.UUID, grade int, comment string) (*domain.Review, error) {
	return s.review, s.createErr
}

func (s *stubReviewService) DeleteReview(ctx context.Context, reviewID uuid.UUID) error {
	return s.deleteErr
}

func (s *stubReviewService) ListReviews(ctx context.Context) ([]*domain.Review, error) {
	return s.reviews, s.listErr
}

func (s *stubReviewService) ListProductReviews(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.reviews, nil
}

func newReviewRouter(svc service.ReviewService) http.Handler {
	router := chi.NewRouter()
	auth := identityMiddleware(uuid.New(), domain.RoleBuyer)
	NewReviewHandler(svc, zap.NewNop()).RegisterRoutes(router, auth, anonymousMiddleware, anonymousMiddleware)
	return router
}

func storedReview(productID uuid.UUID) *domain.Review {
	return &domain.Review{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ProductID: productID,
		Grade:     4,
		Comment:   "boils fast",
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestListProductReviews(t *testing.T) {
	productID := uuid.New()
	router := newReviewRouter(&stubReviewService{reviews: []*domain.Review{storedReview(productID)}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/"+productID.String()+"/reviews", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response []ReviewResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response) != 1 || response[0].Grade != 4 {
		t.Errorf("Unexpected listing: %+v", response)
	}

	// Hidden products report not found
	router = newReviewRouter(&stubReviewService{listErr: repository.ErrProductNotFound})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/"+productID.String()+"/reviews", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for hidden product, got %d", w.Code)
	}
}

func TestCreateReviewStatusMapping(t *testing.T) {
	productID := uuid.New()
	review := storedReview(productID)

	router := newReviewRouter(&stubReviewService{review: review})
	w := httptest.NewRecorder()
	payload := `{"product_id": "` + productID.String() + `", "grade": 4, "comment": "boils fast"}`
	req := httptest.NewRequest(http.MethodPost, "/api/reviews/", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var response ReviewResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.ID != review.ID.String() || response.Grade != 4 {
		t.Errorf("Unexpected review payload: %+v", response)
	}

	// Grades outside 1..5 and missing fields are rejected
	invalidPayloads := []string{
		`{"product_id": "` + productID.String() + `", "grade": 0}`,
		`{"product_id": "` + productID.String() + `", "grade": 6}`,
		`{"grade": 4}`,
		`not json`,
	}
	for _, payload := range invalidPayloads {
		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodPost, "/api/reviews/", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %s, got %d", payload, w.Code)
		}
	}

	// Reviewing a hidden product
	router = newReviewRouter(&stubReviewService{createErr: repository.ErrProductNotFound})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/reviews/", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for hidden product, got %d", w.Code)
	}
}

func TestDeleteReviewStatusMapping(t *testing.T) {
	router := newReviewRouter(&stubReviewService{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/reviews/"+uuid.New().String(), nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	router = newReviewRouter(&stubReviewService{deleteErr: repository.ErrReviewNotFound})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/reviews/"+uuid.New().String(), nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown review, got %d", w.Code)
	}
}
