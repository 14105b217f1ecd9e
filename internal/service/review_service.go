package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// ReviewService defines the interface for product review business logic
type ReviewService interface {
	CreateReview(ctx context.Context, userID, productID uuid.UUID, grade int, comment string) (*domain.Review, error)
	DeleteReview(ctx context.Context, reviewID uuid.UUID) error
	ListReviews(ctx context.Context) ([]*domain.Review, error)
	ListProductReviews(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
}

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
}

// NewReviewService creates a new instance of ReviewService
func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
	}
}

// CreateReview records a grade and comment against an active product and
// refreshes the product's aggregated rating. Sold out products stay
// reviewable; only deactivated ones do not.
func (s *reviewService) CreateReview(ctx context.Context, userID, productID uuid.UUID, grade int, comment string) (*domain.Review, error) {
	if _, err := findActiveProduct(ctx, s.productRepo, productID); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Grade:     grade,
		Comment:   comment,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	return review, nil
}

// DeleteReview soft deletes a review and refreshes the product's
// aggregated rating without it
func (s *reviewService) DeleteReview(ctx context.Context, reviewID uuid.UUID) error {
	if err := s.reviewRepo.SoftDelete(ctx, reviewID); err != nil {
		if err == repository.ErrReviewNotFound {
			return err
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

// ListReviews returns every active review
func (s *reviewService) ListReviews(ctx context.Context) ([]*domain.Review, error) {
	reviews, err := s.reviewRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// ListProductReviews returns the active reviews of one active product
func (s *reviewService) ListProductReviews(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	if _, err := findActiveProduct(ctx, s.productRepo, productID); err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListActiveByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
