package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrReviewNotFound = errors.New("review not found")
)

// ReviewRepository defines the interface for review data access. Reviews
// are never hard-deleted; the product rating is recomputed inside the
// same transaction as every state change.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ListActive(ctx context.Context) ([]*domain.Review, error)
	ListActiveByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
}

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new instance of ReviewRepository
func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// recalculateRating rewrites the product's rating as the two-decimal
// average of its active review grades, NULL when none remain.
const recalculateRating = `
	UPDATE products
	SET rating = (
		SELECT ROUND(AVG(grade)::numeric, 2)
		FROM reviews
		WHERE product_id = $1 AND is_active = TRUE
	)
	WHERE id = $1
`

// Create inserts a review and recomputes the product rating in one
// transaction
func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO reviews (id, user_id, product_id, grade, comment, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`

		_, err := tx.ExecContext(
			ctx,
			query,
			review.ID,
			review.UserID,
			review.ProductID,
			review.Grade,
			review.Comment,
			review.IsActive,
			review.CreatedAt,
			review.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		if _, err := tx.ExecContext(ctx, recalculateRating, review.ProductID); err != nil {
			return fmt.Errorf("failed to recalculate product rating: %w", err)
		}

		return nil
	})
}

// SoftDelete deactivates a review and recomputes the product rating in
// one transaction
func (r *reviewRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			UPDATE reviews
			SET is_active = FALSE
			WHERE id = $1 AND is_active = TRUE
			RETURNING product_id
		`

		var productID uuid.UUID
		err := tx.QueryRowContext(ctx, query, id).Scan(&productID)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrReviewNotFound
			}
			return fmt.Errorf("failed to delete review: %w", err)
		}

		if _, err := tx.ExecContext(ctx, recalculateRating, productID); err != nil {
			return fmt.Errorf("failed to recalculate product rating: %w", err)
		}

		return nil
	})
}

// ListActive retrieves all active reviews in insertion order
func (r *reviewRepository) ListActive(ctx context.Context) ([]*domain.Review, error) {
	query := `
		SELECT id, user_id, product_id, grade, comment, is_active, created_at, updated_at
		FROM reviews
		WHERE is_active = TRUE
		ORDER BY created_at ASC, id ASC
	`

	return r.list(ctx, query)
}

// ListActiveByProduct retrieves the active reviews of one product
func (r *reviewRepository) ListActiveByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	query := `
		SELECT id, user_id, product_id, grade, comment, is_active, created_at, updated_at
		FROM reviews
		WHERE product_id = $1 AND is_active = TRUE
		ORDER BY created_at ASC, id ASC
	`

	return r.list(ctx, query, productID)
}

func (r *reviewRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		review := &domain.Review{}
		err := rows.Scan(
			&review.ID,
			&review.UserID,
			&review.ProductID,
			&review.Grade,
			&review.Comment,
			&review.IsActive,
			&review.CreatedAt,
			&review.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}
