package domain

import (
	"time"

	"github.com/google/uuid"
)

// Review represents a buyer's review of a product. Grade runs 1 to 5.
// Deleted reviews are kept with IsActive false and excluded from the
// product rating.
type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Grade     int       `json:"grade" db:"grade"`
	Comment   string    `json:"comment" db:"comment"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
