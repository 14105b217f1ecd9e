package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog. Price may be unset until
// the seller prices the product; unpriced products cannot be checked out.
// Rating is the average of active review grades rounded to two decimals,
// null while the product has no active reviews.
type Product struct {
	ID          uuid.UUID           `json:"id" db:"id"`
	Name        string              `json:"name" db:"name"`
	Description string              `json:"description" db:"description"`
	Price       decimal.NullDecimal `json:"price" db:"price"`
	Stock       int                 `json:"stock" db:"stock"`
	Rating      decimal.NullDecimal `json:"rating" db:"rating"`
	IsActive    bool                `json:"is_active" db:"is_active"`
	ImageURL    string              `json:"image_url" db:"image_url"`
	SellerID    uuid.UUID           `json:"seller_id" db:"seller_id"`
	CategoryID  uuid.UUID           `json:"category_id" db:"category_id"`
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" db:"updated_at"`
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
