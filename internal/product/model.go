package product

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID         uuid.UUID `json:"id"`
	SupplierID uint      `json:"supplier_id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Price      int64     `json:"price"`
	Stock      int       `json:"stock"`
	ImageURL   *string   `json:"image_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateParams struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    int64   `json:"price"`
	Stock    int     `json:"stock"`
	ImageURL *string `json:"image_url"`
}

type UpdateParams struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Price    *int64  `json:"price"`
	Stock    *int    `json:"stock"`
	ImageURL *string `json:"image_url"`
}

type ListFilter struct {
	Category   *string
	SupplierID *uint
	Search     *string
	Limit      int32
	Page       int32
}
