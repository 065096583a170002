package cart

import (
	"time"

	"github.com/google/uuid"
)

// Line is one pending (vendor, product, quantity) intent prior to checkout.
// Unique per (vendor, product); quantity merges on repeated adds.
type Line struct {
	ID        uuid.UUID `json:"id"`
	VendorID  uint      `json:"vendor_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Row is a cart line joined with its product for display.
type Row struct {
	Line
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	Price       int64   `json:"price"`
	Stock       int     `json:"stock"`
	SupplierID  uint    `json:"supplier_id"`
	ImageURL    *string `json:"image_url,omitempty"`
}

type AddParams struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}
