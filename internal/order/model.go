package order

import (
	"time"

	"github.com/google/uuid"
)

// CancelActor records which party cancelled an order. It is set if and
// only if the order status is CANCELLED.
type CancelActor string

const (
	CancelledByVendor   CancelActor = "vendor"
	CancelledBySupplier CancelActor = "supplier"
)

// Order is one vendor's request to purchase a quantity of one product from
// one supplier. TotalAmount is fixed at creation (unit price x quantity)
// and never recomputed by later transitions.
type Order struct {
	ID          uuid.UUID    `json:"id"`
	VendorID    uint         `json:"vendor_id"`
	SupplierID  uint         `json:"supplier_id"`
	ProductID   uuid.UUID    `json:"product_id"`
	Quantity    int          `json:"quantity"`
	TotalAmount int64        `json:"total_amount"`
	Status      Status       `json:"status"`
	CancelledBy *CancelActor `json:"cancelled_by,omitempty"`
	CheckoutKey *uuid.UUID   `json:"checkout_key,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Detail is an order expanded with its vendor, supplier and product rows.
type Detail struct {
	Order
	VendorName      string  `json:"vendor_name"`
	SupplierName    string  `json:"supplier_name"`
	ProductName     string  `json:"product_name"`
	ProductImageURL *string `json:"product_image_url,omitempty"`
}

// CheckoutLine is a cart line joined with the product fields checkout needs.
type CheckoutLine struct {
	Index       int
	ProductID   uuid.UUID
	SupplierID  uint
	ProductName string
	Quantity    int
	Price       int64
	Stock       int
}

type ListFilter struct {
	Status     *Status
	VendorID   *uint
	SupplierID *uint
	Limit      int32
	Page       int32
}
