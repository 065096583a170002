package review

import (
	"time"

	"github.com/google/uuid"
)

// Review is a vendor's rating of a product, tied to the delivered order
// that earned the right to write it. One review per order.
type Review struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	VendorID   uint      `json:"vendor_id"`
	SupplierID uint      `json:"supplier_id"`
	ProductID  uuid.UUID `json:"product_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// SubmitParams is everything the caller claims about the review. The
// service re-checks every claim against the order row before writing.
type SubmitParams struct {
	OrderID    uuid.UUID `json:"order_id"`
	ProductID  uuid.UUID `json:"product_id"`
	SupplierID uint      `json:"supplier_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
}

// ProductReview is a review joined with its author's name for listing.
type ProductReview struct {
	Review
	VendorName string `json:"vendor_name"`
}
