package review

import "errors"

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrNotYourOrder     = errors.New("order does not belong to this vendor")
	ErrNotDelivered     = errors.New("order has not been delivered")
	ErrProductMismatch  = errors.New("product does not match the order")
	ErrSupplierMismatch = errors.New("supplier does not match the order")
	ErrAlreadyReviewed  = errors.New("order has already been reviewed")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
)
