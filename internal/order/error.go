package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTerminalStatus    = errors.New("order is in a terminal status")
	ErrNotReorderable    = errors.New("only delivered or cancelled orders can be reordered")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateCheckout = errors.New("checkout key already recorded")
)

// LineError reports why a single cart line failed checkout validation.
type LineError struct {
	Index     int    `json:"index"`
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

// CheckoutError aggregates every failing line so the caller learns exactly
// which lines were rejected. No order row is written when it is returned.
type CheckoutError struct {
	Lines []LineError `json:"lines"`
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout rejected: %d line(s) failed validation", len(e.Lines))
}
