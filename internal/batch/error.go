package batch

import "errors"

var (
	ErrBatchNotFound        = errors.New("batch not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInsufficientQuantity = errors.New("insufficient batch quantity")
	ErrWrongHolder          = errors.New("batch is not held by the expected party")
)
