package product

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNotOwner        = errors.New("product belongs to another supplier")
	ErrInvalidInput    = errors.New("invalid product input")
)
