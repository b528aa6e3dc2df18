package cart

import "errors"

var (
	// ErrInvalidInput is returned when an add carries a product without id or price, or a quantity below 1.
	ErrInvalidInput = errors.New("invalid cart input")

	// ErrNotFound is returned when an operation names a product id that has no line item.
	ErrNotFound = errors.New("cart item not found")
)
