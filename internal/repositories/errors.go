package repositories

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientStock is returned by a conditional stock decrement that
	// matched no row.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity is returned for a stock change by a non-positive amount.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("duplicate value")
)
