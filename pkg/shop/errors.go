package shop

import (
	"errors"
)

// Error kinds returned by engine operations. The facade maps each one
// to a user-facing message; raw storage errors never reach buyers.
var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidState      = errors.New("order is not in a valid state for this action")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrBanned            = errors.New("user is banned from the shop")
	ErrInvalidArgument   = errors.New("invalid argument")
)
