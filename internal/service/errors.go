package service

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFields        = errors.New("missing required fields")
	ErrGuestCountMismatch   = errors.New("number of guest names must match number of guests")
	ErrInsufficientCapacity = errors.New("room capacity does not match number of guests")
	ErrInventoryExceeded    = errors.New("hotel room inventory exceeded")
	ErrInvalidRoomType      = errors.New("invalid room type")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrStorage              = errors.New("storage failure")
)

// InventoryExceededError reports how many rooms were asked for and how many are left.
type InventoryExceededError struct {
	Requested int
	Remaining int
}

func (e *InventoryExceededError) Error() string {
	return fmt.Sprintf("Cannot book %d rooms. Only %d rooms available.", e.Requested, e.Remaining)
}

func (e *InventoryExceededError) Is(target error) bool {
	return target == ErrInventoryExceeded
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrGuestCountMismatch) ||
		errors.Is(err, ErrInsufficientCapacity) ||
		errors.Is(err, ErrInventoryExceeded) ||
		errors.Is(err, ErrInvalidRoomType)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
