package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/Eursukkul/hotel-booking/internal/models"
	"github.com/go-playground/validator/v10"
)

// Proposal is a new or modified booking awaiting admission. GuestNames is set only on the
// update path, where the roster must line up with NumberOfGuests.
type Proposal struct {
	GuestName      string       `validate:"required_without=GuestNames"`
	GuestNames     []string     `validate:"omitempty,min=1,dive,required"`
	NumberOfGuests int          `validate:"gt=0"`
	Rooms          models.Rooms `validate:"required,min=1,dive"`
}

type Validator struct {
	ledger     *Ledger
	tariffs    TariffSource
	totalRooms int
	structs    *validator.Validate
}

func NewValidator(ledger *Ledger, tariffs TariffSource, totalRooms int) *Validator {
	return &Validator{
		ledger:     ledger,
		tariffs:    tariffs,
		totalRooms: totalRooms,
		structs:    validator.New(),
	}
}

func (v *Validator) TotalRooms() int {
	return v.totalRooms
}

// Validate admits p against guest capacity and the hotel-wide room cap, ignoring the
// rooms already held by excludeBookingID. It stops at the first failing rule. Nothing is
// reserved: a concurrent writer can still take the rooms before the caller persists.
func (v *Validator) Validate(ctx context.Context, p Proposal, excludeBookingID string) error {
	if err := v.structs.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingFields, err)
	}
	if !slices.ContainsFunc(p.Rooms, func(r models.Room) bool { return r.Quantity > 0 }) {
		return fmt.Errorf("%w: no rooms requested", ErrMissingFields)
	}
	if p.GuestNames != nil && len(p.GuestNames) == 0 {
		return fmt.Errorf("%w: empty guest roster", ErrMissingFields)
	}

	for _, r := range p.Rooms {
		if !r.Type.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidRoomType, r.Type)
		}
	}

	if p.GuestNames != nil && len(p.GuestNames) != p.NumberOfGuests {
		return ErrGuestCountMismatch
	}

	// A single line above the hotel size can never fit. Rejecting it before any sum keeps
	// the capacity and room totals bounded by len(rooms) * totalRooms.
	for _, r := range p.Rooms {
		if r.Quantity > v.totalRooms {
			return v.exceeded(ctx, r.Quantity, excludeBookingID)
		}
	}
	requested := TotalRoomsRequested(p.Rooms)

	if p.NumberOfGuests > v.tariffs.Current().CapacityOf(p.Rooms) {
		return ErrInsufficientCapacity
	}

	booked, err := v.ledger.TotalBookedRooms(ctx, excludeBookingID)
	if err != nil {
		return err
	}
	if requested > v.totalRooms-booked {
		return &InventoryExceededError{Requested: requested, Remaining: max(v.totalRooms-booked, 0)}
	}

	return nil
}

func (v *Validator) exceeded(ctx context.Context, requested int, excludeBookingID string) error {
	booked, err := v.ledger.TotalBookedRooms(ctx, excludeBookingID)
	if err != nil {
		return err
	}
	return &InventoryExceededError{Requested: requested, Remaining: max(v.totalRooms-booked, 0)}
}
