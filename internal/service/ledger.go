package service

import (
	"context"

	"github.com/Eursukkul/hotel-booking/internal/models"
)

type BookingScanner interface {
	Scan(ctx context.Context) ([]models.Booking, error)
}

// Ledger answers how many rooms are currently committed. It reads every booking in one
// logical pass, so its cost grows with the table.
type Ledger struct {
	scanner BookingScanner
}

func NewLedger(scanner BookingScanner) *Ledger {
	return &Ledger{scanner: scanner}
}

// TotalBookedRooms sums room quantities over all bookings except excludeBookingID.
// An empty excludeBookingID excludes nothing.
func (l *Ledger) TotalBookedRooms(ctx context.Context, excludeBookingID string) (int, error) {
	bookings, err := l.scanner.Scan(ctx)
	if err != nil {
		return 0, storageErr("scan bookings", err)
	}

	total := 0
	for _, b := range bookings {
		if excludeBookingID != "" && b.BookingID == excludeBookingID {
			continue
		}
		total += TotalRoomsRequested(b.Rooms)
	}
	return total, nil
}
