package dto

import (
	"bytes"
	"encoding/json"

	"github.com/Eursukkul/hotel-booking/internal/models"
)

type CreateBookingRequest struct {
	GuestName      string       `json:"guestName"`
	NumberOfGuests int          `json:"numberOfGuests"`
	Rooms          models.Rooms `json:"rooms"`
}

// UpdateBookingRequest carries the guest roster under "guestName" and the head count
// under "guests".
type UpdateBookingRequest struct {
	GuestName json.RawMessage `json:"guestName"`
	Guests    int             `json:"guests"`
	Rooms     models.Rooms    `json:"rooms"`
}

// GuestNames decodes the roster. It reports false unless guestName is a JSON array of strings.
func (r UpdateBookingRequest) GuestNames() ([]string, bool) {
	raw := bytes.TrimSpace(r.GuestName)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, false
	}
	if names == nil {
		names = []string{}
	}
	return names, true
}
