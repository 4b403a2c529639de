package models

import "time"

type Booking struct {
	BookingID      string   `gorm:"column:booking_id;primaryKey;size:64" json:"bookingId"`
	GuestName      string   `gorm:"column:guest_name;not null" json:"guestName"`
	GuestNames     []string `gorm:"column:guest_names;serializer:json" json:"guestNames,omitempty"`
	NumberOfGuests int      `gorm:"column:number_of_guests;not null" json:"numberOfGuests"`
	Rooms          Rooms    `gorm:"column:rooms;type:text;not null" json:"rooms"`
	TotalPrice     int      `gorm:"column:total_price;not null" json:"totalPrice"`
	CreatedAt      string   `gorm:"column:created_at;size:40" json:"createdAt"`
}

// InventoryCounter is the running total of rooms committed across all bookings. It is
// adjusted in the same transaction as every booking write when the inventory guard is on.
type InventoryCounter struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	Booked    int       `gorm:"not null;default:0" json:"booked"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HotelCounterID keys the single hotel-wide counter row.
const HotelCounterID = "hotel"

// Timestamp renders t in the format used for CreatedAt.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
