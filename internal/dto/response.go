package dto

import (
	"github.com/Eursukkul/hotel-booking/internal/models"
)

type CreateBookingResponse struct {
	Message string          `json:"message"`
	Booking *models.Booking `json:"booking"`
}

type BookingResponse struct {
	Success bool            `json:"success"`
	Booking *models.Booking `json:"booking"`
}

type BookingListResponse struct {
	Success  bool             `json:"success"`
	Bookings []models.Booking `json:"bookings"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the create route's error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func Failure(message string) MessageResponse {
	return MessageResponse{Success: false, Message: message}
}
