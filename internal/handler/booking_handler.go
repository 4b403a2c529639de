package handler

import (
	"errors"
	"net/http"

	"github.com/Eursukkul/hotel-booking/internal/dto"
	"github.com/Eursukkul/hotel-booking/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	msgMissingFields   = "Missing required fields"
	msgBookingIDNeeded = "Booking ID is required"
	msgGuestNamesArray = "Guest names must be provided as an array"
	msgGuestCount      = "Number of guest names must match number of guests"
	msgInvalidRoomType = "Invalid room type"
	msgNotFound        = "Booking not found"
)

type BookingHandler struct {
	svc    service.BookingService
	logger *logrus.Logger
}

func NewBookingHandler(svc service.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	bookings := e.Group("/bookings")
	bookings.POST("", h.CreateBooking)
	bookings.GET("", h.ListBookings)
	bookings.GET("/:bookingId", h.GetBooking)
	bookings.PUT("/:bookingId", h.UpdateBooking)
	bookings.DELETE("/:bookingId", h.DeleteBooking)
	// without an id these answer 400 instead of 405
	bookings.PUT("", h.UpdateBooking)
	bookings.DELETE("", h.DeleteBooking)

	e.GET("/inventory", h.GetInventory)
}

func (h *BookingHandler) logError(c echo.Context, op string, err error) {
	h.logger.WithFields(logrus.Fields{
		"path":      "handler/booking",
		"op":        op,
		"bookingId": c.Param("bookingId"),
	}).Error(err)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
	}

	booking, err := h.svc.CreateBooking(c.Request().Context(), service.CreateBookingInput{
		GuestName:      req.GuestName,
		NumberOfGuests: req.NumberOfGuests,
		Rooms:          req.Rooms,
	})
	if err != nil {
		if msg, ok := validationMessage(err, "Room capacity does not match number of guests"); ok {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg})
		}
		if errors.Is(err, service.ErrConcurrentUpdate) {
			return c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		}
		h.logError(c, "create", err)
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create booking"})
	}

	return c.JSON(http.StatusCreated, dto.CreateBookingResponse{
		Message: "Booking created successfully",
		Booking: booking,
	})
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	bookings, err := h.svc.ListBookings(c.Request().Context())
	if err != nil {
		h.logError(c, "list", err)
		return c.JSON(http.StatusInternalServerError, dto.Failure("Error fetching bookings"))
	}
	return c.JSON(http.StatusOK, dto.BookingListResponse{Success: true, Bookings: bookings})
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	booking, err := h.svc.GetBooking(c.Request().Context(), c.Param("bookingId"))
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, dto.Failure(msgNotFound))
		}
		h.logError(c, "get", err)
		return c.JSON(http.StatusInternalServerError, dto.Failure("Error fetching booking"))
	}
	return c.JSON(http.StatusOK, dto.BookingResponse{Success: true, Booking: booking})
}

func (h *BookingHandler) UpdateBooking(c echo.Context) error {
	id := c.Param("bookingId")
	if id == "" {
		return c.JSON(http.StatusBadRequest, dto.Failure(msgBookingIDNeeded))
	}

	var req dto.UpdateBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.Failure("Invalid request body"))
	}
	names, ok := req.GuestNames()
	if !ok {
		return c.JSON(http.StatusBadRequest, dto.Failure(msgGuestNamesArray))
	}

	booking, err := h.svc.UpdateBooking(c.Request().Context(), service.UpdateBookingInput{
		BookingID:      id,
		GuestNames:     names,
		NumberOfGuests: req.Guests,
		Rooms:          req.Rooms,
	})
	if err != nil {
		if msg, ok := validationMessage(err, "Invalid room configuration for number of guests"); ok {
			return c.JSON(http.StatusBadRequest, dto.Failure(msg))
		}
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, dto.Failure(msgNotFound))
		case errors.Is(err, service.ErrConcurrentUpdate):
			return c.JSON(http.StatusConflict, dto.Failure(err.Error()))
		}
		h.logError(c, "update", err)
		return c.JSON(http.StatusInternalServerError, dto.Failure("Error updating booking"))
	}

	return c.JSON(http.StatusOK, dto.BookingResponse{Success: true, Booking: booking})
}

func (h *BookingHandler) DeleteBooking(c echo.Context) error {
	id := c.Param("bookingId")
	if id == "" {
		return c.JSON(http.StatusBadRequest, dto.Failure(msgBookingIDNeeded))
	}

	if err := h.svc.DeleteBooking(c.Request().Context(), id); err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, dto.Failure(msgNotFound))
		}
		if errors.Is(err, service.ErrConcurrentUpdate) {
			return c.JSON(http.StatusConflict, dto.Failure(err.Error()))
		}
		h.logError(c, "delete", err)
		return c.JSON(http.StatusInternalServerError, dto.Failure("Error deleting booking"))
	}

	return c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "Booking deleted successfully"})
}

func (h *BookingHandler) GetInventory(c echo.Context) error {
	report, err := h.svc.Inventory(c.Request().Context())
	if err != nil {
		h.logError(c, "inventory", err)
		return c.JSON(http.StatusInternalServerError, dto.Failure("Error fetching inventory"))
	}
	return c.JSON(http.StatusOK, report)
}

// validationMessage maps a validation failure to its client message. The capacity message
// differs between create and update, so the caller supplies it.
func validationMessage(err error, capacityMsg string) (string, bool) {
	var exceeded *service.InventoryExceededError
	switch {
	case errors.As(err, &exceeded):
		return exceeded.Error(), true
	case errors.Is(err, service.ErrMissingFields):
		return msgMissingFields, true
	case errors.Is(err, service.ErrInvalidRoomType):
		return msgInvalidRoomType, true
	case errors.Is(err, service.ErrGuestCountMismatch):
		return msgGuestCount, true
	case errors.Is(err, service.ErrInsufficientCapacity):
		return capacityMsg, true
	}
	return "", false
}
