package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Eursukkul/hotel-booking/internal/dto"
	"github.com/Eursukkul/hotel-booking/internal/models"
	"github.com/Eursukkul/hotel-booking/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock BookingService ---

type mockBookingService struct {
	createFn    func(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error)
	listFn      func(ctx context.Context) ([]models.Booking, error)
	getFn       func(ctx context.Context, id string) (*models.Booking, error)
	updateFn    func(ctx context.Context, in service.UpdateBookingInput) (*models.Booking, error)
	deleteFn    func(ctx context.Context, id string) error
	inventoryFn func(ctx context.Context) (*service.InventoryReport, error)
}

func (m *mockBookingService) CreateBooking(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error) {
	return m.createFn(ctx, in)
}
func (m *mockBookingService) ListBookings(ctx context.Context) ([]models.Booking, error) {
	return m.listFn(ctx)
}
func (m *mockBookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return m.getFn(ctx, id)
}
func (m *mockBookingService) UpdateBooking(ctx context.Context, in service.UpdateBookingInput) (*models.Booking, error) {
	return m.updateFn(ctx, in)
}
func (m *mockBookingService) DeleteBooking(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}
func (m *mockBookingService) Inventory(ctx context.Context) (*service.InventoryReport, error) {
	return m.inventoryFn(ctx)
}

// --- Helpers ---

func newContext(method, target, body, bookingID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if bookingID != "" {
		c.SetParamNames("bookingId")
		c.SetParamValues(bookingID)
	}
	return c, rec
}

func newHandler(svc service.BookingService) *BookingHandler {
	logger, _ := test.NewNullLogger()
	return NewBookingHandler(svc, logger)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// --- Tests ---

func TestCreateBooking_Handler_Success(t *testing.T) {
	var got service.CreateBookingInput
	svc := &mockBookingService{
		createFn: func(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error) {
			got = in
			return &models.Booking{
				BookingID:      "b-1",
				GuestName:      in.GuestName,
				NumberOfGuests: in.NumberOfGuests,
				Rooms:          in.Rooms,
				TotalPrice:     1000,
				CreatedAt:      "2025-01-01T00:00:00.000Z",
			}, nil
		},
	}

	body := `{"guestName":"Ada","numberOfGuests":2,"rooms":[{"type":"DOUBLE","quantity":1}]}`
	c, rec := newContext(http.MethodPost, "/bookings", body, "")

	err := newHandler(svc).CreateBooking(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Ada", got.GuestName)
	assert.Equal(t, models.Rooms{{Type: models.RoomDouble, Quantity: 1}}, got.Rooms)

	resp := decode[dto.CreateBookingResponse](t, rec)
	assert.Equal(t, "Booking created successfully", resp.Message)
	assert.Equal(t, "b-1", resp.Booking.BookingID)
	assert.Equal(t, 1000, resp.Booking.TotalPrice)
}

func TestCreateBooking_Handler_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing", service.ErrMissingFields, "Missing required fields"},
		{"capacity", service.ErrInsufficientCapacity, "Room capacity does not match number of guests"},
		{"room type", service.ErrInvalidRoomType, "Invalid room type"},
		{"inventory", &service.InventoryExceededError{Requested: 3, Remaining: 2}, "Cannot book 3 rooms. Only 2 rooms available."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{
				createFn: func(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error) {
					return nil, tt.err
				},
			}
			c, rec := newContext(http.MethodPost, "/bookings", `{"guestName":"Ada"}`, "")

			assert.NoError(t, newHandler(svc).CreateBooking(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decode[dto.ErrorResponse](t, rec).Error)
		})
	}
}

func TestCreateBooking_Handler_StorageFailureIsGeneric(t *testing.T) {
	logger, hook := test.NewNullLogger()
	svc := &mockBookingService{
		createFn: func(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error) {
			return nil, fmt.Errorf("put booking: %w: %w", service.ErrStorage, errors.New("ResourceNotFoundException"))
		},
	}
	c, rec := newContext(http.MethodPost, "/bookings", `{"guestName":"Ada"}`, "")

	assert.NoError(t, NewBookingHandler(svc, logger).CreateBooking(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to create booking"}`, rec.Body.String())
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "ResourceNotFoundException")
}

func TestCreateBooking_Handler_InvalidBody(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/bookings", `{"rooms":"not rooms"}`, "")

	assert.NoError(t, newHandler(&mockBookingService{}).CreateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBookings_Handler_Success(t *testing.T) {
	svc := &mockBookingService{
		listFn: func(ctx context.Context) ([]models.Booking, error) {
			return []models.Booking{{BookingID: "a"}, {BookingID: "b"}}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/bookings", "", "")

	assert.NoError(t, newHandler(svc).ListBookings(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decode[dto.BookingListResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Len(t, resp.Bookings, 2)
}

func TestListBookings_Handler_Failure(t *testing.T) {
	svc := &mockBookingService{
		listFn: func(ctx context.Context) ([]models.Booking, error) {
			return nil, service.ErrStorage
		},
	}
	c, rec := newContext(http.MethodGet, "/bookings", "", "")

	assert.NoError(t, newHandler(svc).ListBookings(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[dto.MessageResponse](t, rec)
	assert.False(t, resp.Success)
}

func TestGetBooking_Handler(t *testing.T) {
	svc := &mockBookingService{
		getFn: func(ctx context.Context, id string) (*models.Booking, error) {
			if id == "a" {
				return &models.Booking{BookingID: "a"}, nil
			}
			return nil, service.ErrBookingNotFound
		},
	}

	c, rec := newContext(http.MethodGet, "/bookings/a", "", "a")
	assert.NoError(t, newHandler(svc).GetBooking(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a", decode[dto.BookingResponse](t, rec).Booking.BookingID)

	c, rec = newContext(http.MethodGet, "/bookings/zzz", "", "zzz")
	assert.NoError(t, newHandler(svc).GetBooking(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateBooking_Handler_Success(t *testing.T) {
	var got service.UpdateBookingInput
	svc := &mockBookingService{
		updateFn: func(ctx context.Context, in service.UpdateBookingInput) (*models.Booking, error) {
			got = in
			return &models.Booking{BookingID: in.BookingID, GuestName: in.GuestNames[0], GuestNames: in.GuestNames}, nil
		},
	}

	body := `{"guestName":["Ada","Grace"],"guests":2,"rooms":[{"type":"SINGLE","quantity":2}]}`
	c, rec := newContext(http.MethodPut, "/bookings/a", body, "a")

	assert.NoError(t, newHandler(svc).UpdateBooking(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a", got.BookingID)
	assert.Equal(t, []string{"Ada", "Grace"}, got.GuestNames)
	assert.Equal(t, 2, got.NumberOfGuests)

	resp := decode[dto.BookingResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "Ada", resp.Booking.GuestName)
}

func TestUpdateBooking_Handler_GuestNameNotArray(t *testing.T) {
	body := `{"guestName":"Ada","guests":1,"rooms":[{"type":"SINGLE","quantity":1}]}`
	c, rec := newContext(http.MethodPut, "/bookings/a", body, "a")

	assert.NoError(t, newHandler(&mockBookingService{}).UpdateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[dto.MessageResponse](t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Guest names must be provided as an array", resp.Message)
}

func TestUpdateBooking_Handler_MissingID(t *testing.T) {
	c, rec := newContext(http.MethodPut, "/bookings", `{"guestName":["Ada"]}`, "")

	assert.NoError(t, newHandler(&mockBookingService{}).UpdateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Booking ID is required", decode[dto.MessageResponse](t, rec).Message)
}

func TestUpdateBooking_Handler_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		want string
	}{
		{"mismatch", service.ErrGuestCountMismatch, http.StatusBadRequest, "Number of guest names must match number of guests"},
		{"capacity", service.ErrInsufficientCapacity, http.StatusBadRequest, "Invalid room configuration for number of guests"},
		{"inventory", &service.InventoryExceededError{Requested: 5, Remaining: 1}, http.StatusBadRequest, "Cannot book 5 rooms. Only 1 rooms available."},
		{"not found", service.ErrBookingNotFound, http.StatusNotFound, "Booking not found"},
		{"conflict", service.ErrConcurrentUpdate, http.StatusConflict, service.ErrConcurrentUpdate.Error()},
		{"storage", service.ErrStorage, http.StatusInternalServerError, "Error updating booking"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{
				updateFn: func(ctx context.Context, in service.UpdateBookingInput) (*models.Booking, error) {
					return nil, tt.err
				},
			}
			c, rec := newContext(http.MethodPut, "/bookings/a", `{"guestName":["Ada"],"guests":1}`, "a")

			assert.NoError(t, newHandler(svc).UpdateBooking(c))
			assert.Equal(t, tt.code, rec.Code)
			resp := decode[dto.MessageResponse](t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.want, resp.Message)
		})
	}
}

func TestDeleteBooking_Handler(t *testing.T) {
	var deleted string
	svc := &mockBookingService{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	c, rec := newContext(http.MethodDelete, "/bookings/a", "", "a")

	assert.NoError(t, newHandler(svc).DeleteBooking(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a", deleted)
	assert.JSONEq(t, `{"success":true,"message":"Booking deleted successfully"}`, rec.Body.String())
}

func TestDeleteBooking_Handler_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", service.ErrBookingNotFound, http.StatusNotFound},
		{"storage", service.ErrStorage, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{
				deleteFn: func(ctx context.Context, id string) error { return tt.err },
			}
			c, rec := newContext(http.MethodDelete, "/bookings/a", "", "a")

			assert.NoError(t, newHandler(svc).DeleteBooking(c))
			assert.Equal(t, tt.code, rec.Code)
			assert.False(t, decode[dto.MessageResponse](t, rec).Success)
		})
	}

	c, rec := newContext(http.MethodDelete, "/bookings", "", "")
	assert.NoError(t, newHandler(&mockBookingService{}).DeleteBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetInventory_Handler(t *testing.T) {
	svc := &mockBookingService{
		inventoryFn: func(ctx context.Context) (*service.InventoryReport, error) {
			return &service.InventoryReport{TotalRooms: 20, BookedRooms: 18, AvailableRooms: 2}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/inventory", "", "")

	assert.NoError(t, newHandler(svc).GetInventory(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalRooms":20,"bookedRooms":18,"availableRooms":2}`, rec.Body.String())
}
