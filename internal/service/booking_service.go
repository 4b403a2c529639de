package service

import (
	"context"
	"errors"
	"time"

	"github.com/Eursukkul/hotel-booking/internal/models"
	"github.com/Eursukkul/hotel-booking/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Routing keys published after each successful write.
const (
	EventBookingCreated = "booking.created"
	EventBookingUpdated = "booking.updated"
	EventBookingDeleted = "booking.deleted"
)

// MissingPolicy decides what update and delete do with an unknown booking id.
type MissingPolicy string

const (
	// MissingIgnore upserts on update and reports success on delete.
	MissingIgnore MissingPolicy = "ignore"
	// MissingReject answers ErrBookingNotFound.
	MissingReject MissingPolicy = "reject"
)

var ErrConcurrentUpdate = errors.New("booking was modified concurrently, retry the request")

type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

type CreateBookingInput struct {
	GuestName      string
	NumberOfGuests int
	Rooms          models.Rooms
}

type UpdateBookingInput struct {
	BookingID      string
	GuestNames     []string
	NumberOfGuests int
	Rooms          models.Rooms
}

type InventoryReport struct {
	TotalRooms     int `json:"totalRooms"`
	BookedRooms    int `json:"bookedRooms"`
	AvailableRooms int `json:"availableRooms"`
}

type BookingService interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, in UpdateBookingInput) (*models.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	Inventory(ctx context.Context) (*InventoryReport, error)
}

type Options struct {
	MissingPolicy MissingPolicy
	Publisher     EventPublisher
	Logger        *logrus.Logger
	Tracer        trace.Tracer
	Now           func() time.Time
}

type bookingService struct {
	repo      repository.BookingRepository
	ledger    *Ledger
	validator *Validator
	tariffs   TariffSource
	opts      Options
}

func NewBookingService(repo repository.BookingRepository, tariffs TariffSource, totalRooms int, opts Options) BookingService {
	if opts.MissingPolicy == "" {
		opts.MissingPolicy = MissingIgnore
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("github.com/Eursukkul/hotel-booking/internal/service")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ledger := NewLedger(repo)
	return &bookingService{
		repo:      repo,
		ledger:    ledger,
		validator: NewValidator(ledger, tariffs, totalRooms),
		tariffs:   tariffs,
		opts:      opts,
	}
}

func (s *bookingService) log() *logrus.Entry {
	return s.opts.Logger.WithFields(logrus.Fields{"path": "service/booking"})
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (s *bookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	ctx, span := s.opts.Tracer.Start(ctx, "BookingService.CreateBooking")
	defer span.End()

	proposal := Proposal{GuestName: in.GuestName, NumberOfGuests: in.NumberOfGuests, Rooms: in.Rooms}
	if err := s.validator.Validate(ctx, proposal, ""); err != nil {
		return nil, fail(span, err)
	}

	price, err := s.tariffs.Current().PriceOf(in.Rooms)
	if err != nil {
		return nil, fail(span, err)
	}

	booking := &models.Booking{
		BookingID:      uuid.NewString(),
		GuestName:      in.GuestName,
		NumberOfGuests: in.NumberOfGuests,
		Rooms:          in.Rooms,
		TotalPrice:     price,
		CreatedAt:      models.Timestamp(s.opts.Now()),
	}
	span.SetAttributes(attribute.String("booking.id", booking.BookingID))

	if err := s.repo.Put(ctx, booking); err != nil {
		return nil, fail(span, s.writeErr(ctx, "put booking", err, in.Rooms, ""))
	}

	s.publish(EventBookingCreated, booking)
	return booking, nil
}

func (s *bookingService) ListBookings(ctx context.Context) ([]models.Booking, error) {
	ctx, span := s.opts.Tracer.Start(ctx, "BookingService.ListBookings")
	defer span.End()

	bookings, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, fail(span, storageErr("scan bookings", err))
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	ctx, span := s.opts.Tracer.Start(ctx, "BookingService.GetBooking",
		trace.WithAttributes(attribute.String("booking.id", id)))
	defer span.End()

	booking, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fail(span, storageErr("find booking", err))
	}
	return booking, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, in UpdateBookingInput) (*models.Booking, error) {
	ctx, span := s.opts.Tracer.Start(ctx, "BookingService.UpdateBooking",
		trace.WithAttributes(attribute.String("booking.id", in.BookingID)))
	defer span.End()

	if in.BookingID == "" {
		return nil, fail(span, ErrMissingFields)
	}

	if s.opts.MissingPolicy == MissingReject {
		if _, err := s.GetBooking(ctx, in.BookingID); err != nil {
			return nil, fail(span, err)
		}
	}

	proposal := Proposal{GuestNames: in.GuestNames, NumberOfGuests: in.NumberOfGuests, Rooms: in.Rooms}
	if proposal.GuestNames == nil {
		proposal.GuestNames = []string{}
	}
	if err := s.validator.Validate(ctx, proposal, in.BookingID); err != nil {
		return nil, fail(span, err)
	}

	price, err := s.tariffs.Current().PriceOf(in.Rooms)
	if err != nil {
		return nil, fail(span, err)
	}

	booking := &models.Booking{
		BookingID:      in.BookingID,
		GuestName:      in.GuestNames[0],
		GuestNames:     in.GuestNames,
		NumberOfGuests: in.NumberOfGuests,
		Rooms:          in.Rooms,
		TotalPrice:     price,
		CreatedAt:      models.Timestamp(s.opts.Now()),
	}

	updated, err := s.repo.Update(ctx, booking)
	if err != nil {
		return nil, fail(span, s.writeErr(ctx, "update booking", err, in.Rooms, in.BookingID))
	}

	s.publish(EventBookingUpdated, updated)
	return updated, nil
}

func (s *bookingService) DeleteBooking(ctx context.Context, id string) error {
	ctx, span := s.opts.Tracer.Start(ctx, "BookingService.DeleteBooking",
		trace.WithAttributes(attribute.String("booking.id", id)))
	defer span.End()

	if id == "" {
		return fail(span, ErrMissingFields)
	}

	previous, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fail(span, s.writeErr(ctx, "delete booking", err, nil, id))
	}
	if previous == nil {
		if s.opts.MissingPolicy == MissingReject {
			return fail(span, ErrBookingNotFound)
		}
		s.log().WithField("bookingId", id).Info("delete of unknown booking ignored")
		return nil
	}

	s.publish(EventBookingDeleted, previous)
	return nil
}

func (s *bookingService) Inventory(ctx context.Context) (*InventoryReport, error) {
	ctx, span := s.opts.Tracer.Start(ctx, "BookingService.Inventory")
	defer span.End()

	booked, err := s.ledger.TotalBookedRooms(ctx, "")
	if err != nil {
		return nil, fail(span, err)
	}
	total := s.validator.TotalRooms()
	return &InventoryReport{
		TotalRooms:     total,
		BookedRooms:    booked,
		AvailableRooms: max(total-booked, 0),
	}, nil
}

// writeErr translates repository write failures. A rejected counter reservation means a
// concurrent writer took the rooms after validation passed, so it is reported the same
// way as a validation failure with a freshly computed remainder.
func (s *bookingService) writeErr(ctx context.Context, op string, err error, rooms models.Rooms, excludeID string) error {
	switch {
	case errors.Is(err, repository.ErrInventoryExhausted):
		booked, lerr := s.ledger.TotalBookedRooms(ctx, excludeID)
		if lerr != nil {
			return lerr
		}
		return &InventoryExceededError{
			Requested: TotalRoomsRequested(rooms),
			Remaining: max(s.validator.TotalRooms()-booked, 0),
		}
	case errors.Is(err, repository.ErrConflict):
		return ErrConcurrentUpdate
	}
	return storageErr(op, err)
}

func (s *bookingService) publish(routingKey string, booking *models.Booking) {
	if s.opts.Publisher == nil {
		return
	}
	if err := s.opts.Publisher.Publish(routingKey, booking); err != nil {
		s.log().WithFields(logrus.Fields{
			"bookingId":  booking.BookingID,
			"routingKey": routingKey,
		}).Error("publish booking event: ", err)
	}
}
