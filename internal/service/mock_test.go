package service

import (
	"context"

	"github.com/Eursukkul/hotel-booking/internal/models"
)

// --- Mock BookingRepository ---

type mockRepo struct {
	scanFn      func(ctx context.Context) ([]models.Booking, error)
	findFn      func(ctx context.Context, id string) (*models.Booking, error)
	putFn       func(ctx context.Context, b *models.Booking) error
	updateFn    func(ctx context.Context, b *models.Booking) (*models.Booking, error)
	deleteFn    func(ctx context.Context, id string) (*models.Booking, error)
	reconcileFn func(ctx context.Context) (int, error)
	ensureFn    func(ctx context.Context) (bool, error)
}

func (m *mockRepo) Scan(ctx context.Context) ([]models.Booking, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx)
	}
	return nil, nil
}
func (m *mockRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	return m.findFn(ctx, id)
}
func (m *mockRepo) Put(ctx context.Context, b *models.Booking) error {
	return m.putFn(ctx, b)
}
func (m *mockRepo) Update(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	return m.updateFn(ctx, b)
}
func (m *mockRepo) Delete(ctx context.Context, id string) (*models.Booking, error) {
	return m.deleteFn(ctx, id)
}
func (m *mockRepo) Reconcile(ctx context.Context) (int, error) {
	return m.reconcileFn(ctx)
}
func (m *mockRepo) EnsureCounter(ctx context.Context) (bool, error) {
	return m.ensureFn(ctx)
}

// --- Mock EventPublisher ---

type published struct {
	key     string
	payload any
}

type mockPublisher struct {
	sent []published
	err  error
}

func (m *mockPublisher) Publish(routingKey string, payload any) error {
	m.sent = append(m.sent, published{key: routingKey, payload: payload})
	return m.err
}

func scanOf(bookings ...models.Booking) func(ctx context.Context) ([]models.Booking, error) {
	return func(ctx context.Context) ([]models.Booking, error) {
		return bookings, nil
	}
}

func booked(id string, rooms ...models.Room) models.Booking {
	return models.Booking{BookingID: id, GuestName: "guest-" + id, NumberOfGuests: 1, Rooms: rooms}
}

func room(t models.RoomType, qty int) models.Room {
	return models.Room{Type: t, Quantity: qty}
}
