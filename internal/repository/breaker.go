package repository

import (
	"context"
	"errors"

	"github.com/Eursukkul/hotel-booking/internal/models"
	"github.com/sony/gobreaker"
)

// breakerRepository fails fast while the storage backend keeps erroring. Domain outcomes
// (not found, inventory exhausted, conflicts) do not count as failures.
type breakerRepository struct {
	next BookingRepository
	cb   *gobreaker.CircuitBreaker
}

func WithBreaker(next BookingRepository, settings gobreaker.Settings) BookingRepository {
	if settings.Name == "" {
		settings.Name = "booking-storage"
	}
	if settings.IsSuccessful == nil {
		settings.IsSuccessful = func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrInventoryExhausted) ||
				errors.Is(err, ErrConflict) ||
				errors.Is(err, context.Canceled)
		}
	}
	return &breakerRepository{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

func (r *breakerRepository) Scan(ctx context.Context) ([]models.Booking, error) {
	return execute(r.cb, func() ([]models.Booking, error) { return r.next.Scan(ctx) })
}

func (r *breakerRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	return execute(r.cb, func() (*models.Booking, error) { return r.next.FindByID(ctx, id) })
}

func (r *breakerRepository) Put(ctx context.Context, booking *models.Booking) error {
	_, err := execute(r.cb, func() (struct{}, error) { return struct{}{}, r.next.Put(ctx, booking) })
	return err
}

func (r *breakerRepository) Update(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	return execute(r.cb, func() (*models.Booking, error) { return r.next.Update(ctx, booking) })
}

func (r *breakerRepository) Delete(ctx context.Context, id string) (*models.Booking, error) {
	return execute(r.cb, func() (*models.Booking, error) { return r.next.Delete(ctx, id) })
}

func (r *breakerRepository) Reconcile(ctx context.Context) (int, error) {
	return execute(r.cb, func() (int, error) { return r.next.Reconcile(ctx) })
}

func (r *breakerRepository) EnsureCounter(ctx context.Context) (bool, error) {
	return execute(r.cb, func() (bool, error) { return r.next.EnsureCounter(ctx) })
}
