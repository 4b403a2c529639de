package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eursukkul/hotel-booking/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrInventoryExhausted = errors.New("inventory counter would exceed hotel capacity")
	ErrConflict           = errors.New("booking was modified concurrently")
)

// BookingRepository is the key-value view of the bookings table.
type BookingRepository interface {
	Scan(ctx context.Context) ([]models.Booking, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	Put(ctx context.Context, booking *models.Booking) error
	// Update overwrites the mutable fields of booking and returns the stored state. A
	// missing record is created.
	Update(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	// Delete removes the booking and returns what was stored, or nil when nothing was.
	Delete(ctx context.Context, id string) (*models.Booking, error)
	// Reconcile rebuilds the inventory counter from a full scan and returns the total.
	Reconcile(ctx context.Context) (int, error)
	// EnsureCounter creates the inventory counter from a full scan only when it does not
	// exist, and reports whether it did. An existing counter is never overwritten.
	EnsureCounter(ctx context.Context) (bool, error)
}

type Options struct {
	Table          string
	InventoryTable string
	// Capacity is the hotel-wide room cap enforced by the inventory counter on every
	// write. Zero leaves writes unguarded.
	Capacity int
}

func (o Options) guarded() bool {
	return o.Capacity > 0
}

func (o Options) withDefaults() Options {
	if o.Table == "" {
		o.Table = "bookings"
	}
	if o.InventoryTable == "" {
		o.InventoryTable = "inventory_counters"
	}
	return o
}

type bookingRepository struct {
	db        *gorm.DB
	opts      Options
	inventory *inventoryRepository
}

func NewBookingRepository(db *gorm.DB, opts Options) BookingRepository {
	opts = opts.withDefaults()
	return &bookingRepository{
		db:        db,
		opts:      opts,
		inventory: newInventoryRepository(opts.InventoryTable),
	}
}

func (r *bookingRepository) table(tx *gorm.DB) *gorm.DB {
	return tx.Table(r.opts.Table)
}

func (r *bookingRepository) Scan(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := r.table(r.db.WithContext(ctx)).Order("created_at ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.find(r.db.WithContext(ctx), id, false)
}

func (r *bookingRepository) find(tx *gorm.DB, id string, forUpdate bool) (*models.Booking, error) {
	q := r.table(tx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var booking models.Booking
	if err := q.Where("booking_id = ?", id).Take(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Put(ctx context.Context, booking *models.Booking) error {
	if !r.opts.guarded() {
		return r.table(r.db.WithContext(ctx)).Create(booking).Error
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.inventory.Adjust(tx, roomCount(booking.Rooms)); err != nil {
			return err
		}
		return r.table(tx).Create(booking).Error
	})
}

func (r *bookingRepository) Update(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	var result *models.Booking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the row so the counter delta is computed against the state we overwrite
		existing, err := r.find(tx, booking.BookingID, true)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		if r.opts.guarded() {
			delta := roomCount(booking.Rooms)
			if existing != nil {
				delta -= roomCount(existing.Rooms)
			}
			if err := r.inventory.Adjust(tx, delta); err != nil {
				return err
			}
		}

		if existing == nil {
			if err := r.table(tx).Create(booking).Error; err != nil {
				return err
			}
		} else {
			err := r.table(tx).Model(booking).
				Select("guest_name", "guest_names", "number_of_guests", "rooms", "total_price").
				Updates(booking).Error
			if err != nil {
				return err
			}
		}

		result, err = r.find(tx, booking.BookingID, false)
		return err
	})

	return result, err
}

func (r *bookingRepository) Delete(ctx context.Context, id string) (*models.Booking, error) {
	var previous *models.Booking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.find(tx, id, true)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := r.table(tx).Where("booking_id = ?", id).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		if r.opts.guarded() {
			if err := r.inventory.Adjust(tx, -roomCount(existing.Rooms)); err != nil {
				return err
			}
		}

		previous = existing
		return nil
	})

	return previous, err
}

func (r *bookingRepository) Reconcile(ctx context.Context) (int, error) {
	total := 0

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.opts.guarded() {
			// writers take the counter row first, so the scan runs after them
			if _, err := r.inventory.Lock(tx); err != nil && !errors.Is(err, errCounterMissing) {
				return err
			}
		}

		var bookings []models.Booking
		if err := r.table(tx).Find(&bookings).Error; err != nil {
			return fmt.Errorf("scan bookings: %w", err)
		}
		total = sumRooms(bookings)

		if !r.opts.guarded() {
			return nil
		}
		return r.inventory.Set(tx, r.opts.Capacity, total)
	})

	return total, err
}

func (r *bookingRepository) EnsureCounter(ctx context.Context) (bool, error) {
	if !r.opts.guarded() {
		return false, nil
	}

	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.inventory.Find(tx); !errors.Is(err, errCounterMissing) {
			return err
		}

		var bookings []models.Booking
		if err := r.table(tx).Find(&bookings).Error; err != nil {
			return fmt.Errorf("scan bookings: %w", err)
		}
		var err error
		created, err = r.inventory.Create(tx, r.opts.Capacity, sumRooms(bookings))
		return err
	})
	return created, err
}

func sumRooms(bookings []models.Booking) int {
	total := 0
	for _, b := range bookings {
		total += roomCount(b.Rooms)
	}
	return total
}

func roomCount(rooms models.Rooms) int {
	n := 0
	for _, r := range rooms {
		n += r.Quantity
	}
	return n
}

// Migrate creates the booking and inventory tables under the configured names.
func Migrate(db *gorm.DB, opts Options) error {
	opts = opts.withDefaults()
	if err := db.Table(opts.Table).AutoMigrate(&models.Booking{}); err != nil {
		return fmt.Errorf("migrate %s: %w", opts.Table, err)
	}
	if err := db.Table(opts.InventoryTable).AutoMigrate(&models.InventoryCounter{}); err != nil {
		return fmt.Errorf("migrate %s: %w", opts.InventoryTable, err)
	}
	return nil
}
