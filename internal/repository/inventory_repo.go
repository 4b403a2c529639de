package repository

import (
	"errors"
	"time"

	"github.com/Eursukkul/hotel-booking/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errCounterMissing = errors.New("inventory counter not initialised, run reconcile")

// inventoryRepository keeps the hotel-wide room counter. Every method runs inside the
// caller's transaction so the counter moves together with the booking write.
type inventoryRepository struct {
	table string
}

func newInventoryRepository(table string) *inventoryRepository {
	return &inventoryRepository{table: table}
}

// Adjust moves the counter by delta. A positive delta is a compare-and-swap against the
// stored capacity: when it does not fit, no row matches and ErrInventoryExhausted is returned.
func (r *inventoryRepository) Adjust(tx *gorm.DB, delta int) error {
	if delta == 0 {
		return nil
	}

	q := tx.Table(r.table).Where("id = ?", models.HotelCounterID)
	if delta > 0 {
		q = q.Where("booked + ? <= capacity", delta)
	}

	res := q.Updates(map[string]any{
		"booked":     gorm.Expr("booked + ?", delta),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if _, err := r.Find(tx); err != nil {
		return err
	}
	return ErrInventoryExhausted
}

func (r *inventoryRepository) Find(tx *gorm.DB) (*models.InventoryCounter, error) {
	return r.find(tx.Table(r.table))
}

// Lock reads the counter with a row lock held until tx ends.
func (r *inventoryRepository) Lock(tx *gorm.DB) (*models.InventoryCounter, error) {
	return r.find(tx.Table(r.table).Clauses(clause.Locking{Strength: "UPDATE"}))
}

func (r *inventoryRepository) find(q *gorm.DB) (*models.InventoryCounter, error) {
	var counter models.InventoryCounter
	if err := q.Where("id = ?", models.HotelCounterID).Take(&counter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCounterMissing
		}
		return nil, err
	}
	return &counter, nil
}

// Set upserts the counter row.
func (r *inventoryRepository) Set(tx *gorm.DB, capacity, booked int) error {
	counter := models.InventoryCounter{
		ID:        models.HotelCounterID,
		Capacity:  capacity,
		Booked:    booked,
		UpdatedAt: time.Now().UTC(),
	}
	return tx.Table(r.table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"capacity", "booked", "updated_at"}),
	}).Create(&counter).Error
}

// Create inserts the counter row unless one exists, and reports whether it did.
func (r *inventoryRepository) Create(tx *gorm.DB, capacity, booked int) (bool, error) {
	counter := models.InventoryCounter{
		ID:        models.HotelCounterID,
		Capacity:  capacity,
		Booked:    booked,
		UpdatedAt: time.Now().UTC(),
	}
	res := tx.Table(r.table).Clauses(clause.OnConflict{DoNothing: true}).Create(&counter)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
