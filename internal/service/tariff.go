package service

import (
	"fmt"
	"maps"
	"sync"

	"github.com/Eursukkul/hotel-booking/internal/models"
)

// Tariff holds the per-room-type guest capacity and unit price.
type Tariff struct {
	Capacity map[models.RoomType]int
	Price    map[models.RoomType]int
}

func DefaultTariff() Tariff {
	return Tariff{
		Capacity: map[models.RoomType]int{
			models.RoomSingle: 1,
			models.RoomDouble: 2,
			models.RoomSuite:  3,
		},
		Price: map[models.RoomType]int{
			models.RoomSingle: 500,
			models.RoomDouble: 1000,
			models.RoomSuite:  1500,
		},
	}
}

func (t Tariff) Clone() Tariff {
	return Tariff{Capacity: maps.Clone(t.Capacity), Price: maps.Clone(t.Price)}
}

// CapacityOf returns how many guests the rooms can hold. Types missing from the capacity
// table contribute nothing, so callers must reject unknown types first.
func (t Tariff) CapacityOf(rooms models.Rooms) int {
	total := 0
	for _, r := range rooms {
		total += t.Capacity[r.Type] * r.Quantity
	}
	return total
}

// TotalRoomsRequested sums quantities regardless of room type.
func TotalRoomsRequested(rooms models.Rooms) int {
	total := 0
	for _, r := range rooms {
		total += r.Quantity
	}
	return total
}

func (t Tariff) PriceOf(rooms models.Rooms) (int, error) {
	total := 0
	for _, r := range rooms {
		price, ok := t.Price[r.Type]
		if !ok {
			return 0, fmt.Errorf("%w: %q has no price", ErrInvalidRoomType, r.Type)
		}
		total += price * r.Quantity
	}
	return total, nil
}

// RoomRate is one tariff line as delivered by the rates feed.
type RoomRate struct {
	Type     models.RoomType `json:"type"`
	Capacity int             `json:"capacity"`
	Price    int             `json:"price"`
}

type TariffSource interface {
	Current() Tariff
}

// TariffStore is a concurrency-safe, live-updatable Tariff.
type TariffStore struct {
	mu     sync.RWMutex
	tariff Tariff
}

func NewTariffStore(initial Tariff) *TariffStore {
	return &TariffStore{tariff: initial.Clone()}
}

func (s *TariffStore) Current() Tariff {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tariff.Clone()
}

func (s *TariffStore) Apply(rate RoomRate) error {
	if !rate.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRoomType, rate.Type)
	}
	if rate.Capacity <= 0 || rate.Price < 0 {
		return fmt.Errorf("rate for %s: capacity must be > 0 and price >= 0", rate.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tariff.Capacity == nil {
		s.tariff.Capacity = make(map[models.RoomType]int)
	}
	if s.tariff.Price == nil {
		s.tariff.Price = make(map[models.RoomType]int)
	}
	s.tariff.Capacity[rate.Type] = rate.Capacity
	s.tariff.Price[rate.Type] = rate.Price
	return nil
}
