package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Eursukkul/hotel-booking/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalBookedRooms(t *testing.T) {
	repo := &mockRepo{scanFn: scanOf(
		booked("a", room(models.RoomSingle, 2), room(models.RoomDouble, 1)),
		booked("b", room(models.RoomSuite, 4)),
		booked("c"),
	)}
	ledger := NewLedger(repo)

	total, err := ledger.TotalBookedRooms(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	total, err = ledger.TotalBookedRooms(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	total, err = ledger.TotalBookedRooms(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Equal(t, 7, total)
}

func TestTotalBookedRooms_ExcludeIsIdempotent(t *testing.T) {
	repo := &mockRepo{scanFn: scanOf(
		booked("a", room(models.RoomSingle, 2)),
		booked("b", room(models.RoomSuite, 1)),
	)}
	ledger := NewLedger(repo)

	first, err := ledger.TotalBookedRooms(context.Background(), "a")
	require.NoError(t, err)
	second, err := ledger.TotalBookedRooms(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTotalBookedRooms_StorageFailure(t *testing.T) {
	cause := errors.New("connection reset")
	repo := &mockRepo{scanFn: func(ctx context.Context) ([]models.Booking, error) {
		return nil, cause
	}}

	_, err := NewLedger(repo).TotalBookedRooms(context.Background(), "")
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
}
