package rooms

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinogo/kinogo/internal/domain"
	"github.com/kinogo/kinogo/internal/repository/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, logger), store
}

func TestGenerateLayout(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, "Saal 1", true)
	require.NoError(t, err)
	assert.Zero(t, room.Capacity)

	seats, err := svc.GenerateLayout(ctx, room.ID, 3, 4)
	require.NoError(t, err)
	require.Len(t, seats, 12)

	assert.Equal(t, "A", seats[0].RowLabel)
	assert.Equal(t, 1, seats[0].SeatNumber)
	assert.Equal(t, "C", seats[11].RowLabel)
	assert.Equal(t, 4, seats[11].SeatNumber)
	for _, seat := range seats {
		assert.Equal(t, domain.SeatStandard, seat.Type)
		assert.True(t, seat.IsAvailable)
	}

	got, err := svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Capacity)
}

func TestGenerateLayout_ReplacesExisting(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, "Saal 1", true)
	require.NoError(t, err)

	_, err = svc.GenerateLayout(ctx, room.ID, 5, 5)
	require.NoError(t, err)

	seats, err := svc.GenerateLayout(ctx, room.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, seats, 4)

	got, err := svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Capacity)
}

func TestGenerateLayout_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, "Saal 1", true)
	require.NoError(t, err)

	_, err = svc.GenerateLayout(ctx, room.ID, 0, 5)
	assert.ErrorIs(t, err, ErrInvalidLayout)
	_, err = svc.GenerateLayout(ctx, room.ID, 27, 5)
	assert.ErrorIs(t, err, ErrInvalidLayout)
	_, err = svc.GenerateLayout(ctx, room.ID, 5, 0)
	assert.ErrorIs(t, err, ErrInvalidLayout)

	_, err = svc.GenerateLayout(ctx, 99999, 2, 2)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestCreateSeat_DuplicatePosition(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, "Saal 1", true)
	require.NoError(t, err)

	seat := domain.Seat{RoomID: room.ID, RowLabel: "A", SeatNumber: 1, Type: domain.SeatVIP, IsAvailable: true}
	created, err := svc.CreateSeat(ctx, seat)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatVIP, created.Type)

	_, err = svc.CreateSeat(ctx, seat)
	assert.ErrorIs(t, err, ErrDuplicateSeatPosition)

	got, err := svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Capacity)
}

func TestDeleteSeat_ShrinksCapacity(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, "Saal 1", true)
	require.NoError(t, err)
	seats, err := svc.GenerateLayout(ctx, room.ID, 2, 2)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSeat(ctx, seats[0].ID))

	got, err := svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Capacity)

	assert.ErrorIs(t, svc.DeleteSeat(ctx, seats[0].ID), ErrSeatNotFound)
}

func TestDeleteAllSeats(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, "Saal 1", true)
	require.NoError(t, err)
	_, err = svc.GenerateLayout(ctx, room.ID, 3, 3)
	require.NoError(t, err)

	deleted, err := svc.DeleteAllSeats(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), deleted)

	got, err := svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Capacity)
}

func TestSetAvailabilityForRow(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, "Saal 1", true)
	require.NoError(t, err)
	_, err = svc.GenerateLayout(ctx, room.ID, 2, 3)
	require.NoError(t, err)

	n, err := svc.SetAvailabilityForRow(ctx, room.ID, "A", false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	seats, err := svc.ListSeats(ctx, room.ID)
	require.NoError(t, err)
	for _, seat := range seats {
		if seat.RowLabel == "A" {
			assert.False(t, seat.IsAvailable)
		} else {
			assert.True(t, seat.IsAvailable)
		}
	}

	n, err = svc.SetAvailabilityForRow(ctx, room.ID, "Z", false)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteRoom(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, "Saal 1", true)
	require.NoError(t, err)
	_, err = svc.GenerateLayout(ctx, room.ID, 1, 2)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteRoom(ctx, room.ID), ErrRoomHasSeats)

	_, err = svc.DeleteAllSeats(ctx, room.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRoom(ctx, room.ID))

	_, err = svc.GetRoom(ctx, room.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
