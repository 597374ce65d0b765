package shows

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinogo/kinogo/internal/clock"
	"github.com/kinogo/kinogo/internal/domain"
	"github.com/kinogo/kinogo/internal/repository/memory"
)

type fixture struct {
	svc     *Service
	store   *memory.Store
	clk     *clock.Fake
	movieID int64
	roomID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	movieID, err := store.CreateMovie(ctx, domain.Movie{Title: "Nosferatu", DurationMin: 94})
	require.NoError(t, err)
	roomID, err := store.CreateRoom(ctx, "Saal 1", true)
	require.NoError(t, err)

	return &fixture{
		svc:     New(store, nil, nil, clk, logger),
		store:   store,
		clk:     clk,
		movieID: movieID,
		roomID:  roomID,
	}
}

func (f *fixture) show(start, end time.Time) domain.Show {
	return domain.Show{
		MovieID:        f.movieID,
		RoomID:         f.roomID,
		StartsAt:       start,
		EndsAt:         end,
		BasePriceCents: 1000,
	}
}

func TestCreateShow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.clk.Now()

	show, err := f.svc.CreateShow(ctx, f.show(base.Add(time.Hour), base.Add(3*time.Hour)))
	require.NoError(t, err)
	assert.NotZero(t, show.ID)
	assert.False(t, show.HasStarted)
}

func TestCreateShow_InvalidTimeRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.clk.Now()

	_, err := f.svc.CreateShow(ctx, f.show(base.Add(time.Hour), base.Add(time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = f.svc.CreateShow(ctx, f.show(base.Add(2*time.Hour), base.Add(time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestCreateShow_Overlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.clk.Now()

	_, err := f.svc.CreateShow(ctx, f.show(base.Add(time.Hour), base.Add(3*time.Hour)))
	require.NoError(t, err)

	// partial overlap on either side conflicts
	_, err = f.svc.CreateShow(ctx, f.show(base.Add(2*time.Hour), base.Add(4*time.Hour)))
	assert.ErrorIs(t, err, ErrShowOverlap)
	_, err = f.svc.CreateShow(ctx, f.show(base, base.Add(90*time.Minute)))
	assert.ErrorIs(t, err, ErrShowOverlap)

	// back to back is fine
	_, err = f.svc.CreateShow(ctx, f.show(base.Add(3*time.Hour), base.Add(5*time.Hour)))
	assert.NoError(t, err)

	// a different room is fine
	otherRoom, err := f.store.CreateRoom(ctx, "Saal 2", true)
	require.NoError(t, err)
	other := f.show(base.Add(time.Hour), base.Add(3*time.Hour))
	other.RoomID = otherRoom
	_, err = f.svc.CreateShow(ctx, other)
	assert.NoError(t, err)
}

func TestUpdateShow_ExcludesItselfFromOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.clk.Now()

	show, err := f.svc.CreateShow(ctx, f.show(base.Add(time.Hour), base.Add(3*time.Hour)))
	require.NoError(t, err)

	// shifting within its own window must not conflict with itself
	updated := *show
	updated.StartsAt = base.Add(90 * time.Minute)
	out, err := f.svc.UpdateShow(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, base.Add(90*time.Minute), out.StartsAt)
}

func TestCreateShow_UnknownReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.clk.Now()

	show := f.show(base.Add(time.Hour), base.Add(2*time.Hour))
	show.MovieID = 99999
	_, err := f.svc.CreateShow(ctx, show)
	assert.ErrorIs(t, err, ErrUnknownReference)
}

func TestStartShow_InvalidatesReservedOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.clk.Now()

	show, err := f.svc.CreateShow(ctx, f.show(base.Add(time.Hour), base.Add(3*time.Hour)))
	require.NoError(t, err)

	seatA, err := f.store.CreateSeat(ctx, domain.Seat{RoomID: f.roomID, RowLabel: "A", SeatNumber: 1, Type: domain.SeatStandard, IsAvailable: true})
	require.NoError(t, err)
	seatB, err := f.store.CreateSeat(ctx, domain.Seat{RoomID: f.roomID, RowLabel: "A", SeatNumber: 2, Type: domain.SeatStandard, IsAvailable: true})
	require.NoError(t, err)

	orderID, err := f.store.CreateOrder(ctx, 1, 2000)
	require.NoError(t, err)
	err = f.store.InsertTickets(ctx, []domain.Ticket{
		{ShowID: show.ID, SeatID: seatA, OrderID: &orderID, SeatType: domain.SeatStandard, PriceCents: 1000, State: domain.TicketReserved},
		{ShowID: show.ID, SeatID: seatB, OrderID: &orderID, SeatType: domain.SeatStandard, PriceCents: 1000, State: domain.TicketBooked},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.StartShow(ctx, show.ID))

	got, err := f.svc.GetShow(ctx, show.ID)
	require.NoError(t, err)
	assert.True(t, got.HasStarted)

	counts, err := f.store.ShowCounts(ctx, show.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Booked, "paid tickets survive the start")
	assert.Equal(t, int64(0), counts.Reserved, "unpaid reservations are gone")

	// second start is a no-op
	require.NoError(t, f.svc.StartShow(ctx, show.ID))
}

func TestSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.clk.Now()

	early, err := f.svc.CreateShow(ctx, f.show(base.Add(time.Hour), base.Add(2*time.Hour)))
	require.NoError(t, err)
	late, err := f.svc.CreateShow(ctx, f.show(base.Add(5*time.Hour), base.Add(6*time.Hour)))
	require.NoError(t, err)

	// nothing due yet
	started, ended, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, started)
	assert.Zero(t, ended)

	// first show has started
	f.clk.Advance(90 * time.Minute)
	started, ended, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, started)
	assert.Zero(t, ended)

	got, err := f.svc.GetShow(ctx, early.ID)
	require.NoError(t, err)
	assert.True(t, got.HasStarted)
	assert.False(t, got.HasEnded)

	// a repeated sweep at the same instant changes nothing
	started, ended, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, started)
	assert.Zero(t, ended)

	// past the end of the first and the start of the second
	f.clk.Set(base.Add(5*time.Hour + time.Minute))
	started, ended, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, ended)

	got, err = f.svc.GetShow(ctx, early.ID)
	require.NoError(t, err)
	assert.True(t, got.HasEnded)
	got, err = f.svc.GetShow(ctx, late.ID)
	require.NoError(t, err)
	assert.True(t, got.HasStarted)
}

func TestDeleteShow_CascadesTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.clk.Now()

	show, err := f.svc.CreateShow(ctx, f.show(base.Add(time.Hour), base.Add(2*time.Hour)))
	require.NoError(t, err)

	seat, err := f.store.CreateSeat(ctx, domain.Seat{RoomID: f.roomID, RowLabel: "A", SeatNumber: 1, Type: domain.SeatStandard, IsAvailable: true})
	require.NoError(t, err)
	orderID, err := f.store.CreateOrder(ctx, 1, 1000)
	require.NoError(t, err)
	err = f.store.InsertTickets(ctx, []domain.Ticket{
		{ShowID: show.ID, SeatID: seat, OrderID: &orderID, SeatType: domain.SeatStandard, PriceCents: 1000, State: domain.TicketReserved},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteShow(ctx, show.ID))

	_, err = f.svc.GetShow(ctx, show.ID)
	assert.ErrorIs(t, err, ErrShowNotFound)

	owt, err := f.store.GetOrderWithTickets(ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, owt.Tickets, "tickets go with the show")
}

func TestEndShow_NotFound(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.svc.EndShow(context.Background(), 12345), ErrShowNotFound)
}
