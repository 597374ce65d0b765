package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinogo/kinogo/internal/clock"
	"github.com/kinogo/kinogo/internal/domain"
	"github.com/kinogo/kinogo/internal/email"
	"github.com/kinogo/kinogo/internal/repository/memory"
)

type fakeBridge struct {
	mu    sync.Mutex
	ref   string
	err   error
	calls int
}

func (f *fakeBridge) CreateOrder(ctx context.Context, amountCents int64, currency string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.calls == 1 {
		return f.ref, nil
	}
	return fmt.Sprintf("%s-%d", f.ref, f.calls), nil
}

type fakeSender struct {
	sent []email.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg email.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeLimiter struct {
	allowed bool
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (bool, int64, time.Duration, error) {
	return f.allowed, 0, 0, nil
}

type fixture struct {
	svc    *Service
	store  *memory.Store
	bridge *fakeBridge
	sender *fakeSender
	clk    *clock.Fake

	userID  int64
	showID  int64
	seatIDs []int64 // A1 standard, A2 standard, B1 premium, B2 vip
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	bridge := &fakeBridge{ref: "PAY-REF-1"}
	sender := &fakeSender{}
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := New(store, bridge, sender, nil, nil, nil, clk, logger, Config{})

	userID, err := store.CreateUser(ctx, domain.User{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	})
	require.NoError(t, err)

	movieID, err := store.CreateMovie(ctx, domain.Movie{Title: "Metropolis", DurationMin: 120})
	require.NoError(t, err)

	roomID, err := store.CreateRoom(ctx, "Saal 1", true)
	require.NoError(t, err)

	var seatIDs []int64
	for _, s := range []domain.Seat{
		{RoomID: roomID, RowLabel: "A", SeatNumber: 1, Type: domain.SeatStandard, IsAvailable: true},
		{RoomID: roomID, RowLabel: "A", SeatNumber: 2, Type: domain.SeatStandard, IsAvailable: true},
		{RoomID: roomID, RowLabel: "B", SeatNumber: 1, Type: domain.SeatPremium, IsAvailable: true},
		{RoomID: roomID, RowLabel: "B", SeatNumber: 2, Type: domain.SeatVIP, IsAvailable: true},
	} {
		id, err := store.CreateSeat(ctx, s)
		require.NoError(t, err)
		seatIDs = append(seatIDs, id)
	}

	showID, err := store.CreateShow(ctx, domain.Show{
		MovieID:        movieID,
		RoomID:         roomID,
		StartsAt:       clk.Now().Add(2 * time.Hour),
		EndsAt:         clk.Now().Add(4 * time.Hour),
		BasePriceCents: 1000,
	})
	require.NoError(t, err)

	return &fixture{
		svc:     svc,
		store:   store,
		bridge:  bridge,
		sender:  sender,
		clk:     clk,
		userID:  userID,
		showID:  showID,
		seatIDs: seatIDs,
	}
}

func TestCreateOrder_ReservesAllSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs)
	require.NoError(t, err)

	require.Len(t, out.Tickets, 4)
	for _, ticket := range out.Tickets {
		assert.NotZero(t, ticket.ID)
		assert.Equal(t, domain.TicketReserved, ticket.State)
		require.NotNil(t, ticket.OrderID)
		assert.Equal(t, out.Order.ID, *ticket.OrderID)
	}

	// 1000 + 1000 + 1250 + 1500
	assert.Equal(t, int64(4750), out.Order.TotalCents)
	require.NotNil(t, out.Order.PaymentRef)
	assert.Equal(t, "PAY-REF-1", *out.Order.PaymentRef)
}

func TestCreateOrder_SeatConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs[:2])
	require.NoError(t, err)

	// overlapping on A2
	_, err = f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs[1:3])
	assert.ErrorIs(t, err, ErrSeatConflict)

	// the losing request must leave no tickets behind
	counts, err := f.store.ShowCounts(ctx, f.showID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Reserved)
	assert.Equal(t, int64(2), counts.Available)
}

func TestCreateOrder_ConcurrentSameSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const racers = 8
	seat := f.seatIDs[:1]

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		won       int
		conflicts int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateOrder(ctx, f.userID, f.showID, seat)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, ErrSeatConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, racers-1, conflicts)

	counts, err := f.store.ShowCounts(ctx, f.showID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Reserved)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, f.userID, f.showID, nil)
	assert.ErrorIs(t, err, ErrNoSeatsSelected)

	_, err = f.svc.CreateOrder(ctx, f.userID, f.showID, []int64{f.seatIDs[0], f.seatIDs[0]})
	assert.ErrorIs(t, err, ErrDuplicateSeat)

	_, err = f.svc.CreateOrder(ctx, f.userID, f.showID, []int64{99999})
	assert.ErrorIs(t, err, ErrSeatNotFound)

	_, err = f.svc.CreateOrder(ctx, f.userID, 99999, f.seatIDs[:1])
	assert.ErrorIs(t, err, ErrShowNotFound)
}

func TestCreateOrder_ShowAlreadyStarted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.MarkShowStarted(ctx, f.showID))

	_, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs[:1])
	assert.ErrorIs(t, err, ErrShowAlreadyStarted)
}

func TestCreateOrder_UnavailableSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seat, err := f.store.GetSeat(ctx, f.seatIDs[0])
	require.NoError(t, err)
	seat.IsAvailable = false
	require.NoError(t, f.store.UpdateSeat(ctx, *seat))

	_, err = f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs[:1])
	assert.ErrorIs(t, err, ErrSeatUnavailable)
}

func TestCreateOrder_PaymentFailureReleasesSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bridge.err = errors.New("provider down")

	_, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs)
	assert.ErrorIs(t, err, ErrPaymentFailed)

	counts, err := f.store.ShowCounts(ctx, f.showID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Reserved, "failed payment must free the seats")
	assert.Equal(t, int64(4), counts.Available)
}

func TestCreateOrder_RateLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.limiter = &fakeLimiter{allowed: false}

	_, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs[:1])
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestConfirmPayment_BooksTicketsAndSendsMail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs[:2])
	require.NoError(t, err)

	confirmed, err := f.svc.ConfirmPayment(ctx, *out.Order.PaymentRef)
	require.NoError(t, err)

	require.Len(t, confirmed.Tickets, 2)
	for _, ticket := range confirmed.Tickets {
		assert.Equal(t, domain.TicketBooked, ticket.State)
	}

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Contains(t, msg.HTMLBody, "data:image/png;base64,")
	assert.Contains(t, msg.HTMLBody, "Seat A1")

	// one QR attachment per ticket
	require.Len(t, msg.Attachments, 2)
	for i, a := range msg.Attachments {
		assert.Equal(t, fmt.Sprintf("ticket-%d.png", confirmed.Tickets[i].ID), a.Filename)
		assert.NotEmpty(t, a.Content)
	}
}

func TestConfirmPayment_ReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs[:2])
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(ctx, *out.Order.PaymentRef)
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(ctx, *out.Order.PaymentRef)
	require.NoError(t, err)

	assert.Len(t, f.sender.sent, 1, "replayed capture must not send a second mail")
}

func TestConfirmPayment_UnknownRef(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ConfirmPayment(context.Background(), "NO-SUCH-REF")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestConfirmPayment_InvalidatedTicketsStayInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs[:2])
	require.NoError(t, err)

	// show started before the customer paid
	_, err = f.store.InvalidateReservedTickets(ctx, f.showID)
	require.NoError(t, err)

	confirmed, err := f.svc.ConfirmPayment(ctx, *out.Order.PaymentRef)
	require.NoError(t, err)
	for _, ticket := range confirmed.Tickets {
		assert.Equal(t, domain.TicketInvalid, ticket.State)
	}
	assert.Empty(t, f.sender.sent, "nothing was booked, nothing to confirm")
}

func TestConfirmPayment_MailFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs[:1])
	require.NoError(t, err)

	f.sender.err = errors.New("smtp down")

	confirmed, err := f.svc.ConfirmPayment(ctx, *out.Order.PaymentRef)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketBooked, confirmed.Tickets[0].State)
}

func TestApplyDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.CreateDiscount(ctx, domain.Discount{
		Code:       "SUMMER10",
		Percentage: 10,
		ValidUntil: f.clk.Now().Add(24 * time.Hour),
		IsActive:   true,
	})
	require.NoError(t, err)

	out, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs)
	require.NoError(t, err)
	require.Equal(t, int64(4750), out.Order.TotalCents)

	order, err := f.svc.ApplyDiscount(ctx, out.Order.ID, "summer10")
	require.NoError(t, err)
	assert.Equal(t, int64(4275), order.TotalCents)
	require.NotNil(t, order.DiscountID)

	// reapplying must not compound
	order, err = f.svc.ApplyDiscount(ctx, out.Order.ID, "SUMMER10")
	require.NoError(t, err)
	assert.Equal(t, int64(4275), order.TotalCents)
}

func TestApplyDiscount_ReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, d := range []domain.Discount{
		{Code: "TEN", Percentage: 10, ValidUntil: f.clk.Now().Add(time.Hour), IsActive: true},
		{Code: "TWENTY", Percentage: 20, ValidUntil: f.clk.Now().Add(time.Hour), IsActive: true},
	} {
		_, err := f.store.CreateDiscount(ctx, d)
		require.NoError(t, err)
	}

	out, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs[:2])
	require.NoError(t, err)

	order, err := f.svc.ApplyDiscount(ctx, out.Order.ID, "TEN")
	require.NoError(t, err)
	assert.Equal(t, int64(1800), order.TotalCents)

	order, err = f.svc.ApplyDiscount(ctx, out.Order.ID, "TWENTY")
	require.NoError(t, err)
	assert.Equal(t, int64(1600), order.TotalCents, "second code replaces the first, computed from the ticket sum")
}

func TestApplyDiscount_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.CreateDiscount(ctx, domain.Discount{
		Code: "EXPIRED", Percentage: 10, ValidUntil: f.clk.Now().Add(time.Hour), IsActive: true,
	})
	require.NoError(t, err)
	_, err = f.store.CreateDiscount(ctx, domain.Discount{
		Code: "PAUSED", Percentage: 10, ValidUntil: f.clk.Now().Add(time.Hour), IsActive: false,
	})
	require.NoError(t, err)

	out, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs[:1])
	require.NoError(t, err)

	_, err = f.svc.ApplyDiscount(ctx, out.Order.ID, "NOPE")
	assert.ErrorIs(t, err, ErrDiscountNotFound)

	_, err = f.svc.ApplyDiscount(ctx, out.Order.ID, "PAUSED")
	assert.ErrorIs(t, err, ErrDiscountInactive)

	f.clk.Advance(2 * time.Hour)
	_, err = f.svc.ApplyDiscount(ctx, out.Order.ID, "EXPIRED")
	assert.ErrorIs(t, err, ErrDiscountExpired)

	// total untouched by failed applications
	order, err := f.svc.GetOrder(ctx, out.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), order.Order.TotalCents)
}

func TestDeleteOrder_FreesSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteOrder(ctx, out.Order.ID))

	_, err = f.svc.GetOrder(ctx, out.Order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	counts, err := f.store.ShowCounts(ctx, f.showID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), counts.Available)

	// seats can be booked again
	_, err = f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs)
	require.NoError(t, err)
}

func TestListOrdersByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs[:1])
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs[1:2])
	require.NoError(t, err)

	orders, err := f.svc.ListOrdersByUser(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, first.Order.ID, orders[0].ID)
	assert.Equal(t, second.Order.ID, orders[1].ID)
}

func TestGetTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.CreateOrder(ctx, f.userID, f.showID, f.seatIDs[:1])
	require.NoError(t, err)
	require.Len(t, out.Tickets, 1)

	ticket, err := f.svc.GetTicket(ctx, out.Tickets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, out.Tickets[0].SeatID, ticket.SeatID)
	assert.Equal(t, domain.TicketReserved, ticket.State)

	_, err = f.svc.GetTicket(ctx, 99999)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}
