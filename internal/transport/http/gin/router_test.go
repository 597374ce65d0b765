package httpgin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinogo/kinogo/internal/clock"
	"github.com/kinogo/kinogo/internal/domain"
	"github.com/kinogo/kinogo/internal/repository/memory"
	"github.com/kinogo/kinogo/internal/service"
	"github.com/kinogo/kinogo/internal/service/booking"
	"github.com/kinogo/kinogo/internal/service/catalog"
	"github.com/kinogo/kinogo/internal/service/discounts"
	"github.com/kinogo/kinogo/internal/service/query"
	"github.com/kinogo/kinogo/internal/service/rooms"
	"github.com/kinogo/kinogo/internal/service/shows"
)

type stubBridge struct{ n int }

func (b *stubBridge) CreateOrder(ctx context.Context, amountCents int64, currency string) (string, error) {
	b.n++
	return fmt.Sprintf("PAY-%d", b.n), nil
}

type env struct {
	router *gin.Engine
	store  *memory.Store
	clk    *clock.Fake

	userID  int64
	showID  int64
	seatIDs []int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := memory.New()
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svcs := &service.Services{
		Rooms:     rooms.New(store, logger),
		Shows:     shows.New(store, nil, nil, clk, logger),
		Booking:   booking.New(store, &stubBridge{}, nil, nil, nil, nil, clk, logger, booking.Config{}),
		Discounts: discounts.New(store),
		Query:     query.New(store, nil),
		Catalog:   catalog.New(store),
	}

	userID, err := store.CreateUser(ctx, domain.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)
	movieID, err := store.CreateMovie(ctx, domain.Movie{Title: "Metropolis", DurationMin: 120})
	require.NoError(t, err)
	roomID, err := store.CreateRoom(ctx, "Saal 1", true)
	require.NoError(t, err)

	var seatIDs []int64
	for n := 1; n <= 3; n++ {
		id, err := store.CreateSeat(ctx, domain.Seat{
			RoomID: roomID, RowLabel: "A", SeatNumber: n,
			Type: domain.SeatStandard, IsAvailable: true,
		})
		require.NoError(t, err)
		seatIDs = append(seatIDs, id)
	}

	showID, err := store.CreateShow(ctx, domain.Show{
		MovieID: movieID, RoomID: roomID,
		StartsAt:       clk.Now().Add(2 * time.Hour),
		EndsAt:         clk.Now().Add(4 * time.Hour),
		BasePriceCents: 1000,
	})
	require.NoError(t, err)

	return &env{
		router:  NewRouter(svcs, nil, logger),
		store:   store,
		clk:     clk,
		userID:  userID,
		showID:  showID,
		seatIDs: seatIDs,
	}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrderEndpoint(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/orders", CreateOrderRequest{
		UserID: e.userID, ShowID: e.showID, SeatIDs: e.seatIDs[:2],
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out domain.OrderWithTickets
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Tickets, 2)
	assert.Equal(t, int64(2000), out.Order.TotalCents)

	// contested seat comes back as 409
	rec = e.do(t, http.MethodPost, "/orders", CreateOrderRequest{
		UserID: e.userID, ShowID: e.showID, SeatIDs: e.seatIDs[1:],
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// missing seats is 400 from binding
	rec = e.do(t, http.MethodPost, "/orders", map[string]any{"user_id": e.userID, "show_id": e.showID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentWebhook(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/orders", CreateOrderRequest{
		UserID: e.userID, ShowID: e.showID, SeatIDs: e.seatIDs[:1],
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var out domain.OrderWithTickets
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotNil(t, out.Order.PaymentRef)

	hook := PaymentWebhookRequest{EventType: paymentApprovedEvent}
	hook.Resource.ID = *out.Order.PaymentRef
	rec = e.do(t, http.MethodPost, "/webhooks/paypal", hook)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "confirmed")

	got, err := e.store.GetOrderWithTickets(context.Background(), out.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketBooked, got.Tickets[0].State)
}

func TestPaymentWebhook_IgnoresOtherEvents(t *testing.T) {
	e := newEnv(t)

	hook := PaymentWebhookRequest{EventType: "PAYMENT.CAPTURE.DENIED"}
	hook.Resource.ID = "whatever"
	rec := e.do(t, http.MethodPost, "/webhooks/paypal", hook)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ignored")
}

func TestPaymentWebhook_UnknownRefIsAcknowledged(t *testing.T) {
	e := newEnv(t)

	hook := PaymentWebhookRequest{EventType: paymentApprovedEvent}
	hook.Resource.ID = "NO-SUCH-REF"
	rec := e.do(t, http.MethodPost, "/webhooks/paypal", hook)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ignored")
}

func TestPaymentWebhook_BadPayload(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/webhooks/paypal", map[string]any{"resource": map[string]any{"id": "x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	hook := PaymentWebhookRequest{EventType: paymentApprovedEvent}
	rec = e.do(t, http.MethodPost, "/webhooks/paypal", hook)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSeatMapEndpoint(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/orders", CreateOrderRequest{
		UserID: e.userID, ShowID: e.showID, SeatIDs: e.seatIDs[:1],
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodGet, fmt.Sprintf("/shows/%d/seats", e.showID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var seats []domain.SeatWithState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seats))
	require.Len(t, seats, 3)
	assert.Equal(t, domain.TicketReserved, seats[0].State)
	assert.Equal(t, domain.TicketAvailable, seats[1].State)
}

func TestAdminShowLifecycleEndpoints(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, fmt.Sprintf("/admin/shows/%d/start", e.showID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, fmt.Sprintf("/shows/%d", e.showID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var show domain.Show
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &show))
	assert.True(t, show.HasStarted)

	// no bookings once the show has started
	rec = e.do(t, http.MethodPost, "/orders", CreateOrderRequest{
		UserID: e.userID, ShowID: e.showID, SeatIDs: e.seatIDs[:1],
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
