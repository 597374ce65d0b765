// Package booking implements the order lifecycle: atomic multi-seat
// reservation, discount application, payment confirmation and cancellation.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kinogo/kinogo/internal/clock"
	"github.com/kinogo/kinogo/internal/domain"
	"github.com/kinogo/kinogo/internal/email"
	"github.com/kinogo/kinogo/internal/payment"
	"github.com/kinogo/kinogo/internal/repository"
	"github.com/kinogo/kinogo/internal/uow"
)

// Store is the storage surface the booking service needs.
type Store interface {
	uow.Runner

	GetShow(ctx context.Context, id int64) (*domain.Show, error)
	SeatsByIDs(ctx context.Context, ids []int64) ([]domain.Seat, error)
	ActiveTicketSeatIDs(ctx context.Context, showID int64, seatIDs []int64) ([]int64, error)
	InsertTickets(ctx context.Context, tickets []domain.Ticket) error
	BookTicketsByOrder(ctx context.Context, orderID int64) (int64, error)
	GetTicket(ctx context.Context, id int64) (*domain.Ticket, error)

	CreateOrder(ctx context.Context, userID, totalCents int64) (int64, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	GetOrderWithTickets(ctx context.Context, id int64) (*domain.OrderWithTickets, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	SetOrderPaymentRef(ctx context.Context, id int64, ref string) error
	OrderIDByPaymentRef(ctx context.Context, ref string) (int64, error)
	SetOrderDiscount(ctx context.Context, id int64, discountID *int64, totalCents int64) error
	TicketSumCents(ctx context.Context, orderID int64) (int64, error)

	DiscountByCode(ctx context.Context, code string) (*domain.Discount, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

// Limiter throttles order creation per caller.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, int64, time.Duration, error)
}

// Invalidator drops cached show projections after a commit.
type Invalidator interface {
	InvalidateShow(ctx context.Context, showID int64) error
}

// Publisher fans out show-changed notifications.
type Publisher interface {
	PublishShowChanged(ctx context.Context, showID int64) error
}

type Config struct {
	PaymentTimeout time.Duration
	Currency       string
}

type Service struct {
	store   Store
	uow     *uow.UoW
	bridge  payment.Bridge
	sender  email.Sender
	limiter Limiter
	cache   Invalidator
	pubsub  Publisher
	clk     clock.Clock
	logger  *slog.Logger
	cfg     Config
}

func New(
	store Store,
	bridge payment.Bridge,
	sender email.Sender,
	limiter Limiter,
	cache Invalidator,
	pubsub Publisher,
	clk clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 10 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	return &Service{
		store:   store,
		uow:     uow.New(store),
		bridge:  bridge,
		sender:  sender,
		limiter: limiter,
		cache:   cache,
		pubsub:  pubsub,
		clk:     clk,
		logger:  logger,
		cfg:     cfg,
	}
}

// CreateOrder reserves the requested seats for the show and registers the
// order with the payment provider. All seats are taken atomically: one
// contested seat fails the whole request and no ticket rows remain.
func (s *Service) CreateOrder(ctx context.Context, userID, showID int64, seatIDs []int64) (*domain.OrderWithTickets, error) {
	const op = "booking.Service.CreateOrder"

	if len(seatIDs) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoSeatsSelected)
	}
	seen := make(map[int64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%s: %w", op, ErrDuplicateSeat)
		}
		seen[id] = struct{}{}
	}

	if s.limiter != nil {
		allowed, _, _, err := s.limiter.Allow(ctx, fmt.Sprintf("order:%d", userID))
		if err != nil {
			s.logger.Warn("rate limiter unavailable, allowing request", "error", err)
		} else if !allowed {
			return nil, fmt.Errorf("%s: %w", op, ErrRateLimited)
		}
	}

	var out domain.OrderWithTickets

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		show, err := s.store.GetShow(ctx, showID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrShowNotFound
			}
			return err
		}
		if show.HasStarted {
			return ErrShowAlreadyStarted
		}

		seats, err := s.store.SeatsByIDs(ctx, seatIDs)
		if err != nil {
			return err
		}
		if len(seats) != len(seatIDs) {
			return ErrSeatNotFound
		}
		for _, seat := range seats {
			if seat.RoomID != show.RoomID {
				return ErrSeatNotInRoom
			}
			if !seat.IsAvailable {
				return ErrSeatUnavailable
			}
		}

		taken, err := s.store.ActiveTicketSeatIDs(ctx, showID, seatIDs)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return ErrSeatConflict
		}

		var total int64
		tickets := make([]domain.Ticket, 0, len(seats))
		for _, seat := range seats {
			price := domain.TicketPriceCents(show.BasePriceCents, seat.Type)
			total += price
			tickets = append(tickets, domain.Ticket{
				ShowID:     showID,
				SeatID:     seat.ID,
				SeatType:   seat.Type,
				PriceCents: price,
				State:      domain.TicketReserved,
			})
		}

		orderID, err := s.store.CreateOrder(ctx, userID, total)
		if err != nil {
			return err
		}
		for i := range tickets {
			tickets[i].OrderID = &orderID
		}
		if err := s.store.InsertTickets(ctx, tickets); err != nil {
			// Losing the race on the partial unique index lands here.
			if errors.Is(err, repository.ErrConflict) {
				return ErrSeatConflict
			}
			return err
		}

		// Re-read for the generated ticket IDs.
		owt, err := s.store.GetOrderWithTickets(ctx, orderID)
		if err != nil {
			return err
		}
		out = *owt

		after(func(ctx context.Context) {
			s.invalidate(ctx, showID)
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ref, err := s.registerPayment(ctx, out.Order.TotalCents)
	if err != nil {
		// No payment order means the customer can never pay. Release the
		// seats right away; the show-start sweep is the backstop if this
		// cleanup fails too.
		if delErr := s.DeleteOrder(context.WithoutCancel(ctx), out.Order.ID); delErr != nil {
			s.logger.Error("orphaned order after payment failure",
				"order_id", out.Order.ID, "error", delErr)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPaymentFailed, err)
	}

	if err := s.store.SetOrderPaymentRef(ctx, out.Order.ID, ref); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out.Order.PaymentRef = &ref

	return &out, nil
}

func (s *Service) registerPayment(ctx context.Context, amountCents int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()

	ref, err := s.bridge.CreateOrder(ctx, amountCents, s.cfg.Currency)
	if err != nil {
		return "", err
	}
	if ref == "" {
		return "", errors.New("empty payment reference")
	}
	return ref, nil
}

// ConfirmPayment flips the order's reserved tickets to booked. It is driven
// by the provider webhook and is idempotent: a replayed capture finds no
// reserved tickets and changes nothing. Tickets already invalidated by the
// show-start sweep stay invalid.
func (s *Service) ConfirmPayment(ctx context.Context, paymentRef string) (*domain.OrderWithTickets, error) {
	const op = "booking.Service.ConfirmPayment"

	var out *domain.OrderWithTickets

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		orderID, err := s.store.OrderIDByPaymentRef(ctx, paymentRef)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		booked, err := s.store.BookTicketsByOrder(ctx, orderID)
		if err != nil {
			return err
		}

		out, err = s.store.GetOrderWithTickets(ctx, orderID)
		if err != nil {
			return err
		}

		if booked > 0 {
			shows := showIDs(out.Tickets)
			confirmed := *out
			after(func(ctx context.Context) {
				for _, id := range shows {
					s.invalidate(ctx, id)
				}
				s.sendConfirmation(ctx, &confirmed)
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ApplyDiscount validates the code at application time and recomputes the
// order total from the undiscounted ticket sum. Applying a second discount
// replaces the first; discounts never compound.
func (s *Service) ApplyDiscount(ctx context.Context, orderID int64, code string) (*domain.Order, error) {
	const op = "booking.Service.ApplyDiscount"

	var out *domain.Order

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if _, err := s.store.GetOrder(ctx, orderID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		d, err := s.store.DiscountByCode(ctx, domain.NormalizeDiscountCode(code))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrDiscountNotFound
			}
			return err
		}
		if !d.IsActive {
			return ErrDiscountInactive
		}
		if s.clk.Now().After(d.ValidUntil) {
			return ErrDiscountExpired
		}

		sum, err := s.store.TicketSumCents(ctx, orderID)
		if err != nil {
			return err
		}
		total := domain.DiscountedTotalCents(sum, d.Percentage)

		if err := s.store.SetOrderDiscount(ctx, orderID, &d.ID, total); err != nil {
			return err
		}

		out, err = s.store.GetOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// DeleteOrder cancels an order. Its ticket rows go with it, which frees the
// seats for the next customer.
func (s *Service) DeleteOrder(ctx context.Context, orderID int64) error {
	const op = "booking.Service.DeleteOrder"

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		owt, err := s.store.GetOrderWithTickets(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if err := s.store.DeleteOrder(ctx, orderID); err != nil {
			return err
		}

		shows := showIDs(owt.Tickets)
		after(func(ctx context.Context) {
			for _, id := range shows {
				s.invalidate(ctx, id)
			}
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) GetOrder(ctx context.Context, orderID int64) (*domain.OrderWithTickets, error) {
	const op = "booking.Service.GetOrder"

	out, err := s.store.GetOrderWithTickets(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *Service) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	const op = "booking.Service.GetTicket"

	t, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrTicketNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

func (s *Service) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	const op = "booking.Service.ListOrdersByUser"

	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (s *Service) invalidate(ctx context.Context, showID int64) {
	if s.cache != nil {
		if err := s.cache.InvalidateShow(ctx, showID); err != nil {
			s.logger.Warn("cache invalidation failed", "show_id", showID, "error", err)
		}
	}
	if s.pubsub != nil {
		if err := s.pubsub.PublishShowChanged(ctx, showID); err != nil {
			s.logger.Warn("show change publish failed", "show_id", showID, "error", err)
		}
	}
}

func showIDs(tickets []domain.Ticket) []int64 {
	seen := make(map[int64]struct{}, 1)
	var ids []int64
	for _, t := range tickets {
		if _, ok := seen[t.ShowID]; !ok {
			seen[t.ShowID] = struct{}{}
			ids = append(ids, t.ShowID)
		}
	}
	return ids
}
