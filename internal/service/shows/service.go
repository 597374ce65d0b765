// Package shows manages the show schedule and its lifecycle. A show
// occupies a room for a time window; once it starts, unpaid reservations
// are worthless and get invalidated.
package shows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kinogo/kinogo/internal/clock"
	"github.com/kinogo/kinogo/internal/domain"
	"github.com/kinogo/kinogo/internal/repository"
	"github.com/kinogo/kinogo/internal/uow"
)

var (
	ErrShowNotFound     = errors.New("show not found")
	ErrInvalidTimeRange = errors.New("show must end after it starts")
	ErrShowOverlap      = errors.New("room already has a show in that time window")
	ErrUnknownReference = errors.New("movie or room does not exist")
)

// Store is the storage surface the show service needs.
type Store interface {
	uow.Runner

	CreateShow(ctx context.Context, show domain.Show) (int64, error)
	GetShow(ctx context.Context, id int64) (*domain.Show, error)
	ListShows(ctx context.Context, limit, offset int) ([]domain.Show, error)
	UpdateShow(ctx context.Context, show domain.Show) error
	DeleteShow(ctx context.Context, id int64) error
	CountOverlappingShows(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) (int64, error)
	MarkShowStarted(ctx context.Context, id int64) error
	MarkShowEnded(ctx context.Context, id int64) error
	ShowIDsDueToStart(ctx context.Context, now time.Time) ([]int64, error)
	ShowIDsDueToEnd(ctx context.Context, now time.Time) ([]int64, error)
	InvalidateReservedTickets(ctx context.Context, showID int64) (int64, error)
}

// Invalidator drops cached show projections after a commit.
type Invalidator interface {
	InvalidateShow(ctx context.Context, showID int64) error
}

// Publisher fans out show-changed notifications.
type Publisher interface {
	PublishShowChanged(ctx context.Context, showID int64) error
}

type Service struct {
	store  Store
	uow    *uow.UoW
	cache  Invalidator
	pubsub Publisher
	clk    clock.Clock
	logger *slog.Logger
}

func New(store Store, cache Invalidator, pubsub Publisher, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		uow:    uow.New(store),
		cache:  cache,
		pubsub: pubsub,
		clk:    clk,
		logger: logger,
	}
}

// CreateShow schedules a show. The room must be free for the whole window;
// two shows overlap when one starts before the other ends.
func (s *Service) CreateShow(ctx context.Context, show domain.Show) (*domain.Show, error) {
	const op = "shows.Service.CreateShow"

	if !show.EndsAt.After(show.StartsAt) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidTimeRange)
	}

	var out *domain.Show
	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		n, err := s.store.CountOverlappingShows(ctx, show.RoomID, show.StartsAt, show.EndsAt, 0)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrShowOverlap
		}

		id, err := s.store.CreateShow(ctx, show)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrUnknownReference
			}
			return err
		}

		out, err = s.store.GetShow(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *Service) GetShow(ctx context.Context, id int64) (*domain.Show, error) {
	const op = "shows.Service.GetShow"

	show, err := s.store.GetShow(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrShowNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return show, nil
}

func (s *Service) ListShows(ctx context.Context, limit, offset int) ([]domain.Show, error) {
	const op = "shows.Service.ListShows"

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	out, err := s.store.ListShows(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// UpdateShow reschedules or reprices a show. Overlap is re-checked against
// every other show in the room. Already sold tickets keep their snapshot
// price regardless of base price changes.
func (s *Service) UpdateShow(ctx context.Context, show domain.Show) (*domain.Show, error) {
	const op = "shows.Service.UpdateShow"

	if !show.EndsAt.After(show.StartsAt) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidTimeRange)
	}

	var out *domain.Show
	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		n, err := s.store.CountOverlappingShows(ctx, show.RoomID, show.StartsAt, show.EndsAt, show.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrShowOverlap
		}

		if err := s.store.UpdateShow(ctx, show); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrShowNotFound
			}
			if errors.Is(err, repository.ErrConflict) {
				return ErrUnknownReference
			}
			return err
		}

		out, err = s.store.GetShow(ctx, show.ID)
		if err != nil {
			return err
		}

		after(func(ctx context.Context) { s.invalidate(ctx, show.ID) })
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// DeleteShow removes a show and, through the schema, every ticket sold for
// it.
func (s *Service) DeleteShow(ctx context.Context, id int64) error {
	const op = "shows.Service.DeleteShow"

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if err := s.store.DeleteShow(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrShowNotFound
			}
			return err
		}
		after(func(ctx context.Context) { s.invalidate(ctx, id) })
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// StartShow marks the show as started and invalidates every still-reserved
// ticket. Booked tickets are untouched. Calling it twice is harmless.
func (s *Service) StartShow(ctx context.Context, id int64) error {
	const op = "shows.Service.StartShow"

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if err := s.store.MarkShowStarted(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrShowNotFound
			}
			return err
		}

		invalidated, err := s.store.InvalidateReservedTickets(ctx, id)
		if err != nil {
			return err
		}
		if invalidated > 0 {
			s.logger.Info("invalidated unpaid reservations",
				"show_id", id, "count", invalidated)
		}

		after(func(ctx context.Context) { s.invalidate(ctx, id) })
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EndShow marks the show as ended. Idempotent.
func (s *Service) EndShow(ctx context.Context, id int64) error {
	const op = "shows.Service.EndShow"

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if err := s.store.MarkShowEnded(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrShowNotFound
			}
			return err
		}
		after(func(ctx context.Context) { s.invalidate(ctx, id) })
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Sweep advances the lifecycle of every show whose start or end time has
// passed. One failing show does not stop the sweep. It returns how many
// shows were started and ended.
func (s *Service) Sweep(ctx context.Context) (started, ended int, err error) {
	const op = "shows.Service.Sweep"

	now := s.clk.Now()

	dueStart, err := s.store.ShowIDsDueToStart(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	for _, id := range dueStart {
		if err := s.StartShow(ctx, id); err != nil {
			s.logger.Error("sweep: start failed", "show_id", id, "error", err)
			continue
		}
		started++
	}

	dueEnd, err := s.store.ShowIDsDueToEnd(ctx, now)
	if err != nil {
		return started, 0, fmt.Errorf("%s: %w", op, err)
	}
	for _, id := range dueEnd {
		if err := s.EndShow(ctx, id); err != nil {
			s.logger.Error("sweep: end failed", "show_id", id, "error", err)
			continue
		}
		ended++
	}

	return started, ended, nil
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
