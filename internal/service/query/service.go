// Package query serves the hot read paths through the redis cache. Writes
// elsewhere invalidate these keys after commit, so a cached value is at
// worst one TTL stale.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kinogo/kinogo/internal/domain"
	redisx "github.com/kinogo/kinogo/internal/redis"
	"github.com/kinogo/kinogo/internal/repository"
	redisrepo "github.com/kinogo/kinogo/internal/repository/redis"
)

var ErrShowNotFound = errors.New("show not found")

const (
	summaryTTL      = 5 * time.Minute
	availabilityTTL = 10 * time.Second
	seatMapTTL      = 30 * time.Second
)

// Store is the storage surface the query service needs.
type Store interface {
	GetShow(ctx context.Context, id int64) (*domain.Show, error)
	ListShows(ctx context.Context, limit, offset int) ([]domain.Show, error)
	ShowCounts(ctx context.Context, showID int64) (*domain.ShowCounts, error)
	ListShowSeatStates(ctx context.Context, showID int64) ([]domain.SeatWithState, error)
}

type Service struct {
	store Store
	cache *redisrepo.Cache
}

func New(store Store, cache *redisrepo.Cache) *Service {
	return &Service{store: store, cache: cache}
}

func (s *Service) GetShow(ctx context.Context, showID int64) (*domain.Show, error) {
	const op = "query.Service.GetShow"

	load := func(ctx context.Context) (*domain.Show, error) {
		show, err := s.store.GetShow(ctx, showID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrShowNotFound
			}
			return nil, err
		}
		return show, nil
	}

	var (
		show *domain.Show
		err  error
	)
	if s.cache != nil {
		show, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisx.KeyShowSummary(showID), summaryTTL, load)
	} else {
		show, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return show, nil
}

func (s *Service) ListShows(ctx context.Context, limit, offset int) ([]domain.Show, error) {
	const op = "query.Service.ListShows"

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

// ShowCounts returns how many of the show's seats are free, reserved and
// booked. The short TTL keeps the seat picker responsive without hitting
// postgres on every poll.
func (s *Service) ShowCounts(ctx context.Context, showID int64) (*domain.ShowCounts, error) {
	const op = "query.Service.ShowCounts"

	load := func(ctx context.Context) (*domain.ShowCounts, error) {
		counts, err := s.store.ShowCounts(ctx, showID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrShowNotFound
			}
			return nil, err
		}
		return counts, nil
	}

	var (
		counts *domain.ShowCounts
		err    error
	)
	if s.cache != nil {
		counts, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisx.KeyShowAvailability(showID), availabilityTTL, load)
	} else {
		counts, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counts, nil
}

// SeatMap returns every seat of the show's room with its occupancy state.
// Seats without a ticket row come back as available.
func (s *Service) SeatMap(ctx context.Context, showID int64) ([]domain.SeatWithState, error) {
	const op = "query.Service.SeatMap"

	load := func(ctx context.Context) ([]domain.SeatWithState, error) {
		return s.store.ListShowSeatStates(ctx, showID)
	}

	var (
		seats []domain.SeatWithState
		err   error
	)
	if s.cache != nil {
		seats, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisx.KeyShowSeatMap(showID), seatMapTTL, load)
	} else {
		seats, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return seats, nil
}
