// Package catalog manages movies, reviews and users.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/kinogo/kinogo/internal/domain"
	"github.com/kinogo/kinogo/internal/repository"
)

var (
	ErrMovieNotFound  = errors.New("movie not found")
	ErrMovieInUse     = errors.New("movie is referenced by shows")
	ErrReviewNotFound = errors.New("review not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrInvalidRating  = errors.New("rating must be between 0 and 10")
)

// Store is the storage surface the catalog service needs.
type Store interface {
	CreateMovie(ctx context.Context, m domain.Movie) (int64, error)
	GetMovie(ctx context.Context, id int64) (*domain.Movie, error)
	ListMovies(ctx context.Context) ([]domain.Movie, error)
	UpdateMovie(ctx context.Context, m domain.Movie) error
	DeleteMovie(ctx context.Context, id int64) error

	CreateReview(ctx context.Context, r domain.Review) (int64, error)
	ListReviewsByMovie(ctx context.Context, movieID int64) ([]domain.Review, error)
	DeleteReview(ctx context.Context, id int64) error

	CreateUser(ctx context.Context, u domain.User) (int64, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) CreateMovie(ctx context.Context, m domain.Movie) (*domain.Movie, error) {
	const op = "catalog.Service.CreateMovie"

	id, err := s.store.CreateMovie(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := s.store.GetMovie(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *Service) GetMovie(ctx context.Context, id int64) (*domain.Movie, error) {
	const op = "catalog.Service.GetMovie"

	m, err := s.store.GetMovie(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrMovieNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

func (s *Service) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	const op = "catalog.Service.ListMovies"

	out, err := s.store.ListMovies(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *Service) UpdateMovie(ctx context.Context, m domain.Movie) error {
	const op = "catalog.Service.UpdateMovie"

	if err := s.store.UpdateMovie(ctx, m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrMovieNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteMovie refuses to delete a movie that still has scheduled shows.
func (s *Service) DeleteMovie(ctx context.Context, id int64) error {
	const op = "catalog.Service.DeleteMovie"

	if err := s.store.DeleteMovie(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("%s: %w", op, ErrMovieNotFound)
		case errors.Is(err, repository.ErrConflict):
			return fmt.Errorf("%s: %w", op, ErrMovieInUse)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) CreateReview(ctx context.Context, r domain.Review) (int64, error) {
	const op = "catalog.Service.CreateReview"

	if r.Rating < 0 || r.Rating > 10 {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidRating)
	}
	id, err := s.store.CreateReview(ctx, r)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return 0, fmt.Errorf("%s: %w", op, ErrMovieNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

func (s *Service) ListReviewsByMovie(ctx context.Context, movieID int64) ([]domain.Review, error) {
	const op = "catalog.Service.ListReviewsByMovie"

	out, err := s.store.ListReviewsByMovie(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *Service) DeleteReview(ctx context.Context, id int64) error {
	const op = "catalog.Service.DeleteReview"

	if err := s.store.DeleteReview(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrReviewNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) CreateUser(ctx context.Context, u domain.User) (*domain.User, error) {
	const op = "catalog.Service.CreateUser"

	if _, err := mail.ParseAddress(u.Email); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	id, err := s.store.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	const op = "catalog.Service.GetUser"

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
