// Package rooms manages rooms and their seat layouts. Room capacity is
// derived state: every seat mutation recomputes it inside the same
// transaction.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kinogo/kinogo/internal/domain"
	"github.com/kinogo/kinogo/internal/repository"
	"github.com/kinogo/kinogo/internal/uow"
)

// Layout rows are lettered A..Z, which caps generated layouts at 26 rows.
const maxLayoutRows = 26

var (
	ErrRoomNotFound          = errors.New("room not found")
	ErrSeatNotFound          = errors.New("seat not found")
	ErrRoomHasSeats          = errors.New("room still has seats")
	ErrRoomInUse             = errors.New("room is referenced by shows")
	ErrDuplicateSeatPosition = errors.New("seat position already taken")
	ErrInvalidLayout         = errors.New("invalid layout dimensions")
)

// Store is the storage surface the room service needs.
type Store interface {
	uow.Runner

	CreateRoom(ctx context.Context, name string, isAvailable bool) (int64, error)
	GetRoom(ctx context.Context, id int64) (*domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
	UpdateRoom(ctx context.Context, room domain.Room) error
	DeleteRoom(ctx context.Context, id int64) error
	CountSeats(ctx context.Context, roomID int64) (int, error)
	SetRoomCapacity(ctx context.Context, roomID int64, capacity int) error

	CreateSeat(ctx context.Context, seat domain.Seat) (int64, error)
	BatchCreateSeats(ctx context.Context, seats []domain.Seat) error
	GetSeat(ctx context.Context, id int64) (*domain.Seat, error)
	UpdateSeat(ctx context.Context, seat domain.Seat) error
	DeleteSeat(ctx context.Context, id int64) (int64, error)
	DeleteSeatsInRoom(ctx context.Context, roomID int64) (int64, error)
	SetRowAvailability(ctx context.Context, roomID int64, rowLabel string, available bool) (int64, error)
	ListSeats(ctx context.Context, roomID int64) ([]domain.Seat, error)
}

type Service struct {
	store  Store
	uow    *uow.UoW
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, uow: uow.New(store), logger: logger}
}

// CreateRoom creates an empty room. Capacity starts at zero and only grows
// by adding seats.
func (s *Service) CreateRoom(ctx context.Context, name string, isAvailable bool) (*domain.Room, error) {
	const op = "rooms.Service.CreateRoom"

	id, err := s.store.CreateRoom(ctx, name, isAvailable)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return room, nil
}

func (s *Service) GetRoom(ctx context.Context, id int64) (*domain.Room, error) {
	const op = "rooms.Service.GetRoom"

	room, err := s.store.GetRoom(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrRoomNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return room, nil
}

func (s *Service) ListRooms(ctx context.Context) ([]domain.Room, error) {
	const op = "rooms.Service.ListRooms"

	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rooms, nil
}

func (s *Service) UpdateRoom(ctx context.Context, room domain.Room) error {
	const op = "rooms.Service.UpdateRoom"

	if err := s.store.UpdateRoom(ctx, room); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrRoomNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteRoom refuses to delete a room that still has seats or scheduled
// shows. Clear the layout first.
func (s *Service) DeleteRoom(ctx context.Context, id int64) error {
	const op = "rooms.Service.DeleteRoom"

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		n, err := s.store.CountSeats(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrRoomHasSeats
		}

		if err := s.store.DeleteRoom(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRoomNotFound
			}
			if errors.Is(err, repository.ErrConflict) {
				return ErrRoomInUse
			}
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GenerateLayout replaces the room's seats with a fresh rows x seatsPerRow
// grid of standard seats. Rows are lettered A upward, seats numbered from 1.
// Generation is deterministic: the same dimensions always produce the same
// layout.
func (s *Service) GenerateLayout(ctx context.Context, roomID int64, rows, seatsPerRow int) ([]domain.Seat, error) {
	const op = "rooms.Service.GenerateLayout"

	if rows < 1 || rows > maxLayoutRows || seatsPerRow < 1 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidLayout)
	}

	var out []domain.Seat
	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if _, err := s.store.GetRoom(ctx, roomID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRoomNotFound
			}
			return err
		}

		if _, err := s.store.DeleteSeatsInRoom(ctx, roomID); err != nil {
			return err
		}

		seats := make([]domain.Seat, 0, rows*seatsPerRow)
		for r := 0; r < rows; r++ {
			label := string(rune('A' + r))
			for n := 1; n <= seatsPerRow; n++ {
				seats = append(seats, domain.Seat{
					RoomID:      roomID,
					RowLabel:    label,
					SeatNumber:  n,
					Type:        domain.SeatStandard,
					IsAvailable: true,
				})
			}
		}
		if err := s.store.BatchCreateSeats(ctx, seats); err != nil {
			return err
		}
		if err := s.recalculateCapacity(ctx, roomID); err != nil {
			return err
		}

		var err error
		out, err = s.store.ListSeats(ctx, roomID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// CreateSeat adds one seat. The (room, row, number) position must be unique.
func (s *Service) CreateSeat(ctx context.Context, seat domain.Seat) (*domain.Seat, error) {
	const op = "rooms.Service.CreateSeat"

	var out *domain.Seat
	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		id, err := s.store.CreateSeat(ctx, seat)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrDuplicateSeatPosition
			}
			return err
		}
		if err := s.recalculateCapacity(ctx, seat.RoomID); err != nil {
			return err
		}
		out, err = s.store.GetSeat(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *Service) GetSeat(ctx context.Context, id int64) (*domain.Seat, error) {
	const op = "rooms.Service.GetSeat"

	seat, err := s.store.GetSeat(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrSeatNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return seat, nil
}

// UpdateSeat changes a seat's type, position or availability. Price
// snapshots on already sold tickets are unaffected.
func (s *Service) UpdateSeat(ctx context.Context, seat domain.Seat) error {
	const op = "rooms.Service.UpdateSeat"

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if err := s.store.UpdateSeat(ctx, seat); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSeatNotFound
			}
			if errors.Is(err, repository.ErrConflict) {
				return ErrDuplicateSeatPosition
			}
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteSeat removes one seat and shrinks the room's capacity accordingly.
func (s *Service) DeleteSeat(ctx context.Context, id int64) error {
	const op = "rooms.Service.DeleteSeat"

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		roomID, err := s.store.DeleteSeat(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSeatNotFound
			}
			return err
		}
		return s.recalculateCapacity(ctx, roomID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteAllSeats clears the room's layout and resets its capacity to zero.
func (s *Service) DeleteAllSeats(ctx context.Context, roomID int64) (int64, error) {
	const op = "rooms.Service.DeleteAllSeats"

	var deleted int64
	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if _, err := s.store.GetRoom(ctx, roomID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRoomNotFound
			}
			return err
		}

		var err error
		deleted, err = s.store.DeleteSeatsInRoom(ctx, roomID)
		if err != nil {
			return err
		}
		return s.recalculateCapacity(ctx, roomID)
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return deleted, nil
}

// SetAvailabilityForRow flips every seat in a row on or off in one
// operation, e.g. to close a row for maintenance.
func (s *Service) SetAvailabilityForRow(ctx context.Context, roomID int64, rowLabel string, available bool) (int64, error) {
	const op = "rooms.Service.SetAvailabilityForRow"

	// Zero matches is a no-op, not an error.
	n, err := s.store.SetRowAvailability(ctx, roomID, rowLabel, available)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (s *Service) ListSeats(ctx context.Context, roomID int64) ([]domain.Seat, error) {
	const op = "rooms.Service.ListSeats"

	seats, err := s.store.ListSeats(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return seats, nil
}

func (s *Service) recalculateCapacity(ctx context.Context, roomID int64) error {
	n, err := s.store.CountSeats(ctx, roomID)
	if err != nil {
		return err
	}
	return s.store.SetRoomCapacity(ctx, roomID, n)
}
