package postgresrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kinogo/kinogo/internal/domain"
)

func (s *Store) CreateRoom(ctx context.Context, name string, isAvailable bool) (int64, error) {
	const op = "postgresrepo.Store.CreateRoom"

	var id int64
	if err := s.handle(ctx).QueryRow(ctx,
		`INSERT INTO rooms(name, capacity, is_available)
		 VALUES ($1, 0, $2)
		 RETURNING id`,
		name, isAvailable,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (s *Store) GetRoom(ctx context.Context, id int64) (*domain.Room, error) {
	const op = "postgresrepo.Store.GetRoom"

	var r domain.Room
	err := s.handle(ctx).QueryRow(ctx,
		`SELECT id, name, capacity, is_available
		 FROM rooms WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Name, &r.Capacity, &r.IsAvailable)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &r, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]domain.Room, error) {
	const op = "postgresrepo.Store.ListRooms"

	rows, err := s.handle(ctx).Query(ctx,
		`SELECT id, name, capacity, is_available
		 FROM rooms
		 ORDER BY name`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		var r domain.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.Capacity, &r.IsAvailable); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (s *Store) UpdateRoom(ctx context.Context, room domain.Room) error {
	const op = "postgresrepo.Store.UpdateRoom"

	tag, err := s.handle(ctx).Exec(ctx,
		`UPDATE rooms SET name = $2, is_available = $3 WHERE id = $1`,
		room.ID, room.Name, room.IsAvailable,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

// DeleteRoom removes a room. Seats reference rooms with ON DELETE RESTRICT,
// so a room that still has seats fails with ErrConflict.
func (s *Store) DeleteRoom(ctx context.Context, id int64) error {
	const op = "postgresrepo.Store.DeleteRoom"

	tag, err := s.handle(ctx).Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func (s *Store) CountSeats(ctx context.Context, roomID int64) (int, error) {
	const op = "postgresrepo.Store.CountSeats"

	var n int
	if err := s.handle(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM seats WHERE room_id = $1`,
		roomID,
	).Scan(&n); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return n, nil
}

func (s *Store) SetRoomCapacity(ctx context.Context, roomID int64, capacity int) error {
	const op = "postgresrepo.Store.SetRoomCapacity"

	tag, err := s.handle(ctx).Exec(ctx,
		`UPDATE rooms SET capacity = $2 WHERE id = $1`,
		roomID, capacity,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func (s *Store) CreateSeat(ctx context.Context, seat domain.Seat) (int64, error) {
	const op = "postgresrepo.Store.CreateSeat"

	var id int64
	if err := s.handle(ctx).QueryRow(ctx,
		`INSERT INTO seats(room_id, row_label, seat_number, seat_type, is_available)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		seat.RoomID, seat.RowLabel, seat.SeatNumber, seat.Type, seat.IsAvailable,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// BatchCreateSeats inserts generated layout seats, skipping positions that
// already exist.
func (s *Store) BatchCreateSeats(ctx context.Context, seats []domain.Seat) error {
	const op = "postgresrepo.Store.BatchCreateSeats"

	batch := &pgx.Batch{}
	for _, st := range seats {
		batch.Queue(
			`INSERT INTO seats(room_id, row_label, seat_number, seat_type, is_available)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (room_id, row_label, seat_number) DO NOTHING`,
			st.RoomID, st.RowLabel, st.SeatNumber, st.Type, st.IsAvailable,
		)
	}
	if err := s.handle(ctx).SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (s *Store) GetSeat(ctx context.Context, id int64) (*domain.Seat, error) {
	const op = "postgresrepo.Store.GetSeat"

	var st domain.Seat
	err := s.handle(ctx).QueryRow(ctx,
		`SELECT id, room_id, row_label, seat_number, seat_type, is_available
		 FROM seats WHERE id = $1`,
		id,
	).Scan(&st.ID, &st.RoomID, &st.RowLabel, &st.SeatNumber, &st.Type, &st.IsAvailable)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &st, nil
}

func (s *Store) UpdateSeat(ctx context.Context, seat domain.Seat) error {
	const op = "postgresrepo.Store.UpdateSeat"

	tag, err := s.handle(ctx).Exec(ctx,
		`UPDATE seats
		 SET row_label = $2, seat_number = $3, seat_type = $4, is_available = $5
		 WHERE id = $1`,
		seat.ID, seat.RowLabel, seat.SeatNumber, seat.Type, seat.IsAvailable,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func (s *Store) DeleteSeat(ctx context.Context, id int64) (int64, error) {
	const op = "postgresrepo.Store.DeleteSeat"

	var roomID int64
	err := s.handle(ctx).QueryRow(ctx,
		`DELETE FROM seats WHERE id = $1 RETURNING room_id`,
		id,
	).Scan(&roomID)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return roomID, nil
}

func (s *Store) DeleteSeatsInRoom(ctx context.Context, roomID int64) (int64, error) {
	const op = "postgresrepo.Store.DeleteSeatsInRoom"

	tag, err := s.handle(ctx).Exec(ctx,
		`DELETE FROM seats WHERE room_id = $1`,
		roomID,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}

func (s *Store) SetRowAvailability(ctx context.Context, roomID int64, rowLabel string, available bool) (int64, error) {
	const op = "postgresrepo.Store.SetRowAvailability"

	tag, err := s.handle(ctx).Exec(ctx,
		`UPDATE seats SET is_available = $3
		 WHERE room_id = $1 AND row_label = $2`,
		roomID, rowLabel, available,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}

func (s *Store) ListSeats(ctx context.Context, roomID int64) ([]domain.Seat, error) {
	const op = "postgresrepo.Store.ListSeats"

	rows, err := s.handle(ctx).Query(ctx,
		`SELECT id, room_id, row_label, seat_number, seat_type, is_available
		 FROM seats
		 WHERE room_id = $1
		 ORDER BY row_label, seat_number`,
		roomID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Seat
	for rows.Next() {
		var st domain.Seat
		if err := rows.Scan(&st.ID, &st.RoomID, &st.RowLabel, &st.SeatNumber, &st.Type, &st.IsAvailable); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (s *Store) SeatsByIDs(ctx context.Context, ids []int64) ([]domain.Seat, error) {
	const op = "postgresrepo.Store.SeatsByIDs"

	rows, err := s.handle(ctx).Query(ctx,
		`SELECT id, room_id, row_label, seat_number, seat_type, is_available
		 FROM seats
		 WHERE id = ANY($1)
		 ORDER BY row_label, seat_number`,
		ids,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Seat
	for rows.Next() {
		var st domain.Seat
		if err := rows.Scan(&st.ID, &st.RoomID, &st.RowLabel, &st.SeatNumber, &st.Type, &st.IsAvailable); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
