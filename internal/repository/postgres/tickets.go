package postgresrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kinogo/kinogo/internal/domain"
)

// ActiveTicketSeatIDs returns the subset of seatIDs that already carry a
// reserved or booked ticket for the show. Invalid tickets do not block a
// seat.
func (s *Store) ActiveTicketSeatIDs(ctx context.Context, showID int64, seatIDs []int64) ([]int64, error) {
	const op = "postgresrepo.Store.ActiveTicketSeatIDs"

	rows, err := s.handle(ctx).Query(ctx,
		`SELECT seat_id
		 FROM tickets
		 WHERE show_id = $1
		   AND seat_id = ANY($2)
		   AND state IN ('reserved', 'booked')`,
		showID, seatIDs,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// InsertTickets creates the order's ticket rows. The partial unique index on
// (show_id, seat_id) over active states turns a concurrent double booking
// into ErrConflict here.
func (s *Store) InsertTickets(ctx context.Context, tickets []domain.Ticket) error {
	const op = "postgresrepo.Store.InsertTickets"

	batch := &pgx.Batch{}
	for _, t := range tickets {
		batch.Queue(
			`INSERT INTO tickets(show_id, seat_id, order_id, seat_type, price_cents, state)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			t.ShowID, t.SeatID, t.OrderID, t.SeatType, t.PriceCents, t.State,
		)
	}
	if err := s.handle(ctx).SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (s *Store) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	const op = "postgresrepo.Store.GetTicket"

	var t domain.Ticket
	err := s.handle(ctx).QueryRow(ctx,
		`SELECT id, show_id, seat_id, order_id, seat_type, price_cents, state
		 FROM tickets WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.ShowID, &t.SeatID, &t.OrderID, &t.SeatType, &t.PriceCents, &t.State)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &t, nil
}

// BookTicketsByOrder moves the order's reserved tickets to booked and
// returns how many changed. Invalid tickets stay invalid: a reservation the
// sweep reclaimed cannot be resurrected by a late payment.
func (s *Store) BookTicketsByOrder(ctx context.Context, orderID int64) (int64, error) {
	const op = "postgresrepo.Store.BookTicketsByOrder"

	tag, err := s.handle(ctx).Exec(ctx,
		`UPDATE tickets SET state = 'booked'
		 WHERE order_id = $1 AND state = 'reserved'`,
		orderID,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}

// InvalidateReservedTickets voids every still-reserved ticket of a show.
// Booked tickets are untouched.
func (s *Store) InvalidateReservedTickets(ctx context.Context, showID int64) (int64, error) {
	const op = "postgresrepo.Store.InvalidateReservedTickets"

	tag, err := s.handle(ctx).Exec(ctx,
		`UPDATE tickets SET state = 'invalid'
		 WHERE show_id = $1 AND state = 'reserved'`,
		showID,
	)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return tag.RowsAffected(), nil
}

func (s *Store) ListShowSeatStates(ctx context.Context, showID int64) ([]domain.SeatWithState, error) {
	const op = "postgresrepo.Store.ListShowSeatStates"

	rows, err := s.handle(ctx).Query(ctx,
		`SELECT se.id, se.room_id, se.row_label, se.seat_number, se.seat_type,
		        se.is_available,
		        COALESCE(t.state, 'available')
		 FROM shows sh
		 JOIN seats se ON se.room_id = sh.room_id
		 LEFT JOIN tickets t
		        ON t.show_id = sh.id
		       AND t.seat_id = se.id
		       AND t.state IN ('reserved', 'booked')
		 WHERE sh.id = $1
		 ORDER BY se.row_label, se.seat_number`,
		showID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.SeatWithState
	for rows.Next() {
		var sw domain.SeatWithState
		if err := rows.Scan(&sw.ID, &sw.RoomID, &sw.RowLabel, &sw.SeatNumber,
			&sw.Type, &sw.IsAvailable, &sw.State); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, sw)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// ShowCounts derives availability counters for a show from its room's seats
// and active tickets.
func (s *Store) ShowCounts(ctx context.Context, showID int64) (*domain.ShowCounts, error) {
	const op = "postgresrepo.Store.ShowCounts"

	var c domain.ShowCounts
	err := s.handle(ctx).QueryRow(ctx,
		`SELECT
		     COALESCE(SUM(CASE WHEN t.state IS NULL THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN t.state = 'reserved' THEN 1 ELSE 0 END), 0),
		     COALESCE(SUM(CASE WHEN t.state = 'booked' THEN 1 ELSE 0 END), 0),
		     COUNT(*)
		 FROM shows sh
		 JOIN seats se ON se.room_id = sh.room_id
		 LEFT JOIN tickets t
		        ON t.show_id = sh.id
		       AND t.seat_id = se.id
		       AND t.state IN ('reserved', 'booked')
		 WHERE sh.id = $1`,
		showID,
	).Scan(&c.Available, &c.Reserved, &c.Booked, &c.Total)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &c, nil
}
