package postgresrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kinogo/kinogo/internal/domain"
)

func (s *Store) CreateOrder(ctx context.Context, userID, totalCents int64) (int64, error) {
	const op = "postgresrepo.Store.CreateOrder"

	var id int64
	if err := s.handle(ctx).QueryRow(ctx,
		`INSERT INTO orders(user_id, total_cents)
		 VALUES ($1, $2)
		 RETURNING id`,
		userID, totalCents,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	const op = "postgresrepo.Store.GetOrder"

	var o domain.Order
	err := s.handle(ctx).QueryRow(ctx,
		`SELECT id, user_id, discount_id, total_cents, payment_ref, created_at
		 FROM orders WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.UserID, &o.DiscountID, &o.TotalCents, &o.PaymentRef, &o.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &o, nil
}

func (s *Store) GetOrderWithTickets(ctx context.Context, id int64) (*domain.OrderWithTickets, error) {
	const op = "postgresrepo.Store.GetOrderWithTickets"

	var out domain.OrderWithTickets
	err := s.handle(ctx).QueryRow(ctx,
		`SELECT id, user_id, discount_id, total_cents, payment_ref, created_at
		 FROM orders WHERE id = $1`,
		id,
	).Scan(&out.Order.ID, &out.Order.UserID, &out.Order.DiscountID,
		&out.Order.TotalCents, &out.Order.PaymentRef, &out.Order.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	rows, err := s.handle(ctx).Query(ctx,
		`SELECT id, show_id, seat_id, order_id, seat_type, price_cents, state
		 FROM tickets
		 WHERE order_id = $1
		 ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.ShowID, &t.SeatID, &t.OrderID,
			&t.SeatType, &t.PriceCents, &t.State); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out.Tickets = append(out.Tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &out, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	const op = "postgresrepo.Store.ListOrdersByUser"

	rows, err := s.handle(ctx).Query(ctx,
		`SELECT id, user_id, discount_id, total_cents, payment_ref, created_at
		 FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.DiscountID, &o.TotalCents,
			&o.PaymentRef, &o.CreatedAt); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// DeleteOrder removes an order; its tickets go with it via ON DELETE CASCADE,
// freeing the seats for that show.
func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	const op = "postgresrepo.Store.DeleteOrder"

	tag, err := s.handle(ctx).Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func (s *Store) SetOrderPaymentRef(ctx context.Context, id int64, ref string) error {
	const op = "postgresrepo.Store.SetOrderPaymentRef"

	tag, err := s.handle(ctx).Exec(ctx,
		`UPDATE orders SET payment_ref = $2 WHERE id = $1`,
		id, ref,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func (s *Store) OrderIDByPaymentRef(ctx context.Context, ref string) (int64, error) {
	const op = "postgresrepo.Store.OrderIDByPaymentRef"

	var id int64
	if err := s.handle(ctx).QueryRow(ctx,
		`SELECT id FROM orders WHERE payment_ref = $1`,
		ref,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (s *Store) SetOrderDiscount(ctx context.Context, id int64, discountID *int64, totalCents int64) error {
	const op = "postgresrepo.Store.SetOrderDiscount"

	tag, err := s.handle(ctx).Exec(ctx,
		`UPDATE orders SET discount_id = $2, total_cents = $3 WHERE id = $1`,
		id, discountID, totalCents,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

// TicketSumCents returns the undiscounted sum of the order's ticket prices,
// the base every discount application recomputes from.
func (s *Store) TicketSumCents(ctx context.Context, orderID int64) (int64, error) {
	const op = "postgresrepo.Store.TicketSumCents"

	var sum int64
	if err := s.handle(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(price_cents), 0) FROM tickets WHERE order_id = $1`,
		orderID,
	).Scan(&sum); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return sum, nil
}
