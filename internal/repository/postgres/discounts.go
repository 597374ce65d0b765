package postgresrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kinogo/kinogo/internal/domain"
)

func (s *Store) CreateDiscount(ctx context.Context, d domain.Discount) (int64, error) {
	const op = "postgresrepo.Store.CreateDiscount"

	var id int64
	if err := s.handle(ctx).QueryRow(ctx,
		`INSERT INTO discounts(code, percentage, valid_until, is_active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		d.Code, d.Percentage, d.ValidUntil, d.IsActive,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (s *Store) DiscountByCode(ctx context.Context, code string) (*domain.Discount, error) {
	const op = "postgresrepo.Store.DiscountByCode"

	var d domain.Discount
	err := s.handle(ctx).QueryRow(ctx,
		`SELECT id, code, percentage, valid_until, is_active
		 FROM discounts WHERE code = $1`,
		code,
	).Scan(&d.ID, &d.Code, &d.Percentage, &d.ValidUntil, &d.IsActive)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &d, nil
}

func (s *Store) ListDiscounts(ctx context.Context) ([]domain.Discount, error) {
	const op = "postgresrepo.Store.ListDiscounts"

	rows, err := s.handle(ctx).Query(ctx,
		`SELECT id, code, percentage, valid_until, is_active
		 FROM discounts
		 ORDER BY code`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Discount
	for rows.Next() {
		var d domain.Discount
		if err := rows.Scan(&d.ID, &d.Code, &d.Percentage, &d.ValidUntil, &d.IsActive); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (s *Store) UpdateDiscount(ctx context.Context, code string, d domain.Discount) error {
	const op = "postgresrepo.Store.UpdateDiscount"

	tag, err := s.handle(ctx).Exec(ctx,
		`UPDATE discounts
		 SET percentage = $2, valid_until = $3, is_active = $4
		 WHERE code = $1`,
		code, d.Percentage, d.ValidUntil, d.IsActive,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func (s *Store) DeleteDiscount(ctx context.Context, code string) error {
	const op = "postgresrepo.Store.DeleteDiscount"

	tag, err := s.handle(ctx).Exec(ctx, `DELETE FROM discounts WHERE code = $1`, code)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}
