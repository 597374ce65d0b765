package postgresrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kinogo/kinogo/internal/domain"
)

func (s *Store) CreateShow(ctx context.Context, show domain.Show) (int64, error) {
	const op = "postgresrepo.Store.CreateShow"

	var id int64
	if err := s.handle(ctx).QueryRow(ctx,
		`INSERT INTO shows(movie_id, room_id, starts_at, ends_at, language,
		                   subtitle, is_3d, base_price_cents, has_started, has_ended)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, FALSE)
		 RETURNING id`,
		show.MovieID, show.RoomID, show.StartsAt, show.EndsAt, show.Language,
		show.Subtitle, show.Is3D, show.BasePriceCents,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (s *Store) GetShow(ctx context.Context, id int64) (*domain.Show, error) {
	const op = "postgresrepo.Store.GetShow"

	var sh domain.Show
	err := s.handle(ctx).QueryRow(ctx,
		`SELECT id, movie_id, room_id, starts_at, ends_at, language, subtitle,
		        is_3d, base_price_cents, has_started, has_ended
		 FROM shows WHERE id = $1`,
		id,
	).Scan(&sh.ID, &sh.MovieID, &sh.RoomID, &sh.StartsAt, &sh.EndsAt, &sh.Language,
		&sh.Subtitle, &sh.Is3D, &sh.BasePriceCents, &sh.HasStarted, &sh.HasEnded)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &sh, nil
}

func (s *Store) ListShows(ctx context.Context, limit, offset int) ([]domain.Show, error) {
	const op = "postgresrepo.Store.ListShows"

	rows, err := s.handle(ctx).Query(ctx,
		`SELECT id, movie_id, room_id, starts_at, ends_at, language, subtitle,
		        is_3d, base_price_cents, has_started, has_ended
		 FROM shows
		 ORDER BY starts_at
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Show
	for rows.Next() {
		var sh domain.Show
		if err := rows.Scan(&sh.ID, &sh.MovieID, &sh.RoomID, &sh.StartsAt, &sh.EndsAt,
			&sh.Language, &sh.Subtitle, &sh.Is3D, &sh.BasePriceCents,
			&sh.HasStarted, &sh.HasEnded); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (s *Store) UpdateShow(ctx context.Context, show domain.Show) error {
	const op = "postgresrepo.Store.UpdateShow"

	tag, err := s.handle(ctx).Exec(ctx,
		`UPDATE shows
		 SET movie_id = $2, room_id = $3, starts_at = $4, ends_at = $5,
		     language = $6, subtitle = $7, is_3d = $8, base_price_cents = $9
		 WHERE id = $1`,
		show.ID, show.MovieID, show.RoomID, show.StartsAt, show.EndsAt,
		show.Language, show.Subtitle, show.Is3D, show.BasePriceCents,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

// DeleteShow removes a show and, through ON DELETE CASCADE, its tickets.
func (s *Store) DeleteShow(ctx context.Context, id int64) error {
	const op = "postgresrepo.Store.DeleteShow"

	tag, err := s.handle(ctx).Exec(ctx, `DELETE FROM shows WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

// CountOverlappingShows counts shows in the room whose [starts_at, ends_at)
// window intersects the given one, excluding excludeID (0 for none).
func (s *Store) CountOverlappingShows(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) (int64, error) {
	const op = "postgresrepo.Store.CountOverlappingShows"

	var n int64
	if err := s.handle(ctx).QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM shows
		 WHERE room_id = $1
		   AND id <> $4
		   AND starts_at < $3
		   AND ends_at > $2`,
		roomID, start, end, excludeID,
	).Scan(&n); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return n, nil
}

// MarkShowStarted flips has_started. Repeating the call changes nothing.
func (s *Store) MarkShowStarted(ctx context.Context, id int64) error {
	const op = "postgresrepo.Store.MarkShowStarted"

	tag, err := s.handle(ctx).Exec(ctx,
		`UPDATE shows SET has_started = TRUE WHERE id = $1`,
		id,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func (s *Store) MarkShowEnded(ctx context.Context, id int64) error {
	const op = "postgresrepo.Store.MarkShowEnded"

	tag, err := s.handle(ctx).Exec(ctx,
		`UPDATE shows SET has_ended = TRUE WHERE id = $1`,
		id,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func (s *Store) ShowIDsDueToStart(ctx context.Context, now time.Time) ([]int64, error) {
	const op = "postgresrepo.Store.ShowIDsDueToStart"

	return s.showIDsDue(ctx, op,
		`SELECT id FROM shows WHERE starts_at <= $1 AND NOT has_started`, now)
}

func (s *Store) ShowIDsDueToEnd(ctx context.Context, now time.Time) ([]int64, error) {
	const op = "postgresrepo.Store.ShowIDsDueToEnd"

	return s.showIDsDue(ctx, op,
		`SELECT id FROM shows WHERE ends_at <= $1 AND NOT has_ended`, now)
}

func (s *Store) showIDsDue(ctx context.Context, op, query string, now time.Time) ([]int64, error) {
	rows, err := s.handle(ctx).Query(ctx, query, now)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrapDBErr(op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return ids, nil
}
