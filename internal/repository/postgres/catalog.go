package postgresrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kinogo/kinogo/internal/domain"
)

// Movies, reviews and users are peripheral: plain CRUD, no invariants beyond
// existence and uniqueness checks.

func (s *Store) CreateMovie(ctx context.Context, m domain.Movie) (int64, error) {
	const op = "postgresrepo.Store.CreateMovie"

	var id int64
	if err := s.handle(ctx).QueryRow(ctx,
		`INSERT INTO movies(title, genre, description, duration_min, director,
		                    release_date, image_url, trailer_url, rating)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		m.Title, m.Genre, m.Description, m.DurationMin, m.Director,
		m.ReleaseDate, m.ImageURL, m.TrailerURL, m.Rating,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (s *Store) GetMovie(ctx context.Context, id int64) (*domain.Movie, error) {
	const op = "postgresrepo.Store.GetMovie"

	var m domain.Movie
	err := s.handle(ctx).QueryRow(ctx,
		`SELECT id, title, genre, description, duration_min, director,
		        release_date, image_url, trailer_url, rating
		 FROM movies WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.Title, &m.Genre, &m.Description, &m.DurationMin,
		&m.Director, &m.ReleaseDate, &m.ImageURL, &m.TrailerURL, &m.Rating)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &m, nil
}

func (s *Store) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	const op = "postgresrepo.Store.ListMovies"

	rows, err := s.handle(ctx).Query(ctx,
		`SELECT id, title, genre, description, duration_min, director,
		        release_date, image_url, trailer_url, rating
		 FROM movies
		 ORDER BY title`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Movie
	for rows.Next() {
		var m domain.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Genre, &m.Description,
			&m.DurationMin, &m.Director, &m.ReleaseDate, &m.ImageURL,
			&m.TrailerURL, &m.Rating); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (s *Store) UpdateMovie(ctx context.Context, m domain.Movie) error {
	const op = "postgresrepo.Store.UpdateMovie"

	tag, err := s.handle(ctx).Exec(ctx,
		`UPDATE movies
		 SET title = $2, genre = $3, description = $4, duration_min = $5,
		     director = $6, release_date = $7, image_url = $8,
		     trailer_url = $9, rating = $10
		 WHERE id = $1`,
		m.ID, m.Title, m.Genre, m.Description, m.DurationMin, m.Director,
		m.ReleaseDate, m.ImageURL, m.TrailerURL, m.Rating,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

// DeleteMovie fails with ErrConflict while shows still reference the movie.
func (s *Store) DeleteMovie(ctx context.Context, id int64) error {
	const op = "postgresrepo.Store.DeleteMovie"

	tag, err := s.handle(ctx).Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func (s *Store) CreateReview(ctx context.Context, r domain.Review) (int64, error) {
	const op = "postgresrepo.Store.CreateReview"

	var id int64
	if err := s.handle(ctx).QueryRow(ctx,
		`INSERT INTO reviews(movie_id, user_id, rating, comment)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		r.MovieID, r.UserID, r.Rating, r.Comment,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (s *Store) ListReviewsByMovie(ctx context.Context, movieID int64) ([]domain.Review, error) {
	const op = "postgresrepo.Store.ListReviewsByMovie"

	rows, err := s.handle(ctx).Query(ctx,
		`SELECT id, movie_id, user_id, rating, comment, created_at
		 FROM reviews
		 WHERE movie_id = $1
		 ORDER BY created_at DESC`,
		movieID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var r domain.Review
		if err := rows.Scan(&r.ID, &r.MovieID, &r.UserID, &r.Rating,
			&r.Comment, &r.CreatedAt); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	const op = "postgresrepo.Store.DeleteReview"

	tag, err := s.handle(ctx).Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func (s *Store) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	const op = "postgresrepo.Store.CreateUser"

	var id int64
	if err := s.handle(ctx).QueryRow(ctx,
		`INSERT INTO users(first_name, last_name, email, phone)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		u.FirstName, u.LastName, u.Email, u.Phone,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	const op = "postgresrepo.Store.GetUser"

	var u domain.User
	err := s.handle(ctx).QueryRow(ctx,
		`SELECT id, first_name, last_name, email, phone, created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &u, nil
}
