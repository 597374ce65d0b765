package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinogo/kinogo/internal/domain"
	"github.com/kinogo/kinogo/internal/repository/memory"
)

func TestCreateUser(t *testing.T) {
	svc := New(memory.New())
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, domain.User{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	_, err = svc.CreateUser(ctx, domain.User{
		FirstName: "Ada2", LastName: "L", Email: "ada@example.com",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.CreateUser(ctx, domain.User{FirstName: "X", LastName: "Y", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestReviews(t *testing.T) {
	store := memory.New()
	svc := New(store)
	ctx := context.Background()

	movie, err := svc.CreateMovie(ctx, domain.Movie{Title: "M", DurationMin: 111})
	require.NoError(t, err)

	_, err = svc.CreateReview(ctx, domain.Review{MovieID: movie.ID, UserID: 1, Rating: 11})
	assert.ErrorIs(t, err, ErrInvalidRating)

	id, err := svc.CreateReview(ctx, domain.Review{MovieID: movie.ID, UserID: 1, Rating: 9, Comment: "gut"})
	require.NoError(t, err)

	reviews, err := svc.ListReviewsByMovie(ctx, movie.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, id, reviews[0].ID)

	require.NoError(t, svc.DeleteReview(ctx, id))
	assert.ErrorIs(t, svc.DeleteReview(ctx, id), ErrReviewNotFound)
}

func TestDeleteMovie_InUse(t *testing.T) {
	store := memory.New()
	svc := New(store)
	ctx := context.Background()

	movie, err := svc.CreateMovie(ctx, domain.Movie{Title: "M", DurationMin: 111})
	require.NoError(t, err)
	roomID, err := store.CreateRoom(ctx, "Saal 1", true)
	require.NoError(t, err)

	_, err = store.CreateShow(ctx, domain.Show{MovieID: movie.ID, RoomID: roomID, BasePriceCents: 1000})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteMovie(ctx, movie.ID), ErrMovieInUse)
}
