package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/studypulse/studypulse/internal/domain"
)

var testAccountSeq int

// CreateTestAccount creates an account with default values for testing.
func CreateTestAccount(t *testing.T, pool *pgxpool.Pool, name string) *domain.Account {
	t.Helper()

	testAccountSeq++
	repo := NewAccountRepo(pool)
	ctx := context.Background()

	acc, err := repo.Create(ctx, name, fmt.Sprintf("%s-%d@example.com", name, testAccountSeq), "$2a$10$testhash")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, acc.ID)

	return acc
}

// FinalizeTestSession appends a session for the account via the normal
// compare-and-set path.
func FinalizeTestSession(t *testing.T, pool *pgxpool.Pool, acc *domain.Account, videoID string, day domain.Day, seconds int) *domain.WatchSession {
	t.Helper()

	repo := NewAccountRepo(pool)
	ctx := context.Background()

	current, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)

	sess := &domain.WatchSession{
		AccountID:      acc.ID,
		VideoID:        videoID,
		URL:            "https://youtu.be/" + videoID,
		WatchedDay:     day,
		SecondsWatched: seconds,
	}
	current.VideosWatched++
	require.NoError(t, repo.CommitSession(ctx, current, sess, current.Version))
	return sess
}
