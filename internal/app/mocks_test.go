package app

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/studypulse/studypulse/internal/domain"
)

// mockAccountRepo implements domain.AccountRepository with overridable
// function fields. Unset functions panic so tests only exercise what they
// declare.
type mockAccountRepo struct {
	CreateFunc                func(ctx context.Context, name, email, passwordHash string) (*domain.Account, error)
	GetByIDFunc               func(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByEmailFunc            func(ctx context.Context, email string) (*domain.Account, error)
	ApplyTabSwitchPenaltyFunc func(ctx context.Context, id uuid.UUID, penalty int) (*domain.Account, error)
	ApplyCoinDeltaFunc        func(ctx context.Context, id uuid.UUID, delta int) (*domain.Account, error)
	CommitSessionFunc         func(ctx context.Context, acc *domain.Account, sess *domain.WatchSession, expectedVersion int64) error
	ListSessionsFunc          func(ctx context.Context, accountID uuid.UUID) ([]domain.WatchSession, error)
	ListRecentSessionsFunc    func(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.WatchSession, error)
	DayTotalsFunc             func(ctx context.Context, accountID uuid.UUID) ([]domain.DayTotal, error)
	SaveAnnotationFunc        func(ctx context.Context, accountID uuid.UUID, videoID string, note, tag *string, day domain.Day) error
	GetAnnotationsFunc        func(ctx context.Context, accountID uuid.UUID) (*domain.Annotations, error)
	GetNamesFunc              func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

func (m *mockAccountRepo) Create(ctx context.Context, name, email, passwordHash string) (*domain.Account, error) {
	return m.CreateFunc(ctx, name, email, passwordHash)
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return m.GetByEmailFunc(ctx, email)
}

func (m *mockAccountRepo) ApplyTabSwitchPenalty(ctx context.Context, id uuid.UUID, penalty int) (*domain.Account, error) {
	return m.ApplyTabSwitchPenaltyFunc(ctx, id, penalty)
}

func (m *mockAccountRepo) ApplyCoinDelta(ctx context.Context, id uuid.UUID, delta int) (*domain.Account, error) {
	return m.ApplyCoinDeltaFunc(ctx, id, delta)
}

func (m *mockAccountRepo) CommitSession(ctx context.Context, acc *domain.Account, sess *domain.WatchSession, expectedVersion int64) error {
	return m.CommitSessionFunc(ctx, acc, sess, expectedVersion)
}

func (m *mockAccountRepo) ListSessions(ctx context.Context, accountID uuid.UUID) ([]domain.WatchSession, error) {
	return m.ListSessionsFunc(ctx, accountID)
}

func (m *mockAccountRepo) ListRecentSessions(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.WatchSession, error) {
	return m.ListRecentSessionsFunc(ctx, accountID, limit)
}

func (m *mockAccountRepo) DayTotals(ctx context.Context, accountID uuid.UUID) ([]domain.DayTotal, error) {
	return m.DayTotalsFunc(ctx, accountID)
}

func (m *mockAccountRepo) SaveAnnotation(ctx context.Context, accountID uuid.UUID, videoID string, note, tag *string, day domain.Day) error {
	return m.SaveAnnotationFunc(ctx, accountID, videoID, note, tag, day)
}

func (m *mockAccountRepo) GetAnnotations(ctx context.Context, accountID uuid.UUID) (*domain.Annotations, error) {
	return m.GetAnnotationsFunc(ctx, accountID)
}

func (m *mockAccountRepo) GetNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	return m.GetNamesFunc(ctx, ids)
}

// mockLeaderboard is an in-memory domain.LeaderboardStore.
type mockLeaderboard struct {
	mu     sync.Mutex
	scores map[uuid.UUID]int

	SetScoreErr error
	TopFunc     func(ctx context.Context, n int) ([]uuid.UUID, []int, error)
}

func newMockLeaderboard() *mockLeaderboard {
	return &mockLeaderboard{scores: map[uuid.UUID]int{}}
}

func (m *mockLeaderboard) SetScore(ctx context.Context, accountID uuid.UUID, coins int) error {
	if m.SetScoreErr != nil {
		return m.SetScoreErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[accountID] = coins
	return nil
}

func (m *mockLeaderboard) Top(ctx context.Context, n int) ([]uuid.UUID, []int, error) {
	if m.TopFunc != nil {
		return m.TopFunc(ctx, n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(m.scores))
	for id := range m.scores {
		ids = append(ids, id)
	}
	// Selection sort is fine at test sizes.
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if m.scores[ids[j]] > m.scores[ids[i]] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	if len(ids) > n {
		ids = ids[:n]
	}
	scores := make([]int, len(ids))
	for i, id := range ids {
		scores[i] = m.scores[id]
	}
	return ids, scores, nil
}

func (m *mockLeaderboard) Remove(ctx context.Context, accountID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scores, accountID)
	return nil
}
