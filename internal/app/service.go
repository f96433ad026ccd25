// Package app orchestrates the accounting engine, persistence, and the
// leaderboard cache behind one service type the HTTP layer talks to.
package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"github.com/studypulse/studypulse/internal/accounting"
	"github.com/studypulse/studypulse/internal/domain"
	apperrors "github.com/studypulse/studypulse/internal/errors"
	"github.com/studypulse/studypulse/internal/metrics"
	"github.com/studypulse/studypulse/internal/platform/retry"
)

const (
	minPasswordLength = 8

	// dashboardSessionCount is how many recent sessions the dashboard shows.
	dashboardSessionCount = 5

	// leaderboardSize is how many accounts the leaderboard returns.
	leaderboardSize = 10

	commitMaxAttempts    = 3
	commitInitialBackoff = 10 * time.Millisecond
)

// Service implements the application use cases. The leaderboard store is
// optional; when nil, coin changes skip the score sync and Leaderboard
// reports unavailable.
type Service struct {
	accounts domain.AccountRepository
	board    domain.LeaderboardStore
	clock    clockwork.Clock

	boardGroup singleflight.Group
}

func NewService(accounts domain.AccountRepository, board domain.LeaderboardStore, clock clockwork.Clock) *Service {
	return &Service{accounts: accounts, board: board, clock: clock}
}

// Signup registers a new account with a bcrypt-hashed password.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" || password == "" {
		return nil, apperrors.ValidationError("name, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperrors.ValidationError("invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.ValidationError("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.InternalError("failed to hash password", err)
	}

	acc, err := s.accounts.Create(ctx, name, email, string(hash))
	if err != nil {
		return nil, err
	}

	slog.Info("Account created", "accountID", acc.ID, "name", acc.Name)
	s.syncLeaderboard(ctx, acc)
	return acc, nil
}

// Login verifies credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return acc, nil
}

// RecordTabSwitch applies the tab-switch penalty atomically. A penalty of
// zero or less falls back to the default.
func (s *Service) RecordTabSwitch(ctx context.Context, accountID uuid.UUID, penalty int) (*domain.Account, error) {
	if penalty <= 0 {
		penalty = accounting.DefaultTabSwitchPenalty
	}

	acc, err := s.accounts.ApplyTabSwitchPenalty(ctx, accountID, penalty)
	if err != nil {
		return nil, err
	}

	metrics.TabSwitchPenaltiesTotal.Inc()
	s.syncLeaderboard(ctx, acc)
	return acc, nil
}

// AddCoins applies a manual coin delta, clamped at zero.
func (s *Service) AddCoins(ctx context.Context, accountID uuid.UUID, delta int) (*domain.Account, error) {
	acc, err := s.accounts.ApplyCoinDelta(ctx, accountID, delta)
	if err != nil {
		return nil, err
	}

	if delta > 0 {
		metrics.CoinsAwardedTotal.WithLabelValues("manual").Add(float64(delta))
	}
	s.syncLeaderboard(ctx, acc)
	return acc, nil
}

// FinalizeSession runs the engine transition and commits it with a
// compare-and-set. A version conflict means another request changed the
// account in between; the whole read-transition-commit cycle is retried a
// bounded number of times.
func (s *Service) FinalizeSession(ctx context.Context, accountID uuid.UUID, in accounting.SessionInput, day domain.Day) (*domain.Account, *domain.WatchSession, error) {
	if err := in.Validate(); err != nil {
		metrics.SessionsFinalizedTotal.WithLabelValues("invalid").Inc()
		return nil, nil, apperrors.ValidationError(err.Error())
	}
	if day.IsZero() {
		day = domain.DayOf(s.clock.Now())
	}

	policy := retry.Policy{
		MaxAttempts:    commitMaxAttempts,
		InitialBackoff: commitInitialBackoff,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			metrics.SessionCommitRetriesTotal.Inc()
			slog.Debug("Retrying session commit", "accountID", accountID, "attempt", attempt, "backoff", backoff)
		},
	}
	classify := func(err error) retry.Action {
		if errors.Is(err, domain.ErrVersionConflict) {
			return retry.Retry
		}
		return retry.Stop
	}

	type outcome struct {
		acc  *domain.Account
		sess *domain.WatchSession
	}

	result, err := retry.Do(ctx, policy, classify, func() (outcome, error) {
		acc, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			return outcome{}, err
		}

		before := *acc
		sess, err := accounting.FinalizeSession(acc, in, day)
		if err != nil {
			return outcome{}, err
		}

		if err := s.accounts.CommitSession(ctx, acc, sess, before.Version); err != nil {
			return outcome{}, err
		}

		recordSessionMetrics(&before, acc)
		return outcome{acc: acc, sess: sess}, nil
	})
	if err != nil {
		var perm *retry.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		metrics.SessionsFinalizedTotal.WithLabelValues(finalizeResult(err)).Inc()
		return nil, nil, err
	}

	metrics.SessionsFinalizedTotal.WithLabelValues("accepted").Inc()
	s.syncLeaderboard(ctx, result.acc)
	return result.acc, result.sess, nil
}

func finalizeResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrSessionTooShort):
		return "too_short"
	case errors.Is(err, domain.ErrVersionConflict):
		return "conflict"
	default:
		return "error"
	}
}

func recordSessionMetrics(before, after *domain.Account) {
	if after.LastActiveDay != before.LastActiveDay {
		metrics.CoinsAwardedTotal.WithLabelValues("daily_bonus").Add(accounting.DailyBonusCoins)
	}
	if after.Streak > before.Streak && after.Streak > 1 {
		metrics.CoinsAwardedTotal.WithLabelValues("streak_bonus").Add(accounting.StreakBonusCoins)
	}
	if before.Streak > 1 && after.Streak == 1 {
		metrics.StreakResetsTotal.Inc()
	}
}

// Stats returns the account's current counters.
func (s *Service) Stats(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, accountID)
}

// Dashboard bundles the stats with the most recent sessions.
func (s *Service) Dashboard(ctx context.Context, accountID uuid.UUID) (*domain.Account, []domain.WatchSession, error) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	recent, err := s.accounts.ListRecentSessions(ctx, accountID, dashboardSessionCount)
	if err != nil {
		return nil, nil, err
	}
	return acc, recent, nil
}

// History returns the full watch history in append order.
func (s *Service) History(ctx context.Context, accountID uuid.UUID) ([]domain.WatchSession, error) {
	return s.accounts.ListSessions(ctx, accountID)
}

// DayMinutes is one day of the weekly chart.
type DayMinutes struct {
	Day     domain.Day `json:"day"`
	Minutes int        `json:"minutes"`
}

// WeeklyStats returns watch minutes for the trailing seven days including
// today, zero-filled so the chart always has seven points.
func (s *Service) WeeklyStats(ctx context.Context, accountID uuid.UUID) ([]DayMinutes, error) {
	totals, err := s.accounts.DayTotals(ctx, accountID)
	if err != nil {
		return nil, err
	}

	byDay := make(map[domain.Day]int, len(totals))
	for _, t := range totals {
		byDay[t.Day] = t.TotalSeconds
	}

	today := domain.DayOf(s.clock.Now())
	week := make([]DayMinutes, 0, 7)
	for i := 6; i >= 0; i-- {
		day := today.AddDays(-i)
		week = append(week, DayMinutes{Day: day, Minutes: byDay[day] / 60})
	}
	return week, nil
}

// MonthlyActivity returns the per-day watch totals over the whole history.
func (s *Service) MonthlyActivity(ctx context.Context, accountID uuid.UUID) ([]domain.DayTotal, error) {
	return s.accounts.DayTotals(ctx, accountID)
}

// SaveNoteTag upserts the per-video note/tag and mirrors it onto the most
// recent matching history entry. With no matching session, a zero-duration
// entry is inserted so the note shows up in history views. The repository
// runs the whole save in one transaction.
func (s *Service) SaveNoteTag(ctx context.Context, accountID uuid.UUID, videoID string, note, tag *string) error {
	if videoID == "" {
		return apperrors.ValidationError("missing videoId")
	}
	if note == nil && tag == nil {
		return apperrors.ValidationError("nothing to save")
	}
	return s.accounts.SaveAnnotation(ctx, accountID, videoID, note, tag, domain.DayOf(s.clock.Now()))
}

// Notes returns the per-video note and tag maps.
func (s *Service) Notes(ctx context.Context, accountID uuid.UUID) (*domain.Annotations, error) {
	return s.accounts.GetAnnotations(ctx, accountID)
}

// Leaderboard returns the top accounts by coins. Concurrent requests
// collapse into one Redis read.
func (s *Service) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	if s.board == nil {
		return nil, apperrors.ExternalError("leaderboard unavailable", nil)
	}

	v, err, _ := s.boardGroup.Do("top", func() (any, error) {
		ids, scores, err := s.board.Top(ctx, leaderboardSize)
		if err != nil {
			return nil, err
		}

		names, err := s.accounts.GetNames(ctx, ids)
		if err != nil {
			return nil, err
		}

		entries := make([]domain.LeaderboardEntry, 0, len(ids))
		for i, id := range ids {
			name, ok := names[id]
			if !ok {
				// Account deleted since the score was written.
				_ = s.board.Remove(ctx, id)
				continue
			}
			entries = append(entries, domain.LeaderboardEntry{AccountID: id, Name: name, Coins: scores[i]})
		}
		return entries, nil
	})
	if err != nil {
		metrics.LeaderboardFetchesTotal.WithLabelValues("error").Inc()
		return nil, apperrors.ExternalError("failed to load leaderboard", err)
	}

	metrics.LeaderboardFetchesTotal.WithLabelValues("ok").Inc()
	return v.([]domain.LeaderboardEntry), nil
}

// syncLeaderboard mirrors the balance into Redis. Failures are logged and
// counted but never fail the request; Postgres stays authoritative.
func (s *Service) syncLeaderboard(ctx context.Context, acc *domain.Account) {
	if s.board == nil {
		return
	}
	if err := s.board.SetScore(ctx, acc.ID, acc.Coins); err != nil {
		metrics.LeaderboardUpdateFailuresTotal.Inc()
		slog.Warn("Failed to update leaderboard score", "accountID", acc.ID, "error", err)
	}
}
