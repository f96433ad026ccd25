package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Account is one registered user's mutable study record. The password hash
// lives in the struct because account and credentials share a lifecycle;
// hashing happens in the app layer, never here.
type Account struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string

	Coins          int
	Streak         int
	LastActiveDay  Day
	VideosWatched  int
	VideosSwitched int

	// Version increments on every compare-and-set commit. Used to detect
	// concurrent updates to the same account.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WatchSession is one finalized watch session. Immutable once recorded,
// except that a later note/tag save may patch Note and Tag.
type WatchSession struct {
	ID             int64
	AccountID      uuid.UUID
	VideoID        string
	URL            string
	WatchedDay     Day
	SecondsWatched int
	TabSwitches    int
	Note           string
	Tag            string
	CreatedAt      time.Time
}

// Annotations are the per-video note and tag maps, keyed by video id.
// A note is shared by all sessions of the same video.
type Annotations struct {
	Notes map[string]string
	Tags  map[string]string
}

// DayTotal is the aggregate watch time recorded for one calendar day.
type DayTotal struct {
	Day          Day
	TotalSeconds int
}

// LeaderboardEntry is one row of the coins leaderboard.
type LeaderboardEntry struct {
	AccountID uuid.UUID
	Name      string
	Coins     int
}

// AccountRepository is the persistence contract for accounts and their
// embedded history. Counter updates (penalty, delta) must be atomic at the
// storage layer; CommitSession must be all-or-nothing and fail with
// ErrVersionConflict when expectedVersion no longer matches.
type AccountRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// ApplyTabSwitchPenalty deducts penalty coins (floored at zero) and
	// increments the switch counter in a single atomic update.
	ApplyTabSwitchPenalty(ctx context.Context, id uuid.UUID, penalty int) (*Account, error)

	// ApplyCoinDelta adds delta coins (floored at zero) atomically.
	ApplyCoinDelta(ctx context.Context, id uuid.UUID, delta int) (*Account, error)

	// CommitSession persists the outcome of a finalized session: the updated
	// account fields, the appended history entry, and (when the session
	// carries them) the note/tag upsert, in one transaction.
	CommitSession(ctx context.Context, acc *Account, sess *WatchSession, expectedVersion int64) error

	ListSessions(ctx context.Context, accountID uuid.UUID) ([]WatchSession, error)
	ListRecentSessions(ctx context.Context, accountID uuid.UUID, limit int) ([]WatchSession, error)
	DayTotals(ctx context.Context, accountID uuid.UUID) ([]DayTotal, error)

	// SaveAnnotation upserts the per-video note/tag and mirrors it onto the
	// most recent session with that video id, inserting a zero-duration entry
	// dated day when none exists. Must be all-or-nothing: either every part
	// of the save lands or none does.
	SaveAnnotation(ctx context.Context, accountID uuid.UUID, videoID string, note, tag *string, day Day) error
	GetAnnotations(ctx context.Context, accountID uuid.UUID) (*Annotations, error)

	// GetNames resolves display names for a set of accounts (leaderboard).
	GetNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// LeaderboardStore ranks accounts by coins. Updates are best effort; the
// Postgres record stays authoritative.
type LeaderboardStore interface {
	SetScore(ctx context.Context, accountID uuid.UUID, coins int) error
	Top(ctx context.Context, n int) ([]uuid.UUID, []int, error)
	Remove(ctx context.Context, accountID uuid.UUID) error
}
