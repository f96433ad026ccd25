// Package accounting holds the coin and streak transition rules. Every
// function is a pure transformation of an account snapshot; "today" is
// always supplied by the caller so the rules stay deterministic and
// testable.
//
// The counter rules exist twice on purpose. FinalizeSession runs in
// process and its result is committed with a compare-and-set, but the
// tab-switch penalty and the manual coin delta are executed as single
// atomic SQL updates in internal/database, which duplicate ApplyTabSwitch
// and ApplyCoinDelta rather than call them: a read-modify-write through
// this package would reopen the lost-update race those statements close.
// This package defines the semantics, the SQL mirrors them, and both
// sides carry tests pinning the same clamping behavior.
package accounting

import (
	"fmt"

	"github.com/studypulse/studypulse/internal/domain"
)

const (
	// StartingCoins is the balance a fresh account opens with.
	StartingCoins = 50

	// DefaultTabSwitchPenalty is deducted per tab switch when the caller
	// does not specify a penalty.
	DefaultTabSwitchPenalty = 5

	// MinSessionSeconds is the threshold below which a watch session is
	// rejected as too short to count.
	MinSessionSeconds = 5

	// DailyBonusCoins is awarded once per distinct calendar day with at
	// least one qualifying session.
	DailyBonusCoins = 1

	// StreakBonusCoins is awarded on top of the daily bonus when a session
	// extends a streak past its first day.
	StreakBonusCoins = 5
)

// SessionInput is a client-reported watch session awaiting finalization.
type SessionInput struct {
	VideoID        string
	URL            string
	SecondsWatched int
	TabSwitches    int
	Note           string
	Tag            string
}

// Validate rejects malformed input without touching account state.
func (in SessionInput) Validate() error {
	if in.VideoID == "" {
		return fmt.Errorf("missing videoId")
	}
	if in.SecondsWatched < 0 {
		return fmt.Errorf("secondsWatched must not be negative")
	}
	return nil
}

// ApplyTabSwitch deducts a tab-switch penalty, never taking coins below
// zero, and counts the switch. The production write path is the atomic
// GREATEST update in AccountRepo.ApplyTabSwitchPenalty; this function is
// the reference definition of that rule.
func ApplyTabSwitch(acc *domain.Account, penalty int) {
	if penalty <= 0 {
		penalty = DefaultTabSwitchPenalty
	}
	acc.Coins = max(0, acc.Coins-penalty)
	acc.VideosSwitched++
}

// ApplyCoinDelta adds delta to the balance, clamped at zero. Clamping is
// universal: negative balances are not a supported state. Like
// ApplyTabSwitch, the production write path is the atomic GREATEST update
// in AccountRepo.ApplyCoinDelta mirroring this rule.
func ApplyCoinDelta(acc *domain.Account, delta int) {
	acc.Coins = max(0, acc.Coins+delta)
}

// FinalizeSession applies a finished watch session to the account and
// returns the history entry to persist. The account is only mutated when
// the session is accepted.
//
// Streak rules, keyed on whole calendar days:
//   - first session ever: streak becomes 1
//   - same day as the last credited one: streak and bonuses unchanged
//   - exactly the next day: streak increments, streak bonus when > 1
//   - a gap of more than one day: streak resets to 1
//   - today before the last credited day: ignored (clock skew guard)
//
// The daily bonus lands once per newly credited day.
func FinalizeSession(acc *domain.Account, in SessionInput, today domain.Day) (*domain.WatchSession, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.SecondsWatched < MinSessionSeconds {
		return nil, domain.ErrSessionTooShort
	}
	if today.IsZero() {
		return nil, fmt.Errorf("missing watched day")
	}

	switch {
	case acc.LastActiveDay.IsZero():
		acc.Streak = 1
		acc.Coins += DailyBonusCoins
		acc.LastActiveDay = today

	case acc.LastActiveDay == today:
		// Already credited today.

	default:
		diff := today.Sub(acc.LastActiveDay)
		switch {
		case diff == 1:
			acc.Streak++
			acc.Coins += DailyBonusCoins
			if acc.Streak > 1 {
				acc.Coins += StreakBonusCoins
			}
			acc.LastActiveDay = today
		case diff > 1:
			acc.Streak = 1
			acc.Coins += DailyBonusCoins
			acc.LastActiveDay = today
		default:
			// diff <= 0: stale clock on the caller's side, don't move the
			// streak backwards.
		}
	}

	acc.VideosWatched++

	return &domain.WatchSession{
		AccountID:      acc.ID,
		VideoID:        in.VideoID,
		URL:            in.URL,
		WatchedDay:     today,
		SecondsWatched: in.SecondsWatched,
		TabSwitches:    in.TabSwitches,
		Note:           in.Note,
		Tag:            in.Tag,
	}, nil
}
