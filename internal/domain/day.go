package domain

import (
	"fmt"
	"regexp"
	"time"
)

// Day is a calendar day in the user's local timezone, stored as YYYY-MM-DD.
// Streak arithmetic works on whole calendar days, never on timestamps: the
// original tracker derived days from UTC ISO timestamps and double-credited
// streaks near midnight.
type Day string

const dayLayout = "2006-01-02"

var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDay validates s as a YYYY-MM-DD calendar day.
func ParseDay(s string) (Day, error) {
	if !dayPattern.MatchString(s) {
		return "", fmt.Errorf("invalid day %q: want YYYY-MM-DD", s)
	}
	if _, err := time.Parse(dayLayout, s); err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return Day(s), nil
}

// DayOf returns the calendar day of t in t's location.
func DayOf(t time.Time) Day {
	return Day(t.Format(dayLayout))
}

// IsZero reports whether the day is unset.
func (d Day) IsZero() bool { return d == "" }

func (d Day) String() string { return string(d) }

// Time returns the UTC midnight of the day. Zero days and malformed values
// return the zero time.
func (d Day) Time() time.Time {
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Sub returns d - other in whole calendar days. Both days are anchored at
// UTC midnight so the result is timezone independent.
func (d Day) Sub(other Day) int {
	return int(d.Time().Sub(other.Time()).Hours() / 24)
}

// AddDays returns the day n calendar days after d.
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}
