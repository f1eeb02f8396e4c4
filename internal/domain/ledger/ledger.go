// Package ledger holds the per-user usage record and the pure
// calculations over it: consumption counters, the rolling quota
// window, and the daily activity streak.
package ledger

import (
	"time"

	"github.com/fonta-cloud/studymeter/internal/domain"
)

// Ledger is a per-user usage and streak record. The zero value is not
// usable; construct via New or Reconstruct. Ledger has value semantics:
// mutating helpers return an updated copy and never touch the receiver.
type Ledger struct {
	tier          domain.Tier
	counts        map[domain.Feature]int
	rollingCount  int
	windowStart   time.Time // UTC instant; zero until the first consume
	currentStreak int
	longestStreak int
	lastActivity  time.Time // UTC calendar day at midnight; zero if none
}

// New creates a zero-valued ledger for a user on the given tier.
func New(tier domain.Tier) Ledger {
	return Ledger{
		tier:   tier,
		counts: make(map[domain.Feature]int, 3),
	}
}

// Reconstruct rebuilds a ledger from stored fields.
func Reconstruct(
	tier domain.Tier,
	counts map[domain.Feature]int,
	rollingCount int,
	windowStart time.Time,
	currentStreak, longestStreak int,
	lastActivity time.Time,
) Ledger {
	c := make(map[domain.Feature]int, len(counts))
	for k, v := range counts {
		c[k] = v
	}
	return Ledger{
		tier:          tier,
		counts:        c,
		rollingCount:  rollingCount,
		windowStart:   windowStart.UTC(),
		currentStreak: currentStreak,
		longestStreak: longestStreak,
		lastActivity:  lastActivity.UTC(),
	}
}

// Tier returns the subscription tier.
func (l Ledger) Tier() domain.Tier { return l.tier }

// Count returns the lifetime count for a feature. Absent means zero.
func (l Ledger) Count(f domain.Feature) int { return l.counts[f] }

// Counts returns a copy of all per-feature lifetime counts.
func (l Ledger) Counts() map[domain.Feature]int {
	c := make(map[domain.Feature]int, len(l.counts))
	for k, v := range l.counts {
		c[k] = v
	}
	return c
}

// RollingCount returns invocations since WindowStart.
func (l Ledger) RollingCount() int { return l.rollingCount }

// WindowStart returns the start of the current rolling window.
// Zero until the first consume.
func (l Ledger) WindowStart() time.Time { return l.windowStart }

// CurrentStreak returns consecutive days with recorded activity.
func (l Ledger) CurrentStreak() int { return l.currentStreak }

// LongestStreak returns the maximum CurrentStreak ever reached.
func (l Ledger) LongestStreak() int { return l.longestStreak }

// LastActivity returns the calendar day (UTC midnight) of the most
// recent activity and false if there is none.
func (l Ledger) LastActivity() (time.Time, bool) {
	return l.lastActivity, !l.lastActivity.IsZero()
}

// WithTier returns a copy of the ledger on a different tier.
func (l Ledger) WithTier(tier domain.Tier) Ledger {
	out := l.clone()
	out.tier = tier
	return out
}

// WithConsume returns a copy with one unit of the feature consumed.
// Starts the rolling window if this is the first consume.
func (l Ledger) WithConsume(f domain.Feature, now time.Time) Ledger {
	out := l.clone()
	out.counts[f]++
	out.rollingCount++
	if out.windowStart.IsZero() {
		out.windowStart = now.UTC()
	}
	return out
}

func (l Ledger) clone() Ledger {
	out := l
	out.counts = make(map[domain.Feature]int, len(l.counts))
	for k, v := range l.counts {
		out.counts[k] = v
	}
	return out
}
