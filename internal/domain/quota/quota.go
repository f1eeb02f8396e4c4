// Package quota maps (tier, feature, ledger) to allow/deny decisions
// and remaining quota. Pure functions, no I/O.
package quota

import (
	"github.com/fonta-cloud/studymeter/internal/domain"
	"github.com/fonta-cloud/studymeter/internal/domain/ledger"
)

// WindowCap is the total cross-feature invocations allowed per rolling
// window, regardless of tier.
const WindowCap = 15

// freeLimits are the free-tier lifetime caps per feature.
var freeLimits = map[domain.Feature]int{
	domain.FeatureQuiz:     3,
	domain.FeatureSummary:  2,
	domain.FeatureHomework: 1,
}

// FreeLimit returns the free-tier lifetime cap for a feature.
func FreeLimit(f domain.Feature) int { return freeLimits[f] }

// Check reports whether a consume is allowed. A non-nil error names the
// cap that blocks it: ErrWindowQuotaExceeded for the shared rolling cap,
// ErrFeatureLimitReached for a free-tier feature cap.
func Check(tier domain.Tier, f domain.Feature, l ledger.Ledger) error {
	if l.RollingCount() >= WindowCap {
		return domain.ErrWindowQuotaExceeded
	}
	if tier == domain.TierFree && l.Count(f) >= freeLimits[f] {
		return domain.ErrFeatureLimitReached
	}
	return nil
}

// CanConsume reports whether a consume of f is currently allowed.
func CanConsume(tier domain.Tier, f domain.Feature, l ledger.Ledger) bool {
	return Check(tier, f, l) == nil
}

// Remaining returns the feature-level quota left: the per-feature cap
// for free users, the shared window cap for premium. The window may
// still deny a free consume even when Remaining is positive; callers
// needing the window view use WindowRemaining.
func Remaining(tier domain.Tier, f domain.Feature, l ledger.Ledger) int {
	if tier == domain.TierFree {
		r := freeLimits[f] - l.Count(f)
		if r < 0 {
			return 0
		}
		return r
	}
	return WindowRemaining(l)
}

// WindowRemaining returns consumes left in the shared rolling window.
func WindowRemaining(l ledger.Ledger) int {
	r := WindowCap - l.RollingCount()
	if r < 0 {
		return 0
	}
	return r
}
