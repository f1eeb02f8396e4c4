package ledger

import "time"

// Window is the fixed rolling quota window shared by all users.
const Window = 6 * time.Hour

// MaybeResetWindow clears the rolling count and restarts the window at
// now if the window has fully elapsed. All other fields are unchanged.
// Invoked lazily before every quota decision so the window is never
// stale when policy is evaluated.
func MaybeResetWindow(l Ledger, now time.Time) Ledger {
	if l.windowStart.IsZero() || now.Sub(l.windowStart) < Window {
		return l.clone()
	}
	out := l.clone()
	out.rollingCount = 0
	out.windowStart = now.UTC()
	return out
}

// TimeUntilReset returns how long until the current rolling window
// elapses. Zero if no window has started or it has already elapsed.
func TimeUntilReset(l Ledger, now time.Time) time.Duration {
	if l.windowStart.IsZero() {
		return 0
	}
	remaining := Window - now.Sub(l.windowStart)
	if remaining < 0 {
		return 0
	}
	return remaining
}
