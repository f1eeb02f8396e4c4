package domain

import "time"

// Clock supplies the current time. Injected so window and streak
// arithmetic is deterministic under test.
type Clock interface {
	Now() time.Time
}

// UTCClock is the production clock. All timestamps the engine works
// with are UTC instants.
type UTCClock struct{}

// Now returns the current UTC time.
func (UTCClock) Now() time.Time { return time.Now().UTC() }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }
