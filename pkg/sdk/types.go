package sdk

import "time"

// Decision is the outcome of a consume attempt.
type Decision struct {
	Allowed         bool
	Reason          error // sentinel when Allowed is false, nil otherwise
	Remaining       int
	WindowRemaining int
}

// Usage is the derived usage state for a user.
type Usage struct {
	Tier            string         `json:"tier"`
	RollingCount    int            `json:"rolling_count"`
	WindowRemaining int            `json:"window_remaining"`
	Remaining       map[string]int `json:"remaining"`
	ResetInSeconds  int64          `json:"reset_in_seconds"`
	CurrentStreak   int            `json:"current_streak"`
	LongestStreak   int            `json:"longest_streak"`
}

// Artifact is one piece of generated study content.
type Artifact struct {
	ID        string    `json:"id"`
	Feature   string    `json:"feature"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Health is the service health report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
