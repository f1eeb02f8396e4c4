package profile

import (
	"fmt"
	"time"

	"github.com/fonta-cloud/studymeter/internal/domain"
	"github.com/fonta-cloud/studymeter/internal/domain/ledger"
)

// dateLayout is the calendar-day wire format for last_activity.
// Dates are UTC calendar days by convention; instants are unix millis.
const dateLayout = "2006-01-02"

// profileDTO is the stored JSON shape of a user ledger.
type profileDTO struct {
	Tier          string `json:"tier"`
	QuizCount     int    `json:"quiz_count"`
	SummaryCount  int    `json:"summary_count"`
	HomeworkCount int    `json:"homework_count"`
	RollingCount  int    `json:"rolling_count"`
	WindowStartMs int64  `json:"window_start_ms,omitempty"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	LastActivity  string `json:"last_activity,omitempty"`
}

func toDTO(l ledger.Ledger) profileDTO {
	dto := profileDTO{
		Tier:          string(l.Tier()),
		QuizCount:     l.Count(domain.FeatureQuiz),
		SummaryCount:  l.Count(domain.FeatureSummary),
		HomeworkCount: l.Count(domain.FeatureHomework),
		RollingCount:  l.RollingCount(),
		CurrentStreak: l.CurrentStreak(),
		LongestStreak: l.LongestStreak(),
	}
	if !l.WindowStart().IsZero() {
		dto.WindowStartMs = l.WindowStart().UnixMilli()
	}
	if last, ok := l.LastActivity(); ok {
		dto.LastActivity = last.Format(dateLayout)
	}
	return dto
}

func fromDTO(dto profileDTO) (ledger.Ledger, error) {
	tier, err := domain.ParseTier(dto.Tier)
	if err != nil {
		return ledger.Ledger{}, fmt.Errorf("stored tier: %w", err)
	}

	var windowStart time.Time
	if dto.WindowStartMs > 0 {
		windowStart = time.UnixMilli(dto.WindowStartMs).UTC()
	}

	var lastActivity time.Time
	if dto.LastActivity != "" {
		lastActivity, err = time.ParseInLocation(dateLayout, dto.LastActivity, time.UTC)
		if err != nil {
			return ledger.Ledger{}, fmt.Errorf("stored last_activity %q: %w", dto.LastActivity, err)
		}
	}

	counts := map[domain.Feature]int{
		domain.FeatureQuiz:     dto.QuizCount,
		domain.FeatureSummary:  dto.SummaryCount,
		domain.FeatureHomework: dto.HomeworkCount,
	}

	return ledger.Reconstruct(
		tier, counts, dto.RollingCount, windowStart,
		dto.CurrentStreak, dto.LongestStreak, lastActivity,
	), nil
}
