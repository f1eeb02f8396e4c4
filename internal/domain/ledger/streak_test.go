package ledger

import (
	"testing"
	"time"

	"github.com/fonta-cloud/studymeter/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdvance_FirstActivity(t *testing.T) {
	l := New(domain.TierFree)
	today := time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC)

	l2 := Advance(l, today)
	if l2.CurrentStreak() != 1 {
		t.Errorf("expected streak 1, got %d", l2.CurrentStreak())
	}
	if l2.LongestStreak() != 1 {
		t.Errorf("expected longest 1, got %d", l2.LongestStreak())
	}
	last, ok := l2.LastActivity()
	if !ok || !last.Equal(day(2025, 3, 10)) {
		t.Errorf("last activity should be today's date, got %v", last)
	}
}

func TestAdvance_Continuity(t *testing.T) {
	l := Reconstruct(domain.TierFree, nil, 0, time.Time{}, 4, 4, day(2025, 3, 9))

	l2 := Advance(l, day(2025, 3, 10).Add(18*time.Hour))
	if l2.CurrentStreak() != 5 {
		t.Errorf("expected streak 5, got %d", l2.CurrentStreak())
	}
	if l2.LongestStreak() != 5 {
		t.Errorf("expected longest 5, got %d", l2.LongestStreak())
	}
}

func TestAdvance_ContinuityKeepsLargerLongest(t *testing.T) {
	l := Reconstruct(domain.TierFree, nil, 0, time.Time{}, 2, 9, day(2025, 3, 9))

	l2 := Advance(l, day(2025, 3, 10))
	if l2.CurrentStreak() != 3 {
		t.Errorf("expected streak 3, got %d", l2.CurrentStreak())
	}
	if l2.LongestStreak() != 9 {
		t.Errorf("longest should stay 9, got %d", l2.LongestStreak())
	}
}

func TestAdvance_Break(t *testing.T) {
	// Last activity three days ago: streak resets, longest keeps.
	l := Reconstruct(domain.TierFree, nil, 0, time.Time{}, 10, 10, day(2025, 3, 7))

	l2 := Advance(l, day(2025, 3, 10))
	if l2.CurrentStreak() != 1 {
		t.Errorf("expected streak reset to 1, got %d", l2.CurrentStreak())
	}
	if l2.LongestStreak() != 10 {
		t.Errorf("longest should stay 10, got %d", l2.LongestStreak())
	}
}

func TestAdvance_SameDayIdempotent(t *testing.T) {
	l := Reconstruct(domain.TierFree, nil, 0, time.Time{}, 4, 4, day(2025, 3, 9))

	first := Advance(l, day(2025, 3, 10).Add(8*time.Hour))
	second := Advance(first, day(2025, 3, 10).Add(20*time.Hour))

	if second.CurrentStreak() != first.CurrentStreak() {
		t.Errorf("second advance on the same day changed streak: %d -> %d",
			first.CurrentStreak(), second.CurrentStreak())
	}
	if second.LongestStreak() != first.LongestStreak() {
		t.Error("second advance on the same day changed longest streak")
	}
}

func TestAdvance_ComparesUTCDays(t *testing.T) {
	// 23:30 UTC+2 on March 10 is 21:30 UTC the same day; a non-UTC
	// instant must land on the UTC calendar date.
	loc := time.FixedZone("EET", 2*3600)
	l := New(domain.TierFree)

	l2 := Advance(l, time.Date(2025, 3, 10, 23, 30, 0, 0, loc))
	last, _ := l2.LastActivity()
	if !last.Equal(day(2025, 3, 10)) {
		t.Errorf("expected UTC day 2025-03-10, got %v", last)
	}

	// 01:00 UTC+2 on March 11 is still March 10 in UTC.
	l3 := Advance(l2, time.Date(2025, 3, 11, 1, 0, 0, 0, loc))
	if l3.CurrentStreak() != l2.CurrentStreak() {
		t.Error("instant on the same UTC day should not advance the streak")
	}
}
