package ledger

import (
	"testing"
	"time"

	"github.com/fonta-cloud/studymeter/internal/domain"
)

func TestMaybeResetWindow_Elapsed(t *testing.T) {
	start := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	l := Reconstruct(domain.TierFree, nil, 15, start, 2, 2, time.Time{})

	now := start.Add(Window + time.Minute)
	l2 := MaybeResetWindow(l, now)

	if l2.RollingCount() != 0 {
		t.Errorf("expected rolling count 0 after reset, got %d", l2.RollingCount())
	}
	if !l2.WindowStart().Equal(now) {
		t.Errorf("expected window restart at %v, got %v", now, l2.WindowStart())
	}
	if l2.CurrentStreak() != 2 {
		t.Error("reset must not touch streak fields")
	}
}

func TestMaybeResetWindow_ExactBoundary(t *testing.T) {
	start := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	l := Reconstruct(domain.TierFree, nil, 15, start, 0, 0, time.Time{})

	l2 := MaybeResetWindow(l, start.Add(Window))
	if l2.RollingCount() != 0 {
		t.Errorf("window of exactly %v should reset, got rolling count %d", Window, l2.RollingCount())
	}
}

func TestMaybeResetWindow_NotElapsed(t *testing.T) {
	start := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	l := Reconstruct(domain.TierFree, nil, 7, start, 0, 0, time.Time{})

	l2 := MaybeResetWindow(l, start.Add(Window-time.Minute))
	if l2.RollingCount() != 7 {
		t.Errorf("expected rolling count 7, got %d", l2.RollingCount())
	}
	if !l2.WindowStart().Equal(start) {
		t.Error("window start must not move before the window elapses")
	}
}

func TestMaybeResetWindow_NoWindowYet(t *testing.T) {
	l := New(domain.TierFree)

	l2 := MaybeResetWindow(l, time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC))
	if !l2.WindowStart().IsZero() {
		t.Error("reset must not start a window for an idle ledger")
	}
}

func TestTimeUntilReset(t *testing.T) {
	start := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	l := Reconstruct(domain.TierFree, nil, 3, start, 0, 0, time.Time{})

	got := TimeUntilReset(l, start.Add(2*time.Hour))
	if got != 4*time.Hour {
		t.Errorf("expected 4h, got %v", got)
	}

	if d := TimeUntilReset(l, start.Add(Window+time.Hour)); d != 0 {
		t.Errorf("elapsed window should report 0, got %v", d)
	}

	if d := TimeUntilReset(New(domain.TierFree), start); d != 0 {
		t.Errorf("idle ledger should report 0, got %v", d)
	}
}
