package ledger

import "time"

// Advance applies one day of recorded activity to the streak fields and
// returns the updated ledger. Called once per successful consume, never
// on denial.
//
// Days compare as UTC calendar dates. The convention is fixed here so
// streaks do not drift between devices in different local time zones.
func Advance(l Ledger, today time.Time) Ledger {
	day := DayOf(today)

	out := l.clone()
	switch {
	case l.lastActivity.Equal(day):
		// Already counted today.
		return out
	case l.lastActivity.Equal(day.AddDate(0, 0, -1)):
		out.currentStreak++
	default:
		// Gap of two or more days, or first ever activity.
		out.currentStreak = 1
	}
	if out.currentStreak > out.longestStreak {
		out.longestStreak = out.currentStreak
	}
	out.lastActivity = day
	return out
}

// DayOf truncates an instant to its UTC calendar day (midnight).
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
