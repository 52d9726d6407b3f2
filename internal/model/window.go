package model

import "time"

// WindowDuration is the fixed length of a usage quota window.
const WindowDuration = 5 * time.Hour

// ResolvedWindow is the authoritative quota window for one poll.
// When AwaitingNewWindow is set there is no active window and Start/End are
// zero; the full quota should be treated as available.
type ResolvedWindow struct {
	Start             time.Time
	End               time.Time
	AwaitingNewWindow bool
}

// Elapsed returns how far into the window now is, clamped to [0, End-Start].
func (w ResolvedWindow) Elapsed(now time.Time) time.Duration {
	if w.AwaitingNewWindow || now.Before(w.Start) {
		return 0
	}
	if now.After(w.End) {
		return w.End.Sub(w.Start)
	}
	return now.Sub(w.Start)
}

// Remaining returns the time left until the window ends, clamped to zero.
func (w ResolvedWindow) Remaining(now time.Time) time.Duration {
	if w.AwaitingNewWindow || now.After(w.End) {
		return 0
	}
	return w.End.Sub(now)
}

// WindowEnd computes the end of a window starting at start: the fixed
// duration added, then rounded forward to the next full clock hour so
// windows line up with human-readable hour boundaries.
func WindowEnd(start time.Time) time.Time {
	return RoundUpHour(start.Add(WindowDuration))
}

// RoundUpHour rounds t forward to the next full clock hour. Times already
// exactly on the hour are returned unchanged.
func RoundUpHour(t time.Time) time.Time {
	truncated := t.Truncate(time.Hour)
	if truncated.Equal(t) {
		return t
	}
	return truncated.Add(time.Hour)
}
