package model

import "time"

// SessionState is the single persisted fact about the current window: when
// it began, plus optional calibration data captured during its lifetime.
// The window resolver is the only component that mutates it.
type SessionState struct {
	WindowStart time.Time
	// WindowStartTokens is the cumulative token total observed when the
	// window began. Once set it is a fixed baseline for the window's
	// lifetime, replaced only at rollover.
	WindowStartTokens *int64
	LastUpdated       time.Time
	// HourlyDistribution is the last computed per-clock-hour token
	// apportionment for this window, keyed by hour start.
	HourlyDistribution map[time.Time]int64
}
