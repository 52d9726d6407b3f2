// Package burnrate estimates trailing consumption rates from usage records.
package burnrate

import (
	"time"

	"tokenwatch/internal/model"
)

const trailing = time.Hour

// HourlyRate computes the tokens-per-minute consumption rate over the last
// hour. Records spanning the hour boundary contribute a share of their
// tokens proportional to how much of their duration overlaps the hour, so
// edge records are neither double-counted nor dropped.
func HourlyRate(now time.Time, records []model.UsageRecord) float64 {
	hourAgo := now.Add(-trailing)
	total := 0.0

	for _, r := range records {
		if r.IsGap {
			continue
		}

		end := r.EffectiveEnd(now)
		if end.Before(hourAgo) {
			continue
		}

		overlapStart := r.Start
		if overlapStart.Before(hourAgo) {
			overlapStart = hourAgo
		}
		overlapEnd := end
		if overlapEnd.After(now) {
			overlapEnd = now
		}
		if !overlapEnd.After(overlapStart) {
			continue
		}

		duration := end.Sub(r.Start)
		if duration <= 0 {
			continue
		}

		share := overlapEnd.Sub(overlapStart).Seconds() / duration.Seconds()
		total += float64(r.TotalTokens) * share
	}

	if total <= 0 {
		return 0
	}
	return total / trailing.Minutes()
}

// DepletionTime projects when tokensLeft runs out at the given rate.
// Returns the zero time when no depletion can be projected.
func DepletionTime(now time.Time, tokensLeft int64, perMinute float64) time.Time {
	if perMinute <= 0 || tokensLeft <= 0 {
		return time.Time{}
	}
	minutes := float64(tokensLeft) / perMinute
	return now.Add(time.Duration(minutes * float64(time.Minute)))
}
