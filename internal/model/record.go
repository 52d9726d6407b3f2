// Package model defines domain types for tokenwatch usage tracking.
package model

import "time"

// UsageRecord is one reported activity interval from the usage data source.
// Records arrive unsorted and may overlap. Gap records mark inactive periods
// and are excluded from all quota math.
type UsageRecord struct {
	Start       time.Time
	End         *time.Time // nil when the source reported no end time
	TotalTokens int64
	IsActive    bool
	IsGap       bool
}

// EffectiveEnd returns the end time to use for rate math: now for active
// records, the reported end when present, otherwise now.
func (r UsageRecord) EffectiveEnd(now time.Time) time.Time {
	if r.IsActive {
		return now
	}
	if r.End != nil {
		return *r.End
	}
	return now
}

// LatestRecord returns the non-gap record with the latest start time.
// Ties are broken by token count, then by the active flag, so the pick is
// deterministic regardless of input order. Returns false when no non-gap
// record exists.
func LatestRecord(records []UsageRecord) (UsageRecord, bool) {
	var best UsageRecord
	found := false
	for _, r := range records {
		if r.IsGap {
			continue
		}
		if !found || laterRecord(r, best) {
			best = r
			found = true
		}
	}
	return best, found
}

func laterRecord(a, b UsageRecord) bool {
	if !a.Start.Equal(b.Start) {
		return a.Start.After(b.Start)
	}
	if a.TotalTokens != b.TotalTokens {
		return a.TotalTokens > b.TotalTokens
	}
	return a.IsActive && !b.IsActive
}

// HasActive reports whether any non-gap record is currently active.
func HasActive(records []UsageRecord) bool {
	for _, r := range records {
		if !r.IsGap && r.IsActive {
			return true
		}
	}
	return false
}
