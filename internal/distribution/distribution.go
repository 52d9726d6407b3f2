// Package distribution apportions a window's token total across its clock
// hours so an "as of now" partial figure can be shown between coarse samples.
//
// The hour weights are an empirical guess at typical activity shape, not a
// measurement. The only hard guarantee is sum preservation: the hourly
// allocations always add up to the window total exactly.
package distribution

import (
	"time"

	"tokenwatch/internal/model"
)

// defaultHourWeights are relative activity weights for each hour into the
// window. Hours beyond the table use LateHourWeight.
var defaultHourWeights = []float64{1.2, 1.5, 1.3, 1.0, 0.7, 0.3}

const defaultLateHourWeight = 0.2

// Model holds the weight table used for apportionment.
type Model struct {
	hourWeights    []float64
	lateHourWeight float64
}

// Default returns a model with the built-in empirical weights.
func Default() Model {
	return Model{hourWeights: defaultHourWeights, lateHourWeight: defaultLateHourWeight}
}

// New returns a model with custom weights. Empty weights fall back to the
// defaults; a non-positive late weight falls back likewise.
func New(hourWeights []float64, lateHourWeight float64) Model {
	m := Default()
	if len(hourWeights) > 0 {
		m.hourWeights = hourWeights
	}
	if lateHourWeight > 0 {
		m.lateHourWeight = lateHourWeight
	}
	return m
}

func (m Model) weightAt(hourIndex int) float64 {
	if hourIndex >= 0 && hourIndex < len(m.hourWeights) {
		return m.hourWeights[hourIndex]
	}
	return m.lateHourWeight
}

// Distribute apportions totalTokens across the clock hours the window
// overlaps, keyed by hour start. Each hour's weight is scaled by the
// fraction of that hour the window actually covers, shares are normalized
// to totalTokens, and the integer-truncation residual goes to the hour with
// the largest weighted share so the values sum to totalTokens exactly.
func (m Model) Distribute(windowStart, windowEnd time.Time, totalTokens int64) map[time.Time]int64 {
	dist := make(map[time.Time]int64)
	if totalTokens <= 0 || !windowEnd.After(windowStart) {
		return dist
	}

	type hourShare struct {
		start    time.Time
		weighted float64
	}

	var shares []hourShare
	sum := 0.0
	for hour, idx := windowStart.Truncate(time.Hour), 0; hour.Before(windowEnd); hour, idx = hour.Add(time.Hour), idx+1 {
		overlap := overlapFraction(hour, windowStart, windowEnd)
		if overlap <= 0 {
			continue
		}
		w := m.weightAt(idx) * overlap
		shares = append(shares, hourShare{start: hour, weighted: w})
		sum += w
	}
	if sum <= 0 {
		return dist
	}

	var allocated int64
	largest := 0
	for i, s := range shares {
		tokens := int64(float64(totalTokens) * s.weighted / sum)
		dist[s.start] = tokens
		allocated += tokens
		if s.weighted > shares[largest].weighted {
			largest = i
		}
	}

	// Truncation residual lands on the biggest share.
	if residual := totalTokens - allocated; residual != 0 {
		dist[shares[largest].start] += residual
	}

	return dist
}

// PartialTotal sums the allocation for hours entirely before asOf plus a
// linearly prorated fraction of the hour containing asOf.
func (m Model) PartialTotal(asOf, windowStart time.Time, dist map[time.Time]int64) int64 {
	if asOf.Before(windowStart) {
		return 0
	}

	var total int64
	for hour, tokens := range dist {
		hourEnd := hour.Add(time.Hour)
		switch {
		case !hourEnd.After(asOf):
			total += tokens
		case hour.After(asOf):
			// not reached yet
		default:
			frac := asOf.Sub(hour).Seconds() / time.Hour.Seconds()
			total += int64(float64(tokens) * frac)
		}
	}
	return total
}

// FromConfig builds a model from optional overrides, falling back to the
// defaults for anything unset.
func FromConfig(hourWeights []float64, lateHourWeight *float64) Model {
	late := 0.0
	if lateHourWeight != nil {
		late = *lateHourWeight
	}
	return New(hourWeights, late)
}

// overlapFraction returns how much of the clock hour starting at hour is
// covered by [windowStart, windowEnd), in [0, 1].
func overlapFraction(hour, windowStart, windowEnd time.Time) float64 {
	from := hour
	if windowStart.After(from) {
		from = windowStart
	}
	to := hour.Add(time.Hour)
	if windowEnd.Before(to) {
		to = windowEnd
	}
	if !to.After(from) {
		return 0
	}
	return to.Sub(from).Seconds() / time.Hour.Seconds()
}

// WindowTotal sums the token counts of non-gap records starting inside the
// window. It is the figure Distribute spreads across the hours.
func WindowTotal(w model.ResolvedWindow, records []model.UsageRecord) int64 {
	if w.AwaitingNewWindow {
		return 0
	}
	var total int64
	for _, r := range records {
		if r.IsGap {
			continue
		}
		if r.Start.Before(w.Start) || !r.Start.Before(w.End) {
			continue
		}
		total += r.TotalTokens
	}
	return total
}
