package distribution

import (
	"testing"
	"time"

	"tokenwatch/internal/model"
)

func hourlyWindow(t *testing.T, start, end string) (time.Time, time.Time) {
	t.Helper()
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		t.Fatal(err)
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		t.Fatal(err)
	}
	return s, e
}

func sumDist(dist map[time.Time]int64) int64 {
	var total int64
	for _, v := range dist {
		total += v
	}
	return total
}

func TestDistribute_SumPreserved(t *testing.T) {
	totals := []int64{1, 7, 100, 999, 7000, 140000, 1234567}
	start, end := hourlyWindow(t, "2025-06-01T10:12:00Z", "2025-06-01T16:00:00Z")

	m := Default()
	for _, total := range totals {
		dist := m.Distribute(start, end, total)
		if got := sumDist(dist); got != total {
			t.Errorf("sum of shares = %d, want %d", got, total)
		}
	}
}

func TestDistribute_AlignedWindowShape(t *testing.T) {
	// Aligned 5-hour window: one full hour per weight, no partial scaling.
	start, end := hourlyWindow(t, "2025-06-01T10:00:00Z", "2025-06-01T15:00:00Z")
	dist := Default().Distribute(start, end, 10000)

	if len(dist) != 5 {
		t.Fatalf("got %d hours, want 5", len(dist))
	}

	// Weights 1.2, 1.5, 1.3, 1.0, 0.7 mean the second hour gets the most.
	second := start.Add(time.Hour)
	for hour, tokens := range dist {
		if hour.Equal(second) {
			continue
		}
		if tokens >= dist[second] {
			t.Errorf("hour %v has %d tokens, second hour only %d", hour, tokens, dist[second])
		}
	}
}

func TestDistribute_PartialFirstHourScaled(t *testing.T) {
	// Window starts at :48, so the first clock hour covers only 12 minutes
	// and its weighted share shrinks accordingly.
	start, end := hourlyWindow(t, "2025-06-01T10:48:00Z", "2025-06-01T16:00:00Z")
	dist := Default().Distribute(start, end, 10000)

	firstHour := start.Truncate(time.Hour)
	secondHour := firstHour.Add(time.Hour)
	if dist[firstHour] >= dist[secondHour] {
		t.Errorf("partial first hour got %d tokens, full second hour %d", dist[firstHour], dist[secondHour])
	}
	if got := sumDist(dist); got != 10000 {
		t.Errorf("sum = %d, want 10000", got)
	}
}

func TestDistribute_ZeroAndDegenerate(t *testing.T) {
	start, end := hourlyWindow(t, "2025-06-01T10:00:00Z", "2025-06-01T15:00:00Z")
	m := Default()

	if dist := m.Distribute(start, end, 0); len(dist) != 0 {
		t.Errorf("zero total produced %d shares", len(dist))
	}
	if dist := m.Distribute(end, start, 100); len(dist) != 0 {
		t.Errorf("inverted window produced %d shares", len(dist))
	}
}

func TestDistribute_LateHoursUseFlatWeight(t *testing.T) {
	// A window rounded far forward has hours past the weight table.
	start, end := hourlyWindow(t, "2025-06-01T10:00:00Z", "2025-06-01T18:00:00Z")
	dist := Default().Distribute(start, end, 100000)

	if len(dist) != 8 {
		t.Fatalf("got %d hours, want 8", len(dist))
	}
	h6 := start.Add(6 * time.Hour)
	h7 := start.Add(7 * time.Hour)
	if dist[h6] != dist[h7] {
		t.Errorf("late hours differ: %d vs %d, want equal flat weight", dist[h6], dist[h7])
	}
}

func TestPartialTotal_Monotonic(t *testing.T) {
	start, end := hourlyWindow(t, "2025-06-01T10:00:00Z", "2025-06-01T15:00:00Z")
	dist := Default().Distribute(start, end, 10000)
	m := Default()

	prev := int64(-1)
	for asOf := start; !asOf.After(end); asOf = asOf.Add(10 * time.Minute) {
		got := m.PartialTotal(asOf, start, dist)
		if got < prev {
			t.Fatalf("PartialTotal decreased at %v: %d < %d", asOf, got, prev)
		}
		prev = got
	}
}

func TestPartialTotal_Bounds(t *testing.T) {
	start, end := hourlyWindow(t, "2025-06-01T10:00:00Z", "2025-06-01T15:00:00Z")
	dist := Default().Distribute(start, end, 10000)
	m := Default()

	if got := m.PartialTotal(start.Add(-time.Minute), start, dist); got != 0 {
		t.Errorf("before window = %d, want 0", got)
	}
	if got := m.PartialTotal(start, start, dist); got != 0 {
		t.Errorf("at window start = %d, want 0", got)
	}
	if got := m.PartialTotal(end, start, dist); got != 10000 {
		t.Errorf("at window end = %d, want the full total", got)
	}
}

func TestPartialTotal_MidHourProration(t *testing.T) {
	start, end := hourlyWindow(t, "2025-06-01T10:00:00Z", "2025-06-01T15:00:00Z")
	dist := Default().Distribute(start, end, 10000)
	m := Default()

	atHour := m.PartialTotal(start.Add(time.Hour), start, dist)
	atHalf := m.PartialTotal(start.Add(90*time.Minute), start, dist)
	atTwo := m.PartialTotal(start.Add(2*time.Hour), start, dist)

	if atHalf <= atHour || atHalf >= atTwo {
		t.Errorf("mid-hour total %d not between hour boundaries %d and %d", atHalf, atHour, atTwo)
	}
}

func TestNew_Overrides(t *testing.T) {
	m := New([]float64{2, 1}, 0.5)
	start, end := hourlyWindow(t, "2025-06-01T10:00:00Z", "2025-06-01T12:00:00Z")
	dist := m.Distribute(start, end, 300)

	if dist[start] != 200 {
		t.Errorf("first hour = %d, want 200 with 2:1 weights", dist[start])
	}
	if dist[start.Add(time.Hour)] != 100 {
		t.Errorf("second hour = %d, want 100", dist[start.Add(time.Hour)])
	}
}

func TestFromConfig_Defaults(t *testing.T) {
	m := FromConfig(nil, nil)
	start, end := hourlyWindow(t, "2025-06-01T10:00:00Z", "2025-06-01T15:00:00Z")

	want := Default().Distribute(start, end, 5000)
	got := m.Distribute(start, end, 5000)
	for hour, tokens := range want {
		if got[hour] != tokens {
			t.Errorf("hour %v = %d, want %d", hour, got[hour], tokens)
		}
	}
}

func TestWindowTotal(t *testing.T) {
	start, end := hourlyWindow(t, "2025-06-01T10:00:00Z", "2025-06-01T15:00:00Z")
	w := model.ResolvedWindow{Start: start, End: end}

	before := start.Add(-time.Hour)
	inside := start.Add(time.Hour)
	records := []model.UsageRecord{
		{Start: before, TotalTokens: 999},
		{Start: inside, TotalTokens: 400},
		{Start: inside, TotalTokens: 100, IsGap: true},
		{Start: end, TotalTokens: 50},
		{Start: start, TotalTokens: 250},
	}

	if got := WindowTotal(w, records); got != 650 {
		t.Errorf("WindowTotal = %d, want 650", got)
	}

	if got := WindowTotal(model.ResolvedWindow{AwaitingNewWindow: true}, records); got != 0 {
		t.Errorf("awaiting window total = %d, want 0", got)
	}
}
