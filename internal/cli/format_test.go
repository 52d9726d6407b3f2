package cli

import (
	"testing"
	"time"
)

func TestFormatTokens(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1_234, "1.2K"},
		{7_000, "7.0K"},
		{1_234_567, "1.2M"},
		{1_234_567_890, "1.2B"},
		{-1_500, "-1.5K"},
	}
	for _, tc := range cases {
		if got := FormatTokens(tc.in); got != tc.want {
			t.Errorf("FormatTokens(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1_000, "1,000"},
		{1_234_567, "1,234,567"},
		{-1_234, "-1,234"},
	}
	for _, tc := range cases {
		if got := FormatNumber(tc.in); got != tc.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0m"},
		{-time.Minute, "0m"},
		{45 * time.Minute, "45m"},
		{3*time.Hour + 45*time.Minute, "3h 45m"},
		{5 * time.Hour, "5h 0m"},
	}
	for _, tc := range cases {
		if got := FormatCountdown(tc.in); got != tc.want {
			t.Errorf("FormatCountdown(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(time.Time{}, time.UTC); got != "--:--" {
		t.Errorf("zero time = %q, want --:--", got)
	}

	ts := time.Date(2025, 6, 1, 16, 5, 0, 0, time.UTC)
	if got := FormatClock(ts, time.UTC); got != "16:05" {
		t.Errorf("FormatClock = %q, want 16:05", got)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(0.2); got != "20.0%" {
		t.Errorf("FormatPercent(0.2) = %q", got)
	}
	if got := FormatPercent(1.25); got != "125.0%" {
		t.Errorf("FormatPercent(1.25) = %q", got)
	}
}
