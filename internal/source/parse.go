// Package source fetches usage records from the ccusage reporting command.
package source

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tokenwatch/internal/model"
)

// ParseBlocks converts a raw blocks payload into usage records. Blocks with
// an unparsable start time are skipped; other malformed optional fields are
// treated as absent. Only an undecodable envelope is an error.
func ParseBlocks(data []byte) ([]model.UsageRecord, error) {
	var payload blocksPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("source: parsing blocks payload: %w", err)
	}

	records := make([]model.UsageRecord, 0, len(payload.Blocks))
	for _, b := range payload.Blocks {
		start, ok := parseTimestamp(b.StartTime)
		if !ok {
			continue
		}

		rec := model.UsageRecord{
			Start:       start,
			TotalTokens: parseTokenCount(b.TotalTokens),
			IsActive:    b.IsActive,
			IsGap:       b.IsGap,
		}
		if end, ok := parseTimestamp(b.ActualEndTime); ok {
			rec.End = &end
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseTimestamp accepts ISO-8601 with or without a Z suffix.
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// parseTokenCount defensively parses a count that may arrive as a JSON
// number, a float, or a quoted string. Anything else, or a negative value,
// counts as zero.
func parseTokenCount(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return clampTokens(int64(f))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return clampTokens(v)
		}
	}

	return 0
}

func clampTokens(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
