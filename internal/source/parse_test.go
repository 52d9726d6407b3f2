package source

import (
	"testing"
	"time"
)

func TestParseBlocks_Basic(t *testing.T) {
	data := []byte(`{"blocks": [
		{"startTime": "2025-06-01T10:00:00Z", "actualEndTime": "2025-06-01T11:30:00Z", "totalTokens": 1500, "isActive": false, "isGap": false},
		{"startTime": "2025-06-01T12:00:00Z", "totalTokens": 200, "isActive": true, "isGap": false}
	]}`)

	records, err := ParseBlocks(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if !first.Start.Equal(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v", first.Start)
	}
	if first.End == nil || !first.End.Equal(time.Date(2025, 6, 1, 11, 30, 0, 0, time.UTC)) {
		t.Errorf("End = %v, want 11:30", first.End)
	}
	if first.TotalTokens != 1500 {
		t.Errorf("TotalTokens = %d, want 1500", first.TotalTokens)
	}

	second := records[1]
	if !second.IsActive {
		t.Error("second record should be active")
	}
	if second.End != nil {
		t.Errorf("active record End = %v, want nil", second.End)
	}
}

func TestParseBlocks_SkipsBadStartTime(t *testing.T) {
	data := []byte(`{"blocks": [
		{"startTime": "yesterday-ish", "totalTokens": 100},
		{"startTime": "", "totalTokens": 200},
		{"startTime": "2025-06-01T10:00:00Z", "totalTokens": 300}
	]}`)

	records, err := ParseBlocks(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (bad starts skipped)", len(records))
	}
	if records[0].TotalTokens != 300 {
		t.Errorf("TotalTokens = %d, want 300", records[0].TotalTokens)
	}
}

func TestParseBlocks_TimestampWithoutZone(t *testing.T) {
	data := []byte(`{"blocks": [{"startTime": "2025-06-01T10:00:00", "totalTokens": 50}]}`)

	records, err := ParseBlocks(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if !records[0].Start.Equal(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v, want 10:00 UTC", records[0].Start)
	}
}

func TestParseBlocks_TokenVariants(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int64
	}{
		{"integer", `1500`, 1500},
		{"float", `1500.9`, 1500},
		{"quoted string", `"1500"`, 1500},
		{"quoted with spaces", `" 42 "`, 42},
		{"negative clamped", `-10`, 0},
		{"garbage string", `"lots"`, 0},
		{"object", `{"x": 1}`, 0},
		{"null", `null`, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := []byte(`{"blocks": [{"startTime": "2025-06-01T10:00:00Z", "totalTokens": ` + tc.raw + `}]}`)
			records, err := ParseBlocks(data)
			if err != nil {
				t.Fatal(err)
			}
			if len(records) != 1 {
				t.Fatalf("got %d records, want 1", len(records))
			}
			if records[0].TotalTokens != tc.want {
				t.Errorf("TotalTokens = %d, want %d", records[0].TotalTokens, tc.want)
			}
		})
	}
}

func TestParseBlocks_MissingOptionalFields(t *testing.T) {
	data := []byte(`{"blocks": [{"startTime": "2025-06-01T10:00:00Z"}]}`)

	records, err := ParseBlocks(data)
	if err != nil {
		t.Fatal(err)
	}
	r := records[0]
	if r.TotalTokens != 0 || r.End != nil || r.IsActive || r.IsGap {
		t.Errorf("record with only a start = %+v, want zero-valued optionals", r)
	}
}

func TestParseBlocks_BadEnvelope(t *testing.T) {
	if _, err := ParseBlocks([]byte(`not json at all`)); err == nil {
		t.Error("expected an error for an undecodable envelope")
	}
}

func TestParseBlocks_EmptyBlocks(t *testing.T) {
	records, err := ParseBlocks([]byte(`{"blocks": []}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestParseBlocks_GapFlag(t *testing.T) {
	data := []byte(`{"blocks": [{"startTime": "2025-06-01T10:00:00Z", "isGap": true}]}`)

	records, err := ParseBlocks(data)
	if err != nil {
		t.Fatal(err)
	}
	if !records[0].IsGap {
		t.Error("gap flag not carried through")
	}
}
