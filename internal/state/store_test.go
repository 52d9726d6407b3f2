package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tokenwatch/internal/model"
)

func tempStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session_state.json")
	return NewFileStore(path), path
}

func TestRoundtrip(t *testing.T) {
	store, _ := tempStore(t)

	start := time.Date(2025, 6, 1, 10, 12, 0, 0, time.UTC)
	tokens := int64(12345)
	st := model.SessionState{
		WindowStart:       start,
		WindowStartTokens: &tokens,
		LastUpdated:       start.Add(30 * time.Minute),
		HourlyDistribution: map[time.Time]int64{
			start.Truncate(time.Hour): 400,
			start.Truncate(time.Hour).Add(time.Hour): 700,
		},
	}

	if err := store.Save(st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil after Save")
	}
	if !got.WindowStart.Equal(start) {
		t.Errorf("WindowStart = %v, want %v", got.WindowStart, start)
	}
	if got.WindowStartTokens == nil || *got.WindowStartTokens != 12345 {
		t.Errorf("WindowStartTokens = %v, want 12345", got.WindowStartTokens)
	}
	if len(got.HourlyDistribution) != 2 {
		t.Errorf("distribution has %d entries, want 2", len(got.HourlyDistribution))
	}
	if got.HourlyDistribution[start.Truncate(time.Hour)] != 400 {
		t.Errorf("first hour = %d, want 400", got.HourlyDistribution[start.Truncate(time.Hour)])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	store, _ := tempStore(t)
	st, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st != nil {
		t.Errorf("Load of missing file = %+v, want nil", st)
	}
}

func TestLoad_CorruptContent(t *testing.T) {
	cases := map[string]string{
		"truncated json":  `{"version": 1, "window_st`,
		"not json":        "window_start=yesterday",
		"wrong version":   `{"version": 99, "window_start": "2025-06-01T10:00:00Z", "last_updated": "2025-06-01T10:00:00Z"}`,
		"bad timestamp":   `{"version": 1, "window_start": "not-a-time", "last_updated": "2025-06-01T10:00:00Z"}`,
		"empty file":      "",
		"wrong json type": `[1, 2, 3]`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			store, path := tempStore(t)
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			st, err := store.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if st != nil {
				t.Errorf("Load = %+v, want nil for corrupt content", st)
			}
		})
	}
}

func TestSave_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "state.json")
	store := NewFileStore(path)

	st := model.SessionState{WindowStart: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	if err := store.Save(st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file not created: %v", err)
	}
}

func TestSave_OverwritesAtomically(t *testing.T) {
	store, path := tempStore(t)

	first := model.SessionState{WindowStart: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	second := model.SessionState{WindowStart: time.Date(2025, 6, 1, 13, 30, 0, 0, time.UTC)}

	if err := store.Save(first); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || !got.WindowStart.Equal(second.WindowStart) {
		t.Errorf("WindowStart = %v, want %v", got, second.WindowStart)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("state dir has %d entries, want just the state file", len(entries))
	}
}

func TestLoad_SkipsBadDistributionKeys(t *testing.T) {
	store, path := tempStore(t)
	content := `{
		"version": 1,
		"window_start": "2025-06-01T10:00:00Z",
		"last_updated": "2025-06-01T10:30:00Z",
		"hourly_distribution": {"2025-06-01T10:00:00Z": 400, "garbage": 123}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	st, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if st == nil {
		t.Fatal("want state despite one bad key")
	}
	if len(st.HourlyDistribution) != 1 {
		t.Errorf("distribution has %d entries, want 1", len(st.HourlyDistribution))
	}
}
