// Package state persists the current window start (and auxiliary calibration
// data) across process restarts.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tokenwatch/internal/model"
)

const stateVersion = 1

// stateFile is the on-disk JSON schema. Timestamps are RFC 3339 UTC and the
// hourly distribution is keyed by RFC 3339 hour starts.
type stateFile struct {
	Version            int              `json:"version"`
	WindowStart        string           `json:"window_start"`
	WindowStartTokens  *int64           `json:"window_start_tokens,omitempty"`
	LastUpdated        string           `json:"last_updated"`
	HourlyDistribution map[string]int64 `json:"hourly_distribution,omitempty"`
}

// FileStore reads and writes the session state file.
//
// Loads tolerate corruption: unreadable, unparsable, or schema-incompatible
// content loads as "no state" so the resolver reinitializes from live data.
// Saves go through a temp file and rename so a crash mid-write never
// clobbers the previous valid state. Access from multiple processes is not
// synchronized; the last writer wins.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the XDG-compliant default state file location.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "tokenwatch", "session_state.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "tokenwatch", "session_state.json")
}

// Load reads the persisted state. Missing or corrupt files return (nil, nil).
func (s *FileStore) Load() (*model.SessionState, error) {
	data, err := os.ReadFile(s.path) //nolint:gosec // state path is configured by the local user
	if err != nil {
		return nil, nil
	}

	var sf stateFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, nil
	}
	if sf.Version != stateVersion {
		return nil, nil
	}

	windowStart, err := time.Parse(time.RFC3339, sf.WindowStart)
	if err != nil {
		return nil, nil
	}

	st := &model.SessionState{
		WindowStart:       windowStart,
		WindowStartTokens: sf.WindowStartTokens,
	}
	if t, err := time.Parse(time.RFC3339, sf.LastUpdated); err == nil {
		st.LastUpdated = t
	}
	if len(sf.HourlyDistribution) > 0 {
		st.HourlyDistribution = make(map[time.Time]int64, len(sf.HourlyDistribution))
		for key, tokens := range sf.HourlyDistribution {
			hour, err := time.Parse(time.RFC3339, key)
			if err != nil {
				continue
			}
			st.HourlyDistribution[hour] = tokens
		}
	}

	return st, nil
}

// Save writes the state atomically: serialize to a temp file in the same
// directory, then rename over the target.
func (s *FileStore) Save(st model.SessionState) error {
	sf := stateFile{
		Version:           stateVersion,
		WindowStart:       st.WindowStart.UTC().Format(time.RFC3339),
		WindowStartTokens: st.WindowStartTokens,
		LastUpdated:       st.LastUpdated.UTC().Format(time.RFC3339),
	}
	if len(st.HourlyDistribution) > 0 {
		sf.HourlyDistribution = make(map[string]int64, len(st.HourlyDistribution))
		for hour, tokens := range st.HourlyDistribution {
			sf.HourlyDistribution[hour.UTC().Format(time.RFC3339)] = tokens
		}
	}

	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session_state-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
