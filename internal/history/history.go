// Package history provides a SQLite-backed log of observed windows and
// per-tick usage samples.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Store records window rollovers and usage samples.
type Store struct {
	db *sql.DB
}

// WindowRow is one observed window.
type WindowRow struct {
	Start       time.Time
	End         time.Time
	FirstSeenAt time.Time
	PrevStart   *time.Time
}

// Sample is one per-tick usage measurement.
type Sample struct {
	At          time.Time
	WindowStart *time.Time
	TokensUsed  int64
	TokenLimit  int64
	BurnRate    float64
}

// DefaultPath returns the platform-appropriate history database location.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "tokenwatch", "history.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "tokenwatch", "history.db")
}

// Open opens or creates the history database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the history database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordWindow upserts an observed window, keyed by its start time.
func (s *Store) RecordWindow(start, end, firstSeen time.Time, prevStart *time.Time) error {
	var prev any
	if prevStart != nil {
		prev = prevStart.UTC().Format(time.RFC3339)
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO windows
		(window_start, window_end, first_seen_at, prev_start)
		VALUES (?, ?, ?, ?)`,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
		firstSeen.UTC().Format(time.RFC3339),
		prev,
	)
	return err
}

// RecordSample stores one usage sample.
func (s *Store) RecordSample(sm Sample) error {
	var ws any
	if sm.WindowStart != nil {
		ws = sm.WindowStart.UTC().Format(time.RFC3339)
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO samples
		(sampled_at, window_start, tokens_used, token_limit, burn_rate)
		VALUES (?, ?, ?, ?, ?)`,
		sm.At.UTC().Format(time.RFC3339),
		ws, sm.TokensUsed, sm.TokenLimit, sm.BurnRate,
	)
	return err
}

// ListWindows returns the most recent windows, newest first.
func (s *Store) ListWindows(limit int) ([]WindowRow, error) {
	rows, err := s.db.Query(`SELECT window_start, window_end, first_seen_at, prev_start
		FROM windows ORDER BY window_start DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []WindowRow
	for rows.Next() {
		var startStr, endStr, seenStr string
		var prevStr sql.NullString
		if err := rows.Scan(&startStr, &endStr, &seenStr, &prevStr); err != nil {
			return nil, err
		}

		var wr WindowRow
		wr.Start, _ = time.Parse(time.RFC3339, startStr)
		wr.End, _ = time.Parse(time.RFC3339, endStr)
		wr.FirstSeenAt, _ = time.Parse(time.RFC3339, seenStr)
		if prevStr.Valid && prevStr.String != "" {
			if t, err := time.Parse(time.RFC3339, prevStr.String); err == nil {
				wr.PrevStart = &t
			}
		}
		result = append(result, wr)
	}
	return result, rows.Err()
}

// ListSamples returns samples at or after since, oldest first.
func (s *Store) ListSamples(since time.Time) ([]Sample, error) {
	rows, err := s.db.Query(`SELECT sampled_at, window_start, tokens_used, token_limit, burn_rate
		FROM samples WHERE sampled_at >= ? ORDER BY sampled_at ASC`,
		since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []Sample
	for rows.Next() {
		var atStr string
		var wsStr sql.NullString
		var sm Sample
		if err := rows.Scan(&atStr, &wsStr, &sm.TokensUsed, &sm.TokenLimit, &sm.BurnRate); err != nil {
			return nil, err
		}
		sm.At, _ = time.Parse(time.RFC3339, atStr)
		if wsStr.Valid && wsStr.String != "" {
			if t, err := time.Parse(time.RFC3339, wsStr.String); err == nil {
				sm.WindowStart = &t
			}
		}
		result = append(result, sm)
	}
	return result, rows.Err()
}

// WindowCount returns the number of recorded windows.
func (s *Store) WindowCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM windows").Scan(&count)
	return count, err
}
