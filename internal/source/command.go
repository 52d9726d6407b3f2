package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"tokenwatch/internal/model"
)

const (
	commandName  = "ccusage"
	fetchTimeout = 15 * time.Second
	maxOutput    = 8 << 20 // 8 MB
)

// ErrNotInstalled indicates the ccusage command is not on PATH.
var ErrNotInstalled = errors.New("source: ccusage command not found")

// CommandSource fetches usage data by running the ccusage CLI.
type CommandSource struct {
	command string
	timeout time.Duration
}

// NewCommandSource returns a source using the default ccusage binary and a
// bounded per-fetch timeout.
func NewCommandSource() *CommandSource {
	return &CommandSource{command: commandName, timeout: fetchTimeout}
}

// Available reports whether the ccusage command can be found on PATH.
func Available() bool {
	_, err := exec.LookPath(commandName)
	return err == nil
}

// InstallHint returns setup guidance for when ccusage is missing.
func InstallHint() string {
	return "Install Node.js, then: npm install -g ccusage"
}

// Fetch runs `ccusage blocks --json` and parses the output into records.
func (s *CommandSource) Fetch(ctx context.Context) ([]model.UsageRecord, error) {
	out, err := s.run(ctx, "blocks", "--json")
	if err != nil {
		return nil, err
	}
	return ParseBlocks(out)
}

// FetchSessionTotal runs `ccusage session --json` and returns the cumulative
// token total across all sessions, used to seed a window's token baseline.
func (s *CommandSource) FetchSessionTotal(ctx context.Context) (int64, error) {
	out, err := s.run(ctx, "session", "--json")
	if err != nil {
		return 0, err
	}

	var payload sessionPayload
	if err := json.Unmarshal(out, &payload); err != nil {
		return 0, fmt.Errorf("source: parsing session payload: %w", err)
	}
	return parseTokenCount(payload.Totals.TotalTokens), nil
}

func (s *CommandSource) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.command, args...) //nolint:gosec // fixed command name
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(err, exec.ErrNotFound):
			return nil, ErrNotInstalled
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, fmt.Errorf("source: %s timed out after %s", s.command, s.timeout)
		case errors.As(err, &exitErr):
			return nil, fmt.Errorf("source: %s exited with %d: %s",
				s.command, exitErr.ExitCode(), firstLine(exitErr.Stderr))
		default:
			return nil, fmt.Errorf("source: running %s: %w", s.command, err)
		}
	}

	if len(out) > maxOutput {
		return nil, fmt.Errorf("source: %s output exceeds %d bytes", s.command, maxOutput)
	}
	return out, nil
}

func firstLine(b []byte) string {
	for i, c := range b {
		if c == '\n' {
			return string(b[:i])
		}
	}
	return string(b)
}
