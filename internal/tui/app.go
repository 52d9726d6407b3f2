// Package tui provides the live Bubble Tea monitor view.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tokenwatch/internal/cli"
	"tokenwatch/internal/monitor"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SnapshotMsg carries the result of one engine tick.
type SnapshotMsg struct {
	Snapshot monitor.Snapshot
	Err      error
}

type tickMsg time.Time

// App is the root Bubble Tea model for the live monitor.
type App struct {
	engine *monitor.Engine
	loc    *time.Location

	snap     monitor.Snapshot
	haveSnap bool
	lastErr  error

	width   int
	height  int
	spinner spinner.Model
	debug   bool
}

// NewApp creates the monitor view bound to an engine.
func NewApp(engine *monitor.Engine, loc *time.Location, debug bool) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cli.ColorAccent)

	return App{
		engine:  engine,
		loc:     loc,
		spinner: sp,
		debug:   debug,
	}
}

// Init kicks off the spinner and the first fetch.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.tickCmd())
}

func (a App) tickCmd() tea.Cmd {
	engine := a.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		snap, err := engine.TickOnce(ctx, time.Now().UTC())
		return SnapshotMsg{Snapshot: snap, Err: err}
	}
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case SnapshotMsg:
		if msg.Err != nil {
			// Degrade: keep the previous snapshot on screen, retry later.
			a.lastErr = msg.Err
		} else {
			a.snap = msg.Snapshot
			a.haveSnap = true
			a.lastErr = nil
		}
		return a, tea.Tick(a.engine.Interval(), func(t time.Time) tea.Msg {
			return tickMsg(t)
		})

	case tickMsg:
		return a, a.tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// View renders the monitor screen.
func (a App) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(cli.RenderTitle("TOKENWATCH"))
	b.WriteString("\n\n")

	if !a.haveSnap {
		if a.lastErr != nil {
			b.WriteString(cli.WarnStyle.Render(fmt.Sprintf("  Fetch failed: %v", a.lastErr)))
			b.WriteString("\n")
			b.WriteString(cli.Muted("  Retrying..."))
		} else {
			b.WriteString(fmt.Sprintf("  %s Fetching usage data...", a.spinner.View()))
		}
		b.WriteString("\n\n")
		b.WriteString(cli.Muted("  q to quit"))
		b.WriteString("\n")
		return b.String()
	}

	snap := a.snap
	now := snap.At

	b.WriteString(a.renderUsage(snap))
	b.WriteString("\n")
	b.WriteString(a.renderWindow(snap, now))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("  %s  %s / %s (%s left)\n",
		cli.Muted("Tokens"),
		cli.FormatNumber(snap.TokensUsed),
		cli.FormatNumber(snap.TokenLimit),
		cli.FormatNumber(snap.TokensLeft)))
	b.WriteString(fmt.Sprintf("  %s  %s\n",
		cli.Muted("Burn  "),
		cli.FormatRate(snap.BurnRatePerMin)))

	if !snap.PredictedDepletion.IsZero() {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			cli.Muted("Empty "),
			cli.FormatClock(snap.PredictedDepletion, a.loc)))
	}

	if !snap.Window.AwaitingNewWindow &&
		!snap.PredictedDepletion.IsZero() &&
		snap.PredictedDepletion.Before(snap.Window.End) {
		b.WriteString("\n")
		b.WriteString(cli.WarnStyle.Render("  Tokens will run out before the window resets"))
		b.WriteString("\n")
	}

	if a.debug && len(snap.Corrections) > 0 {
		b.WriteString("\n")
		for _, note := range snap.Corrections {
			b.WriteString(cli.Muted(fmt.Sprintf("  ~ %s", note)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	status := "Session active"
	if snap.Window.AwaitingNewWindow {
		status = "Waiting for new session"
	}
	if a.lastErr != nil {
		status = fmt.Sprintf("Fetch failed, retrying (%v)", a.lastErr)
	}
	b.WriteString(cli.Muted(fmt.Sprintf("  %s | %s | q to quit",
		cli.FormatClock(time.Now(), a.loc), status)))
	b.WriteString("\n")

	return b.String()
}

func (a App) renderUsage(snap monitor.Snapshot) string {
	bar := progress.New(
		progress.WithSolidFill(string(cli.MeterColor(snap.UsagePct))),
		progress.WithWidth(a.barWidth()),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(cli.ColorTextDim)

	pct := snap.UsagePct
	if pct > 1 {
		pct = 1
	}
	return fmt.Sprintf("  %s  %s %s\n",
		cli.Muted("Usage "),
		bar.ViewAs(pct),
		cli.FormatPercent(snap.UsagePct))
}

func (a App) renderWindow(snap monitor.Snapshot, now time.Time) string {
	if snap.Window.AwaitingNewWindow {
		return fmt.Sprintf("  %s  %s\n",
			cli.Muted("Reset "),
			cli.Accent("Ready for a new session window"))
	}

	total := snap.Window.End.Sub(snap.Window.Start)
	pct := 0.0
	if total > 0 {
		pct = float64(snap.Window.Elapsed(now)) / float64(total)
	}

	bar := progress.New(
		progress.WithSolidFill(string(cli.ColorBlue)),
		progress.WithWidth(a.barWidth()),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(cli.ColorTextDim)

	return fmt.Sprintf("  %s  %s %s\n  %s  %s -> %s\n",
		cli.Muted("Window"),
		bar.ViewAs(pct),
		cli.FormatCountdown(snap.Window.Remaining(now)),
		cli.Muted("      "),
		cli.FormatClock(snap.Window.Start, a.loc),
		cli.FormatClock(snap.Window.End, a.loc))
}

func (a App) barWidth() int {
	w := a.width - 30
	if w < 20 {
		w = 20
	}
	if w > 50 {
		w = 50
	}
	return w
}
