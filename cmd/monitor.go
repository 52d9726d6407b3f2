package cmd

import (
	"fmt"

	"tokenwatch/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the live monitoring view",
	RunE:  runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	engine, closer, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer closer()

	// Force TrueColor profile so all styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(engine, cfg.Location(), cfg.General.Debug)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor error: %w", err)
	}
	return nil
}
