package cmd

import (
	"fmt"
	"time"

	"tokenwatch/internal/cli"
	"tokenwatch/internal/history"

	"github.com/spf13/cobra"
)

var flagHistoryCount int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently observed windows and usage samples",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryCount, "count", "c", 10, "Number of windows to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	loc := cfg.Location()

	path := cfg.General.HistoryDB
	if path == "" {
		path = history.DefaultPath()
	}

	store, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	windows, err := store.ListWindows(flagHistoryCount)
	if err != nil {
		return fmt.Errorf("reading windows: %w", err)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("WINDOW HISTORY"))
	fmt.Println()

	if len(windows) == 0 {
		fmt.Println(cli.Muted("  No windows recorded yet. Run `tokenwatch monitor` to start tracking."))
		fmt.Println()
		return nil
	}

	rows := make([][]string, 0, len(windows))
	for _, w := range windows {
		rows = append(rows, []string{
			w.Start.In(loc).Format("Jan 2 15:04"),
			cli.FormatClock(w.End, loc),
			w.FirstSeenAt.In(loc).Format("Jan 2 15:04"),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Windows",
		Headers: []string{"Started", "Reset", "First Seen"},
		Rows:    rows,
	}))

	// Burn rate over the trailing day, as a sparkline.
	samples, err := store.ListSamples(time.Now().Add(-24 * time.Hour))
	if err == nil && len(samples) > 1 {
		values := make([]float64, len(samples))
		for i, s := range samples {
			values[i] = s.BurnRate
		}
		fmt.Printf("  %s %s\n", cli.Muted("Burn rate (24h)"), cli.RenderSparkline(values))
	}

	fmt.Println()
	return nil
}
