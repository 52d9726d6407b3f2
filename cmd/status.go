package cmd

import (
	"context"
	"fmt"
	"time"

	"tokenwatch/internal/cli"
	"tokenwatch/internal/monitor"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current window, usage, and burn rate once",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	engine, closer, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer closer()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := engine.TickOnce(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	loc := cfg.Location()

	fmt.Println()
	fmt.Println(cli.RenderTitle("TOKENWATCH STATUS"))
	fmt.Println()

	if snap.Window.AwaitingNewWindow {
		fmt.Printf("  Window: %s\n\n", cli.Accent("none, ready for a new session"))
	} else {
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Current Window",
			Headers: []string{"", "Value"},
			Rows: [][]string{
				{"Started", cli.FormatClock(snap.Window.Start, loc)},
				{"Resets", cli.FormatClock(snap.Window.End, loc)},
				{"Remaining", cli.FormatCountdown(snap.Window.Remaining(snap.At))},
			},
		}))
	}

	usageRows := [][]string{
		{"Used", cli.FormatNumber(snap.TokensUsed)},
		{"Limit", cli.FormatNumber(snap.TokenLimit)},
		{"Left", cli.FormatNumber(snap.TokensLeft)},
		{"Usage", cli.FormatPercent(snap.UsagePct)},
		{"Burn rate", cli.FormatRate(snap.BurnRatePerMin)},
	}
	if !snap.PredictedDepletion.IsZero() {
		usageRows = append(usageRows, []string{"Projected empty", cli.FormatClock(snap.PredictedDepletion, loc)})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Usage",
		Headers: []string{"", "Value"},
		Rows:    usageRows,
	}))

	fmt.Printf("  %s %s\n", cli.Muted("Meter"), cli.RenderMeter(snap.UsagePct, 40))

	if depletesEarly(snap) {
		fmt.Println()
		fmt.Println(cli.WarnStyle.Render("  Tokens will run out before the window resets"))
	}

	if cfg.General.Debug && len(snap.Corrections) > 0 {
		fmt.Println()
		for _, note := range snap.Corrections {
			fmt.Printf("  %s\n", cli.Muted("~ "+note))
		}
	}

	fmt.Println()
	return nil
}

func depletesEarly(snap monitor.Snapshot) bool {
	return !snap.Window.AwaitingNewWindow &&
		!snap.PredictedDepletion.IsZero() &&
		snap.PredictedDepletion.Before(snap.Window.End)
}
