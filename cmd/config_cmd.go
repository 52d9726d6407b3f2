package cmd

import (
	"fmt"

	"tokenwatch/internal/config"
	"tokenwatch/internal/history"
	"tokenwatch/internal/state"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Poll interval: %ds\n", cfg.General.PollIntervalSec)
	fmt.Printf("    Debug:         %v\n", cfg.General.Debug)
	statePath := cfg.General.StateFile
	if statePath == "" {
		statePath = state.DefaultPath()
	}
	fmt.Printf("    State file:    %s\n", statePath)
	historyPath := cfg.General.HistoryDB
	if historyPath == "" {
		historyPath = history.DefaultPath()
	}
	fmt.Printf("    History DB:    %s\n", historyPath)
	fmt.Println()

	fmt.Println("  [Plan]")
	fmt.Printf("    Plan: %s\n", cfg.Plan.Name)
	if cfg.Plan.CustomLimit != nil {
		fmt.Printf("    Limit override: %d tokens\n", *cfg.Plan.CustomLimit)
	}
	fmt.Println()

	fmt.Println("  [Display]")
	fmt.Printf("    Timezone: %s\n", cfg.Display.Timezone)
	fmt.Println()

	if len(cfg.Distribution.HourWeights) > 0 {
		fmt.Println("  [Distribution]")
		fmt.Printf("    Hour weights: %v\n", cfg.Distribution.HourWeights)
		if cfg.Distribution.LateHourWeight != nil {
			fmt.Printf("    Late weight:  %v\n", *cfg.Distribution.LateHourWeight)
		}
		fmt.Println()
	}

	fmt.Println("  Run `tokenwatch setup` to reconfigure.")
	return nil
}
