package cmd

import (
	"fmt"
	"strings"
	"time"

	"tokenwatch/internal/config"
	"tokenwatch/internal/source"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, _ := config.Load()

	fmt.Println()
	fmt.Println("  Welcome to tokenwatch!")
	if !source.Available() {
		fmt.Println()
		fmt.Println("  Note: the ccusage command was not found on PATH.")
		fmt.Printf("  %s\n", source.InstallHint())
	}
	fmt.Println()

	plan := cfg.Plan.Name
	tz := cfg.Display.Timezone
	interval := fmt.Sprintf("%d", cfg.General.PollIntervalSec)
	debug := cfg.General.Debug

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Quota plan").
				Description("custom_max derives the limit from your largest past window").
				Options(
					huh.NewOption("Pro (7,000 tokens)", config.PlanPro),
					huh.NewOption("Max 5x (35,000 tokens)", config.PlanMax5),
					huh.NewOption("Max 20x (140,000 tokens)", config.PlanMax20),
					huh.NewOption("Auto-detect (custom_max)", config.PlanCustomMax),
				).
				Value(&plan),

			huh.NewInput().
				Title("Display timezone").
				Description("IANA name like Europe/Warsaw, or Local").
				Validate(validateTimezone).
				Value(&tz),

			huh.NewInput().
				Title("Poll interval (seconds)").
				Validate(validateInterval).
				Value(&interval),

			huh.NewConfirm().
				Title("Debug logging?").
				Description("Log state corrections as they are applied").
				Value(&debug),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup canceled: %w", err)
	}

	cfg.Plan.Name = plan
	cfg.Display.Timezone = strings.TrimSpace(tz)
	if secs := parseIntervalSecs(interval); secs > 0 {
		cfg.General.PollIntervalSec = secs
	}
	cfg.General.Debug = debug

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `tokenwatch setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func validateTimezone(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || s == "Local" {
		return nil
	}
	if _, err := time.LoadLocation(s); err != nil {
		return fmt.Errorf("unknown timezone %q", s)
	}
	return nil
}

func validateInterval(s string) error {
	if parseIntervalSecs(s) <= 0 {
		return fmt.Errorf("enter a positive number of seconds")
	}
	return nil
}

func parseIntervalSecs(s string) int {
	var secs int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &secs); err != nil {
		return 0
	}
	return secs
}
