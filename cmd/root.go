package cmd

import (
	"fmt"
	"os"
	"time"

	"tokenwatch/internal/config"
	"tokenwatch/internal/distribution"
	"tokenwatch/internal/history"
	"tokenwatch/internal/monitor"
	"tokenwatch/internal/source"
	"tokenwatch/internal/state"
	"tokenwatch/internal/window"

	"github.com/spf13/cobra"
)

var (
	flagPlan      string
	flagLimit     int64
	flagTimezone  string
	flagStateFile string
	flagInterval  time.Duration
	flagDebug     bool
	flagNoHistory bool
)

var rootCmd = &cobra.Command{
	Use:   "tokenwatch",
	Short: "Claude token quota monitor",
	Long:  "Track token usage against the rolling 5-hour quota window: current window, burn rate, and projected depletion.",
	RunE:  runStatus,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagPlan, "plan", "p", "", "Quota plan: pro, max5, max20, custom_max")
	rootCmd.PersistentFlags().Int64Var(&flagLimit, "limit", 0, "Explicit token limit (overrides --plan)")
	rootCmd.PersistentFlags().StringVarP(&flagTimezone, "timezone", "z", "", "Timezone for displayed times")
	rootCmd.PersistentFlags().StringVar(&flagStateFile, "state-file", "", "Session state file path")
	rootCmd.PersistentFlags().DurationVarP(&flagInterval, "interval", "i", 0, "Polling interval for the live monitor")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log state corrections and intermediate reasoning")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Skip recording to the history database")
}

// loadConfig merges the config file with command-line overrides.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  Config unreadable (%v), using defaults\n", err)
	}

	if flagPlan != "" {
		cfg.Plan.Name = flagPlan
	}
	if flagLimit > 0 {
		cfg.Plan.CustomLimit = &flagLimit
	}
	if flagTimezone != "" {
		cfg.Display.Timezone = flagTimezone
	}
	if flagStateFile != "" {
		cfg.General.StateFile = flagStateFile
	}
	if flagInterval > 0 {
		cfg.General.PollIntervalSec = int(flagInterval.Seconds())
	}
	if flagDebug {
		cfg.General.Debug = true
	}
	if !config.KnownPlan(cfg.Plan.Name) {
		fmt.Fprintf(os.Stderr, "  Unknown plan %q, using pro\n", cfg.Plan.Name)
		cfg.Plan.Name = config.PlanPro
	}
	return cfg
}

// buildEngine wires the source, state store, resolver, distribution model,
// and history store from config. The returned closer is nil-safe.
func buildEngine(cfg config.Config) (*monitor.Engine, func(), error) {
	if !source.Available() {
		return nil, nil, fmt.Errorf("ccusage not found on PATH\n  %s", source.InstallHint())
	}

	statePath := cfg.General.StateFile
	if statePath == "" {
		statePath = state.DefaultPath()
	}
	resolver := window.NewResolver(state.NewFileStore(statePath))

	dist := distribution.FromConfig(cfg.Distribution.HourWeights, cfg.Distribution.LateHourWeight)

	var hist *history.Store
	closer := func() {}
	if !flagNoHistory {
		path := cfg.General.HistoryDB
		if path == "" {
			path = history.DefaultPath()
		}
		h, err := history.Open(path)
		if err != nil {
			// History is best-effort; the monitor works without it.
			fmt.Fprintf(os.Stderr, "  History unavailable: %v\n", err)
		} else {
			hist = h
			closer = func() { _ = h.Close() }
		}
	}

	engineCfg := monitor.Config{
		Plan:     cfg.Plan.Name,
		Interval: time.Duration(cfg.General.PollIntervalSec) * time.Second,
		Debug:    cfg.General.Debug,
	}
	if cfg.Plan.CustomLimit != nil && *cfg.Plan.CustomLimit > 0 {
		engineCfg.TokenLimit = *cfg.Plan.CustomLimit
	}

	src := source.NewCommandSource()
	engine := monitor.New(engineCfg, src, src, resolver, dist, hist)
	return engine, closer, nil
}
