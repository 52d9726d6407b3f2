// Package monitor runs the fetch-resolve-compute polling cycle.
package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"tokenwatch/internal/burnrate"
	"tokenwatch/internal/config"
	"tokenwatch/internal/distribution"
	"tokenwatch/internal/history"
	"tokenwatch/internal/model"
	"tokenwatch/internal/window"
)

// Source supplies fresh usage records for each tick.
type Source interface {
	Fetch(ctx context.Context) ([]model.UsageRecord, error)
}

// BaselineSource optionally supplies the cumulative token total used to seed
// a new window's baseline.
type BaselineSource interface {
	FetchSessionTotal(ctx context.Context) (int64, error)
}

// Config controls the engine runtime behavior.
type Config struct {
	Plan       string
	TokenLimit int64 // 0 means derive from Plan and records
	Interval   time.Duration
	Debug      bool
}

// Snapshot is the complete result of one tick, ready for presentation.
type Snapshot struct {
	At     time.Time
	Window model.ResolvedWindow

	// TokensUsed is the presentation figure: the active record's total when
	// one exists, otherwise the distribution model's as-of-now estimate.
	TokensUsed     int64
	SmoothedTokens int64
	WindowTokens   int64
	TokenLimit     int64
	TokensLeft     int64
	UsagePct       float64

	BurnRatePerMin     float64
	PredictedDepletion time.Time // zero when no depletion is projectable

	HasActiveRecord bool
	// Corrections lists state repairs applied during this tick (debug mode).
	Corrections []string
}

// Engine ties the source, resolver, estimators, and history together.
// One tick at a time; ticks never overlap.
type Engine struct {
	cfg      Config
	source   Source
	baseline BaselineSource
	resolver *window.Resolver
	dist     distribution.Model
	hist     *history.Store

	mu              sync.Mutex
	lastWindowStart time.Time
	corrections     []string
}

// New creates an engine. baseline and hist may be nil.
func New(cfg Config, src Source, baseline BaselineSource, resolver *window.Resolver, dist distribution.Model, hist *history.Store) *Engine {
	if cfg.Interval < time.Second {
		cfg.Interval = 3 * time.Second
	}
	e := &Engine{
		cfg:      cfg,
		source:   src,
		baseline: baseline,
		resolver: resolver,
		dist:     dist,
		hist:     hist,
	}
	resolver.Debugf = e.noteCorrection
	return e
}

func (e *Engine) noteCorrection(format string, args ...any) {
	e.mu.Lock()
	e.corrections = append(e.corrections, fmt.Sprintf(format, args...))
	e.mu.Unlock()
}

func (e *Engine) takeCorrections() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	notes := e.corrections
	e.corrections = nil
	return notes
}

// TickOnce performs one synchronous fetch-resolve-compute cycle.
// A fetch or resolve failure aborts the tick without touching prior state;
// the caller waits and retries.
func (e *Engine) TickOnce(ctx context.Context, now time.Time) (Snapshot, error) {
	records, err := e.source.Fetch(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetching usage data: %w", err)
	}

	resolved, err := e.resolver.Resolve(now, records)
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolving window: %w", err)
	}

	snap := Snapshot{
		At:              now,
		Window:          resolved,
		HasActiveRecord: model.HasActive(records),
		BurnRatePerMin:  burnrate.HourlyRate(now, records),
	}

	snap.TokenLimit = e.tokenLimit(records)

	if !resolved.AwaitingNewWindow {
		snap.WindowTokens = distribution.WindowTotal(resolved, records)
		dist := e.dist.Distribute(resolved.Start, resolved.End, snap.WindowTokens)
		snap.SmoothedTokens = e.dist.PartialTotal(now, resolved.Start, dist)

		if active, ok := activeWithin(resolved, records); ok {
			snap.TokensUsed = active.TotalTokens
		} else {
			snap.TokensUsed = snap.SmoothedTokens
		}

		e.calibrate(ctx, now, resolved, dist)
	}

	snap.TokensLeft = snap.TokenLimit - snap.TokensUsed
	if snap.TokensLeft < 0 {
		snap.TokensLeft = 0
	}
	if snap.TokenLimit > 0 {
		snap.UsagePct = float64(snap.TokensUsed) / float64(snap.TokenLimit)
	}

	snap.PredictedDepletion = burnrate.DepletionTime(now, snap.TokensLeft, snap.BurnRatePerMin)
	if snap.PredictedDepletion.IsZero() && !resolved.AwaitingNewWindow {
		snap.PredictedDepletion = resolved.End
	}

	e.record(now, snap)
	snap.Corrections = e.takeCorrections()
	if e.cfg.Debug {
		for _, note := range snap.Corrections {
			log.Printf("tokenwatch: %s", note)
		}
	}

	return snap, nil
}

// Run polls until ctx is canceled, invoking fn after every tick. Failed
// ticks degrade gracefully: fn receives the error, the loop waits out the
// interval and retries. Only cancellation ends the loop.
func (e *Engine) Run(ctx context.Context, fn func(Snapshot, error)) error {
	tick := func() {
		snap, err := e.TickOnce(ctx, time.Now().UTC())
		if err != nil && ctx.Err() != nil {
			return
		}
		if fn != nil {
			fn(snap, err)
		}
	}

	tick()

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tick()
		}
	}
}

// Interval returns the configured polling interval.
func (e *Engine) Interval() time.Duration {
	return e.cfg.Interval
}

func (e *Engine) tokenLimit(records []model.UsageRecord) int64 {
	if e.cfg.TokenLimit > 0 {
		return e.cfg.TokenLimit
	}
	return config.TokenLimit(e.cfg.Plan, records)
}

// calibrate persists auxiliary window data and, on rollover, a fresh token
// baseline. Calibration failures are corrections to report, never fatal.
func (e *Engine) calibrate(ctx context.Context, now time.Time, resolved model.ResolvedWindow, dist map[time.Time]int64) {
	var baseline *int64

	e.mu.Lock()
	windowChanged := !resolved.Start.Equal(e.lastWindowStart)
	e.lastWindowStart = resolved.Start
	e.mu.Unlock()

	if windowChanged && e.baseline != nil {
		if total, err := e.baseline.FetchSessionTotal(ctx); err == nil {
			baseline = &total
		} else {
			e.noteCorrection("baseline fetch failed: %v", err)
		}
	}

	if err := e.resolver.UpdateCalibration(now, baseline, dist); err != nil {
		e.noteCorrection("calibration save failed: %v", err)
	}

	if windowChanged && e.hist != nil {
		if err := e.hist.RecordWindow(resolved.Start, resolved.End, now, nil); err != nil {
			e.noteCorrection("history window write failed: %v", err)
		}
	}
}

func (e *Engine) record(now time.Time, snap Snapshot) {
	if e.hist == nil {
		return
	}
	sm := history.Sample{
		At:         now,
		TokensUsed: snap.TokensUsed,
		TokenLimit: snap.TokenLimit,
		BurnRate:   snap.BurnRatePerMin,
	}
	if !snap.Window.AwaitingNewWindow {
		ws := snap.Window.Start
		sm.WindowStart = &ws
	}
	if err := e.hist.RecordSample(sm); err != nil {
		e.noteCorrection("history sample write failed: %v", err)
	}
}

// activeWithin returns the active non-gap record inside the window, if any.
func activeWithin(w model.ResolvedWindow, records []model.UsageRecord) (model.UsageRecord, bool) {
	for _, r := range records {
		if r.IsGap || !r.IsActive {
			continue
		}
		if r.Start.Before(w.Start) || !r.Start.Before(w.End) {
			continue
		}
		return r, true
	}
	return model.UsageRecord{}, false
}
