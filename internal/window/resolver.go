// Package window resolves the current 5-hour usage window from live records
// and persisted state, and detects expiry and rollover.
package window

import (
	"fmt"
	"time"

	"tokenwatch/internal/model"
)

// Store is the persistence surface the resolver drives. Load returns
// (nil, nil) when no usable state exists; Save must be atomic.
type Store interface {
	Load() (*model.SessionState, error)
	Save(model.SessionState) error
}

// Resolver decides the authoritative window boundaries for each poll.
//
// Resolution is idempotent: repeated calls with unchanged inputs return the
// same window and never rewrite the store. State writes happen only when a
// window is first established or has rolled over.
type Resolver struct {
	store Store

	// Debugf, when set, receives notes about corrections the resolver
	// applied (state reinitialized, rollover persisted). Never required
	// for correct operation.
	Debugf func(format string, args ...any)
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

func (r *Resolver) debugf(format string, args ...any) {
	if r.Debugf != nil {
		r.Debugf(format, args...)
	}
}

// Resolve determines the current window. The returned error comes only from
// failed state writes; load failures and corrupt state are treated as "no
// persisted state" and repaired in place.
func (r *Resolver) Resolve(now time.Time, records []model.UsageRecord) (model.ResolvedWindow, error) {
	st, err := r.store.Load()
	if err != nil {
		r.debugf("state load failed (%v), reinitializing from records", err)
		st = nil
	}

	if st == nil {
		return r.initialize(now, records)
	}

	windowStart := st.WindowStart
	for {
		end := model.WindowEnd(windowStart)
		if now.Before(end) {
			return model.ResolvedWindow{Start: windowStart, End: end}, nil
		}

		// Window expired: only a record starting after the expiry opens
		// a new one.
		next, ok := latestAfter(records, end)
		if !ok {
			return model.ResolvedWindow{AwaitingNewWindow: true}, nil
		}

		r.debugf("window expired at %s, rolling over to %s",
			end.Format(time.RFC3339), next.Start.Format(time.RFC3339))
		if err := r.persist(now, next.Start); err != nil {
			return model.ResolvedWindow{}, err
		}
		windowStart = next.Start
	}
}

// initialize establishes a window from the freshest record when no state
// exists. With no records at all there is nothing to anchor a window to.
func (r *Resolver) initialize(now time.Time, records []model.UsageRecord) (model.ResolvedWindow, error) {
	latest, ok := model.LatestRecord(records)
	if !ok {
		return model.ResolvedWindow{AwaitingNewWindow: true}, nil
	}

	r.debugf("no persisted window, starting from record at %s", latest.Start.Format(time.RFC3339))
	if err := r.persist(now, latest.Start); err != nil {
		return model.ResolvedWindow{}, err
	}

	end := model.WindowEnd(latest.Start)
	if !now.Before(end) {
		// The freshest record is itself stale. The state is persisted so
		// repeated polls agree, but there is no active window.
		return model.ResolvedWindow{AwaitingNewWindow: true}, nil
	}
	return model.ResolvedWindow{Start: latest.Start, End: end}, nil
}

// UpdateCalibration attaches auxiliary data to the current window without
// moving it: a token baseline (set once per window, fixed until rollover)
// and the latest hourly distribution. A missing state is left untouched.
func (r *Resolver) UpdateCalibration(now time.Time, baseline *int64, dist map[time.Time]int64) error {
	st, err := r.store.Load()
	if err != nil || st == nil {
		return nil
	}

	changed := false
	if baseline != nil && st.WindowStartTokens == nil {
		v := *baseline
		st.WindowStartTokens = &v
		changed = true
	}
	if dist != nil {
		st.HourlyDistribution = dist
		changed = true
	}
	if !changed {
		return nil
	}

	st.LastUpdated = now
	if err := r.store.Save(*st); err != nil {
		return fmt.Errorf("saving calibration: %w", err)
	}
	return nil
}

func (r *Resolver) persist(now, windowStart time.Time) error {
	st := model.SessionState{
		WindowStart: windowStart,
		LastUpdated: now,
	}
	if err := r.store.Save(st); err != nil {
		return fmt.Errorf("saving window state: %w", err)
	}
	return nil
}

// latestAfter returns the latest-starting non-gap record whose start is
// strictly after t.
func latestAfter(records []model.UsageRecord, t time.Time) (model.UsageRecord, bool) {
	var candidates []model.UsageRecord
	for _, rec := range records {
		if rec.IsGap || !rec.Start.After(t) {
			continue
		}
		candidates = append(candidates, rec)
	}
	return model.LatestRecord(candidates)
}
