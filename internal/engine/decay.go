package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/econsim/internal/economy"
)

// Decayer is the part of the simulator the decay scheduler drives.
type Decayer interface {
	ApplyDecay(intervalSeconds float64) error
}

// DecayScheduler applies ledger decay once per fixed interval of sim time.
// The interval is validated once, at construction, and never changes.
type DecayScheduler struct {
	sim      Decayer
	interval time.Duration

	// AfterDecay runs after each successful sweep (autosave hooks in here).
	AfterDecay func(tick uint64)

	runs uint64
}

// NewDecayScheduler validates the interval and returns a scheduler for it.
// The interval must be a positive whole number of sim-minutes, since the
// engine ticks once per sim-minute.
func NewDecayScheduler(sim Decayer, interval time.Duration) (*DecayScheduler, error) {
	if _, err := economy.IntervalsPerDay(interval.Seconds()); err != nil {
		return nil, err
	}
	if interval%time.Minute != 0 {
		return nil, fmt.Errorf("%w: %v is not a whole number of minutes", economy.ErrInvalidInterval, interval)
	}
	return &DecayScheduler{sim: sim, interval: interval}, nil
}

// Ticks is the scheduler's period in engine ticks.
func (d *DecayScheduler) Ticks() uint64 {
	return uint64(d.interval / time.Minute)
}

// Attach registers the scheduler on an engine.
func (d *DecayScheduler) Attach(e *Engine) {
	e.Every(d.Ticks(), d.Run)
}

// Run applies one interval of decay. Failures are logged and the
// AfterDecay hook is skipped; ledgers are untouched on failure.
func (d *DecayScheduler) Run(tick uint64) {
	if err := d.sim.ApplyDecay(d.interval.Seconds()); err != nil {
		slog.Error("decay failed", "tick", tick, "error", err)
		return
	}
	d.runs++

	// Once per sim-day is enough at info level.
	if tick%TicksPerSimDay < d.Ticks() {
		slog.Info("decay applied", "runs", d.runs, "sim_time", SimTime(tick))
	}

	if d.AfterDecay != nil {
		d.AfterDecay(tick)
	}
}

// Runs returns how many sweeps have succeeded.
func (d *DecayScheduler) Runs() uint64 {
	return d.runs
}
