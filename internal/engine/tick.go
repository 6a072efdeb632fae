// Package engine provides the tick-based simulation loop and the jobs
// scheduled on it.
package engine

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// TickSchedule defines when each layer runs relative to the tick counter.
const (
	TicksPerSimHour = 60   // 60 ticks = 1 sim-hour
	TicksPerSimDay  = 1440 // 24 hours × 60
)

// Engine drives the simulation forward one sim-minute per tick.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base tick interval (default 1 second)

	// Callbacks for each tick layer, populated during setup.
	OnTick func(tick uint64) // Every tick (sim-minute)
	OnHour func(tick uint64) // Every 60 ticks
	OnDay  func(tick uint64) // Every 1440 ticks

	jobs    []job
	running atomic.Bool
}

// job is a callback on a custom cadence, in ticks.
type job struct {
	every uint64
	fn    func(tick uint64)
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Speed:    1.0,
		Interval: time.Second,
	}
}

// Every registers fn to run every n ticks, after the fixed layers.
// Jobs run in registration order.
func (e *Engine) Every(n uint64, fn func(tick uint64)) {
	if n == 0 || fn == nil {
		return
	}
	e.jobs = append(e.jobs, job{every: n, fn: fn})
}

// Run starts the simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed)

	for e.running.Load() {
		if e.Speed <= 0 {
			// Paused; sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the simulation loop after the current tick.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Advance runs n ticks back to back without sleeping.
func (e *Engine) Advance(n uint64) {
	for i := uint64(0); i < n; i++ {
		e.step()
	}
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	if e.Tick%TicksPerSimHour == 0 && e.OnHour != nil {
		e.OnHour(e.Tick)
	}
	if e.Tick%TicksPerSimDay == 0 && e.OnDay != nil {
		e.OnDay(e.Tick)
	}

	for _, j := range e.jobs {
		if e.Tick%j.every == 0 {
			j.fn(e.Tick)
		}
	}
}

// SimTime returns a human-readable simulation time string from a tick number.
func SimTime(tick uint64) string {
	minutes := tick % 60
	hours := (tick / 60) % 24
	days := tick/TicksPerSimDay + 1

	return fmt.Sprintf("Day %d, %d:%02d", days, hours, minutes)
}
