// Package sim drives the world at a fixed tick rate with frame-normalized
// time deltas.
package sim

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/moonlitstudios/backlot/internal/clock"
)

const instrumentationName = "github.com/moonlitstudios/backlot/internal/sim"

// NominalRate is the frame rate every per-frame constant is expressed in.
const NominalRate = 60.0

// Config tunes the loop.
type Config struct {
	TickRate int
	// MaxCatchupFrames caps dt after a stall, in nominal frames.
	MaxCatchupFrames float64
}

// TickContext describes the tick about to run.
type TickContext struct {
	Tick uint64
	Now  time.Time
	// DT is the elapsed time in nominal frames.
	DT      float64
	Clamped bool
}

// TickResult is reported after the step ran.
type TickResult struct {
	TickContext
	Duration time.Duration
}

// Hooks observe the loop. Either may be nil.
type Hooks struct {
	BeforeTick func(TickContext)
	AfterTick  func(TickResult)
}

// Loop runs a step function once per tick until its context ends.
type Loop struct {
	clock  clock.Source
	config Config
	hooks  Hooks

	newTicker func(time.Duration) (<-chan time.Time, func())

	ticks   metric.Int64Counter
	clamped metric.Int64Counter
}

// NewLoop validates cfg and registers the loop counters on the global meter.
func NewLoop(src clock.Source, cfg Config, hooks Hooks) (*Loop, error) {
	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("tick rate must be positive, got %d", cfg.TickRate)
	}
	if cfg.MaxCatchupFrames < 1 {
		cfg.MaxCatchupFrames = 1
	}
	if src == nil {
		src = clock.Wall{}
	}

	m := otel.Meter(instrumentationName)
	ticks, err := m.Int64Counter("backlot.sim.ticks",
		metric.WithDescription("Simulation ticks run"))
	if err != nil {
		return nil, fmt.Errorf("failed to create ticks counter: %w", err)
	}
	clamped, err := m.Int64Counter("backlot.sim.ticks_clamped",
		metric.WithDescription("Ticks whose delta hit the catch-up cap"))
	if err != nil {
		return nil, fmt.Errorf("failed to create clamped counter: %w", err)
	}

	return &Loop{
		clock:   src,
		config:  cfg,
		hooks:   hooks,
		ticks:   ticks,
		clamped: clamped,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}, nil
}

// Delta converts the wall time between two ticks into nominal frames,
// capped at MaxCatchupFrames. A non-positive gap counts as one tick.
func (l *Loop) Delta(last, now time.Time) (float64, bool) {
	seconds := now.Sub(last).Seconds()
	if seconds <= 0 {
		seconds = 1 / float64(l.config.TickRate)
	}
	dt := seconds * NominalRate
	if dt > l.config.MaxCatchupFrames {
		return l.config.MaxCatchupFrames, true
	}
	return dt, false
}

// Run calls step with the normalized dt of every tick. It returns once ctx
// is done; there is no work in flight between ticks.
func (l *Loop) Run(ctx context.Context, step func(dt float64)) {
	c, stop := l.newTicker(time.Second / time.Duration(l.config.TickRate))
	defer stop()

	last := l.clock.Now()
	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-c:
			now := l.clock.Now()
			dt, clamped := l.Delta(last, now)
			last = now
			tick++

			tc := TickContext{Tick: tick, Now: now, DT: dt, Clamped: clamped}
			if l.hooks.BeforeTick != nil {
				l.hooks.BeforeTick(tc)
			}

			start := time.Now()
			step(dt)
			res := TickResult{TickContext: tc, Duration: time.Since(start)}

			l.ticks.Add(ctx, 1)
			if clamped {
				l.clamped.Add(ctx, 1, metric.WithAttributes(attribute.Int("max_frames", int(l.config.MaxCatchupFrames))))
			}
			if l.hooks.AfterTick != nil {
				l.hooks.AfterTick(res)
			}
		}
	}
}
