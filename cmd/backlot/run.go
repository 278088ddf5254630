package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moonlitstudios/backlot/internal/choreo"
	"github.com/moonlitstudios/backlot/internal/clock"
	"github.com/moonlitstudios/backlot/internal/config"
	"github.com/moonlitstudios/backlot/internal/geo"
	"github.com/moonlitstudios/backlot/internal/player"
	"github.com/moonlitstudios/backlot/internal/preview"
	"github.com/moonlitstudios/backlot/internal/sim"
	"github.com/moonlitstudios/backlot/pkg/core"
	"github.com/moonlitstudios/backlot/pkg/streaming"
)

const (
	shutdownTimeout = 5 * time.Second
	// soak checks for cancellation this often, in ticks
	soakCheckEvery = 600
)

// run drives the world in real time and serves it to the local viewer
// until the car leaves through the rocket or ctx ends.
func (a *app) run(ctx context.Context) error {
	s, err := a.newSession(ctx, "run", clock.FromHour(a.sim.ClockHour))
	if err != nil {
		return err
	}

	pcfg := a.previewConfig()
	pv, err := preview.New(pcfg, a.Logger)
	if err == nil {
		err = pv.Start()
	}
	if err != nil {
		_, _ = s.end()
		return fmt.Errorf("failed to start preview: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop, err := sim.NewLoop(clock.Wall{}, sim.Config{
		TickRate:         a.sim.TickRate,
		MaxCatchupFrames: a.sim.MaxCatchupFrames,
	}, sim.Hooks{
		AfterTick: func(r sim.TickResult) {
			s.observe(r.Duration, r.DT, r.Clamped)
		},
	})
	if err != nil {
		_ = pv.Close(context.Background())
		_, _ = s.end()
		return err
	}

	loop.Run(ctx, func(dt float64) {
		s.step(dt, pv.Input())

		tick := s.world.TickCount()
		if pv.Due(tick) && pv.Clients() > 0 {
			cmds := s.world.Render()
			s.commands = len(cmds)
			if err := pv.Broadcast(tick, s.world.Darkness(), cmds); err != nil {
				a.Logger.Warn("Preview broadcast failed", "error", err)
			}
		}
		if s.finished() {
			a.Logger.Info("Car reached the rocket")
			cancel()
		}
	})

	shutdown, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	closeErr := pv.Close(shutdown)
	a.Logger.Info("Preview closed", "droppedFrames", pv.Dropped())

	_, err = s.end()
	if closeErr != nil && !errors.Is(closeErr, context.DeadlineExceeded) {
		a.Logger.Warn("Preview shutdown", "error", closeErr)
	}
	return err
}

func (a *app) previewConfig() preview.Config {
	pc := config.GetPreviewConfig()
	return preview.Config{
		Listen:    pc.Listen,
		FrameRate: pc.FrameRate,
		TickRate:  a.sim.TickRate,
		Viewport:  streaming.Size{Width: a.viewport.Width, Height: a.viewport.Height},
	}
}

// soakRoute visits every destination in layout order, the screening zone
// included, and ends at the rocket.
func (a *app) soakRoute() []geo.Vec2 {
	var route []geo.Vec2
	for _, z := range a.layout.Destinations {
		if z.ID == "rocket" {
			continue
		}
		route = append(route, z.Pos)
	}
	return append(route, a.layout.Rocket)
}

// roomPilot watches one reel in the screening room and backs out.
type roomPilot struct {
	watched bool
}

func (p *roomPilot) input(s *choreo.Screening) player.Input {
	aim := func(r geo.Rect) player.Input {
		return player.Input{Aim: r.Center().Sub(s.Pos), Aiming: true}
	}
	switch s.Step() {
	case choreo.StepPopcorn:
		if p.watched {
			return player.Input{Back: true}
		}
		return aim(s.Room.Popcorn)
	case choreo.StepCouch:
		return aim(s.Room.Couch)
	case choreo.StepPOV:
		return player.Input{Press: true}
	case choreo.StepMenu:
		if p.watched {
			return player.Input{Back: true}
		}
		return player.Input{Select: true}
	case choreo.StepPlaying:
		p.watched = true
		return player.Input{Back: true}
	}
	return player.Input{}
}

// soak runs the world headless as fast as it can, one nominal frame per
// tick, with the autopilot at the wheel. It stops after seconds of
// simulated time or once the car reaches the rocket.
func (a *app) soak(ctx context.Context, seconds float64) (core.Outcome, error) {
	s, err := a.newSession(ctx, "soak", clock.FromHour(a.sim.ClockHour))
	if err != nil {
		return core.Outcome{}, err
	}

	pilot := player.NewAutopilot(a.soakRoute()...)
	room := &roomPilot{}
	limit := uint64(seconds * sim.NominalRate)
	a.Logger.Info("Soak started", "ticks", limit)

	for s.world.TickCount() < limit {
		if s.world.TickCount()%soakCheckEvery == 0 && ctx.Err() != nil {
			a.Logger.Warn("Soak interrupted")
			break
		}
		start := time.Now()
		var in player.Input
		if s.world.InRoom() {
			in = room.input(s.world.Screening)
		} else {
			in = pilot.Input(s.world.Car)
		}
		s.step(1, in)
		s.observe(time.Since(start), 1, false)
		if s.finished() {
			a.Logger.Info("Car reached the rocket")
			break
		}
	}
	return s.end()
}
