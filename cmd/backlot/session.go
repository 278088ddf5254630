package main

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/moonlitstudios/backlot/internal/api"
	"github.com/moonlitstudios/backlot/internal/clock"
	"github.com/moonlitstudios/backlot/internal/config"
	"github.com/moonlitstudios/backlot/internal/dispatcher"
	"github.com/moonlitstudios/backlot/internal/geo"
	"github.com/moonlitstudios/backlot/internal/influx"
	"github.com/moonlitstudios/backlot/internal/logging"
	"github.com/moonlitstudios/backlot/internal/model/convert"
	"github.com/moonlitstudios/backlot/internal/monitor"
	"github.com/moonlitstudios/backlot/internal/player"
	"github.com/moonlitstudios/backlot/internal/storage"
	"github.com/moonlitstudios/backlot/internal/world"
	"github.com/moonlitstudios/backlot/pkg/core"
)

const eventBufferSize = 1024

// session is one run of the world with its trace and metrics attached.
type session struct {
	app     *app
	world   *world.World
	backend storage.Backend
	disp    *dispatcher.Dispatcher
	monitor *monitor.Service
	influx  *influx.Manager
	trace   *core.Session

	sampleEvery uint64
	frames      atomic.Int64
	events      atomic.Int64
	commands    int

	// read by the log context from any goroutine
	tick     atomic.Uint64
	darkness atomic.Uint64
}

// newSession builds the world and starts recording it.
func (a *app) newSession(ctx context.Context, name string, src clock.Source) (*session, error) {
	w := world.New(a.layout, world.Options{
		Clock:    src,
		Seed:     a.sim.Seed,
		Viewport: geo.V(float64(a.viewport.Width), float64(a.viewport.Height)),
	})

	s := &session{app: a, world: w, sampleEvery: uint64(max(a.storage.SampleEvery, 1))}
	s.publish()
	a.logContext(s)

	disp, err := dispatcher.New(logging.NewDispatcherLogger(logging.Sampled(a.componentLogger("dispatcher"))))
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	s.disp = disp

	backend, err := createStorageBackend(a, a.storage)
	if err != nil {
		return nil, err
	}
	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", a.storage.Type, err)
	}
	s.backend = backend

	s.trace = &core.Session{
		Name:       name,
		StartedAt:  time.Now(),
		Seed:       a.sim.Seed,
		ClockHour:  clock.HourOf(src.Now()),
		TickRate:   a.sim.TickRate,
		TruckRoute: convert.TruckRouteWKT(a.layout),
	}
	if err := backend.StartSession(s.trace); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to start trace session: %w", err)
	}
	s.registerHandlers()

	s.influx = s.connectInflux(ctx)
	deps := monitor.Dependencies{
		LogManager: a.logs,
		Session:    name,
		StatusPath: config.GetString("monitor.statusPath"),
		Interval:   config.GetDuration("monitor.interval"),
	}
	if s.influx != nil {
		deps.Points = s.influx
	}
	s.monitor = monitor.NewService(deps)
	s.monitor.Start()

	a.Logger.Info("Session started",
		"name", name,
		"storage", a.storage.Type,
		"id", s.trace.ID,
		"truckRoute", geo.RouteLength(a.layout.Truck.Start, a.layout.Truck.Route),
	)
	return s, nil
}

func (s *session) connectInflux(ctx context.Context) *influx.Manager {
	if !config.GetBool("influx.enabled") {
		return nil
	}
	m := influx.NewManager(s.app.componentLogger("influx"), s.app.influxBackupPath())
	if err := m.Connect(ctx); err != nil {
		s.app.Logger.Warn("InfluxDB disabled", "error", err)
		return nil
	}
	return m
}

// registerHandlers routes world events to the trace and the log.
func (s *session) registerHandlers() {
	s.disp.Register(dispatcher.Wildcard, func(e dispatcher.Event) error {
		we := core.WorldEvent{
			Tick:  e.Tick,
			Time:  e.Timestamp,
			Kind:  e.Kind,
			Actor: e.Actor,
			State: e.State,
		}
		if err := s.backend.RecordEvent(&we); err != nil {
			return err
		}
		s.events.Add(1)
		return nil
	}, dispatcher.Buffered(eventBufferSize), dispatcher.Blocking())

	milestone := func(e dispatcher.Event) error {
		s.app.Logger.Info("Milestone", "kind", e.Kind, "actor", e.Actor)
		return nil
	}
	for _, kind := range []world.EventKind{
		world.EventCrewDone,
		world.EventStage1ShowDone,
		world.EventZoneArrived,
		world.EventLightning,
		world.EventScreeningEntered,
		world.EventScreeningLeft,
	} {
		s.disp.Register(string(kind), milestone, dispatcher.Logged())
	}
}

func (s *session) publish() {
	s.tick.Store(s.world.TickCount())
	s.darkness.Store(math.Float64bits(s.world.Darkness()))
}

// position is the latest tick and darkness, safe from any goroutine.
func (s *session) position() (uint64, float64) {
	return s.tick.Load(), math.Float64frombits(s.darkness.Load())
}

// step advances the world one tick and records what happened.
func (s *session) step(dt float64, in player.Input) {
	s.world.Tick(dt, in)
	now := time.Now()

	for _, e := range s.world.Events() {
		err := s.disp.Dispatch(dispatcher.Event{
			Kind:      string(e.Kind),
			Tick:      e.Tick,
			Actor:     e.Actor,
			State:     e.State,
			Timestamp: now,
		})
		if err != nil {
			s.app.Logger.Warn("Event not recorded", "event", e.String(), "error", err)
		}
	}

	if tick := s.world.TickCount(); tick%s.sampleEvery == 0 {
		f := convert.SampleToCore(s.world.Sample(), s.trace.ID, now)
		if err := s.backend.RecordFrame(&f); err != nil {
			s.app.Logger.Warn("Frame not recorded", "tick", tick, "error", err)
		} else {
			s.frames.Add(1)
		}
	}
	s.publish()
}

// observe feeds one tick's timing to the monitor.
func (s *session) observe(d time.Duration, dt float64, clamped bool) {
	_, darkness := s.position()
	s.monitor.Record(influx.TickPoint{
		Time:     time.Now(),
		Tick:     s.world.TickCount(),
		Duration: d,
		DT:       dt,
		Clamped:  clamped,
		Lights:   len(s.world.Lights(darkness)),
		Commands: s.commands,
		Darkness: darkness,
	})
}

// finished reports whether the player drove out through the rocket.
func (s *session) finished() bool {
	return s.world.Flags().Arrived == "rocket"
}

// end closes the trace and uploads the export when configured.
func (s *session) end() (core.Outcome, error) {
	s.monitor.Stop()
	s.monitor.Report()
	if s.influx != nil {
		_ = s.influx.Close()
	}

	// buffered events reach the backend before the session closes
	s.disp.Close()

	s.trace.EndedAt = time.Now()
	s.trace.Outcome = convert.OutcomeOf(s.world, int(s.events.Load()), int(s.frames.Load()))
	endErr := s.backend.EndSession()
	closeErr := s.backend.Close()

	// exports are complete once the backend is closed
	if endErr == nil && closeErr == nil {
		if exp, ok := s.backend.(storage.Exporter); ok && exp.ExportedFilePath() != "" {
			s.app.Logger.Info("Trace exported", "path", exp.ExportedFilePath())
			s.upload(exp.ExportedFilePath())
		}
	}

	s.app.Logger.Info("Session ended",
		"finalTick", s.trace.Outcome.FinalTick,
		"delivered", s.trace.Outcome.Delivered,
		"events", s.trace.Outcome.Events,
		"frames", s.trace.Outcome.Frames,
	)

	if endErr != nil {
		return s.trace.Outcome, fmt.Errorf("failed to end trace session: %w", endErr)
	}
	if closeErr != nil {
		return s.trace.Outcome, fmt.Errorf("failed to close storage: %w", closeErr)
	}
	return s.trace.Outcome, nil
}

func (s *session) upload(path string) {
	cfg := s.app.api
	if !cfg.Upload || cfg.ServerURL == "" {
		return
	}
	client := api.New(cfg.ServerURL, cfg.APIKey)
	if err := client.Healthcheck(); err != nil {
		s.app.Logger.Warn("Trace collector unreachable, keeping local file", "error", err)
		return
	}
	if err := client.Upload(path, api.MetadataFor(s.trace)); err != nil {
		s.app.Logger.Error("Trace upload failed", "path", path, "error", err)
		return
	}
	s.app.Logger.Info("Trace uploaded", "path", path)
}
