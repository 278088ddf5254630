package convert

import (
	"time"

	"github.com/moonlitstudios/backlot/internal/geo"
	"github.com/moonlitstudios/backlot/internal/layout"
	"github.com/moonlitstudios/backlot/internal/world"
	"github.com/moonlitstudios/backlot/pkg/core"
)

// SampleToCore stamps a world sample for the trace.
func SampleToCore(s world.Sample, sessionID uint, now time.Time) core.FrameSample {
	f := core.FrameSample{
		SessionID:   sessionID,
		Tick:        s.Tick,
		Time:        now,
		Car:         point(s.Car),
		CarAngle:    s.CarAngle,
		CarSpeed:    s.CarSpeed,
		CrewPhase:   s.CrewPhase,
		CrewDone:    s.CrewDone,
		Truck:       point(s.Truck),
		TruckState:  string(s.TruckState),
		TruckAlpha:  s.TruckAlpha,
		DoorOpen:    s.DoorOpen,
		Police:      point(s.Police),
		PoliceState: string(s.PoliceState),
		Darkness:    s.Darkness,
		Lights:      s.Lights,
	}
	for i, c := range s.Cranes {
		f.Cranes[i] = core.CraneSample{State: string(c.State), BoomRaise: c.BoomRaise, Hook: point(c.Hook)}
	}
	return f
}

// EventToCore stamps a world event for the trace.
func EventToCore(e world.Event, sessionID uint, now time.Time) core.WorldEvent {
	return core.WorldEvent{
		SessionID: sessionID,
		Tick:      e.Tick,
		Time:      now,
		Kind:      string(e.Kind),
		Actor:     e.Actor,
		State:     e.State,
	}
}

// TruckRouteWKT renders the delivery route, start included, as WKT.
func TruckRouteWKT(l layout.Layout) string {
	line, err := geo.RouteLine(append([]geo.Vec2{l.Truck.Start}, l.Truck.Route...))
	if err != nil {
		return ""
	}
	return line.AsText()
}

// OutcomeOf summarizes the world's navigation flags.
func OutcomeOf(w *world.World, events, frames int) core.Outcome {
	f := w.Flags()
	return core.Outcome{
		FinalTick:      w.TickCount(),
		Delivered:      f.Delivered,
		Stage1ShowDone: f.Stage1ShowDone,
		Arrived:        f.Arrived,
		Events:         events,
		Frames:         frames,
	}
}
