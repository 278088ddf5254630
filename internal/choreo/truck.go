package choreo

import (
	"github.com/moonlitstudios/backlot/internal/actor"
	"github.com/moonlitstudios/backlot/internal/geo"
)

// TruckState is the box truck's departure routine.
type TruckState string

const (
	TruckParked   TruckState = "parked"
	TruckLoading  TruckState = "loading"
	TruckDriving  TruckState = "driving"
	TruckFading   TruckState = "fading"
	TruckEntering TruckState = "entering"
	TruckGone     TruckState = "gone"
)

// TruckExit selects how the truck leaves once its route is done.
type TruckExit string

const (
	// ExitFade drives off north while fading out.
	ExitFade TruckExit = "fade"
	// ExitEnter rolls through a stage door while fading out.
	ExitEnter TruckExit = "enter"
)

const (
	truckLoadFrames  = 90
	truckSpeed       = 0.6
	truckFadeFrames  = 180
	truckFadeDrift   = 0.6
	truckEnterFrames = 60
	truckEnterSpeed  = 0.3
)

// Truck is the box truck that leaves after the crew has finished.
type Truck struct {
	Start  geo.Vec2
	Pos    geo.Vec2
	Facing geo.Facing
	Alpha  float64

	exit   TruckExit
	enter  geo.Facing
	path   *actor.PathFollower
	m      actor.Machine[TruckState]
	events []TruckState
}

// NewTruck parks a truck at start. route is driven once loading ends; with
// ExitEnter, enterFacing is the direction it rolls through the door.
func NewTruck(start geo.Vec2, route actor.Waypoints, exit TruckExit, enterFacing geo.Facing) *Truck {
	if exit == "" {
		exit = ExitFade
	}
	return &Truck{
		Start:  start,
		Pos:    start,
		Facing: geo.FacingRight,
		Alpha:  1,
		exit:   exit,
		enter:  enterFacing,
		path:   actor.NewPathFollower(route, truckSpeed),
		m:      actor.NewMachine(TruckParked),
	}
}

func (t *Truck) State() TruckState { return t.m.State() }
func (t *Truck) Timer() float64    { return t.m.Timer() }
func (t *Truck) Cursor() int       { return t.path.Cursor() }

func (t *Truck) Route() actor.Waypoints { return t.path.Route() }

// Visible is false once the truck has gone.
func (t *Truck) Visible() bool { return t.m.State() != TruckGone }

// Moving reports whether the headlights are on.
func (t *Truck) Moving() bool {
	return t.m.Is(TruckDriving, TruckFading, TruckEntering)
}

// DrainTransitions returns the states entered since the last call.
func (t *Truck) DrainTransitions() []TruckState {
	out := t.events
	t.events = nil
	return out
}

func (t *Truck) transition(next TruckState) {
	if t.m.Transition(next) {
		t.events = append(t.events, next)
	}
}

// Advance steps the truck. The crew being done releases it from parked.
func (t *Truck) Advance(dt float64, sig Signals) {
	for dt > 0 {
		switch t.m.State() {
		case TruckParked:
			if !sig.CrewDone {
				return
			}
			t.transition(TruckLoading)
		case TruckLoading:
			remaining, over := actor.Countdown(truckLoadFrames-t.m.Timer(), dt)
			t.m.Advance(dt - over)
			dt = over
			if remaining > 0 {
				return
			}
			t.transition(TruckDriving)
		case TruckDriving:
			step := t.path.Advance(t.Pos, t.Facing, dt)
			t.Pos, t.Facing = step.Pos, step.Facing
			t.m.Advance(dt - step.Leftover)
			dt = step.Leftover
			if !t.path.Done() {
				return
			}
			if t.exit == ExitEnter {
				t.Facing = t.enter
				t.transition(TruckEntering)
			} else {
				t.Facing = geo.FacingUp
				t.transition(TruckFading)
			}
		case TruckFading:
			dt = t.fade(dt, truckFadeFrames, truckFadeDrift)
		case TruckEntering:
			dt = t.fade(dt, truckEnterFrames, truckEnterSpeed)
		case TruckGone:
			return
		}
	}
}

// fade moves along the current facing while ramping alpha down over frames.
func (t *Truck) fade(dt, frames, speed float64) float64 {
	remaining, over := actor.Countdown(frames-t.m.Timer(), dt)
	used := dt - over
	t.m.Advance(used)
	t.Pos = t.Pos.Add(geo.FromAngle(t.Facing.Angle()).Scale(speed * used))
	t.Alpha = max(0, 1-t.m.Timer()/frames)
	if remaining > 0 {
		return 0
	}
	t.Alpha = 0
	t.transition(TruckGone)
	return 0
}
