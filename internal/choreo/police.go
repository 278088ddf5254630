package choreo

import (
	"math"

	"github.com/moonlitstudios/backlot/internal/actor"
	"github.com/moonlitstudios/backlot/internal/geo"
)

// PoliceState is the patrol car routine.
type PoliceState string

const (
	PoliceWaiting PoliceState = "waiting"
	PoliceDriving PoliceState = "driving"
	PoliceParked  PoliceState = "parked"
)

const (
	policeDwellFrames = 1800
	policeSpeed       = 0.8
	policeBarFrames   = 15
)

// Police is a patrol car that turns up after a while and parks.
type Police struct {
	Pos    geo.Vec2
	Facing geo.Facing

	path *actor.PathFollower
	m    actor.Machine[PoliceState]
	bar  float64
}

// NewPolice places the car at start, facing along the first route leg.
func NewPolice(start geo.Vec2, route actor.Waypoints) *Police {
	first := route.At(0).Sub(start)
	return &Police{
		Pos:    start,
		Facing: geo.DeriveFacing(first.X, first.Y, geo.FacingRight),
		path:   actor.NewPathFollower(route, policeSpeed),
		m:      actor.NewMachine(PoliceWaiting),
	}
}

func (p *Police) State() PoliceState { return p.m.State() }

// Visible is false while the car is still off scene.
func (p *Police) Visible() bool { return p.m.State() != PoliceWaiting }

// BarRed reports which half of the light bar is lit.
func (p *Police) BarRed() bool {
	return int(math.Floor(p.bar/policeBarFrames))%2 == 0
}

func (p *Police) Advance(dt float64) {
	if p.m.State() != PoliceWaiting {
		p.bar += dt
	}

	for dt > 0 {
		switch p.m.State() {
		case PoliceWaiting:
			remaining, over := actor.Countdown(policeDwellFrames-p.m.Timer(), dt)
			p.m.Advance(dt - over)
			dt = over
			if remaining > 0 {
				return
			}
			p.m.Transition(PoliceDriving)
			p.bar = dt
		case PoliceDriving:
			step := p.path.Advance(p.Pos, p.Facing, dt)
			p.Pos, p.Facing = step.Pos, step.Facing
			p.m.Advance(dt - step.Leftover)
			dt = step.Leftover
			if !p.path.Done() {
				return
			}
			p.m.Transition(PoliceParked)
		case PoliceParked:
			p.m.Advance(dt)
			return
		}
	}
}
