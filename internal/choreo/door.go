package choreo

import (
	"github.com/moonlitstudios/backlot/internal/actor"
	"github.com/moonlitstudios/backlot/internal/geo"
)

// DoorState is the roll-up stage door cycle.
type DoorState string

const (
	DoorClosed  DoorState = "closed"
	DoorOpening DoorState = "opening"
	DoorOpen    DoorState = "open"
	DoorClosing DoorState = "closing"
)

const doorRate = 1.0 / 90

// Door is a stage door that opens ahead of the truck and closes behind it.
type Door struct {
	Pos  geo.Vec2
	Size geo.Vec2

	// OpenAt is the truck route cursor at which the door starts opening.
	OpenAt int

	m      actor.Machine[DoorState]
	amount float64
	cycled bool
}

func NewDoor(pos, size geo.Vec2, openAt int) *Door {
	return &Door{Pos: pos, Size: size, OpenAt: openAt, m: actor.NewMachine(DoorClosed)}
}

func (d *Door) State() DoorState { return d.m.State() }

// OpenAmount is 0 when shut and 1 when fully open.
func (d *Door) OpenAmount() float64 { return d.amount }

// ShowDone reports whether the door has opened for the truck and shut again.
func (d *Door) ShowDone() bool {
	return d.cycled && d.m.State() == DoorClosed
}

// Advance ramps the door. It opens once the truck is driving with its
// cursor at OpenAt or later, and closes once the truck has gone.
func (d *Door) Advance(dt float64, sig Signals) {
	for dt > 0 {
		switch d.m.State() {
		case DoorClosed:
			if d.cycled || sig.TruckState != TruckDriving || sig.TruckCursor < d.OpenAt {
				return
			}
			d.m.Transition(DoorOpening)
		case DoorOpening:
			before := dt
			d.amount, dt = actor.Ramp(d.amount, doorRate, dt)
			d.m.Advance(before - dt)
			if d.amount < 1 {
				return
			}
			d.m.Transition(DoorOpen)
		case DoorOpen:
			if !sig.TruckGone {
				return
			}
			d.m.Transition(DoorClosing)
		case DoorClosing:
			before := dt
			var closed float64
			closed, dt = actor.Ramp(1-d.amount, doorRate, dt)
			d.m.Advance(before - dt)
			d.amount = 1 - closed
			if d.amount > 0 {
				return
			}
			d.amount = 0
			d.cycled = true
			d.m.Transition(DoorClosed)
		}
	}
}
