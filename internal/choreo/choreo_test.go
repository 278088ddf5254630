package choreo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlitstudios/backlot/internal/actor"
	"github.com/moonlitstudios/backlot/internal/geo"
)

// lot is a minimal launch pad: two cranes, a crew and a truck.
type lot struct {
	coord  *Coordinator
	crew   *Crew
	truck  *Truck
	cranes [2]*Crane
}

func newLot() *lot {
	rocket := geo.V(0, 520)
	coord := NewCoordinator(rocket.Add(geo.V(-12, 15)), rocket.Add(geo.V(12, 15)))
	start := rocket.Add(geo.V(75, 25))
	route := actor.NewWaypoints(
		geo.V(start.X+56, start.Y),
		geo.V(start.X+56, start.Y-50),
		geo.V(0, start.Y-50),
		geo.V(0, -250),
	)
	return &lot{
		coord: coord,
		crew:  NewCrew(start, coord),
		truck: NewTruck(start, route, ExitFade, geo.FacingUp),
		cranes: [2]*Crane{
			NewCrane(rocket.Add(geo.V(-50, 10)), true, 0),
			NewCrane(rocket.Add(geo.V(50, 10)), false, 2),
		},
	}
}

func (l *lot) tick(dt float64) Signals {
	l.crew.Advance(dt)
	sig := l.coord.Signals(l.crew, l.truck)
	l.truck.Advance(dt, sig)
	for i, c := range l.cranes {
		c.Advance(dt, sig.Inbound[i], l.coord.Items[i])
	}
	return sig
}

func TestLotChoreography(t *testing.T) {
	l := newLot()
	prev := [2]CraneState{CraneWorking, CraneWorking}
	rightPlacedFirst := false

	for i := 0; i < 6000 && l.truck.State() != TruckGone; i++ {
		l.tick(1)

		for c, item := range l.coord.Items {
			require.False(t, item.PickedUp() && !item.Placed(), "picked up before placed")
			state := l.cranes[c].State()
			if state == CraneHolding && prev[c] != CraneHolding {
				require.Equal(t, CraneLifting, prev[c], "holding entered from %s", prev[c])
			}
			prev[c] = state
		}
		if l.coord.Items[RightCrane].Placed() && !l.coord.Items[LeftCrane].Placed() {
			rightPlacedFirst = true
		}
		if l.truck.State() != TruckParked {
			require.True(t, l.crew.Done(), "truck left before the crew finished")
		}
	}

	assert.True(t, rightPlacedFirst)
	assert.True(t, l.coord.Delivered())
	assert.Equal(t, CraneHolding, l.cranes[LeftCrane].State())
	assert.Equal(t, CraneHolding, l.cranes[RightCrane].State())
	assert.Equal(t, TruckGone, l.truck.State())
	assert.Equal(t, 4, l.truck.Cursor())
}

func TestLotFrameRateIndependent(t *testing.T) {
	a := newLot()
	b := newLot()

	for i := 0; i < 1500; i++ {
		a.tick(2)
		b.tick(1)
		b.tick(1)

		progressA := float64(a.crew.Phase()) + a.crew.Progress()
		progressB := float64(b.crew.Phase()) + b.crew.Progress()
		require.InDelta(t, progressA, progressB, 1e-6, "tick %d", i)
	}
}

func TestSignalsInbound(t *testing.T) {
	l := newLot()
	sig := l.coord.Signals(l.crew, l.truck)
	assert.True(t, sig.Inbound[RightCrane])
	assert.False(t, sig.Inbound[LeftCrane])
	assert.Equal(t, TruckParked, sig.TruckState)

	for l.crew.Phase() < 4 {
		l.tick(1)
	}
	sig = l.coord.Signals(l.crew, l.truck)
	assert.False(t, sig.Inbound[RightCrane])
	assert.True(t, sig.Inbound[LeftCrane])
}

func TestCrewLegs(t *testing.T) {
	l := newLot()
	back := l.truck.Start.Add(geo.V(-10, 8))

	w1, w2 := l.crew.Workers(TruckParked, 0, l.truck.Pos)
	assert.Equal(t, back, w1)
	assert.Equal(t, back.Add(geo.V(0, 5)), w2)

	for l.crew.Phase() == 0 {
		l.crew.Advance(1)
	}
	assert.True(t, l.crew.Carrying)
	assert.True(t, l.crew.Walking(TruckParked))

	for l.crew.Phase() == 1 {
		l.crew.Advance(1)
	}
	require.Equal(t, 2, l.crew.Phase())
	assert.True(t, l.coord.Items[RightCrane].Placed())
	w1, w2 = l.crew.Workers(TruckParked, 0, l.truck.Pos)
	assert.Equal(t, l.coord.Items[RightCrane].Drop, w1)
	assert.Equal(t, w1.Add(geo.V(3, 5)), w2)
	assert.False(t, l.crew.Carrying)
}

func TestCrewBoardsTruck(t *testing.T) {
	l := newLot()
	cab := l.truck.Pos.Add(geo.V(10, -2))

	w1, w2 := l.crew.Workers(TruckLoading, 60, l.truck.Pos)
	assert.Equal(t, cab, w1)
	assert.Equal(t, cab, w2)

	assert.True(t, l.crew.Visible(TruckLoading, 59))
	assert.False(t, l.crew.Visible(TruckLoading, 60))
	assert.False(t, l.crew.Visible(TruckDriving, 0))
}

func TestTruckFiveWaypointRoute(t *testing.T) {
	start := geo.V(0, 0)
	route := actor.NewWaypoints(geo.V(6, 0), geo.V(6, -6), geo.V(0, -6), geo.V(0, -12), geo.V(6, -12))
	truck := NewTruck(start, route, ExitFade, geo.FacingUp)

	truck.Advance(1, Signals{})
	require.Equal(t, TruckParked, truck.State())

	done := Signals{CrewDone: true}
	for i := 0; i < 90; i++ {
		truck.Advance(1, done)
	}
	require.Equal(t, TruckDriving, truck.State())

	ticks := 0
	for truck.State() == TruckDriving && ticks < 200 {
		truck.Advance(1, done)
		ticks++
	}

	assert.InDelta(t, 50, ticks, 1, "30px at 0.6px/frame")
	assert.Equal(t, 5, truck.Cursor())
	assert.Equal(t, TruckFading, truck.State())
	assert.InDelta(t, 6.0, truck.Pos.X, 1e-9)
	assert.InDelta(t, -12.0, truck.Pos.Y, 0.6)
	assert.Equal(t, []TruckState{TruckLoading, TruckDriving, TruckFading}, truck.DrainTransitions())
}

func TestTruckFadesOut(t *testing.T) {
	truck := NewTruck(geo.V(0, 0), actor.NewWaypoints(geo.V(0, 0)), ExitFade, geo.FacingUp)
	done := Signals{CrewDone: true}

	for i := 0; i < 91; i++ {
		truck.Advance(1, done)
	}
	require.Equal(t, TruckFading, truck.State())

	truck.Advance(90, done)
	assert.InDelta(t, 0.5, truck.Alpha, 0.02)
	assert.True(t, truck.Visible())

	truck.Advance(200, done)
	assert.Equal(t, TruckGone, truck.State())
	assert.Equal(t, 0.0, truck.Alpha)
	assert.False(t, truck.Visible())
	assert.False(t, truck.Moving())
}

func TestTruckEntersStage(t *testing.T) {
	truck := NewTruck(geo.V(0, 0), actor.NewWaypoints(geo.V(10, 0)), ExitEnter, geo.FacingRight)
	done := Signals{CrewDone: true}

	truck.Advance(90, done)
	truck.Advance(30, done)
	require.Equal(t, TruckEntering, truck.State())
	assert.Equal(t, geo.FacingRight, truck.Facing)

	truck.Advance(60, done)
	assert.Equal(t, TruckGone, truck.State())
	assert.Greater(t, truck.Pos.X, 10.0)
}

func TestDoorCycle(t *testing.T) {
	door := NewDoor(geo.V(60, -200), geo.V(20, 4), 3)

	door.Advance(10, Signals{TruckState: TruckDriving, TruckCursor: 2})
	assert.Equal(t, DoorClosed, door.State())

	door.Advance(1, Signals{TruckState: TruckDriving, TruckCursor: 3})
	assert.Equal(t, DoorOpening, door.State())
	assert.InDelta(t, 1.0/90, door.OpenAmount(), 1e-9)

	door.Advance(100, Signals{TruckState: TruckEntering})
	assert.Equal(t, DoorOpen, door.State())
	assert.Equal(t, 1.0, door.OpenAmount())
	assert.False(t, door.ShowDone())

	door.Advance(45, Signals{TruckState: TruckGone, TruckGone: true})
	assert.Equal(t, DoorClosing, door.State())
	assert.InDelta(t, 0.5, door.OpenAmount(), 1e-9)

	door.Advance(46, Signals{TruckState: TruckGone, TruckGone: true})
	assert.Equal(t, DoorClosed, door.State())
	assert.True(t, door.ShowDone())

	door.Advance(10, Signals{TruckState: TruckDriving, TruckCursor: 3})
	assert.Equal(t, DoorClosed, door.State(), "the door only cycles once")
}

func TestPoliceRoutine(t *testing.T) {
	police := NewPolice(geo.V(-260, 0), actor.NewWaypoints(geo.V(-40, 0), geo.V(-40, 40)))
	assert.Equal(t, geo.FacingRight, police.Facing)
	assert.False(t, police.Visible())

	police.Advance(1799)
	assert.Equal(t, PoliceWaiting, police.State())

	police.Advance(1)
	assert.Equal(t, PoliceDriving, police.State())
	assert.True(t, police.Visible())

	for i := 0; i < 400 && police.State() == PoliceDriving; i++ {
		police.Advance(1)
	}
	assert.Equal(t, PoliceParked, police.State())
	assert.Equal(t, geo.V(-40, 40), police.Pos)

	red := police.BarRed()
	police.Advance(15)
	assert.NotEqual(t, red, police.BarRed())
}
