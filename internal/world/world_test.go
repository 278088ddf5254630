package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlitstudios/backlot/internal/choreo"
	"github.com/moonlitstudios/backlot/internal/clock"
	"github.com/moonlitstudios/backlot/internal/compositor"
	"github.com/moonlitstudios/backlot/internal/geo"
	"github.com/moonlitstudios/backlot/internal/layout"
	"github.com/moonlitstudios/backlot/internal/player"
)

func newWorld(t *testing.T, hour float64) *World {
	t.Helper()
	return New(layout.Default(), Options{Clock: clock.Fixed{Hour: hour}, Seed: 7})
}

func run(w *World, frames int) []Event {
	var events []Event
	for i := 0; i < frames; i++ {
		w.Tick(1, player.Input{})
		events = append(events, w.Events()...)
	}
	return events
}

func indexOf(events []Event, kind EventKind, actor, state string) int {
	for i, e := range events {
		if e.Kind == kind && e.Actor == actor && e.State == state {
			return i
		}
	}
	return -1
}

func owners(w *World, d float64) map[string]int {
	out := map[string]int{}
	for _, s := range w.Lights(d) {
		out[s.Owner]++
	}
	return out
}

func TestWorld_FullDeliveryShow(t *testing.T) {
	w := newWorld(t, 22)
	events := run(w, 6000)

	f := w.Flags()
	assert.Equal(t, choreo.TruckGone, f.TruckState)
	assert.Equal(t, choreo.DoorClosed, f.DoorState)
	assert.True(t, f.Stage1ShowDone)
	assert.True(t, f.Delivered)
	assert.Equal(t, [2]choreo.CraneState{choreo.CraneHolding, choreo.CraneHolding}, f.CraneStates)
	assert.Equal(t, choreo.PoliceParked, w.Police.State())

	loading := indexOf(events, EventTruckState, "truck", string(choreo.TruckLoading))
	driving := indexOf(events, EventTruckState, "truck", string(choreo.TruckDriving))
	entering := indexOf(events, EventTruckState, "truck", string(choreo.TruckEntering))
	gone := indexOf(events, EventTruckState, "truck", string(choreo.TruckGone))
	opening := indexOf(events, EventDoorState, "door", string(choreo.DoorOpening))
	closing := indexOf(events, EventDoorState, "door", string(choreo.DoorClosing))
	crewDone := indexOf(events, EventCrewDone, "crew", "")
	showDone := indexOf(events, EventStage1ShowDone, "stage1", "")

	require.NotEqual(t, -1, crewDone)
	assert.Less(t, crewDone, loading)
	assert.Less(t, loading, driving)
	assert.Less(t, driving, opening, "door opens while the truck is still driving")
	assert.Less(t, opening, entering)
	assert.Less(t, entering, gone)
	assert.Less(t, gone, closing)
	assert.Less(t, closing, showDone)

	for _, side := range []string{"crane.left", "crane.right"} {
		placed := indexOf(events, EventItemPlaced, side, "")
		picked := indexOf(events, EventItemPickedUp, side, "")
		holding := indexOf(events, EventCraneState, side, string(choreo.CraneHolding))
		require.NotEqual(t, -1, placed, side)
		assert.Less(t, placed, picked, side)
		assert.Less(t, picked, holding, side)
	}

	assert.Equal(t, 4, owners(w, 0.7)["hmi"], "two lenses and two beams")
	assert.Zero(t, owners(w, 0.7)["truck"])
}

func TestWorld_EventsAreStampedAndDrained(t *testing.T) {
	w := newWorld(t, 12)
	w.Car.Pos = geo.V(0, -140)
	w.Tick(1, player.Input{})

	events := w.Events()
	i := indexOf(events, EventZoneArrived, "equipment", "")
	require.NotEqual(t, -1, i)
	assert.Equal(t, uint64(1), events[i].Tick)
	assert.Empty(t, w.Events())
}

func TestWorld_StartingInsideAZoneDoesNotArrive(t *testing.T) {
	l := layout.Default()
	l.CarStart = l.Rocket
	w := New(l, Options{Clock: clock.Fixed{Hour: 12}})
	assert.Equal(t, "rocket", w.Flags().Arrived)

	w.Tick(1, player.Input{})
	assert.Equal(t, -1, indexOf(w.Events(), EventZoneArrived, "rocket", ""))

	w.Car.Pos = geo.V(0, 300)
	w.Tick(1, player.Input{})
	assert.Equal(t, "", w.Flags().Arrived)

	w.Car.Pos = w.Layout().Rocket
	w.Tick(1, player.Input{})
	assert.NotEqual(t, -1, indexOf(w.Events(), EventZoneArrived, "rocket", ""))
}

func TestWorld_BillboardAheadFlashes(t *testing.T) {
	w := newWorld(t, 22)
	require.Len(t, w.Billboards, 3)
	assert.Equal(t, "GRIP GEAR", w.Billboards[0].Label)
	steady := 4 * len(w.Billboards)

	w.Car.Pos = geo.V(0, 240)
	w.Tick(1, player.Input{})
	events := w.Events()
	assert.NotEqual(t, -1, indexOf(events, EventBillboardFlash, "billboard.1", ""))
	assert.Equal(t, -1, indexOf(events, EventBillboardFlash, "billboard.0", ""))
	assert.True(t, w.Flashes[1].Triggered())
	assert.Equal(t, steady-2, owners(w, 0.7)["billboards"], "the faulty fixture starts its flicker dark")

	w.Tick(1, player.Input{})
	assert.Equal(t, -1, indexOf(w.Events(), EventBillboardFlash, "billboard.1", ""), "one shot")

	for i := 0; i < 200; i++ {
		w.Tick(1, player.Input{})
	}
	assert.True(t, w.Flashes[1].Finished())
	assert.False(t, w.Flashes[1].On())
	assert.Equal(t, steady, owners(w, 0.7)["billboards"], "the fixture stays lit after the flicker")
}

func TestWorld_FirstBillboardNeverFlashes(t *testing.T) {
	w := newWorld(t, 22)
	w.Car.Pos = geo.V(0, 130)
	w.Tick(1, player.Input{})
	events := w.Events()

	assert.Equal(t, -1, indexOf(events, EventBillboardFlash, "billboard.0", ""))
	assert.NotEqual(t, -1, indexOf(events, EventBillboardFlash, "billboard.1", ""))
	assert.False(t, w.Flashes[0].Triggered())

	w.Car.Pos = geo.V(0, -200)
	for i := 0; i < 10; i++ {
		w.Tick(1, player.Input{})
	}
	assert.False(t, w.Flashes[0].Triggered())
}

func TestWorld_PanelPlaysNearby(t *testing.T) {
	w := newWorld(t, 22)
	w.Car.Pos = geo.V(-80, 20)
	w.Tick(1, player.Input{})
	assert.NotEqual(t, -1, indexOf(w.Events(), EventPanelPlaying, "panel", ""))
	assert.True(t, w.Flags().PanelPlaying)
	assert.False(t, w.PanelReady())

	for i := 0; i < panelReadyFrames; i++ {
		w.Tick(1, player.Input{})
	}
	assert.True(t, w.PanelReady())

	w.Car.Pos = geo.V(0, 400)
	w.Tick(1, player.Input{})
	assert.NotEqual(t, -1, indexOf(w.Events(), EventPanelPaused, "panel", ""))
	assert.False(t, w.PanelReady())
}

func TestWorld_LightningLightsWindows(t *testing.T) {
	w := newWorld(t, 22)
	w.Car.Pos = geo.V(-190, -90)
	w.Tick(1, player.Input{})
	assert.NotEqual(t, -1, indexOf(w.Events(), EventLightning, "stage2", ""))

	seen := false
	for i := 0; i < 200 && !w.Lightning.Finished(); i++ {
		w.Tick(1, player.Input{})
		if owners(w, 0.7)["stage2.windows"] == len(w.Layout().Stage2.Windows) {
			seen = true
		}
	}
	assert.True(t, seen)
	assert.True(t, w.Lightning.Finished())
	assert.Zero(t, owners(w, 0.7)["stage2.windows"])
}

func TestWorld_LightsAtStart(t *testing.T) {
	w := newWorld(t, 22)
	o := owners(w, 0.7)
	assert.Equal(t, 2, o["car"])
	assert.Equal(t, 1, o["car.glow"])
	assert.Equal(t, len(w.Layout().Lamps), o["lamps"])
	assert.Equal(t, 4, o["workers"])
	// two fixtures per face, each a glow and a beam
	assert.Equal(t, 4*len(w.Billboards), o["billboards"])
	assert.Zero(t, o["police"])
	assert.Zero(t, o["stage1.door"])

	lamps := owners(w, 0.15)["lamps"]
	assert.Zero(t, lamps, "street lamps need real darkness")

	dusk := owners(w, 0.05)
	assert.Zero(t, dusk["car"], "headlights need real darkness")
	assert.Zero(t, dusk["car.glow"])
	assert.Zero(t, dusk["billboards"])
}

func TestWorld_RenderDaytimeSkipsMask(t *testing.T) {
	w := newWorld(t, 12)
	cmds := w.Render()
	require.NotEmpty(t, cmds)
	assert.Equal(t, compositor.OpFill, cmds[0].Op)

	for _, c := range cmds {
		assert.NotEqual(t, compositor.LayerMask, c.Layer)
		assert.NotEqual(t, compositor.OpComposite, c.Op)
	}
	assert.Equal(t, compositor.OpText, cmds[len(cmds)-1].Op)
}

func TestWorld_RenderNightCutsLights(t *testing.T) {
	w := newWorld(t, 22)
	cmds := w.Render()

	composite := -1
	reveals := map[string]bool{}
	for i, c := range cmds {
		if c.Op == compositor.OpComposite {
			composite = i
		}
		if c.Blend == compositor.BlendDestinationOut {
			reveals[c.Owner] = true
		}
	}
	require.NotEqual(t, -1, composite)
	assert.True(t, reveals["car"])
	assert.True(t, reveals["car.glow"])
}

func TestWorld_RenderDrawsCarBetweenScenery(t *testing.T) {
	w := newWorld(t, 12)
	w.Car.Pos = geo.V(0, 150)
	w.Camera.Pos = geo.V(-160, 30)

	before := len(w.roads(painter{f: w.Frame()})) + 1
	scene := w.scenery(painter{f: w.Frame()})
	behind := 0
	for _, d := range scene {
		if d.y <= w.Car.Pos.Y {
			behind += len(d.cmds)
		}
	}

	cmds := w.Render()
	car := w.drawCar(painter{f: w.Frame()})
	assert.Equal(t, car[0].Shape, cmds[before+behind].Shape)
}

func TestWorld_DuskTint(t *testing.T) {
	w := newWorld(t, 18)
	f := w.Frame()
	require.NotNil(t, f.Tint)
	assert.InDelta(t, 0.2, f.Tint.Alpha, 1e-9)
	assert.InDelta(t, clock.DarknessAt(18), f.Darkness, 1e-9)
}

func TestWorld_SampleMirrorsActors(t *testing.T) {
	w := newWorld(t, 22)
	run(w, 10)
	s := w.Sample()
	assert.Equal(t, uint64(10), s.Tick)
	assert.Equal(t, w.Car.Pos, s.Car)
	assert.Equal(t, choreo.TruckParked, s.TruckState)
	assert.Equal(t, w.Cranes[0].Hook(), s.Cranes[0].Hook)
	assert.Equal(t, len(w.Lights(s.Darkness)), s.Lights)
}

func TestWorld_DriveWithInput(t *testing.T) {
	w := newWorld(t, 12)
	start := w.Car.Pos
	for i := 0; i < 60; i++ {
		w.Tick(1, player.Input{Thrust: true})
	}
	assert.Less(t, w.Car.Pos.Y, start.Y, "the car starts facing up the road")
	assert.InDelta(t, start.X, w.Car.Pos.X, 1e-9)
}

func labels(cmds []compositor.Command) []string {
	var out []string
	for _, c := range cmds {
		if c.Text != nil {
			out = append(out, c.Text.Value)
		}
	}
	return out
}

func enterRoom(t *testing.T, w *World) []Event {
	t.Helper()
	reel, ok := w.Layout().Zone(w.Layout().ScreeningZone)
	require.True(t, ok)
	w.Car.Pos = reel.Pos
	w.Tick(1, player.Input{})
	require.True(t, w.InRoom())
	return w.Events()
}

func TestWorld_ScreeningZoneEntersRoom(t *testing.T) {
	w := newWorld(t, 12)
	w.Car.Speed = 3
	events := enterRoom(t, w)

	arrived := indexOf(events, EventZoneArrived, "reel", "")
	entered := indexOf(events, EventScreeningEntered, "screening", string(choreo.StepPopcorn))
	require.NotEqual(t, -1, arrived)
	assert.Less(t, arrived, entered)
	assert.Equal(t, choreo.StepPopcorn, w.Flags().Screening)
	assert.Zero(t, w.Car.Speed)

	parked := w.Car.Pos
	w.Tick(1, player.Input{Thrust: true})
	assert.Equal(t, parked, w.Car.Pos, "the input walks the viewer, not the car")
	assert.Less(t, w.Screening.Pos.Y, w.Screening.Room.Start.Y)
	assert.Contains(t, labels(w.Render()), "EXIT")

	w.Tick(1, player.Input{Back: true})
	assert.NotEqual(t, -1, indexOf(w.Events(), EventScreeningLeft, "screening", string(choreo.RoomExitBack)))
	assert.False(t, w.InRoom())
	assert.Empty(t, w.Flags().Screening)
	assert.NotContains(t, labels(w.Render()), "EXIT")

	w.Tick(1, player.Input{})
	assert.Equal(t, -1, indexOf(w.Events(), EventScreeningEntered, "screening", string(choreo.StepPopcorn)),
		"still parked in the zone")
	assert.False(t, w.InRoom())
}

func TestWorld_ScreeningStepsThroughMenu(t *testing.T) {
	w := newWorld(t, 12)
	enterRoom(t, w)
	s := w.Screening
	var events []Event
	tick := func(in player.Input) {
		w.Tick(1, in)
		events = append(events, w.Events()...)
	}

	s.Pos = s.Room.Popcorn.Center()
	tick(player.Input{})
	s.Pos = s.Room.Couch.Center()
	tick(player.Input{})
	tick(player.Input{})
	require.Equal(t, choreo.StepPOV, s.Step())

	for i := 0; i < 45; i++ {
		tick(player.Input{})
	}
	tick(player.Input{Press: true})
	require.Equal(t, choreo.StepMenu, s.Step())
	tick(player.Input{Scroll: 2})
	assert.Equal(t, 2, s.Selection())
	assert.Contains(t, labels(w.Render()), "TV")

	for i := 0; i < 20; i++ {
		tick(player.Input{})
	}
	tick(player.Input{Select: true})
	require.Equal(t, choreo.StepPlaying, s.Step())
	assert.Contains(t, labels(w.Render()), "NOW PLAYING TV")

	tick(player.Input{Back: true})
	assert.Equal(t, choreo.StepMenu, s.Step())
	tick(player.Input{Back: true})
	assert.Equal(t, choreo.StepPopcorn, s.Step())
	assert.True(t, w.InRoom())
	tick(player.Input{Back: true})
	assert.False(t, w.InRoom())

	var steps []string
	for _, e := range events {
		if e.Kind == EventScreeningStep {
			steps = append(steps, e.State)
		}
	}
	assert.Equal(t, []string{"couch", "remote", "pov", "menu", "playing", "menu", "popcorn"}, steps)
	assert.NotEqual(t, -1, indexOf(events, EventScreeningLeft, "screening", "back"))
}
