package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlitstudios/backlot/internal/clock"
	"github.com/moonlitstudios/backlot/internal/layout"
	"github.com/moonlitstudios/backlot/internal/player"
	"github.com/moonlitstudios/backlot/internal/world"
	"github.com/moonlitstudios/backlot/pkg/core"
)

var stamp = time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

func TestSampleToCore_CopiesPoses(t *testing.T) {
	w := world.New(layout.Default(), world.Options{Clock: clock.Fixed{Hour: 22}, Seed: 3})
	for i := 0; i < 5; i++ {
		w.Tick(1, player.Input{})
	}
	s := w.Sample()

	f := SampleToCore(s, 9, stamp)
	assert.Equal(t, uint(9), f.SessionID)
	assert.Equal(t, uint64(5), f.Tick)
	assert.Equal(t, stamp, f.Time)
	assert.Equal(t, core.Point{X: s.Car.X, Y: s.Car.Y}, f.Car)
	assert.Equal(t, string(s.TruckState), f.TruckState)
	assert.Equal(t, string(s.Cranes[1].State), f.Cranes[1].State)
	assert.Equal(t, s.Cranes[0].Hook.Y, f.Cranes[0].Hook.Y)
	assert.Equal(t, s.Lights, f.Lights)
}

func TestFrameSample_CranesLandInTheirColumns(t *testing.T) {
	f := core.FrameSample{
		Cranes: [2]core.CraneSample{
			{State: "lowering", BoomRaise: -0.4, Hook: core.Point{X: -12, Y: 535}},
			{State: "working", BoomRaise: 0.1, Hook: core.Point{X: 12, Y: 520}},
		},
	}
	m := CoreToFrameSample(f)
	assert.Equal(t, "lowering", m.CraneLeft.State)
	assert.Equal(t, -12.0, m.CraneLeft.HookX)
	assert.Equal(t, "working", m.CraneRight.State)
	assert.Equal(t, f, FrameSampleToCore(m))
}

func TestSession_OutcomeAndEndTime(t *testing.T) {
	s := core.Session{
		ID:        4,
		Name:      "soak",
		StartedAt: stamp,
		Outcome:   core.Outcome{FinalTick: 600, Delivered: true, Events: 12},
	}

	open := CoreToSession(s)
	assert.Equal(t, uint(4), open.ID)
	assert.False(t, open.EndedAt.Valid)
	assert.JSONEq(t, `{"finalTick":600,"delivered":true,"stage1ShowDone":false,"events":12,"frames":0}`, string(open.Outcome))

	s.EndedAt = stamp.Add(time.Minute)
	closed := CoreToSession(s)
	require.True(t, closed.EndedAt.Valid)
	assert.Equal(t, s, SessionToCore(closed))
}

func TestEventToCore(t *testing.T) {
	e := EventToCore(world.Event{Tick: 77, Kind: world.EventDoorState, Actor: "door", State: "opening"}, 2, stamp)
	assert.Equal(t, core.WorldEvent{SessionID: 2, Tick: 77, Time: stamp, Kind: "door.state", Actor: "door", State: "opening"}, e)
	assert.Equal(t, e, WorldEventToCore(CoreToWorldEvent(e)))
}

func TestTruckRouteWKT(t *testing.T) {
	wkt := TruckRouteWKT(layout.Default())
	assert.Equal(t, "LINESTRING(75 545,131 545,131 495,0 495,0 -200,58 -200)", wkt)
}

func TestOutcomeOf(t *testing.T) {
	w := world.New(layout.Default(), world.Options{Clock: clock.Fixed{Hour: 12}})
	w.Tick(1, player.Input{})
	o := OutcomeOf(w, 3, 1)
	assert.Equal(t, uint64(1), o.FinalTick)
	assert.False(t, o.Delivered)
	assert.Equal(t, 3, o.Events)
	assert.Equal(t, 1, o.Frames)
}
