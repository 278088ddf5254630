// Package world owns every actor of the backlot and advances them in one
// fixed order per tick.
package world

import (
	"math/rand"
	"sort"

	"github.com/moonlitstudios/backlot/internal/choreo"
	"github.com/moonlitstudios/backlot/internal/clock"
	"github.com/moonlitstudios/backlot/internal/compositor"
	"github.com/moonlitstudios/backlot/internal/geo"
	"github.com/moonlitstudios/backlot/internal/layout"
	"github.com/moonlitstudios/backlot/internal/light"
	"github.com/moonlitstudios/backlot/internal/player"
)

// Options are the host-side settings of a world.
type Options struct {
	// Clock supplies the time of day. Nil means the wall clock.
	Clock clock.Source
	// Seed feeds the lightning strike durations.
	Seed int64
	// Viewport is the screen size in pixels.
	Viewport geo.Vec2
}

// DefaultViewport is used when Options leaves the viewport empty.
var DefaultViewport = geo.Vec2{X: 960, Y: 720}

// panelReadyFrames is how long the video panel buffers after it starts.
const panelReadyFrames = 20

// Flags is the navigation surface polled by the host after each tick.
type Flags struct {
	// Arrived is the destination the car is inside, or empty.
	Arrived        string               `json:"arrived"`
	TruckState     choreo.TruckState    `json:"truckState"`
	DoorState      choreo.DoorState     `json:"doorState"`
	Stage1ShowDone bool                 `json:"stage1ShowDone"`
	PanelPlaying   bool                 `json:"panelPlaying"`
	CraneStates    [2]choreo.CraneState `json:"craneStates"`
	Delivered      bool                 `json:"delivered"`
	// Screening is the screening room step while the viewer is inside.
	Screening choreo.ScreeningStep `json:"screening,omitempty"`
}

type zone struct {
	layout.Zone
	inside bool
}

// World is the aggregate of all simulated actors.
type World struct {
	layout   layout.Layout
	clock    clock.Source
	viewport geo.Vec2
	tick     uint64

	Car    *player.Car
	Camera *player.Camera

	coord  *choreo.Coordinator
	Crew   *choreo.Crew
	Truck  *choreo.Truck
	Door   *choreo.Door
	Police *choreo.Police
	Cranes [2]*choreo.Crane

	// Billboards are sorted top to bottom, each with its fixture flash.
	Billboards []layout.Billboard
	Flashes    []*choreo.FlashSequencer
	Lightning  *choreo.FlashSequencer

	// Screening is the room behind the screening zone. The car waits
	// outside while the viewer is in it.
	Screening *choreo.Screening
	inRoom    bool

	signals      choreo.Signals
	zones        []zone
	panelPlaying bool
	panelTimer   float64

	events []Event
	last   snapshot

	lights     *light.Registry
	compositor *compositor.Compositor
}

// New builds the world from a validated layout.
func New(l layout.Layout, opts Options) *World {
	if opts.Clock == nil {
		opts.Clock = clock.Wall{}
	}
	if opts.Viewport == (geo.Vec2{}) {
		opts.Viewport = DefaultViewport
	}

	left, right := l.Cranes[choreo.LeftCrane], l.Cranes[choreo.RightCrane]
	coord := choreo.NewCoordinator(left.Drop, right.Drop)

	exit := choreo.TruckExit(l.Truck.Exit)
	w := &World{
		layout:   l,
		clock:    opts.Clock,
		viewport: opts.Viewport,

		Car:    player.NewCar(l.CarStart),
		Camera: player.NewCamera(opts.Viewport.Scale(1/l.Pixel), l.CarStart),

		coord:  coord,
		Crew:   choreo.NewCrew(l.Truck.Start, coord),
		Truck:  choreo.NewTruck(l.Truck.Start, l.TruckRoute(), exit, l.Truck.EnterFacing),
		Door:   choreo.NewDoor(geo.V(l.Door.Rect.X, l.Door.Rect.Y), geo.V(l.Door.Rect.W, l.Door.Rect.H), l.Door.OpenAt),
		Police: choreo.NewPolice(l.Police.Start, l.PoliceRoute()),
		Cranes: [2]*choreo.Crane{
			choreo.NewCrane(left.Base, true, left.StartPhase),
			choreo.NewCrane(right.Base, false, right.StartPhase),
		},
		Lightning: choreo.NewLightning(rand.New(rand.NewSource(opts.Seed))),
		Screening: choreo.NewScreening(choreo.DefaultRoom()),

		lights:     light.NewRegistry(),
		compositor: compositor.New(),
	}

	w.Billboards = append([]layout.Billboard(nil), l.Billboards...)
	sort.SliceStable(w.Billboards, func(i, j int) bool { return w.Billboards[i].Pos.Y < w.Billboards[j].Pos.Y })
	for range w.Billboards {
		w.Flashes = append(w.Flashes, choreo.NewBillboardFlash())
	}

	for _, z := range l.Destinations {
		w.zones = append(w.zones, zone{Zone: z, inside: geo.Within(w.Car.Pos, z.Pos, z.Radius)})
	}

	w.signals = coord.Signals(w.Crew, w.Truck)
	w.last = w.snapshot()
	w.registerLights()
	return w
}

// Layout returns the layout the world was built from.
func (w *World) Layout() layout.Layout { return w.layout }

// TickCount is the number of ticks run so far.
func (w *World) TickCount() uint64 { return w.tick }

// Signals returns the coordinator view of the last tick.
func (w *World) Signals() choreo.Signals { return w.signals }

// Items returns the two delivery items, left then right.
func (w *World) Items() [2]*choreo.DeliveryItem { return w.coord.Items }

// InRoom reports whether the input is driving the screening room viewer
// instead of the car.
func (w *World) InRoom() bool { return w.inRoom }

// Tick advances everything by dt nominal frames: the player, the crew, the
// coordinator signals, the truck, the door, the police car, the cranes, the
// flashes and finally the proximity triggers.
func (w *World) Tick(dt float64, in player.Input) {
	w.tick++

	if w.inRoom {
		w.advanceRoom(dt, in)
	} else {
		w.Car.Advance(dt, in)
	}
	w.Camera.Follow(dt, w.Car.Pos)

	w.Crew.Advance(dt)
	w.signals = w.coord.Signals(w.Crew, w.Truck)

	w.Truck.Advance(dt, w.signals)
	w.Door.Advance(dt, w.signals)
	w.Police.Advance(dt)
	for i, c := range w.Cranes {
		c.Advance(dt, w.signals.Inbound[i], w.coord.Items[i])
	}

	for _, f := range w.Flashes {
		f.Advance(dt)
	}
	w.Lightning.Advance(dt)

	w.triggerFlashes()
	w.triggerLightning()
	w.updatePanel(dt)
	w.updateZones()

	w.recordTransitions()
}

// triggerFlashes sets off the billboard ahead of the car once it passes
// below the one after it. The first billboard never flickers.
func (w *World) triggerFlashes() {
	for i := len(w.Billboards) - 1; i >= 2; i-- {
		if w.Car.Pos.Y < w.Billboards[i].Pos.Y-w.layout.FlashAhead {
			if w.Flashes[i-1].Trigger() {
				w.emit(EventBillboardFlash, billboardName(i-1), "")
			}
		}
	}
}

func (w *World) triggerLightning() {
	s := w.layout.Stage2
	if s.Trigger <= 0 {
		return
	}
	if geo.Within(w.Car.Pos, s.Rect.Center(), s.Trigger) && w.Lightning.Trigger() {
		w.emit(EventLightning, "stage2", "")
	}
}

func (w *World) updatePanel(dt float64) {
	p := w.layout.Panel
	near := p.ViewDist > 0 && geo.Within(w.Car.Pos, p.Pos, p.ViewDist)
	switch {
	case near && !w.panelPlaying:
		w.panelPlaying = true
		w.panelTimer = 0
		w.emit(EventPanelPlaying, "panel", "")
	case !near && w.panelPlaying:
		w.panelPlaying = false
		w.emit(EventPanelPaused, "panel", "")
	}
	if w.panelPlaying {
		w.panelTimer += dt
	}
}

// PanelReady reports whether the video panel has a frame to show.
func (w *World) PanelReady() bool {
	return w.panelPlaying && w.panelTimer >= panelReadyFrames
}

// updateZones fires an arrival when the car enters a destination circle.
// Being inside one at construction does not count.
func (w *World) updateZones() {
	for i := range w.zones {
		z := &w.zones[i]
		inside := geo.Within(w.Car.Pos, z.Pos, z.Radius)
		if inside && !z.inside {
			w.emit(EventZoneArrived, z.ID, "")
			if z.ID == w.layout.ScreeningZone && !w.inRoom {
				w.enterRoom()
			}
		}
		z.inside = inside
	}
}

func (w *World) enterRoom() {
	w.Screening.Reset()
	w.Car.Speed = 0
	w.inRoom = true
}

// advanceRoom applies at most one button per tick, Back first, then walks
// the viewer. The car stays parked in the zone it arrived in, so leaving the
// room does not re-enter it until the car drives out and back.
func (w *World) advanceRoom(dt float64, in player.Input) {
	s := w.Screening
	exit := choreo.RoomExitNone
	switch {
	case in.Back:
		exit = s.Back()
	case in.Press:
		s.Press()
	case in.Select:
		s.Select(-1)
	case in.Scroll != 0:
		s.Scroll(in.Scroll)
	}
	if exit == choreo.RoomExitNone {
		exit = s.Advance(dt, in.Move())
	}
	if exit != choreo.RoomExitNone {
		w.inRoom = false
		w.emit(EventScreeningLeft, "screening", string(exit))
	}
}

// Flags returns the navigation flags after the last tick.
func (w *World) Flags() Flags {
	f := Flags{
		TruckState:     w.Truck.State(),
		DoorState:      w.Door.State(),
		Stage1ShowDone: w.Door.ShowDone(),
		PanelPlaying:   w.panelPlaying,
		Delivered:      w.coord.Delivered(),
	}
	for i, c := range w.Cranes {
		f.CraneStates[i] = c.State()
	}
	if w.inRoom {
		f.Screening = w.Screening.Step()
	}
	for _, z := range w.zones {
		if z.inside {
			f.Arrived = z.ID
			break
		}
	}
	return f
}

// Darkness is the ambient darkness right now.
func (w *World) Darkness() float64 {
	return clock.Darkness(w.clock.Now())
}

// Lights returns the lights that contribute at darkness d.
func (w *World) Lights(d float64) []light.Source {
	return w.lights.Active(d)
}

// Frame assembles the compositor input for the current state.
func (w *World) Frame() compositor.Frame {
	now := w.clock.Now()
	d := clock.Darkness(now)
	f := compositor.Frame{
		Width:    w.viewport.X,
		Height:   w.viewport.Y,
		Pixel:    w.layout.Pixel,
		Camera:   w.Camera.Pos,
		Darkness: d,
		Lights:   w.Lights(d),
	}
	if tint, ok := clock.TintFor(now); ok {
		f.Tint = &tint
	}
	return f
}
