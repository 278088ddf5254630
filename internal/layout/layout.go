// Package layout holds the world's static placement data: where the
// actors start, the routes they drive and the scenery around them.
package layout

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/moonlitstudios/backlot/internal/actor"
	"github.com/moonlitstudios/backlot/internal/geo"
)

//go:embed world.yaml
var embeddedWorld []byte

// ErrInvalidLayout is returned when a layout document cannot build a world.
var ErrInvalidLayout = errors.New("invalid layout")

// Crane places one of the two crawler cranes.
type Crane struct {
	Base       geo.Vec2 `yaml:"base"`
	Drop       geo.Vec2 `yaml:"drop"`
	StartPhase int      `yaml:"startPhase"`
}

// Truck is the box truck's parking spot, route and way off scene.
type Truck struct {
	Start geo.Vec2   `yaml:"start"`
	Route []geo.Vec2 `yaml:"route"`
	// Exit is "fade" or "enter".
	Exit        string     `yaml:"exit"`
	EnterFacing geo.Facing `yaml:"enterFacing"`
}

// Door is the stage 1 roll-up door.
type Door struct {
	Rect geo.Rect `yaml:"rect"`
	// OpenAt is the truck route cursor at which the door starts opening.
	OpenAt int `yaml:"openAt"`
}

type Police struct {
	Start geo.Vec2   `yaml:"start"`
	Route []geo.Vec2 `yaml:"route"`
}

type Billboard struct {
	Pos   geo.Vec2 `yaml:"pos"`
	Label string   `yaml:"label"`
}

// Panel is the self-lit social video screen.
type Panel struct {
	Pos      geo.Vec2 `yaml:"pos"`
	Size     geo.Vec2 `yaml:"size"`
	Pad      float64  `yaml:"pad"`
	ViewDist float64  `yaml:"viewDist"`
}

// Zone is an arrival circle the navigation layer reacts to.
type Zone struct {
	ID     string   `yaml:"id"`
	Pos    geo.Vec2 `yaml:"pos"`
	Radius float64  `yaml:"radius"`
}

// Building is a piece of scenery drawn as a block.
type Building struct {
	Name  string   `yaml:"name"`
	Rect  geo.Rect `yaml:"rect"`
	Color string   `yaml:"color"`
}

// Stage2 is the lightning sound stage.
type Stage2 struct {
	Rect    geo.Rect   `yaml:"rect"`
	Windows []geo.Rect `yaml:"windows"`
	Trigger float64    `yaml:"trigger"`
}

type Road struct {
	From geo.Vec2 `yaml:"from"`
	To   geo.Vec2 `yaml:"to"`
}

// Layout is a complete world placement.
type Layout struct {
	Pixel     float64  `yaml:"pixel"`
	RoadWidth float64  `yaml:"roadWidth"`
	CarStart  geo.Vec2 `yaml:"carStart"`

	Rocket       geo.Vec2 `yaml:"rocket"`
	RocketRadius float64  `yaml:"rocketRadius"`
	// Cranes are the left crane then the right crane.
	Cranes []Crane `yaml:"cranes"`

	Truck  Truck  `yaml:"truck"`
	Door   Door   `yaml:"door"`
	Police Police `yaml:"police"`

	Billboards []Billboard `yaml:"billboards"`
	// FlashAhead is how far below a billboard the car must be to set off
	// the one before it.
	FlashAhead float64 `yaml:"flashAhead"`
	Panel      Panel   `yaml:"panel"`

	Destinations []Zone `yaml:"destinations"`
	// ScreeningZone names the destination that opens the screening room.
	ScreeningZone string `yaml:"screeningZone"`

	Stage2     Stage2     `yaml:"stage2"`
	Buildings  []Building `yaml:"buildings"`
	Roads      []Road     `yaml:"roads"`
	Lamps      []geo.Vec2 `yaml:"lamps"`
	WorkLights []geo.Vec2 `yaml:"workLights"`
}

// Default returns the embedded world layout.
func Default() Layout {
	l, err := Parse(embeddedWorld)
	if err != nil {
		panic(fmt.Sprintf("embedded world layout: %v", err))
	}
	return l
}

// Load reads a layout file. An empty path loads the embedded default.
func Load(path string) (Layout, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, err
	}
	l, err := Parse(raw)
	if err != nil {
		return Layout{}, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Parse decodes and validates a layout document.
func Parse(raw []byte) (Layout, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Layout{}, fmt.Errorf("world.yaml: %w", err)
	}
	if err := checkSchema(doc); err != nil {
		return Layout{}, err
	}

	var l Layout
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return Layout{}, fmt.Errorf("world.yaml: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate checks everything the world needs to construct its actors.
func (l Layout) Validate() error {
	if l.Pixel <= 0 {
		return fmt.Errorf("%w: pixel must be positive", ErrInvalidLayout)
	}
	if len(l.Cranes) != 2 {
		return fmt.Errorf("%w: need exactly 2 cranes, got %d", ErrInvalidLayout, len(l.Cranes))
	}
	if len(l.Truck.Route) == 0 {
		return fmt.Errorf("%w: truck route is empty", ErrInvalidLayout)
	}
	switch l.Truck.Exit {
	case "", "fade":
	case "enter":
		if !l.Truck.EnterFacing.Valid() {
			return fmt.Errorf("%w: truck enterFacing %q", ErrInvalidLayout, l.Truck.EnterFacing)
		}
	default:
		return fmt.Errorf("%w: truck exit %q", ErrInvalidLayout, l.Truck.Exit)
	}
	if l.Door.OpenAt < 0 || l.Door.OpenAt > len(l.Truck.Route) {
		return fmt.Errorf("%w: door openAt %d outside truck route", ErrInvalidLayout, l.Door.OpenAt)
	}
	if len(l.Police.Route) == 0 {
		return fmt.Errorf("%w: police route is empty", ErrInvalidLayout)
	}
	ids := make(map[string]bool, len(l.Destinations))
	for _, z := range l.Destinations {
		if z.ID == "" || z.Radius <= 0 {
			return fmt.Errorf("%w: destination %q needs an id and a radius", ErrInvalidLayout, z.ID)
		}
		if ids[z.ID] {
			return fmt.Errorf("%w: duplicate destination %q", ErrInvalidLayout, z.ID)
		}
		ids[z.ID] = true
	}
	if l.ScreeningZone != "" && !ids[l.ScreeningZone] {
		return fmt.Errorf("%w: screeningZone %q is not a destination", ErrInvalidLayout, l.ScreeningZone)
	}
	return nil
}

// TruckRoute returns the truck's waypoints.
func (l Layout) TruckRoute() actor.Waypoints {
	return actor.NewWaypoints(l.Truck.Route[0], l.Truck.Route[1:]...)
}

// PoliceRoute returns the patrol car's waypoints.
func (l Layout) PoliceRoute() actor.Waypoints {
	return actor.NewWaypoints(l.Police.Route[0], l.Police.Route[1:]...)
}

// Zone looks a destination up by id.
func (l Layout) Zone(id string) (Zone, bool) {
	for _, z := range l.Destinations {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}
