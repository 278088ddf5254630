package choreo

import (
	"math"

	"github.com/moonlitstudios/backlot/internal/geo"
)

// ScreeningStep is the living-room sequence leading to the reel menu.
type ScreeningStep string

const (
	StepPopcorn ScreeningStep = "popcorn"
	StepCouch   ScreeningStep = "couch"
	StepRemote  ScreeningStep = "remote"
	StepPOV     ScreeningStep = "pov"
	StepMenu    ScreeningStep = "menu"
	StepPlaying ScreeningStep = "playing"
)

// RoomExit is where the viewer leaves the screening room for.
type RoomExit string

const (
	RoomExitNone   RoomExit = ""
	RoomExitDoor   RoomExit = "door"
	RoomExitPoster RoomExit = "poster"
	RoomExitBack   RoomExit = "back"
)

const (
	roomSpawnFrames = 300
	roomWalkSpeed   = 2.4
	roomPOVRate     = 0.02
	roomMenuRate    = 0.03
	roomPressAt     = 0.8
	roomSelectAt    = 0.5
	roomCycleFrames = 60
	roomWallPad     = 12
	roomBodyHalf    = 10
)

// Room is the fixed living-room furniture.
type Room struct {
	Size     geo.Vec2
	Couch    geo.Rect
	Door     geo.Rect
	Poster   geo.Rect
	Popcorn  geo.Rect
	Blockers []geo.Rect
	Start    geo.Vec2
	// Reels are the categories offered in the menu.
	Reels []string
}

// DefaultRoom is the screening room layout.
func DefaultRoom() Room {
	return Room{
		Size:    geo.Vec2{X: 540, Y: 420},
		Couch:   geo.Rect{X: 240, Y: 190, W: 150, H: 54},
		Door:    geo.Rect{X: 240, Y: 378, W: 60, H: 42},
		Poster:  geo.Rect{X: 420, Y: 16, W: 90, H: 110},
		Popcorn: geo.Rect{X: 66, Y: 52, W: 24, H: 24},
		Blockers: []geo.Rect{
			{X: 270, Y: 28, W: 90, H: 28},
			{X: 30, Y: 45, W: 105, H: 42},
			{X: 279, Y: 145, W: 72, H: 36},
			{X: 220, Y: 180, W: 16, H: 50},
			{X: 30, Y: 280, W: 80, H: 20},
		},
		Start: geo.Vec2{X: 270, Y: 354},
		Reels: []string{"Short Films", "Commercials", "TV", "Feature Films", "Advertisements"},
	}
}

// Screening drives the viewer from grabbing popcorn to picking a reel.
type Screening struct {
	Room Room

	Pos     geo.Vec2
	Facing  geo.Facing
	Sitting bool

	step      ScreeningStep
	spawn     float64
	povFade   float64
	menuFade  float64
	selection int
	cycle     float64
	autoCycle bool
	playing   string
}

func NewScreening(room Room) *Screening {
	if len(room.Reels) == 0 {
		room.Reels = DefaultRoom().Reels
	}
	s := &Screening{Room: room}
	s.Reset()
	return s
}

// Reset puts the viewer back at the door with nothing collected.
func (s *Screening) Reset() {
	s.Pos = s.Room.Start
	s.Facing = geo.FacingDown
	s.Sitting = false
	s.step = StepPopcorn
	s.spawn = roomSpawnFrames
	s.povFade = 0
	s.menuFade = 0
	s.selection = 0
	s.cycle = 0
	s.autoCycle = true
	s.playing = ""
}

func (s *Screening) Step() ScreeningStep { return s.step }
func (s *Screening) POVFade() float64    { return s.povFade }
func (s *Screening) MenuFade() float64   { return s.menuFade }
func (s *Screening) Selection() int      { return s.selection }

// Playing returns the selected reel once the menu has been left.
func (s *Screening) Playing() string { return s.playing }

// ExitsArmed reports whether the door and poster triggers are live.
func (s *Screening) ExitsArmed() bool { return s.spawn <= 0 }

// Advance moves the viewer by the normalized input and applies the step
// triggers. It returns a non-empty RoomExit when the viewer leaves.
func (s *Screening) Advance(dt float64, move geo.Vec2) RoomExit {
	switch s.step {
	case StepRemote:
		s.povFade = 0
		s.step = StepPOV
		return RoomExitNone
	case StepPOV:
		s.povFade = math.Min(1, s.povFade+roomPOVRate*dt)
		return RoomExitNone
	case StepMenu:
		s.menuFade = math.Min(1, s.menuFade+roomMenuRate*dt)
		if s.autoCycle {
			s.cycle += dt
			for s.cycle >= roomCycleFrames {
				s.cycle -= roomCycleFrames
				s.selection = (s.selection + 1) % len(s.Room.Reels)
			}
		}
		return RoomExitNone
	case StepPlaying:
		return RoomExitNone
	}

	if s.Sitting {
		return RoomExitNone
	}
	s.walk(dt, move)

	s.spawn = math.Max(0, s.spawn-dt)
	if s.ExitsArmed() {
		door := s.Room.Door.Center()
		if geo.NearBox(s.Pos, door, 35, 30) {
			return RoomExitDoor
		}
		poster := geo.Vec2{X: s.Room.Poster.X + s.Room.Poster.W/2, Y: s.Room.Poster.Y + s.Room.Poster.H}
		if geo.NearBox(s.Pos, poster, 50, 30) {
			return RoomExitPoster
		}
	}

	switch s.step {
	case StepPopcorn:
		if geo.NearBox(s.Pos, s.Room.Popcorn.Center(), 50, 50) {
			s.step = StepCouch
		}
	case StepCouch:
		couch := s.Room.Couch.Center()
		if geo.NearBox(s.Pos, couch, 50, 40) {
			s.Sitting = true
			s.Pos = couch
			s.Facing = geo.FacingUp
			s.step = StepRemote
		}
	}
	return RoomExitNone
}

func (s *Screening) walk(dt float64, move geo.Vec2) {
	dir, ok := move.Unit()
	if !ok {
		return
	}
	d := dir.Scale(roomWalkSpeed * dt)
	s.Facing = geo.DeriveFacing(d.X, d.Y, s.Facing)

	next := s.Pos.Add(d)
	switch {
	case s.canStand(next):
		s.Pos = next
	case s.canStand(geo.Vec2{X: next.X, Y: s.Pos.Y}):
		s.Pos.X = next.X
	case s.canStand(geo.Vec2{X: s.Pos.X, Y: next.Y}):
		s.Pos.Y = next.Y
	}
}

func (s *Screening) canStand(p geo.Vec2) bool {
	if p.X-roomBodyHalf < roomWallPad || p.X+roomBodyHalf > s.Room.Size.X-roomWallPad {
		return false
	}
	if p.Y-roomBodyHalf < roomWallPad || p.Y+roomBodyHalf > s.Room.Size.Y-roomWallPad {
		return false
	}
	blockers := s.Room.Blockers
	if s.step == StepPopcorn {
		blockers = append([]geo.Rect{s.Room.Couch}, blockers...)
	}
	for _, b := range blockers {
		if p.X+roomBodyHalf > b.X && p.X-roomBodyHalf < b.X+b.W &&
			p.Y+roomBodyHalf > b.Y && p.Y-roomBodyHalf < b.Y+b.H {
			return false
		}
	}
	return true
}

// Press is the remote's red button: it opens the menu once the POV has
// faded in far enough.
func (s *Screening) Press() bool {
	if s.step != StepPOV || s.povFade < roomPressAt {
		return false
	}
	s.step = StepMenu
	s.menuFade = 0
	s.selection = 0
	s.autoCycle = true
	s.cycle = 0
	return true
}

// Scroll moves the menu selection and stops the auto cycle.
func (s *Screening) Scroll(delta int) {
	if s.step != StepMenu || delta == 0 {
		return
	}
	s.autoCycle = false
	n := len(s.Room.Reels)
	s.selection = ((s.selection+delta)%n + n) % n
}

// Select plays reel i (or the current selection when i < 0).
func (s *Screening) Select(i int) bool {
	if s.step != StepMenu || s.menuFade < roomSelectAt {
		return false
	}
	if i < 0 {
		i = s.selection
	}
	if i >= len(s.Room.Reels) {
		return false
	}
	s.selection = i
	s.autoCycle = false
	s.playing = s.Room.Reels[i]
	s.step = StepPlaying
	return true
}

// BackToMenu leaves a playing reel.
func (s *Screening) BackToMenu() {
	if s.step != StepPlaying {
		return
	}
	s.step = StepMenu
	s.menuFade = 0
	s.autoCycle = true
	s.cycle = 0
	s.playing = ""
}

// Back steps out of whatever the viewer is doing: a playing reel returns to
// the menu, the menu returns to the room, and anywhere else leaves it.
func (s *Screening) Back() RoomExit {
	switch s.step {
	case StepPlaying:
		s.BackToMenu()
		return RoomExitNone
	case StepMenu:
		s.Reset()
		return RoomExitNone
	}
	return RoomExitBack
}
