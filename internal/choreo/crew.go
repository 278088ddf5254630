package choreo

import (
	"math"

	"github.com/moonlitstudios/backlot/internal/geo"
)

const (
	crewWalkSpeed   = 0.25
	crewPauseRate   = 0.005
	crewSetDownRate = 0.008
	crewLegs        = 8
	crewBoardFrames = 60
)

var (
	crewBackOffset   = geo.Vec2{X: -10, Y: 8}
	crewSecondOffset = geo.Vec2{X: 3, Y: 5}
	crewCabOffset    = geo.Vec2{X: 10, Y: -2}
	crewIdle1Offset  = geo.Vec2{X: -10, Y: 8}
	crewIdle2Offset  = geo.Vec2{X: -7, Y: 13}
)

// Leg names the kind of work done in a crew phase.
type Leg string

const (
	LegPause   Leg = "pause"
	LegCarry   Leg = "carry"
	LegSetDown Leg = "set-down"
	LegReturn  Leg = "return"
)

// legOf maps phases 0..7 to their leg kind.
func legOf(phase int) Leg {
	switch phase % 4 {
	case 0:
		return LegPause
	case 1:
		return LegCarry
	case 2:
		return LegSetDown
	default:
		return LegReturn
	}
}

// Crew is the pair of workers delivering one fixture to each crane: the
// right crane on the first trip, the left on the second.
type Crew struct {
	truckStart geo.Vec2
	items      [2]*DeliveryItem

	phase int
	t     float64
	done  bool

	w1, w2   geo.Vec2
	Dir      geo.Vec2
	Carrying bool
}

// NewCrew starts the crew pausing at the back of a truck parked at truckStart.
func NewCrew(truckStart geo.Vec2, coord *Coordinator) *Crew {
	c := &Crew{
		truckStart: truckStart,
		items:      coord.Items,
		Dir:        geo.Vec2{X: -1, Y: 0},
	}
	c.place(0)
	return c
}

func (c *Crew) Phase() int { return c.phase }
func (c *Crew) Done() bool { return c.done }

// Progress is the normalized progress through the current leg.
func (c *Crew) Progress() float64 { return c.t }

func (c *Crew) back() geo.Vec2 {
	return c.truckStart.Add(crewBackOffset)
}

// tripItem returns the item served by the trip that contains phase.
func (c *Crew) tripItem(phase int) *DeliveryItem {
	if phase < 4 {
		return c.items[RightCrane]
	}
	return c.items[LeftCrane]
}

// legEnds returns where the lead worker walks from and to in phase.
func (c *Crew) legEnds(phase int) (geo.Vec2, geo.Vec2) {
	drop := c.tripItem(phase).Drop
	switch legOf(phase) {
	case LegCarry:
		return c.back(), drop
	case LegReturn:
		return drop, c.back()
	case LegSetDown:
		return drop, drop
	default:
		return c.back(), c.back()
	}
}

// rate is the progress gained per frame in phase.
func (c *Crew) rate(phase int) float64 {
	switch legOf(phase) {
	case LegPause:
		return crewPauseRate
	case LegSetDown:
		return crewSetDownRate
	default:
		from, to := c.legEnds(phase)
		return crewWalkSpeed / math.Max(from.Dist(to), 1)
	}
}

// Advance moves the crew through its legs. Progress past the end of a leg
// carries into the next one.
func (c *Crew) Advance(dt float64) {
	for dt > 0 && !c.done {
		rate := c.rate(c.phase)
		need := (1 - c.t) / rate
		if dt < need {
			c.t += rate * dt
			dt = 0
		} else {
			c.t = 1
			dt -= need
		}
		c.place(c.t)

		if c.t >= 1 {
			c.t = 0
			c.phase++
			if c.phase >= crewLegs {
				c.done = true
				break
			}
			c.place(0)
		}
	}
}

// place positions both workers for progress t in the current phase.
func (c *Crew) place(t float64) {
	from, to := c.legEnds(c.phase)
	leg := legOf(c.phase)

	switch leg {
	case LegCarry, LegReturn:
		if d, ok := to.Sub(from).Unit(); ok {
			c.Dir = d
		}
		c.w1 = from.Lerp(to, math.Min(t, 1))
		c.w2 = c.w1.Add(crewSecondOffset)
	case LegSetDown:
		c.w1 = to
		c.w2 = to.Add(crewSecondOffset)
		c.tripItem(c.phase).place()
	default:
		c.w1 = from
		c.w2 = from.Add(geo.Vec2{Y: 5})
	}
	c.Carrying = leg == LegCarry
}

// Walking reports whether the workers are moving, for the walk cycle.
func (c *Crew) Walking(truck TruckState) bool {
	if truck == TruckLoading {
		return true
	}
	if c.done {
		return false
	}
	leg := legOf(c.phase)
	return leg == LegCarry || leg == LegReturn
}

// Visible reports whether the workers are drawn at all.
func (c *Crew) Visible(truck TruckState, truckTimer float64) bool {
	return truck == TruckParked || (truck == TruckLoading && truckTimer < crewBoardFrames)
}

// Workers returns both worker positions. While the truck is loading they
// walk from their idle spots to the cab, derived from the truck's timer.
func (c *Crew) Workers(truck TruckState, truckTimer float64, truckPos geo.Vec2) (geo.Vec2, geo.Vec2) {
	if truck != TruckLoading {
		return c.w1, c.w2
	}
	lt := math.Min(truckTimer/crewBoardFrames, 1)
	cab := truckPos.Add(crewCabOffset)
	idle1 := c.truckStart.Add(crewIdle1Offset)
	idle2 := c.truckStart.Add(crewIdle2Offset)
	return idle1.Lerp(cab, lt), idle2.Lerp(cab, lt)
}
