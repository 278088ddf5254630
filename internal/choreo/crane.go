package choreo

import (
	"math"

	"github.com/moonlitstudios/backlot/internal/actor"
	"github.com/moonlitstudios/backlot/internal/geo"
)

// CraneState is the crane's position in its one-way delivery routine.
type CraneState string

const (
	CraneWorking  CraneState = "working"
	CraneLowering CraneState = "lowering"
	CraneLifting  CraneState = "lifting"
	CraneHolding  CraneState = "holding"
)

type craneEvent int

const (
	craneNone craneEvent = iota
	craneInbound
	craneGrabbed
	craneRaised
)

// nextCraneState is total over (state, event); anything not listed stays put.
func nextCraneState(s CraneState, ev craneEvent) CraneState {
	switch {
	case s == CraneWorking && ev == craneInbound:
		return CraneLowering
	case s == CraneLowering && ev == craneGrabbed:
		return CraneLifting
	case s == CraneLifting && ev == craneRaised:
		return CraneHolding
	}
	return s
}

const (
	craneIdleRate  = 0.0015
	craneBoomRate  = 0.003
	craneGround    = -0.83
	craneHeld      = 1.0
	craneGrabAt    = 0.95
	craneSwingAmp  = 0.2
	craneRaiseAmp  = 0.25
	craneDriveAmp  = 6.0
	craneBoomLen   = 35.0
	craneBaseRise  = 30.0
	craneCableDrop = 20.0
)

// Crane is one of the two crawler cranes flanking the rocket.
type Crane struct {
	Left bool
	Base geo.Vec2

	m actor.Machine[CraneState]

	idlePhase   int
	idleT       float64
	BoomSwing   float64
	BoomRaise   float64
	DriveOffset float64
	lowerFrom   float64
}

// NewCrane creates a crane in the working state. startPhase selects which
// idle sub-phase (0 swing, 1 raise, 2 drive) it begins in.
func NewCrane(base geo.Vec2, left bool, startPhase int) *Crane {
	return &Crane{
		Left:      left,
		Base:      base,
		m:         actor.NewMachine(CraneWorking),
		idlePhase: startPhase % 3,
	}
}

func (c *Crane) State() CraneState { return c.m.State() }

// Pos is the crane body position including the idle drive offset.
func (c *Crane) Pos() geo.Vec2 {
	return geo.Vec2{X: c.Base.X, Y: c.Base.Y - c.DriveOffset}
}

// dir points from the crane toward the rocket.
func (c *Crane) dir() float64 {
	if c.Left {
		return 1
	}
	return -1
}

// BoomStart is the boom pivot on the cab.
func (c *Crane) BoomStart() geo.Vec2 {
	p := c.Pos()
	return geo.Vec2{X: p.X + c.dir()*3, Y: p.Y - 10}
}

// BoomTip is the end of the boom.
func (c *Crane) BoomTip() geo.Vec2 {
	start := c.BoomStart()
	rise := craneBaseRise + c.BoomRaise*craneBaseRise
	swing := c.BoomSwing * craneBoomLen
	return geo.Vec2{
		X: start.X + c.dir()*craneBoomLen + swing*c.dir(),
		Y: start.Y - rise,
	}
}

// Hook is the bottom of the cable, where a picked up item hangs.
func (c *Crane) Hook() geo.Vec2 {
	tip := c.BoomTip()
	return geo.Vec2{X: tip.X, Y: tip.Y + craneCableDrop}
}

// Advance runs one step of the crane against its item and the inbound signal.
func (c *Crane) Advance(dt float64, inbound bool, item *DeliveryItem) {
	for dt > 0 {
		var ev craneEvent
		switch c.m.State() {
		case CraneWorking:
			dt = c.work(dt)
			if inbound && !item.Placed() && !item.PickedUp() {
				ev = craneInbound
				c.lowerFrom = c.BoomRaise
				c.DriveOffset = 0
				c.BoomSwing = 0
			}
		case CraneLowering:
			dt, ev = c.lower(dt, item)
		case CraneLifting:
			dt, ev = c.lift(dt)
		case CraneHolding:
			c.BoomRaise = craneHeld
			c.BoomSwing = 0
			c.DriveOffset = 0
			dt = 0
		}

		next := nextCraneState(c.m.State(), ev)
		if !c.m.Transition(next) {
			return
		}
	}
}

// work plays the idle swing/raise/drive loop. It only ever returns 0 since
// the idle loop has no exit of its own.
func (c *Crane) work(dt float64) float64 {
	c.idleT += craneIdleRate * dt
	for c.idleT >= 1 {
		c.idleT--
		c.idlePhase = (c.idlePhase + 1) % 3
	}
	pp := math.Sin(c.idleT * math.Pi)

	c.BoomSwing, c.BoomRaise, c.DriveOffset = 0, 0, 0
	switch c.idlePhase {
	case 0:
		side := 1.0
		if c.Left {
			side = -1
		}
		c.BoomSwing = pp * craneSwingAmp * side
	case 1:
		c.BoomRaise = pp * craneRaiseAmp
	default:
		c.DriveOffset = -pp * craneDriveAmp
	}
	return 0
}

func (c *Crane) lower(dt float64, item *DeliveryItem) (float64, craneEvent) {
	before := c.m.Timer()
	c.m.Advance(craneBoomRate * dt)
	t := math.Min(c.m.Timer(), 1)
	c.BoomRaise = c.lowerFrom + (craneGround-c.lowerFrom)*t

	if t >= craneGrabAt && item.Placed() && !item.PickedUp() {
		c.BoomRaise = craneGround
		item.pickUp()
		// progress past the grab point carries into the lift
		over := c.m.Timer() - math.Max(before, craneGrabAt)
		return math.Max(over, 0) / craneBoomRate, craneGrabbed
	}
	return 0, craneNone
}

func (c *Crane) lift(dt float64) (float64, craneEvent) {
	t, rest := actor.Ramp(c.m.Timer(), craneBoomRate, dt)
	c.m.Advance(t - c.m.Timer())
	c.BoomRaise = craneGround + t*(craneHeld-craneGround)
	c.BoomSwing = 0
	c.DriveOffset = 0
	if t >= 1 {
		c.BoomRaise = craneHeld
		return rest, craneRaised
	}
	return 0, craneNone
}
