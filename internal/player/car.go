// Package player turns normalized input into the player's car pose and
// keeps the camera on it.
package player

import (
	"math"

	"github.com/moonlitstudios/backlot/internal/geo"
)

// Input is one frame of normalized controls.
type Input struct {
	// Steer is -1 (left) .. 1 (right).
	Steer  float64 `json:"steer"`
	Thrust bool    `json:"thrust"`
	Brake  bool    `json:"brake"`
	// Aim is a joystick direction the car turns toward while moving.
	Aim    geo.Vec2 `json:"aim"`
	Aiming bool     `json:"aiming"`

	// Buttons for the screening room. Each press is seen for one tick.
	Press  bool `json:"press"`
	Select bool `json:"select"`
	Back   bool `json:"back"`
	Scroll int  `json:"scroll"`
}

// Move is the walking direction: the joystick when aiming, otherwise the
// steer and thrust/brake keys.
func (in Input) Move() geo.Vec2 {
	if in.Aiming {
		return in.Aim
	}
	v := geo.V(in.Steer, 0)
	switch {
	case in.Thrust:
		v.Y = -1
	case in.Brake:
		v.Y = 1
	}
	return v
}

const (
	MaxSpeed     = 1.2
	Accel        = 0.04
	BrakeDecel   = 0.06
	Friction     = 0.97
	TurnSpeed    = 0.04
	ReverseRatio = 0.4
	aimRate      = 0.08
	stopBelow    = 0.01
	turnAbove    = 0.1
	aimAbove     = 0.05
)

// Car is the player's vehicle.
type Car struct {
	Pos   geo.Vec2
	Angle float64
	Speed float64
}

// NewCar parks a car at pos facing up the road.
func NewCar(pos geo.Vec2) *Car {
	return &Car{Pos: pos, Angle: -math.Pi / 2}
}

// Heading is the unit vector the car points along.
func (c *Car) Heading() geo.Vec2 {
	return geo.FromAngle(c.Angle)
}

// Advance applies one step of input. Rates are per nominal frame and
// scaled by dt.
func (c *Car) Advance(dt float64, in Input) {
	if in.Steer != 0 && math.Abs(c.Speed) > turnAbove {
		c.Angle += TurnSpeed * math.Copysign(1, in.Steer) * sign(c.Speed) * dt
	}

	if in.Aiming && math.Abs(c.Speed) > aimAbove && in.Aim.Len() > 0 {
		target := math.Atan2(in.Aim.Y, in.Aim.X)
		diff := wrapAngle(target - c.Angle)
		c.Angle += diff * (1 - math.Pow(1-aimRate, dt))
	}

	switch {
	case in.Thrust:
		c.Speed += Accel * dt
	case in.Brake:
		c.Speed -= BrakeDecel * dt
	}

	c.Speed *= math.Pow(Friction, dt)
	if math.Abs(c.Speed) < stopBelow {
		c.Speed = 0
	}
	c.Speed = math.Max(-MaxSpeed*ReverseRatio, math.Min(MaxSpeed, c.Speed))

	c.Pos = c.Pos.Add(c.Heading().Scale(c.Speed * dt))
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// wrapAngle maps a into (-pi, pi].
func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
