package player

import (
	"math"

	"github.com/moonlitstudios/backlot/internal/geo"
)

const autopilotReach = 12

// Autopilot drives the car through a list of targets in order.
type Autopilot struct {
	targets []geo.Vec2
	next    int
}

func NewAutopilot(targets ...geo.Vec2) *Autopilot {
	return &Autopilot{targets: targets}
}

// Done reports whether every target has been reached.
func (a *Autopilot) Done() bool {
	return a.next >= len(a.targets)
}

// Input returns the controls that steer car toward the current target.
func (a *Autopilot) Input(car *Car) Input {
	for !a.Done() && geo.Within(car.Pos, a.targets[a.next], autopilotReach) {
		a.next++
	}
	if a.Done() {
		return Input{Brake: car.Speed > 0}
	}

	to := a.targets[a.next].Sub(car.Pos)
	in := Input{Thrust: true, Aim: to, Aiming: true}

	// sharp turns also use the discrete steer
	if diff := wrapAngle(angleOf(to) - car.Angle); diff > 0.5 {
		in.Steer = 1
	} else if diff < -0.5 {
		in.Steer = -1
	}
	if car.Speed > MaxSpeed*0.6 && in.Steer != 0 {
		in.Thrust = false
	}
	return in
}

func angleOf(v geo.Vec2) float64 {
	return math.Atan2(v.Y, v.X)
}
