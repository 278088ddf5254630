package actor

import (
	"github.com/moonlitstudios/backlot/internal/geo"
)

// Waypoints is an immutable, non-empty ordered list of targets.
type Waypoints struct {
	points []geo.Vec2
}

// NewWaypoints builds a list that always holds at least one point.
func NewWaypoints(first geo.Vec2, rest ...geo.Vec2) Waypoints {
	points := make([]geo.Vec2, 0, len(rest)+1)
	points = append(points, first)
	points = append(points, rest...)
	return Waypoints{points: points}
}

func (w Waypoints) Len() int {
	return len(w.points)
}

// At returns waypoint i.
func (w Waypoints) At(i int) geo.Vec2 {
	return w.points[i]
}

// Last returns the final waypoint.
func (w Waypoints) Last() geo.Vec2 {
	return w.points[len(w.points)-1]
}

// Points returns a copy of the list.
func (w Waypoints) Points() []geo.Vec2 {
	out := make([]geo.Vec2, len(w.points))
	copy(out, w.points)
	return out
}

// Step is the pose produced by one PathFollower advance.
type Step struct {
	Pos    geo.Vec2
	Facing geo.Facing
	// Reached lists the waypoint indices arrived at during the step.
	Reached []int
	// Leftover is the dt not needed once the final waypoint was reached.
	Leftover float64
}

// PathFollower moves an actor along Waypoints at a fixed speed per frame.
type PathFollower struct {
	route  Waypoints
	speed  float64
	cursor int
}

// NewPathFollower panics on a non-positive speed; routes are fixed at
// construction so this is a programming error.
func NewPathFollower(route Waypoints, speed float64) *PathFollower {
	if speed <= 0 {
		panic("actor: path follower speed must be positive")
	}
	return &PathFollower{route: route, speed: speed}
}

// Cursor is the index of the current target; it equals Len() when done.
func (p *PathFollower) Cursor() int {
	return p.cursor
}

func (p *PathFollower) Done() bool {
	return p.cursor >= p.route.Len()
}

func (p *PathFollower) Route() Waypoints {
	return p.route
}

// Target returns the current waypoint, or the last one when done.
func (p *PathFollower) Target() geo.Vec2 {
	if p.Done() {
		return p.route.Last()
	}
	return p.route.At(p.cursor)
}

// Advance moves from pos by speed*dt along the route. Travel left over after
// reaching a waypoint carries on toward the next one, so splitting dt across
// calls does not change where the actor ends up.
func (p *PathFollower) Advance(pos geo.Vec2, facing geo.Facing, dt float64) Step {
	step := Step{Pos: pos, Facing: facing}
	budget := p.speed * dt

	for !p.Done() {
		target := p.route.At(p.cursor)
		delta := target.Sub(step.Pos)
		step.Facing = geo.DeriveFacing(delta.X, delta.Y, step.Facing)

		dist := delta.Len()
		if dist <= budget {
			budget -= dist
			step.Pos = target
			step.Reached = append(step.Reached, p.cursor)
			p.cursor++
			continue
		}

		step.Pos = step.Pos.Add(delta.Scale(budget / dist))
		budget = 0
		break
	}

	if p.Done() {
		step.Leftover = budget / p.speed
	}
	return step
}
