package geo

import "math"

// Facing is one of the four cardinal orientations used by sprites.
type Facing string

const (
	FacingUp    Facing = "up"
	FacingDown  Facing = "down"
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// Angle returns the heading of f in radians.
func (f Facing) Angle() float64 {
	switch f {
	case FacingLeft:
		return math.Pi
	case FacingUp:
		return -math.Pi / 2
	case FacingDown:
		return math.Pi / 2
	default:
		return 0
	}
}

// DeriveFacing picks the facing matching the dominant axis of (dx, dy),
// keeping fallback when the vector is zero.
func DeriveFacing(dx, dy float64, fallback Facing) Facing {
	const epsilon = 1e-9

	if math.Abs(dx) < epsilon {
		dx = 0
	}
	if math.Abs(dy) < epsilon {
		dy = 0
	}
	if dx == 0 && dy == 0 {
		return fallback
	}

	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			return FacingRight
		}
		return FacingLeft
	}
	if dy > 0 {
		return FacingDown
	}
	return FacingUp
}

// Valid reports whether f is one of the four facings.
func (f Facing) Valid() bool {
	switch f {
	case FacingUp, FacingDown, FacingLeft, FacingRight:
		return true
	}
	return false
}
