package player

import (
	"math"

	"github.com/moonlitstudios/backlot/internal/geo"
)

const cameraLerp = 0.08

// Camera is the top-left of the visible game area in world units.
type Camera struct {
	Pos geo.Vec2
	// View is the game area size (screen size divided by the pixel scale).
	View geo.Vec2
}

// NewCamera centres a camera of the given game-area size on focus.
func NewCamera(view, focus geo.Vec2) *Camera {
	return &Camera{Pos: focus.Sub(view.Scale(0.5)), View: view}
}

// Follow eases the camera toward centring focus.
func (c *Camera) Follow(dt float64, focus geo.Vec2) {
	target := focus.Sub(c.View.Scale(0.5))
	k := 1 - math.Pow(1-cameraLerp, dt)
	c.Pos = c.Pos.Lerp(target, k)
}

// Bounds is the visible world rectangle.
func (c *Camera) Bounds() geo.Rect {
	return geo.Rect{X: c.Pos.X, Y: c.Pos.Y, W: c.View.X, H: c.View.Y}
}

// ToScreen converts a world point to screen pixels at scale pixel.
func (c *Camera) ToScreen(p geo.Vec2, pixel float64) geo.Vec2 {
	return p.Sub(c.Pos).Scale(pixel)
}
