// Package light describes emissive objects as shapes the darkness
// compositor can cut out of the night mask.
package light

import (
	"math"

	"github.com/moonlitstudios/backlot/internal/geo"
)

// Kind is the shape family of a light.
type Kind string

const (
	// KindCone is a trapezoid fanning out along Angle.
	KindCone Kind = "cone"
	// KindPool is a soft disc around Origin.
	KindPool Kind = "pool"
	// KindPanel is a self-lit rectangle revealed at full strength.
	KindPanel Kind = "panel"
	// KindPolygon is an arbitrary outline lit by a radial falloff.
	KindPolygon Kind = "polygon"
)

// Falloff selects how reveal strength fades over the shape.
type Falloff string

const (
	FalloffLinear Falloff = "linear"
	FalloffRadial Falloff = "radial"
)

// RGB is an 8-bit colour.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Stop is a gradient stop: Alpha at Offset in [0,1] along the falloff.
type Stop struct {
	Offset float64 `json:"offset"`
	Alpha  float64 `json:"alpha"`
}

// Glow is the warm additive redraw of a light. An empty Profile reuses the
// light's own; a zero Reach keeps the light's reach.
type Glow struct {
	Color   RGB     `json:"color"`
	Alpha   float64 `json:"alpha"`
	Profile []Stop  `json:"profile,omitempty"`
	Reach   float64 `json:"reach,omitempty"`
}

// Source is one light for one frame, in world coordinates.
type Source struct {
	Owner string `json:"owner"`
	Kind  Kind   `json:"kind"`

	Origin geo.Vec2 `json:"origin"`
	Angle  float64  `json:"angle,omitempty"`
	// Near is how far ahead of Origin a cone starts; Reach is its length,
	// or the outer radius of a pool or polygon falloff.
	Near  float64 `json:"near,omitempty"`
	Reach float64 `json:"reach"`
	// Apex and Spread are the cone half-widths at its near and far ends.
	Apex   float64 `json:"apex,omitempty"`
	Spread float64 `json:"spread,omitempty"`
	// Inner is the radius a pool stays at its first stop.
	Inner float64 `json:"inner,omitempty"`

	Rect   geo.Rect   `json:"rect"`
	Points []geo.Vec2 `json:"points,omitempty"`
	Clip   *geo.Rect  `json:"clip,omitempty"`

	Falloff   Falloff `json:"falloff"`
	Profile   []Stop  `json:"profile"`
	Intensity float64 `json:"intensity"`
	// MinDarkness is the darkness the scene must exceed for the light to
	// matter at all.
	MinDarkness float64 `json:"minDarkness"`
	Glow        *Glow   `json:"glow,omitempty"`
}

// Cone returns the trapezoid of a cone light, near edge first.
func (s Source) Cone() []geo.Vec2 {
	dir := geo.FromAngle(s.Angle)
	perp := dir.Perp()
	near := s.Origin.Add(dir.Scale(s.Near))
	far := s.Origin.Add(dir.Scale(s.Near + s.Reach))
	return []geo.Vec2{
		near.Add(perp.Scale(-s.Apex)),
		far.Add(perp.Scale(-s.Spread)),
		far.Add(perp.Scale(s.Spread)),
		near.Add(perp.Scale(s.Apex)),
	}
}

// FalloffLine returns the start and end of a linear falloff.
func (s Source) FalloffLine() (geo.Vec2, geo.Vec2) {
	dir := geo.FromAngle(s.Angle)
	return s.Origin.Add(dir.Scale(s.Near)), s.Origin.Add(dir.Scale(s.Near + s.Reach))
}

// Shape returns the outline that is filled for this light.
func (s Source) Shape() []geo.Vec2 {
	switch s.Kind {
	case KindCone:
		return s.Cone()
	case KindPanel:
		return s.Rect.Corners()
	case KindPolygon:
		return s.Points
	default:
		r := s.Reach
		return geo.Rect{X: s.Origin.X - r, Y: s.Origin.Y - r, W: 2 * r, H: 2 * r}.Corners()
	}
}

// Bounds is the world rectangle the light can touch.
func (s Source) Bounds() geo.Rect {
	b := geo.Bounds(s.Shape()...)
	if s.Clip != nil {
		return intersect(b, *s.Clip)
	}
	return b
}

// Visible reports whether the light touches view.
func (s Source) Visible(view geo.Rect) bool {
	b := s.Bounds()
	if b.W < 0 || b.H < 0 {
		return false
	}
	return b.Intersects(view)
}

// Scaled returns the profile with every alpha multiplied by Intensity.
func (s Source) Scaled() []Stop {
	out := make([]Stop, len(s.Profile))
	k := clamp01(s.Intensity)
	for i, st := range s.Profile {
		out[i] = Stop{Offset: st.Offset, Alpha: clamp01(st.Alpha * k)}
	}
	return out
}

// Lit reports whether the light contributes at the given darkness.
func (s Source) Lit(darkness float64) bool {
	return s.Intensity > 0 && darkness > s.MinDarkness
}

func intersect(a, b geo.Rect) geo.Rect {
	x0 := math.Max(a.X, b.X)
	y0 := math.Max(a.Y, b.Y)
	x1 := math.Min(a.X+a.W, b.X+b.W)
	y1 := math.Min(a.Y+a.H, b.Y+b.H)
	return geo.Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
