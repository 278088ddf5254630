package compositor

import (
	"math"

	"github.com/moonlitstudios/backlot/internal/geo"
)

// At evaluates the paint at screen point p, returning a straight-alpha
// colour with channels in 0..255 and alpha in 0..1.
func (p Paint) At(pt geo.Vec2) Color {
	switch p.Kind {
	case PaintLinear:
		axis := p.To.Sub(p.From)
		l2 := axis.X*axis.X + axis.Y*axis.Y
		if l2 == 0 {
			return stopAt(p.Stops, 1)
		}
		d := pt.Sub(p.From)
		return stopAt(p.Stops, (d.X*axis.X+d.Y*axis.Y)/l2)
	case PaintRadial:
		dist := pt.Dist(p.Center)
		span := p.Outer - p.Inner
		if span <= 0 {
			if dist < p.Outer {
				return stopAt(p.Stops, 0)
			}
			return stopAt(p.Stops, 1)
		}
		return stopAt(p.Stops, (dist-p.Inner)/span)
	default:
		return p.Color
	}
}

// stopAt interpolates the gradient at t, clamping outside [0,1].
func stopAt(stops []Stop, t float64) Color {
	if len(stops) == 0 {
		return Color{}
	}
	t = math.Max(0, math.Min(1, t))
	if t <= stops[0].Offset {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t > b.Offset {
			continue
		}
		span := b.Offset - a.Offset
		if span <= 0 {
			return b.Color
		}
		k := (t - a.Offset) / span
		return Color{
			R: lerp8(a.Color.R, b.Color.R, k),
			G: lerp8(a.Color.G, b.Color.G, k),
			B: lerp8(a.Color.B, b.Color.B, k),
			A: a.Color.A + (b.Color.A-a.Color.A)*k,
		}
	}
	return stops[len(stops)-1].Color
}

func lerp8(a, b uint8, k float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*k))
}
