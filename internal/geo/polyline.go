package geo

import (
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
)

// RouteLine converts an ordered route into a line string.
func RouteLine(points []Vec2) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, fmt.Errorf("route must have at least 2 points, got %d", len(points))
	}

	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	seq := geom.NewSequence(flat, geom.DimXY)
	return geom.NewLineString(seq), nil
}

// RouteLength is the travel distance along points starting at from.
func RouteLength(from Vec2, points []Vec2) float64 {
	line, err := RouteLine(append([]Vec2{from}, points...))
	if err != nil {
		return 0
	}
	return line.Length()
}

// Bounds returns the smallest rectangle containing every point.
func Bounds(points ...Vec2) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Intersects reports whether r and o overlap or touch.
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.X+o.W && o.X <= r.X+r.W && r.Y <= o.Y+o.H && o.Y <= r.Y+r.H
}
