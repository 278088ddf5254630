// Package compositor turns a frame's darkness and lights into a list of
// draw commands, and interprets such lists onto an image.
package compositor

import (
	"github.com/moonlitstudios/backlot/internal/geo"
	"github.com/moonlitstudios/backlot/internal/light"
)

type Op string

const (
	OpFill      Op = "fill"
	OpClear     Op = "clear"
	OpComposite Op = "composite"
	OpText      Op = "text"
)

// Layer is a drawing surface. The mask is composited onto the scene.
type Layer string

const (
	LayerScene Layer = "scene"
	LayerMask  Layer = "mask"
)

type Blend string

const (
	BlendSourceOver     Blend = "source-over"
	BlendDestinationOut Blend = "destination-out"
	BlendLighter        Blend = "lighter"
)

type PaintKind string

const (
	PaintSolid  PaintKind = "solid"
	PaintLinear PaintKind = "linear"
	PaintRadial PaintKind = "radial"
)

// Color is 8-bit RGB with a straight alpha in [0,1].
type Color struct {
	R uint8   `json:"r"`
	G uint8   `json:"g"`
	B uint8   `json:"b"`
	A float64 `json:"a"`
}

// RGBA builds a Color.
func RGBA(r, g, b uint8, a float64) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// FromRGB lifts a light colour to a Color with alpha a.
func FromRGB(c light.RGB, a float64) Color {
	return Color{R: c.R, G: c.G, B: c.B, A: a}
}

type Stop struct {
	Offset float64 `json:"offset"`
	Color  Color   `json:"color"`
}

// Paint describes how a filled shape is coloured. Linear gradients run
// From→To; radial gradients run from Inner to Outer around Center.
type Paint struct {
	Kind   PaintKind `json:"kind"`
	Color  Color     `json:"color,omitempty"`
	From   geo.Vec2  `json:"from,omitempty"`
	To     geo.Vec2  `json:"to,omitempty"`
	Center geo.Vec2  `json:"center,omitempty"`
	Inner  float64   `json:"inner,omitempty"`
	Outer  float64   `json:"outer,omitempty"`
	Stops  []Stop    `json:"stops,omitempty"`
}

// Solid is a flat paint.
func Solid(c Color) Paint {
	return Paint{Kind: PaintSolid, Color: c}
}

// Shape is a closed polygon in screen pixels.
type Shape struct {
	Points []geo.Vec2 `json:"points"`
}

// RectShape returns the polygon of r.
func RectShape(r geo.Rect) Shape {
	return Shape{Points: r.Corners()}
}

type Text struct {
	Value string   `json:"value"`
	At    geo.Vec2 `json:"at"`
	Color Color    `json:"color"`
	// Centered anchors At at the middle of the text instead of its left.
	Centered bool `json:"centered,omitempty"`
}

// Command is one step of the frame's drawing. Alpha is the global alpha
// the paint is multiplied by.
type Command struct {
	Op    Op      `json:"op"`
	Layer Layer   `json:"layer"`
	Blend Blend   `json:"blend,omitempty"`
	Alpha float64 `json:"alpha"`
	Shape Shape   `json:"shape,omitempty"`
	Clip  []Shape `json:"clip,omitempty"`
	Paint Paint   `json:"paint,omitempty"`
	Text  *Text   `json:"text,omitempty"`
	// Owner names what produced the command, for tracing.
	Owner string `json:"owner,omitempty"`
}

// Fill is a source-over fill of shape on layer.
func Fill(layer Layer, shape Shape, paint Paint) Command {
	return Command{Op: OpFill, Layer: layer, Blend: BlendSourceOver, Alpha: 1, Shape: shape, Paint: paint}
}

// Label is a text command on the scene.
func Label(value string, at geo.Vec2, c Color, centered bool) Command {
	return Command{
		Op:    OpText,
		Layer: LayerScene,
		Blend: BlendSourceOver,
		Alpha: 1,
		Text:  &Text{Value: value, At: at, Color: c, Centered: centered},
	}
}
