package compositor

import (
	"math"

	"github.com/moonlitstudios/backlot/internal/clock"
	"github.com/moonlitstudios/backlot/internal/geo"
	"github.com/moonlitstudios/backlot/internal/light"
)

// Frame is everything the darkness pass needs for one frame.
type Frame struct {
	// Width and Height are the viewport in screen pixels.
	Width  float64
	Height float64
	// Pixel is the number of screen pixels per world unit.
	Pixel float64
	// Camera is the world position of the viewport's top-left corner.
	Camera   geo.Vec2
	Darkness float64
	Tint     *clock.Tint
	Lights   []light.Source
}

// ToScreen converts a world point to screen pixels.
func (f Frame) ToScreen(p geo.Vec2) geo.Vec2 {
	return p.Sub(f.Camera).Scale(f.pixel())
}

// View is the visible world rectangle.
func (f Frame) View() geo.Rect {
	px := f.pixel()
	return geo.Rect{X: f.Camera.X, Y: f.Camera.Y, W: f.Width / px, H: f.Height / px}
}

func (f Frame) pixel() float64 {
	if f.Pixel <= 0 {
		return 1
	}
	return f.Pixel
}

func (f Frame) screen() Shape {
	return RectShape(geo.Rect{W: f.Width, H: f.Height})
}

// Compositor builds the night overlay.
type Compositor struct {
	MaskColor     light.RGB
	VignetteColor light.RGB
	// VignetteInner and VignetteOuter are fractions of the viewport width.
	VignetteInner    float64
	VignetteOuter    float64
	VignetteStrength float64
	// GlowAlpha is the global alpha of the additive pass, which only runs
	// above GlowAbove darkness.
	GlowAlpha float64
	GlowAbove float64
}

func New() *Compositor {
	return &Compositor{
		MaskColor:        light.RGB{R: 5, G: 5, B: 30},
		VignetteColor:    light.RGB{R: 0, G: 0, B: 10},
		VignetteInner:    0.25,
		VignetteOuter:    0.7,
		VignetteStrength: 0.4,
		GlowAlpha:        0.35,
		GlowAbove:        0.1,
	}
}

var white = light.RGB{R: 255, G: 255, B: 255}

// Build returns the commands for the tint, the night mask with its light
// holes, the mask composite and the glow pass, in that order.
func (c *Compositor) Build(f Frame) []Command {
	var cmds []Command

	if f.Tint != nil && f.Tint.Alpha > 0 {
		tint := Fill(LayerScene, f.screen(), Solid(RGBA(f.Tint.Color.R, f.Tint.Color.G, f.Tint.Color.B, f.Tint.Alpha)))
		tint.Owner = "tint"
		cmds = append(cmds, tint)
	}

	d := f.Darkness
	if d <= 0 {
		return cmds
	}

	cmds = append(cmds,
		Command{Op: OpClear, Layer: LayerMask, Alpha: 1},
		Fill(LayerMask, f.screen(), Solid(FromRGB(c.MaskColor, d))),
		Fill(LayerMask, f.screen(), c.vignette(f)),
	)

	lit := c.lit(f)
	for _, s := range lit {
		cmds = append(cmds, c.reveal(f, s))
	}

	cmds = append(cmds, Command{Op: OpComposite, Layer: LayerMask, Blend: BlendSourceOver, Alpha: 1})

	if d > c.GlowAbove {
		for _, s := range lit {
			if s.Glow == nil || s.Glow.Alpha <= 0 {
				continue
			}
			cmds = append(cmds, c.glow(f, s))
		}
	}
	return cmds
}

// lit filters the frame's lights to those that contribute and can be seen.
func (c *Compositor) lit(f Frame) []light.Source {
	var out []light.Source
	for _, s := range f.Lights {
		if s.Lit(f.Darkness) {
			out = append(out, s)
		}
	}
	return light.Cull(out, f.View())
}

func (c *Compositor) vignette(f Frame) Paint {
	return Paint{
		Kind:   PaintRadial,
		Center: geo.Vec2{X: f.Width / 2, Y: f.Height / 2},
		Inner:  f.Width * c.VignetteInner,
		Outer:  f.Width * c.VignetteOuter,
		Stops: []Stop{
			{Offset: 0, Color: RGBA(0, 0, 0, 0)},
			{Offset: 1, Color: FromRGB(c.VignetteColor, f.Darkness*c.VignetteStrength)},
		},
	}
}

// reveal cuts the light's shape out of the mask.
func (c *Compositor) reveal(f Frame, s light.Source) Command {
	cmd := Command{
		Op:    OpFill,
		Layer: LayerMask,
		Blend: BlendDestinationOut,
		Alpha: 1,
		Shape: c.shape(f, s, s.Reach),
		Clip:  c.clip(f, s),
		Owner: s.Owner,
	}
	if s.Kind == light.KindPanel {
		cmd.Paint = Solid(FromRGB(white, math.Min(1, s.Intensity)))
		return cmd
	}
	cmd.Paint = c.gradient(f, s, s.Reach, white, s.Scaled(), 1)
	return cmd
}

// glow redraws the light additively in its warm colour.
func (c *Compositor) glow(f Frame, s light.Source) Command {
	reach := s.Reach
	if s.Glow.Reach > 0 {
		reach = s.Glow.Reach
	}
	profile := s.Glow.Profile
	if len(profile) == 0 {
		profile = s.Profile
	}
	scaled := light.Source{Profile: profile, Intensity: s.Intensity}.Scaled()

	cmd := Command{
		Op:    OpFill,
		Layer: LayerScene,
		Blend: BlendLighter,
		Alpha: c.GlowAlpha,
		Shape: c.shape(f, s, reach),
		Clip:  c.clip(f, s),
		Owner: s.Owner,
	}
	if s.Kind == light.KindPanel {
		cmd.Paint = Solid(FromRGB(s.Glow.Color, s.Glow.Alpha*math.Min(1, s.Intensity)))
		return cmd
	}
	cmd.Paint = c.gradient(f, s, reach, s.Glow.Color, scaled, s.Glow.Alpha)
	return cmd
}

func (c *Compositor) shape(f Frame, s light.Source, reach float64) Shape {
	src := s
	src.Reach = reach
	pts := src.Shape()
	out := make([]geo.Vec2, len(pts))
	for i, p := range pts {
		out[i] = f.ToScreen(p)
	}
	return Shape{Points: out}
}

func (c *Compositor) clip(f Frame, s light.Source) []Shape {
	if s.Clip == nil {
		return nil
	}
	r := *s.Clip
	tl := f.ToScreen(geo.Vec2{X: r.X, Y: r.Y})
	px := f.pixel()
	return []Shape{RectShape(geo.Rect{X: tl.X, Y: tl.Y, W: r.W * px, H: r.H * px})}
}

func (c *Compositor) gradient(f Frame, s light.Source, reach float64, col light.RGB, stops []light.Stop, alpha float64) Paint {
	ps := make([]Stop, len(stops))
	for i, st := range stops {
		ps[i] = Stop{Offset: st.Offset, Color: FromRGB(col, st.Alpha*alpha)}
	}

	if s.Falloff == light.FalloffLinear {
		src := s
		src.Reach = reach
		from, to := src.FalloffLine()
		return Paint{Kind: PaintLinear, From: f.ToScreen(from), To: f.ToScreen(to), Stops: ps}
	}
	px := f.pixel()
	return Paint{
		Kind:   PaintRadial,
		Center: f.ToScreen(s.Origin),
		Inner:  s.Inner * px,
		Outer:  reach * px,
		Stops:  ps,
	}
}
