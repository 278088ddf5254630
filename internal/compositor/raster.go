package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/moonlitstudios/backlot/internal/geo"
)

// layer is a premultiplied RGBA float buffer.
type layer struct {
	pix []float64
}

func (l *layer) clear() {
	for i := range l.pix {
		l.pix[i] = 0
	}
}

// Raster interprets command lists onto a scene and a mask layer.
type Raster struct {
	w, h  int
	scene layer
	mask  layer

	rz   *vector.Rasterizer
	cov  *image.Alpha
	clip *image.Alpha
}

// NewRaster allocates layers of w×h pixels.
func NewRaster(w, h int) (*Raster, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", w, h)
	}
	bounds := image.Rect(0, 0, w, h)
	r := &Raster{
		w:     w,
		h:     h,
		scene: layer{pix: make([]float64, w*h*4)},
		mask:  layer{pix: make([]float64, w*h*4)},
		rz:    vector.NewRasterizer(w, h),
		cov:   image.NewAlpha(bounds),
		clip:  image.NewAlpha(bounds),
	}
	r.rz.DrawOp = draw.Src
	return r, nil
}

func (r *Raster) layer(l Layer) *layer {
	if l == LayerMask {
		return &r.mask
	}
	return &r.scene
}

// Run applies commands in order.
func (r *Raster) Run(cmds []Command) error {
	for i, cmd := range cmds {
		if err := r.apply(cmd); err != nil {
			return fmt.Errorf("command %d (%s): %w", i, cmd.Op, err)
		}
	}
	return nil
}

func (r *Raster) apply(cmd Command) error {
	switch cmd.Op {
	case OpClear:
		r.layer(cmd.Layer).clear()
	case OpFill:
		if len(cmd.Shape.Points) < 3 {
			return nil
		}
		box := r.coverage(cmd.Shape, r.cov)
		for _, c := range cmd.Clip {
			r.coverage(c, r.clip)
			multiply(r.cov, r.clip, box)
		}
		r.paint(r.layer(cmd.Layer), cmd.Blend, cmd.Alpha, cmd.Paint, box)
	case OpComposite:
		r.composite(cmd.Alpha)
	case OpText:
		if cmd.Text == nil {
			return fmt.Errorf("text command without text")
		}
		box := r.text(*cmd.Text)
		r.paint(r.layer(cmd.Layer), cmd.Blend, cmd.Alpha, Solid(cmd.Text.Color), box)
	default:
		return fmt.Errorf("unknown op %q", cmd.Op)
	}
	return nil
}

// coverage rasterizes s into dst and returns its pixel bounding box.
func (r *Raster) coverage(s Shape, dst *image.Alpha) image.Rectangle {
	r.rz.Reset(r.w, r.h)
	r.rz.DrawOp = draw.Src
	for i, p := range s.Points {
		if i == 0 {
			r.rz.MoveTo(float32(p.X), float32(p.Y))
			continue
		}
		r.rz.LineTo(float32(p.X), float32(p.Y))
	}
	r.rz.ClosePath()
	r.rz.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})

	b := geo.Bounds(s.Points...)
	box := image.Rect(
		int(math.Floor(b.X)), int(math.Floor(b.Y)),
		int(math.Ceil(b.X+b.W))+1, int(math.Ceil(b.Y+b.H))+1,
	)
	return box.Intersect(dst.Bounds())
}

func multiply(dst, by *image.Alpha, box image.Rectangle) {
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			i := dst.PixOffset(x, y)
			dst.Pix[i] = uint8(uint16(dst.Pix[i]) * uint16(by.Pix[i]) / 255)
		}
	}
}

func (r *Raster) text(t Text) image.Rectangle {
	bounds := r.cov.Bounds()
	draw.Draw(r.cov, bounds, image.Transparent, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	x := int(math.Round(t.At.X))
	y := int(math.Round(t.At.Y))
	width := font.MeasureString(face, t.Value).Round()
	if t.Centered {
		x -= width / 2
		y += face.Ascent / 2
	}
	d := font.Drawer{
		Dst:  r.cov,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(t.Value)

	box := image.Rect(x, y-face.Ascent, x+width, y+face.Descent)
	return box.Intersect(bounds)
}

// paint blends p through the coverage mask onto dst inside box.
func (r *Raster) paint(dst *layer, blend Blend, alpha float64, p Paint, box image.Rectangle) {
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			cov := r.cov.Pix[r.cov.PixOffset(x, y)]
			if cov == 0 {
				continue
			}
			c := p.At(geo.Vec2{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			sa := c.A * alpha * float64(cov) / 255
			if sa <= 0 {
				continue
			}
			i := (y*r.w + x) * 4
			px := dst.pix[i : i+4 : i+4]
			sr := float64(c.R) / 255 * sa
			sg := float64(c.G) / 255 * sa
			sb := float64(c.B) / 255 * sa

			switch blend {
			case BlendDestinationOut:
				k := 1 - sa
				px[0] *= k
				px[1] *= k
				px[2] *= k
				px[3] *= k
			case BlendLighter:
				px[0] = math.Min(1, px[0]+sr)
				px[1] = math.Min(1, px[1]+sg)
				px[2] = math.Min(1, px[2]+sb)
				px[3] = math.Min(1, px[3]+sa)
			default:
				k := 1 - sa
				px[0] = sr + px[0]*k
				px[1] = sg + px[1]*k
				px[2] = sb + px[2]*k
				px[3] = sa + px[3]*k
			}
		}
	}
}

// composite draws the mask over the scene.
func (r *Raster) composite(alpha float64) {
	for i := 0; i < len(r.scene.pix); i += 4 {
		ma := r.mask.pix[i+3] * alpha
		if ma <= 0 {
			continue
		}
		k := 1 - ma
		r.scene.pix[i] = r.mask.pix[i]*alpha + r.scene.pix[i]*k
		r.scene.pix[i+1] = r.mask.pix[i+1]*alpha + r.scene.pix[i+1]*k
		r.scene.pix[i+2] = r.mask.pix[i+2]*alpha + r.scene.pix[i+2]*k
		r.scene.pix[i+3] = ma + r.scene.pix[i+3]*k
	}
}

// MaskAlpha returns the mask coverage at (x, y) in [0,1].
func (r *Raster) MaskAlpha(x, y int) float64 {
	return r.mask.pix[(y*r.w+x)*4+3]
}

// Image returns the scene as an RGBA image.
func (r *Raster) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.w, r.h))
	for i := 0; i < len(r.scene.pix); i += 4 {
		img.Pix[i] = to8(r.scene.pix[i])
		img.Pix[i+1] = to8(r.scene.pix[i+1])
		img.Pix[i+2] = to8(r.scene.pix[i+2])
		img.Pix[i+3] = to8(r.scene.pix[i+3])
	}
	return img
}

// At returns the scene colour at (x, y).
func (r *Raster) At(x, y int) color.RGBA {
	i := (y*r.w + x) * 4
	return color.RGBA{
		R: to8(r.scene.pix[i]),
		G: to8(r.scene.pix[i+1]),
		B: to8(r.scene.pix[i+2]),
		A: to8(r.scene.pix[i+3]),
	}
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
