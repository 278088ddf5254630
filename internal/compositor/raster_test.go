package compositor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlitstudios/backlot/internal/geo"
)

func screenFill(c Color) Command {
	return Fill(LayerScene, RectShape(geo.Rect{W: 100, H: 100}), Solid(c))
}

func TestRasterRevealsLights(t *testing.T) {
	r, err := NewRaster(100, 100)
	require.NoError(t, err)

	cmds := append([]Command{screenFill(RGBA(255, 255, 255, 1))}, New().Build(frame(0.7))...)
	require.NoError(t, r.Run(cmds))

	assert.Less(t, r.MaskAlpha(50, 50), 0.05, "pool centre is cut out")
	assert.Greater(t, r.MaskAlpha(99, 99), 0.75, "corner keeps mask and vignette")

	center := r.At(50, 50)
	corner := r.At(99, 99)
	assert.Greater(t, center.R, uint8(240))
	assert.Less(t, corner.R, uint8(80))
	assert.Equal(t, uint8(255), corner.A)
}

func TestRasterBlendModes(t *testing.T) {
	r, err := NewRaster(10, 10)
	require.NoError(t, err)
	full := RectShape(geo.Rect{W: 10, H: 10})

	require.NoError(t, r.Run([]Command{
		Fill(LayerScene, full, Solid(RGBA(100, 0, 0, 1))),
		{Op: OpFill, Layer: LayerScene, Blend: BlendLighter, Alpha: 1, Shape: full, Paint: Solid(RGBA(100, 0, 0, 1))},
	}))
	assert.Equal(t, uint8(200), r.At(5, 5).R)

	require.NoError(t, r.Run([]Command{
		{Op: OpFill, Layer: LayerScene, Blend: BlendLighter, Alpha: 1, Shape: full, Paint: Solid(RGBA(100, 0, 0, 1))},
	}))
	assert.Equal(t, uint8(255), r.At(5, 5).R, "lighter clamps")

	require.NoError(t, r.Run([]Command{
		Fill(LayerMask, full, Solid(RGBA(0, 0, 0, 0.8))),
		{Op: OpFill, Layer: LayerMask, Blend: BlendDestinationOut, Alpha: 1, Shape: full, Paint: Solid(RGBA(255, 255, 255, 0.5))},
	}))
	assert.InDelta(t, 0.4, r.MaskAlpha(5, 5), 1e-9)

	require.NoError(t, r.Run([]Command{{Op: OpClear, Layer: LayerMask}}))
	assert.Equal(t, 0.0, r.MaskAlpha(5, 5))
}

func TestRasterClipLimitsFill(t *testing.T) {
	r, err := NewRaster(20, 20)
	require.NoError(t, err)

	cmd := Fill(LayerScene, RectShape(geo.Rect{W: 20, H: 20}), Solid(RGBA(0, 255, 0, 1)))
	cmd.Clip = []Shape{RectShape(geo.Rect{X: 0, Y: 0, W: 10, H: 20})}
	require.NoError(t, r.Run([]Command{cmd}))

	assert.Equal(t, uint8(255), r.At(5, 5).G)
	assert.Equal(t, uint8(0), r.At(15, 5).G)
}

func TestRasterText(t *testing.T) {
	r, err := NewRaster(80, 20)
	require.NoError(t, err)
	require.NoError(t, r.Run([]Command{Label("HI", geo.V(40, 10), RGBA(255, 255, 255, 1), true)}))

	lit := 0
	img := r.Image()
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			lit++
		}
	}
	assert.Greater(t, lit, 5)
}

func TestRasterErrors(t *testing.T) {
	_, err := NewRaster(0, 10)
	require.Error(t, err)

	r, err := NewRaster(4, 4)
	require.NoError(t, err)
	assert.Error(t, r.Run([]Command{{Op: "blur"}}))
	assert.Error(t, r.Run([]Command{{Op: OpText}}))
}

func TestPaintAt(t *testing.T) {
	stops := []Stop{{Offset: 0, Color: RGBA(0, 0, 0, 1)}, {Offset: 1, Color: RGBA(200, 0, 0, 0)}}

	lin := Paint{Kind: PaintLinear, From: geo.V(0, 0), To: geo.V(10, 0), Stops: stops}
	mid := lin.At(geo.V(5, 3))
	assert.Equal(t, uint8(100), mid.R)
	assert.InDelta(t, 0.5, mid.A, 1e-9)
	assert.Equal(t, 1.0, lin.At(geo.V(-4, 0)).A)

	rad := Paint{Kind: PaintRadial, Center: geo.V(0, 0), Inner: 2, Outer: 12, Stops: stops}
	assert.Equal(t, 1.0, rad.At(geo.V(1, 0)).A)
	assert.InDelta(t, 0.5, rad.At(geo.V(0, 7)).A, 1e-9)
	assert.Equal(t, 0.0, rad.At(geo.V(20, 0)).A)

	assert.Equal(t, RGBA(1, 2, 3, 0.5), Solid(RGBA(1, 2, 3, 0.5)).At(geo.V(9, 9)))
}
