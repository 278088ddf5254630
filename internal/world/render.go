package world

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/moonlitstudios/backlot/internal/choreo"
	"github.com/moonlitstudios/backlot/internal/compositor"
	"github.com/moonlitstudios/backlot/internal/geo"
)

var (
	groundColor   = compositor.RGBA(92, 101, 84, 1)
	roadColor     = compositor.RGBA(58, 60, 66, 1)
	stripeColor   = compositor.RGBA(214, 196, 110, 0.6)
	buildingColor = compositor.RGBA(90, 95, 107, 1)
	doorColor     = compositor.RGBA(40, 42, 48, 1)
	interiorColor = compositor.RGBA(255, 222, 160, 1)
	faceColor     = compositor.RGBA(232, 226, 208, 1)
	postColor     = compositor.RGBA(70, 66, 60, 1)
	inkColor      = compositor.RGBA(30, 30, 36, 1)
	screenOff     = compositor.RGBA(38, 40, 48, 1)
	screenOn      = compositor.RGBA(70, 120, 190, 1)
	rocketColor   = compositor.RGBA(206, 208, 216, 1)
	craneColor    = compositor.RGBA(226, 176, 40, 1)
	cableColor    = compositor.RGBA(30, 30, 30, 1)
	itemColor     = compositor.RGBA(250, 240, 200, 1)
	workerColor   = compositor.RGBA(255, 140, 0, 1)
	truckColor    = compositor.RGBA(236, 236, 240, 1)
	policeColor   = compositor.RGBA(24, 28, 60, 1)
	carColor      = compositor.RGBA(200, 40, 40, 1)
	hudColor      = compositor.RGBA(255, 255, 255, 1)
)

// drawable is one depth-sorted piece of the scene; y is its ground line.
type drawable struct {
	y    float64
	cmds []compositor.Command
}

// painter draws world-space primitives as scene commands for one frame.
type painter struct {
	f compositor.Frame
}

func (p painter) poly(pts []geo.Vec2, c compositor.Color) compositor.Command {
	out := make([]geo.Vec2, len(pts))
	for i, pt := range pts {
		out[i] = p.f.ToScreen(pt)
	}
	return compositor.Fill(compositor.LayerScene, compositor.Shape{Points: out}, compositor.Solid(c))
}

func (p painter) rect(r geo.Rect, c compositor.Color) compositor.Command {
	return p.poly(r.Corners(), c)
}

// line is a quad of the given width from a to b.
func (p painter) line(a, b geo.Vec2, width float64, c compositor.Color) compositor.Command {
	dir, ok := b.Sub(a).Unit()
	if !ok {
		dir = geo.V(1, 0)
	}
	n := dir.Perp().Scale(width / 2)
	return p.poly([]geo.Vec2{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}, c)
}

func (p painter) disc(center geo.Vec2, r float64, c compositor.Color) compositor.Command {
	const sides = 12
	pts := make([]geo.Vec2, sides)
	for i := range pts {
		pts[i] = center.Add(geo.FromAngle(2 * math.Pi * float64(i) / sides).Scale(r))
	}
	return p.poly(pts, c)
}

// box is a w×h rectangle centred on pos and turned to angle.
func (p painter) box(pos geo.Vec2, w, h, angle float64, c compositor.Color) compositor.Command {
	fwd := geo.FromAngle(angle).Scale(w / 2)
	side := geo.FromAngle(angle).Perp().Scale(h / 2)
	return p.poly([]geo.Vec2{
		pos.Add(fwd).Add(side),
		pos.Add(fwd).Sub(side),
		pos.Sub(fwd).Sub(side),
		pos.Sub(fwd).Add(side),
	}, c)
}

func (p painter) label(s string, at geo.Vec2, c compositor.Color) compositor.Command {
	return compositor.Label(s, p.f.ToScreen(at), c, true)
}

// Render returns the screening room while the viewer is inside, otherwise
// the full frame: ground, roads, the depth-sorted scene
// split around the car, the darkness pass and the HUD.
func (w *World) Render() []compositor.Command {
	if w.inRoom {
		return w.renderRoom()
	}
	f := w.Frame()
	p := painter{f: f}

	cmds := []compositor.Command{
		compositor.Fill(compositor.LayerScene, compositor.RectShape(geo.Rect{W: f.Width, H: f.Height}), compositor.Solid(groundColor)),
	}
	cmds = append(cmds, w.roads(p)...)

	scene := w.scenery(p)
	sort.SliceStable(scene, func(i, j int) bool { return scene[i].y < scene[j].y })
	carY := w.Car.Pos.Y
	for _, d := range scene {
		if d.y <= carY {
			cmds = append(cmds, d.cmds...)
		}
	}
	cmds = append(cmds, w.drawCar(p)...)
	for _, d := range scene {
		if d.y > carY {
			cmds = append(cmds, d.cmds...)
		}
	}

	cmds = append(cmds, w.compositor.Build(f)...)
	return append(cmds, w.hud(f)...)
}

func (w *World) roads(p painter) []compositor.Command {
	width := w.layout.RoadWidth
	var out []compositor.Command
	for _, r := range w.layout.Roads {
		out = append(out, p.line(r.From, r.To, width, roadColor))
	}
	for _, r := range w.layout.Roads {
		out = append(out, p.line(r.From, r.To, 1, stripeColor))
	}
	return out
}

func (w *World) scenery(p painter) []drawable {
	var out []drawable
	add := func(y float64, cmds ...compositor.Command) {
		out = append(out, drawable{y: y, cmds: cmds})
	}

	for _, b := range w.layout.Buildings {
		cmds := []compositor.Command{p.rect(b.Rect, hexColor(b.Color, buildingColor))}
		if b.Rect.Inset(-1).Intersects(w.layout.Door.Rect) {
			cmds = append(cmds, w.drawDoor(p)...)
		}
		cmds = append(cmds, p.label(b.Name, b.Rect.Center(), hudColor))
		add(b.Rect.Y+b.Rect.H, cmds...)
	}
	if len(w.layout.Buildings) == 0 {
		add(w.layout.Door.Rect.Y+w.layout.Door.Rect.H, w.drawDoor(p)...)
	}

	third := billboardHalfW * 2 / 3
	for i, b := range w.Billboards {
		f := w.Flashes[i]
		face := billboardFace(b.Pos)
		add(b.Pos.Y+10,
			p.rect(geo.Rect{X: b.Pos.X - 20, Y: b.Pos.Y, W: 2, H: 10}, postColor),
			p.rect(geo.Rect{X: b.Pos.X + 18, Y: b.Pos.Y, W: 2, H: 10}, postColor),
			p.rect(face, faceColor),
			p.label(b.Label, face.Center(), inkColor),
			p.disc(geo.V(b.Pos.X-third/2, face.Y-1), 1.5, fixtureColor(!f.Active() || f.On())),
			p.disc(geo.V(b.Pos.X+third/2, face.Y-1), 1.5, fixtureColor(true)),
		)
	}

	if pl := w.layout.Panel; pl.Size.X > 0 {
		face := w.panelRect()
		screen := face.Inset(pl.Pad)
		fill := screenOff
		if w.PanelReady() {
			// a slow colour cycle stands in for the video
			k := 0.5 + 0.5*math.Sin(float64(w.tick)*0.05)
			fill = screenOn
			fill.R = uint8(40 + 80*k)
		}
		add(pl.Pos.Y,
			p.rect(face, inkColor),
			p.rect(screen, fill),
		)
	}

	if r := w.layout.RocketRadius; r > 0 {
		rp := w.layout.Rocket
		add(rp.Y,
			p.poly([]geo.Vec2{rp.Add(geo.V(-r, 0)), rp.Add(geo.V(-r*1.4, r*0.6)), rp.Add(geo.V(0, r*0.2))}, postColor),
			p.poly([]geo.Vec2{rp.Add(geo.V(r, 0)), rp.Add(geo.V(r*1.4, r*0.6)), rp.Add(geo.V(0, r*0.2))}, postColor),
			p.disc(rp, r, rocketColor),
		)
	}

	for i, c := range w.Cranes {
		pos := c.Pos()
		cmds := []compositor.Command{
			p.rect(geo.Rect{X: pos.X - 7, Y: pos.Y - 5, W: 14, H: 10}, craneColor),
			p.line(c.BoomStart(), c.BoomTip(), 2, craneColor),
			p.line(c.BoomTip(), c.Hook(), 0.6, cableColor),
		}
		if w.coord.Items[i].PickedUp() {
			h := c.Hook()
			cmds = append(cmds, p.rect(geo.Rect{X: h.X - 2, Y: h.Y, W: 4, H: 4}, itemColor))
		}
		add(pos.Y+5, cmds...)
	}

	for _, it := range w.coord.Items {
		if it.Placed() && !it.PickedUp() {
			add(it.Drop.Y, p.rect(geo.Rect{X: it.Drop.X - 2, Y: it.Drop.Y - 2, W: 4, H: 4}, itemColor))
		}
	}

	if w.Crew.Visible(w.Truck.State(), w.Truck.Timer()) {
		w1, w2 := w.Crew.Workers(w.Truck.State(), w.Truck.Timer(), w.Truck.Pos)
		cmds := []compositor.Command{p.disc(w1, 2, workerColor), p.disc(w2, 2, workerColor)}
		if w.Crew.Carrying {
			cmds = append(cmds, p.line(w1, w2, 2, itemColor))
		}
		add(math.Max(w1.Y, w2.Y), cmds...)
	}

	if t := w.Truck; t.Visible() {
		c := truckColor
		c.A = t.Alpha
		add(t.Pos.Y+5, p.box(t.Pos, 22, 10, t.Facing.Angle(), c))
	}

	if pc := w.Police; pc.Visible() {
		bar := compositor.FromRGB(policeBlu, 1)
		if pc.BarRed() {
			bar = compositor.FromRGB(policeRed, 1)
		}
		add(pc.Pos.Y+4,
			p.box(pc.Pos, 14, 8, pc.Facing.Angle(), policeColor),
			p.box(pc.Pos, 2, 6, pc.Facing.Angle(), bar),
		)
	}

	for _, l := range w.layout.Lamps {
		add(l.Y,
			p.rect(geo.Rect{X: l.X - 0.5, Y: l.Y - 12, W: 1, H: 12}, postColor),
			p.disc(l.Add(geo.V(0, -12)), 1.5, faceColor),
		)
	}
	for _, l := range w.layout.WorkLights {
		add(l.Y,
			p.line(l, l.Add(geo.V(0, -14)), 1, postColor),
			p.rect(geo.Rect{X: l.X - 3, Y: l.Y - 16, W: 6, H: 3}, faceColor),
		)
	}
	return out
}

func fixtureColor(lit bool) compositor.Color {
	if lit {
		return compositor.FromRGB(warm, 1)
	}
	return postColor
}

// drawDoor draws the roll-up shutter over the lit stage interior.
func (w *World) drawDoor(p painter) []compositor.Command {
	r := w.layout.Door.Rect
	shutter := r
	shutter.H = r.H * (1 - w.Door.OpenAmount())
	return []compositor.Command{
		p.rect(r, interiorColor),
		p.rect(shutter, doorColor),
	}
}

func (w *World) drawCar(p painter) []compositor.Command {
	c := w.Car
	nose := c.Pos.Add(c.Heading().Scale(4))
	return []compositor.Command{
		p.box(c.Pos, 10, 6, c.Angle, carColor),
		p.box(nose, 2, 5, c.Angle, inkColor),
	}
}

// hud draws the clock and the current destination prompt in screen space.
func (w *World) hud(f compositor.Frame) []compositor.Command {
	now := w.clock.Now()
	cmds := []compositor.Command{
		compositor.Label(now.Format("15:04"), geo.V(12, 20), hudColor, false),
	}
	if id := w.Flags().Arrived; id != "" {
		cmds = append(cmds, compositor.Label("ENTER "+strings.ToUpper(id), geo.V(f.Width/2, f.Height-24), hudColor, true))
	}
	if w.Truck.State() == choreo.TruckGone && !w.Door.ShowDone() {
		cmds = append(cmds, compositor.Label("STAGE 1 ROLLING", geo.V(f.Width/2, 20), hudColor, true))
	}
	return cmds
}

// hexColor parses "#rrggbb", falling back to def.
func hexColor(s string, def compositor.Color) compositor.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return def
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return def
	}
	return compositor.RGBA(uint8(v>>16), uint8(v>>8), uint8(v), 1)
}
