package world

import (
	"math"

	"github.com/moonlitstudios/backlot/internal/choreo"
	"github.com/moonlitstudios/backlot/internal/geo"
	"github.com/moonlitstudios/backlot/internal/light"
)

var (
	warm      = light.RGB{R: 255, G: 238, B: 120}
	lampWarm  = light.RGB{R: 255, G: 220, B: 150}
	workWhite = light.RGB{R: 240, G: 245, B: 255}
	hmiLens   = light.RGB{R: 255, G: 250, B: 220}
	hmiBeam   = light.RGB{R: 255, G: 245, B: 200}
	policeRed = light.RGB{R: 255, G: 40, B: 40}
	policeBlu = light.RGB{R: 40, G: 80, B: 255}
	storm     = light.RGB{R: 200, G: 220, B: 255}
)

const (
	billboardHalfW = 31.0
	billboardH     = 48.0
)

// registerLights wires one provider per emissive owner. Providers read the
// actors' current pose, so they are evaluated after the tick.
func (w *World) registerLights() {
	w.lights.Register("car", w.carLights)
	w.lights.Register("car.glow", w.carGlow)
	w.lights.Register("billboards", w.billboardLights)
	w.lights.Register("panel", w.panelLights)
	w.lights.Register("hmi", w.hmiLights)
	w.lights.Register("truck", w.truckLights)
	w.lights.Register("workers", w.workerLights)
	w.lights.Register("lamps", w.lampLights)
	w.lights.Register("worklights", w.workLights)
	w.lights.Register("police", w.policeLights)
	w.lights.Register("stage1.door", w.doorLights)
	w.lights.Register("stage2.windows", w.lightningLights)
}

func (w *World) carLights(d float64) []light.Source {
	c := w.Car
	perp := c.Heading().Perp()
	glow := &light.Glow{
		Color:   warm,
		Alpha:   math.Min(0.35, d*0.5),
		Profile: []light.Stop{{Offset: 0, Alpha: 1}, {Offset: 0.6, Alpha: 0.3}, {Offset: 1, Alpha: 0}},
	}
	var out []light.Source
	for _, side := range []float64{-1.5, 1.5} {
		out = append(out, light.Source{
			Kind:        light.KindCone,
			Origin:      c.Pos.Add(perp.Scale(side)),
			Angle:       c.Angle,
			Near:        5,
			Reach:       50,
			Spread:      12,
			Falloff:     light.FalloffLinear,
			MinDarkness: 0.1,
			Profile: []light.Stop{
				{Offset: 0, Alpha: 1},
				{Offset: 0.3, Alpha: 0.7},
				{Offset: 0.6, Alpha: 0.3},
				{Offset: 1, Alpha: 0},
			},
			Intensity: 1,
			Glow:      glow,
		})
	}
	return out
}

// carGlow is the small pool around the car body, clipped to a square.
func (w *World) carGlow(d float64) []light.Source {
	p := w.Car.Pos
	clip := geo.Rect{X: p.X - 18, Y: p.Y - 18, W: 36, H: 36}
	return []light.Source{{
		Kind:        light.KindPool,
		Origin:      p,
		Reach:       22,
		Clip:        &clip,
		Falloff:     light.FalloffRadial,
		Profile:     []light.Stop{{Offset: 0, Alpha: 0.6}, {Offset: 0.4, Alpha: 0.25}, {Offset: 1, Alpha: 0}},
		Intensity:   1,
		MinDarkness: 0.1,
	}}
}

// spotlights returns the two fixtures lighting a face from its top edge.
// Fixture 0 is skipped unless lit0.
func spotlights(centerX, top float64, face geo.Rect, lit0 bool, minDarkness float64) []light.Source {
	third := billboardHalfW * 2 / 3
	reach := math.Max(billboardH, billboardHalfW) * 1.3
	var out []light.Source
	for i, side := range []float64{-1, 1} {
		if i == 0 && !lit0 {
			continue
		}
		fx := centerX + side*third/2
		clip := face
		out = append(out,
			light.Source{
				Kind:        light.KindPool,
				Origin:      geo.V(fx, top-1),
				Reach:       8,
				Falloff:     light.FalloffRadial,
				Profile:     []light.Stop{{Offset: 0, Alpha: 0.8}, {Offset: 0.4, Alpha: 0.3}, {Offset: 1, Alpha: 0}},
				Intensity:   1,
				MinDarkness: minDarkness,
				Glow:        &light.Glow{Color: warm, Alpha: 0.5},
			},
			light.Source{
				Kind:   light.KindPolygon,
				Origin: geo.V(fx, top),
				Reach:  reach,
				Points: []geo.Vec2{
					geo.V(fx-2, top),
					geo.V(fx+2, top),
					geo.V(centerX+face.W/2, top+face.H),
					geo.V(centerX-face.W/2, top+face.H),
				},
				Clip:    &clip,
				Falloff: light.FalloffRadial,
				Profile: []light.Stop{
					{Offset: 0, Alpha: 1},
					{Offset: 0.3, Alpha: 0.6},
					{Offset: 0.6, Alpha: 0.2},
					{Offset: 1, Alpha: 0},
				},
				Intensity:   1,
				MinDarkness: minDarkness,
				Glow:        &light.Glow{Color: warm, Alpha: 0.2},
			},
		)
	}
	return out
}

func billboardFace(pos geo.Vec2) geo.Rect {
	return geo.Rect{X: pos.X - billboardHalfW, Y: pos.Y - billboardH, W: 2 * billboardHalfW, H: billboardH}
}

// billboardLights lights every face. The first fixture of each billboard
// is the faulty one; it only goes dark on the off half of its flicker.
func (w *World) billboardLights(d float64) []light.Source {
	var out []light.Source
	for i, b := range w.Billboards {
		f := w.Flashes[i]
		face := billboardFace(b.Pos)
		out = append(out, spotlights(b.Pos.X, face.Y, face, !f.Active() || f.On(), 0.1)...)
	}
	return out
}

func (w *World) panelRect() geo.Rect {
	p := w.layout.Panel
	return geo.Rect{X: p.Pos.X - p.Size.X/2, Y: p.Pos.Y - p.Size.Y, W: p.Size.X, H: p.Size.Y}
}

// panelLights is the self-lit screen, its ambient bleed and the two
// spotlights on its frame.
func (w *World) panelLights(d float64) []light.Source {
	p := w.layout.Panel
	if p.Size.X <= 0 || p.Size.Y <= 0 {
		return nil
	}
	face := w.panelRect()
	screen := face.Inset(p.Pad)

	out := []light.Source{
		{
			Kind:      light.KindPanel,
			Origin:    screen.Center(),
			Rect:      screen,
			Intensity: 1,
		},
		{
			Kind:      light.KindPool,
			Origin:    geo.V(p.Pos.X, p.Pos.Y-p.Size.Y/2),
			Inner:     screen.W * 0.3,
			Reach:     math.Max(p.Size.X, p.Size.Y) * 0.8,
			Falloff:   light.FalloffRadial,
			Profile:   []light.Stop{{Offset: 0, Alpha: 0.3}, {Offset: 1, Alpha: 0}},
			Intensity: 1,
		},
	}
	return append(out, spotlights(p.Pos.X, face.Y, face, true, 0.1)...)
}

// hmiLights is the fixture hanging from each crane once it holds it,
// aimed at the rocket.
func (w *World) hmiLights(d float64) []light.Source {
	target := w.layout.Rocket.Add(geo.V(0, 10))
	var out []light.Source
	for i, c := range w.Cranes {
		if c.State() != choreo.CraneHolding || !w.coord.Items[i].PickedUp() {
			continue
		}
		hook := c.Hook()
		out = append(out, light.Source{
			Kind:      light.KindPool,
			Origin:    hook,
			Reach:     14,
			Falloff:   light.FalloffRadial,
			Profile:   []light.Stop{{Offset: 0, Alpha: 1}, {Offset: 0.3, Alpha: 0.6}, {Offset: 1, Alpha: 0}},
			Intensity: 1,
			Glow: &light.Glow{
				Color:   hmiLens,
				Alpha:   0.6,
				Reach:   8,
				Profile: []light.Stop{{Offset: 0, Alpha: 0.8}, {Offset: 0.3, Alpha: 0.3}, {Offset: 1, Alpha: 0}},
			},
		})

		dir, ok := target.Sub(hook).Unit()
		if !ok {
			continue
		}
		perp := dir.Perp()
		out = append(out, light.Source{
			Kind:   light.KindPolygon,
			Origin: hook,
			Reach:  hook.Dist(target) * 0.8,
			Points: []geo.Vec2{
				hook.Add(perp.Scale(-1)),
				hook.Add(perp.Scale(1)),
				target.Add(perp.Scale(25)),
				target.Add(perp.Scale(-25)),
			},
			Falloff: light.FalloffRadial,
			Profile: []light.Stop{
				{Offset: 0, Alpha: 1},
				{Offset: 0.25, Alpha: 0.7},
				{Offset: 0.5, Alpha: 0.3},
				{Offset: 1, Alpha: 0},
			},
			Intensity: 1,
			Glow: &light.Glow{
				Color: hmiBeam,
				Alpha: math.Min(0.45, d*0.6),
				Profile: []light.Stop{
					{Offset: 0, Alpha: 1},
					{Offset: 0.3, Alpha: 0.4},
					{Offset: 0.7, Alpha: 0.1},
					{Offset: 1, Alpha: 0},
				},
			},
		})
	}
	return out
}

// truckLights are the headlights while the truck moves, dimmed with it.
func (w *World) truckLights(d float64) []light.Source {
	t := w.Truck
	if !t.Moving() {
		return nil
	}
	angle := t.Facing.Angle()
	perp := geo.FromAngle(angle).Perp()
	glow := &light.Glow{
		Color:   warm,
		Alpha:   math.Max(0.15, math.Min(0.4, d*0.5+0.15)),
		Profile: []light.Stop{{Offset: 0, Alpha: 1}, {Offset: 0.5, Alpha: 0.3}, {Offset: 1, Alpha: 0}},
	}
	var out []light.Source
	for _, side := range []float64{-3, 3} {
		out = append(out, light.Source{
			Kind:    light.KindCone,
			Origin:  t.Pos.Add(perp.Scale(side)),
			Angle:   angle,
			Near:    8,
			Reach:   55,
			Apex:    1,
			Spread:  10,
			Falloff: light.FalloffLinear,
			Profile: []light.Stop{
				{Offset: 0, Alpha: 0.9},
				{Offset: 0.3, Alpha: 0.5},
				{Offset: 0.7, Alpha: 0.15},
				{Offset: 1, Alpha: 0},
			},
			Intensity: t.Alpha,
			Glow:      glow,
		})
	}
	return out
}

// workerLights are the crew's headlamps, pointing the way they walk.
func (w *World) workerLights(d float64) []light.Source {
	if w.Crew.Done() || !w.Crew.Visible(w.Truck.State(), w.Truck.Timer()) {
		return nil
	}
	dir, ok := w.Crew.Dir.Unit()
	if !ok {
		dir = geo.V(-1, 0)
	}
	perp := dir.Perp()
	w1, w2 := w.Crew.Workers(w.Truck.State(), w.Truck.Timer(), w.Truck.Pos)

	var out []light.Source
	for _, p := range []geo.Vec2{w1, w2} {
		head := p.Add(geo.V(0, -5))
		tip := head.Add(dir.Scale(9))
		out = append(out,
			light.Source{
				Kind:      light.KindPolygon,
				Origin:    head,
				Reach:     9,
				Points:    []geo.Vec2{head, tip.Add(perp.Scale(2)), tip.Add(perp.Scale(-2))},
				Falloff:   light.FalloffRadial,
				Profile:   []light.Stop{{Offset: 0, Alpha: 0.6}, {Offset: 0.4, Alpha: 0.2}, {Offset: 1, Alpha: 0}},
				Intensity: 1,
			},
			light.Source{
				Kind:      light.KindPool,
				Origin:    head,
				Reach:     3,
				Falloff:   light.FalloffRadial,
				Profile:   []light.Stop{{Offset: 0, Alpha: 0.4}, {Offset: 1, Alpha: 0}},
				Intensity: 1,
			},
		)
	}
	return out
}

func (w *World) lampLights(d float64) []light.Source {
	out := make([]light.Source, 0, len(w.layout.Lamps))
	for _, p := range w.layout.Lamps {
		out = append(out, light.Source{
			Kind:        light.KindPool,
			Origin:      p.Add(geo.V(0, -12)),
			Reach:       32,
			Falloff:     light.FalloffRadial,
			Profile:     []light.Stop{{Offset: 0, Alpha: 0.9}, {Offset: 0.5, Alpha: 0.4}, {Offset: 1, Alpha: 0}},
			Intensity:   1,
			MinDarkness: 0.2,
			Glow:        &light.Glow{Color: lampWarm, Alpha: 0.3},
		})
	}
	return out
}

func (w *World) workLights(d float64) []light.Source {
	out := make([]light.Source, 0, len(w.layout.WorkLights))
	for _, p := range w.layout.WorkLights {
		out = append(out, light.Source{
			Kind:        light.KindPool,
			Origin:      p.Add(geo.V(0, -14)),
			Reach:       45,
			Falloff:     light.FalloffRadial,
			Profile:     []light.Stop{{Offset: 0, Alpha: 1}, {Offset: 0.5, Alpha: 0.5}, {Offset: 1, Alpha: 0}},
			Intensity:   1,
			MinDarkness: 0.1,
			Glow:        &light.Glow{Color: workWhite, Alpha: 0.25},
		})
	}
	return out
}

// policeLights is the light bar, alternating red and blue.
func (w *World) policeLights(d float64) []light.Source {
	p := w.Police
	if !p.Visible() {
		return nil
	}
	col := policeBlu
	if p.BarRed() {
		col = policeRed
	}
	return []light.Source{{
		Kind:      light.KindPool,
		Origin:    p.Pos,
		Reach:     20,
		Falloff:   light.FalloffRadial,
		Profile:   []light.Stop{{Offset: 0, Alpha: 0.7}, {Offset: 1, Alpha: 0}},
		Intensity: 1,
		Glow:      &light.Glow{Color: col, Alpha: 0.6},
	}}
}

// doorLights spills the stage interior out of the open door.
func (w *World) doorLights(d float64) []light.Source {
	amt := w.Door.OpenAmount()
	if amt <= 0 {
		return nil
	}
	r := w.layout.Door.Rect
	spill := 30 * amt
	return []light.Source{{
		Kind:   light.KindPolygon,
		Origin: r.Center(),
		Reach:  30,
		Points: []geo.Vec2{
			geo.V(r.X, r.Y),
			geo.V(r.X, r.Y+r.H),
			geo.V(r.X-spill, r.Y+r.H+10),
			geo.V(r.X-spill, r.Y-10),
		},
		Falloff:   light.FalloffRadial,
		Profile:   []light.Stop{{Offset: 0, Alpha: 0.9}, {Offset: 0.5, Alpha: 0.4}, {Offset: 1, Alpha: 0}},
		Intensity: amt,
		Glow:      &light.Glow{Color: lampWarm, Alpha: 0.3},
	}}
}

// lightningLights flashes the stage 2 windows while a strike is on.
func (w *World) lightningLights(d float64) []light.Source {
	if !w.Lightning.On() {
		return nil
	}
	out := make([]light.Source, 0, len(w.layout.Stage2.Windows))
	for _, r := range w.layout.Stage2.Windows {
		out = append(out, light.Source{
			Kind:      light.KindPanel,
			Origin:    r.Center(),
			Rect:      r,
			Intensity: 1,
			Glow:      &light.Glow{Color: storm, Alpha: 0.6},
		})
	}
	return out
}
