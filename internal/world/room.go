package world

import (
	"math"
	"strings"

	"github.com/moonlitstudios/backlot/internal/choreo"
	"github.com/moonlitstudios/backlot/internal/compositor"
	"github.com/moonlitstudios/backlot/internal/geo"
)

var (
	roomWallColor  = compositor.RGBA(46, 38, 52, 1)
	roomFloorColor = compositor.RGBA(120, 92, 70, 1)
	furnitureColor = compositor.RGBA(86, 64, 50, 1)
	couchColor     = compositor.RGBA(150, 60, 70, 1)
	posterColor    = compositor.RGBA(220, 190, 90, 1)
	popcornColor   = compositor.RGBA(250, 235, 180, 1)
	selectedColor  = compositor.RGBA(255, 200, 60, 1)
)

const (
	roomInset     = 12
	viewerRadius  = 10
	menuLineSpace = 28
)

// roomFrame fits the room into the viewport, centred. The room has no
// lights so the frame carries no darkness.
func (w *World) roomFrame() compositor.Frame {
	size := w.Screening.Room.Size
	scale := math.Min(w.viewport.X/size.X, w.viewport.Y/size.Y)
	offset := geo.V((w.viewport.X-size.X*scale)/2, (w.viewport.Y-size.Y*scale)/2)
	return compositor.Frame{
		Width:  w.viewport.X,
		Height: w.viewport.Y,
		Pixel:  scale,
		Camera: offset.Scale(-1 / scale),
	}
}

// renderRoom draws the screening room, then the POV fade and the reel menu
// on top in screen space.
func (w *World) renderRoom() []compositor.Command {
	f := w.roomFrame()
	p := painter{f: f}
	s := w.Screening
	r := s.Room

	cmds := []compositor.Command{
		compositor.Fill(compositor.LayerScene, compositor.RectShape(geo.Rect{W: f.Width, H: f.Height}), compositor.Solid(inkColor)),
		p.rect(geo.Rect{W: r.Size.X, H: r.Size.Y}, roomWallColor),
		p.rect(geo.Rect{X: roomInset, Y: roomInset, W: r.Size.X - 2*roomInset, H: r.Size.Y - 2*roomInset}, roomFloorColor),
	}
	for _, b := range r.Blockers {
		cmds = append(cmds, p.rect(b, furnitureColor))
	}
	cmds = append(cmds,
		p.rect(r.Couch, couchColor),
		p.rect(r.Door, doorColor),
		p.label("EXIT", r.Door.Center(), hudColor),
		p.rect(r.Poster, posterColor),
	)
	if s.Step() == choreo.StepPopcorn {
		cmds = append(cmds, p.rect(r.Popcorn, popcornColor))
	}
	cmds = append(cmds, p.disc(s.Pos, viewerRadius, carColor))

	if fade := s.POVFade(); fade > 0 {
		black := inkColor
		black.A = fade
		cmds = append(cmds, compositor.Fill(compositor.LayerScene, compositor.RectShape(geo.Rect{W: f.Width, H: f.Height}), compositor.Solid(black)))
	}

	switch s.Step() {
	case choreo.StepMenu:
		top := f.Height/2 - menuLineSpace*float64(len(r.Reels)-1)/2
		for i, reel := range r.Reels {
			c := hudColor
			if i == s.Selection() {
				c = selectedColor
			}
			c.A = s.MenuFade()
			cmds = append(cmds, compositor.Label(strings.ToUpper(reel), geo.V(f.Width/2, top+menuLineSpace*float64(i)), c, true))
		}
	case choreo.StepPlaying:
		cmds = append(cmds, compositor.Label("NOW PLAYING "+strings.ToUpper(s.Playing()), geo.V(f.Width/2, f.Height/2), hudColor, true))
	}

	return append(cmds, compositor.Label(w.clock.Now().Format("15:04"), geo.V(12, 20), hudColor, false))
}
