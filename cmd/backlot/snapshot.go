package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/moonlitstudios/backlot/internal/clock"
	"github.com/moonlitstudios/backlot/internal/compositor"
	"github.com/moonlitstudios/backlot/internal/geo"
	"github.com/moonlitstudios/backlot/internal/world"
)

// snapshot renders the opening frame at a fixed hour to a PNG file.
func (a *app) snapshot(hour float64, out string) error {
	w := world.New(a.layout, world.Options{
		Clock:    clock.Fixed{Hour: hour},
		Seed:     a.sim.Seed,
		Viewport: geo.V(float64(a.viewport.Width), float64(a.viewport.Height)),
	})

	r, err := compositor.NewRaster(a.viewport.Width, a.viewport.Height)
	if err != nil {
		return err
	}
	cmds := w.Render()
	if err := r.Run(cmds); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("error creating snapshot file: %w", err)
	}
	if err := png.Encode(f, r.Image()); err != nil {
		_ = f.Close()
		return fmt.Errorf("error encoding snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	a.Logger.Info("Snapshot written", "path", out, "hour", hour, "commands", len(cmds), "darkness", w.Darkness())
	return nil
}
