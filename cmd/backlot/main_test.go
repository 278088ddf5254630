package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlitstudios/backlot/internal/choreo"
	"github.com/moonlitstudios/backlot/internal/clock"
	"github.com/moonlitstudios/backlot/internal/config"
	"github.com/moonlitstudios/backlot/internal/layout"
	"github.com/moonlitstudios/backlot/internal/player"
	"github.com/moonlitstudios/backlot/internal/storage/memory"
	pgstorage "github.com/moonlitstudios/backlot/internal/storage/postgres"
	sqlitestorage "github.com/moonlitstudios/backlot/internal/storage/sqlite"
	wsstorage "github.com/moonlitstudios/backlot/internal/storage/websocket"
	"github.com/moonlitstudios/backlot/internal/world"
	"github.com/moonlitstudios/backlot/pkg/streaming"
)

// testApp builds an app from a config file in a temp dir. Logs and traces
// stay inside that dir.
func testApp(t *testing.T, extra string) (*app, string) {
	t.Helper()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	body := fmt.Sprintf(`{
		"logsDir": %q,
		"sim": { "clockHour": 22, "seed": 3 },
		"viewport": { "width": 160, "height": 120 },
		"storage": {
			"type": "memory",
			"sampleEvery": 30,
			"memory": { "outputDir": %q, "compressOutput": false }
		}%s
	}`, filepath.Join(dir, "logs"), filepath.Join(dir, "traces"), extra)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(body), 0644))

	a, err := newApp(dir, time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, dir
}

func TestHttpToWS(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:5000", "ws://localhost:5000"},
		{"https://traces.example/", "wss://traces.example"},
		{"ws://already", "ws://already"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, httpToWS(tt.in), tt.in)
	}
}

func TestCreateStorageBackend(t *testing.T) {
	a, _ := testApp(t, "")

	tests := []struct {
		typ  string
		want any
	}{
		{"memory", &memory.Backend{}},
		{"sqlite", &sqlitestorage.Backend{}},
		{"postgres", &pgstorage.Backend{}},
		{"websocket", &wsstorage.Backend{}},
		{"carrier-pigeon", &memory.Backend{}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			cfg := a.storage
			cfg.Type = tt.typ
			b, err := createStorageBackend(a, cfg)
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
		})
	}
}

func TestLocalDBPath(t *testing.T) {
	a, dir := testApp(t, "")
	assert.Equal(t, filepath.Join(dir, "traces", "backlot_20260301_220000.db"), a.localDBPath(a.storage))
}

func TestDispatch_BadArguments(t *testing.T) {
	a, _ := testApp(t, "")
	ctx := context.Background()

	tests := [][]string{
		{"fly"},
		{"soak"},
		{"soak", "-3"},
		{"snapshot", "22"},
		{"snapshot", "25", "out.png"},
	}
	for _, args := range tests {
		assert.Error(t, dispatch(ctx, a, args), "%v", args)
	}
}

func TestSnapshot_WritesViewportSizedPNG(t *testing.T) {
	a, dir := testApp(t, "")
	out := filepath.Join(dir, "shots", "night.png")

	require.NoError(t, dispatch(context.Background(), a, []string{"snapshot", "22", out}))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 160, cfg.Width)
	assert.Equal(t, 120, cfg.Height)
}

func TestSoakRoute_EndsAtRocket(t *testing.T) {
	a, _ := testApp(t, "")
	route := a.soakRoute()
	require.NotEmpty(t, route)
	assert.Equal(t, a.layout.Rocket, route[len(route)-1])
	assert.Len(t, route, len(a.layout.Destinations))
}

func TestSoak_WritesTrace(t *testing.T) {
	a, dir := testApp(t, "")

	out, err := a.soak(context.Background(), 10)
	require.NoError(t, err)
	assert.Positive(t, out.FinalTick)
	assert.LessOrEqual(t, out.FinalTick, uint64(600))
	assert.Equal(t, int(out.FinalTick/30), out.Frames)

	matches, err := filepath.Glob(filepath.Join(dir, "traces", "soak_*.jsonl"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	require.NoError(t, err)
	defer f.Close()

	var types []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		var env streaming.Envelope
		require.NoError(t, json.Unmarshal(sc.Bytes(), &env))
		types = append(types, env.Type)
	}
	require.NoError(t, sc.Err())
	require.GreaterOrEqual(t, len(types), 2)
	assert.Equal(t, streaming.TypeStartSession, types[0])
	assert.Equal(t, streaming.TypeEndSession, types[len(types)-1])

	frames := 0
	for _, typ := range types {
		if typ == streaming.TypeFrameSample {
			frames++
		}
	}
	assert.Equal(t, out.Frames, frames)
}

func TestSoak_StopsOnCancel(t *testing.T) {
	a, _ := testApp(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := a.soak(ctx, 3600)
	require.NoError(t, err)
	assert.Zero(t, out.FinalTick)
}

func TestRoomPilot_WatchesAReelThenLeaves(t *testing.T) {
	l := layout.Default()
	w := world.New(l, world.Options{Clock: clock.Fixed{Hour: 22}})
	reel, ok := l.Zone(l.ScreeningZone)
	require.True(t, ok)
	w.Car.Pos = reel.Pos
	w.Tick(1, player.Input{})
	require.True(t, w.InRoom())

	p := &roomPilot{}
	var steps []string
	var left string
	for i := 0; i < 2000 && w.InRoom(); i++ {
		w.Tick(1, p.input(w.Screening))
		for _, e := range w.Events() {
			switch e.Kind {
			case world.EventScreeningStep:
				steps = append(steps, e.State)
			case world.EventScreeningLeft:
				left = e.State
			}
		}
	}

	assert.False(t, w.InRoom())
	assert.True(t, p.watched)
	assert.Contains(t, steps, string(choreo.StepPlaying))
	assert.Equal(t, string(choreo.RoomExitBack), left)
}
