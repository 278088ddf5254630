// Package monitor aggregates per-tick timing and reports it to the logs, a
// status file and optionally InfluxDB.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/moonlitstudios/backlot/internal/influx"
	"github.com/moonlitstudios/backlot/internal/logging"
)

// PointWriter receives one point per tick.
type PointWriter interface {
	WritePoint(point *influxdb2_write.Point) error
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager *logging.SlogManager
	// Points is optional.
	Points PointWriter
	// Session tags every point.
	Session string
	// StatusPath is rewritten on every report when set.
	StatusPath string
	Interval   time.Duration
}

// Stats summarizes the ticks since the last report.
type Stats struct {
	Time         time.Time `json:"time"`
	LastTick     uint64    `json:"lastTick"`
	Ticks        int       `json:"ticks"`
	Clamped      int       `json:"clamped"`
	MeanDuration float64   `json:"meanDurationMs"`
	MaxDuration  float64   `json:"maxDurationMs"`
	MeanDT       float64   `json:"meanDt"`
	Lights       int       `json:"lights"`
	Commands     int       `json:"commands"`
	PointErrors  int       `json:"pointErrors"`
}

type window struct {
	ticks, clamped, pointErrors int
	total, max                  time.Duration
	dtSum                       float64
	last                        influx.TickPoint
}

// Service manages tick monitoring
type Service struct {
	deps Dependencies

	mu        sync.Mutex
	window    window
	isRunning bool
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Service{deps: deps}
}

// Record adds one tick to the current window and forwards it as a point.
func (s *Service) Record(p influx.TickPoint) {
	var pointErr error
	if s.deps.Points != nil {
		pointErr = s.deps.Points.WritePoint(p.Point(s.deps.Session))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	w := &s.window
	w.ticks++
	if p.Clamped {
		w.clamped++
	}
	w.total += p.Duration
	w.max = max(w.max, p.Duration)
	w.dtSum += p.DT
	w.last = p
	if pointErr != nil {
		w.pointErrors++
	}
}

// Snapshot returns the current window's stats and starts a new window.
func (s *Service) Snapshot() Stats {
	s.mu.Lock()
	w := s.window
	s.window = window{}
	s.mu.Unlock()

	st := Stats{
		Time:        time.Now(),
		LastTick:    w.last.Tick,
		Ticks:       w.ticks,
		Clamped:     w.clamped,
		MaxDuration: ms(w.max),
		Lights:      w.last.Lights,
		Commands:    w.last.Commands,
		PointErrors: w.pointErrors,
	}
	if w.ticks > 0 {
		st.MeanDuration = ms(w.total) / float64(w.ticks)
		st.MeanDT = w.dtSum / float64(w.ticks)
	}
	return st
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// IsRunning returns whether the report loop is running
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Report logs a snapshot and rewrites the status file.
func (s *Service) Report() Stats {
	st := s.Snapshot()
	level := "DEBUG"
	if st.Clamped > 0 || st.PointErrors > 0 {
		level = "WARN"
	}
	s.deps.LogManager.WriteLog("monitor:Report", fmt.Sprintf(
		"tick %d: %d ticks, %d clamped, mean %.3fms, max %.3fms, %d lights",
		st.LastTick, st.Ticks, st.Clamped, st.MeanDuration, st.MaxDuration, st.Lights,
	), level)

	if s.deps.StatusPath != "" {
		if err := writeStatus(s.deps.StatusPath, st); err != nil {
			s.deps.LogManager.WriteLog("monitor:Report", fmt.Sprintf("Error writing status file: %v", err), "ERROR")
		}
	}
	return st
}

func writeStatus(path string, st Stats) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Start starts the report goroutine
func (s *Service) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.Report()
			}
		}
	}()
}

// Stop stops the report goroutine and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
