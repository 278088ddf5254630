// Package memory keeps a session's trace in memory and writes it out as a
// JSON Lines file when the session ends.
package memory

import (
	"sync"

	"github.com/moonlitstudios/backlot/internal/config"
	"github.com/moonlitstudios/backlot/internal/storage"
	"github.com/moonlitstudios/backlot/pkg/core"
)

// Backend stores session data in memory and exports on EndSession.
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session
	frames  []core.FrameSample
	events  []core.WorldEvent

	lastSessionID  uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session, discarding any unexported one.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.ID == 0 {
		b.lastSessionID++
		s.ID = b.lastSessionID
	}
	b.session = s
	b.frames = nil
	b.events = nil
	return nil
}

// EndSession exports the trace and forgets it.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return storage.ErrNoSession
	}
	if err := b.export(); err != nil {
		return err
	}
	b.session = nil
	b.frames = nil
	b.events = nil
	return nil
}

// RecordFrame stores a frame sample
func (b *Backend) RecordFrame(f *core.FrameSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return storage.ErrNoSession
	}
	sample := *f
	sample.SessionID = b.session.ID
	b.frames = append(b.frames, sample)
	return nil
}

// RecordEvent stores a world event
func (b *Backend) RecordEvent(e *core.WorldEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return storage.ErrNoSession
	}
	event := *e
	event.SessionID = b.session.ID
	b.events = append(b.events, event)
	return nil
}

// Frames returns a copy of the frames recorded so far.
func (b *Backend) Frames() []core.FrameSample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.FrameSample(nil), b.frames...)
}

// Events returns a copy of the events recorded so far.
func (b *Backend) Events() []core.WorldEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.WorldEvent(nil), b.events...)
}

// ExportedFilePath returns the path of the last exported trace.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
