// Package storage defines the diagnostics trace backend contract.
package storage

import (
	"errors"

	"github.com/moonlitstudios/backlot/pkg/core"
)

// ErrNoSession is returned when recording outside StartSession/EndSession.
var ErrNoSession = errors.New("no active session")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management. StartSession assigns s.ID. The backend keeps the
	// pointer; the host fills in s.Outcome before EndSession.
	StartSession(s *core.Session) error
	EndSession() error

	// Recording
	RecordFrame(f *core.FrameSample) error
	RecordEvent(e *core.WorldEvent) error
}

// Exporter is an optional interface for backends that write a file per
// session.
type Exporter interface {
	ExportedFilePath() string
}
