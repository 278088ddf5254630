// Package websocket streams a trace to a remote collector as JSON envelopes.
package websocket

import (
	"log/slog"
	"sync"

	"github.com/moonlitstudios/backlot/internal/storage"
	"github.com/moonlitstudios/backlot/pkg/core"
	"github.com/moonlitstudios/backlot/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend implements storage.Backend over a collector socket. Session
// boundaries wait for an ack; samples and events are fire-and-forget.
type Backend struct {
	conn *connection
	cfg  Config

	mu      sync.Mutex
	session *core.Session
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger.With("component", "trace-ws")),
		cfg:  cfg,
	}
}

// Init connects to the collector.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the collector.
func (b *Backend) Close() error {
	return b.conn.close()
}

// Dropped counts messages lost to a full queue or a broken socket.
func (b *Backend) Dropped() uint64 {
	return b.conn.dropped.Load()
}

func (b *Backend) send(msgType string, payload any) error {
	data, err := streaming.Marshal(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

func (b *Backend) active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session != nil
}

// StartSession announces the session and waits for the collector's ack.
// The message is replayed after every reconnect until EndSession.
func (b *Backend) StartSession(s *core.Session) error {
	data, err := streaming.Marshal(streaming.TypeStartSession, streaming.StartSessionPayload{Session: s})
	if err != nil {
		return err
	}
	b.conn.setReplay(data)

	b.mu.Lock()
	b.session = s
	b.mu.Unlock()

	return b.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout)
}

// EndSession sends the outcome and waits for the collector's ack.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	s := b.session
	b.session = nil
	b.mu.Unlock()

	if s == nil {
		return storage.ErrNoSession
	}

	// cleared regardless of the ack
	b.conn.setReplay(nil)

	data, err := streaming.Marshal(streaming.TypeEndSession, streaming.EndSessionPayload{Outcome: s.Outcome})
	if err != nil {
		return err
	}
	return b.conn.sendAndWait(data, streaming.TypeEndSession, ackTimeout)
}

func (b *Backend) RecordFrame(f *core.FrameSample) error {
	if !b.active() {
		return storage.ErrNoSession
	}
	return b.send(streaming.TypeFrameSample, f)
}

func (b *Backend) RecordEvent(e *core.WorldEvent) error {
	if !b.active() {
		return storage.ErrNoSession
	}
	return b.send(streaming.TypeWorldEvent, e)
}
