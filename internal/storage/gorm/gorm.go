// Package gormstorage implements the storage.Backend interface over any GORM
// connection, with internal queues and a background DB writer goroutine.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/moonlitstudios/backlot/internal/database"
	"github.com/moonlitstudios/backlot/internal/logging"
	"github.com/moonlitstudios/backlot/internal/model"
	"github.com/moonlitstudios/backlot/internal/model/convert"
	"github.com/moonlitstudios/backlot/internal/queue"
	"github.com/moonlitstudios/backlot/internal/storage"
	"github.com/moonlitstudios/backlot/pkg/core"
)

const (
	defaultFlushInterval = 500 * time.Millisecond
	defaultQueueLimit    = 100_000
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
	// FlushInterval is how often queued rows are written. Zero means 500ms.
	FlushInterval time.Duration
	// QueueLimit bounds each queue; the oldest rows are dropped past it.
	QueueLimit int
}

// queues holds the write queues for batch DB insertion.
type queues struct {
	Frames *queue.Queue[model.FrameSample]
	Events *queue.Queue[model.WorldEvent]
}

// Backend implements storage.Backend with queue-based batch writes.
type Backend struct {
	deps   Dependencies
	queues *queues

	mu      sync.Mutex
	session *core.Session

	writeMu  sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
	closed   bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	if deps.QueueLimit <= 0 {
		deps.QueueLimit = defaultQueueLimit
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{deps: deps}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend: no database connection")
	}

	b.deps.LogManager.WriteLog("gorm:Init", "Migrating schema", "INFO")
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.queues = &queues{
		Frames: queue.NewBounded[model.FrameSample](b.deps.QueueLimit),
		Events: queue.NewBounded[model.WorldEvent](b.deps.QueueLimit),
	}
	b.stopChan = make(chan struct{})
	b.startDBWriter()
	return nil
}

// Close stops the DB writer goroutine after a final flush.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed || b.stopChan == nil {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.stopChan)
	b.wg.Wait()
	return b.Flush()
}

// StartSession inserts the session row and assigns its ID.
func (b *Backend) StartSession(s *core.Session) error {
	m := convert.CoreToSession(*s)
	m.ID = 0
	if err := b.deps.DB.Create(&m).Error; err != nil {
		return fmt.Errorf("failed to insert new session: %w", err)
	}
	s.ID = m.ID

	b.mu.Lock()
	b.session = s
	b.mu.Unlock()

	b.deps.LogManager.WriteLog("gorm:StartSession", fmt.Sprintf("Session %d started", s.ID), "INFO")
	return nil
}

// EndSession flushes pending rows and stores the end time and outcome.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	s := b.session
	b.session = nil
	b.mu.Unlock()

	if s == nil {
		return storage.ErrNoSession
	}
	if err := b.Flush(); err != nil {
		return err
	}

	if s.EndedAt.IsZero() {
		s.EndedAt = time.Now()
	}
	m := convert.CoreToSession(*s)
	if err := b.deps.DB.Model(&m).Select("EndedAt", "Outcome").Updates(&m).Error; err != nil {
		return fmt.Errorf("failed to close session %d: %w", s.ID, err)
	}

	b.deps.LogManager.WriteLog("gorm:EndSession", fmt.Sprintf("Session %d closed", s.ID), "INFO")
	return nil
}

func (b *Backend) sessionID() (uint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return 0, storage.ErrNoSession
	}
	return b.session.ID, nil
}

// RecordFrame queues a frame sample.
func (b *Backend) RecordFrame(f *core.FrameSample) error {
	id, err := b.sessionID()
	if err != nil {
		return err
	}
	m := convert.CoreToFrameSample(*f)
	m.SessionID = id
	if n := b.queues.Frames.Push(m); n > 0 {
		b.deps.LogManager.WriteLog("gorm:RecordFrame", fmt.Sprintf("Frame queue full, dropped %d", n), "WARN")
	}
	return nil
}

// RecordEvent queues a world event.
func (b *Backend) RecordEvent(e *core.WorldEvent) error {
	id, err := b.sessionID()
	if err != nil {
		return err
	}
	m := convert.CoreToWorldEvent(*e)
	m.SessionID = id
	if n := b.queues.Events.Push(m); n > 0 {
		b.deps.LogManager.WriteLog("gorm:RecordEvent", fmt.Sprintf("Event queue full, dropped %d", n), "WARN")
	}
	return nil
}

// Pending reports queued, unwritten rows.
func (b *Backend) Pending() (frames, events int) {
	return b.queues.Frames.Len(), b.queues.Events.Len()
}

// Flush writes every queued row now.
func (b *Backend) Flush() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	errFrames := writeQueue(b.deps.DB, b.queues.Frames, "frame samples")
	errEvents := writeQueue(b.deps.DB, b.queues.Events, "world events")
	return errors.Join(errFrames, errEvents)
}

// writeQueue inserts everything queued in one transaction. Failed rows go
// back on the queue.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string) error {
	items := q.GetAndEmpty()
	if len(items) == 0 {
		return nil
	}

	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		q.Push(items...)
		return fmt.Errorf("error creating %s: %w", name, err)
	}
	if err := tx.Commit().Error; err != nil {
		q.Push(items...)
		return fmt.Errorf("error committing %s: %w", name, err)
	}
	return nil
}

func (b *Backend) startDBWriter() {
	log := b.deps.LogManager.WriteLog

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.deps.FlushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-b.stopChan:
				return
			case <-ticker.C:
				start := time.Now()
				if err := b.Flush(); err != nil {
					log(":DB:WRITER:", err.Error(), "ERROR")
					continue
				}
				log(":DB:WRITER:", fmt.Sprintf("Flushed in %s", time.Since(start)), "DEBUG")
			}
		}
	}()
}
