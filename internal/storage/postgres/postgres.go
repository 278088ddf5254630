// Package postgres implements the storage.Backend interface on a PostgreSQL
// server. Writes go through the GORM backend; this package owns the connection.
package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/moonlitstudios/backlot/internal/database"
	"github.com/moonlitstudios/backlot/internal/logging"
	gormstorage "github.com/moonlitstudios/backlot/internal/storage/gorm"
)

const maxOpenConns = 10

// Opener returns a connection. Tests swap it out.
type Opener func() (*gorm.DB, error)

// Backend wraps the GORM backend with a postgres connection opened in Init.
type Backend struct {
	*gormstorage.Backend
	open Opener
	log  *logging.SlogManager
}

// New creates a postgres backend using the db.* config keys.
func New(logManager *logging.SlogManager) *Backend {
	return NewWithOpener(database.GetPostgresDB, logManager)
}

// NewWithOpener creates a backend that connects through open.
func NewWithOpener(open Opener, logManager *logging.SlogManager) *Backend {
	if logManager == nil {
		logManager = logging.NewSlogManager()
	}
	return &Backend{open: open, log: logManager}
}

// Init connects, validates the connection and initializes the GORM backend.
func (b *Backend) Init() error {
	db, err := b.open()
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)

	b.Backend = gormstorage.New(gormstorage.Dependencies{DB: db, LogManager: b.log})
	if err := b.Backend.Init(); err != nil {
		return err
	}
	b.log.WriteLog("postgres:Init", "Connected to postgres", "INFO")
	return nil
}

// Close flushes pending rows and closes the connection.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	sqlDB, err := b.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
