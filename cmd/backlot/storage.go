package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/moonlitstudios/backlot/internal/config"
	"github.com/moonlitstudios/backlot/internal/database"
	"github.com/moonlitstudios/backlot/internal/logging"
	"github.com/moonlitstudios/backlot/internal/storage"
	gormstorage "github.com/moonlitstudios/backlot/internal/storage/gorm"
	"github.com/moonlitstudios/backlot/internal/storage/memory"
	pgstorage "github.com/moonlitstudios/backlot/internal/storage/postgres"
	sqlitestorage "github.com/moonlitstudios/backlot/internal/storage/sqlite"
	wsstorage "github.com/moonlitstudios/backlot/internal/storage/websocket"
)

// collectorPath is appended to api.serverUrl when no websocket URL is set.
const collectorPath = "/trace"

func createStorageBackend(a *app, storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		a.Logger.Info("Postgres storage backend initialized")
		return pgstorage.New(a.logs), nil

	case "gorm":
		return newManagedBackend(a, storageCfg)

	case "sqlite":
		dumpPath := storageCfg.SQLite.DumpPath
		if dumpPath == "" {
			dumpPath = a.localDBPath(storageCfg)
		}
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     dumpPath,
		}, a.logs)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		a.Logger.Info("SQLite storage backend initialized", "dumpPath", dumpPath)
		return backend, nil

	case "websocket":
		wsURL := storageCfg.WebSocket.URL
		if wsURL == "" {
			wsURL = httpToWS(a.api.ServerURL) + collectorPath
		}
		secret := storageCfg.WebSocket.Secret
		if secret == "" {
			secret = a.api.APIKey
		}
		a.Logger.Info("WebSocket storage backend initialized", "url", wsURL)
		return wsstorage.New(wsstorage.Config{
			URL:    wsURL,
			Secret: secret,
		}, a.Logger), nil

	case "memory":
		a.Logger.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), nil

	default:
		a.Logger.Warn("Unknown storage type, using memory", "type", storageCfg.Type)
		return memory.New(storageCfg.Memory), nil
	}
}

func (a *app) localDBPath(storageCfg config.StorageConfig) string {
	return filepath.Join(storageCfg.Memory.OutputDir, fmt.Sprintf("backlot_%s.db", a.start.Format(logging.FileTimeFormat)))
}

// managedBackend writes through whatever the database manager connected
// to. When postgres is down that is an in-memory sqlite database, which is
// dumped to disk on close.
type managedBackend struct {
	*gormstorage.Backend
	manager *database.Manager
}

func newManagedBackend(a *app, storageCfg config.StorageConfig) (*managedBackend, error) {
	m := database.NewManager(a.componentLogger("database"))
	m.SqliteFilePath = a.localDBPath(storageCfg)
	if err := m.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if m.ShouldSaveLocal {
		if paths, err := database.GetBackupDBPaths(filepath.Dir(m.SqliteFilePath)); err == nil && len(paths) > 0 {
			a.Logger.Info("Local trace databases waiting for import", "count", len(paths))
		}
	}
	a.Logger.Info("GORM storage backend initialized", "local", m.ShouldSaveLocal)

	return &managedBackend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: m.DB, LogManager: a.logs}),
		manager: m,
	}, nil
}

// ExportedFilePath is the local dump, if the manager fell back to one.
func (b *managedBackend) ExportedFilePath() string {
	if !b.manager.ShouldSaveLocal {
		return ""
	}
	return b.manager.SqliteFilePath
}

func (b *managedBackend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if b.manager.ShouldSaveLocal {
		if err := b.manager.DumpMemoryToDisk(); err != nil {
			return err
		}
	}
	return b.manager.SqlDB.Close()
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
