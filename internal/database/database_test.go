package database

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/moonlitstudios/backlot/internal/model"
)

// memDB opens a private in-memory database for one test.
func memDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := GetSqliteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestMigrate_CreatesTraceTables(t *testing.T) {
	db := memDB(t)
	require.NoError(t, Migrate(db))

	for _, m := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db := memDB(t)
	require.NoError(t, Migrate(db))

	sess := model.Session{Name: "dump", StartedAt: time.Now()}
	require.NoError(t, db.Create(&sess).Error)
	require.NoError(t, db.Create(&model.WorldEvent{SessionID: sess.ID, Tick: 3, Kind: "crew.done", Actor: "crew"}).Error)

	path := filepath.Join(t.TempDir(), "nested", "trace.db")
	require.NoError(t, DumpMemoryDBToDisk(db, path))
	// a second dump replaces the first
	require.NoError(t, DumpMemoryDBToDisk(db, path))

	disk, err := GetSqliteDB(path)
	require.NoError(t, err)
	defer func() {
		sqlDB, _ := disk.DB()
		sqlDB.Close()
	}()

	var events []model.WorldEvent
	require.NoError(t, disk.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, "crew.done", events[0].Kind)
}

func TestDumpMemoryDBToDisk_RejectsBadPaths(t *testing.T) {
	db := memDB(t)
	assert.Error(t, DumpMemoryDBToDisk(db, ""))
	assert.Error(t, DumpMemoryDBToDisk(db, filepath.Join(t.TempDir(), "it's.db")))
}

func TestGetBackupDBPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.db", "b.db", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "c.db"), 0755))

	paths, err := GetBackupDBPaths(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.db"), filepath.Join(dir, "b.db")}, paths)

	_, err = GetBackupDBPaths(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("db.host", "db.internal")
	viper.Set("db.port", "5433")
	viper.Set("db.username", "lot")
	viper.Set("db.password", "secret")
	viper.Set("db.database", "traces")

	assert.Equal(t, "host=db.internal port=5433 user=lot password=secret dbname=traces sslmode=disable", PostgresDSN())
}

func TestManager_FallsBackToSqlite(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("db.host", "127.0.0.1")
	viper.Set("db.port", "1")
	viper.Set("db.username", "nobody")
	viper.Set("db.password", "x")
	viper.Set("db.database", "none")

	m := NewManager(zerolog.Nop())
	require.NoError(t, m.Connect())
	assert.True(t, m.IsValid)
	assert.True(t, m.ShouldSaveLocal)
	assert.Equal(t, "sqlite", m.DB.Dialector.Name())

	require.NoError(t, m.Setup())
	m.SqliteFilePath = filepath.Join(t.TempDir(), "fallback.db")
	require.NoError(t, m.DumpMemoryToDisk())
	assert.FileExists(t, m.SqliteFilePath)
}
