// Package logging sets up the slog and zerolog outputs of the host.
package logging

import (
	"path/filepath"
	"time"
)

// FileTimeFormat stamps per-session file names.
const FileTimeFormat = "20060102_150405"

// LogFilePath is <logsDir>/<name>.<start>.log.
func LogFilePath(logsDir, name string, sessionStart time.Time) string {
	return filepath.Join(logsDir, name+"."+sessionStart.Format(FileTimeFormat)+".log")
}
