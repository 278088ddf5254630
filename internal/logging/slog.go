package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// osStdout is swapped by tests to capture console output.
var osStdout io.Writer = os.Stdout

// SlogManager manages slog-based logging with optional remote writers.
type SlogManager struct {
	logger  *slog.Logger
	handler slog.Handler

	// closed on shutdown
	closers []io.Closer
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system. Records go to file when one is
// given, to stdout otherwise, and to every extra writer as JSON.
func (m *SlogManager) Setup(file io.Writer, level string, extra ...io.Writer) {
	lvl := parseLevel(level)

	// Common handler options with RFC3339 time formatting
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, handlerOpts))
	}

	m.closers = m.closers[:0]
	for _, w := range extra {
		if w == nil {
			continue
		}
		handlers = append(handlers, slog.NewJSONHandler(w, handlerOpts))
		if c, ok := w.(io.Closer); ok {
			m.closers = append(m.closers, c)
		}
	}

	m.handler = NewMultiHandler(handlers...)
	m.logger = slog.New(m.handler)
	m.logger.Info("Logging initialized", "level", level)
}

// WithContext stamps every later record with the provider's attributes.
func (m *SlogManager) WithContext(provider ContextProvider) {
	if m.handler == nil {
		return
	}
	m.logger = slog.New(NewContextHandler(m.handler, provider))
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Close releases the remote writers.
func (m *SlogManager) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	m.closers = nil
	return first
}

// WriteLog writes a log entry with the specified function name, data, and level.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	if m.logger == nil {
		return
	}

	switch parseLevel(level) {
	case slog.LevelDebug:
		m.logger.Debug(data, "function", functionName)
	case slog.LevelWarn:
		m.logger.Warn(data, "function", functionName)
	case slog.LevelError:
		m.logger.Error(data, "function", functionName)
	default:
		m.logger.Info(data, "function", functionName)
	}
}
