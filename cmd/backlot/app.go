package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/moonlitstudios/backlot/internal/config"
	"github.com/moonlitstudios/backlot/internal/layout"
	"github.com/moonlitstudios/backlot/internal/logging"
	intOtel "github.com/moonlitstudios/backlot/internal/otel"
)

// app is the process-wide state shared by every command.
type app struct {
	start time.Time

	logs    *logging.SlogManager
	Logger  *slog.Logger
	zlog    zerolog.Logger
	console io.Writer
	level   string
	logFile *os.File

	metrics     *intOtel.Provider
	metricsFile *os.File

	layout   layout.Layout
	sim      config.SimConfig
	viewport config.ViewportConfig
	storage  config.StorageConfig
	api      config.APIConfig
}

// newApp loads configuration and sets up logging. A missing config file
// is not fatal; the defaults apply.
func newApp(configDir string, start time.Time) (*app, error) {
	cfgErr := config.Load(configDir)

	a := &app{start: start, logs: logging.NewSlogManager()}

	logsDir := config.GetString("logsDir")
	level := config.GetString("logLevel")
	var console io.Writer = os.Stdout
	if err := os.MkdirAll(logsDir, 0755); err == nil {
		f, err := os.OpenFile(logging.LogFilePath(logsDir, "backlot", start), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			a.logFile = f
			console = f
		}
	}

	var extra []io.Writer
	if config.GetBool("graylog.enabled") {
		gw, err := logging.NewGelfWriter(config.GetString("graylog.address"), "backlot")
		if err != nil {
			fmt.Fprintf(os.Stderr, "graylog disabled: %v\n", err)
		} else {
			extra = append(extra, gw)
		}
	}

	// a nil *os.File must not reach Setup as a non-nil writer
	if a.logFile != nil {
		a.logs.Setup(a.logFile, level, extra...)
	} else {
		a.logs.Setup(nil, level, extra...)
	}
	a.Logger = a.logs.Logger()
	a.console, a.level = console, level
	a.zlog = a.componentLogger("backlot")

	if cfgErr != nil {
		a.Logger.Warn("Using default configuration", "error", cfgErr)
	}
	a.Logger.Info("Starting backlot", "version", Version, "build", BuildDate)

	a.setupMetrics(logsDir)

	l, err := layout.Load(config.GetString("layout.path"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load layout: %w", err)
	}
	a.layout = l

	a.sim = config.GetSimConfig()
	a.viewport = config.GetViewportConfig()
	a.storage = config.GetStorageConfig()
	a.api = config.GetAPIConfig()
	return a, nil
}

// logContext stamps every slog record with the running session's state.
func (a *app) logContext(s *session) {
	a.logs.WithContext(func() []slog.Attr {
		tick, darkness := s.position()
		return []slog.Attr{
			slog.Uint64("tick", tick),
			slog.Float64("darkness", darkness),
		}
	})
	a.Logger = a.logs.Logger()
}

// componentLogger is a zerolog logger tagged with component.
func (a *app) componentLogger(component string) zerolog.Logger {
	return logging.NewZerolog(a.console, a.level, component)
}

func (a *app) influxBackupPath() string {
	return filepath.Join(config.GetString("logsDir"), fmt.Sprintf("influx_backup.%s.log.gz", a.start.Format(logging.FileTimeFormat)))
}

// setupMetrics installs the meter provider when otel.enabled is set.
// Failure leaves the no-op meter in place.
func (a *app) setupMetrics(logsDir string) {
	cfg := config.GetOTelConfig()
	if !cfg.Enabled {
		return
	}

	path := filepath.Join(logsDir, fmt.Sprintf("backlot_metrics_%s.json", a.start.Format(logging.FileTimeFormat)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		a.Logger.Error("Failed to open metrics file", "error", err, "path", path)
		return
	}

	p, err := intOtel.New(intOtel.Config{
		Enabled:        true,
		ServiceName:    cfg.ServiceName,
		ExportInterval: cfg.ExportInterval,
		MetricWriter:   f,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
	})
	if err != nil {
		_ = f.Close()
		a.Logger.Error("Failed to initialize OTel provider", "error", err)
		return
	}
	a.metrics, a.metricsFile = p, f
	a.Logger.Info("OTel metrics enabled", "file", path, "endpoint", cfg.Endpoint)
}

// Close flushes and releases the log outputs.
func (a *app) Close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.Logger.Warn("OTel shutdown", "error", err)
		}
		cancel()
		_ = a.metricsFile.Close()
		a.metrics = nil
	}
	_ = a.logs.Close()
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}
