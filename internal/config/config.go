package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "backlot.cfg.json"

// MemoryConfig holds in-memory/JSONL trace backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds in-memory SQLite backend settings
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// WebSocketConfig holds remote trace streaming settings
type WebSocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// StorageConfig selects and configures the trace backend.
type StorageConfig struct {
	Type string `json:"type" mapstructure:"type"`
	// SampleEvery records one frame sample every N ticks.
	SampleEvery int             `json:"sampleEvery" mapstructure:"sampleEvery"`
	Memory      MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite      SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	WebSocket   WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// SimConfig tunes the frame loop.
type SimConfig struct {
	TickRate         int     `json:"tickRate" mapstructure:"tickRate"`
	MaxCatchupFrames float64 `json:"maxCatchupFrames" mapstructure:"maxCatchupFrames"`
	// ClockHour pins the time of day; negative follows the wall clock.
	ClockHour float64 `json:"clockHour" mapstructure:"clockHour"`
	Seed      int64   `json:"seed" mapstructure:"seed"`
}

// ViewportConfig is the render surface size.
type ViewportConfig struct {
	Width  int `json:"width" mapstructure:"width"`
	Height int `json:"height" mapstructure:"height"`
}

// PreviewConfig is the local preview websocket server.
type PreviewConfig struct {
	Listen    string `json:"listen" mapstructure:"listen"`
	FrameRate int    `json:"frameRate" mapstructure:"frameRate"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// SetDefaults registers every default. Load calls it; callers running
// without a config file can call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("sim.tickRate", 60)
	viper.SetDefault("sim.maxCatchupFrames", 4)
	viper.SetDefault("sim.clockHour", -1)
	viper.SetDefault("sim.seed", 1)

	viper.SetDefault("viewport.width", 960)
	viper.SetDefault("viewport.height", 720)

	viper.SetDefault("layout.path", "")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.sampleEvery", 30)
	viper.SetDefault("storage.memory.outputDir", "./traces")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "1m")
	viper.SetDefault("storage.sqlite.dumpPath", "")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/trace")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "backlot")

	viper.SetDefault("preview.listen", "127.0.0.1:8089")
	viper.SetDefault("preview.frameRate", 20)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "backlot")
	viper.SetDefault("influx.bucket", "sim_performance")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "backlot")
	viper.SetDefault("otel.exportInterval", "10s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", false)

	viper.SetDefault("monitor.interval", "1s")
	viper.SetDefault("monitor.statusPath", "")

	viper.SetDefault("api.serverUrl", "")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.upload", false)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
}

// GetStorageConfig returns the storage section.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:        viper.GetString("storage.type"),
		SampleEvery: viper.GetInt("storage.sampleEvery"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}

// GetSimConfig returns the frame loop section.
func GetSimConfig() SimConfig {
	return SimConfig{
		TickRate:         viper.GetInt("sim.tickRate"),
		MaxCatchupFrames: viper.GetFloat64("sim.maxCatchupFrames"),
		ClockHour:        viper.GetFloat64("sim.clockHour"),
		Seed:             viper.GetInt64("sim.seed"),
	}
}

// GetViewportConfig returns the render surface size.
func GetViewportConfig() ViewportConfig {
	return ViewportConfig{
		Width:  viper.GetInt("viewport.width"),
		Height: viper.GetInt("viewport.height"),
	}
}

// GetPreviewConfig returns the preview server section.
func GetPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Listen:    viper.GetString("preview.listen"),
		FrameRate: viper.GetInt("preview.frameRate"),
	}
}

// APIConfig is the trace collector the exported files are uploaded to.
type APIConfig struct {
	ServerURL string `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey    string `json:"apiKey" mapstructure:"apiKey"`
	Upload    bool   `json:"upload" mapstructure:"upload"`
}

// GetAPIConfig returns the collector section.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
		Upload:    viper.GetBool("api.upload"),
	}
}

// OTelConfig is the metrics export section.
type OTelConfig struct {
	Enabled        bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName    string        `json:"serviceName" mapstructure:"serviceName"`
	ExportInterval time.Duration `json:"exportInterval" mapstructure:"exportInterval"`
	Endpoint       string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `json:"insecure" mapstructure:"insecure"`
}

// GetOTelConfig returns the metrics export section.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		ExportInterval: viper.GetDuration("otel.exportInterval"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
