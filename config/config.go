// Package config loads service configuration with the precedence
// defaults, then an optional HuJSON config file, then environment
// variables. Flag overrides are applied by the caller on top.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/tailscale/hujson"
)

// DefaultFileName is the config file looked up in the working directory
// when no explicit path is given.
const DefaultFileName = "cachingsvc.json"

// Duration is a time.Duration that unmarshals from JSON strings like "10s".
type Duration time.Duration

// UnmarshalJSON accepts either a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("config: invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
		return nil
	case float64:
		*d = Duration(time.Duration(val))
		return nil
	default:
		return fmt.Errorf("config: invalid duration value %v", v)
	}
}

// MarshalJSON renders the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// TelemetryConfig configures exporters for traces and metrics.
type TelemetryConfig struct {
	TracingExporter string  `json:"tracing_exporter,omitempty"` // otlp|stdout|none
	TracingSample   float64 `json:"tracing_sample,omitempty"`   // 0.0-1.0
	MetricsExporter string  `json:"metrics_exporter,omitempty"` // otlp|prometheus|stdout|none
}

// Config holds all configuration options.
type Config struct {
	ProjectName  string `json:"project_name,omitempty"`
	ListenAddr   string `json:"listen_addr,omitempty"`
	StoreBackend string `json:"store_backend,omitempty"` // memory|file
	DataDir      string `json:"data_dir,omitempty"`
	LogLevel     string `json:"log_level,omitempty"` // debug|info|warn|error

	CoalesceMaxWait Duration `json:"coalesce_max_wait,omitempty"`
	CoalesceLease   Duration `json:"coalesce_lease,omitempty"`
	CoalescePoll    Duration `json:"coalesce_poll,omitempty"`

	// Admission control for the payload endpoints. Zero values disable
	// the corresponding limit.
	RateLimit     float64 `json:"rate_limit,omitempty"`     // requests per second
	RateBurst     int     `json:"rate_burst,omitempty"`     // token bucket burst
	MaxConcurrent int64   `json:"max_concurrent,omitempty"` // requests in flight

	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ProjectName:     "Caching Service",
		ListenAddr:      ":8000",
		StoreBackend:    "memory",
		DataDir:         "data",
		LogLevel:        "info",
		CoalesceMaxWait: Duration(10 * time.Second),
		CoalesceLease:   Duration(30 * time.Second),
		CoalescePoll:    Duration(10 * time.Millisecond),
		Telemetry: TelemetryConfig{
			TracingExporter: "none",
			TracingSample:   1.0,
			MetricsExporter: "none",
		},
	}
}

// Load builds the configuration: defaults, then the config file at path
// (or DefaultFileName if path is empty and the file exists), then
// environment variables.
func Load(path string, env []string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if path == "" {
		path = DefaultFileName
	}

	fileCfg, err := loadFile(path)
	switch {
	case err == nil:
		cfg = merge(cfg, fileCfg)
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// Optional default file is allowed to be absent.
	default:
		return Config{}, err
	}

	applyEnv(&cfg, env)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile reads and parses a HuJSON config file.
func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// merge overlays non-zero fields of over onto base.
func merge(base, over Config) Config {
	if over.ProjectName != "" {
		base.ProjectName = over.ProjectName
	}
	if over.ListenAddr != "" {
		base.ListenAddr = over.ListenAddr
	}
	if over.StoreBackend != "" {
		base.StoreBackend = over.StoreBackend
	}
	if over.DataDir != "" {
		base.DataDir = over.DataDir
	}
	if over.LogLevel != "" {
		base.LogLevel = over.LogLevel
	}
	if over.CoalesceMaxWait > 0 {
		base.CoalesceMaxWait = over.CoalesceMaxWait
	}
	if over.CoalesceLease > 0 {
		base.CoalesceLease = over.CoalesceLease
	}
	if over.CoalescePoll > 0 {
		base.CoalescePoll = over.CoalescePoll
	}
	if over.RateLimit > 0 {
		base.RateLimit = over.RateLimit
	}
	if over.RateBurst > 0 {
		base.RateBurst = over.RateBurst
	}
	if over.MaxConcurrent > 0 {
		base.MaxConcurrent = over.MaxConcurrent
	}
	if over.Telemetry.TracingExporter != "" {
		base.Telemetry.TracingExporter = over.Telemetry.TracingExporter
	}
	if over.Telemetry.TracingSample > 0 {
		base.Telemetry.TracingSample = over.Telemetry.TracingSample
	}
	if over.Telemetry.MetricsExporter != "" {
		base.Telemetry.MetricsExporter = over.Telemetry.MetricsExporter
	}
	return base
}

// applyEnv overlays CACHINGSVC_* environment variables.
func applyEnv(cfg *Config, env []string) {
	get := func(key string) string {
		prefix := key + "="
		for _, e := range env {
			if len(e) > len(prefix) && e[:len(prefix)] == prefix {
				return e[len(prefix):]
			}
		}
		return os.Getenv(key)
	}

	if v := get("CACHINGSVC_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := get("CACHINGSVC_STORE_BACKEND"); v != "" {
		cfg.StoreBackend = v
	}
	if v := get("CACHINGSVC_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := get("CACHINGSVC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := get("CACHINGSVC_COALESCE_MAX_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CoalesceMaxWait = Duration(d)
		}
	}
	if v := get("CACHINGSVC_COALESCE_LEASE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CoalesceLease = Duration(d)
		}
	}
	if v := get("CACHINGSVC_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit = f
		}
	}
	if v := get("CACHINGSVC_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxConcurrent = n
		}
	}
	if v := get("CACHINGSVC_TRACING_EXPORTER"); v != "" {
		cfg.Telemetry.TracingExporter = v
	}
	if v := get("CACHINGSVC_TRACING_SAMPLE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Telemetry.TracingSample = f
		}
	}
	if v := get("CACHINGSVC_METRICS_EXPORTER"); v != "" {
		cfg.Telemetry.MetricsExporter = v
	}
}

// Validate checks field values.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case "memory", "file":
	default:
		return fmt.Errorf("config: unknown store backend %q (want memory or file)", c.StoreBackend)
	}
	if c.StoreBackend == "file" && c.DataDir == "" {
		return errors.New("config: data_dir is required for the file store backend")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if c.CoalesceMaxWait <= 0 {
		return errors.New("config: coalesce_max_wait must be positive")
	}
	if c.CoalesceLease <= 0 {
		return errors.New("config: coalesce_lease must be positive")
	}
	return nil
}
