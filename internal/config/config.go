package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends for game sessions.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

type Config struct {
	Port           string        `env:"PORT"            envDefault:"8080"`
	Environment    string        `env:"ENVIRONMENT"     envDefault:"development"`
	LogLevel       slog.Level    `env:"LOG_LEVEL"       envDefault:"info"`
	DataDir        string        `env:"DATA_DIR"        envDefault:"./data"`
	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"redis"`
	RedisURL       string        `env:"REDIS_URL"       envDefault:"localhost:6379"`
	SQLitePath     string        `env:"SQLITE_PATH"     envDefault:"./game-state.sqlite3"`
	SessionTTL     time.Duration `env:"SESSION_TTL"     envDefault:"24h"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL"  envDefault:"10m"`
	MCPTransport   string        `env:"MCP_TRANSPORT"   envDefault:"stdio"`
	MCPHTTPAddr    string        `env:"MCP_HTTP_ADDR"   envDefault:":8090"`
	MetricsEnabled bool          `env:"METRICS_ENABLED" envDefault:"true"`

	// TraceEndpoint is an OTLP/HTTP collector URL; empty disables export.
	TraceEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// TelemetryEnabled reports whether the OTel providers should be set up.
func (c *Config) TelemetryEnabled() bool {
	return c.MetricsEnabled || c.TraceEndpoint != ""
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(cfg.MCPTransport))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q (supported: %s, %s)", c.StorageBackend, BackendRedis, BackendSQLite)
	}
	switch c.MCPTransport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unsupported MCP_TRANSPORT %q (supported: %s, %s)", c.MCPTransport, TransportStdio, TransportHTTP)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	return nil
}

// IsProduction reports whether logs should be JSON.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
