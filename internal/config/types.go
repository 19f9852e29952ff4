// Package config loads careboard configuration from defaults, a YAML
// config file, CAREBOARD_ environment variables and CLI flags, in
// ascending precedence.
package config

import (
	"fmt"
	"time"
)

// EngineConfig selects and configures the analytical engine.
type EngineConfig struct {
	Type string `koanf:"type"` // duckdb, postgres

	// File-based engines (DuckDB).
	Path string `koanf:"path"`

	// Network engines (Postgres).
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
}

// Validate checks the engine configuration.
func (e *EngineConfig) Validate() error {
	switch e.Type {
	case "duckdb", "postgres":
		return nil
	case "":
		return fmt.Errorf("engine type is required")
	default:
		return fmt.Errorf("unknown engine type %q", e.Type)
	}
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SeedConfig points at the seed inputs: a YAML file of query
// templates and a directory of CSV datasets for the engine.
type SeedConfig struct {
	TemplatesFile string `koanf:"templates_file"`
	DatasetsDir   string `koanf:"datasets_dir"`
}

// ScenarioConfig tunes the optimization bridge.
type ScenarioConfig struct {
	Timeout       time.Duration `koanf:"timeout"`
	MaxConcurrent int64         `koanf:"max_concurrent"`
}

// Config is the full careboard configuration.
type Config struct {
	Engine   EngineConfig   `koanf:"engine"`
	Server   ServerConfig   `koanf:"server"`
	Seeds    SeedConfig     `koanf:"seeds"`
	Scenario ScenarioConfig `koanf:"scenario"`

	// StorePath is the SQLite metadata database location.
	StorePath string `koanf:"store_path"`

	// QueryTimeout bounds one widget execution.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	// Watch re-seeds templates when the seed file changes.
	Watch bool `koanf:"watch"`

	Verbose bool `koanf:"verbose"`
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive")
	}
	return nil
}
