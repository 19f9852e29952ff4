package config

import "time"

// Default configuration values.
const (
	DefaultAddr            = ":8080"
	DefaultEngineType      = "duckdb"
	DefaultEnginePath      = "careboard.duckdb"
	DefaultStorePath       = "careboard.db"
	DefaultTemplatesFile   = "templates.yaml"
	DefaultDatasetsDir     = "datasets"
	DefaultQueryTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultScenarioTimeout = 30 * time.Second
	DefaultMaxConcurrent   = 4
)

// defaults is the lowest-precedence configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"engine.type":             DefaultEngineType,
		"engine.path":             DefaultEnginePath,
		"engine.port":             5432,
		"server.addr":             DefaultAddr,
		"server.shutdown_timeout": DefaultShutdownTimeout,
		"seeds.templates_file":    DefaultTemplatesFile,
		"seeds.datasets_dir":      DefaultDatasetsDir,
		"scenario.timeout":        DefaultScenarioTimeout,
		"scenario.max_concurrent": DefaultMaxConcurrent,
		"store_path":              DefaultStorePath,
		"query_timeout":           DefaultQueryTimeout,
		"watch":                   false,
		"verbose":                 false,
	}
}
