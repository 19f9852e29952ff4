// Package adapter provides analytical-engine adapter interfaces and
// implementations for the query-execution core.
package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Config holds the configuration for connecting to an analytical engine.
type Config struct {
	// Type specifies the engine type (e.g., "duckdb", "postgres")
	Type string

	// Path is the file path for file-based engines.
	// Use ":memory:" for in-memory databases.
	Path string

	// Host is the hostname for network-based engines
	Host string

	// Port is the port number for network-based engines
	Port int

	// Database is the database name
	Database string

	// Username for authentication
	Username string

	// Password for authentication
	Password string

	// Options contains additional driver-specific options
	Options map[string]string
}

// Column represents a column in an engine table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// Metadata holds metadata about an engine table.
type Metadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter is the read-mostly interface the dispatcher executes against.
// Query runs with filters passed as bound parameters, never spliced into
// the text. Exec and Ingest are the write path used by seeding and
// dataset refresh; implementations must exclude concurrent reads while
// a write runs.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Query executes a retrieval statement with bound parameters.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// Exec executes a statement that doesn't return rows. Write path:
	// callers use it for setup and ingestion only, never for widgets.
	Exec(ctx context.Context, sql string) error

	// Ingest loads a CSV file into a table, creating or replacing it
	// with an inferred schema.
	Ingest(ctx context.Context, tableName, filePath string) error

	// TableMetadata retrieves metadata for a table.
	TableMetadata(ctx context.Context, table string) (*Metadata, error)

	// EngineName returns the adapter's engine name (e.g., "duckdb").
	EngineName() string

	// Placeholder returns the bind-parameter marker for the i-th
	// (1-based) argument in this engine's SQL flavor.
	Placeholder(i int) string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Adapter)
)

// Register adds an adapter factory to the registry.
// Called by adapter implementations in their init() functions.
func Register(name string, factory func(*slog.Logger) Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New creates an adapter instance based on config type. A nil logger
// discards adapter logs.
func New(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}
	registryMu.RLock()
	factory, ok := registry[strings.ToLower(cfg.Type)]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(logger), nil
}

// ListAdapters returns all registered adapter names (sorted).
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownAdapterError reports a config referencing an unregistered
// engine type.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown engine type %q (available: %s)", e.Type, strings.Join(e.Available, ", "))
}
