package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	Register("duckdb", func(logger *slog.Logger) Adapter { return NewDuckDB(logger) })
}

// DuckDB implements the Adapter interface for the embedded DuckDB
// engine. Concurrent read queries are safe and share a read lock;
// Exec and Ingest take the write lock so dataset refresh excludes
// concurrent query submission. The lock does not cover row iteration
// after Query returns; callers that re-ingest must drain open result
// sets first.
type DuckDB struct {
	mu     sync.RWMutex
	db     *sql.DB
	config Config
	logger *slog.Logger
}

// NewDuckDB creates a new DuckDB adapter instance.
func NewDuckDB(logger *slog.Logger) *DuckDB {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DuckDB{logger: logger}
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (a *DuckDB) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.mu.Lock()
	a.db = db
	a.config = cfg
	a.mu.Unlock()

	a.logger.Debug("connected to duckdb", "path", path)
	return nil
}

// Close closes the DuckDB connection.
func (a *DuckDB) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Query executes a retrieval statement with bound parameters. The
// shared read lock is held only for submission, not while the caller
// iterates the returned rows.
func (a *DuckDB) Query(ctx context.Context, sqlStr string, args ...any) (*Rows, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := a.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &Rows{Rows: rows}, nil
}

// Exec executes a statement that doesn't return rows under the
// exclusive write lock.
func (a *DuckDB) Exec(ctx context.Context, sqlStr string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}

	if _, err := a.db.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// TableMetadata retrieves metadata for a specified table.
func (a *DuckDB) TableMetadata(ctx context.Context, table string) (*Metadata, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema := "main"
	tableName := table
	if parts := strings.Split(table, "."); len(parts) == 2 {
		schema = parts[0]
		tableName = parts[1]
	}

	query := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := a.db.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", schema, tableName) //nolint:gosec // table name comes from metadata lookup above
	var rowCount int64
	if err := a.db.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		// Non-fatal, just report 0
		rowCount = 0
	}

	return &Metadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}

// Ingest loads a CSV file into a table with automatic schema detection.
// Runs under the exclusive write lock: dataset refresh never races a
// widget read.
func (a *DuckDB) Ingest(ctx context.Context, tableName, filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto('%s', header=true)",
		tableName,
		absPath,
	)

	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ingest CSV: %w", err)
	}

	a.logger.Info("ingested dataset", "table", tableName, "file", filePath)
	return nil
}

// EngineName returns "duckdb".
func (a *DuckDB) EngineName() string { return "duckdb" }

// Placeholder returns DuckDB's positional marker.
func (a *DuckDB) Placeholder(int) string { return "?" }

// Ensure DuckDB implements Adapter interface
var _ Adapter = (*DuckDB)(nil)
