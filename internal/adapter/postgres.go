package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

func init() {
	Register("postgres", func(logger *slog.Logger) Adapter { return NewPostgres(logger) })
}

// Postgres implements the Adapter interface against a PostgreSQL
// server, for deployments where the analytical dataset lives in a
// shared warehouse instead of the embedded engine. The same locking
// model applies: reads share, ingestion excludes.
type Postgres struct {
	mu     sync.RWMutex
	db     *sql.DB
	config Config
	logger *slog.Logger
}

// NewPostgres creates a new Postgres adapter instance.
func NewPostgres(logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Postgres{logger: logger}
}

// Connect establishes a connection to PostgreSQL.
func (a *Postgres) Connect(ctx context.Context, cfg Config) error {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		cfg.Host, port, cfg.Database, cfg.Username, cfg.Password)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.mu.Lock()
	a.db = db
	a.config = cfg
	a.mu.Unlock()

	a.logger.Debug("connected to postgres", "host", cfg.Host, "database", cfg.Database)
	return nil
}

// Close closes the PostgreSQL connection.
func (a *Postgres) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Query executes a retrieval statement with bound parameters.
func (a *Postgres) Query(ctx context.Context, sqlStr string, args ...any) (*Rows, error) {
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

// Exec executes a statement that doesn't return rows.
func (a *Postgres) Exec(ctx context.Context, sqlStr string) error {
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

// Ingest loads a CSV file into a table using COPY FROM. The table must
// already exist; Postgres cannot infer schema the way DuckDB does.
func (a *Postgres) Ingest(ctx context.Context, tableName, filePath string) error {
	query := fmt.Sprintf("COPY %s FROM '%s' WITH (FORMAT csv, HEADER true)", tableName, filePath) //nolint:gosec // seeding path, operator-supplied table
	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ingest CSV: %w", err)
	}
	a.logger.Info("ingested dataset", "table", tableName, "file", filePath)
	return nil
}

// TableMetadata retrieves metadata for a specified table.
func (a *Postgres) TableMetadata(ctx context.Context, table string) (*Metadata, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema := "public"
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
		WHERE table_schema = $1 AND table_name = $2
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

	return &Metadata{Schema: schema, Name: tableName, Columns: columns}, nil
}

// EngineName returns "postgres".
func (a *Postgres) EngineName() string { return "postgres" }

// Placeholder returns PostgreSQL's numbered marker.
func (a *Postgres) Placeholder(i int) string { return fmt.Sprintf("$%d", i) }

// Ensure Postgres implements Adapter interface
var _ Adapter = (*Postgres)(nil)
