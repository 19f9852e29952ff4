package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/careops-labs/careboard/pkg/core"
)

// CreateDashboard inserts a dashboard, generating an id when absent.
func (s *Store) CreateDashboard(ctx context.Context, d *core.Dashboard) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if d.Name == "" {
		return fmt.Errorf("dashboard name is required")
	}
	if d.ID == "" {
		d.ID = generateID()
	}
	d.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dashboards (id, name, created_at) VALUES (?, ?, ?)`,
		d.ID, d.Name, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}
	return nil
}

// GetDashboard returns one dashboard by id.
func (s *Store) GetDashboard(ctx context.Context, id string) (*core.Dashboard, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	var d core.Dashboard
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM dashboards WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: "dashboard", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard: %w", err)
	}
	return &d, nil
}

// ListDashboards returns all dashboards ordered by name.
func (s *Store) ListDashboards(ctx context.Context) ([]core.Dashboard, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM dashboards ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	defer rows.Close()

	var out []core.Dashboard
	for rows.Next() {
		var d core.Dashboard
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dashboard: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RenameDashboard updates a dashboard's name.
func (s *Store) RenameDashboard(ctx context.Context, id, name string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE dashboards SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename dashboard: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "dashboard", ID: id}
	}
	return nil
}

// DeleteDashboard removes a dashboard and, via the foreign key
// cascade, its widgets.
func (s *Store) DeleteDashboard(ctx context.Context, id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM dashboards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dashboard: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "dashboard", ID: id}
	}
	return nil
}
