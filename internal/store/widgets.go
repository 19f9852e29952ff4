package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/careops-labs/careboard/pkg/core"
)

// SaveWidget inserts a widget or updates an existing one by id.
func (s *Store) SaveWidget(ctx context.Context, w *core.WidgetDefinition) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if !w.SourceKind.Valid() {
		return fmt.Errorf("unknown source kind %q", w.SourceKind)
	}
	if w.DashboardID == "" {
		return fmt.Errorf("widget needs a dashboard id")
	}

	external, err := marshalNullable(w.External)
	if err != nil {
		return fmt.Errorf("failed to serialize external endpoint: %w", err)
	}
	params, err := marshalNullable(w.TemplateParams)
	if err != nil {
		return fmt.Errorf("failed to serialize template params: %w", err)
	}
	layout := nullableString(string(w.Layout))

	now := time.Now().UTC()
	if w.ID == "" {
		w.ID = generateID()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO widgets (id, dashboard_id, title, source_kind, query,
			external, template_id, template_params, layout, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			dashboard_id = excluded.dashboard_id,
			title = excluded.title,
			source_kind = excluded.source_kind,
			query = excluded.query,
			external = excluded.external,
			template_id = excluded.template_id,
			template_params = excluded.template_params,
			layout = excluded.layout,
			updated_at = excluded.updated_at`,
		w.ID, w.DashboardID, w.Title, string(w.SourceKind), w.Query,
		external, w.TemplateID, params, layout, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save widget: %w", err)
	}
	return nil
}

// GetWidget returns one widget by id.
func (s *Store) GetWidget(ctx context.Context, id string) (*core.WidgetDefinition, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, dashboard_id, title, source_kind, query,
			external, template_id, template_params, layout, created_at, updated_at
		FROM widgets WHERE id = ?`, id)
	w, err := scanWidget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: "widget", ID: id}
	}
	return w, err
}

// ListWidgets returns a dashboard's widgets ordered by creation time.
func (s *Store) ListWidgets(ctx context.Context, dashboardID string) ([]core.WidgetDefinition, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dashboard_id, title, source_kind, query,
			external, template_id, template_params, layout, created_at, updated_at
		FROM widgets WHERE dashboard_id = ? ORDER BY created_at, id`, dashboardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list widgets: %w", err)
	}
	defer rows.Close()

	var out []core.WidgetDefinition
	for rows.Next() {
		w, err := scanWidget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// DeleteWidget removes one widget by id.
func (s *Store) DeleteWidget(ctx context.Context, id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM widgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete widget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "widget", ID: id}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWidget(row rowScanner) (*core.WidgetDefinition, error) {
	var (
		w        core.WidgetDefinition
		kind     string
		external sql.NullString
		params   sql.NullString
		layout   sql.NullString
	)
	err := row.Scan(&w.ID, &w.DashboardID, &w.Title, &kind, &w.Query,
		&external, &w.TemplateID, &params, &layout, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan widget: %w", err)
	}
	w.SourceKind = core.SourceKind(kind)
	if external.Valid {
		if err := json.Unmarshal([]byte(external.String), &w.External); err != nil {
			return nil, fmt.Errorf("widget %s has corrupt external endpoint: %w", w.ID, err)
		}
	}
	if params.Valid {
		if err := json.Unmarshal([]byte(params.String), &w.TemplateParams); err != nil {
			return nil, fmt.Errorf("widget %s has corrupt template params: %w", w.ID, err)
		}
	}
	if layout.Valid {
		w.Layout = json.RawMessage(layout.String)
	}
	return &w, nil
}

// marshalNullable serializes v to JSON, mapping nil to SQL NULL.
func marshalNullable(v any) (*string, error) {
	switch x := v.(type) {
	case *core.ExternalEndpoint:
		if x == nil {
			return nil, nil
		}
	case map[string]any:
		if x == nil {
			return nil, nil
		}
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(buf)
	return &s, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
