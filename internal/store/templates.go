package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/careops-labs/careboard/internal/template"
	"github.com/careops-labs/careboard/pkg/core"
)

// SaveTemplate inserts or replaces a query template. The template's
// placeholders are checked against its parameter schema first, so a
// template that could never resolve is rejected at write time.
func (s *Store) SaveTemplate(ctx context.Context, tpl *core.QueryTemplate) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if tpl.ID == "" {
		return fmt.Errorf("template id is required")
	}
	if err := template.CheckSchema(tpl); err != nil {
		return fmt.Errorf("template %s: %w", tpl.ID, err)
	}

	var paramsJSON *string
	if len(tpl.Params) > 0 {
		buf, err := json.Marshal(tpl.Params)
		if err != nil {
			return fmt.Errorf("failed to serialize params: %w", err)
		}
		paramsJSON = nullableString(string(buf))
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_templates (id, category, raw_sql, params, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			category = excluded.category,
			raw_sql = excluded.raw_sql,
			params = excluded.params`,
		tpl.ID, tpl.Category, tpl.RawSQL, paramsJSON, tpl.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

// Template returns one template by id. It satisfies the dispatcher's
// template source.
func (s *Store) Template(ctx context.Context, id string) (*core.QueryTemplate, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	var (
		tpl    core.QueryTemplate
		params sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, category, raw_sql, params, created_at FROM query_templates WHERE id = ?`, id,
	).Scan(&tpl.ID, &tpl.Category, &tpl.RawSQL, &params, &tpl.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: "template", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	if params.Valid {
		if err := json.Unmarshal([]byte(params.String), &tpl.Params); err != nil {
			return nil, fmt.Errorf("template %s has corrupt params: %w", id, err)
		}
	}
	return &tpl, nil
}

// ListTemplates returns all templates ordered by category then id.
func (s *Store) ListTemplates(ctx context.Context) ([]core.QueryTemplate, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, raw_sql, params, created_at FROM query_templates ORDER BY category, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var out []core.QueryTemplate
	for rows.Next() {
		var (
			tpl    core.QueryTemplate
			params sql.NullString
		)
		if err := rows.Scan(&tpl.ID, &tpl.Category, &tpl.RawSQL, &params, &tpl.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		if params.Valid {
			if err := json.Unmarshal([]byte(params.String), &tpl.Params); err != nil {
				return nil, fmt.Errorf("template %s has corrupt params: %w", tpl.ID, err)
			}
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

// DeleteTemplate removes one template by id.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM query_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: "template", ID: id}
	}
	return nil
}
