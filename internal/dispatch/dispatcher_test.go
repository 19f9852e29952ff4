package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careops-labs/careboard/internal/adapter"
	"github.com/careops-labs/careboard/internal/testutil"
	"github.com/careops-labs/careboard/pkg/core"
)

// fakeTemplates is an in-memory TemplateSource.
type fakeTemplates map[string]*core.QueryTemplate

func (f fakeTemplates) Template(_ context.Context, id string) (*core.QueryTemplate, error) {
	tpl, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return tpl, nil
}

func newTestDispatcher(t *testing.T, templates fakeTemplates) *Dispatcher {
	t.Helper()
	ctx := context.Background()

	eng := adapter.NewDuckDB(testutil.NewTestLogger(t))
	require.NoError(t, eng.Connect(ctx, adapter.Config{Path: ":memory:"}))
	t.Cleanup(func() { _ = eng.Close() })

	require.NoError(t, eng.Exec(ctx, `CREATE TABLE visits (service VARCHAR, unit VARCHAR, admit_date DATE)`))
	require.NoError(t, eng.Exec(ctx, `INSERT INTO visits VALUES
		('CARD', 'ICU', '2026-01-03'),
		('CARD', 'MedSurg', '2026-01-04'),
		('NEURO', 'ICU', '2026-01-05'),
		('ORTHO', 'MedSurg', '2026-01-06')`))

	return New(Config{
		Engine:    eng,
		Templates: templates,
		Logger:    testutil.NewTestLogger(t),
	})
}

func TestExecute_Query(t *testing.T) {
	d := newTestDispatcher(t, nil)
	widget := core.WidgetDefinition{
		ID:         "w1",
		SourceKind: core.SourceQuery,
		Query:      "SELECT service, count(*) AS n FROM visits GROUP BY service ORDER BY service",
	}

	res := d.Execute(context.Background(), widget, nil)
	require.Empty(t, res.Error)
	require.NoError(t, res.Validate())
	assert.Equal(t, []string{"service", "n"}, res.Columns)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "CARD", res.Rows[0][0])
}

func TestExecute_QueryWithFilters(t *testing.T) {
	d := newTestDispatcher(t, nil)
	widget := core.WidgetDefinition{
		ID:         "w1",
		SourceKind: core.SourceQuery,
		Query:      "SELECT service FROM visits WHERE unit = :unit ORDER BY service",
	}
	filters := core.FiltersFromMap(map[string]any{"unit": "ICU"})

	res := d.Execute(context.Background(), widget, filters)
	require.Empty(t, res.Error)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "CARD", res.Rows[0][0])
	assert.Equal(t, "NEURO", res.Rows[1][0])
}

func TestExecute_FilterInStringLiteralNotBound(t *testing.T) {
	d := newTestDispatcher(t, nil)
	widget := core.WidgetDefinition{
		ID:         "w1",
		SourceKind: core.SourceQuery,
		Query:      "SELECT ':unit' AS marker FROM visits LIMIT 1",
	}

	res := d.Execute(context.Background(), widget, nil)
	require.Empty(t, res.Error)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, ":unit", res.Rows[0][0])
}

func TestExecute_InvalidSQLReturnsErrorResult(t *testing.T) {
	d := newTestDispatcher(t, nil)
	widget := core.WidgetDefinition{
		ID:         "w1",
		SourceKind: core.SourceQuery,
		Query:      "SELECT FROM WHERE (",
	}

	res := d.Execute(context.Background(), widget, nil)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Rows)
}

func TestExecute_UnsafeSQLNeverReachesEngine(t *testing.T) {
	d := newTestDispatcher(t, nil)
	widget := core.WidgetDefinition{
		ID:         "w1",
		SourceKind: core.SourceQuery,
		Query:      "DELETE FROM visits",
	}

	res := d.Execute(context.Background(), widget, nil)
	assert.Contains(t, res.Error, "not allowed")
	assert.Empty(t, res.Rows)

	// The engine still has all rows.
	check := d.Execute(context.Background(), core.WidgetDefinition{
		SourceKind: core.SourceQuery,
		Query:      "SELECT count(*) FROM visits",
	}, nil)
	require.Empty(t, check.Error)
	assert.EqualValues(t, 4, check.Rows[0][0])
}

func TestExecute_Idempotent(t *testing.T) {
	d := newTestDispatcher(t, nil)
	widget := core.WidgetDefinition{
		ID:         "w1",
		SourceKind: core.SourceQuery,
		Query:      "SELECT service, unit FROM visits ORDER BY service, unit",
	}
	filters := core.FiltersFromMap(map[string]any{"unused": 1})

	first := d.Execute(context.Background(), widget, filters)
	second := d.Execute(context.Background(), widget, filters)
	require.Empty(t, first.Error)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Columns, second.Columns)
}

func TestExecute_Template(t *testing.T) {
	templates := fakeTemplates{
		"census": {
			ID:     "census",
			RawSQL: "SELECT count(*) AS n FROM visits WHERE unit = '{{ unit }}'",
			Params: []core.ParamSpec{{Name: "unit", Required: true}},
		},
	}
	d := newTestDispatcher(t, templates)

	widget := core.WidgetDefinition{
		ID:             "w1",
		SourceKind:     core.SourceTemplate,
		TemplateID:     "census",
		TemplateParams: map[string]any{"unit": "ICU"},
	}
	res := d.Execute(context.Background(), widget, nil)
	require.Empty(t, res.Error)
	assert.EqualValues(t, 2, res.Rows[0][0])
}

func TestExecute_TemplateInjectionRejected(t *testing.T) {
	templates := fakeTemplates{
		"by-id": {
			ID:     "by-id",
			RawSQL: "SELECT * FROM visits WHERE service = '{{ svc }}'",
			Params: []core.ParamSpec{{Name: "svc", Required: true}},
		},
	}
	d := newTestDispatcher(t, templates)

	widget := core.WidgetDefinition{
		ID:             "w1",
		SourceKind:     core.SourceTemplate,
		TemplateID:     "by-id",
		TemplateParams: map[string]any{"svc": "x'; DROP TABLE visits; --"},
	}
	res := d.Execute(context.Background(), widget, nil)
	assert.NotEmpty(t, res.Error, "post-substitution text must be validated")

	check := d.Execute(context.Background(), core.WidgetDefinition{
		SourceKind: core.SourceQuery,
		Query:      "SELECT count(*) FROM visits",
	}, nil)
	require.Empty(t, check.Error)
	assert.EqualValues(t, 4, check.Rows[0][0])
}

func TestExecute_TemplateMissingParameter(t *testing.T) {
	templates := fakeTemplates{
		"census": {
			ID:     "census",
			RawSQL: "SELECT count(*) FROM visits WHERE unit = '{{ unit }}'",
			Params: []core.ParamSpec{{Name: "unit", Required: true}},
		},
	}
	d := newTestDispatcher(t, templates)

	res := d.Execute(context.Background(), core.WidgetDefinition{
		SourceKind: core.SourceTemplate,
		TemplateID: "census",
	}, nil)
	assert.Contains(t, res.Error, "missing required template parameter")
}

func TestExecute_External(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"unit":"ICU","free":3},{"unit":"MedSurg"}]`))
	}))
	defer srv.Close()

	d := newTestDispatcher(t, nil)
	widget := core.WidgetDefinition{
		ID:         "w1",
		SourceKind: core.SourceExternal,
		External:   &core.ExternalEndpoint{URL: srv.URL},
	}
	filters := core.FiltersFromMap(map[string]any{"date": "2026-01-01"})

	res := d.Execute(context.Background(), widget, filters)
	require.Empty(t, res.Error)
	assert.Equal(t, []string{"unit", "free"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.Nil(t, res.Rows[1][1])
	assert.Contains(t, gotQuery, "date=2026-01-01")
}

func TestExecute_ExternalNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	d := newTestDispatcher(t, nil)
	res := d.Execute(context.Background(), core.WidgetDefinition{
		SourceKind: core.SourceExternal,
		External:   &core.ExternalEndpoint{URL: srv.URL},
	}, nil)
	assert.Contains(t, res.Error, "502")
	assert.Empty(t, res.Rows)
}

func TestExecute_ExternalTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	eng := adapter.NewDuckDB(nil)
	require.NoError(t, eng.Connect(context.Background(), adapter.Config{Path: ":memory:"}))
	defer eng.Close()

	d := New(Config{
		Engine:  eng,
		Timeout: 50 * time.Millisecond,
		Logger:  testutil.NewTestLogger(t),
	})

	start := time.Now()
	res := d.Execute(context.Background(), core.WidgetDefinition{
		SourceKind: core.SourceExternal,
		External:   &core.ExternalEndpoint{URL: srv.URL},
	}, nil)
	assert.NotEmpty(t, res.Error)
	assert.Less(t, time.Since(start), 2*time.Second, "timeout must not hang the refresh")
}

func TestRefreshDashboard_FailureIsolation(t *testing.T) {
	d := newTestDispatcher(t, nil)

	widgets := []core.WidgetDefinition{
		{ID: "good", SourceKind: core.SourceQuery, Query: "SELECT count(*) FROM visits"},
		{ID: "bad-sql", SourceKind: core.SourceQuery, Query: "SELECT ((("},
		{ID: "unsafe", SourceKind: core.SourceQuery, Query: "DROP TABLE visits"},
		{ID: "unknown", SourceKind: core.SourceKind("mystery")},
	}

	results := d.RefreshDashboard(context.Background(), widgets, nil)
	require.Len(t, results, 4)

	assert.Empty(t, results["good"].Error)
	assert.EqualValues(t, 4, results["good"].Rows[0][0])
	assert.NotEmpty(t, results["bad-sql"].Error)
	assert.NotEmpty(t, results["unsafe"].Error)
	assert.NotEmpty(t, results["unknown"].Error)
}

func TestRefreshDashboard_Empty(t *testing.T) {
	d := newTestDispatcher(t, nil)
	results := d.RefreshDashboard(context.Background(), nil, nil)
	assert.Empty(t, results)
}
