// Package dispatch routes widget executions to the correct backend
// (embedded analytical engine, external HTTP endpoint, or resolved
// query template) and returns one normalized ExecutionResult per widget.
//
// Failure is data: a widget execution never raises to the caller, it
// returns a result with Error set, so a dashboard of N widgets can
// partially succeed.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/careops-labs/careboard/internal/adapter"
	"github.com/careops-labs/careboard/internal/result"
	"github.com/careops-labs/careboard/internal/template"
	"github.com/careops-labs/careboard/pkg/core"
	"github.com/careops-labs/careboard/pkg/sqlcheck"
)

// DefaultTimeout bounds a single widget execution, engine or external.
const DefaultTimeout = 30 * time.Second

// TemplateSource supplies stored query templates to the dispatcher.
type TemplateSource interface {
	Template(ctx context.Context, id string) (*core.QueryTemplate, error)
}

// Config holds dispatcher collaborators and tuning.
type Config struct {
	Engine    adapter.Adapter
	Templates TemplateSource
	Client    *http.Client
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Dispatcher executes widget definitions. The engine is treated as a
// shared read-only resource; the dispatcher never issues writes.
type Dispatcher struct {
	engine    adapter.Adapter
	templates TemplateSource
	client    *http.Client
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		engine:    cfg.Engine,
		templates: cfg.Templates,
		client:    cfg.Client,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
	}
}

// Execute runs one widget against its declared source and returns the
// normalized result. All failures, from validation through transport,
// come back as ExecutionResult.Error.
func (d *Dispatcher) Execute(ctx context.Context, widget core.WidgetDefinition, filters core.GlobalFilterSet) core.ExecutionResult {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	switch widget.SourceKind {
	case core.SourceQuery:
		return d.executeQuery(ctx, widget.Query, filters)
	case core.SourceExternal:
		return d.executeExternal(ctx, widget, filters)
	case core.SourceTemplate:
		return d.executeTemplate(ctx, widget, filters)
	default:
		return core.ErrorResult("unknown source kind %q", widget.SourceKind)
	}
}

// ExecuteQueryText runs raw retrieval text through the same validate +
// bind + execute path as a SourceQuery widget. The optimization bridge
// uses this to take its demand snapshot.
func (d *Dispatcher) ExecuteQueryText(ctx context.Context, queryText string, filters core.GlobalFilterSet) core.ExecutionResult {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.executeQuery(ctx, queryText, filters)
}

// executeQuery validates then executes query text against the engine.
// The validator runs on every execution, including template-resolved
// text; the engine never sees unvalidated input.
func (d *Dispatcher) executeQuery(ctx context.Context, queryText string, filters core.GlobalFilterSet) core.ExecutionResult {
	if d.engine == nil {
		return core.ErrorResult("no analytical engine configured")
	}
	if err := sqlcheck.Validate(queryText); err != nil {
		return core.ErrorResult("%v", err)
	}

	bound, args, err := bindFilters(queryText, filters, d.engine)
	if err != nil {
		return core.ErrorResult("%v", err)
	}

	rows, err := d.engine.Query(ctx, bound, args...)
	if err != nil {
		return core.ErrorResult("query failed: %v", err)
	}
	defer func() { _ = rows.Close() }()

	res, err := result.FromRows(rows.Rows)
	if err != nil {
		return core.ErrorResult("%v", err)
	}
	return res
}

// executeTemplate resolves the widget's template and proceeds exactly
// like a raw query. Resolution happens before validation on purpose: a
// parameter value can introduce unsafe constructs, and the validator
// must see the post-substitution text.
func (d *Dispatcher) executeTemplate(ctx context.Context, widget core.WidgetDefinition, filters core.GlobalFilterSet) core.ExecutionResult {
	if d.templates == nil {
		return core.ErrorResult("no template source configured")
	}
	tpl, err := d.templates.Template(ctx, widget.TemplateID)
	if err != nil {
		return core.ErrorResult("template %q: %v", widget.TemplateID, err)
	}

	resolved, err := template.Resolve(tpl, widget.TemplateParams)
	if err != nil {
		return core.ErrorResult("template %q: %v", widget.TemplateID, err)
	}

	return d.executeQuery(ctx, resolved, filters)
}

// safeExecute isolates one widget execution: a panic in any layer
// becomes that widget's error result instead of taking down the
// refresh.
func (d *Dispatcher) safeExecute(ctx context.Context, widget core.WidgetDefinition, filters core.GlobalFilterSet) (res core.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("widget execution panicked", "widget", widget.ID, "panic", fmt.Sprint(r))
			res = core.ErrorResult("internal error executing widget")
		}
	}()
	return d.Execute(ctx, widget, filters)
}
