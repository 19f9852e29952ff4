package core

import (
	"encoding/json"
	"sort"
	"time"
)

// SourceKind identifies how a widget obtains its data.
type SourceKind string

// SourceKind constants for widget data sources.
const (
	// SourceQuery runs raw SQL against the embedded analytical engine.
	SourceQuery SourceKind = "query"

	// SourceExternal issues an HTTP call to an external endpoint.
	SourceExternal SourceKind = "external"

	// SourceTemplate resolves a stored query template with bound
	// parameters, then executes it like SourceQuery.
	SourceTemplate SourceKind = "template"
)

// Valid reports whether k is a known source kind.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceQuery, SourceExternal, SourceTemplate:
		return true
	}
	return false
}

// ExternalEndpoint describes an external HTTP data source for a widget.
type ExternalEndpoint struct {
	// Method is the HTTP method; GET when empty.
	Method string `json:"method,omitempty"`

	// URL is the endpoint to call.
	URL string `json:"url"`

	// Headers are sent verbatim with the request.
	Headers map[string]string `json:"headers,omitempty"`

	// FilterMode controls where global filters are merged:
	// "query" appends them as URL query parameters (default),
	// "body" merges them into a JSON request body.
	FilterMode string `json:"filter_mode,omitempty"`
}

// WidgetDefinition is the contract the dashboard subsystem hands to the
// execution core. Layout metadata is owned by the (excluded) layout
// subsystem and carried through opaquely.
type WidgetDefinition struct {
	ID          string     `json:"id"`
	DashboardID string     `json:"dashboard_id"`
	Title       string     `json:"title"`
	SourceKind  SourceKind `json:"source_kind"`

	// Query holds raw SQL for SourceQuery widgets.
	Query string `json:"query,omitempty"`

	// External describes the endpoint for SourceExternal widgets.
	External *ExternalEndpoint `json:"external,omitempty"`

	// TemplateID and TemplateParams apply to SourceTemplate widgets.
	TemplateID     string         `json:"template_id,omitempty"`
	TemplateParams map[string]any `json:"template_params,omitempty"`

	// Layout is opaque to the execution core.
	Layout json.RawMessage `json:"layout,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Dashboard groups widgets under one refreshable view.
type Dashboard struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Filter is one dashboard-wide parameter applied to every widget on
// refresh. Values are scalars or two-element ranges.
type Filter struct {
	Key   string
	Value any
}

// GlobalFilterSet is an ordered list of filters, immutable for the
// duration of one execution.
type GlobalFilterSet []Filter

// Keys returns the filter keys in declaration order.
func (s GlobalFilterSet) Keys() []string {
	keys := make([]string, len(s))
	for i, f := range s {
		keys[i] = f.Key
	}
	return keys
}

// Values returns the filter values in declaration order.
func (s GlobalFilterSet) Values() []any {
	values := make([]any, len(s))
	for i, f := range s {
		values[i] = f.Value
	}
	return values
}

// Get returns the value bound to key, if present.
func (s GlobalFilterSet) Get(key string) (any, bool) {
	for _, f := range s {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// FiltersFromMap builds a GlobalFilterSet from a flat key/value map with
// keys ordered lexicographically, so identical maps always produce the
// same parameter binding order.
func FiltersFromMap(m map[string]any) GlobalFilterSet {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	set := make(GlobalFilterSet, 0, len(keys))
	for _, k := range keys {
		set = append(set, Filter{Key: k, Value: m[k]})
	}
	return set
}
