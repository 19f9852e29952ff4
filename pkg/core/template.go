package core

import "time"

// ParamSpec declares one template parameter: its name, a loose type tag
// ("string", "number", "date", ...), an optional default, and an
// optional closed set of allowed values.
type ParamSpec struct {
	Name     string   `json:"name" yaml:"name"`
	Type     string   `json:"type,omitempty" yaml:"type,omitempty"`
	Default  any      `json:"default,omitempty" yaml:"default,omitempty"`
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Allowed  []string `json:"allowed,omitempty" yaml:"allowed,omitempty"`
}

// QueryTemplate is a reusable parameterized query. Every placeholder
// referenced in RawSQL must have a corresponding ParamSpec; absent bound
// values fall back to the spec default.
type QueryTemplate struct {
	ID        string      `json:"id" yaml:"id"`
	Category  string      `json:"category,omitempty" yaml:"category,omitempty"`
	RawSQL    string      `json:"raw_sql" yaml:"raw_sql"`
	Params    []ParamSpec `json:"params,omitempty" yaml:"params,omitempty"`
	CreatedAt time.Time   `json:"created_at,omitempty" yaml:"-"`
}

// Param returns the spec for the named parameter, if declared.
func (t *QueryTemplate) Param(name string) (ParamSpec, bool) {
	for _, p := range t.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}
