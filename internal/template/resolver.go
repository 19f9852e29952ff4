package template

import (
	"fmt"
	"strings"

	"github.com/careops-labs/careboard/pkg/core"
)

// Resolve substitutes every placeholder in the template's raw text with
// its bound value, falling back to the schema default when no value is
// bound. Substitution is literal text replacement with no nested or
// conditional logic. The resolved text is NOT
// safe by construction: callers must run it through sqlcheck.Validate
// exactly like hand-written query text, which is what stops a malicious
// parameter value from authorizing a mutation.
func Resolve(tpl *core.QueryTemplate, params map[string]any) (string, error) {
	tokens, err := NewLexer(tpl.RawSQL).Tokenize()
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, tok := range tokens {
		switch tok.Type {
		case TokenText:
			out.WriteString(tok.Value)
		case TokenPlaceholder:
			value, err := resolveParam(tpl, tok.Value, params)
			if err != nil {
				return "", err
			}
			out.WriteString(value)
		case TokenEOF:
		}
	}
	return out.String(), nil
}

// resolveParam produces the string representation for one placeholder.
// Every placeholder must have a schema entry; bound value wins over
// schema default; a required parameter with neither fails.
func resolveParam(tpl *core.QueryTemplate, name string, params map[string]any) (string, error) {
	spec, ok := tpl.Param(name)
	if !ok {
		return "", &UndeclaredPlaceholderError{Name: name}
	}

	value, bound := params[name]
	if !bound || value == nil {
		value = spec.Default
	}
	if value == nil {
		if spec.Required {
			return "", &MissingParameterError{Name: name}
		}
		// Optional parameter with no default resolves to nothing; the
		// validator decides whether the remaining text still parses.
		return "", nil
	}

	text := formatValue(value)
	if len(spec.Allowed) > 0 && !allowed(spec.Allowed, text) {
		return "", &DisallowedValueError{Name: name, Value: text}
	}
	return text, nil
}

// formatValue renders a bound value as query text. JSON numbers arrive
// as float64; integral ones print without a fraction.
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func allowed(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}

// Placeholders returns the distinct placeholder names referenced in raw
// template text, in first-appearance order. Used to check the schema
// invariant when templates are stored.
func Placeholders(rawSQL string) ([]string, error) {
	tokens, err := NewLexer(rawSQL).Tokenize()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var names []string
	for _, tok := range tokens {
		if tok.Type != TokenPlaceholder {
			continue
		}
		if _, dup := seen[tok.Value]; dup {
			continue
		}
		seen[tok.Value] = struct{}{}
		names = append(names, tok.Value)
	}
	return names, nil
}

// CheckSchema verifies that every placeholder referenced in the
// template text has a corresponding parameter schema entry.
func CheckSchema(tpl *core.QueryTemplate) error {
	names, err := Placeholders(tpl.RawSQL)
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, ok := tpl.Param(name); !ok {
			return &UndeclaredPlaceholderError{Name: name}
		}
	}
	return nil
}
