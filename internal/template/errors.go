package template

import "fmt"

// Position tracks source location for error reporting.
type Position struct {
	Line   int
	Column int
}

// LexError represents an error during template tokenization.
type LexError struct {
	Pos Position
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// MissingParameterError reports a placeholder whose parameter has no
// bound value and no schema default.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required template parameter %q", e.Name)
}

// UndeclaredPlaceholderError reports a placeholder in the template text
// with no corresponding entry in the parameter schema.
type UndeclaredPlaceholderError struct {
	Name string
}

func (e *UndeclaredPlaceholderError) Error() string {
	return fmt.Sprintf("placeholder %q has no parameter schema entry", e.Name)
}

// DisallowedValueError reports a bound value outside the parameter's
// declared allowed set.
type DisallowedValueError struct {
	Name  string
	Value string
}

func (e *DisallowedValueError) Error() string {
	return fmt.Sprintf("value %q is not allowed for template parameter %q", e.Value, e.Name)
}
