package sqlcheck

import "fmt"

// SyntaxError reports query text that does not parse at all.
type SyntaxError struct {
	Pos     Position
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// UnsafeStatementError reports the first disallowed statement kind found
// anywhere in the statement tree, including statements nested inside
// CTEs and subqueries.
type UnsafeStatementError struct {
	Kind StatementKind
	Pos  Position
}

func (e *UnsafeStatementError) Error() string {
	return fmt.Sprintf("unsafe statement at line %d, column %d: %s statements are not allowed", e.Pos.Line, e.Pos.Column, e.Kind)
}
