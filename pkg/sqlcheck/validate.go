// Package sqlcheck validates that candidate query text is a pure
// retrieval form before it is allowed anywhere near the analytical
// engine. It parses the text into a statement tree and rejects any
// statement kind with side effects, wherever it is nested: a mutation
// smuggled inside a CTE or subquery is a structural case, not an
// afterthought.
package sqlcheck

// Validate parses queryText and returns nil only if every statement in
// the tree (top level, CTE bodies, subqueries, set-operation arms)
// is a pure retrieval (SELECT or VALUES).
//
// The whitelist is strict: utility statements that are usually harmless
// (EXPLAIN, SHOW, DESCRIBE) are rejected too, because variants of them
// execute their argument.
//
// It returns *SyntaxError when the text does not parse, and
// *UnsafeStatementError naming the first disallowed statement kind
// otherwise. The function is pure: no engine access, no side effects.
func Validate(queryText string) error {
	stmts, err := Parse(queryText)
	if err != nil {
		return err
	}

	var unsafe *UnsafeStatementError
	for _, stmt := range stmts {
		Walk(stmt, func(s Statement) bool {
			if unsafe != nil {
				return false
			}
			switch s.StatementKind() {
			case KindSelect, KindValues:
				return true
			default:
				unsafe = &UnsafeStatementError{Kind: s.StatementKind(), Pos: s.Pos()}
				return false
			}
		})
		if unsafe != nil {
			return unsafe
		}
	}
	return nil
}
