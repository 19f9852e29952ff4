package sqlcheck

// StatementKind names a SQL statement class. The safety validator only
// needs the class, not the full statement grammar.
type StatementKind string

// Statement kinds recognized by the parser.
const (
	KindSelect StatementKind = "SELECT"
	KindValues StatementKind = "VALUES"

	KindInsert   StatementKind = "INSERT"
	KindUpdate   StatementKind = "UPDATE"
	KindDelete   StatementKind = "DELETE"
	KindMerge    StatementKind = "MERGE"
	KindCreate   StatementKind = "CREATE"
	KindDrop     StatementKind = "DROP"
	KindAlter    StatementKind = "ALTER"
	KindTruncate StatementKind = "TRUNCATE"
	KindAttach   StatementKind = "ATTACH"
	KindDetach   StatementKind = "DETACH"
	KindCopy     StatementKind = "COPY"
	KindExport   StatementKind = "EXPORT"
	KindImport   StatementKind = "IMPORT"
	KindInstall  StatementKind = "INSTALL"
	KindLoad     StatementKind = "LOAD"
	KindPragma   StatementKind = "PRAGMA"
	KindSet      StatementKind = "SET"
	KindCall     StatementKind = "CALL"
	KindVacuum   StatementKind = "VACUUM"
	KindAnalyze  StatementKind = "ANALYZE"
	KindGrant    StatementKind = "GRANT"
	KindRevoke   StatementKind = "REVOKE"
	KindTxn      StatementKind = "TRANSACTION"
	KindExplain  StatementKind = "EXPLAIN"
	KindShow     StatementKind = "SHOW"
	KindExecute  StatementKind = "EXECUTE"
	KindUse      StatementKind = "USE"
)

// statementKinds maps a statement-starting keyword to its kind. Only
// consulted in statement position (input start, after ';', after '(',
// or as a CTE body), so keywords used elsewhere stay inert.
var statementKinds = map[string]StatementKind{
	"SELECT":     KindSelect,
	"VALUES":     KindValues,
	"INSERT":     KindInsert,
	"UPSERT":     KindInsert,
	"UPDATE":     KindUpdate,
	"DELETE":     KindDelete,
	"MERGE":      KindMerge,
	"CREATE":     KindCreate,
	"DROP":       KindDrop,
	"ALTER":      KindAlter,
	"RENAME":     KindAlter,
	"TRUNCATE":   KindTruncate,
	"ATTACH":     KindAttach,
	"DETACH":     KindDetach,
	"COPY":       KindCopy,
	"EXPORT":     KindExport,
	"IMPORT":     KindImport,
	"INSTALL":    KindInstall,
	"LOAD":       KindLoad,
	"PRAGMA":     KindPragma,
	"SET":        KindSet,
	"RESET":      KindSet,
	"CALL":       KindCall,
	"EXECUTE":    KindExecute,
	"PREPARE":    KindExecute,
	"VACUUM":     KindVacuum,
	"ANALYZE":    KindAnalyze,
	"CHECKPOINT": KindVacuum,
	"GRANT":      KindGrant,
	"REVOKE":     KindRevoke,
	"BEGIN":      KindTxn,
	"COMMIT":     KindTxn,
	"ROLLBACK":   KindTxn,
	"EXPLAIN":    KindExplain,
	"DESCRIBE":   KindShow,
	"SHOW":       KindShow,
	"USE":        KindUse,
}

// Statement is a node in the tagged-union statement tree.
type Statement interface {
	stmtNode()

	// StatementKind returns the statement's class.
	StatementKind() StatementKind

	// Pos returns the position where the statement starts.
	Pos() Position
}

// SelectStmt represents a retrieval statement with an optional WITH
// prefix. Set operations (UNION, INTERSECT, EXCEPT) fold into the same
// node; each arm contributes its nested-statement sites.
type SelectStmt struct {
	StartPos Position
	Kind     StatementKind // KindSelect or KindValues
	With     *WithClause

	// Nested holds every statement found in a nested-statement site of
	// this statement's body: derived tables, IN/EXISTS subqueries,
	// scalar subqueries and set-operation arms.
	Nested []Statement
}

func (*SelectStmt) stmtNode() {}

// StatementKind returns KindSelect or KindValues.
func (s *SelectStmt) StatementKind() StatementKind { return s.Kind }

// Pos returns the statement's start position.
func (s *SelectStmt) Pos() Position { return s.StartPos }

// WithClause represents a WITH clause with its CTEs.
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE represents a single common table expression. Its body is a full
// statement: data-modifying CTEs are how mutations get smuggled into
// otherwise-SELECT text, so the body is never assumed to be a SELECT.
type CTE struct {
	Name string
	Body Statement
}

// RawStmt represents any non-retrieval statement. The parser records
// its kind and every nested statement site but does not model its
// grammar further; the validator rejects it on kind alone.
type RawStmt struct {
	StartPos Position
	Kind     StatementKind
	Nested   []Statement
}

func (*RawStmt) stmtNode() {}

// StatementKind returns the statement's class.
func (s *RawStmt) StatementKind() StatementKind { return s.Kind }

// Pos returns the statement's start position.
func (s *RawStmt) Pos() Position { return s.StartPos }

// Visitor is called for every statement in the tree, parents before
// children. Returning false stops descent into that statement.
type Visitor func(Statement) bool

// Walk applies v to stmt and every statement nested inside it,
// enumerating all nested-statement sites: CTE bodies, subqueries and
// set-operation arms.
func Walk(stmt Statement, v Visitor) {
	if stmt == nil || !v(stmt) {
		return
	}
	switch s := stmt.(type) {
	case *SelectStmt:
		if s.With != nil {
			for _, cte := range s.With.CTEs {
				Walk(cte.Body, v)
			}
		}
		for _, nested := range s.Nested {
			Walk(nested, v)
		}
	case *RawStmt:
		for _, nested := range s.Nested {
			Walk(nested, v)
		}
	}
}
