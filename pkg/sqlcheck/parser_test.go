package sqlcheck

import "testing"

func TestParse_SelectWithCTEs(t *testing.T) {
	stmts, err := Parse("WITH a AS (SELECT 1), b AS (SELECT 2) SELECT * FROM a JOIN b ON true")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}

	sel, ok := stmts[0].(*SelectStmt)
	if !ok {
		t.Fatalf("expected *SelectStmt, got %T", stmts[0])
	}
	if sel.With == nil || len(sel.With.CTEs) != 2 {
		t.Fatalf("expected 2 CTEs, got %+v", sel.With)
	}
	if sel.With.CTEs[0].Name != "a" || sel.With.CTEs[1].Name != "b" {
		t.Errorf("CTE names = %q, %q", sel.With.CTEs[0].Name, sel.With.CTEs[1].Name)
	}
	for _, cte := range sel.With.CTEs {
		if cte.Body == nil || cte.Body.StatementKind() != KindSelect {
			t.Errorf("CTE %q body = %v, want SELECT", cte.Name, cte.Body)
		}
	}
}

func TestParse_StatementList(t *testing.T) {
	stmts, err := Parse("SELECT 1; SELECT 2; DROP TABLE t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}
	kinds := []StatementKind{KindSelect, KindSelect, KindDrop}
	for i, want := range kinds {
		if got := stmts[i].StatementKind(); got != want {
			t.Errorf("statement %d kind = %s, want %s", i, got, want)
		}
	}
}

func TestWalk_EnumeratesNestedSites(t *testing.T) {
	sql := `WITH x AS (SELECT * FROM (SELECT 1) inner_t)
		SELECT * FROM x WHERE id IN (SELECT id FROM y)`
	stmts, err := Parse(sql)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var visited int
	Walk(stmts[0], func(s Statement) bool {
		visited++
		return true
	})
	// Root, CTE body, derived table inside the CTE, IN subquery.
	if visited != 4 {
		t.Errorf("visited %d statements, want 4", visited)
	}
}

func TestWalk_StopsOnFalse(t *testing.T) {
	stmts, err := Parse("SELECT * FROM (SELECT 1) x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var visited int
	Walk(stmts[0], func(Statement) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("visited %d statements, want 1", visited)
	}
}

func TestLexer_StringsAndComments(t *testing.T) {
	lex := NewLexer("SELECT 'it''s' -- comment\n, \"col\" /* block */ FROM t")
	var types []TokenType
	for {
		tok := lex.NextToken()
		types = append(types, tok.Type)
		if tok.Type == TOKEN_EOF {
			break
		}
	}
	want := []TokenType{
		TOKEN_KEYWORD, // SELECT
		TOKEN_STRING,  // 'it''s'
		TOKEN_COMMA,
		TOKEN_IDENT,   // "col"
		TOKEN_KEYWORD, // FROM
		TOKEN_IDENT,   // t
		TOKEN_EOF,
	}
	if len(types) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(types), len(want), types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("token %d type = %d, want %d", i, types[i], want[i])
		}
	}
}
