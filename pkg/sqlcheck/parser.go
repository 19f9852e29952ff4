package sqlcheck

import "fmt"

// Parser builds the tagged-union statement tree the validator walks.
//
// Grammar coverage is deliberately coarse: statement-level structure is
// fully typed (statement lists, WITH/CTE prefixes, statement kinds),
// while clause interiors are scanned only for nested-statement sites.
// A statement can be nested in exactly three places (after ';', as a
// CTE body, or inside parentheses), so scanning those sites is enough
// to classify every statement in the text.
//
//	statement_list → statement (";" statement)*
//	statement      → [WITH [RECURSIVE] cte ("," cte)*] body
//	cte            → name ["(" column_list ")"] AS "(" statement ")"
//	body           → retrieval_body | raw_body
type Parser struct {
	lexer  *Lexer
	token  Token
	peek   Token
	errors []*SyntaxError
}

// NewParser creates a parser for the given SQL text.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the input into a statement list. It returns the first
// syntax error encountered, with the (possibly partial) tree.
func Parse(input string) ([]Statement, error) {
	p := NewParser(input)
	stmts := p.parseStatementList()
	if err := p.lexer.Err(); err != nil {
		return stmts, err
	}
	if len(p.errors) > 0 {
		return stmts, p.errors[0]
	}
	return stmts, nil
}

func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) addError(pos Position, format string, args ...any) {
	p.errors = append(p.errors, &SyntaxError{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// isStatementStart reports whether the current token can begin a
// statement (WITH or a known statement keyword).
func (p *Parser) isStatementStart() bool {
	if p.token.Type != TOKEN_KEYWORD {
		return false
	}
	if p.token.Literal == "WITH" {
		return true
	}
	_, ok := statementKinds[p.token.Literal]
	return ok
}

// parseStatementList parses semicolon-separated statements.
func (p *Parser) parseStatementList() []Statement {
	var stmts []Statement
	for p.token.Type == TOKEN_SEMICOLON {
		p.nextToken()
	}
	if p.token.Type == TOKEN_EOF {
		p.addError(p.token.Pos, "empty statement")
		return stmts
	}
	for p.token.Type != TOKEN_EOF {
		stmts = append(stmts, p.parseStatement())

		switch p.token.Type {
		case TOKEN_EOF:
		case TOKEN_SEMICOLON:
			for p.token.Type == TOKEN_SEMICOLON {
				p.nextToken()
			}
		default:
			p.addError(p.token.Pos, "unexpected %q after statement", p.token.Literal)
			p.recoverToStatementEnd()
		}
	}
	return stmts
}

// parseStatement parses one statement: an optional WITH prefix followed
// by a statement body. The body after a WITH clause is not assumed to
// be a SELECT; engines allow data-modifying statements there.
func (p *Parser) parseStatement() Statement {
	startPos := p.token.Pos

	var with *WithClause
	if p.token.Keyword("WITH") {
		with = p.parseWithClause()
	}

	// A statement body may open with a parenthesized arm:
	// (SELECT ...) UNION (SELECT ...).
	if p.token.Type == TOKEN_LPAREN {
		nested := p.scanBody()
		if len(nested) == 0 {
			p.addError(startPos, "expected statement")
			return &RawStmt{StartPos: startPos, Kind: StatementKind("UNKNOWN")}
		}
		return &SelectStmt{StartPos: startPos, Kind: KindSelect, With: with, Nested: nested}
	}

	if p.token.Type != TOKEN_KEYWORD {
		p.addError(p.token.Pos, "expected statement, found %q", p.token.Literal)
		p.recoverToStatementEnd()
		return &RawStmt{StartPos: startPos, Kind: StatementKind("UNKNOWN")}
	}

	kind, ok := statementKinds[p.token.Literal]
	if !ok {
		p.addError(p.token.Pos, "expected statement, found %q", p.token.Literal)
		p.recoverToStatementEnd()
		return &RawStmt{StartPos: startPos, Kind: StatementKind("UNKNOWN")}
	}
	p.nextToken() // consume the statement keyword

	nested := p.scanBody()

	if kind == KindSelect || kind == KindValues {
		return &SelectStmt{StartPos: startPos, Kind: kind, With: with, Nested: nested}
	}

	// Non-retrieval body: fold any CTE bodies into the nested list so
	// the walker still visits them.
	raw := &RawStmt{StartPos: startPos, Kind: kind, Nested: nested}
	if with != nil {
		for _, cte := range with.CTEs {
			raw.Nested = append(raw.Nested, cte.Body)
		}
	}
	return raw
}

// parseWithClause parses WITH [RECURSIVE] name [(cols)] AS (statement), ...
func (p *Parser) parseWithClause() *WithClause {
	p.nextToken() // consume WITH
	with := &WithClause{}

	if p.token.Keyword("RECURSIVE") {
		with.Recursive = true
		p.nextToken()
	}

	for {
		cte := p.parseCTE()
		if cte == nil {
			break
		}
		with.CTEs = append(with.CTEs, cte)

		if p.token.Type != TOKEN_COMMA {
			break
		}
		p.nextToken()
	}
	return with
}

// parseCTE parses a single common table expression.
func (p *Parser) parseCTE() *CTE {
	if p.token.Type != TOKEN_IDENT {
		p.addError(p.token.Pos, "expected CTE name, found %q", p.token.Literal)
		p.recoverToStatementEnd()
		return nil
	}
	cte := &CTE{Name: p.token.Literal}
	p.nextToken()

	// Optional column alias list.
	if p.token.Type == TOKEN_LPAREN {
		p.nextToken()
		for p.token.Type != TOKEN_RPAREN {
			if p.token.Type == TOKEN_EOF {
				p.addError(p.token.Pos, "unterminated CTE column list")
				return cte
			}
			if p.token.Type != TOKEN_IDENT && p.token.Type != TOKEN_COMMA {
				p.addError(p.token.Pos, "expected column name in CTE column list, found %q", p.token.Literal)
				p.recoverToStatementEnd()
				return cte
			}
			p.nextToken()
		}
		p.nextToken() // consume )
	}

	if !p.token.Keyword("AS") {
		p.addError(p.token.Pos, "expected AS in CTE definition, found %q", p.token.Literal)
		p.recoverToStatementEnd()
		return cte
	}
	p.nextToken()

	if p.token.Type != TOKEN_LPAREN {
		p.addError(p.token.Pos, "expected ( after AS in CTE definition")
		p.recoverToStatementEnd()
		return cte
	}
	p.nextToken()

	cte.Body = p.parseStatement()

	if p.token.Type != TOKEN_RPAREN {
		p.addError(p.token.Pos, "expected ) to close CTE definition")
		p.recoverToStatementEnd()
		return cte
	}
	p.nextToken()

	return cte
}

// scanBody consumes a statement body up to (but not including) a
// top-level ';', ')' or EOF, collecting every nested statement.
//
// Two nesting forms are recognized: a parenthesized group whose first
// token starts a statement (derived tables, IN/EXISTS and scalar
// subqueries, data-modifying subqueries), and a bare retrieval keyword
// mid-body (set-operation arms after UNION/INTERSECT/EXCEPT, source
// queries of INSERT ... SELECT). Non-retrieval keywords mid-body stay
// inert: a column named "update" is not a statement.
func (p *Parser) scanBody() []Statement {
	var nested []Statement
	for {
		switch p.token.Type {
		case TOKEN_EOF, TOKEN_SEMICOLON, TOKEN_RPAREN:
			return nested
		case TOKEN_LPAREN:
			p.nextToken()
			nested = append(nested, p.scanGroup()...)
		case TOKEN_KEYWORD:
			if kind, ok := statementKinds[p.token.Literal]; ok && (kind == KindSelect || kind == KindValues) {
				startPos := p.token.Pos
				p.nextToken()
				inner := p.scanBody()
				nested = append(nested, &SelectStmt{StartPos: startPos, Kind: kind, Nested: inner})
				return nested
			}
			p.nextToken()
		default:
			p.nextToken()
		}
	}
}

// scanGroup consumes a parenthesized group after its '(' and returns
// the statements nested inside it. The closing ')' is consumed.
func (p *Parser) scanGroup() []Statement {
	var nested []Statement

	if p.isStatementStart() {
		nested = append(nested, p.parseStatement())
	}

	for {
		switch p.token.Type {
		case TOKEN_RPAREN:
			p.nextToken()
			return nested
		case TOKEN_EOF:
			p.addError(p.token.Pos, "missing closing parenthesis")
			return nested
		case TOKEN_LPAREN:
			p.nextToken()
			nested = append(nested, p.scanGroup()...)
		case TOKEN_SEMICOLON:
			// A semicolon inside a group opens a new statement position.
			p.nextToken()
			if p.isStatementStart() {
				nested = append(nested, p.parseStatement())
			}
		case TOKEN_KEYWORD:
			// A retrieval keyword inside a group is a set-operation arm
			// of a nested statement ((SELECT ...) UNION SELECT ...).
			if kind, ok := statementKinds[p.token.Literal]; ok && (kind == KindSelect || kind == KindValues) {
				startPos := p.token.Pos
				p.nextToken()
				inner := p.scanBody()
				nested = append(nested, &SelectStmt{StartPos: startPos, Kind: kind, Nested: inner})
				continue
			}
			p.nextToken()
		default:
			p.nextToken()
		}
	}
}

// recoverToStatementEnd skips tokens until a statement boundary so the
// parser can report multiple errors without cascading. It always
// advances past at least the offending token: an unmatched ')' in
// statement position is consumed rather than left for the caller,
// which would otherwise see the same token again and loop.
func (p *Parser) recoverToStatementEnd() {
	depth := 0
	for {
		switch p.token.Type {
		case TOKEN_EOF:
			return
		case TOKEN_SEMICOLON:
			if depth == 0 {
				return
			}
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			if depth == 0 {
				p.nextToken()
				return
			}
			depth--
		}
		p.nextToken()
	}
}
