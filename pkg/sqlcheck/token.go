package sqlcheck

import "strings"

// TokenType identifies the type of a SQL token.
type TokenType int

// Token types produced by the lexer. Only the tokens the safety parser
// needs are distinguished; everything else is OP or IDENT.
const (
	TOKEN_EOF TokenType = iota
	TOKEN_ILLEGAL

	TOKEN_IDENT
	TOKEN_NUMBER
	TOKEN_STRING

	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_COMMA
	TOKEN_SEMICOLON
	TOKEN_OP // any other operator or punctuation

	TOKEN_KEYWORD // reserved word; Token.Literal holds the upper-cased word
)

// Position is a location in the input text.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// Keyword reports whether the token is the given keyword (upper-case).
func (t Token) Keyword(word string) bool {
	return t.Type == TOKEN_KEYWORD && t.Literal == word
}

// keywords the safety parser cares about: statement starters, CTE
// syntax, and set operators. Anything else lexes as IDENT.
var keywords = map[string]struct{}{
	"WITH": {}, "RECURSIVE": {}, "AS": {},
	"SELECT": {}, "VALUES": {}, "FROM": {},
	"UNION": {}, "INTERSECT": {}, "EXCEPT": {}, "ALL": {}, "DISTINCT": {},

	// Statement kinds with side effects.
	"INSERT": {}, "UPDATE": {}, "DELETE": {}, "MERGE": {}, "UPSERT": {},
	"CREATE": {}, "DROP": {}, "ALTER": {}, "TRUNCATE": {}, "RENAME": {},
	"ATTACH": {}, "DETACH": {}, "COPY": {}, "EXPORT": {}, "IMPORT": {},
	"INSTALL": {}, "LOAD": {}, "PRAGMA": {}, "SET": {}, "RESET": {},
	"CALL": {}, "EXECUTE": {}, "PREPARE": {}, "VACUUM": {}, "ANALYZE": {},
	"GRANT": {}, "REVOKE": {}, "BEGIN": {}, "COMMIT": {}, "ROLLBACK": {},
	"CHECKPOINT": {}, "USE": {}, "EXPLAIN": {}, "DESCRIBE": {}, "SHOW": {},
}

// lookupIdent classifies a word as a keyword or plain identifier.
func lookupIdent(word string) (TokenType, string) {
	upper := strings.ToUpper(word)
	if _, ok := keywords[upper]; ok {
		return TOKEN_KEYWORD, upper
	}
	return TOKEN_IDENT, word
}
