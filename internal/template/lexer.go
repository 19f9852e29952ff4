// Package template resolves parameterized query templates: mustache
// style {{ name }} placeholders substituted with bound parameter values
// before the result is re-validated and executed like any hand-written
// query text.
package template

import (
	"strings"
	"unicode/utf8"
)

// TokenType identifies the type of token.
type TokenType int

// TokenType constants for template token types.
const (
	TokenText        TokenType = iota // Literal SQL text
	TokenPlaceholder                  // Parameter name (between {{ and }})
	TokenEOF                          // End of input
)

// Token represents a lexical token.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
}

// Lexer tokenizes a template string into text and placeholder tokens.
type Lexer struct {
	input string
	pos   int // current position in input
	line  int // current line number (1-based)
	col   int // current column number (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Tokenize converts the input into a slice of tokens.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return tokens, nil
}

// nextToken returns the next token from the input.
func (l *Lexer) nextToken() (Token, error) {
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.position()}, nil
	}
	if l.matchString("{{") {
		return l.scanPlaceholder()
	}
	return l.scanText()
}

// scanText scans literal text until a placeholder delimiter or EOF.
func (l *Lexer) scanText() (Token, error) {
	pos := l.position()
	start := l.pos
	for l.pos < len(l.input) && !l.matchString("{{") {
		l.advance()
	}
	return Token{Type: TokenText, Value: l.input[start:l.pos], Pos: pos}, nil
}

// scanPlaceholder scans a {{ name }} placeholder.
func (l *Lexer) scanPlaceholder() (Token, error) {
	pos := l.position()

	// Skip {{
	l.pos += 2
	l.col += 2

	start := l.pos
	for l.pos < len(l.input) {
		if l.matchString("}}") {
			name := strings.TrimSpace(l.input[start:l.pos])
			l.pos += 2
			l.col += 2
			if name == "" {
				return Token{}, &LexError{Pos: pos, Msg: "empty placeholder"}
			}
			return Token{Type: TokenPlaceholder, Value: name, Pos: pos}, nil
		}
		l.advance()
	}
	return Token{}, &LexError{Pos: pos, Msg: "unclosed placeholder: missing '}}'"}
}

// advance moves to the next rune, updating position tracking.
func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

// matchString checks if the input at current position matches s.
func (l *Lexer) matchString(s string) bool {
	return strings.HasPrefix(l.input[l.pos:], s)
}

func (l *Lexer) position() Position {
	return Position{Line: l.line, Column: l.col}
}
