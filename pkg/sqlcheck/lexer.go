package sqlcheck

// Lexer tokenizes SQL input for the safety parser. It follows the
// engine's lexical rules for strings, quoted identifiers and comments so
// that keyword detection cannot be defeated by embedding keywords in
// literals or comments.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)

	err *SyntaxError // first lexical error encountered
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// Err returns the first lexical error encountered, if any.
func (l *Lexer) Err() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// currentPos returns the current position.
func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.pos}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()

	switch l.ch {
	case 0:
		return Token{Type: TOKEN_EOF, Pos: pos}
	case '(':
		l.readChar()
		return Token{Type: TOKEN_LPAREN, Literal: "(", Pos: pos}
	case ')':
		l.readChar()
		return Token{Type: TOKEN_RPAREN, Literal: ")", Pos: pos}
	case ',':
		l.readChar()
		return Token{Type: TOKEN_COMMA, Literal: ",", Pos: pos}
	case ';':
		l.readChar()
		return Token{Type: TOKEN_SEMICOLON, Literal: ";", Pos: pos}
	case '\'':
		return l.readString(pos)
	case '"':
		return l.readQuotedIdent(pos)
	}

	if isLetter(l.ch) {
		word := l.readWord()
		typ, lit := lookupIdent(word)
		return Token{Type: typ, Literal: lit, Pos: pos}
	}

	if isDigit(l.ch) {
		return Token{Type: TOKEN_NUMBER, Literal: l.readNumber(), Pos: pos}
	}

	// Any other symbol is an operator character; the safety parser does
	// not distinguish them.
	op := string(l.ch)
	l.readChar()
	return Token{Type: TOKEN_OP, Literal: op, Pos: pos}
}

// skipWhitespaceAndComments skips spaces, line comments (--) and block
// comments (/* ... */).
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			pos := l.currentPos()
			l.readChar()
			l.readChar()
			closed := false
			for l.ch != 0 {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					closed = true
					break
				}
				l.readChar()
			}
			if !closed {
				l.setErr(pos, "unterminated block comment")
				return
			}
		default:
			return
		}
	}
}

// readString reads a single-quoted string literal. Doubled quotes ('')
// escape a quote inside the literal.
func (l *Lexer) readString(pos Position) Token {
	l.readChar() // consume opening quote
	start := l.pos
	for {
		if l.ch == 0 {
			l.setErr(pos, "unterminated string literal")
			return Token{Type: TOKEN_ILLEGAL, Pos: pos}
		}
		if l.ch == '\'' {
			if l.peekChar() == '\'' {
				l.readChar()
				l.readChar()
				continue
			}
			break
		}
		l.readChar()
	}
	lit := l.input[start:l.pos]
	l.readChar() // consume closing quote
	return Token{Type: TOKEN_STRING, Literal: lit, Pos: pos}
}

// readQuotedIdent reads a double-quoted identifier. Quoted identifiers
// are never keywords.
func (l *Lexer) readQuotedIdent(pos Position) Token {
	l.readChar() // consume opening quote
	start := l.pos
	for l.ch != '"' {
		if l.ch == 0 {
			l.setErr(pos, "unterminated quoted identifier")
			return Token{Type: TOKEN_ILLEGAL, Pos: pos}
		}
		l.readChar()
	}
	lit := l.input[start:l.pos]
	l.readChar() // consume closing quote
	return Token{Type: TOKEN_IDENT, Literal: lit, Pos: pos}
}

// readWord reads an identifier or keyword.
func (l *Lexer) readWord() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal.
func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) || l.ch == '.' || l.ch == 'e' || l.ch == 'E' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) setErr(pos Position, msg string) {
	if l.err == nil {
		l.err = &SyntaxError{Pos: pos, Message: msg}
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch >= 0x80
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
