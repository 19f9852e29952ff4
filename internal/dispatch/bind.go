package dispatch

import (
	"fmt"
	"strings"

	"github.com/careops-labs/careboard/internal/adapter"
	"github.com/careops-labs/careboard/pkg/core"
	"github.com/careops-labs/careboard/pkg/sqlcheck"
)

// bindFilters rewrites :name filter markers in query text to the
// engine's bind-parameter syntax and returns the argument list in
// marker order. Filter values are never concatenated into the text;
// they always travel as bound parameters, preserving the same
// injection-safety guarantee the validator provides for structure.
//
// Markers inside string literals, quoted identifiers and comments are
// left untouched: the scan runs on the lexer's token stream, not the
// raw text. Filters the text never references are ignored; a marker
// with no matching filter is an error.
func bindFilters(sqlText string, filters core.GlobalFilterSet, eng adapter.Adapter) (string, []any, error) {
	markers, err := filterMarkers(sqlText)
	if err != nil {
		return "", nil, err
	}
	if len(markers) == 0 {
		return sqlText, nil, nil
	}

	var (
		out  strings.Builder
		args []any
		prev int
	)
	for i, m := range markers {
		value, ok := filters.Get(m.name)
		if !ok {
			return "", nil, fmt.Errorf("query references filter %q but no such filter was supplied", m.name)
		}
		out.WriteString(sqlText[prev:m.start])
		out.WriteString(eng.Placeholder(i + 1))
		args = append(args, value)
		prev = m.end
	}
	out.WriteString(sqlText[prev:])
	return out.String(), args, nil
}

// marker is one :name occurrence in query text.
type marker struct {
	name  string
	start int // byte offset of ':'
	end   int // byte offset just past the name
}

// filterMarkers scans the token stream for an OP ":" immediately
// followed by an identifier. Adjacency is checked on byte offsets so
// "a : b" (a spaced colon) is not a marker.
func filterMarkers(sqlText string) ([]marker, error) {
	lex := sqlcheck.NewLexer(sqlText)

	var markers []marker
	prev := sqlcheck.Token{}
	for {
		tok := lex.NextToken()
		if tok.Type == sqlcheck.TOKEN_EOF {
			break
		}
		if prev.Type == sqlcheck.TOKEN_OP && prev.Literal == ":" &&
			(tok.Type == sqlcheck.TOKEN_IDENT || tok.Type == sqlcheck.TOKEN_KEYWORD) &&
			tok.Pos.Offset == prev.Pos.Offset+1 {
			// Slice the raw text: keyword literals are upper-cased by
			// the lexer, filter names are not.
			end := tok.Pos.Offset + len(tok.Literal)
			markers = append(markers, marker{
				name:  sqlText[tok.Pos.Offset:end],
				start: prev.Pos.Offset,
				end:   end,
			})
		}
		prev = tok
	}
	if err := lex.Err(); err != nil {
		return nil, err
	}
	return markers, nil
}
