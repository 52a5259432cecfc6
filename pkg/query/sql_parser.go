package query

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Statement is a parsed aggregate request such as
//
//	SELECT mean(temp), min(pressure) AS pmin FROM readings JOIN devices
//	GROUP BY site EVERY 15min ON evt_timestamp
type Statement struct {
	Schema     string
	Table      string
	Dimension  string
	Aggregates AggregateSpec
	GroupBy    []string
	Grain      string
	Timestamp  string
}

func (s *Statement) String() string {
	parts := make([]string, len(s.Aggregates))
	for i, a := range s.Aggregates {
		parts[i] = a.String()
	}
	out := fmt.Sprintf("SELECT %s FROM %s", strings.Join(parts, ", "), s.Table)
	if s.Schema != "" {
		out = fmt.Sprintf("SELECT %s FROM %s.%s", strings.Join(parts, ", "), s.Schema, s.Table)
	}
	if s.Dimension != "" {
		out += " JOIN " + s.Dimension
	}
	if len(s.GroupBy) > 0 {
		out += " GROUP BY " + strings.Join(s.GroupBy, ", ")
	}
	if s.Grain != "" {
		out += " EVERY " + s.Grain
	}
	if s.Timestamp != "" {
		out += " ON " + s.Timestamp
	}
	return out
}

// Lexer definition
var (
	sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Keyword", Pattern: `(?i)\b(SELECT|FROM|JOIN|GROUP|BY|AS|EVERY|ON)\b`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Number", Pattern: `\d+`},
		{Name: "String", Pattern: `'[^']*'|"[^"]*"`},
		{Name: "Punct", Pattern: `[-,.()]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	sqlParser = participle.MustBuild[ASTStatement](
		participle.Lexer(sqlLexer),
		participle.Unquote("String"),
		participle.CaseInsensitive("Keyword"),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
)

// ParseStatement parses an aggregate request string.
func ParseStatement(input string) (*Statement, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty query")
	}

	ast, err := sqlParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return ast.toStatement()
}
