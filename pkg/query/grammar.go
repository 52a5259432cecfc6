package query

import "strings"

// AST for Participle Parser

type ASTStatement struct {
	Aggregates []*ASTAggregate `parser:"'SELECT' @@ (',' @@)*"`
	From       *ASTTableName   `parser:"'FROM' @@"`
	Join       *ASTTableName   `parser:"('JOIN' @@)?"`
	GroupBy    []string        `parser:"('GROUP' 'BY' @Ident (',' @Ident)*)?"`
	Grain      *ASTGrain       `parser:"('EVERY' @@)?"`
	Timestamp  string          `parser:"('ON' @Ident)?"`
}

type ASTAggregate struct {
	Func   string `parser:"@Ident '('"`
	Column string `parser:"@Ident ')'"`
	Alias  string `parser:"('AS' @Ident)?"`
}

type ASTTableName struct {
	First  string `parser:"@Ident"`
	Second string `parser:"('.' @Ident)?"`
}

// schemaAndName splits "schema.table" or "table".
func (t *ASTTableName) schemaAndName() (string, string) {
	if t.Second == "" {
		return "", t.First
	}
	return t.First, t.Second
}

// ASTGrain captures tokens like 15min, 1H, day, W-MON or a quoted string.
type ASTGrain struct {
	Quoted *string `parser:"  @String"`
	Token  string  `parser:"| @Number? @Ident (@'-' @Ident)?"`
}

func (g *ASTGrain) String() string {
	if g.Quoted != nil {
		return strings.TrimSpace(*g.Quoted)
	}
	return g.Token
}

// toStatement folds repeated columns into list-form aggregates, keeping the
// order in which each column first appears.
func (s *ASTStatement) toStatement() (*Statement, error) {
	st := &Statement{GroupBy: s.GroupBy, Timestamp: s.Timestamp}
	st.Schema, st.Table = s.From.schemaAndName()
	if s.Join != nil {
		_, st.Dimension = s.Join.schemaAndName()
	}
	if s.Grain != nil {
		st.Grain = s.Grain.String()
	}

	type entry struct {
		kind  AggregateKind
		alias string
	}
	var order []string
	byColumn := make(map[string][]entry)
	for _, a := range s.Aggregates {
		k, err := ParseAggregateKind(a.Func)
		if err != nil {
			return nil, err
		}
		if _, seen := byColumn[a.Column]; !seen {
			order = append(order, a.Column)
		}
		byColumn[a.Column] = append(byColumn[a.Column], entry{kind: k, alias: a.Alias})
	}

	for _, col := range order {
		entries := byColumn[col]
		if len(entries) == 1 {
			ca := Single(col, entries[0].kind)
			if entries[0].alias != "" {
				ca = ca.WithAlias(entries[0].kind, entries[0].alias)
			}
			st.Aggregates = append(st.Aggregates, ca)
			continue
		}
		ca := List(col)
		for _, e := range entries {
			ca.Kinds = append(ca.Kinds, e.kind)
			if e.alias != "" {
				ca = ca.WithAlias(e.kind, e.alias)
			}
		}
		st.Aggregates = append(st.Aggregates, ca)
	}
	return st, nil
}
