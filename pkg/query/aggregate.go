package query

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// AggregateKind is one of the supported aggregate functions.
type AggregateKind int

const (
	Count AggregateKind = iota + 1
	Max
	Mean
	Min
	Std
	Sum
)

var kindNames = map[AggregateKind]string{
	Count: "count",
	Max:   "max",
	Mean:  "mean",
	Min:   "min",
	Std:   "std",
	Sum:   "sum",
}

func (k AggregateKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("AggregateKind(%d)", int(k))
}

// Valid reports whether k is one of the supported kinds.
func (k AggregateKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// AggregateKinds lists the supported kinds in name order.
func AggregateKinds() []AggregateKind {
	return []AggregateKind{Count, Max, Mean, Min, Std, Sum}
}

// UnsupportedAggregateError reports an aggregate name outside the supported set.
type UnsupportedAggregateError struct {
	Name string
}

func (e *UnsupportedAggregateError) Error() string {
	return fmt.Sprintf("unsupported aggregate %q (expected one of count, max, mean, min, std, sum)", e.Name)
}

// ParseAggregateKind resolves an aggregate name, case-insensitively.
func ParseAggregateKind(name string) (AggregateKind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, v := range kindNames {
		if v == n {
			return k, nil
		}
	}
	return 0, &UnsupportedAggregateError{Name: name}
}

// ColumnAggregate requests one or more aggregates of a single column.
//
// In single form (List == false) exactly one kind is requested and the output
// is named after the column unless an alias is given. In list form every
// kind produces its own output, named by Aliases or "<column>_<kind>".
type ColumnAggregate struct {
	Column  string
	Kinds   []AggregateKind
	Aliases map[AggregateKind]string
	List    bool
}

// Single requests one aggregate of a column.
func Single(column string, kind AggregateKind) ColumnAggregate {
	return ColumnAggregate{Column: column, Kinds: []AggregateKind{kind}}
}

// SingleAs requests one aggregate of a column under an explicit output name.
func SingleAs(column string, kind AggregateKind, alias string) ColumnAggregate {
	return Single(column, kind).WithAlias(kind, alias)
}

// List requests several aggregates of one column.
func List(column string, kinds ...AggregateKind) ColumnAggregate {
	ks := make([]AggregateKind, len(kinds))
	copy(ks, kinds)
	return ColumnAggregate{Column: column, Kinds: ks, List: true}
}

// WithAlias returns a copy with an explicit output name for kind.
func (c ColumnAggregate) WithAlias(kind AggregateKind, alias string) ColumnAggregate {
	aliases := make(map[AggregateKind]string, len(c.Aliases)+1)
	for k, v := range c.Aliases {
		aliases[k] = v
	}
	aliases[kind] = alias
	c.Aliases = aliases
	return c
}

// Alias returns the explicit output name configured for kind, if any.
func (c ColumnAggregate) Alias(kind AggregateKind) (string, bool) {
	a, ok := c.Aliases[kind]
	return a, ok && a != ""
}

func (c ColumnAggregate) String() string {
	parts := make([]string, len(c.Kinds))
	for i, k := range c.Kinds {
		parts[i] = fmt.Sprintf("%s(%s)", k, c.Column)
		if a, ok := c.Alias(k); ok {
			parts[i] += " AS " + a
		}
	}
	return strings.Join(parts, ", ")
}

// AggregateSpec is an ordered list of column aggregates.
type AggregateSpec []ColumnAggregate

// Columns returns the aggregated columns in request order.
func (s AggregateSpec) Columns() []string {
	cols := make([]string, len(s))
	for i, c := range s {
		cols[i] = c.Column
	}
	return cols
}

// UnmarshalYAML decodes a mapping of column to aggregate(s), keeping key order:
//
//	temp: mean              # single form
//	pressure: [min, max]    # list form, default names
//	humidity: {min: hmin}   # list form, explicit names
func (s *AggregateSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: aggregates must be a mapping of column to aggregate", node.Line)
	}
	out := make(AggregateSpec, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		column := node.Content[i].Value
		val := node.Content[i+1]

		switch val.Kind {
		case yaml.ScalarNode:
			k, err := ParseAggregateKind(val.Value)
			if err != nil {
				return err
			}
			out = append(out, Single(column, k))
		case yaml.SequenceNode:
			ca := List(column)
			for _, item := range val.Content {
				k, err := ParseAggregateKind(item.Value)
				if err != nil {
					return err
				}
				ca.Kinds = append(ca.Kinds, k)
			}
			out = append(out, ca)
		case yaml.MappingNode:
			ca := List(column)
			for j := 0; j+1 < len(val.Content); j += 2 {
				k, err := ParseAggregateKind(val.Content[j].Value)
				if err != nil {
					return err
				}
				ca.Kinds = append(ca.Kinds, k)
				ca = ca.WithAlias(k, val.Content[j+1].Value)
			}
			out = append(out, ca)
		default:
			return fmt.Errorf("line %d: unsupported aggregate value for column %q", val.Line, column)
		}
	}
	*s = out
	return nil
}
