package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/query"
)

// Expr is a scalar expression of a query projection or grouping.
type Expr interface {
	String() string
	isExpr()
}

// ColumnRef is a column of a fact or dimension table.
type ColumnRef struct {
	Table *database.TableRef
	Name  string
}

func (c ColumnRef) String() string {
	if c.Table == nil {
		return c.Name
	}
	return c.Table.Name + "." + c.Name
}

// RelationRef is a column of a named subquery inside a join.
type RelationRef struct {
	Relation string
	Name     string
}

func (r RelationRef) String() string {
	return r.Relation + "." + r.Name
}

// AggregateExpr applies an aggregate function to a column.
type AggregateExpr struct {
	Kind query.AggregateKind
	Arg  ColumnRef
}

func (a AggregateExpr) String() string {
	return fmt.Sprintf("%s(%s)", a.Kind, a.Arg)
}

// BucketUnit is the unit a timestamp is truncated to.
type BucketUnit int

const (
	Minute BucketUnit = iota + 1
	Hour
	Day
	Week
	Month
	Year
)

func (u BucketUnit) String() string {
	switch u {
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return fmt.Sprintf("BucketUnit(%d)", int(u))
	}
}

// BucketExpr rounds a timestamp down to a multiple of Step units.
// Step is only meaningful for Minute and Hour; calendar units use Step 1.
type BucketExpr struct {
	Arg  ColumnRef
	Unit BucketUnit
	Step int
}

func (b BucketExpr) String() string {
	return fmt.Sprintf("bucket(%d %s, %s)", b.Step, b.Unit, b.Arg)
}

// Labeled names an expression in the output.
type Labeled struct {
	Expr  Expr
	Alias string
}

// Name is the output column name.
func (l Labeled) Name() string {
	if l.Alias != "" {
		return l.Alias
	}
	switch e := l.Expr.(type) {
	case ColumnRef:
		return e.Name
	case RelationRef:
		return e.Name
	}
	return l.Expr.String()
}

func (l Labeled) String() string {
	return fmt.Sprintf("%s AS %s", l.Expr, l.Name())
}

func (ColumnRef) isExpr()     {}
func (RelationRef) isExpr()   {}
func (AggregateExpr) isExpr() {}
func (BucketExpr) isExpr()    {}

// Predicate is a boolean row filter.
type Predicate interface {
	String() string
	isPredicate()
}

// NotNull holds when the column is not null.
type NotNull struct {
	Column ColumnRef
}

func (p NotNull) String() string { return p.Column.String() + " IS NOT NULL" }

// AnyOf holds when at least one of its terms holds.
type AnyOf []Predicate

func (p AnyOf) String() string {
	parts := make([]string, len(p))
	for i, t := range p {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// CompareOp is a time range comparison.
type CompareOp int

const (
	AtOrAfter CompareOp = iota + 1
	Before
)

func (o CompareOp) String() string {
	if o == Before {
		return "<"
	}
	return ">="
}

// TimeCompare bounds a timestamp column.
type TimeCompare struct {
	Column ColumnRef
	Op     CompareOp
	Value  time.Time
}

func (p TimeCompare) String() string {
	return fmt.Sprintf("%s %s %s", p.Column, p.Op, p.Value.Format(time.RFC3339))
}

// InSet holds when the column value is one of Values.
type InSet struct {
	Column ColumnRef
	Values []string
}

func (p InSet) String() string {
	return fmt.Sprintf("%s IN (%s)", p.Column, strings.Join(p.Values, ", "))
}

func (NotNull) isPredicate()     {}
func (AnyOf) isPredicate()       {}
func (TimeCompare) isPredicate() {}
func (InSet) isPredicate()       {}
