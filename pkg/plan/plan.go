package plan

import (
	"fmt"
	"strings"

	"github.com/jdyer28/LSPI/pkg/database"
)

// Spec holds the parts of a single-table aggregate or scan plan.
type Spec struct {
	Source    *database.TableRef
	Dimension *database.TableRef
	// EntityKey is the column joining Source to Dimension.
	EntityKey string

	Projection []Labeled
	GroupBy    []Expr
	Filters    []Predicate

	// The fields below describe a plan that must be resampled after
	// execution. Aggregates carries the requested aggregates even when
	// the projection is raw rows.
	Fallback     bool
	Frequency    string
	Timestamp    string
	GroupColumns []string
	Aggregates   []Labeled
}

// KeyPair equates a left column with a right column in a join.
type KeyPair struct {
	Left  string
	Right string
}

// SameKey joins two columns that share a name.
func SameKey(name string) KeyPair {
	return KeyPair{Left: name, Right: name}
}

// AliasPair exposes a right-side column under an output name.
type AliasPair struct {
	Column string
	Alias  string
}

// JoinSpec is an inner join of two aggregate plans.
type JoinSpec struct {
	Left         *QueryPlan
	Right        *QueryPlan
	Keys         []KeyPair
	RightAliases []AliasPair
}

// QueryPlan is an immutable, composable description of one query.
type QueryPlan struct {
	spec Spec
	join *JoinSpec
}

// Node is an element of a printable plan tree.
type Node interface {
	Children() []Node
	Explain() string
}

// New builds a plan from s. Slices are copied.
func New(s Spec) *QueryPlan {
	s.Projection = cloneSlice(s.Projection)
	s.GroupBy = cloneSlice(s.GroupBy)
	s.Filters = cloneSlice(s.Filters)
	s.GroupColumns = cloneSlice(s.GroupColumns)
	s.Aggregates = cloneSlice(s.Aggregates)
	return &QueryPlan{spec: s}
}

// NewJoin builds a join plan with the given output projection.
func NewJoin(j JoinSpec, projection []Labeled) *QueryPlan {
	j.Keys = cloneSlice(j.Keys)
	j.RightAliases = cloneSlice(j.RightAliases)
	return &QueryPlan{
		spec: Spec{Projection: cloneSlice(projection)},
		join: &j,
	}
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func (p *QueryPlan) Source() *database.TableRef    { return p.spec.Source }
func (p *QueryPlan) Dimension() *database.TableRef { return p.spec.Dimension }
func (p *QueryPlan) EntityKey() string             { return p.spec.EntityKey }
func (p *QueryPlan) Projection() []Labeled         { return cloneSlice(p.spec.Projection) }
func (p *QueryPlan) GroupBy() []Expr               { return cloneSlice(p.spec.GroupBy) }
func (p *QueryPlan) Filters() []Predicate          { return cloneSlice(p.spec.Filters) }
func (p *QueryPlan) Fallback() bool                { return p.spec.Fallback }
func (p *QueryPlan) Frequency() string             { return p.spec.Frequency }
func (p *QueryPlan) Timestamp() string             { return p.spec.Timestamp }
func (p *QueryPlan) GroupColumns() []string        { return cloneSlice(p.spec.GroupColumns) }
func (p *QueryPlan) Aggregates() []Labeled         { return cloneSlice(p.spec.Aggregates) }

// Join returns the join description, or nil for a single-table plan.
func (p *QueryPlan) Join() *JoinSpec {
	if p.join == nil {
		return nil
	}
	j := *p.join
	j.Keys = cloneSlice(j.Keys)
	j.RightAliases = cloneSlice(j.RightAliases)
	return &j
}

// Columns returns the output column names in projection order.
func (p *QueryPlan) Columns() []string {
	cols := make([]string, len(p.spec.Projection))
	for i, l := range p.spec.Projection {
		cols[i] = l.Name()
	}
	return cols
}

// HasColumn reports whether the plan outputs a column with this name.
func (p *QueryPlan) HasColumn(name string) bool {
	for _, l := range p.spec.Projection {
		if l.Name() == name {
			return true
		}
	}
	return false
}

// Children implements Node.
func (p *QueryPlan) Children() []Node {
	if p.join == nil {
		return nil
	}
	return []Node{p.join.Left, p.join.Right}
}

// Explain implements Node.
func (p *QueryPlan) Explain() string {
	if p.join != nil {
		keys := make([]string, len(p.join.Keys))
		for i, k := range p.join.Keys {
			keys[i] = fmt.Sprintf("a.%s = b.%s", k.Left, k.Right)
		}
		return fmt.Sprintf("Join(on: %s, columns: [%s])", strings.Join(keys, " AND "), strings.Join(p.Columns(), ", "))
	}
	if p.spec.Fallback {
		return fmt.Sprintf("Resample(source: %s, frequency: %s, on: %s)", p.spec.Source.QualifiedName(), p.spec.Frequency, p.spec.Timestamp)
	}
	group := "global"
	if len(p.spec.GroupBy) > 0 {
		parts := make([]string, len(p.spec.GroupBy))
		for i, g := range p.spec.GroupBy {
			parts[i] = g.String()
		}
		group = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("Aggregate(source: %s, group: %s)", p.spec.Source.QualifiedName(), group)
}

// Details lists projection, dimension and filters, one per line.
func (p *QueryPlan) Details() []string {
	var out []string
	if p.join != nil {
		for _, a := range p.join.RightAliases {
			out = append(out, fmt.Sprintf("right: b.%s AS %s", a.Column, a.Alias))
		}
		return out
	}
	if p.spec.Dimension != nil {
		out = append(out, fmt.Sprintf("dimension: %s ON %s", p.spec.Dimension.QualifiedName(), p.spec.EntityKey))
	}
	for _, l := range p.spec.Projection {
		out = append(out, "project: "+l.String())
	}
	for _, f := range p.spec.Filters {
		out = append(out, "filter: "+f.String())
	}
	if p.spec.Fallback {
		for _, a := range p.spec.Aggregates {
			out = append(out, "resample: "+a.String())
		}
	}
	return out
}
