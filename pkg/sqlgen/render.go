package sqlgen

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/plan"
)

// Renderer turns query plans into SQL for one dialect.
type Renderer struct {
	dialect Dialect
}

func NewRenderer(d Dialect) *Renderer {
	return &Renderer{dialect: d}
}

func (r *Renderer) Dialect() Dialect { return r.dialect }

// ToSQL renders p with the dialect's placeholder format.
func (r *Renderer) ToSQL(p *plan.QueryPlan) (string, []interface{}, error) {
	b, err := r.builder(p)
	if err != nil {
		return "", nil, err
	}
	return b.PlaceholderFormat(r.dialect.Placeholder()).ToSql()
}

func (r *Renderer) builder(p *plan.QueryPlan) (sq.SelectBuilder, error) {
	if j := p.Join(); j != nil {
		return r.joinBuilder(p, j)
	}

	columns, err := r.projection(p.Projection())
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	b := sq.Select(columns...).From(r.table(p.Source()))

	if dim := p.Dimension(); dim != nil {
		b = b.Join(fmt.Sprintf("%s ON %s = %s",
			r.table(dim),
			r.column(plan.ColumnRef{Table: dim, Name: p.EntityKey()}),
			r.column(plan.ColumnRef{Table: p.Source(), Name: p.EntityKey()})))
	}

	for _, f := range p.Filters() {
		pred, err := r.predicate(f)
		if err != nil {
			return sq.SelectBuilder{}, err
		}
		b = b.Where(pred)
	}

	if groupBy := p.GroupBy(); len(groupBy) > 0 {
		exprs := make([]string, len(groupBy))
		for i, g := range groupBy {
			s, err := r.expr(g)
			if err != nil {
				return sq.SelectBuilder{}, err
			}
			exprs[i] = s
		}
		b = b.GroupBy(exprs...).OrderBy(exprs...)
	}
	return b, nil
}

// joinBuilder nests both sides as subqueries "a" and "b".
func (r *Renderer) joinBuilder(p *plan.QueryPlan, j *plan.JoinSpec) (sq.SelectBuilder, error) {
	left, err := r.builder(j.Left)
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	right, err := r.builder(j.Right)
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	rightSQL, rightArgs, err := right.ToSql()
	if err != nil {
		return sq.SelectBuilder{}, err
	}

	columns, err := r.projection(p.Projection())
	if err != nil {
		return sq.SelectBuilder{}, err
	}

	on := make([]string, len(j.Keys))
	for i, k := range j.Keys {
		on[i] = fmt.Sprintf("%s = %s",
			r.relation(plan.RelationRef{Relation: "a", Name: k.Left}),
			r.relation(plan.RelationRef{Relation: "b", Name: k.Right}))
	}

	return sq.Select(columns...).
		FromSelect(left, "a").
		JoinClause(fmt.Sprintf("JOIN (%s) AS b ON %s", rightSQL, strings.Join(on, " AND ")), rightArgs...), nil
}

func (r *Renderer) projection(labels []plan.Labeled) ([]string, error) {
	out := make([]string, len(labels))
	for i, l := range labels {
		s, err := r.expr(l.Expr)
		if err != nil {
			return nil, err
		}
		out[i] = s + " AS " + QuoteIdent(l.Name())
	}
	return out, nil
}

func (r *Renderer) table(t *database.TableRef) string {
	if t.Schema == "" {
		return QuoteIdent(t.Name)
	}
	return QuoteIdent(t.Schema) + "." + QuoteIdent(t.Name)
}

func (r *Renderer) column(c plan.ColumnRef) string {
	if c.Table == nil {
		return QuoteIdent(c.Name)
	}
	return r.table(c.Table) + "." + QuoteIdent(c.Name)
}

func (r *Renderer) relation(c plan.RelationRef) string {
	return c.Relation + "." + QuoteIdent(c.Name)
}

func (r *Renderer) expr(e plan.Expr) (string, error) {
	switch e := e.(type) {
	case plan.ColumnRef:
		return r.column(e), nil
	case plan.RelationRef:
		return r.relation(e), nil
	case plan.AggregateExpr:
		fn, ok := r.dialect.AggregateFunc(e.Kind)
		if !ok {
			return "", fmt.Errorf("%s: aggregate %s is not supported", r.dialect.Name(), e.Kind)
		}
		return fmt.Sprintf("%s(%s)", fn, r.column(e.Arg)), nil
	case plan.BucketExpr:
		return r.dialect.Bucket(r.column(e.Arg), e.Unit, e.Step)
	default:
		return "", fmt.Errorf("unsupported expression %T", e)
	}
}

func (r *Renderer) predicate(p plan.Predicate) (sq.Sqlizer, error) {
	switch p := p.(type) {
	case plan.NotNull:
		return sq.NotEq{r.column(p.Column): nil}, nil
	case plan.AnyOf:
		or := make(sq.Or, 0, len(p))
		for _, term := range p {
			s, err := r.predicate(term)
			if err != nil {
				return nil, err
			}
			or = append(or, s)
		}
		return or, nil
	case plan.TimeCompare:
		col := r.column(p.Column)
		if p.Op == plan.Before {
			return sq.Lt{col: r.dialect.TimeArg(p.Value)}, nil
		}
		return sq.GtOrEq{col: r.dialect.TimeArg(p.Value)}, nil
	case plan.InSet:
		return sq.Eq{r.column(p.Column): p.Values}, nil
	default:
		return nil, fmt.Errorf("unsupported predicate %T", p)
	}
}
