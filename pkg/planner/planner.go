package planner

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/plan"
	"github.com/jdyer28/LSPI/pkg/query"
)

// DefaultEntityKey is the column joining fact rows to the dimension table.
const DefaultEntityKey = "deviceid"

// TableResolver looks up table metadata by (name, schema).
type TableResolver interface {
	GetTable(ctx context.Context, name, schema string) (*database.TableRef, error)
}

// Planner turns aggregate requests into query plans. It holds no
// per-request state and is safe for concurrent use.
type Planner struct {
	tables    TableResolver
	entityKey string
	logger    *slog.Logger
}

type Option func(*Planner)

// WithEntityKey overrides the fact-to-dimension join column.
func WithEntityKey(key string) Option {
	return func(p *Planner) {
		if key != "" {
			p.entityKey = key
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

func New(tables TableResolver, opts ...Option) *Planner {
	p := &Planner{
		tables:    tables,
		entityKey: DefaultEntityKey,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// EntityKey returns the configured join column.
func (p *Planner) EntityKey() string { return p.entityKey }

// Request describes one aggregate query.
type Request struct {
	Table      string
	Schema     string
	Aggregates query.AggregateSpec
	GroupBy    []string
	// TimestampColumn is required when TimeGrain, Start or End is set.
	TimestampColumn string
	TimeGrain       string
	Dimension       string
	Start           *time.Time
	End             *time.Time
	Entities        []string
}

// Assemble builds the plan for req. All resolution errors are returned
// before a plan exists.
func (p *Planner) Assemble(ctx context.Context, req Request) (*plan.QueryPlan, error) {
	// 1. Resolve source tables
	table, dimension, err := p.resolveTables(ctx, req.Table, req.Dimension, req.Schema)
	if err != nil {
		return nil, err
	}

	// 2. Aggregate expressions and the per-column not-null terms
	var aggregates []plan.Labeled
	var anyNotNull plan.AnyOf
	for _, ca := range req.Aggregates {
		for _, kind := range ca.Kinds {
			l, err := BuildAggregate(table, dimension, ca.Column, kind, AggregateAlias(ca, kind, p.logger), req.TimestampColumn)
			if err != nil {
				return nil, err
			}
			aggregates = append(aggregates, l)
		}
		pred, err := NotNullFilter(table, dimension, ca.Column)
		if err != nil {
			return nil, err
		}
		anyNotNull = append(anyNotNull, pred)
	}

	// 3. Time bucket
	var bucket BucketPlan
	if req.TimeGrain != "" {
		if req.TimestampColumn == "" {
			return nil, &MissingTimestampColumnError{Reason: "time grain " + req.TimeGrain}
		}
		bucket, err = ResolveGrain(table, req.TimestampColumn, req.TimeGrain)
		if err != nil {
			return nil, err
		}
	}

	// 4. Group-by columns
	groups, err := ResolveGroupBy(table, dimension, req.GroupBy)
	if err != nil {
		return nil, err
	}

	// 5. Filters: date range and entities, then the not-null disjunction
	filters, err := rangeFilters(table, req.TimestampColumn, p.entityKey, req.Start, req.End, req.Entities)
	if err != nil {
		return nil, err
	}
	if len(anyNotNull) > 0 {
		filters = append(filters, anyNotNull)
	}

	if dimension != nil {
		if err := p.checkEntityKey(table, dimension); err != nil {
			return nil, err
		}
	}

	spec := plan.Spec{
		Source:     table,
		Dimension:  dimension,
		EntityKey:  p.entityKey,
		Filters:    filters,
		Timestamp:  req.TimestampColumn,
		Aggregates: aggregates,
	}
	for _, g := range groups {
		spec.GroupColumns = append(spec.GroupColumns, g.Alias)
	}

	if bucket.Kind == Fallback {
		p.logger.InfoContext(ctx, "time grain not expressible in SQL, returning rows for resampling",
			"table", table.QualifiedName(), "grain", bucket.Frequency)
		spec.Fallback = true
		spec.Frequency = bucket.Frequency
		spec.Projection = rawProjection(table, dimension, p.entityKey)
		return plan.New(spec), nil
	}

	// 6. Projection: aggregates, bucket, group-by
	spec.Projection = append(spec.Projection, aggregates...)
	if bucket.Kind == NoBucket || bucket.Kind == PushDown {
		spec.Projection = append(spec.Projection, bucket.Label)
		spec.GroupBy = append(spec.GroupBy, bucket.Label.Expr)
	}
	for _, g := range groups {
		spec.Projection = append(spec.Projection, g)
		spec.GroupBy = append(spec.GroupBy, g.Expr)
	}
	if err := checkDuplicates(spec.Projection); err != nil {
		return nil, err
	}

	p.logger.DebugContext(ctx, "assembled aggregate plan",
		"table", table.QualifiedName(), "columns", len(spec.Projection), "bucket", bucket.Kind.String())
	return plan.New(spec), nil
}

func (p *Planner) resolveTables(ctx context.Context, name, dimension, schema string) (*database.TableRef, *database.TableRef, error) {
	table, err := p.tables.GetTable(ctx, name, schema)
	if err != nil {
		return nil, nil, err
	}
	if dimension == "" {
		return table, nil, nil
	}
	dim, err := p.tables.GetTable(ctx, dimension, schema)
	if err != nil {
		return nil, nil, err
	}
	return table, dim, nil
}

func (p *Planner) checkEntityKey(table, dimension *database.TableRef) error {
	if _, ok := table.Column(p.entityKey); !ok {
		return &ColumnNotFoundError{Column: p.entityKey, Sources: []string{table.QualifiedName()}}
	}
	if _, ok := dimension.Column(p.entityKey); !ok {
		return &ColumnNotFoundError{Column: p.entityKey, Sources: []string{dimension.QualifiedName()}}
	}
	return nil
}

// rawProjection selects every fact column plus the dimension's columns,
// leaving out the entity key and names the fact table already provides.
func rawProjection(table, dimension *database.TableRef, entityKey string) []plan.Labeled {
	var out []plan.Labeled
	for _, name := range table.ColumnNames() {
		out = append(out, plan.Labeled{Expr: plan.ColumnRef{Table: table, Name: name}, Alias: name})
	}
	if dimension == nil {
		return out
	}
	for _, name := range dimension.ColumnNames() {
		if name == entityKey {
			continue
		}
		if _, clash := table.Column(name); clash {
			continue
		}
		out = append(out, plan.Labeled{Expr: plan.ColumnRef{Table: dimension, Name: name}, Alias: name})
	}
	return out
}

func checkDuplicates(projection []plan.Labeled) error {
	seen := make(map[string]bool, len(projection))
	for _, l := range projection {
		name := l.Name()
		if seen[name] {
			return &DuplicateAliasError{Alias: name}
		}
		seen[name] = true
	}
	return nil
}

// ScanRequest selects raw columns with the same filters an aggregate uses.
type ScanRequest struct {
	Table           string
	Schema          string
	Columns         []string
	TimestampColumn string
	Dimension       string
	Start           *time.Time
	End             *time.Time
	Entities        []string
}

// Scan builds a plan that reads raw rows. An empty column list selects all
// fact columns and, with a dimension, its non-key columns.
func (p *Planner) Scan(ctx context.Context, req ScanRequest) (*plan.QueryPlan, error) {
	table, dimension, err := p.resolveTables(ctx, req.Table, req.Dimension, req.Schema)
	if err != nil {
		return nil, err
	}
	if dimension != nil {
		if err := p.checkEntityKey(table, dimension); err != nil {
			return nil, err
		}
	}

	var projection []plan.Labeled
	if len(req.Columns) == 0 {
		projection = rawProjection(table, dimension, p.entityKey)
	}
	for _, name := range req.Columns {
		col, err := resolveColumn(table, dimension, name)
		if err != nil {
			return nil, err
		}
		projection = append(projection, plan.Labeled{Expr: col, Alias: name})
	}
	if err := checkDuplicates(projection); err != nil {
		return nil, err
	}

	filters, err := rangeFilters(table, req.TimestampColumn, p.entityKey, req.Start, req.End, req.Entities)
	if err != nil {
		return nil, err
	}

	return plan.New(plan.Spec{
		Source:     table,
		Dimension:  dimension,
		EntityKey:  p.entityKey,
		Projection: projection,
		Filters:    filters,
		Timestamp:  req.TimestampColumn,
	}), nil
}

// ColumnAggregateRequest asks for a single scalar aggregate of one column.
type ColumnAggregateRequest struct {
	Table           string
	Schema          string
	Column          string
	Aggregate       query.AggregateKind
	TimestampColumn string
	Start           *time.Time
	End             *time.Time
	Entities        []string
}

// ColumnAggregate plans a one-row, one-column aggregate.
func (p *Planner) ColumnAggregate(ctx context.Context, req ColumnAggregateRequest) (*plan.QueryPlan, error) {
	return p.Assemble(ctx, Request{
		Table:           req.Table,
		Schema:          req.Schema,
		Aggregates:      query.AggregateSpec{query.Single(req.Column, req.Aggregate)},
		TimestampColumn: req.TimestampColumn,
		Start:           req.Start,
		End:             req.End,
		Entities:        req.Entities,
	})
}
