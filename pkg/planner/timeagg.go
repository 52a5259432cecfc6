package planner

import (
	"context"
	"time"

	"github.com/jdyer28/LSPI/pkg/plan"
	"github.com/jdyer28/LSPI/pkg/query"
)

// Extreme selects the earliest or latest timestamp of a bucket.
type Extreme string

const (
	First Extreme = "first"
	Last  Extreme = "last"
)

// TimeAggRequest combines a regular aggregate of one column with the first
// or last timestamp per bucket.
type TimeAggRequest struct {
	Table     string
	Schema    string
	Column    string
	Aggregate query.AggregateKind
	// Alias names the regular aggregate output; empty keeps the column name.
	Alias   string
	Extreme Extreme
	GroupBy []string

	TimestampColumn string
	// TimeGrain buckets the timestamp extreme. Empty uses RegularGrain.
	TimeGrain string
	// RegularGrain buckets the regular aggregate. Empty, or equal to the
	// timestamp column, reports the value at the extreme timestamp.
	RegularGrain string

	Dimension string
	Start     *time.Time
	End       *time.Time
	Entities  []string
}

// TimeAggregate plans the join of a regular aggregate with a timestamp
// extreme.
func (p *Planner) TimeAggregate(ctx context.Context, req TimeAggRequest) (*plan.QueryPlan, error) {
	var kind query.AggregateKind
	switch req.Extreme {
	case First:
		kind = query.Min
	case Last:
		kind = query.Max
	default:
		return nil, &InvalidTimeAggregateError{Extreme: string(req.Extreme)}
	}
	if req.TimestampColumn == "" {
		return nil, &MissingTimestampColumnError{Reason: "time aggregate"}
	}
	ts := req.TimestampColumn

	atExtreme := req.RegularGrain == "" || req.RegularGrain == ts
	leftGrain := req.RegularGrain
	rightGrain := req.TimeGrain
	if atExtreme {
		leftGrain = ts
	} else if rightGrain == "" {
		rightGrain = leftGrain
	}

	regular := query.Single(req.Column, req.Aggregate)
	if req.Alias != "" {
		regular = regular.WithAlias(req.Aggregate, req.Alias)
	}
	left, err := p.Assemble(ctx, Request{
		Table:           req.Table,
		Schema:          req.Schema,
		Aggregates:      query.AggregateSpec{regular},
		GroupBy:         req.GroupBy,
		TimestampColumn: ts,
		TimeGrain:       leftGrain,
		Dimension:       req.Dimension,
		Start:           req.Start,
		End:             req.End,
		Entities:        req.Entities,
	})
	if err != nil {
		return nil, err
	}

	right, err := p.Assemble(ctx, Request{
		Table:           req.Table,
		Schema:          req.Schema,
		Aggregates:      query.AggregateSpec{query.Single(ts, kind)},
		GroupBy:         req.GroupBy,
		TimestampColumn: ts,
		TimeGrain:       rightGrain,
		Dimension:       req.Dimension,
		Start:           req.Start,
		End:             req.End,
		Entities:        req.Entities,
	})
	if err != nil {
		return nil, err
	}

	extremeAlias := defaultAlias(ts, kind, ts)
	var keys []plan.KeyPair
	var aliases []plan.AliasPair
	if atExtreme {
		// Raw rows whose timestamp equals the bucket's extreme.
		keys = append(keys, plan.KeyPair{Left: ts, Right: extremeAlias})
		aliases = append(aliases, plan.AliasPair{Column: extremeAlias, Alias: extremeAlias})
		if rightGrain != "" {
			aliases = append(aliases, plan.AliasPair{Column: ts, Alias: ts})
		}
	} else {
		keys = append(keys, plan.SameKey(ts))
		aliases = append(aliases, plan.AliasPair{Column: extremeAlias, Alias: extremeAlias})
	}
	for _, g := range req.GroupBy {
		keys = append(keys, plan.SameKey(g))
	}

	return JoinAggregates(left, right, keys, aliases)
}
