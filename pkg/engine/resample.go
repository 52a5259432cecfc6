package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/plan"
	"github.com/jdyer28/LSPI/pkg/query"
)

// Resampler bins raw rows by a calendar frequency and aggregates them.
// The output columns match an equivalent push-down query: aggregate
// aliases, then the timestamp, then the group-by columns.
type Resampler interface {
	Resample(rows database.Table, frequency, timestamp string, groupBy []string, aggregates []plan.Labeled) (*database.RowSet, error)
}

// FrameResampler resamples in memory.
type FrameResampler struct{}

func (FrameResampler) Resample(rows database.Table, frequency, timestamp string, groupBy []string, aggregates []plan.Labeled) (*database.RowSet, error) {
	freq, err := ParseFrequency(frequency)
	if err != nil {
		return nil, err
	}
	if timestamp == "" {
		return nil, fmt.Errorf("resample: timestamp column required")
	}

	fields := make([]resampleField, len(aggregates))
	for i, a := range aggregates {
		agg, ok := a.Expr.(plan.AggregateExpr)
		if !ok {
			return nil, fmt.Errorf("resample: %s is not an aggregate", a)
		}
		fields[i] = resampleField{alias: a.Name(), column: agg.Arg.Name, kind: agg.Kind}
	}

	iter, err := rows.Iterate()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	// 1. Read timestamped rows; fixed-width bins start at the earliest day
	var (
		pending []timedRow
		origin  time.Time
	)
	for iter.Next() {
		row := iter.Row()

		raw, err := row.Get(timestamp)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}
		ts, err := cast.ToTimeE(raw)
		if err != nil {
			return nil, fmt.Errorf("resample: column %s: %w", timestamp, err)
		}
		if len(pending) == 0 || ts.Before(origin) {
			origin = ts
		}
		pending = append(pending, timedRow{row: row, ts: ts})
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	origin = StartDay(origin)

	// 2. Fold rows into (bin, group) states
	bins := make(map[string]*binState)
	var keys []string
	for _, p := range pending {
		label := freq.BinFrom(origin, p.ts)

		groupVals := make([]interface{}, len(groupBy))
		parts := []string{label.UTC().Format(time.RFC3339Nano)}
		for i, g := range groupBy {
			v, err := p.row.Get(g)
			if err != nil {
				return nil, err
			}
			groupVals[i] = v
			parts = append(parts, fmt.Sprintf("%v", v))
		}
		key := strings.Join(parts, "\x00")

		state, ok := bins[key]
		if !ok {
			state = newBinState(label, groupVals, fields)
			bins[key] = state
			keys = append(keys, key)
		}
		if err := state.update(p.row); err != nil {
			return nil, err
		}
	}

	// 3. Emit one row per non-empty bin, ordered by time then group values
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := bins[keys[i]], bins[keys[j]]
		if !a.label.Equal(b.label) {
			return a.label.Before(b.label)
		}
		return keys[i] < keys[j]
	})

	columns := make([]string, 0, len(fields)+1+len(groupBy))
	for _, f := range fields {
		columns = append(columns, f.alias)
	}
	columns = append(columns, timestamp)
	columns = append(columns, groupBy...)

	out := database.NewRowSet(columns)
	for _, k := range keys {
		if err := out.Append(bins[k].finalize()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type timedRow struct {
	row database.Row
	ts  time.Time
}

type resampleField struct {
	alias  string
	column string
	kind   query.AggregateKind
}

type binState struct {
	label     time.Time
	groupVals []interface{}
	fields    []resampleField
	aggs      []fieldAggregator
}

func newBinState(label time.Time, groupVals []interface{}, fields []resampleField) *binState {
	s := &binState{label: label, groupVals: groupVals, fields: fields}
	for _, f := range fields {
		s.aggs = append(s.aggs, createAggregator(f.kind))
	}
	return s
}

func (s *binState) update(row database.Row) error {
	for i, f := range s.fields {
		v, err := row.Get(f.column)
		if err != nil {
			return err
		}
		s.aggs[i].Add(v)
	}
	return nil
}

func (s *binState) finalize() []interface{} {
	vals := make([]interface{}, 0, len(s.aggs)+1+len(s.groupVals))
	for _, a := range s.aggs {
		vals = append(vals, a.Result())
	}
	vals = append(vals, s.label)
	return append(vals, s.groupVals...)
}

// Field Aggregators. Nulls are skipped; an aggregate over no values is
// nil, except count which is 0.

type fieldAggregator interface {
	Add(val interface{})
	Result() interface{}
}

func createAggregator(kind query.AggregateKind) fieldAggregator {
	switch kind {
	case query.Max:
		return &extremeAggregator{keep: func(c int) bool { return c > 0 }}
	case query.Min:
		return &extremeAggregator{keep: func(c int) bool { return c < 0 }}
	case query.Mean:
		return &meanAggregator{}
	case query.Std:
		return &stdAggregator{}
	case query.Sum:
		return &sumAggregator{}
	default:
		return &countAggregator{}
	}
}

// MIN / MAX
type extremeAggregator struct {
	val  interface{}
	set  bool
	keep func(cmp int) bool
}

func (a *extremeAggregator) Add(v interface{}) {
	if v == nil {
		return
	}
	if !a.set {
		a.val, a.set = v, true
		return
	}
	if a.keep(compareValues(v, a.val)) {
		a.val = v
	}
}

func (a *extremeAggregator) Result() interface{} {
	return a.val
}

// MEAN
type meanAggregator struct {
	sum   float64
	count int
}

func (a *meanAggregator) Add(v interface{}) {
	if f, ok := toFloat64(v); ok {
		a.sum += f
		a.count++
	}
}

func (a *meanAggregator) Result() interface{} {
	if a.count == 0 {
		return nil
	}
	return a.sum / float64(a.count)
}

// STD, sample standard deviation (n-1), via Welford's update
type stdAggregator struct {
	count int
	mean  float64
	m2    float64
}

func (a *stdAggregator) Add(v interface{}) {
	f, ok := toFloat64(v)
	if !ok {
		return
	}
	a.count++
	delta := f - a.mean
	a.mean += delta / float64(a.count)
	a.m2 += delta * (f - a.mean)
}

func (a *stdAggregator) Result() interface{} {
	if a.count < 2 {
		return nil
	}
	return math.Sqrt(a.m2 / float64(a.count-1))
}

// COUNT
type countAggregator struct {
	count int64
}

func (a *countAggregator) Add(v interface{}) {
	if v != nil {
		a.count++
	}
}

func (a *countAggregator) Result() interface{} {
	return a.count
}

// SUM
type sumAggregator struct {
	sum float64
	set bool
}

func (a *sumAggregator) Add(v interface{}) {
	if f, ok := toFloat64(v); ok {
		a.sum += f
		a.set = true
	}
}

func (a *sumAggregator) Result() interface{} {
	if !a.set {
		return nil
	}
	return a.sum
}

func toFloat64(v interface{}) (float64, bool) {
	if v == nil {
		return 0, false
	}
	if _, isTime := v.(time.Time); isTime {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}

// compareValues orders times, then numbers, then string forms.
func compareValues(a, b interface{}) int {
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		return at.Compare(bt)
	}
	af, aok := toFloat64(a)
	bf, bok := toFloat64(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(cast.ToString(a), cast.ToString(b))
}
