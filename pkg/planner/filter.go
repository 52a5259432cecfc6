package planner

import (
	"time"

	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/plan"
)

// NotNullFilter is the predicate "column IS NOT NULL", resolved against the
// fact table first, then the dimension.
func NotNullFilter(table, dimension *database.TableRef, column string) (plan.Predicate, error) {
	col, err := resolveColumn(table, dimension, column)
	if err != nil {
		return nil, err
	}
	return plan.NotNull{Column: col}, nil
}

// rangeFilters builds the half-open date range [start, end) and the entity
// membership filter.
func rangeFilters(table *database.TableRef, timestamp, entityKey string, start, end *time.Time, entities []string) ([]plan.Predicate, error) {
	var out []plan.Predicate

	if start != nil || end != nil {
		if timestamp == "" {
			return nil, &MissingTimestampColumnError{Reason: "date range filter"}
		}
		ts, err := factColumn(table, timestamp)
		if err != nil {
			return nil, err
		}
		if start != nil {
			out = append(out, plan.TimeCompare{Column: ts, Op: plan.AtOrAfter, Value: *start})
		}
		if end != nil {
			out = append(out, plan.TimeCompare{Column: ts, Op: plan.Before, Value: *end})
		}
	}

	if len(entities) > 0 {
		key, err := factColumn(table, entityKey)
		if err != nil {
			return nil, err
		}
		vals := make([]string, len(entities))
		copy(vals, entities)
		out = append(out, plan.InSet{Column: key, Values: vals})
	}
	return out, nil
}

func factColumn(table *database.TableRef, name string) (plan.ColumnRef, error) {
	if _, ok := table.Column(name); !ok {
		return plan.ColumnRef{}, &ColumnNotFoundError{Column: name, Sources: []string{table.QualifiedName()}}
	}
	return plan.ColumnRef{Table: table, Name: name}, nil
}
