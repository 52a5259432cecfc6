package planner

import (
	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/plan"
)

// ResolveGroupBy binds each group-by name to the fact table, or to the
// dimension when the fact table lacks it. Outputs keep the column name.
func ResolveGroupBy(table, dimension *database.TableRef, names []string) ([]plan.Labeled, error) {
	out := make([]plan.Labeled, 0, len(names))
	for _, name := range names {
		if _, ok := table.Column(name); ok {
			out = append(out, plan.Labeled{Expr: plan.ColumnRef{Table: table, Name: name}, Alias: name})
			continue
		}
		if dimension == nil {
			return nil, &GroupColumnNotFoundError{Column: name, NoDimension: true}
		}
		if _, ok := dimension.Column(name); !ok {
			return nil, &GroupColumnNotFoundError{Column: name}
		}
		out = append(out, plan.Labeled{Expr: plan.ColumnRef{Table: dimension, Name: name}, Alias: name})
	}
	return out, nil
}
