package planner

import (
	"log/slog"

	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/plan"
	"github.com/jdyer28/LSPI/pkg/query"
)

// AggregateAlias picks the output name for one kind of a column
// aggregate. Configured aliases win; list forms default to
// <column>_<kind>, with a warning when other kinds of the same column
// carry aliases. An empty result lets BuildAggregate apply its default.
func AggregateAlias(ca query.ColumnAggregate, kind query.AggregateKind, logger *slog.Logger) string {
	if alias, ok := ca.Alias(kind); ok {
		return alias
	}
	if !ca.List {
		return ""
	}
	alias := ca.Column + "_" + kind.String()
	if len(ca.Aliases) > 0 && logger != nil {
		logger.Warn("no alias configured for aggregate, using default",
			"column", ca.Column, "aggregate", kind.String(), "alias", alias)
	}
	return alias
}

// resolveColumn finds name in the fact table, then in the dimension table.
func resolveColumn(table, dimension *database.TableRef, name string) (plan.ColumnRef, error) {
	if _, ok := table.Column(name); ok {
		return plan.ColumnRef{Table: table, Name: name}, nil
	}
	if dimension != nil {
		if _, ok := dimension.Column(name); ok {
			return plan.ColumnRef{Table: dimension, Name: name}, nil
		}
	}
	sources := []string{table.QualifiedName()}
	if dimension != nil {
		sources = append(sources, dimension.QualifiedName())
	}
	return plan.ColumnRef{}, &ColumnNotFoundError{Column: name, Sources: sources}
}

// defaultAlias names a single-form aggregate with no explicit alias.
// Timestamp extremes become first_<ts> and last_<ts>.
func defaultAlias(column string, kind query.AggregateKind, timestamp string) string {
	if timestamp != "" && column == timestamp {
		switch kind {
		case query.Min:
			return "first_" + column
		case query.Max:
			return "last_" + column
		default:
			return kind.String() + "_" + column
		}
	}
	return column
}

// BuildAggregate produces the labelled aggregate expression for one
// (column, kind) pair. An empty alias selects the default name.
func BuildAggregate(table, dimension *database.TableRef, column string, kind query.AggregateKind, alias, timestamp string) (plan.Labeled, error) {
	if !kind.Valid() {
		return plan.Labeled{}, &UnsupportedAggregateError{Name: kind.String()}
	}
	col, err := resolveColumn(table, dimension, column)
	if err != nil {
		return plan.Labeled{}, err
	}
	if alias == "" {
		alias = defaultAlias(column, kind, timestamp)
	}
	return plan.Labeled{Expr: plan.AggregateExpr{Kind: kind, Arg: col}, Alias: alias}, nil
}
