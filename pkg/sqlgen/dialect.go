package sqlgen

import (
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/jdyer28/LSPI/pkg/plan"
	"github.com/jdyer28/LSPI/pkg/query"
)

// Dialect captures the SQL differences between supported stores.
type Dialect interface {
	Name() string
	Placeholder() sq.PlaceholderFormat
	// DefaultSchema is used for catalog lookups when no schema is given.
	DefaultSchema() string
	// AggregateFunc returns the SQL function for kind, or false if the
	// store has none.
	AggregateFunc(kind query.AggregateKind) (string, bool)
	// Bucket truncates the rendered column expression col.
	Bucket(col string, unit plan.BucketUnit, step int) (string, error)
	// TimeArg converts a time bound into a driver argument.
	TimeArg(t time.Time) interface{}
	// ColumnsQuery lists (column name, data type) for a table.
	ColumnsQuery(schema, table string) (string, []interface{}, error)
}

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pq":
		return Postgres{}, nil
	case "duckdb":
		return DuckDB{}, nil
	case "sqlite3", "sqlite":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q (expected postgres, duckdb or sqlite3)", driver)
	}
}

// QuoteIdent quotes an identifier with double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func standardAggregate(kind query.AggregateKind) (string, bool) {
	switch kind {
	case query.Count:
		return "count", true
	case query.Max:
		return "max", true
	case query.Mean:
		return "avg", true
	case query.Min:
		return "min", true
	case query.Std:
		return "stddev_samp", true
	case query.Sum:
		return "sum", true
	}
	return "", false
}

func informationSchemaColumns(d Dialect, schema, table string) (string, []interface{}, error) {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	return sq.Select("column_name", "data_type").
		From("information_schema.columns").
		Where(sq.Eq{"table_schema": schema, "table_name": table}).
		OrderBy("ordinal_position").
		PlaceholderFormat(d.Placeholder()).
		ToSql()
}

func truncUnit(unit plan.BucketUnit) (string, bool) {
	switch unit {
	case plan.Day:
		return "day", true
	case plan.Week:
		return "week", true
	case plan.Month:
		return "month", true
	case plan.Year:
		return "year", true
	}
	return "", false
}

// Postgres renders for PostgreSQL via lib/pq.
type Postgres struct{}

func (Postgres) Name() string                      { return "postgres" }
func (Postgres) Placeholder() sq.PlaceholderFormat { return sq.Dollar }
func (Postgres) DefaultSchema() string             { return "public" }
func (Postgres) TimeArg(t time.Time) interface{}   { return t }

func (Postgres) AggregateFunc(kind query.AggregateKind) (string, bool) {
	return standardAggregate(kind)
}

func (Postgres) Bucket(col string, unit plan.BucketUnit, step int) (string, error) {
	switch unit {
	case plan.Minute:
		return fmt.Sprintf("date_trunc('hour', %s) + make_interval(mins => (CAST(date_part('minute', %s) AS INTEGER) / %d) * %d)", col, col, step, step), nil
	case plan.Hour:
		return fmt.Sprintf("date_trunc('day', %s) + make_interval(hours => (CAST(date_part('hour', %s) AS INTEGER) / %d) * %d)", col, col, step, step), nil
	}
	if u, ok := truncUnit(unit); ok {
		return fmt.Sprintf("date_trunc('%s', %s)", u, col), nil
	}
	return "", fmt.Errorf("postgres: unsupported bucket unit %s", unit)
}

func (d Postgres) ColumnsQuery(schema, table string) (string, []interface{}, error) {
	return informationSchemaColumns(d, schema, table)
}

// DuckDB renders for DuckDB via duckdb-go.
type DuckDB struct{}

func (DuckDB) Name() string                      { return "duckdb" }
func (DuckDB) Placeholder() sq.PlaceholderFormat { return sq.Question }
func (DuckDB) DefaultSchema() string             { return "main" }
func (DuckDB) TimeArg(t time.Time) interface{}   { return t.UTC() }

func (DuckDB) AggregateFunc(kind query.AggregateKind) (string, bool) {
	return standardAggregate(kind)
}

func (DuckDB) Bucket(col string, unit plan.BucketUnit, step int) (string, error) {
	switch unit {
	case plan.Minute:
		return fmt.Sprintf("date_trunc('hour', %s) + to_minutes(CAST((date_part('minute', %s) // %d) * %d AS BIGINT))", col, col, step, step), nil
	case plan.Hour:
		return fmt.Sprintf("date_trunc('day', %s) + to_hours(CAST((date_part('hour', %s) // %d) * %d AS BIGINT))", col, col, step, step), nil
	}
	if u, ok := truncUnit(unit); ok {
		return fmt.Sprintf("date_trunc('%s', %s)", u, col), nil
	}
	return "", fmt.Errorf("duckdb: unsupported bucket unit %s", unit)
}

func (d DuckDB) ColumnsQuery(schema, table string) (string, []interface{}, error) {
	return informationSchemaColumns(d, schema, table)
}

// SQLite renders for SQLite via go-sqlite3. Timestamps are stored as
// "YYYY-MM-DD HH:MM:SS" text and buckets are rebuilt with strftime.
type SQLite struct{}

const sqliteTimeLayout = "2006-01-02 15:04:05"

func (SQLite) Name() string                      { return "sqlite3" }
func (SQLite) Placeholder() sq.PlaceholderFormat { return sq.Question }
func (SQLite) DefaultSchema() string             { return "main" }

func (SQLite) TimeArg(t time.Time) interface{} {
	return t.UTC().Format(sqliteTimeLayout)
}

func (SQLite) AggregateFunc(kind query.AggregateKind) (string, bool) {
	if kind == query.Std {
		return "", false
	}
	return standardAggregate(kind)
}

func (SQLite) Bucket(col string, unit plan.BucketUnit, step int) (string, error) {
	switch unit {
	case plan.Minute:
		return fmt.Sprintf("strftime('%%Y-%%m-%%d %%H:', %s) || printf('%%02d', (CAST(strftime('%%M', %s) AS INTEGER) / %d) * %d) || ':00'", col, col, step, step), nil
	case plan.Hour:
		return fmt.Sprintf("strftime('%%Y-%%m-%%d ', %s) || printf('%%02d', (CAST(strftime('%%H', %s) AS INTEGER) / %d) * %d) || ':00:00'", col, col, step, step), nil
	case plan.Day:
		return fmt.Sprintf("strftime('%%Y-%%m-%%d 00:00:00', %s)", col), nil
	case plan.Week:
		return fmt.Sprintf("strftime('%%Y-%%m-%%d 00:00:00', %s, 'weekday 0', '-6 days')", col), nil
	case plan.Month:
		return fmt.Sprintf("strftime('%%Y-%%m-01 00:00:00', %s)", col), nil
	case plan.Year:
		return fmt.Sprintf("strftime('%%Y-01-01 00:00:00', %s)", col), nil
	}
	return "", fmt.Errorf("sqlite3: unsupported bucket unit %s", unit)
}

func (d SQLite) ColumnsQuery(schema, table string) (string, []interface{}, error) {
	if schema == "" {
		schema = d.DefaultSchema()
	}
	sql, _, err := sq.Select("name", "type").
		From("pragma_table_info(?, ?)").
		OrderBy("cid").
		ToSql()
	return sql, []interface{}{table, schema}, err
}
