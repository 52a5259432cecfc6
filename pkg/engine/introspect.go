package engine

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/sqlgen"
)

// Introspector loads table metadata from the store's catalog. It
// implements database.Loader.
type Introspector struct {
	db      *sql.DB
	dialect sqlgen.Dialect
	logger  *slog.Logger
}

func NewIntrospector(db *sql.DB, dialect sqlgen.Dialect, logger *slog.Logger) *Introspector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Introspector{db: db, dialect: dialect, logger: logger}
}

// LoadTable reads the column list of schema.name.
func (i *Introspector) LoadTable(ctx context.Context, name, schema string) (*database.TableRef, error) {
	query, args, err := i.dialect.ColumnsQuery(schema, name)
	if err != nil {
		return nil, err
	}
	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", name, err)
	}
	defer rows.Close()

	var columns []database.Column
	for rows.Next() {
		var colName, dataType string
		if err := rows.Scan(&colName, &dataType); err != nil {
			return nil, fmt.Errorf("describe %s: %w", name, err)
		}
		t := database.ClassifyType(dataType)
		if t == database.TypeOther {
			i.logger.WarnContext(ctx, "unrecognized column data type",
				"table", name, "column", colName, "data_type", dataType)
		}
		columns = append(columns, database.Column{Name: colName, Type: t, DataType: dataType})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe %s: %w", name, err)
	}
	if len(columns) == 0 {
		return nil, &database.TableNotFoundError{Schema: schema, Name: name}
	}

	i.logger.DebugContext(ctx, "loaded table metadata", "table", name, "schema", schema, "columns", len(columns))
	return database.NewTableRef(schema, name, columns), nil
}
