package engine

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/plan"
	"github.com/jdyer28/LSPI/pkg/sqlgen"
)

// Executor renders plans to SQL and runs them.
type Executor struct {
	db       *sql.DB
	renderer *sqlgen.Renderer
	logger   *slog.Logger
}

func NewExecutor(db *sql.DB, dialect sqlgen.Dialect, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Executor{
		db:       db,
		renderer: sqlgen.NewRenderer(dialect),
		logger:   logger,
	}
}

// SQL returns the statement and arguments Execute would run.
func (e *Executor) SQL(p *plan.QueryPlan) (string, []interface{}, error) {
	return e.renderer.ToSQL(p)
}

// Execute runs p and returns its rows keyed by the plan's output names.
func (e *Executor) Execute(ctx context.Context, p *plan.QueryPlan) (*database.RowSet, error) {
	query, args, err := e.renderer.ToSQL(p)
	if err != nil {
		return nil, fmt.Errorf("render query: %w", err)
	}

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	e.logger.DebugContext(ctx, "executed query",
		"dialect", e.renderer.Dialect().Name(),
		"sql", query,
		"rows", result.Len(),
		"duration", time.Since(start))
	return result, nil
}

func scanRows(rows *sql.Rows) (*database.RowSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := database.NewRowSet(cols)
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		if err := result.Append(vals); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return result, nil
}
