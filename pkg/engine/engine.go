package engine

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/plan"
	"github.com/jdyer28/LSPI/pkg/planner"
)

// Engine plans, executes and, when needed, resamples aggregate requests.
type Engine struct {
	planner   *planner.Planner
	executor  *Executor
	resampler Resampler
	logger    *slog.Logger
}

type Option func(*Engine)

func WithResampler(r Resampler) Option {
	return func(e *Engine) {
		if r != nil {
			e.resampler = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(p *planner.Planner, exec *Executor, opts ...Option) *Engine {
	e := &Engine{
		planner:   p,
		executor:  exec,
		resampler: FrameResampler{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Planner() *planner.Planner { return e.planner }
func (e *Engine) Executor() *Executor       { return e.executor }

// Aggregate runs an aggregate request. Fallback plans are resampled in
// process so the result has the same columns a push-down query would.
func (e *Engine) Aggregate(ctx context.Context, req planner.Request) (*database.RowSet, error) {
	logger := e.logger.With("request_id", uuid.NewString(), "table", req.Table)

	p, err := e.planner.Assemble(ctx, req)
	if err != nil {
		logger.WarnContext(ctx, "aggregate rejected", "error", err)
		return nil, err
	}
	return e.run(ctx, logger, p)
}

// TimeAggregate runs a regular aggregate joined with a timestamp extreme.
func (e *Engine) TimeAggregate(ctx context.Context, req planner.TimeAggRequest) (*database.RowSet, error) {
	logger := e.logger.With("request_id", uuid.NewString(), "table", req.Table)

	p, err := e.planner.TimeAggregate(ctx, req)
	if err != nil {
		logger.WarnContext(ctx, "time aggregate rejected", "error", err)
		return nil, err
	}
	return e.run(ctx, logger, p)
}

// ColumnAggregate returns a single aggregate value of one column.
func (e *Engine) ColumnAggregate(ctx context.Context, req planner.ColumnAggregateRequest) (interface{}, error) {
	logger := e.logger.With("request_id", uuid.NewString(), "table", req.Table)

	p, err := e.planner.ColumnAggregate(ctx, req)
	if err != nil {
		return nil, err
	}
	rows, err := e.run(ctx, logger, p)
	if err != nil {
		return nil, err
	}
	if rows.Len() == 0 {
		return nil, nil
	}
	return rows.Rows()[0][0].Val, nil
}

// Read returns raw rows.
func (e *Engine) Read(ctx context.Context, req planner.ScanRequest) (*database.RowSet, error) {
	logger := e.logger.With("request_id", uuid.NewString(), "table", req.Table)

	p, err := e.planner.Scan(ctx, req)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, logger, p)
}

func (e *Engine) run(ctx context.Context, logger *slog.Logger, p *plan.QueryPlan) (*database.RowSet, error) {
	logger.DebugContext(ctx, "running plan", "sources", sources(p), "fallback", p.Fallback())
	if p.Fallback() {
		if _, err := ParseFrequency(p.Frequency()); err != nil {
			logger.WarnContext(ctx, "resample rejected", "frequency", p.Frequency(), "error", err)
			return nil, err
		}
	}
	rows, err := e.executor.Execute(ctx, p)
	if err != nil {
		logger.ErrorContext(ctx, "query execution failed", "error", err)
		return nil, err
	}
	if !p.Fallback() {
		logger.InfoContext(ctx, "query complete", "rows", rows.Len())
		return rows, nil
	}

	out, err := e.resampler.Resample(rows, p.Frequency(), p.Timestamp(), p.GroupColumns(), p.Aggregates())
	if err != nil {
		logger.ErrorContext(ctx, "resample failed", "frequency", p.Frequency(), "error", err)
		return nil, err
	}
	logger.InfoContext(ctx, "query complete", "raw_rows", rows.Len(), "rows", out.Len(), "frequency", p.Frequency())
	return out, nil
}

func sources(p *plan.QueryPlan) []string {
	leaves := plan.Leaves(p)
	out := make([]string, len(leaves))
	for i, l := range leaves {
		out[i] = l.Source().QualifiedName()
	}
	return out
}
