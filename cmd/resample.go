package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/engine"
	"github.com/jdyer28/LSPI/pkg/parser"
	"github.com/jdyer28/LSPI/pkg/plan"
	"github.com/jdyer28/LSPI/pkg/planner"
	"github.com/jdyer28/LSPI/pkg/query"
)

var (
	resampleFreq      string
	resampleTimestamp string
	resampleAggs      []string
	resampleGroupBy   []string
)

var resampleCmd = &cobra.Command{
	Use:   "resample [file|-]",
	Short: "Resample exported JSON/JSONL readings into time bins",
	Long: `Aggregate raw readings from a JSON or JSONL file into bins of a
pandas-style frequency such as 15T, 2H, D, W-MON, MS or A.

Supports:
  - File paths: lspi resample readings.jsonl
  - Stdin: cat readings.jsonl | lspi resample
  - Inline JSON: lspi resample '[{"ts":"2023-01-01 00:10:00","temp":2}]'

Examples:
  lspi resample readings.jsonl --freq W-MON --timestamp evt_timestamp --agg "mean(temp)" --group-by site
  lspi resample readings.jsonl --freq 15T --timestamp ts --agg "min(pressure)" --agg "max(pressure) AS peak"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResample,
}

func init() {
	f := resampleCmd.Flags()
	f.StringVar(&resampleFreq, "freq", "", "Resample frequency")
	f.StringVar(&resampleTimestamp, "timestamp", "", "Timestamp field (default: configured timestamp column)")
	f.StringArrayVar(&resampleAggs, "agg", nil, `Aggregate such as "mean(temp)" or "sum(energy) AS total"`)
	f.StringSliceVar(&resampleGroupBy, "group-by", nil, "Group fields")
	resampleCmd.MarkFlagRequired("freq")
	resampleCmd.MarkFlagRequired("agg")
}

func runResample(cmd *cobra.Command, args []string) error {
	filename := "-"
	if len(args) > 0 {
		filename = args[0]
	}
	ts := resampleTimestamp
	if ts == "" {
		ts = cfg.TimestampColumn
	}
	if ts == "" {
		return &planner.MissingTimestampColumnError{Reason: "resample frequency " + resampleFreq}
	}

	aggregates, err := resampleAggregates(filename, ts, resampleAggs, resampleGroupBy)
	if err != nil {
		return err
	}

	rs, err := engine.FrameResampler{}.Resample(parser.NewFileTable(filename), resampleFreq, ts, resampleGroupBy, aggregates)
	if err != nil {
		return err
	}
	logger.DebugContext(cmd.Context(), "resampled file", "file", filename, "frequency", resampleFreq, "bins", rs.Len())
	return writeRows(cmd.OutOrStdout(), rs)
}

// resampleAggregates parses aggregate expressions with the request grammar
// and labels them the way the planner would for a table holding only the
// named fields.
func resampleAggregates(source, timestamp string, exprs, groupBy []string) ([]plan.Labeled, error) {
	st, err := query.ParseStatement(fmt.Sprintf("SELECT %s FROM rows", strings.Join(exprs, ", ")))
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var columns []database.Column
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			columns = append(columns, database.Column{Name: name})
		}
	}
	add(timestamp)
	for _, g := range groupBy {
		add(g)
	}
	for _, ca := range st.Aggregates {
		add(ca.Column)
	}
	table := database.NewTableRef("", source, columns)

	var out []plan.Labeled
	aliases := map[string]bool{}
	for _, ca := range st.Aggregates {
		for _, kind := range ca.Kinds {
			alias := planner.AggregateAlias(ca, kind, logger)
			l, err := planner.BuildAggregate(table, nil, ca.Column, kind, alias, timestamp)
			if err != nil {
				return nil, err
			}
			if aliases[l.Alias] {
				return nil, &planner.DuplicateAliasError{Alias: l.Alias}
			}
			aliases[l.Alias] = true
			out = append(out, l)
		}
	}
	return out, nil
}
