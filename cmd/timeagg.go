package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jdyer28/LSPI/pkg/planner"
	"github.com/jdyer28/LSPI/pkg/query"
)

var (
	timeAggTable        string
	timeAggColumn       string
	timeAggFunc         string
	timeAggAlias        string
	timeAggExtreme      string
	timeAggGrain        string
	timeAggRegularGrain string
	timeAggGroupBy      []string
	timeAggDimension    string
	timeAggTimestamp    string
	timeAggExplain      bool
	timeAggWindow       windowFlags
)

var timeAggCmd = &cobra.Command{
	Use:   "timeagg",
	Short: "Aggregate a column together with the first or last timestamp",
	Long: `Join a regular aggregate of one column with the earliest or latest
timestamp of each bucket.

Without --regular-grain the value is reported at the extreme timestamp;
with it, both sides are bucketed and joined on the bucket.

Examples:
  lspi timeagg --table readings --column temp --agg sum --extreme last --grain day --regular-grain day --group-by site --timestamp evt_timestamp
  lspi timeagg --table readings --column temp --agg max --extreme first --grain 1H --timestamp evt_timestamp`,
	Args: cobra.NoArgs,
	RunE: runTimeAgg,
}

func init() {
	f := timeAggCmd.Flags()
	f.StringVar(&timeAggTable, "table", "", "Fact table")
	f.StringVar(&timeAggColumn, "column", "", "Column to aggregate")
	f.StringVar(&timeAggFunc, "agg", "", "Aggregate function (count, max, mean, min, std, sum)")
	f.StringVar(&timeAggAlias, "alias", "", "Output name of the aggregate")
	f.StringVar(&timeAggExtreme, "extreme", string(planner.Last), "Timestamp extreme (first or last)")
	f.StringVar(&timeAggGrain, "grain", "", "Time grain of the timestamp extreme")
	f.StringVar(&timeAggRegularGrain, "regular-grain", "", "Time grain of the regular aggregate")
	f.StringSliceVar(&timeAggGroupBy, "group-by", nil, "Group columns")
	f.StringVar(&timeAggDimension, "dimension", "", "Dimension table joined on the entity key")
	f.StringVar(&timeAggTimestamp, "timestamp", "", "Timestamp column (default: configured timestamp column)")
	f.BoolVar(&timeAggExplain, "explain", false, "Print the plan and SQL instead of running it")
	addWindowFlags(timeAggCmd, &timeAggWindow)
	timeAggCmd.MarkFlagRequired("table")
	timeAggCmd.MarkFlagRequired("column")
	timeAggCmd.MarkFlagRequired("agg")
}

func timeAggRequest() (planner.TimeAggRequest, error) {
	kind, err := query.ParseAggregateKind(timeAggFunc)
	if err != nil {
		return planner.TimeAggRequest{}, err
	}
	start, end, err := timeAggWindow.bounds()
	if err != nil {
		return planner.TimeAggRequest{}, err
	}
	ts := timeAggTimestamp
	if ts == "" {
		ts = cfg.TimestampColumn
	}
	return planner.TimeAggRequest{
		Table:           timeAggTable,
		Schema:          cfg.Schema,
		Column:          timeAggColumn,
		Aggregate:       kind,
		Alias:           timeAggAlias,
		Extreme:         planner.Extreme(timeAggExtreme),
		GroupBy:         timeAggGroupBy,
		TimestampColumn: ts,
		TimeGrain:       timeAggGrain,
		RegularGrain:    timeAggRegularGrain,
		Dimension:       timeAggDimension,
		Start:           start,
		End:             end,
		Entities:        timeAggWindow.entities,
	}, nil
}

func runTimeAgg(cmd *cobra.Command, args []string) error {
	req, err := timeAggRequest()
	if err != nil {
		return err
	}

	e, closeDB, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeDB()

	if timeAggExplain {
		p, err := e.Planner().TimeAggregate(cmd.Context(), req)
		if err != nil {
			return err
		}
		sql, args, err := e.Executor().SQL(p)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sql)
		if len(args) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Args: %v\n", args)
		}
		return nil
	}

	rs, err := e.TimeAggregate(cmd.Context(), req)
	if err != nil {
		return err
	}
	return writeRows(cmd.OutOrStdout(), rs)
}
