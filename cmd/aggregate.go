package cmd

import (
	"github.com/spf13/cobra"
)

var (
	aggregateFile   string
	aggregateWindow windowFlags
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate [request]",
	Short: "Run an aggregate request and print JSONL rows",
	Long: `Run an aggregate request against the configured store.

The request is either a statement argument or a YAML file given with --file.

Examples:
  lspi aggregate "SELECT mean(temp) FROM readings GROUP BY site EVERY 15min ON evt_timestamp"
  lspi aggregate "SELECT count(temp) AS n FROM readings JOIN devices GROUP BY floor" --entity d1,d3
  lspi aggregate --file request.yaml --start 2023-01-01 --end 2023-02-01`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVarP(&aggregateFile, "file", "f", "", "YAML request file")
	addWindowFlags(aggregateCmd, &aggregateWindow)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(args, aggregateFile, aggregateWindow)
	if err != nil {
		return err
	}
	e, closeDB, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeDB()

	rs, err := e.Aggregate(cmd.Context(), req)
	if err != nil {
		return err
	}
	return writeRows(cmd.OutOrStdout(), rs)
}
