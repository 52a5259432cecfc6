package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jdyer28/LSPI/pkg/engine"
	"github.com/jdyer28/LSPI/pkg/plan"
	"github.com/jdyer28/LSPI/pkg/planner"
)

var (
	explainFile   string
	explainWindow windowFlags
)

var explainCmd = &cobra.Command{
	Use:   "explain [request]",
	Short: "Show the plan and SQL for an aggregate request",
	Long: `Plan an aggregate request without running it and print the plan tree
followed by the SQL and its arguments.

Examples:
  lspi explain "SELECT sum(energy) FROM readings GROUP BY site EVERY W-MON ON evt_timestamp"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().StringVarP(&explainFile, "file", "f", "", "YAML request file")
	addWindowFlags(explainCmd, &explainWindow)
}

func runExplain(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(args, explainFile, explainWindow)
	if err != nil {
		return err
	}
	e, closeDB, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer closeDB()

	return explainRequest(cmd.Context(), cmd.OutOrStdout(), e, req)
}

func explainRequest(ctx context.Context, w io.Writer, e *engine.Engine, req planner.Request) error {
	p, err := e.Planner().Assemble(ctx, req)
	if err != nil {
		return err
	}
	sql, args, err := e.Executor().SQL(p)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Execution Plan:")
	fmt.Fprint(w, plan.FormatPlan(p))
	fmt.Fprintln(w, "SQL:")
	fmt.Fprintln(w, sql)
	if len(args) > 0 {
		fmt.Fprintf(w, "Args: %v\n", args)
	}
	return nil
}
