package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/engine"
)

var describeCmd = &cobra.Command{
	Use:   "describe <table>...",
	Short: "Show table columns grouped by semantic type",
	Long: `Display the columns of one or more tables grouped into timestamp,
numeric, text, boolean and other columns. The entity key is listed
separately.

Examples:
  lspi describe readings
  lspi describe readings devices --schema telemetry`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDescribe,
}

var describeOrder = []database.ColumnType{
	database.TypeTimestamp,
	database.TypeNumeric,
	database.TypeText,
	database.TypeBoolean,
	database.TypeOther,
}

func runDescribe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, dialect, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	catalog := database.NewCatalog(engine.NewIntrospector(db, dialect, logger))
	if err := catalog.Preload(ctx, cfg.Schema, args...); err != nil {
		return err
	}
	for i, name := range args {
		t, err := catalog.GetTable(ctx, name, cfg.Schema)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		printTable(cmd.OutOrStdout(), t, cfg.EntityColumn)
	}
	return nil
}

func printTable(w io.Writer, t *database.TableRef, entityKey string) {
	fmt.Fprintf(w, "Table: %s\n", t.QualifiedName())
	fmt.Fprintf(w, "Total columns: %d\n", len(t.Columns()))
	if _, ok := t.Column(entityKey); ok {
		fmt.Fprintf(w, "Entity key: %s\n", entityKey)
	}

	byType := t.ColumnsByType(entityKey)
	fmt.Fprintf(w, "\nColumns:\n")
	for _, typ := range describeOrder {
		names := byType[typ]
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s:\n", typ)
		for _, n := range names {
			c, _ := t.Column(n)
			fmt.Fprintf(w, "    %s (%s)\n", n, c.DataType)
		}
	}
}
