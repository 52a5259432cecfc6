package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jdyer28/LSPI/pkg/config"
	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/engine"
	"github.com/jdyer28/LSPI/pkg/planner"
	"github.com/jdyer28/LSPI/pkg/sqlgen"
)

var (
	ConfigPath      string
	Driver          string
	DSN             string
	Schema          string
	LogLevel        string
	Pretty          bool
	InteractiveMode bool

	cfg    *config.Config
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "lspi",
	Short: "Aggregate queries over device time-series tables",
	Long: `lspi plans and runs aggregate queries over device readings stored in
Postgres, DuckDB or SQLite. Time grains the store can bucket natively are
pushed down into SQL; any other pandas-style frequency is resampled in process.

Requests use a small query language:
  SELECT min(pressure), max(pressure), mean(temp) FROM readings
    JOIN devices GROUP BY site EVERY 15min ON evt_timestamp

Examples:
  lspi aggregate "SELECT mean(temp) FROM readings EVERY day ON evt_timestamp"
  lspi explain "SELECT sum(energy) FROM readings GROUP BY site EVERY W-MON ON evt_timestamp"
  lspi describe readings
  lspi resample export.jsonl --freq W-MON --timestamp ts --agg "mean(temp)"
  lspi -i`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		if InteractiveMode {
			return RunInteractive(cmd.Context())
		}
		return cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ConfigPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&Driver, "driver", "", "Database driver (postgres, duckdb, sqlite3)")
	rootCmd.PersistentFlags().StringVar(&DSN, "dsn", "", "Database connection string")
	rootCmd.PersistentFlags().StringVar(&Schema, "schema", "", "Default schema for table lookups")
	rootCmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&Pretty, "pretty", false, "Pretty print output")
	rootCmd.Flags().BoolVarP(&InteractiveMode, "interactive", "i", false, "Interactive REPL mode")

	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(timeAggCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(resampleCmd)
}

// loadConfig merges the config file, environment and flags, in increasing
// precedence, and installs the logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(ConfigPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("driver") {
		c.Driver = Driver
	}
	if flags.Changed("dsn") {
		c.DSN = DSN
	}
	if flags.Changed("schema") {
		c.Schema = Schema
	}
	if flags.Changed("log-level") {
		c.LogLevel = LogLevel
	}
	cfg = c
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return nil
}

// openDB connects to the configured store.
func openDB(ctx context.Context) (*sql.DB, sqlgen.Dialect, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	dialect, err := sqlgen.DialectFor(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open(dialect.Name(), cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", dialect.Name(), err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connect %s: %w", dialect.Name(), err)
	}
	return db, dialect, nil
}

// openEngine wires the catalog, planner and executor over a new
// connection. The returned func closes the connection.
func openEngine(ctx context.Context) (*engine.Engine, func() error, error) {
	db, dialect, err := openDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	catalog := database.NewCatalog(engine.NewIntrospector(db, dialect, logger))
	p := planner.New(catalog,
		planner.WithEntityKey(cfg.EntityColumn),
		planner.WithLogger(logger),
	)
	e := engine.New(p, engine.NewExecutor(db, dialect, logger), engine.WithLogger(logger))
	logger.DebugContext(ctx, "engine ready", "driver", dialect.Name(), "schema", cfg.Schema)
	return e, db.Close, nil
}
