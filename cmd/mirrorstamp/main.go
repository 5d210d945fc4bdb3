// Command mirrorstamp inspects and maintains mirror columns for the
// temporal columns of a SQLite database: scan reports what exists, migrate
// adds the missing mirror columns, and backfill populates them in bulk.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mirrorstamp/mirrorstamp/engine"
	"github.com/mirrorstamp/mirrorstamp/migrate"
	"github.com/mirrorstamp/mirrorstamp/mirror"
	"github.com/mirrorstamp/mirrorstamp/schema"
)

var (
	dbPath  string
	suffix  string
	table   string
	verbose bool
)

func main() {
	root := &cobra.Command{
		Use:          "mirrorstamp",
		Short:        "Maintain epoch mirror columns for temporal table columns",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database (required)")
	root.PersistentFlags().StringVar(&suffix, "suffix", mirror.DefaultSuffix, "mirror column suffix")
	root.PersistentFlags().StringVar(&table, "table", "", "restrict to a single table")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	_ = root.MarkPersistentFlagRequired("db")

	root.AddCommand(scanCmd(), migrateCmd(), backfillCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// openMigrator opens the database and wires the migrator with a fresh
// metadata cache, mirroring how a host process would assemble the pieces.
func openMigrator() (*migrate.Migrator, func(), error) {
	log := newLogger()
	if err := engine.RegisterEpochFunctions(nil); err != nil {
		return nil, nil, err
	}
	db, err := engine.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	ins := schema.NewSQLInspector()
	ins.Register("default", db)
	cache := schema.NewCache(ins)
	m := migrate.New(db, "default", migrate.WithCache(cache), migrate.WithLogger(log))
	return m, func() { _ = db.Close() }, nil
}

func selectedReports(ctx context.Context, m *migrate.Migrator) ([]migrate.TableReport, error) {
	reports, err := m.Scan(ctx, suffix)
	if err != nil {
		return nil, err
	}
	if table == "" {
		return reports, nil
	}
	for _, r := range reports {
		if r.Table == table {
			return []migrate.TableReport{r}, nil
		}
	}
	return nil, nil
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Report temporal columns and their mirror status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, closeDB, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeDB()
			reports, err := selectedReports(cmd.Context(), m)
			if err != nil {
				return err
			}
			for _, r := range reports {
				for _, c := range r.Columns {
					status := "missing"
					if c.MirrorExists {
						status = fmt.Sprintf("present, %d rows pending", c.Pending)
					}
					fmt.Printf("%s.%s (%s) -> %s: %s\n", r.Table, c.Column, c.DeclaredType, c.Mirror, status)
				}
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Add missing mirror columns (with indexes)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, closeDB, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeDB()
			reports, err := selectedReports(cmd.Context(), m)
			if err != nil {
				return err
			}
			for _, r := range reports {
				for _, c := range r.Columns {
					if c.MirrorExists {
						continue
					}
					if err := m.AddMirror(cmd.Context(), r.Table, c.Mirror); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

func backfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Populate null mirrors from their source columns in bulk",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, closeDB, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeDB()
			reports, err := selectedReports(cmd.Context(), m)
			if err != nil {
				return err
			}
			var total int64
			for _, r := range reports {
				for _, c := range r.Columns {
					if !c.MirrorExists || c.Pending == 0 {
						continue
					}
					n, err := m.Backfill(cmd.Context(), r.Table, c.Column, c.Mirror)
					if err != nil {
						return err
					}
					total += n
				}
			}
			fmt.Printf("backfilled %d rows\n", total)
			return nil
		},
	}
}
