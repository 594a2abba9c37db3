package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/searchforge/suggestions/sources"
	"github.com/searchforge/suggestions/taxonomy"
)

// storeFlags are shared by every subcommand that talks to the item store.
type storeFlags struct {
	driver   string
	dsn      string
	taxonomy string
	verbose  bool
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates the root command for the suggest CLI.
func NewRootCmd() *cobra.Command {
	var flags storeFlags

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Inspect and seed the search suggestion engine",
		Long: `suggest seeds an item store from YAML, runs suggestion queries
against it and prints the cache keys queries resolve to.

Examples:
  suggest seed --items items.yaml
  suggest query καθαρισμός
  suggest key search query=καθ type=suggestions`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.driver, "driver", "sqlite", "Item store driver: sqlite, mysql, pgx")
	cmd.PersistentFlags().StringVar(&flags.dsn, "dsn", "file:suggestions.db", "Item store DSN")
	cmd.PersistentFlags().StringVar(&flags.taxonomy, "taxonomy", "", "Taxonomy YAML (embedded dataset when empty)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(newSeedCmd(&flags))
	cmd.AddCommand(newQueryCmd(&flags))
	cmd.AddCommand(newKeyCmd())

	return cmd
}

func (f *storeFlags) logger() *slog.Logger {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (f *storeFlags) openStore(ctx context.Context, logger *slog.Logger) (*sources.SQLStore, error) {
	store, err := sources.OpenSQL(f.driver, f.dsn, logger)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func (f *storeFlags) index() (*taxonomy.Index, error) {
	var (
		ds  taxonomy.Dataset
		err error
	)
	if f.taxonomy == "" {
		ds, err = taxonomy.Default()
	} else {
		ds, err = taxonomy.LoadFile(f.taxonomy)
	}
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %w", err)
	}
	return taxonomy.NewIndex(ds), nil
}
