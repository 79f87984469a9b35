package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/importer"
	"reviewhub/internal/logger"

	"github.com/spf13/cobra"
)

type importOptions struct {
	dir     string
	migrate bool
}

func newRootCmd() *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "importcsv",
		Short: "Load the seed CSV files into the database",
		Long: `importcsv reads category, genre, users, titles, review, comments and
genre_title CSV files from a directory and loads them in one transaction.
Missing files are skipped. Rows already present are left as they are.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd.Context(), opts)
		},
	}

	// empty dir means IMPORT_DIR from the environment
	cmd.Flags().StringVar(&opts.dir, "dir", "", "directory holding the seed CSV files (default $IMPORT_DIR)")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", true, "create or update tables before importing")
	return cmd
}

func runImport(ctx context.Context, opts *importOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	if opts.dir == "" {
		opts.dir = cfg.ImportDir
	}

	logger := logger.New(cfg)
	slog.SetDefault(logger)

	if opts.migrate {
		db, err := database.OpenGorm(cfg, logger)
		if err != nil {
			return fmt.Errorf("database connect: %w", err)
		}
		err = database.Migrate(db, logger)
		database.Close(db)
		if err != nil {
			return fmt.Errorf("database migrate: %w", err)
		}
	}

	pool, err := database.OpenPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("database connect: %w", err)
	}
	defer pool.Close()

	logger.Info("import_started", "dir", opts.dir)
	stats, err := importer.New(logger).Run(ctx, pool, opts.dir)
	if err != nil {
		logger.Error("import_failed", "error", err)
		return err
	}

	imported := 0
	for _, s := range stats {
		imported += s.Rows
	}
	logger.Info("import_finished", "files", len(stats), "rows", imported)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
