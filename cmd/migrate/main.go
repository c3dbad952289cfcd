package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"tasklane.app/server/common/logger"
	"tasklane.app/server/core/config"
	"tasklane.app/server/core/db"
	"tasklane.app/server/core/db/migrations"
)

var rootCmd = &cobra.Command{
	Use:           "tasklane-migrate",
	Short:         "Apply or inspect the Tasklane database schema",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().String("db", "", "Database connection string (defaults to DATABASE_URL)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withDB(func(ctx context.Context, sqlDB *sql.DB) error {
				return goose.UpContext(ctx, sqlDB, ".")
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: withDB(func(ctx context.Context, sqlDB *sql.DB) error {
				return goose.DownContext(ctx, sqlDB, ".")
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the state of every migration",
			RunE: withDB(func(ctx context.Context, sqlDB *sql.DB) error {
				return goose.StatusContext(ctx, sqlDB, ".")
			}),
		},
	)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

// withDB opens the pool, exposes it through database/sql for goose and
// closes it when the command finishes.
func withDB(run func(ctx context.Context, sqlDB *sql.DB) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := config.Load(config.ServiceTypeMigrate)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger.Setup(cfg)

		if dsn, _ := cmd.Flags().GetString("db"); dsn != "" {
			cfg.DB.DSN = dsn
		}

		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		sqlDB := stdlib.OpenDBFromPool(database.Pool())
		defer sqlDB.Close()

		goose.SetBaseFS(migrations.FS)
		if err := goose.SetDialect("postgres"); err != nil {
			return fmt.Errorf("setting dialect: %w", err)
		}

		return run(ctx, sqlDB)
	}
}
