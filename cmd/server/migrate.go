package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/phrazzld/vocab-review/internal/config"
	"github.com/phrazzld/vocab-review/internal/platform/dynamodb"
	"github.com/phrazzld/vocab-review/internal/platform/migrate"
	"github.com/phrazzld/vocab-review/internal/platform/postgres"
	"github.com/phrazzld/vocab-review/internal/platform/sqlite"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       fmt.Sprintf("migrate {%s}", strings.Join(migrate.Commands, "|")),
		Short:     "Manage the storage schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrate.Commands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			return runMigration(cmd.Context(), cfg, log, args[0], cmd.OutOrStdout())
		},
	}
}

// runMigration executes one migration command against the configured store.
// DynamoDB has no versioned schema; "up" creates the table and its indexes.
func runMigration(ctx context.Context, cfg *config.Config, log *slog.Logger, command string, out io.Writer) error {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		defer closeDB(db, log)
		return runSQLMigration(ctx, db, goose.DialectPostgres, postgres.Migrations(), log, command, out)

	case config.DriverSQLite:
		db, err := sql.Open(sqlite.DriverName, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to open sqlite database: %w", err)
		}
		defer closeDB(db, log)
		return runSQLMigration(ctx, db, goose.DialectSQLite3, sqlite.Migrations(), log, command, out)

	case config.DriverDynamoDB:
		if command != migrate.CommandUp {
			return fmt.Errorf("%w: %s is not supported by the dynamodb driver", migrate.ErrUnknownCommand, command)
		}
		client, err := dynamodb.NewClient(ctx, cfg.DynamoDB)
		if err != nil {
			return fmt.Errorf("failed to create dynamodb client: %w", err)
		}
		return dynamodb.EnsureTable(ctx, client, cfg.DynamoDB, log)

	default:
		return fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func runSQLMigration(
	ctx context.Context,
	db *sql.DB,
	dialect goose.Dialect,
	fsys fs.FS,
	log *slog.Logger,
	command string,
	out io.Writer,
) error {
	runner, err := migrate.NewRunner(db, dialect, fsys, log, out)
	if err != nil {
		return err
	}
	return runner.Run(ctx, command)
}

func closeDB(db *sql.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Error("failed to close database", slog.String("error", err.Error()))
	}
}
