package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	// Register the sqlite3 driver with database/sql.
	_ "github.com/mattn/go-sqlite3"
	"github.com/phrazzld/vocab-review/internal/config"
	"github.com/phrazzld/vocab-review/internal/platform/migrate"
	"github.com/pressly/goose/v3"
)

// DriverName is the database/sql driver registered by go-sqlite3.
const DriverName = "sqlite3"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations with the SQL files at the root.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		// ALLOW-PANIC: the embedded directory is fixed at compile time
		panic(err)
	}
	return sub
}

// Open opens the database at cfg.URL and applies pending migrations.
// The pool is limited to one connection afterwards, which serializes writers.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(DriverName, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	runner, err := migrate.NewRunner(db, goose.DialectSQLite3, Migrations(), logger, io.Discard)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runner.Up(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(1)

	logger.Info("database connection established", slog.String("driver", DriverName))
	return db, nil
}
