package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
)

// Supported migration commands.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandStatus  = "status"
	CommandVersion = "version"
)

// Commands lists the accepted commands in display order.
var Commands = []string{CommandUp, CommandDown, CommandStatus, CommandVersion}

// ErrUnknownCommand is returned by Run for a command outside Commands.
var ErrUnknownCommand = errors.New("unknown migration command")

// Runner executes migration commands against one database.
type Runner struct {
	provider *goose.Provider
	logger   *slog.Logger
	out      io.Writer
}

// NewRunner creates a Runner for the migrations in fsys (SQL files at its root).
// Status and version reports are written to out.
func NewRunner(db *sql.DB, dialect goose.Dialect, fsys fs.FS, logger *slog.Logger, out io.Writer) (*Runner, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = io.Discard
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return &Runner{
		provider: provider,
		logger: logger.With(
			slog.String("component", "migrations"),
			slog.String("dialect", string(dialect)),
		),
		out: out,
	}, nil
}

// Up applies every pending migration.
func (r *Runner) Up(ctx context.Context) error {
	return r.Run(ctx, CommandUp)
}

// Run executes one of the supported commands.
func (r *Runner) Run(ctx context.Context, command string) error {
	log := r.logger.With(
		slog.String("correlation_id", uuid.New().String()),
		slog.String("command", command),
	)
	start := time.Now()

	var err error
	switch command {
	case CommandUp:
		err = r.up(ctx, log)
	case CommandDown:
		err = r.down(ctx, log)
	case CommandStatus:
		err = r.status(ctx)
	case CommandVersion:
		err = r.version(ctx)
	default:
		return fmt.Errorf("%w: %s (expected one of %v)", ErrUnknownCommand, command, Commands)
	}

	if err != nil {
		log.Error("migration command failed",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	log.Info("migration command executed successfully",
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}

func (r *Runner) up(ctx context.Context, log *slog.Logger) error {
	results, err := r.provider.Up(ctx)
	for _, res := range results {
		log.Info("applied migration",
			slog.Int64("version", res.Source.Version),
			slog.String("file", res.Source.Path),
			slog.Int64("duration_ms", res.Duration.Milliseconds()))
	}
	if err != nil {
		return err
	}
	if len(results) == 0 {
		log.Info("no pending migrations")
	}
	return nil
}

func (r *Runner) down(ctx context.Context, log *slog.Logger) error {
	res, err := r.provider.Down(ctx)
	if err != nil {
		return err
	}
	if res != nil {
		log.Info("rolled back migration",
			slog.Int64("version", res.Source.Version),
			slog.String("file", res.Source.Path))
	}
	return nil
}

func (r *Runner) status(ctx context.Context) error {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return err
	}
	for _, st := range statuses {
		applied := "pending"
		if !st.AppliedAt.IsZero() {
			applied = st.AppliedAt.UTC().Format(time.RFC3339)
		}
		if _, err := fmt.Fprintf(r.out, "%-6d %-40s %s\n", st.Source.Version, st.Source.Path, applied); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) version(ctx context.Context) error {
	v, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(r.out, "%d\n", v)
	return err
}
