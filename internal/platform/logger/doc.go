// Package logger provides structured logging for the application.
//
// It configures a JSON log/slog handler with a configurable level and carries
// request-scoped loggers through context.Context.
package logger
