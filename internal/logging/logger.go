// Package logging is the project's structured-logging seam. Code depends on
// the Logger interface; the concrete backend lives in one place.
package logging

import "context"

// Logger logs structured, context-aware messages. The trailing args are
// alternating key-value pairs, as in slog:
//
//	log.Info(ctx, "starting server", "addr", addr)
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)

	// Warn is for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that carries the given key-value pairs
	// on every record.
	With(args ...any) Logger
}
