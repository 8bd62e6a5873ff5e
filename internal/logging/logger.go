// Package logging holds the small structured-logging contract the rest of
// the code depends on, so packages never import a concrete logging backend.
package logging

import "context"

// Logger logs structured messages. Variadic args alternate keys and values:
//
//	log.Info(ctx, "subscriber added", "user_id", id, "collection", col)
type Logger interface {
	// Info records normal operational events.
	Info(ctx context.Context, msg string, args ...any)

	// Warn records recoverable oddities worth a look.
	Warn(ctx context.Context, msg string, args ...any)

	// Error records failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that attaches the given key-value pairs to
	// every record it emits.
	With(args ...any) Logger
}
