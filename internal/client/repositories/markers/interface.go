// Package markers persists the per-identity "migrated" flags that make the
// guest-data migration idempotent across sessions.
package markers

import "context"

// Repository stores migration markers keyed by identity.
type Repository interface {
	// IsSet reports whether migration already completed for the identity.
	IsSet(ctx context.Context, identity string) (bool, error)

	// Set records a completed migration. Setting an existing marker is a no-op.
	Set(ctx context.Context, identity string) error
}
