// Package mycard provides local persistence of the singular "my card"
// profile, one record per storage namespace.
package mycard

import (
	"context"

	"github.com/kymbms/name-card-manage/internal/client/models"
)

// Repository stores at most one profile record per namespace.
type Repository interface {
	// Get returns the namespace's profile, or common.ErrNotFound when the
	// namespace has nothing persisted.
	Get(ctx context.Context, namespace string) (*models.Contact, error)

	// Save inserts or replaces the namespace's profile.
	Save(ctx context.Context, namespace string, card models.Contact) error

	// Purge removes the namespace's profile if present.
	Purge(ctx context.Context, namespace string) error
}
