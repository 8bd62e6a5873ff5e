// Package contacts provides the local, namespaced persistence of contact
// records. Implementations are backed by the client sqlite database.
package contacts

import (
	"context"

	"github.com/kymbms/name-card-manage/internal/client/models"
)

// Repository stores full contact sets per storage namespace. Writes always
// replace the namespace's previous content wholesale; there is no per-record
// mutation at this layer (the sync engine owns record-level semantics).
type Repository interface {
	// GetAll returns the namespace's contacts ordered by id descending.
	// A namespace with no rows yields an empty slice, not an error.
	GetAll(ctx context.Context, namespace string) ([]models.Contact, error)

	// ReplaceAll atomically replaces the namespace's contacts.
	ReplaceAll(ctx context.Context, namespace string, records []models.Contact) error

	// Purge removes every contact stored under the namespace.
	Purge(ctx context.Context, namespace string) error
}
