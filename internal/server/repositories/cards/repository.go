// Package cards declares the server-side repository contract for the stored
// card documents.
package cards

import (
	"context"

	"github.com/kymbms/name-card-manage/internal/server/models"
)

// Repository defines the document operations on a user's card collections.
type Repository interface {
	// Upsert inserts the card or replaces its payload.
	Upsert(ctx context.Context, card *models.Card) error

	// Get returns one card, or common.ErrNotFound.
	Get(ctx context.Context, userID, collection, cardID string) (*models.Card, error)

	// GetForUpdate is Get with a row lock, for use inside a transaction.
	GetForUpdate(ctx context.Context, userID, collection, cardID string) (*models.Card, error)

	// Delete removes one card. Deleting an absent card is not an error.
	Delete(ctx context.Context, userID, collection, cardID string) error

	// List returns all cards of one collection.
	List(ctx context.Context, userID, collection string) ([]*models.Card, error)
}
