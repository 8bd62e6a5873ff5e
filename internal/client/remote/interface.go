// Package remote abstracts the cloud card store: per-identity collections,
// live snapshot subscriptions, and batched writes. The concrete
// implementation speaks the websocket RPC protocol of package wire; tests
// substitute fakes.
package remote

import (
	"context"

	"github.com/kymbms/name-card-manage/internal/client/models"
	"github.com/kymbms/name-card-manage/internal/wire"
)

// Unsubscribe releases a live subscription. Safe to call more than once.
// A delivery already in flight may invoke the callback one last time after
// it returns; consumers needing a hard cutoff must carry their own guard.
type Unsubscribe func()

// SnapshotFunc receives the full current contents of a subscribed
// collection: once immediately after subscribing, then again on every
// remote change, in the order the server emits them.
type SnapshotFunc func(records []models.Contact)

// Store is the remote card store contract.
//
// Mutating calls are scoped to an identity; implementations must refuse a
// call whose identity does not match the authenticated session rather than
// write into the wrong account. All record payloads are full Contact values
// except Patch, which carries only the changed fields.
type Store interface {
	// Register creates an account and opens a session for it.
	Register(ctx context.Context, username, password string) (models.Identity, error)

	// Login opens a session and returns the account's identity.
	Login(ctx context.Context, username, password string) (models.Identity, error)

	// Logout drops the session. Subsequent identity-scoped calls are
	// refused until the next login.
	Logout(ctx context.Context) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Subscribe attaches a live listener to one of the identity's
	// collections. Multiple independent subscriptions to the same collection
	// are allowed.
	Subscribe(ctx context.Context, identity models.Identity, collection wire.Collection, fn SnapshotFunc) (Unsubscribe, error)

	// Put upserts one record.
	Put(ctx context.Context, identity models.Identity, collection wire.Collection, recordID string, record models.Contact) error

	// Patch merges fields into an existing record.
	Patch(ctx context.Context, identity models.Identity, collection wire.Collection, recordID string, fields map[string]any) error

	// Remove deletes one record.
	Remove(ctx context.Context, identity models.Identity, collection wire.Collection, recordID string) error

	// BatchPut upserts all records in a single atomic commit. Used by the
	// guest-data migration.
	BatchPut(ctx context.Context, identity models.Identity, collection wire.Collection, records []models.Contact) error

	// GetOnce reads one record without subscribing. Returns
	// common.ErrNotFound when the record does not exist.
	GetOnce(ctx context.Context, identity models.Identity, collection wire.Collection, recordID string) (*models.Contact, error)

	// Close tears down the connection and releases every subscription.
	Close(ctx context.Context) error
}
