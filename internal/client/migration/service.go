// Package migration moves data accumulated while browsing as a guest into a
// freshly signed-in account. It runs once per identity: an idempotency
// marker in the local store records that an identity's contacts were already
// migrated, and the guest copies are purged only after the remote commit
// succeeded.
package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/kymbms/name-card-manage/internal/client/localstore"
	"github.com/kymbms/name-card-manage/internal/client/models"
	"github.com/kymbms/name-card-manage/internal/client/remote"
	"github.com/kymbms/name-card-manage/internal/common"
	"github.com/kymbms/name-card-manage/internal/logging"
	"github.com/kymbms/name-card-manage/internal/wire"
)

type Service struct {
	local  *localstore.Store
	remote remote.Store
	logger logging.Logger
}

func NewService(local *localstore.Store, rs remote.Store, logger logging.Logger) *Service {
	return &Service{local: local, remote: rs, logger: logger}
}

// Run migrates guest data into the given identity's remote collections. It
// is a no-op for the guest identity and, unless force is set, for any
// identity that already migrated. A forced run re-uploads over a set marker
// but never clears local guest data before the remote commit succeeded.
func (s *Service) Run(ctx context.Context, identity models.Identity, force bool) error {
	if identity.IsGuest() {
		return nil
	}

	if err := s.migrateMyCard(ctx, identity); err != nil {
		return err
	}

	// persisted guest contacts only; the starter seed is not worth keeping
	contacts := s.local.ReadContacts(ctx, models.Guest, false)
	if len(contacts) == 0 {
		return nil
	}

	done, err := s.local.MigrationDone(ctx, identity)
	if err != nil {
		return fmt.Errorf("failed to read migration marker: %w", err)
	}
	if done && !force {
		return nil
	}

	// records keep their own ids so the batch is a duplicate-safe upsert
	if err := s.remote.BatchPut(ctx, identity, wire.CollectionContacts, contacts); err != nil {
		return fmt.Errorf("failed to upload guest contacts: %w", err)
	}
	s.logger.Info(ctx, "migrated guest contacts", "identity", string(identity), "count", len(contacts))

	if err := s.local.MarkMigrationDone(ctx, identity); err != nil {
		return fmt.Errorf("failed to set migration marker: %w", err)
	}
	// PurgeGuest also drops the guest card, no separate purge needed
	if err := s.local.PurgeGuest(ctx); err != nil {
		return fmt.Errorf("failed to purge guest contacts: %w", err)
	}
	return nil
}

// migrateMyCard uploads the guest card when the account has none yet. The
// remote copy wins when both exist.
func (s *Service) migrateMyCard(ctx context.Context, identity models.Identity) error {
	if !s.local.HasGuestMyCard(ctx) {
		return nil
	}
	_, err := s.remote.GetOnce(ctx, identity, wire.CollectionMyCard, wire.MyCardRecordID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("failed to check remote card: %w", err)
	}
	card := s.local.ReadMyCard(ctx, models.Guest)
	if card == nil {
		return nil
	}
	if err := s.remote.Put(ctx, identity, wire.CollectionMyCard, wire.MyCardRecordID, *card); err != nil {
		return fmt.Errorf("failed to upload guest card: %w", err)
	}
	if err := s.local.PurgeGuestMyCard(ctx); err != nil {
		return fmt.Errorf("failed to purge guest card: %w", err)
	}
	s.logger.Info(ctx, "migrated guest card", "identity", string(identity))
	return nil
}
