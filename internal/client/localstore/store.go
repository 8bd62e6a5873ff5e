// Package localstore is the durable, identity-namespaced local cache of
// contacts and the "my card" profile. It is the synchronous half of the sync
// core: reads never touch the network and writes commit before any remote
// leg is attempted.
//
// Reads fail soft: malformed or unreadable persisted data degrades to the
// empty set (or the built-in guest seed) instead of surfacing an error, so a
// corrupt cache can never take the UI down. Writes do return errors.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/kymbms/name-card-manage/internal/client/migrations"
	"github.com/kymbms/name-card-manage/internal/client/models"
	"github.com/kymbms/name-card-manage/internal/client/repositories/contacts"
	"github.com/kymbms/name-card-manage/internal/client/repositories/markers"
	"github.com/kymbms/name-card-manage/internal/client/repositories/mycard"
	"github.com/kymbms/name-card-manage/internal/common"
	"github.com/kymbms/name-card-manage/internal/logging"

	_ "modernc.org/sqlite"
)

// Collection identifies which record collection a change notification is for.
type Collection string

const (
	CollectionContacts Collection = "contacts"
	CollectionMyCard   Collection = "mycard"
)

// legacyNamespaces are storage namespaces from schema versions that predate
// per-identity namespacing. They once let two accounts on one device see each
// other's cards, so they are scrubbed unconditionally at process start.
var legacyNamespaces = []string{"", "default", "stable", "v1", "v2", "v3"}

// Store implements the local persistence contract over sqlite.
type Store struct {
	db       *sql.DB
	contacts contacts.Repository
	mycards  mycard.Repository
	markers  markers.Repository
	logger   logging.Logger

	mu        sync.Mutex
	listeners map[int]func(namespace string, collection Collection)
	nextID    int
}

// Open opens (creating if needed) the local database at dsn, runs schema
// migrations, and returns a ready Store.
func Open(ctx context.Context, dsn string, logger logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open local db: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate local db: %w", err)
	}
	return New(db, logger), nil
}

// New builds a Store over an already-migrated database. Used by tests.
func New(db *sql.DB, logger logging.Logger) *Store {
	return &Store{
		db:        db,
		contacts:  contacts.NewSQLiteRepository(db),
		mycards:   mycard.NewSQLiteRepository(db),
		markers:   markers.NewSQLiteRepository(db),
		logger:    logger,
		listeners: map[int]func(string, Collection){},
	}
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReadContacts returns the identity's persisted contacts, newest first.
// For a guest with nothing persisted the built-in seed is returned when
// includeSeed is set; a signed-in identity always starts empty.
func (s *Store) ReadContacts(ctx context.Context, identity models.Identity, includeSeed bool) []models.Contact {
	records, err := s.contacts.GetAll(ctx, identity.Namespace())
	if err != nil {
		s.logger.Warn(ctx, "local contacts read failed, falling back", "namespace", identity.Namespace(), "error", err)
		records = nil
	}
	if len(records) == 0 && includeSeed && identity.IsGuest() {
		return models.SeedContacts()
	}
	return records
}

// WriteContacts replaces the identity's persisted contacts and notifies
// local listeners.
func (s *Store) WriteContacts(ctx context.Context, identity models.Identity, records []models.Contact) error {
	if err := s.contacts.ReplaceAll(ctx, identity.Namespace(), records); err != nil {
		return err
	}
	s.notify(identity.Namespace(), CollectionContacts)
	return nil
}

// ReadMyCard returns the identity's profile. A signed-in identity with
// nothing persisted gets nil (no placeholder); a guest gets the built-in
// placeholder card.
func (s *Store) ReadMyCard(ctx context.Context, identity models.Identity) *models.Contact {
	card, err := s.mycards.Get(ctx, identity.Namespace())
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn(ctx, "local my-card read failed, falling back", "namespace", identity.Namespace(), "error", err)
		}
		if identity.IsGuest() {
			placeholder := models.PlaceholderMyCard()
			return &placeholder
		}
		return nil
	}
	return card
}

// WriteMyCard replaces the identity's profile and notifies local listeners.
func (s *Store) WriteMyCard(ctx context.Context, identity models.Identity, card models.Contact) error {
	card.ID = models.MyCardID
	if err := s.mycards.Save(ctx, identity.Namespace(), card); err != nil {
		return err
	}
	s.notify(identity.Namespace(), CollectionMyCard)
	return nil
}

// HasGuestMyCard reports whether a guest profile was actually persisted
// (as opposed to the synthetic placeholder ReadMyCard hands out).
func (s *Store) HasGuestMyCard(ctx context.Context) bool {
	_, err := s.mycards.Get(ctx, models.GuestNamespace)
	return err == nil
}

// MigrationDone reports whether the identity's guest-data migration marker
// is set.
func (s *Store) MigrationDone(ctx context.Context, identity models.Identity) (bool, error) {
	return s.markers.IsSet(ctx, string(identity))
}

// MarkMigrationDone sets the identity's migration marker.
func (s *Store) MarkMigrationDone(ctx context.Context, identity models.Identity) error {
	return s.markers.Set(ctx, string(identity))
}

// PurgeGuest deletes the guest-namespaced contacts and profile. Called after
// a confirmed migration so a future anonymous session on this device cannot
// be merged into the previous user's account.
func (s *Store) PurgeGuest(ctx context.Context) error {
	if err := s.contacts.Purge(ctx, models.GuestNamespace); err != nil {
		return err
	}
	if err := s.mycards.Purge(ctx, models.GuestNamespace); err != nil {
		return err
	}
	s.notify(models.GuestNamespace, CollectionContacts)
	s.notify(models.GuestNamespace, CollectionMyCard)
	return nil
}

// PurgeGuestMyCard deletes only the guest profile, leaving guest contacts in
// place. The migration clears the profile as soon as its upload is confirmed
// without risking the contacts batch that may still fail.
func (s *Store) PurgeGuestMyCard(ctx context.Context) error {
	if err := s.mycards.Purge(ctx, models.GuestNamespace); err != nil {
		return err
	}
	s.notify(models.GuestNamespace, CollectionMyCard)
	return nil
}

// PurgeLegacy scrubs data stored under namespaces from schema versions that
// were not namespaced by identity. Idempotent; must run once at process
// start regardless of identity state.
func (s *Store) PurgeLegacy(ctx context.Context) error {
	for _, ns := range legacyNamespaces {
		if err := s.contacts.Purge(ctx, ns); err != nil {
			return err
		}
		if err := s.mycards.Purge(ctx, ns); err != nil {
			return err
		}
	}
	return nil
}

// OnChange registers a listener notified after every local write. The
// returned function unregisters it.
func (s *Store) OnChange(fn func(namespace string, collection Collection)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(namespace string, collection Collection) {
	s.mu.Lock()
	fns := make([]func(string, Collection), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(namespace, collection)
	}
}
