// Package sync holds the engine that owns the visible card state. It reacts
// to identity changes by publishing the local cache first and attaching the
// remote subscriptions in the background, reconciles every remote snapshot
// with the local cache, and applies user mutations locally before dispatching
// the matching remote write.
package sync

import (
	"context"
	"time"

	gosync "sync"

	"github.com/kymbms/name-card-manage/internal/client/localstore"
	"github.com/kymbms/name-card-manage/internal/client/migration"
	"github.com/kymbms/name-card-manage/internal/client/models"
	"github.com/kymbms/name-card-manage/internal/client/remote"
	"github.com/kymbms/name-card-manage/internal/common"
	"github.com/kymbms/name-card-manage/internal/logging"
	"github.com/kymbms/name-card-manage/internal/wire"
)

// DefaultLoadingTimeout bounds how long the loading flag may stay set when
// the remote never delivers a first snapshot.
const DefaultLoadingTimeout = 5 * time.Second

// State is what the UI consumes: the visible contacts newest first, the
// profile card when one exists, and whether a first remote snapshot is
// still pending.
type State struct {
	Contacts []models.Contact
	MyCard   *models.Contact
	Loading  bool
}

// session is one signed-in remote attachment. Its context is cancelled at
// teardown so no remote write outlives the identity it was issued for, and
// its pointer identity lets late snapshot callbacks be recognized as stale.
type session struct {
	identity      models.Identity
	ctx           context.Context
	cancel        context.CancelFunc
	unsubContacts remote.Unsubscribe
	unsubMyCard   remote.Unsubscribe
}

type Engine struct {
	local   *localstore.Store
	remote  remote.Store
	migrate *migration.Service
	logger  logging.Logger

	mu          gosync.Mutex
	state       State
	identity    models.Identity
	initialized bool
	session     *session
	subscribers map[int]func(State)
	nextSub     int
	closed      bool

	safety *time.Timer
}

// NewEngine builds the engine and arms the one-shot loading safety timer.
// A non-positive loadingTimeout falls back to DefaultLoadingTimeout.
func NewEngine(local *localstore.Store, rs remote.Store, migrate *migration.Service, logger logging.Logger, loadingTimeout time.Duration) *Engine {
	if loadingTimeout <= 0 {
		loadingTimeout = DefaultLoadingTimeout
	}
	e := &Engine{
		local:       local,
		remote:      rs,
		migrate:     migrate,
		logger:      logger,
		state:       State{Loading: true},
		subscribers: map[int]func(State){},
	}
	// armed once per engine lifetime, not per identity switch
	e.safety = time.AfterFunc(loadingTimeout, e.onSafetyTimeout)
	return e
}

func (e *Engine) onSafetyTimeout() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.state.Loading {
		return
	}
	e.logger.Warn(context.Background(), "no remote snapshot yet, clearing loading flag")
	e.state.Loading = false
	e.notifyLocked()
}

// State returns a copy of the current visible state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Identity returns the identity the engine currently serves.
func (e *Engine) Identity() models.Identity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.identity
}

func (e *Engine) stateLocked() State {
	out := State{Loading: e.state.Loading}
	out.Contacts = make([]models.Contact, len(e.state.Contacts))
	copy(out.Contacts, e.state.Contacts)
	if e.state.MyCard != nil {
		card := *e.state.MyCard
		out.MyCard = &card
	}
	return out
}

// Subscribe registers fn to be called synchronously after every state
// transition, starting with the current state. The returned function
// unregisters it.
func (e *Engine) Subscribe(fn func(State)) func() {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subscribers[id] = fn
	current := e.stateLocked()
	e.mu.Unlock()

	fn(current)
	return func() {
		e.mu.Lock()
		delete(e.subscribers, id)
		e.mu.Unlock()
	}
}

func (e *Engine) notifyLocked() {
	snapshot := e.stateLocked()
	for _, fn := range e.subscribers {
		fn(snapshot)
	}
}

// SetIdentity switches the engine to a new identity. The local cache for
// the new namespace is published before the call returns; the remote
// attachment (migration, subscriptions) proceeds in the background.
// Switching away releases the previous identity's subscriptions so a late
// snapshot can never leak its data into the new view.
func (e *Engine) SetIdentity(ctx context.Context, identity models.Identity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if e.initialized && e.identity == identity {
		return
	}
	e.teardownLocked()
	e.identity = identity
	e.initialized = true

	e.state.Contacts = e.local.ReadContacts(ctx, identity, true)
	e.state.MyCard = e.local.ReadMyCard(ctx, identity)
	e.state.Loading = !identity.IsGuest()
	e.notifyLocked()

	if identity.IsGuest() {
		return
	}

	sctx, cancel := context.WithCancel(context.Background())
	sess := &session{identity: identity, ctx: sctx, cancel: cancel}
	e.session = sess
	go e.attach(sess)
}

// Reload republishes the active namespace's local cache, e.g. after an
// import replaced it.
func (e *Engine) Reload(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.state.Contacts = e.local.ReadContacts(ctx, e.identity, true)
	e.state.MyCard = e.local.ReadMyCard(ctx, e.identity)
	e.notifyLocked()
}

// attach runs the remote half of an identity switch: migrate guest data,
// then subscribe to both collections. Errors are logged and the view keeps
// the local cache; the safety timer clears the loading flag.
func (e *Engine) attach(sess *session) {
	if err := e.migrate.Run(sess.ctx, sess.identity, false); err != nil {
		e.logger.Warn(sess.ctx, "guest data migration failed", "identity", string(sess.identity), "error", err)
	}

	unsubContacts, err := e.remote.Subscribe(sess.ctx, sess.identity, wire.CollectionContacts, func(records []models.Contact) {
		e.onContactsSnapshot(sess, records)
	})
	if err != nil {
		e.logger.Warn(sess.ctx, "contacts subscription failed", "error", err)
	}
	unsubMyCard, err := e.remote.Subscribe(sess.ctx, sess.identity, wire.CollectionMyCard, func(records []models.Contact) {
		e.onMyCardSnapshot(sess, records)
	})
	if err != nil {
		e.logger.Warn(sess.ctx, "my-card subscription failed", "error", err)
	}

	e.mu.Lock()
	if e.session != sess {
		// the identity changed while we were attaching
		e.mu.Unlock()
		if unsubContacts != nil {
			unsubContacts()
		}
		if unsubMyCard != nil {
			unsubMyCard()
		}
		return
	}
	sess.unsubContacts = unsubContacts
	sess.unsubMyCard = unsubMyCard
	e.mu.Unlock()
}

func (e *Engine) onContactsSnapshot(sess *session, records []models.Contact) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != sess {
		// late delivery from a released subscription
		return
	}
	localSet := e.local.ReadContacts(sess.ctx, sess.identity, false)
	merged := mergeContacts(records, localSet)
	if err := e.local.WriteContacts(sess.ctx, sess.identity, merged); err != nil {
		e.logger.Warn(sess.ctx, "failed to persist merged contacts", "error", err)
	}
	e.state.Contacts = merged
	e.state.Loading = false
	e.notifyLocked()
}

func (e *Engine) onMyCardSnapshot(sess *session, records []models.Contact) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != sess {
		return
	}
	if len(records) > 0 {
		// remote value wins when one exists
		card := records[0]
		card.ID = models.MyCardID
		if err := e.local.WriteMyCard(sess.ctx, sess.identity, card); err != nil {
			e.logger.Warn(sess.ctx, "failed to persist my-card", "error", err)
		}
		e.state.MyCard = &card
	}
	e.state.Loading = false
	e.notifyLocked()
}

// AddContact assigns a fresh id (and an avatar color when the draft has
// none), prepends the record to the visible state, persists the result, and
// dispatches the remote write when signed in. The stored record is returned.
func (e *Engine) AddContact(ctx context.Context, draft models.Contact) (models.Contact, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return models.Contact{}, common.ErrClosed
	}
	draft.ID = models.NewContactID()
	if draft.Color == "" {
		draft.Color = models.RandomColor()
	}

	// the starter seed stays display-only: the new record is persisted next
	// to what was explicitly saved before, while the visible list keeps
	// whatever was on screen
	persisted := e.local.ReadContacts(ctx, e.identity, false)
	toPersist := make([]models.Contact, 0, len(persisted)+1)
	toPersist = append(toPersist, draft)
	toPersist = append(toPersist, persisted...)
	if err := e.local.WriteContacts(ctx, e.identity, toPersist); err != nil {
		return models.Contact{}, err
	}

	visible := make([]models.Contact, 0, len(e.state.Contacts)+1)
	visible = append(visible, draft)
	visible = append(visible, e.state.Contacts...)
	e.state.Contacts = visible
	e.notifyLocked()

	record := draft
	e.remoteAsync("put contact", func(ctx context.Context, identity models.Identity) error {
		return e.remote.Put(ctx, identity, wire.CollectionContacts, record.RecordID(), record)
	})
	return draft, nil
}

// UpdateContact shallow-merges the patch over the existing record. Fields
// the patch does not mention are preserved. Returns common.ErrNotFound when
// no visible record has the id.
func (e *Engine) UpdateContact(ctx context.Context, id int64, patch models.ContactPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return common.ErrClosed
	}
	return e.updateContactLocked(ctx, id, patch)
}

func (e *Engine) updateContactLocked(ctx context.Context, id int64, patch models.ContactPatch) error {
	idx := -1
	for i, c := range e.state.Contacts {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return common.ErrNotFound
	}

	updated := e.state.Contacts[idx]
	patch.Apply(&updated)

	// editing a seed record stays visible-only: the persisted set never
	// picks up the starter seed
	persisted := e.local.ReadContacts(ctx, e.identity, false)
	for i := range persisted {
		if persisted[i].ID != id {
			continue
		}
		persisted[i] = updated
		if err := e.local.WriteContacts(ctx, e.identity, persisted); err != nil {
			return err
		}
		break
	}

	contacts := make([]models.Contact, len(e.state.Contacts))
	copy(contacts, e.state.Contacts)
	contacts[idx] = updated
	e.state.Contacts = contacts
	e.notifyLocked()

	fields := patch.Fields()
	e.remoteAsync("patch contact", func(ctx context.Context, identity models.Identity) error {
		return e.remote.Patch(ctx, identity, wire.CollectionContacts, updated.RecordID(), fields)
	})
	return nil
}

// DeleteContact removes the record from the visible state and the local
// cache. Deleting an absent id is a no-op.
func (e *Engine) DeleteContact(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return common.ErrClosed
	}

	contacts := make([]models.Contact, 0, len(e.state.Contacts))
	found := false
	for _, c := range e.state.Contacts {
		if c.ID == id {
			found = true
			continue
		}
		contacts = append(contacts, c)
	}
	if !found {
		return nil
	}

	// deleting a seed record only hides it; the persisted set is rewritten
	// solely when it actually held the id
	persisted := e.local.ReadContacts(ctx, e.identity, false)
	kept := make([]models.Contact, 0, len(persisted))
	inPersisted := false
	for _, c := range persisted {
		if c.ID == id {
			inPersisted = true
			continue
		}
		kept = append(kept, c)
	}
	if inPersisted {
		if err := e.local.WriteContacts(ctx, e.identity, kept); err != nil {
			return err
		}
	}

	e.state.Contacts = contacts
	e.notifyLocked()

	recordID := models.Contact{ID: id}.RecordID()
	e.remoteAsync("remove contact", func(ctx context.Context, identity models.Identity) error {
		return e.remote.Remove(ctx, identity, wire.CollectionContacts, recordID)
	})
	return nil
}

// ToggleFavorite flips the record's favorite flag. The read and the write
// happen under the engine lock, so two racing toggles can never both observe
// the same starting value.
func (e *Engine) ToggleFavorite(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return common.ErrClosed
	}
	for _, c := range e.state.Contacts {
		if c.ID == id {
			return e.updateContactLocked(ctx, id, models.FavoritePatch(!c.IsFavorite))
		}
	}
	return common.ErrNotFound
}

// UpdateMyCard replaces the profile card, persists it, and dispatches the
// remote write when signed in.
func (e *Engine) UpdateMyCard(ctx context.Context, card models.Contact) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return common.ErrClosed
	}
	card.ID = models.MyCardID
	if err := e.local.WriteMyCard(ctx, e.identity, card); err != nil {
		return err
	}
	e.state.MyCard = &card
	e.notifyLocked()

	e.remoteAsync("put my-card", func(ctx context.Context, identity models.Identity) error {
		return e.remote.Put(ctx, identity, wire.CollectionMyCard, wire.MyCardRecordID, card)
	})
	return nil
}

// remoteAsync dispatches the remote leg of a mutation. Must run with the
// engine lock held. The write rides the session context, so it is cancelled
// if the identity detaches before it completes; failures are logged and the
// next snapshot reconciles.
func (e *Engine) remoteAsync(op string, fn func(ctx context.Context, identity models.Identity) error) {
	sess := e.session
	if sess == nil {
		return
	}
	go func() {
		if err := fn(sess.ctx, sess.identity); err != nil {
			e.logger.Warn(sess.ctx, "remote write failed", "op", op, "error", err)
		}
	}()
}

// teardownLocked releases the current session. After it returns no snapshot
// callback for that session can mutate state and no new remote write can be
// issued under it.
func (e *Engine) teardownLocked() {
	sess := e.session
	if sess == nil {
		return
	}
	e.session = nil
	sess.cancel()
	if sess.unsubContacts != nil {
		sess.unsubContacts()
	}
	if sess.unsubMyCard != nil {
		sess.unsubMyCard()
	}
}

// Close tears down the session and stops the safety timer.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.teardownLocked()
	e.safety.Stop()
	return nil
}
