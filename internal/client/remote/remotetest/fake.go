// Package remotetest provides an in-memory remote.Store for tests.
package remotetest

import (
	"context"
	"sort"
	"sync"

	"github.com/kymbms/name-card-manage/internal/client/models"
	"github.com/kymbms/name-card-manage/internal/client/remote"
	"github.com/kymbms/name-card-manage/internal/common"
	"github.com/kymbms/name-card-manage/internal/wire"
)

// Fake is an in-memory remote.Store. Records live in per-identity
// collections and every mutation pushes a fresh snapshot to the matching
// subscribers, synchronously, so tests observe deliveries without sleeping.
type Fake struct {
	mu       sync.Mutex
	identity models.Identity
	loggedIn bool
	records  map[models.Identity]map[wire.Collection]map[string]models.Contact
	subs     map[int]*fakeSub
	nextSub  int

	// error injection: when set, the matching call returns the error
	FailBatchPut error
	FailPut      error
	FailGetOnce  error

	// call counters
	BatchPutCalls int
	PutCalls      int
}

type fakeSub struct {
	identity   models.Identity
	collection wire.Collection
	fn         remote.SnapshotFunc
}

var _ remote.Store = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{
		records: map[models.Identity]map[wire.Collection]map[string]models.Contact{},
		subs:    map[int]*fakeSub{},
	}
}

// SetSession authorizes calls under the given identity without a login round.
func (f *Fake) SetSession(identity models.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identity = identity
	f.loggedIn = true
}

// Records returns a copy of one collection's current contents.
func (f *Fake) Records(identity models.Identity, collection wire.Collection) map[string]models.Contact {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]models.Contact{}
	for id, c := range f.records[identity][collection] {
		out[id] = c
	}
	return out
}

// Seed stores contact records directly, bypassing the identity guard.
func (f *Fake) Seed(identity models.Identity, collection wire.Collection, records ...models.Contact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range records {
		f.collection(identity, collection)[c.RecordID()] = c
	}
}

// SeedRecord stores one record under an explicit key, bypassing the
// identity guard. Needed for the profile collection's fixed key.
func (f *Fake) SeedRecord(identity models.Identity, collection wire.Collection, recordID string, record models.Contact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collection(identity, collection)[recordID] = record
}

func (f *Fake) collection(identity models.Identity, collection wire.Collection) map[string]models.Contact {
	byColl, ok := f.records[identity]
	if !ok {
		byColl = map[wire.Collection]map[string]models.Contact{}
		f.records[identity] = byColl
	}
	byID, ok := byColl[collection]
	if !ok {
		byID = map[string]models.Contact{}
		byColl[collection] = byID
	}
	return byID
}

func (f *Fake) guard(identity models.Identity) error {
	if !f.loggedIn {
		return common.ErrUnauthorized
	}
	if identity != f.identity {
		return common.ErrIdentityMismatch
	}
	return nil
}

func (f *Fake) snapshot(identity models.Identity, collection wire.Collection) []models.Contact {
	byID := f.records[identity][collection]
	out := make([]models.Contact, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// broadcast must run with f.mu held; it snapshots the subscriber list and
// releases the lock around the callbacks.
func (f *Fake) broadcast(identity models.Identity, collection wire.Collection) {
	type delivery struct {
		fn      remote.SnapshotFunc
		records []models.Contact
	}
	var deliveries []delivery
	for _, sub := range f.subs {
		if sub.identity == identity && sub.collection == collection {
			deliveries = append(deliveries, delivery{sub.fn, f.snapshot(identity, collection)})
		}
	}
	f.mu.Unlock()
	defer f.mu.Lock()
	for _, d := range deliveries {
		d.fn(d.records)
	}
}

func (f *Fake) Register(ctx context.Context, username, password string) (models.Identity, error) {
	identity := models.Identity("user-" + username)
	f.SetSession(identity)
	return identity, nil
}

func (f *Fake) Login(ctx context.Context, username, password string) (models.Identity, error) {
	return f.Register(ctx, username, password)
}

func (f *Fake) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identity = ""
	f.loggedIn = false
	return nil
}

func (f *Fake) Ping(ctx context.Context) error { return nil }

func (f *Fake) Subscribe(ctx context.Context, identity models.Identity, collection wire.Collection, fn remote.SnapshotFunc) (remote.Unsubscribe, error) {
	f.mu.Lock()
	if err := f.guard(identity); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	id := f.nextSub
	f.nextSub++
	f.subs[id] = &fakeSub{identity: identity, collection: collection, fn: fn}

	// initial snapshot, like the live server
	records := f.snapshot(identity, collection)
	f.mu.Unlock()
	fn(records)

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}, nil
}

func (f *Fake) Put(ctx context.Context, identity models.Identity, collection wire.Collection, recordID string, record models.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PutCalls++
	if err := f.guard(identity); err != nil {
		return err
	}
	if f.FailPut != nil {
		return f.FailPut
	}
	f.collection(identity, collection)[recordID] = record
	f.broadcast(identity, collection)
	return nil
}

func (f *Fake) Patch(ctx context.Context, identity models.Identity, collection wire.Collection, recordID string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(identity); err != nil {
		return err
	}
	record, ok := f.collection(identity, collection)[recordID]
	if !ok {
		return common.ErrNotFound
	}
	if v, ok := fields["isFavorite"].(bool); ok {
		record.IsFavorite = v
	}
	if v, ok := fields["name"].(string); ok {
		record.Name = v
	}
	if v, ok := fields["memo"].(string); ok {
		record.Memo = v
	}
	f.collection(identity, collection)[recordID] = record
	f.broadcast(identity, collection)
	return nil
}

func (f *Fake) Remove(ctx context.Context, identity models.Identity, collection wire.Collection, recordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(identity); err != nil {
		return err
	}
	delete(f.collection(identity, collection), recordID)
	f.broadcast(identity, collection)
	return nil
}

func (f *Fake) BatchPut(ctx context.Context, identity models.Identity, collection wire.Collection, records []models.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BatchPutCalls++
	if err := f.guard(identity); err != nil {
		return err
	}
	if f.FailBatchPut != nil {
		return f.FailBatchPut
	}
	byID := f.collection(identity, collection)
	for _, c := range records {
		byID[c.RecordID()] = c
	}
	f.broadcast(identity, collection)
	return nil
}

func (f *Fake) GetOnce(ctx context.Context, identity models.Identity, collection wire.Collection, recordID string) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(identity); err != nil {
		return nil, err
	}
	if f.FailGetOnce != nil {
		return nil, f.FailGetOnce
	}
	record, ok := f.collection(identity, collection)[recordID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &record, nil
}

func (f *Fake) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = map[int]*fakeSub{}
	f.loggedIn = false
	return nil
}
