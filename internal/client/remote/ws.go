package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"

	"github.com/kymbms/name-card-manage/internal/client/models"
	"github.com/kymbms/name-card-manage/internal/common"
	"github.com/kymbms/name-card-manage/internal/logging"
	"github.com/kymbms/name-card-manage/internal/wire"
)

// DefaultTimeout bounds how long an RPC waits for its response after the
// request was written.
const DefaultTimeout = 10 * time.Second

// snapshotQueue bounds the per-subscription delivery channel. Deliveries
// stay ordered because a single goroutine drains each channel.
const snapshotQueue = 64

// WSStore implements Store over a single websocket connection.
type WSStore struct {
	url     string
	logger  logging.Logger
	timeout time.Duration

	writeMu sync.Mutex
	conn    *gorilla.Conn

	mu           sync.Mutex
	pending      map[string]chan wire.Message
	subs         map[string]*subscription
	earlySnaps   map[string]wire.Snapshot
	identity     models.Identity
	refreshToken string
	closed       bool

	done chan struct{}
}

type subscription struct {
	ch   chan wire.Snapshot
	quit chan struct{}
}

var _ Store = (*WSStore)(nil)

// NewWSStore returns an unconnected store for the given websocket endpoint
// (e.g. "ws://127.0.0.1:8080/sync").
func NewWSStore(url string, logger logging.Logger) *WSStore {
	return &WSStore{
		url:        url,
		logger:     logger,
		timeout:    DefaultTimeout,
		pending:    map[string]chan wire.Message{},
		subs:       map[string]*subscription{},
		earlySnaps: map[string]wire.Snapshot{},
		done:       make(chan struct{}),
	}
}

// SetTimeout overrides the per-RPC deadline. Call before Connect.
func (s *WSStore) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Connect dials the server and starts the read loop.
func (s *WSStore) Connect(ctx context.Context) error {
	conn, _, err := gorilla.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", s.url, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	go s.readLoop(conn)
	return nil
}

func (s *WSStore) readLoop(conn *gorilla.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.failAll(err)
			return
		}
		var msg wire.Message
		if err := wire.Unmarshal(data, &msg); err != nil {
			s.logger.Warn(context.Background(), "dropping undecodable message", "error", err)
			continue
		}
		if msg.Method == wire.MethodSnapshot {
			s.routeSnapshot(msg)
			continue
		}
		s.mu.Lock()
		ch, ok := s.pending[msg.ID]
		if ok {
			delete(s.pending, msg.ID)
		}
		s.mu.Unlock()
		if ok {
			ch <- msg
		}
	}
}

func (s *WSStore) routeSnapshot(msg wire.Message) {
	var snap wire.Snapshot
	if err := wire.Unmarshal(msg.Params, &snap); err != nil {
		s.logger.Warn(context.Background(), "dropping undecodable snapshot", "error", err)
		return
	}
	s.mu.Lock()
	sub, ok := s.subs[msg.ID]
	if !ok {
		// The subscribe reply and the first push can arrive back to back,
		// before Subscribe has registered the id. Keep the latest snapshot
		// so Subscribe can replay it; anything truly stale is overwritten
		// or cleared on release.
		s.earlySnaps[msg.ID] = snap
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	select {
	case sub.ch <- snap:
	case <-sub.quit:
	}
}

// failAll wakes every pending RPC after the connection died.
func (s *WSStore) failAll(err error) {
	s.mu.Lock()
	pending := s.pending
	s.pending = map[string]chan wire.Message{}
	s.earlySnaps = map[string]wire.Snapshot{}
	s.mu.Unlock()
	for id, ch := range pending {
		ch <- wire.Message{ID: id, Error: &wire.Error{Code: wire.CodeInternal, Message: common.ErrClosed.Error()}}
	}
	s.logger.Warn(context.Background(), "connection read loop ended", "error", err)
}

func (s *WSStore) call(ctx context.Context, method string, params, result any) error {
	err := s.callOnce(ctx, method, params, result)
	if !errors.Is(err, common.ErrTokenExpired) {
		return err
	}
	// access token expired mid-session: rotate once and retry
	if rerr := s.rotateTokens(ctx); rerr != nil {
		return err
	}
	return s.callOnce(ctx, method, params, result)
}

func (s *WSStore) callOnce(ctx context.Context, method string, params, result any) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return common.ErrClosed
	}
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return common.ErrNotConnected
	}

	raw, err := wire.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	msg := wire.Message{ID: uuid.NewString(), Method: method, Params: raw}
	data, err := wire.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	respCh := make(chan wire.Message, 1)
	s.mu.Lock()
	s.pending[msg.ID] = respCh
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, msg.ID)
		s.mu.Unlock()
	}()

	s.writeMu.Lock()
	err = conn.WriteMessage(gorilla.BinaryMessage, data)
	s.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", method, err)
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case resp := <-respCh:
		if resp.Error != nil {
			return resp.Error.ToError()
		}
		if result != nil && resp.Result != nil {
			if err := wire.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("failed to decode %s result: %w", method, err)
			}
		}
		return nil
	case <-timer.C:
		return common.ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return common.ErrClosed
	}
}

func (s *WSStore) rotateTokens(ctx context.Context) error {
	s.mu.Lock()
	refresh := s.refreshToken
	s.mu.Unlock()
	if refresh == "" {
		return common.ErrUnauthorized
	}
	var sess wire.Session
	if err := s.callOnce(ctx, wire.MethodRefresh, wire.RefreshParams{RefreshToken: refresh}, &sess); err != nil {
		return err
	}
	s.setSession(sess)
	return nil
}

func (s *WSStore) setSession(sess wire.Session) {
	s.mu.Lock()
	// the server binds the access token to the connection, so only the
	// identity and the refresh token matter on this side
	s.identity = models.Identity(sess.UserID)
	s.refreshToken = sess.RefreshToken
	s.mu.Unlock()
}

// guard verifies the caller's identity matches the authenticated session,
// so a stale caller can never write into another account.
func (s *WSStore) guard(identity models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity.IsGuest() {
		return common.ErrUnauthorized
	}
	if identity != s.identity {
		return common.ErrIdentityMismatch
	}
	return nil
}

func (s *WSStore) Register(ctx context.Context, username, password string) (models.Identity, error) {
	var sess wire.Session
	if err := s.call(ctx, wire.MethodRegister, wire.Credentials{Username: username, Password: password}, &sess); err != nil {
		return "", err
	}
	s.setSession(sess)
	return models.Identity(sess.UserID), nil
}

func (s *WSStore) Login(ctx context.Context, username, password string) (models.Identity, error) {
	var sess wire.Session
	if err := s.call(ctx, wire.MethodLogin, wire.Credentials{Username: username, Password: password}, &sess); err != nil {
		return "", err
	}
	s.setSession(sess)
	return models.Identity(sess.UserID), nil
}

func (s *WSStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.identity = ""
	s.refreshToken = ""
	s.mu.Unlock()
	return nil
}

func (s *WSStore) Ping(ctx context.Context) error {
	return s.call(ctx, wire.MethodPing, struct{}{}, nil)
}

func (s *WSStore) Subscribe(ctx context.Context, identity models.Identity, collection wire.Collection, fn SnapshotFunc) (Unsubscribe, error) {
	if err := s.guard(identity); err != nil {
		return nil, err
	}
	var res wire.SubscribeResult
	if err := s.call(ctx, wire.MethodSubscribe, wire.SubscribeParams{Collection: collection}, &res); err != nil {
		return nil, err
	}

	sub := &subscription{
		ch:   make(chan wire.Snapshot, snapshotQueue),
		quit: make(chan struct{}),
	}
	s.mu.Lock()
	s.subs[res.SubscriptionID] = sub
	if snap, ok := s.earlySnaps[res.SubscriptionID]; ok {
		delete(s.earlySnaps, res.SubscriptionID)
		sub.ch <- snap
	}
	s.mu.Unlock()

	go func() {
		for {
			select {
			case <-sub.quit:
				return
			case snap := <-sub.ch:
				// a snapshot buffered before quit closed may still be
				// drawn; drop it rather than deliver after cancellation
				select {
				case <-sub.quit:
					return
				default:
				}
				fn(decodeRecords(snap.Records, s.logger))
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, res.SubscriptionID)
			delete(s.earlySnaps, res.SubscriptionID)
			s.mu.Unlock()
			close(sub.quit)
			// best effort; the server also drops subscriptions on disconnect
			cctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			if err := s.call(cctx, wire.MethodUnsubscribe, wire.UnsubscribeParams{SubscriptionID: res.SubscriptionID}, nil); err != nil {
				s.logger.Warn(cctx, "unsubscribe failed", "subscription", res.SubscriptionID, "error", err)
			}
		})
	}
	return unsubscribe, nil
}

func (s *WSStore) Put(ctx context.Context, identity models.Identity, collection wire.Collection, recordID string, record models.Contact) error {
	if err := s.guard(identity); err != nil {
		return err
	}
	payload, err := wire.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return s.call(ctx, wire.MethodPut, wire.PutParams{Collection: collection, ID: recordID, Payload: payload}, nil)
}

func (s *WSStore) Patch(ctx context.Context, identity models.Identity, collection wire.Collection, recordID string, fields map[string]any) error {
	if err := s.guard(identity); err != nil {
		return err
	}
	raw, err := wire.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}
	return s.call(ctx, wire.MethodPatch, wire.PatchParams{Collection: collection, ID: recordID, Fields: raw}, nil)
}

func (s *WSStore) Remove(ctx context.Context, identity models.Identity, collection wire.Collection, recordID string) error {
	if err := s.guard(identity); err != nil {
		return err
	}
	return s.call(ctx, wire.MethodRemove, wire.RemoveParams{Collection: collection, ID: recordID}, nil)
}

func (s *WSStore) BatchPut(ctx context.Context, identity models.Identity, collection wire.Collection, records []models.Contact) error {
	if err := s.guard(identity); err != nil {
		return err
	}
	batch := make([]wire.Record, 0, len(records))
	for _, record := range records {
		payload, err := wire.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %w", record.ID, err)
		}
		batch = append(batch, wire.Record{ID: record.RecordID(), Payload: payload})
	}
	return s.call(ctx, wire.MethodBatchPut, wire.BatchPutParams{Collection: collection, Records: batch}, nil)
}

func (s *WSStore) GetOnce(ctx context.Context, identity models.Identity, collection wire.Collection, recordID string) (*models.Contact, error) {
	if err := s.guard(identity); err != nil {
		return nil, err
	}
	var rec wire.Record
	if err := s.call(ctx, wire.MethodGet, wire.GetParams{Collection: collection, ID: recordID}, &rec); err != nil {
		return nil, err
	}
	var c models.Contact
	if err := wire.Unmarshal(rec.Payload, &c); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &c, nil
}

// Close releases all subscriptions and closes the connection. No callback
// runs after Close returns.
func (s *WSStore) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	subs := s.subs
	s.subs = map[string]*subscription{}
	s.mu.Unlock()

	close(s.done)
	for _, sub := range subs {
		close(sub.quit)
	}
	if conn == nil {
		return nil
	}

	s.writeMu.Lock()
	err := conn.WriteControl(gorilla.CloseMessage,
		gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""), time.Now().Add(time.Second))
	s.writeMu.Unlock()
	if err != nil {
		s.logger.Warn(ctx, "failed to write close message", "error", err)
	}
	return conn.Close()
}

func decodeRecords(records []wire.Record, logger logging.Logger) []models.Contact {
	result := make([]models.Contact, 0, len(records))
	for _, rec := range records {
		var c models.Contact
		if err := wire.Unmarshal(rec.Payload, &c); err != nil {
			logger.Warn(context.Background(), "skipping undecodable record", "id", rec.ID, "error", err)
			continue
		}
		result = append(result, c)
	}
	return result
}
