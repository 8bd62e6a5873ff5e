package ws

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"

	"github.com/kymbms/name-card-manage/internal/common"
	"github.com/kymbms/name-card-manage/internal/logging"
	"github.com/kymbms/name-card-manage/internal/server/models"
	"github.com/kymbms/name-card-manage/internal/server/services"
	"github.com/kymbms/name-card-manage/internal/wire"
)

// sendQueue sizes each connection's outbound buffer. Snapshot pushes that
// find it full are dropped by the hub; RPC replies always queue.
const sendQueue = 64

// UserService is the slice of the user service the transport needs.
type UserService interface {
	Register(ctx context.Context, username, password string) (*services.Session, error)
	Login(ctx context.Context, username, password string) (*services.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.Session, error)
	ValidateAccessToken(token string) (string, error)
}

// CardService is the slice of the card service the transport needs.
type CardService interface {
	Put(ctx context.Context, userID string, collection wire.Collection, cardID string, payload []byte) error
	Patch(ctx context.Context, userID string, collection wire.Collection, cardID string, fields []byte) error
	Remove(ctx context.Context, userID string, collection wire.Collection, cardID string) error
	BatchPut(ctx context.Context, userID string, collection wire.Collection, records []wire.Record) error
	Get(ctx context.Context, userID string, collection wire.Collection, cardID string) (*models.Card, error)
	List(ctx context.Context, userID string, collection wire.Collection) ([]wire.Record, error)
}

// Handler upgrades HTTP requests to websocket connections and speaks the
// wire protocol on them. Authentication is connection-bound: a successful
// register/login/refresh stores the session on the connection, and every
// authenticated RPC re-validates the stored access token, so an expired
// token surfaces as a token-expired error the client can refresh on.
type Handler struct {
	users    UserService
	cards    CardService
	hub      *Hub
	logger   logging.Logger
	upgrader gorilla.Upgrader
}

func NewHandler(users UserService, cards CardService, hub *Hub, logger logging.Logger) *Handler {
	return &Handler{
		users:  users,
		cards:  cards,
		hub:    hub,
		logger: logger.With("module", "ws_handler"),
	}
}

// conn is one client connection. A dedicated writer goroutine drains send,
// keeping replies and snapshot pushes ordered and the websocket writes
// single-threaded.
type conn struct {
	ws         *gorilla.Conn
	send       chan wire.Message
	quit       chan struct{}
	writerDone chan struct{}

	mu      sync.Mutex
	session *services.Session
	subs    map[string]*subscriber
}

// enqueue queues an RPC reply, giving up if the writer has already exited.
func (c *conn) enqueue(msg wire.Message) {
	select {
	case c.send <- msg:
	case <-c.writerDone:
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	c := &conn{
		ws:         ws,
		send:       make(chan wire.Message, sendQueue),
		quit:       make(chan struct{}),
		writerDone: make(chan struct{}),
		subs:       make(map[string]*subscriber),
	}

	go c.writeLoop(c.writerDone, h.logger)

	h.readLoop(r.Context(), c)

	c.mu.Lock()
	for _, sub := range c.subs {
		h.hub.remove(sub)
	}
	c.subs = map[string]*subscriber{}
	c.mu.Unlock()

	// The send channel is never closed: the hub may still hold a reference
	// to a just-removed subscriber and push into it. The writer exits via
	// quit and leftover messages are dropped.
	close(c.quit)
	<-c.writerDone
	_ = ws.Close()
}

func (c *conn) writeLoop(done chan<- struct{}, logger logging.Logger) {
	defer close(done)
	for {
		select {
		case <-c.quit:
			return
		case msg := <-c.send:
			data, err := wire.Marshal(msg)
			if err != nil {
				logger.Error(context.Background(), "error encoding message", "error", err)
				continue
			}
			if err := c.ws.WriteMessage(gorilla.BinaryMessage, data); err != nil {
				logger.Warn(context.Background(), "websocket write failed", "error", err)
				return
			}
		}
	}
}

func (h *Handler) readLoop(ctx context.Context, c *conn) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		var msg wire.Message
		if err := wire.Unmarshal(data, &msg); err != nil {
			h.logger.Warn(ctx, "dropping undecodable message", "error", err)
			continue
		}

		h.dispatch(ctx, c, msg)
	}
}

func (h *Handler) dispatch(ctx context.Context, c *conn, msg wire.Message) {
	result, err := h.handle(ctx, c, msg)
	if err != nil {
		c.enqueue(wire.Message{ID: msg.ID, Error: wire.FromError(err)})
		return
	}

	reply := wire.Message{ID: msg.ID}
	if result != nil {
		data, err := wire.Marshal(result)
		if err != nil {
			c.enqueue(wire.Message{ID: msg.ID, Error: wire.FromError(common.ErrInternal)})
			return
		}
		reply.Result = data
	}
	c.enqueue(reply)

	// A successful subscribe is immediately followed by the collection's
	// current contents, so the client never starts from a blind window.
	if msg.Method == wire.MethodSubscribe {
		if sr, ok := result.(*wire.SubscribeResult); ok {
			h.pushInitialSnapshot(ctx, c, sr.SubscriptionID)
		}
	}
}

func (h *Handler) handle(ctx context.Context, c *conn, msg wire.Message) (any, error) {
	switch msg.Method {
	case wire.MethodRegister:
		return h.handleRegister(ctx, c, msg.Params)
	case wire.MethodLogin:
		return h.handleLogin(ctx, c, msg.Params)
	case wire.MethodRefresh:
		return h.handleRefresh(ctx, c, msg.Params)
	case wire.MethodPing:
		return nil, nil
	case wire.MethodPut:
		return h.handlePut(ctx, c, msg.Params)
	case wire.MethodPatch:
		return h.handlePatch(ctx, c, msg.Params)
	case wire.MethodRemove:
		return h.handleRemove(ctx, c, msg.Params)
	case wire.MethodBatchPut:
		return h.handleBatchPut(ctx, c, msg.Params)
	case wire.MethodGet:
		return h.handleGet(ctx, c, msg.Params)
	case wire.MethodSubscribe:
		return h.handleSubscribe(ctx, c, msg.Params)
	case wire.MethodUnsubscribe:
		return h.handleUnsubscribe(ctx, c, msg.Params)
	default:
		return nil, common.ErrInternal
	}
}

// requireUser validates the connection's stored access token and returns
// the user it belongs to.
func (h *Handler) requireUser(c *conn) (string, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return "", common.ErrUnauthorized
	}
	return h.users.ValidateAccessToken(session.AccessToken)
}

func (c *conn) setSession(s *services.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (h *Handler) handleRegister(ctx context.Context, c *conn, params []byte) (any, error) {
	var creds wire.Credentials
	if err := wire.Unmarshal(params, &creds); err != nil {
		return nil, common.ErrInternal
	}

	session, err := h.users.Register(ctx, creds.Username, creds.Password)
	if err != nil {
		return nil, err
	}

	c.setSession(session)
	h.logger.Info(ctx, "user registered", "user_id", session.UserID)

	return &wire.Session{
		UserID:       session.UserID,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, nil
}

func (h *Handler) handleLogin(ctx context.Context, c *conn, params []byte) (any, error) {
	var creds wire.Credentials
	if err := wire.Unmarshal(params, &creds); err != nil {
		return nil, common.ErrInternal
	}

	session, err := h.users.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		return nil, err
	}

	c.setSession(session)
	h.logger.Info(ctx, "user logged in", "user_id", session.UserID)

	return &wire.Session{
		UserID:       session.UserID,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, nil
}

func (h *Handler) handleRefresh(ctx context.Context, c *conn, params []byte) (any, error) {
	var p wire.RefreshParams
	if err := wire.Unmarshal(params, &p); err != nil {
		return nil, common.ErrInternal
	}

	session, err := h.users.RefreshToken(ctx, p.RefreshToken)
	if err != nil {
		return nil, err
	}

	c.setSession(session)

	return &wire.Session{
		UserID:       session.UserID,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, nil
}

func (h *Handler) handlePut(ctx context.Context, c *conn, params []byte) (any, error) {
	userID, err := h.requireUser(c)
	if err != nil {
		return nil, err
	}

	var p wire.PutParams
	if err := wire.Unmarshal(params, &p); err != nil {
		return nil, common.ErrInternal
	}

	if err := h.cards.Put(ctx, userID, p.Collection, p.ID, p.Payload); err != nil {
		return nil, err
	}

	h.pushSnapshot(ctx, userID, p.Collection)
	return nil, nil
}

func (h *Handler) handlePatch(ctx context.Context, c *conn, params []byte) (any, error) {
	userID, err := h.requireUser(c)
	if err != nil {
		return nil, err
	}

	var p wire.PatchParams
	if err := wire.Unmarshal(params, &p); err != nil {
		return nil, common.ErrInternal
	}

	if err := h.cards.Patch(ctx, userID, p.Collection, p.ID, p.Fields); err != nil {
		return nil, err
	}

	h.pushSnapshot(ctx, userID, p.Collection)
	return nil, nil
}

func (h *Handler) handleRemove(ctx context.Context, c *conn, params []byte) (any, error) {
	userID, err := h.requireUser(c)
	if err != nil {
		return nil, err
	}

	var p wire.RemoveParams
	if err := wire.Unmarshal(params, &p); err != nil {
		return nil, common.ErrInternal
	}

	if err := h.cards.Remove(ctx, userID, p.Collection, p.ID); err != nil {
		return nil, err
	}

	h.pushSnapshot(ctx, userID, p.Collection)
	return nil, nil
}

func (h *Handler) handleBatchPut(ctx context.Context, c *conn, params []byte) (any, error) {
	userID, err := h.requireUser(c)
	if err != nil {
		return nil, err
	}

	var p wire.BatchPutParams
	if err := wire.Unmarshal(params, &p); err != nil {
		return nil, common.ErrInternal
	}

	if err := h.cards.BatchPut(ctx, userID, p.Collection, p.Records); err != nil {
		return nil, err
	}

	h.pushSnapshot(ctx, userID, p.Collection)
	return nil, nil
}

func (h *Handler) handleGet(ctx context.Context, c *conn, params []byte) (any, error) {
	userID, err := h.requireUser(c)
	if err != nil {
		return nil, err
	}

	var p wire.GetParams
	if err := wire.Unmarshal(params, &p); err != nil {
		return nil, common.ErrInternal
	}

	card, err := h.cards.Get(ctx, userID, p.Collection, p.ID)
	if err != nil {
		return nil, err
	}

	return &wire.Record{ID: card.CardID, Payload: card.Payload}, nil
}

func (h *Handler) handleSubscribe(ctx context.Context, c *conn, params []byte) (any, error) {
	userID, err := h.requireUser(c)
	if err != nil {
		return nil, err
	}

	var p wire.SubscribeParams
	if err := wire.Unmarshal(params, &p); err != nil {
		return nil, common.ErrInternal
	}

	// Validates the collection before registering anything.
	if _, err := h.cards.List(ctx, userID, p.Collection); err != nil {
		return nil, err
	}

	sub := &subscriber{
		id:   uuid.NewString(),
		key:  subKey{userID: userID, collection: p.Collection},
		send: c.send,
	}

	c.mu.Lock()
	c.subs[sub.id] = sub
	c.mu.Unlock()
	h.hub.add(sub)

	return &wire.SubscribeResult{SubscriptionID: sub.id}, nil
}

func (h *Handler) handleUnsubscribe(ctx context.Context, c *conn, params []byte) (any, error) {
	if _, err := h.requireUser(c); err != nil {
		return nil, err
	}

	var p wire.UnsubscribeParams
	if err := wire.Unmarshal(params, &p); err != nil {
		return nil, common.ErrInternal
	}

	c.mu.Lock()
	sub, ok := c.subs[p.SubscriptionID]
	delete(c.subs, p.SubscriptionID)
	c.mu.Unlock()

	// Unknown ids are fine: unsubscribing twice is not an error.
	if ok {
		h.hub.remove(sub)
	}
	return nil, nil
}

// pushSnapshot broadcasts the collection's full current contents to every
// subscriber after a mutation.
func (h *Handler) pushSnapshot(ctx context.Context, userID string, collection wire.Collection) {
	records, err := h.cards.List(ctx, userID, collection)
	if err != nil {
		h.logger.Error(ctx, "error building snapshot", "error", err, "collection", collection)
		return
	}
	h.hub.broadcast(userID, collection, records)
}

// pushInitialSnapshot sends the collection contents to one fresh
// subscription, right after its subscribe reply.
func (h *Handler) pushInitialSnapshot(ctx context.Context, c *conn, subID string) {
	c.mu.Lock()
	sub, ok := c.subs[subID]
	c.mu.Unlock()
	if !ok {
		return
	}

	records, err := h.cards.List(ctx, sub.key.userID, sub.key.collection)
	if err != nil {
		h.logger.Error(ctx, "error building snapshot", "error", err, "collection", sub.key.collection)
		return
	}

	params, err := wire.Marshal(wire.Snapshot{Collection: sub.key.collection, Records: records})
	if err != nil {
		h.logger.Error(ctx, "error encoding snapshot", "error", err)
		return
	}

	c.enqueue(wire.Message{ID: sub.id, Method: wire.MethodSnapshot, Params: params})
}
