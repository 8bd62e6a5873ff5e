// Package wire defines the websocket RPC protocol spoken between the client
// remote-store adapter and the card server: a CBOR-encoded message envelope,
// method names, and the payload shapes. CBOR is used instead of JSON so the
// embedded card images travel as raw bytes.
package wire

import (
	"errors"

	"github.com/fxamacker/cbor/v2"

	"github.com/kymbms/name-card-manage/internal/common"
)

// Collection names a per-identity record collection on the remote store.
type Collection string

const (
	// CollectionContacts holds the contact records, keyed by contact id.
	CollectionContacts Collection = "contacts"
	// CollectionMyCard holds the singular profile record.
	CollectionMyCard Collection = "profile"
)

// MyCardRecordID is the fixed document key of the profile record.
const MyCardRecordID = "mycard"

// RPC method names.
const (
	MethodRegister    = "register"
	MethodLogin       = "login"
	MethodRefresh     = "refresh"
	MethodPing        = "ping"
	MethodPut         = "put"
	MethodPatch       = "patch"
	MethodRemove      = "remove"
	MethodBatchPut    = "batch_put"
	MethodGet         = "get"
	MethodSubscribe   = "subscribe"
	MethodUnsubscribe = "unsubscribe"

	// MethodSnapshot is a server-push notification, not a request: it carries
	// the full current state of a subscribed collection.
	MethodSnapshot = "snapshot"
)

// Message is the single envelope used in both directions. A request has
// ID+Method+Params; a response echoes the request ID with Result or Error;
// a server push has Method set to MethodSnapshot and the subscription id in ID.
type Message struct {
	ID     string          `cbor:"id"`
	Method string          `cbor:"method,omitempty"`
	Params cbor.RawMessage `cbor:"params,omitempty"`
	Result cbor.RawMessage `cbor:"result,omitempty"`
	Error  *Error          `cbor:"error,omitempty"`
}

// Error is the wire form of a failed RPC.
type Error struct {
	Code    int    `cbor:"code"`
	Message string `cbor:"message"`
}

func (e *Error) Error() string { return e.Message }

// Error codes.
const (
	CodeInternal     = 1
	CodeUnauthorized = 2
	CodeNotFound     = 3
	CodeBadRequest   = 4
	CodeTokenExpired = 5
)

// ToError maps a wire error to the shared sentinel errors.
func (e *Error) ToError() error {
	if e == nil {
		return nil
	}
	switch e.Code {
	case CodeUnauthorized:
		return common.ErrUnauthorized
	case CodeNotFound:
		return common.ErrNotFound
	case CodeTokenExpired:
		return common.ErrTokenExpired
	default:
		return errors.New(e.Message)
	}
}

// FromError maps a server-side error to its wire form.
func FromError(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrNotFound):
		return &Error{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, common.ErrTokenExpired):
		return &Error{Code: CodeTokenExpired, Message: err.Error()}
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrInvalidLoginPassword):
		return &Error{Code: CodeUnauthorized, Message: err.Error()}
	case errors.Is(err, common.ErrUnknownCollection),
		errors.Is(err, common.ErrAlreadyExists):
		return &Error{Code: CodeBadRequest, Message: err.Error()}
	default:
		return &Error{Code: CodeInternal, Message: err.Error()}
	}
}

// Credentials is the payload of register/login.
type Credentials struct {
	Username string `cbor:"username"`
	Password string `cbor:"password"`
}

// Session is the result of register/login/refresh.
type Session struct {
	UserID       string `cbor:"user_id"`
	AccessToken  string `cbor:"access_token"`
	RefreshToken string `cbor:"refresh_token"`
}

// RefreshParams carries the refresh token for a token rotation.
type RefreshParams struct {
	RefreshToken string `cbor:"refresh_token"`
}

// Record is one stored document: an opaque payload under a string key.
type Record struct {
	ID      string          `cbor:"id"`
	Payload cbor.RawMessage `cbor:"payload"`
}

// PutParams upserts one record.
type PutParams struct {
	Collection Collection      `cbor:"collection"`
	ID         string          `cbor:"id"`
	Payload    cbor.RawMessage `cbor:"payload"`
}

// PatchParams merges fields into an existing record.
type PatchParams struct {
	Collection Collection      `cbor:"collection"`
	ID         string          `cbor:"id"`
	Fields     cbor.RawMessage `cbor:"fields"`
}

// RemoveParams deletes one record.
type RemoveParams struct {
	Collection Collection `cbor:"collection"`
	ID         string     `cbor:"id"`
}

// BatchPutParams upserts several records in one atomic commit.
type BatchPutParams struct {
	Collection Collection `cbor:"collection"`
	Records    []Record   `cbor:"records"`
}

// GetParams reads one record.
type GetParams struct {
	Collection Collection `cbor:"collection"`
	ID         string     `cbor:"id"`
}

// SubscribeParams attaches a live listener to a collection.
type SubscribeParams struct {
	Collection Collection `cbor:"collection"`
}

// SubscribeResult returns the id that subsequent snapshot pushes carry.
type SubscribeResult struct {
	SubscriptionID string `cbor:"subscription_id"`
}

// UnsubscribeParams detaches a live listener.
type UnsubscribeParams struct {
	SubscriptionID string `cbor:"subscription_id"`
}

// Snapshot is the payload of a MethodSnapshot push: the complete current
// contents of the subscribed collection.
type Snapshot struct {
	Collection Collection `cbor:"collection"`
	Records    []Record   `cbor:"records"`
}

// Marshal encodes v with the package's CBOR encoding mode.
func Marshal(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}
