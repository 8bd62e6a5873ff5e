// Package models defines the client-side domain types: contacts, the user's
// own card, and identities.
package models

import (
	"strconv"
	"sync"
	"time"
)

// Orientation describes how a scanned card image should be displayed.
// It is advisory only; the sync core never inspects it.
type Orientation string

const (
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
)

// MyCardID is the fixed record id of the singular "my card" profile.
const MyCardID int64 = 0

// Contact is a single business-card record.
//
// ID doubles as the identity of the record and its recency ordering key:
// it is a millisecond timestamp assigned once at creation, and the visible
// contact list is always sorted by ID descending. Image payloads are opaque
// bytes (the UI stores compressed captures there).
type Contact struct {
	ID          int64       `json:"id" cbor:"id"`
	Name        string      `json:"name" cbor:"name"`
	Company     string      `json:"company,omitempty" cbor:"company,omitempty"`
	Role        string      `json:"role,omitempty" cbor:"role,omitempty"`
	Phone       string      `json:"phone,omitempty" cbor:"phone,omitempty"`
	Fax         string      `json:"fax,omitempty" cbor:"fax,omitempty"`
	Email       string      `json:"email,omitempty" cbor:"email,omitempty"`
	Address     string      `json:"address,omitempty" cbor:"address,omitempty"`
	Website     string      `json:"website,omitempty" cbor:"website,omitempty"`
	Memo        string      `json:"memo,omitempty" cbor:"memo,omitempty"`
	Tags        []string    `json:"tags,omitempty" cbor:"tags,omitempty"`
	IsFavorite  bool        `json:"isFavorite" cbor:"isFavorite"`
	Color       string      `json:"color,omitempty" cbor:"color,omitempty"`
	Photo       []byte      `json:"photo,omitempty" cbor:"photo,omitempty"`
	CardFront   []byte      `json:"cardFront,omitempty" cbor:"cardFront,omitempty"`
	CardBack    []byte      `json:"cardBack,omitempty" cbor:"cardBack,omitempty"`
	Orientation Orientation `json:"orientation,omitempty" cbor:"orientation,omitempty"`
}

// RecordID returns the wire/storage key of the contact.
func (c Contact) RecordID() string {
	return strconv.FormatInt(c.ID, 10)
}

var (
	idMu   sync.Mutex
	lastID int64
)

// NewContactID allocates a fresh contact id. Ids are millisecond timestamps
// bumped by one on collision, so they stay unique and roughly time-ordered
// within one process.
func NewContactID() int64 {
	idMu.Lock()
	defer idMu.Unlock()
	id := time.Now().UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return id
}
