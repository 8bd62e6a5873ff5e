package models

import "time"

// Card is one stored document: a CBOR payload keyed by (user, collection,
// card id). The server never interprets the payload beyond merge patches.
type Card struct {
	UserID     string
	Collection string
	CardID     string
	Payload    []byte
	UpdatedAt  time.Time
}
