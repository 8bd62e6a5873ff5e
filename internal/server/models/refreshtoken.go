package models

import "time"

// RefreshToken is a single-use token that lets a client mint a new access
// token without re-entering credentials. It is deleted and replaced on use.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

// ExpiredAt reports whether the token is no longer usable at the given time.
func (t *RefreshToken) ExpiredAt(now time.Time) bool {
	return t.Expires.Before(now)
}
