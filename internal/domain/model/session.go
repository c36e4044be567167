package model

import "time"

// Session binds an opaque random token to a user until ExpiresAt. Expired
// sessions are treated as absent and purged lazily on first access.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session has passed its expiry at the given instant.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
