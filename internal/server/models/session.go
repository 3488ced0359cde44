package models

import "time"

// Session backs one refresh token: one authenticated device or login.
type Session struct {
	ID        string
	AccountID string
	Value     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// AuthResult is returned by every successful authentication event.
type AuthResult struct {
	AccountID string
	// AccessToken is the signed short-lived token; it expires at ExpiresAt.
	AccessToken string
	ExpiresAt   time.Time
	// RefreshToken is the new session's value; it expires at RefreshExpiresAt.
	RefreshToken     string
	RefreshExpiresAt time.Time
}
