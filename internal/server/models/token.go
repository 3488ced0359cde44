package models

import "time"

// TokenType distinguishes the one-time code workflows.
type TokenType string

const (
	TokenEmailVerification TokenType = "EMAIL_VERIFICATION"
	TokenPasswordReset     TokenType = "PASSWORD_RESET"
)

// VerificationToken is a single-use numeric code owned by one account.
type VerificationToken struct {
	AccountID string
	Type      TokenType
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now. The expiry
// instant itself is still valid.
func (t *VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
