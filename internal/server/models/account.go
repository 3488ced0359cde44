// Package models defines server-side data models persisted in the database.
package models

import "time"

// AccountStatus is the administrative state of an account.
type AccountStatus string

const (
	StatusActive             AccountStatus = "ACTIVE"
	StatusLocked             AccountStatus = "LOCKED"
	StatusExpired            AccountStatus = "EXPIRED"
	StatusCredentialsExpired AccountStatus = "CREDENTIALS_EXPIRED"
)

// Valid reports whether s is one of the known statuses.
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusLocked, StatusExpired, StatusCredentialsExpired:
		return true
	}
	return false
}

// Gates are the three authentication predicates derived from an AccountStatus.
type Gates struct {
	NonLocked             bool
	NonExpired            bool
	CredentialsNonExpired bool
}

// StatusGates maps status to its authentication gates. Each gate is closed
// by exactly one status; unknown statuses close every gate.
func StatusGates(s AccountStatus) Gates {
	if !s.Valid() {
		return Gates{}
	}
	return Gates{
		NonLocked:             s != StatusLocked,
		NonExpired:            s != StatusExpired,
		CredentialsNonExpired: s != StatusCredentialsExpired,
	}
}

// DefaultRole is granted to every newly registered account.
const DefaultRole = "USER"

// Role is a named authority shared between accounts.
type Role struct {
	ID        string
	Authority string
}

// Account is the identity record. Username is stored lowercase.
type Account struct {
	ID              string
	FirstName       string
	LastName        string
	Username        string
	Email           string
	PasswordHash    string
	EmailVerified   bool
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	Status          AccountStatus
	Roles           []Role

	// Pending one-time codes, at most one per type.
	EmailVerificationToken *VerificationToken
	PasswordResetToken     *VerificationToken
}

// Authorities returns the names of the account's roles.
func (a *Account) Authorities() []string {
	names := make([]string, 0, len(a.Roles))
	for _, r := range a.Roles {
		names = append(names, r.Authority)
	}
	return names
}

// PendingToken returns the pending token of type t, or nil.
func (a *Account) PendingToken(t TokenType) *VerificationToken {
	switch t {
	case TokenEmailVerification:
		return a.EmailVerificationToken
	case TokenPasswordReset:
		return a.PasswordResetToken
	}
	return nil
}

// SetPendingToken replaces the pending slot for tok.Type.
func (a *Account) SetPendingToken(tok *VerificationToken) {
	switch tok.Type {
	case TokenEmailVerification:
		a.EmailVerificationToken = tok
	case TokenPasswordReset:
		a.PasswordResetToken = tok
	}
}

// ClearPendingToken empties the pending slot for t.
func (a *Account) ClearPendingToken(t TokenType) {
	switch t {
	case TokenEmailVerification:
		a.EmailVerificationToken = nil
	case TokenPasswordReset:
		a.PasswordResetToken = nil
	}
}

// Clone returns a deep copy of a.
func (a *Account) Clone() *Account {
	c := *a
	if a.EmailVerifiedAt != nil {
		t := *a.EmailVerifiedAt
		c.EmailVerifiedAt = &t
	}
	if a.Roles != nil {
		c.Roles = append([]Role(nil), a.Roles...)
	}
	if a.EmailVerificationToken != nil {
		t := *a.EmailVerificationToken
		c.EmailVerificationToken = &t
	}
	if a.PasswordResetToken != nil {
		t := *a.PasswordResetToken
		c.PasswordResetToken = &t
	}
	return &c
}

// AccountView is the externally visible projection of an Account.
type AccountView struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"firstname"`
	LastName      string     `json:"lastname"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	Status        string     `json:"status"`
	Roles         []string   `json:"roles"`
}

// View projects a onto AccountView; password hash and codes are never included.
func (a *Account) View() *AccountView {
	return &AccountView{
		ID:            a.ID,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Username:      a.Username,
		Email:         a.Email,
		EmailVerified: a.EmailVerified,
		VerifiedAt:    a.EmailVerifiedAt,
		CreatedAt:     a.CreatedAt,
		Status:        string(a.Status),
		Roles:         a.Authorities(),
	}
}
