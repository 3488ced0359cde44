package auth

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// PasswordComparer checks a raw password against a stored hash.
type PasswordComparer interface {
	Compare(hash, raw string) error
}

// Authenticator checks the account status gates and then the password.
type Authenticator struct {
	hasher PasswordComparer
}

func NewAuthenticator(hasher PasswordComparer) *Authenticator {
	return &Authenticator{hasher: hasher}
}

// Authenticate returns nil when account may log in with rawPassword.
func (a *Authenticator) Authenticate(ctx context.Context, account *models.Account, rawPassword string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gates := models.StatusGates(account.Status)
	switch {
	case !gates.NonLocked:
		return common.ErrAccountLocked
	case !gates.NonExpired:
		return common.ErrAccountExpired
	case !gates.CredentialsNonExpired:
		return common.ErrCredentialsExpired
	}

	return a.hasher.Compare(account.PasswordHash, rawPassword)
}
