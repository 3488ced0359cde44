package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Authenticator decides whether account may log in with rawPassword.
type Authenticator interface {
	Authenticate(ctx context.Context, account *models.Account, rawPassword string) error
}

// TokenMinter signs access tokens.
type TokenMinter interface {
	Mint(ctx context.Context, accountID, username string, roles []string) (string, time.Time, error)
}

// PasswordHasher turns a raw password into its stored form.
type PasswordHasher interface {
	Hash(raw string) (string, error)
}

// EmailDispatcher sends a named email template.
type EmailDispatcher interface {
	Send(ctx context.Context, to, templateName string, vars map[string]string) error
}

// ErrorReporter is told about infrastructure failures hidden from callers.
type ErrorReporter interface {
	Report(ctx context.Context, operation string, err error)
}
