// Package accounts declares the server-side repository contract for account
// records and their role assignments.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository persists accounts. Lookups return common.ErrorNotFound when no
// row matches; writes that break a uniqueness rule return common.ErrConflict.
type Repository interface {
	// Create inserts the account and its role links, filling in ID.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	// Update overwrites every mutable column of an existing account.
	Update(ctx context.Context, account *models.Account) error

	// Delete removes the account; sessions, codes and role links cascade.
	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetByUsername matches case-insensitively.
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
}
