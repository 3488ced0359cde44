// Package sessions declares the server-side repository contract for refresh
// sessions: one row per authenticated device or login.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository defines operations for storing, looking up and revoking sessions.
type Repository interface {
	// Create stores s and fills in its ID.
	Create(ctx context.Context, s *models.Session) (*models.Session, error)

	// FindByValue looks a session up by its opaque value and returns
	// common.ErrorNotFound when absent.
	FindByValue(ctx context.Context, value string) (*models.Session, error)

	// Delete removes one session; common.ErrorNotFound if there was none.
	Delete(ctx context.Context, value string) error

	// DeleteByAccount removes every session of the account and reports how
	// many were removed.
	DeleteByAccount(ctx context.Context, accountID string) (int64, error)
}
