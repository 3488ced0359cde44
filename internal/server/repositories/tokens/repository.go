// Package tokens declares the repository contract for pending one-time
// verification codes.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository keeps at most one code per (account, type).
type Repository interface {
	// Put stores tok, replacing any pending code of the same type.
	Put(ctx context.Context, tok *models.VerificationToken) error

	// Get returns common.ErrorNotFound when nothing is pending.
	Get(ctx context.Context, accountID string, t models.TokenType) (*models.VerificationToken, error)

	// Delete clears the slot. Clearing an empty slot is not an error.
	Delete(ctx context.Context, accountID string, t models.TokenType) error
}
