// Package roles declares the repository contract for shared authorities.
package roles

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository stores roles. Roles are referenced by accounts, never owned.
type Repository interface {
	// FindByAuthority returns common.ErrorNotFound when the role is absent.
	FindByAuthority(ctx context.Context, authority string) (*models.Role, error)

	// Create inserts a role, filling in ID. A duplicate authority yields
	// common.ErrConflict.
	Create(ctx context.Context, role *models.Role) (*models.Role, error)
}
