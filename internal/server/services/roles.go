package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// SeedRoles makes sure every authority exists. It is safe to run on every
// start and from several instances at once.
func SeedRoles(ctx context.Context, repos repomanager.RepositoryManager, db dbx.DBTX, authorities ...string) error {
	repo := repos.Roles(db)
	for _, name := range authorities {
		_, err := repo.FindByAuthority(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("find role %s: %v", name, err)
		}
		if _, err := repo.Create(ctx, &models.Role{Authority: name}); err != nil && !errors.Is(err, common.ErrConflict) {
			return fmt.Errorf("create role %s: %v", name, err)
		}
	}
	return nil
}
