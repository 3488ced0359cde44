package memory

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// RoleRepository implements roles.Repository.
type RoleRepository struct {
	s *Store
}

func (r *RoleRepository) FindByAuthority(_ context.Context, authority string) (*models.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if role, ok := r.s.roles[authority]; ok {
		c := *role
		return &c, nil
	}
	return nil, common.ErrorNotFound
}

func (r *RoleRepository) Create(_ context.Context, role *models.Role) (*models.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.roles[role.Authority]; ok {
		return nil, common.ErrConflict
	}
	role.ID = uuid.NewString()
	c := *role
	r.s.roles[role.Authority] = &c
	return role, nil
}
