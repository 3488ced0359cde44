package memory

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// SessionRepository implements sessions.Repository.
type SessionRepository struct {
	s *Store
}

func (r *SessionRepository) Create(_ context.Context, s *models.Session) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[s.AccountID]; !ok {
		return nil, common.ErrorNotFound
	}
	if _, ok := r.s.sessions[s.Value]; ok {
		return nil, common.ErrConflict
	}
	s.ID = uuid.NewString()
	c := *s
	r.s.sessions[s.Value] = &c
	return s, nil
}

func (r *SessionRepository) FindByValue(_ context.Context, value string) (*models.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if s, ok := r.s.sessions[value]; ok {
		c := *s
		return &c, nil
	}
	return nil, common.ErrorNotFound
}

func (r *SessionRepository) Delete(_ context.Context, value string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.sessions[value]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.sessions, value)
	return nil
}

func (r *SessionRepository) DeleteByAccount(_ context.Context, accountID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for v, s := range r.s.sessions {
		if s.AccountID == accountID {
			delete(r.s.sessions, v)
			n++
		}
	}
	return n, nil
}
