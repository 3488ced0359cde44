package memory

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// TokenRepository implements tokens.Repository.
type TokenRepository struct {
	s *Store
}

func (r *TokenRepository) Put(_ context.Context, tok *models.VerificationToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[tok.AccountID]; !ok {
		return common.ErrorNotFound
	}
	c := *tok
	r.s.tokens[tokenKey{tok.AccountID, tok.Type}] = &c
	return nil
}

func (r *TokenRepository) Get(_ context.Context, accountID string, t models.TokenType) (*models.VerificationToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if tok, ok := r.s.tokens[tokenKey{accountID, t}]; ok {
		c := *tok
		return &c, nil
	}
	return nil, common.ErrorNotFound
}

func (r *TokenRepository) Delete(_ context.Context, accountID string, t models.TokenType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.tokens, tokenKey{accountID, t})
	return nil
}
