package memory

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// AccountRepository implements accounts.Repository. Pending codes are not
// stored on the account row; see TokenRepository.
type AccountRepository struct {
	s *Store
}

func (r *AccountRepository) Create(_ context.Context, account *models.Account) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.conflicts(account, "") {
		return nil, common.ErrConflict
	}

	account.ID = uuid.NewString()
	r.s.accounts[account.ID] = stripped(account)
	return account, nil
}

func (r *AccountRepository) Update(_ context.Context, account *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.accounts[account.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if r.s.conflicts(account, account.ID) {
		return common.ErrConflict
	}

	row := stripped(account)
	row.Roles = current.Roles
	row.CreatedAt = current.CreatedAt
	r.s.accounts[account.ID] = row
	return nil
}

func (r *AccountRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.accounts, id)
	for k := range r.s.tokens {
		if k.accountID == id {
			delete(r.s.tokens, k)
		}
	}
	for v, s := range r.s.sessions {
		if s.AccountID == id {
			delete(r.s.sessions, v)
		}
	}
	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if a, ok := r.s.accounts[id]; ok {
		return a.Clone(), nil
	}
	return nil, common.ErrorNotFound
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.Email == email })
}

func (r *AccountRepository) GetByUsername(_ context.Context, username string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return sameUsername(a.Username, username) })
}

func (r *AccountRepository) find(match func(*models.Account) bool) (*models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.accounts {
		if match(a) {
			return a.Clone(), nil
		}
	}
	return nil, common.ErrorNotFound
}

// conflicts reports whether a's email or username is held by an account
// other than exceptID. Caller holds s.mu.
func (s *Store) conflicts(a *models.Account, exceptID string) bool {
	for id, other := range s.accounts {
		if id == exceptID {
			continue
		}
		if other.Email == a.Email || sameUsername(other.Username, a.Username) {
			return true
		}
	}
	return false
}

func stripped(a *models.Account) *models.Account {
	c := a.Clone()
	c.Username = strings.ToLower(c.Username)
	c.EmailVerificationToken = nil
	c.PasswordResetToken = nil
	return c
}
