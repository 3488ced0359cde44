// Package memory provides in-process implementations of every repository
// contract, used when no database DSN is configured and by service tests.
package memory

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/tokens"
)

type tokenKey struct {
	accountID string
	typ       models.TokenType
}

// Store holds all rows. Enforces the same unique keys and cascades as the
// PostgreSQL schema.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*models.Account
	roles    map[string]*models.Role
	tokens   map[tokenKey]*models.VerificationToken
	sessions map[string]*models.Session
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*models.Account),
		roles:    make(map[string]*models.Role),
		tokens:   make(map[tokenKey]*models.VerificationToken),
		sessions: make(map[string]*models.Session),
	}
}

type snapshot struct {
	accounts map[string]*models.Account
	roles    map[string]*models.Role
	tokens   map[tokenKey]*models.VerificationToken
	sessions map[string]*models.Session
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		accounts: make(map[string]*models.Account, len(s.accounts)),
		roles:    make(map[string]*models.Role, len(s.roles)),
		tokens:   make(map[tokenKey]*models.VerificationToken, len(s.tokens)),
		sessions: make(map[string]*models.Session, len(s.sessions)),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v.Clone()
	}
	for k, v := range s.roles {
		r := *v
		snap.roles[k] = &r
	}
	for k, v := range s.tokens {
		t := *v
		snap.tokens[k] = &t
	}
	for k, v := range s.sessions {
		ss := *v
		snap.sessions[k] = &ss
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.roles = snap.roles
	s.tokens = snap.tokens
	s.sessions = snap.sessions
}

// Transactor serializes units of work and rolls the Store back to its state
// before fn when fn fails or panics. The DBTX handed to fn is nil.
type Transactor struct {
	mu    sync.Mutex
	store *Store
}

// NewTransactor returns a Transactor over store.
func NewTransactor(store *Store) *Transactor {
	return &Transactor{store: store}
}

// WithTx implements dbx.Transactor.
func (t *Transactor) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) (err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := t.store.snapshot()
	defer func() {
		if p := recover(); p != nil {
			t.store.restore(snap)
			panic(p)
		}
		if err != nil {
			t.store.restore(snap)
		}
	}()

	return fn(ctx, nil)
}

// RepositoryManager vends repositories backed by one Store. The db argument
// of every factory is ignored.
type RepositoryManager struct {
	store *Store
}

// NewRepositoryManager returns a RepositoryManager over store.
func NewRepositoryManager(store *Store) *RepositoryManager {
	return &RepositoryManager{store: store}
}

// RunMigrations is a no-op.
func (m *RepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *RepositoryManager) Accounts(dbx.DBTX) accounts.Repository {
	return &AccountRepository{s: m.store}
}

func (m *RepositoryManager) Roles(dbx.DBTX) roles.Repository {
	return &RoleRepository{s: m.store}
}

func (m *RepositoryManager) Tokens(dbx.DBTX) tokens.Repository {
	return &TokenRepository{s: m.store}
}

func (m *RepositoryManager) Sessions(dbx.DBTX) sessions.Repository {
	return &SessionRepository{s: m.store}
}

func sameUsername(a, b string) bool {
	return strings.EqualFold(a, b)
}
