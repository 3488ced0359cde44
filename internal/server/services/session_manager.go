package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// SessionManager creates, looks up, expires and revokes refresh sessions.
// Every method works through the handle it is given, so callers decide
// whether it runs inside a transaction.
type SessionManager struct {
	repos    repomanager.RepositoryManager
	lifespan time.Duration
	now      func() time.Time
	newValue func() string
}

// NewSessionManager returns a SessionManager whose sessions live for lifespan.
func NewSessionManager(repos repomanager.RepositoryManager, lifespan time.Duration, now func() time.Time) *SessionManager {
	if now == nil {
		now = time.Now
	}
	return &SessionManager{repos: repos, lifespan: lifespan, now: now, newValue: uuid.NewString}
}

// Create persists a new session for account.
func (m *SessionManager) Create(ctx context.Context, db dbx.DBTX, account *models.Account) (*models.Session, error) {
	now := m.now()
	s := &models.Session{
		AccountID: account.ID,
		Value:     m.newValue(),
		ExpiresAt: now.Add(m.lifespan),
		CreatedAt: now,
	}
	created, err := m.repos.Sessions(db).Create(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return created, nil
}

// FindByValue returns common.ErrorNotFound for an unknown value.
func (m *SessionManager) FindByValue(ctx context.Context, db dbx.DBTX, value string) (*models.Session, error) {
	return m.repos.Sessions(db).FindByValue(ctx, value)
}

// VerifyNotExpired returns s unchanged while it is live. An expired session
// is deleted and common.ErrRefreshTokenExpired is returned.
func (m *SessionManager) VerifyNotExpired(ctx context.Context, db dbx.DBTX, s *models.Session) (*models.Session, error) {
	if !s.Expired(m.now()) {
		return s, nil
	}
	if err := m.repos.Sessions(db).Delete(ctx, s.Value); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("delete expired session: %w", err)
	}
	return nil, common.ErrRefreshTokenExpired
}

// Delete removes one session; common.ErrorNotFound if it does not exist.
func (m *SessionManager) Delete(ctx context.Context, db dbx.DBTX, value string) error {
	return m.repos.Sessions(db).Delete(ctx, value)
}

// DeleteAll removes every session of accountID.
func (m *SessionManager) DeleteAll(ctx context.Context, db dbx.DBTX, accountID string) (int64, error) {
	n, err := m.repos.Sessions(db).DeleteByAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return n, nil
}
