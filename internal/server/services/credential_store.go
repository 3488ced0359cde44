package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

var tokenTypes = []models.TokenType{models.TokenEmailVerification, models.TokenPasswordReset}

// CredentialStore owns account records: lookups with their pending codes
// attached, normalized writes, and uniqueness checks on email and username.
type CredentialStore struct {
	repos repomanager.RepositoryManager
}

func NewCredentialStore(repos repomanager.RepositoryManager) *CredentialStore {
	return &CredentialStore{repos: repos}
}

func (c *CredentialStore) FindByID(ctx context.Context, db dbx.DBTX, id string) (*models.Account, error) {
	a, err := c.repos.Accounts(db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.attachTokens(ctx, db, a)
}

func (c *CredentialStore) FindByEmail(ctx context.Context, db dbx.DBTX, email string) (*models.Account, error) {
	a, err := c.repos.Accounts(db).GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	return c.attachTokens(ctx, db, a)
}

func (c *CredentialStore) FindByUsername(ctx context.Context, db dbx.DBTX, username string) (*models.Account, error) {
	a, err := c.repos.Accounts(db).GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	return c.attachTokens(ctx, db, a)
}

// FindByIdentifier looks up by email when identifier contains "@" and by
// username otherwise.
func (c *CredentialStore) FindByIdentifier(ctx context.Context, db dbx.DBTX, identifier string) (*models.Account, error) {
	if strings.Contains(identifier, "@") {
		return c.FindByEmail(ctx, db, identifier)
	}
	return c.FindByUsername(ctx, db, identifier)
}

func (c *CredentialStore) attachTokens(ctx context.Context, db dbx.DBTX, a *models.Account) (*models.Account, error) {
	repo := c.repos.Tokens(db)
	for _, t := range tokenTypes {
		tok, err := repo.Get(ctx, a.ID, t)
		if errors.Is(err, common.ErrorNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s code: %w", t, err)
		}
		a.SetPendingToken(tok)
	}
	return a, nil
}

// Create normalizes and inserts account together with its pending codes.
func (c *CredentialStore) Create(ctx context.Context, db dbx.DBTX, account *models.Account) (*models.Account, error) {
	Normalize(account)

	created, err := c.repos.Accounts(db).Create(ctx, account)
	if err != nil {
		return nil, err
	}
	if err := c.syncTokens(ctx, db, created); err != nil {
		return nil, err
	}
	return created, nil
}

// Save normalizes and writes account back, including its pending code slots.
func (c *CredentialStore) Save(ctx context.Context, db dbx.DBTX, account *models.Account) error {
	Normalize(account)

	if err := c.repos.Accounts(db).Update(ctx, account); err != nil {
		return err
	}
	return c.syncTokens(ctx, db, account)
}

func (c *CredentialStore) syncTokens(ctx context.Context, db dbx.DBTX, a *models.Account) error {
	repo := c.repos.Tokens(db)
	for _, t := range tokenTypes {
		tok := a.PendingToken(t)
		if tok == nil {
			if err := repo.Delete(ctx, a.ID, t); err != nil {
				return fmt.Errorf("clear %s code: %w", t, err)
			}
			continue
		}
		tok.AccountID = a.ID
		if err := repo.Put(ctx, tok); err != nil {
			return fmt.Errorf("store %s code: %w", t, err)
		}
	}
	return nil
}

// Delete removes the account; its sessions and codes go with it.
func (c *CredentialStore) Delete(ctx context.Context, db dbx.DBTX, id string) error {
	return c.repos.Accounts(db).Delete(ctx, id)
}

// EmailTaken reports whether email belongs to an account other than exceptID.
func (c *CredentialStore) EmailTaken(ctx context.Context, db dbx.DBTX, email, exceptID string) (bool, error) {
	a, err := c.repos.Accounts(db).GetByEmail(ctx, strings.TrimSpace(email))
	return heldByOther(a, err, exceptID)
}

// UsernameTaken reports whether username (case-insensitive) belongs to an
// account other than exceptID.
func (c *CredentialStore) UsernameTaken(ctx context.Context, db dbx.DBTX, username, exceptID string) (bool, error) {
	a, err := c.repos.Accounts(db).GetByUsername(ctx, strings.TrimSpace(username))
	return heldByOther(a, err, exceptID)
}

func heldByOther(a *models.Account, err error, exceptID string) (bool, error) {
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.ID != exceptID, nil
}

// Normalize trims and capitalizes names, trims the email and lowercases the
// username.
func Normalize(a *models.Account) {
	a.FirstName = capitalize(strings.TrimSpace(a.FirstName))
	a.LastName = capitalize(strings.TrimSpace(a.LastName))
	a.Email = strings.TrimSpace(a.Email)
	a.Username = strings.ToLower(strings.TrimSpace(a.Username))
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
