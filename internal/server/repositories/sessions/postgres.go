package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts s. A duplicate value yields common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	query := `
		INSERT INTO sessions (account_id, value, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, s.AccountID, s.Value, s.ExpiresAt, s.CreatedAt).Scan(&s.ID); err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// FindByValue returns the session row for the given value.
func (r *PostgresRepository) FindByValue(ctx context.Context, value string) (*models.Session, error) {
	query := `
		SELECT id, account_id, expires_at, created_at
		FROM sessions
		WHERE value = $1
	`
	s := &models.Session{Value: value}
	if err := r.db.QueryRowContext(ctx, query, value).Scan(&s.ID, &s.AccountID, &s.ExpiresAt, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// Delete removes a session by its value.
func (r *PostgresRepository) Delete(ctx context.Context, value string) error {
	query := `
		DELETE FROM sessions
		WHERE value = $1
	`
	res, err := r.db.ExecContext(ctx, query, value)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// DeleteByAccount removes all sessions owned by accountID.
func (r *PostgresRepository) DeleteByAccount(ctx context.Context, accountID string) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE account_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
