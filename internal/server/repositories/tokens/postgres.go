package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Put(ctx context.Context, tok *models.VerificationToken) error {
	query := `
		INSERT INTO verification_tokens (account_id, type, value, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, type)
		DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`
	if _, err := r.db.ExecContext(ctx, query, tok.AccountID, string(tok.Type), tok.Value, tok.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, accountID string, t models.TokenType) (*models.VerificationToken, error) {
	query := `
		SELECT value, expires_at
		FROM verification_tokens
		WHERE account_id = $1 AND type = $2
	`
	tok := &models.VerificationToken{AccountID: accountID, Type: t}
	if err := r.db.QueryRowContext(ctx, query, accountID, string(t)).Scan(&tok.Value, &tok.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tok, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, accountID string, t models.TokenType) error {
	query := `
		DELETE FROM verification_tokens
		WHERE account_id = $1 AND type = $2
	`
	if _, err := r.db.ExecContext(ctx, query, accountID, string(t)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
