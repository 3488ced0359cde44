package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

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

const selectAccount = `SELECT id, first_name, last_name, username, email, password_hash,
		email_verified, email_verified_at, status, created_at
	FROM accounts`

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (first_name, last_name, username, email, password_hash,
			email_verified, email_verified_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		account.FirstName, account.LastName, account.Username, account.Email, account.PasswordHash,
		account.EmailVerified, account.EmailVerifiedAt, string(account.Status), account.CreatedAt,
	).Scan(&account.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := r.linkRoles(ctx, account.ID, account.Roles); err != nil {
		return nil, err
	}
	return account, nil
}

func (r *PostgresRepository) linkRoles(ctx context.Context, accountID string, roles []models.Role) error {
	query := `
		INSERT INTO account_roles (account_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	for _, role := range roles {
		if _, err := r.db.ExecContext(ctx, query, accountID, role.ID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET first_name = $2, last_name = $3, username = $4, email = $5, password_hash = $6,
			email_verified = $7, email_verified_at = $8, status = $9
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, account.ID,
		account.FirstName, account.LastName, account.Username, account.Email, account.PasswordHash,
		account.EmailVerified, account.EmailVerifiedAt, string(account.Status),
	)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return mustAffect(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return mustAffect(res)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, selectAccount+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, selectAccount+` WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.getOne(ctx, selectAccount+` WHERE lower(username) = $1`, strings.ToLower(username))
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	a := &models.Account{}
	var (
		status     string
		verifiedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Username, &a.Email, &a.PasswordHash,
		&a.EmailVerified, &verifiedAt, &status, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	a.Status = models.AccountStatus(status)
	if verifiedAt.Valid {
		t := verifiedAt.Time
		a.EmailVerifiedAt = &t
	}

	roles, err := r.roles(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	a.Roles = roles
	return a, nil
}

func (r *PostgresRepository) roles(ctx context.Context, accountID string) ([]models.Role, error) {
	query := `
		SELECT r.id, r.authority
		FROM roles r
		JOIN account_roles ar ON ar.role_id = r.id
		WHERE ar.account_id = $1
		ORDER BY r.authority
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Authority); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return roles, nil
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
