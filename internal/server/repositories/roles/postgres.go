package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByAuthority(ctx context.Context, authority string) (*models.Role, error) {
	query :=
		`SELECT id, authority FROM roles
		 WHERE authority = $1
		 `

	role := &models.Role{}
	err := r.db.QueryRowContext(ctx, query, authority).Scan(&role.ID, &role.Authority)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return role, nil
}

func (r *PostgresRepository) Create(ctx context.Context, role *models.Role) (*models.Role, error) {
	query :=
		`INSERT INTO roles (authority)
		 VALUES ($1)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query, role.Authority).Scan(&role.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return role, nil
}
