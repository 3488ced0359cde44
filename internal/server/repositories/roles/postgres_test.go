package roles

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	findQ   = `(?s)^SELECT\s+id,\s*authority\s+FROM\s+roles\s+WHERE\s+authority\s*=\s*\$1\s*$`
	createQ = `(?s)^INSERT\s+INTO\s+roles\s*\(authority\)\s*VALUES\s*\(\$1\)\s*RETURNING\s+id\s*$`
)

func TestFindByAuthority_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).
		WithArgs("USER").
		WillReturnRows(sqlmock.NewRows([]string{"id", "authority"}).AddRow("r-1", "USER"))

	got, err := repo.FindByAuthority(context.Background(), "USER")
	if err != nil {
		t.Fatalf("FindByAuthority error: %v", err)
	}
	if got.ID != "r-1" || got.Authority != "USER" {
		t.Fatalf("unexpected role: %+v", got)
	}
}

func TestFindByAuthority_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).WithArgs("ADMIN").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByAuthority(context.Background(), "ADMIN")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(createQ).
		WithArgs("USER").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("r-1"))
	mock.ExpectQuery(createQ).
		WithArgs("USER").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery(createQ).
		WithArgs("USER").
		WillReturnError(errors.New("db down"))

	got, err := repo.Create(context.Background(), &models.Role{Authority: "USER"})
	if err != nil || got.ID != "r-1" {
		t.Fatalf("unexpected result: %+v, %v", got, err)
	}

	_, err = repo.Create(context.Background(), &models.Role{Authority: "USER"})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want common.ErrConflict, got %v", err)
	}

	_, err = repo.Create(context.Background(), &models.Role{Authority: "USER"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
