// Package store keeps the CLI's current session in a local sqlite file, one
// row per server address.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/migrations"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Session is the token pair the CLI holds for one server.
type Session struct {
	AccountID        string
	AccessToken      string
	ExpiresAt        time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type SQLiteStore struct {
	db dbx.DBTX
}

func NewSQLiteStore(db dbx.DBTX) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// RunMigrations brings the schema of db up to date.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the sqlite file at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Load returns (nil, nil) when no session is stored for server.
func (s *SQLiteStore) Load(ctx context.Context, server string) (*Session, error) {
	var out Session
	err := s.db.QueryRowContext(ctx, `
		SELECT account_id, access_token, expires_at, refresh_token, refresh_expires_at
		FROM sessions WHERE server = ?`, server,
	).Scan(&out.AccountID, &out.AccessToken, &out.ExpiresAt, &out.RefreshToken, &out.RefreshExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session[%s]: %w", server, err)
	}
	return &out, nil
}

func (s *SQLiteStore) Save(ctx context.Context, server string, sess *Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (server, account_id, access_token, expires_at, refresh_token, refresh_expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(server) DO UPDATE SET
			account_id = excluded.account_id,
			access_token = excluded.access_token,
			expires_at = excluded.expires_at,
			refresh_token = excluded.refresh_token,
			refresh_expires_at = excluded.refresh_expires_at
	`, server, sess.AccountID, sess.AccessToken, sess.ExpiresAt.UTC(), sess.RefreshToken, sess.RefreshExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save session[%s]: %w", server, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, server string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE server = ?`, server)
	if err != nil {
		return fmt.Errorf("failed to delete session[%s]: %w", server, err)
	}
	return nil
}
