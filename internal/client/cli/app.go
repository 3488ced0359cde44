package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/store"
	"github.com/dmitrijs2005/gophauth/internal/common"
	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var errNotLoggedIn = errors.New("not logged in")

type App struct {
	config  *config.Config
	api     API
	store   SessionStore
	session *store.Session
	reader  *bufio.Reader
	out     io.Writer
	closers []func() error
}

// NewApp dials the server, opens the session database and restores the
// session saved by a previous run, if any.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := store.Open(ctx, c.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	conn, err := grpc.NewClient(c.ServerEndpointAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := newApp(c, gs.NewClient(conn), store.NewSQLiteStore(db), os.Stdin, os.Stdout)
	app.closers = []func() error{conn.Close, db.Close}

	if err := app.restore(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func newApp(c *config.Config, api API, s SessionStore, in io.Reader, out io.Writer) *App {
	return &App{config: c, api: api, store: s, reader: bufio.NewReader(in), out: out}
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintf(a.out, "gophauth client, server %s. Type help for commands.\n", a.config.ServerEndpointAddr)
	runREPL(ctx, a, a.status, a.reader, a.out)
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) status() string {
	if a.session == nil {
		return "guest"
	}
	return a.session.AccountID
}

func (a *App) restore(ctx context.Context) error {
	s, err := a.store.Load(ctx, a.config.ServerEndpointAddr)
	if err != nil {
		return err
	}
	a.session = s
	return nil
}

func (a *App) remember(ctx context.Context, r *gs.AuthResponse) error {
	s := &store.Session{
		AccountID:        r.AccountID,
		AccessToken:      r.AccessToken,
		ExpiresAt:        r.ExpiresAt,
		RefreshToken:     r.RefreshToken,
		RefreshExpiresAt: r.RefreshExpiresAt,
	}
	if err := a.store.Save(ctx, a.config.ServerEndpointAddr, s); err != nil {
		return err
	}
	a.session = s
	return nil
}

func (a *App) forget(ctx context.Context) error {
	a.session = nil
	return a.store.Delete(ctx, a.config.ServerEndpointAddr)
}

// call bounds a single request by the configured timeout.
func (a *App) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()
	return fn(ctx)
}

// authorized runs fn with the access token attached. An expired access token
// is refreshed once and the call retried.
func (a *App) authorized(ctx context.Context, fn func(ctx context.Context) error) error {
	if a.session == nil {
		return errNotLoggedIn
	}

	run := func() error {
		return a.call(ctx, func(ctx context.Context) error {
			md := metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, a.session.AccessToken)
			return fn(md)
		})
	}

	err := run()
	if !isAccessTokenExpired(err) {
		return err
	}
	if err := a.refresh(ctx); err != nil {
		return err
	}
	return run()
}

func (a *App) refresh(ctx context.Context) error {
	if a.session == nil {
		return errNotLoggedIn
	}
	var resp *gs.AuthResponse
	err := a.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = a.api.Refresh(ctx, &gs.SessionRequest{RefreshToken: a.session.RefreshToken})
		return err
	})
	if err != nil {
		if st, ok := status.FromError(err); ok && (st.Code() == codes.Unauthenticated || st.Code() == codes.NotFound) {
			_ = a.forget(ctx)
			return fmt.Errorf("session ended, please log in again: %s", st.Message())
		}
		return err
	}
	return a.remember(ctx, resp)
}

func isAccessTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrAccessTokenExpired.Error()
}

// describe renders err for the user, including field violations.
func describe(err error) string {
	if errors.Is(err, errNotLoggedIn) {
		return "you are not logged in"
	}
	st, ok := status.FromError(err)
	if !ok {
		return err.Error()
	}
	msg := st.Message()
	violations := gs.FieldViolations(err)
	for _, field := range slices.Sorted(maps.Keys(violations)) {
		msg += fmt.Sprintf("\n  %s: %s", field, violations[field])
	}
	return msg
}
