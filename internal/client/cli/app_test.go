package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/store"
	"github.com/dmitrijs2005/gophauth/internal/common"
	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const testServer = "srv:50051"

type fakeAPI struct {
	calls  []string
	tokens []string

	registerReq *gs.RegisterRequest
	loginReq    *gs.LoginRequest
	resetReq    *gs.ResetPasswordRequest
	patchReq    *gs.PatchRequest
	logoutReq   *gs.SessionRequest
	identifier  string

	auth       *gs.AuthResponse
	account    *models.AccountView
	getErrs    []error
	refreshErr error
	err        error
}

func (f *fakeAPI) note(ctx context.Context, name string) {
	f.calls = append(f.calls, name)
	if md, ok := metadata.FromOutgoingContext(ctx); ok {
		f.tokens = append(f.tokens, md.Get(common.AccessTokenHeaderName)...)
	}
}

func (f *fakeAPI) Register(ctx context.Context, in *gs.RegisterRequest, _ ...grpc.CallOption) (*gs.AccountResponse, error) {
	f.note(ctx, "register")
	f.registerReq = in
	return &gs.AccountResponse{Account: f.account}, f.err
}

func (f *fakeAPI) RequestEmailVerification(ctx context.Context, in *gs.IdentifierRequest, _ ...grpc.CallOption) (*gs.Empty, error) {
	f.note(ctx, "resend")
	f.identifier = in.Identifier
	return &gs.Empty{}, f.err
}

func (f *fakeAPI) RequestPasswordReset(ctx context.Context, in *gs.IdentifierRequest, _ ...grpc.CallOption) (*gs.Empty, error) {
	f.note(ctx, "forgot")
	f.identifier = in.Identifier
	return &gs.Empty{}, f.err
}

func (f *fakeAPI) VerifyEmail(ctx context.Context, in *gs.VerifyEmailRequest, _ ...grpc.CallOption) (*gs.AuthResponse, error) {
	f.note(ctx, "verify")
	return f.auth, f.err
}

func (f *fakeAPI) Login(ctx context.Context, in *gs.LoginRequest, _ ...grpc.CallOption) (*gs.AuthResponse, error) {
	f.note(ctx, "login")
	f.loginReq = in
	return f.auth, f.err
}

func (f *fakeAPI) ResetPassword(ctx context.Context, in *gs.ResetPasswordRequest, _ ...grpc.CallOption) (*gs.AuthResponse, error) {
	f.note(ctx, "reset")
	f.resetReq = in
	return f.auth, f.err
}

func (f *fakeAPI) Refresh(ctx context.Context, in *gs.SessionRequest, _ ...grpc.CallOption) (*gs.AuthResponse, error) {
	f.note(ctx, "refresh")
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &gs.AuthResponse{
		AccountID:        "a1",
		AccessToken:      "access-2",
		ExpiresAt:        time.Now().Add(5 * time.Minute),
		RefreshToken:     in.RefreshToken,
		RefreshExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAPI) Patch(ctx context.Context, in *gs.PatchRequest, _ ...grpc.CallOption) (*gs.AccountResponse, error) {
	f.note(ctx, "patch")
	f.patchReq = in
	return &gs.AccountResponse{Account: f.account}, f.err
}

func (f *fakeAPI) Logout(ctx context.Context, _ ...grpc.CallOption) (*gs.Empty, error) {
	f.note(ctx, "logout")
	return &gs.Empty{}, f.err
}

func (f *fakeAPI) LogoutSession(ctx context.Context, in *gs.SessionRequest, _ ...grpc.CallOption) (*gs.Empty, error) {
	f.note(ctx, "logout-session")
	f.logoutReq = in
	return &gs.Empty{}, f.err
}

func (f *fakeAPI) DeleteAccount(ctx context.Context, _ ...grpc.CallOption) (*gs.Empty, error) {
	f.note(ctx, "delete")
	return &gs.Empty{}, f.err
}

func (f *fakeAPI) GetAccount(ctx context.Context, _ ...grpc.CallOption) (*gs.AccountResponse, error) {
	f.note(ctx, "get")
	if len(f.getErrs) > 0 {
		err := f.getErrs[0]
		f.getErrs = f.getErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &gs.AccountResponse{Account: f.account}, nil
}

type memSessions struct {
	m map[string]*store.Session
}

func (s *memSessions) Load(_ context.Context, server string) (*store.Session, error) {
	return s.m[server], nil
}

func (s *memSessions) Save(_ context.Context, server string, sess *store.Session) error {
	s.m[server] = sess
	return nil
}

func (s *memSessions) Delete(_ context.Context, server string) error {
	delete(s.m, server)
	return nil
}

type fixture struct {
	app      *App
	api      *fakeAPI
	sessions *memSessions
	out      *bytes.Buffer
}

func newFixture(t *testing.T, input string, passwords ...string) *fixture {
	t.Helper()

	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, errors.New("no password")
		}
		pw := passwords[0]
		passwords = passwords[1:]
		return []byte(pw), nil
	}

	cfg := &config.Config{ServerEndpointAddr: testServer, RequestTimeout: time.Second}
	api := &fakeAPI{
		auth: &gs.AuthResponse{
			AccountID:        "a1",
			AccessToken:      "access-1",
			ExpiresAt:        time.Now().Add(5 * time.Minute),
			RefreshToken:     "refresh-1",
			RefreshExpiresAt: time.Now().Add(time.Hour),
		},
		account: &models.AccountView{ID: "a1", Email: "jane@example.com", EmailVerified: true, Status: "active"},
	}
	sessions := &memSessions{m: map[string]*store.Session{}}
	out := &bytes.Buffer{}

	return &fixture{
		app:      newApp(cfg, api, sessions, strings.NewReader(input), out),
		api:      api,
		sessions: sessions,
		out:      out,
	}
}

func (f *fixture) loggedIn() *fixture {
	f.app.session = &store.Session{AccountID: "a1", AccessToken: "access-1", RefreshToken: "refresh-1"}
	f.sessions.m[testServer] = f.app.session
	return f
}

func TestApp_LoginStoresSession(t *testing.T) {
	f := newFixture(t, "jane\n", "Aa1@aaaa")

	require.NoError(t, f.app.Login(context.Background()))

	require.Equal(t, &gs.LoginRequest{Identifier: "jane", Password: "Aa1@aaaa"}, f.api.loginReq)
	require.True(t, f.app.isLoggedIn())
	require.Equal(t, "a1", f.app.status())
	require.Equal(t, "access-1", f.sessions.m[testServer].AccessToken)
}

func TestApp_LoginFailureKeepsGuest(t *testing.T) {
	f := newFixture(t, "jane\n", "wrong")
	f.api.err = status.Error(codes.Unauthenticated, "unauthorized")

	err := f.app.Login(context.Background())
	require.Error(t, err)
	require.False(t, f.app.isLoggedIn())
	require.Equal(t, "guest", f.app.status())
	require.Empty(t, f.sessions.m)
}

func TestApp_RestoreLoadsSavedSession(t *testing.T) {
	f := newFixture(t, "")
	f.sessions.m[testServer] = &store.Session{AccountID: "a9"}

	require.NoError(t, f.app.restore(context.Background()))
	require.Equal(t, "a9", f.app.status())
}

func TestApp_Register(t *testing.T) {
	f := newFixture(t, "Jane\nDoe\njane@example.com\njane\n", "Aa1@aaaa")

	require.NoError(t, f.app.Register(context.Background()))

	require.Equal(t, &gs.RegisterRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Username:  "jane",
		Password:  "Aa1@aaaa",
	}, f.api.registerReq)
	require.Contains(t, f.out.String(), "verification code was sent to jane@example.com")
	require.False(t, f.app.isLoggedIn())
}

func TestApp_VerifyLogsIn(t *testing.T) {
	f := newFixture(t, "jane@example.com\n100001\n")

	require.NoError(t, f.app.Verify(context.Background()))
	require.True(t, f.app.isLoggedIn())
}

func TestApp_CodeRequests(t *testing.T) {
	f := newFixture(t, "jane\njane@example.com\n")

	require.NoError(t, f.app.Resend(context.Background()))
	require.Equal(t, "jane", f.api.identifier)

	require.NoError(t, f.app.Forgot(context.Background()))
	require.Equal(t, "jane@example.com", f.api.identifier)
	require.Equal(t, []string{"resend", "forgot"}, f.api.calls)
}

func TestApp_ResetLogsIn(t *testing.T) {
	f := newFixture(t, "jane\n100001\n", "Bb2#bbbb")

	require.NoError(t, f.app.Reset(context.Background()))
	require.Equal(t, &gs.ResetPasswordRequest{Identifier: "jane", Code: "100001", NewPassword: "Bb2#bbbb"}, f.api.resetReq)
	require.True(t, f.app.isLoggedIn())
}

func TestApp_ProtectedCommandsRequireLogin(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	for name, cmd := range map[string]func(context.Context) error{
		"whoami":     f.app.WhoAmI,
		"edit":       f.app.Edit,
		"refresh":    f.app.Refresh,
		"logout":     f.app.Logout,
		"logout-all": f.app.LogoutAll,
		"delete":     f.app.Delete,
	} {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, cmd(ctx), errNotLoggedIn)
		})
	}
	require.Empty(t, f.api.calls)
}

func TestApp_WhoAmISendsAccessToken(t *testing.T) {
	f := newFixture(t, "").loggedIn()

	require.NoError(t, f.app.WhoAmI(context.Background()))
	require.Equal(t, []string{"access-1"}, f.api.tokens)
	require.Contains(t, f.out.String(), "jane@example.com (verified: true)")
}

func TestApp_ExpiredAccessTokenIsRefreshedOnce(t *testing.T) {
	f := newFixture(t, "").loggedIn()
	f.api.getErrs = []error{status.Error(codes.Unauthenticated, common.ErrAccessTokenExpired.Error())}

	require.NoError(t, f.app.WhoAmI(context.Background()))

	require.Equal(t, []string{"get", "refresh", "get"}, f.api.calls)
	require.Equal(t, []string{"access-1", "access-2"}, f.api.tokens)
	require.Equal(t, "access-2", f.sessions.m[testServer].AccessToken)
	require.Equal(t, "refresh-1", f.sessions.m[testServer].RefreshToken)
}

func TestApp_OtherUnauthenticatedIsNotRetried(t *testing.T) {
	f := newFixture(t, "").loggedIn()
	f.api.getErrs = []error{status.Error(codes.Unauthenticated, "invalid token")}

	require.Error(t, f.app.WhoAmI(context.Background()))
	require.Equal(t, []string{"get"}, f.api.calls)
	require.True(t, f.app.isLoggedIn())
}

func TestApp_RefreshRejectedEndsSession(t *testing.T) {
	f := newFixture(t, "").loggedIn()
	f.api.refreshErr = status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())

	err := f.app.Refresh(context.Background())
	require.ErrorContains(t, err, "log in again")
	require.False(t, f.app.isLoggedIn())
	require.Empty(t, f.sessions.m)
}

func TestApp_RefreshTransportErrorKeepsSession(t *testing.T) {
	f := newFixture(t, "").loggedIn()
	f.api.refreshErr = status.Error(codes.Unavailable, "down")

	require.Error(t, f.app.Refresh(context.Background()))
	require.True(t, f.app.isLoggedIn())
}

func TestApp_EditSendsOnlyChangedFields(t *testing.T) {
	f := newFixture(t, "\n\nnew@example.com\n\n", "").loggedIn()
	f.api.account = &models.AccountView{ID: "a1", Email: "new@example.com"}

	require.NoError(t, f.app.Edit(context.Background()))

	require.NotNil(t, f.api.patchReq)
	p := f.api.patchReq.AccountPatch
	require.Nil(t, p.FirstName)
	require.Nil(t, p.LastName)
	require.Nil(t, p.Username)
	require.Nil(t, p.Password)
	require.Equal(t, "new@example.com", *p.Email)
	require.Contains(t, f.out.String(), "Use verify")
}

func TestApp_EditNothingToChange(t *testing.T) {
	f := newFixture(t, "\n\n\n\n", "").loggedIn()

	require.NoError(t, f.app.Edit(context.Background()))
	require.Empty(t, f.api.calls)
	require.Contains(t, f.out.String(), "Nothing to change.")
}

func TestApp_LogoutClosesCurrentSession(t *testing.T) {
	f := newFixture(t, "").loggedIn()

	require.NoError(t, f.app.Logout(context.Background()))
	require.Equal(t, "refresh-1", f.api.logoutReq.RefreshToken)
	require.False(t, f.app.isLoggedIn())
	require.Empty(t, f.sessions.m)
}

func TestApp_LogoutAll(t *testing.T) {
	f := newFixture(t, "").loggedIn()

	require.NoError(t, f.app.LogoutAll(context.Background()))
	require.Equal(t, []string{"logout"}, f.api.calls)
	require.False(t, f.app.isLoggedIn())
}

func TestApp_DeleteNeedsConfirmation(t *testing.T) {
	f := newFixture(t, "no\nyes\n").loggedIn()
	ctx := context.Background()

	require.NoError(t, f.app.Delete(ctx))
	require.Empty(t, f.api.calls)
	require.True(t, f.app.isLoggedIn())

	require.NoError(t, f.app.Delete(ctx))
	require.Equal(t, []string{"delete"}, f.api.calls)
	require.False(t, f.app.isLoggedIn())
}

func TestDescribe(t *testing.T) {
	st, err := status.New(codes.InvalidArgument, "validation failed").WithDetails(&errdetails.BadRequest{
		FieldViolations: []*errdetails.BadRequest_FieldViolation{
			{Field: "username", Description: "required"},
			{Field: "email", Description: "email"},
		},
	})
	require.NoError(t, err)

	require.Equal(t, "validation failed\n  email: email\n  username: required", describe(st.Err()))
	require.Equal(t, "you are not logged in", describe(errNotLoggedIn))
	require.Equal(t, "boom", describe(errors.New("boom")))
}
