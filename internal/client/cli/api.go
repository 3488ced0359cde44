package cli

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/client/store"
	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
	"google.golang.org/grpc"
)

// API is the subset of the gophauth gRPC client used by the CLI.
// *gs.Client satisfies it.
type API interface {
	Register(ctx context.Context, in *gs.RegisterRequest, opts ...grpc.CallOption) (*gs.AccountResponse, error)
	RequestEmailVerification(ctx context.Context, in *gs.IdentifierRequest, opts ...grpc.CallOption) (*gs.Empty, error)
	RequestPasswordReset(ctx context.Context, in *gs.IdentifierRequest, opts ...grpc.CallOption) (*gs.Empty, error)
	VerifyEmail(ctx context.Context, in *gs.VerifyEmailRequest, opts ...grpc.CallOption) (*gs.AuthResponse, error)
	Login(ctx context.Context, in *gs.LoginRequest, opts ...grpc.CallOption) (*gs.AuthResponse, error)
	ResetPassword(ctx context.Context, in *gs.ResetPasswordRequest, opts ...grpc.CallOption) (*gs.AuthResponse, error)
	Refresh(ctx context.Context, in *gs.SessionRequest, opts ...grpc.CallOption) (*gs.AuthResponse, error)
	Patch(ctx context.Context, in *gs.PatchRequest, opts ...grpc.CallOption) (*gs.AccountResponse, error)
	Logout(ctx context.Context, opts ...grpc.CallOption) (*gs.Empty, error)
	LogoutSession(ctx context.Context, in *gs.SessionRequest, opts ...grpc.CallOption) (*gs.Empty, error)
	DeleteAccount(ctx context.Context, opts ...grpc.CallOption) (*gs.Empty, error)
	GetAccount(ctx context.Context, opts ...grpc.CallOption) (*gs.AccountResponse, error)
}

// SessionStore persists the session for a server address.
// *store.SQLiteStore satisfies it.
type SessionStore interface {
	Load(ctx context.Context, server string) (*store.Session, error)
	Save(ctx context.Context, server string, s *store.Session) error
	Delete(ctx context.Context, server string) error
}

var _ API = (*gs.Client)(nil)
var _ SessionStore = (*store.SQLiteStore)(nil)
