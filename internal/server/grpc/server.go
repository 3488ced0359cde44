package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/telemetry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the account lifecycle API served over gRPC.
type Service interface {
	Register(ctx context.Context, in services.RegistrationInput) (*models.Account, error)
	RequestEmailVerification(ctx context.Context, identifier string) error
	RequestPasswordReset(ctx context.Context, identifier string) error
	VerifyEmail(ctx context.Context, email, code string) (*models.AuthResult, error)
	Login(ctx context.Context, identifier, password string) (*models.AuthResult, error)
	ResetPasswordWithToken(ctx context.Context, identifier, code, newPassword string) (*models.AuthResult, error)
	RefreshAccessToken(ctx context.Context, value string) (*models.AuthResult, error)
	ApplyPatch(ctx context.Context, accountID string, patch models.AccountPatch) (*models.Account, error)
	Logout(ctx context.Context, accountID string) error
	LogoutSession(ctx context.Context, accountID, value string) error
	DeleteAccount(ctx context.Context, accountID string) error
	GetAccount(ctx context.Context, accountID string) (*models.AccountView, error)
}

type GRPCServer struct {
	address   string
	svc       Service
	logger    logging.Logger
	jwtSecret []byte
	metrics   *telemetry.Metrics
	health    *health.Server
}

// NewGRPCServer returns a server for svc listening on address. metrics may
// be nil.
func NewGRPCServer(address string, l logging.Logger, svc Service, secretKey string, metrics *telemetry.Metrics) *GRPCServer {
	return &GRPCServer{
		address:   address,
		svc:       svc,
		logger:    l.With("module", "grpc_server"),
		jwtSecret: []byte(secretKey),
		metrics:   metrics,
		health:    health.NewServer(),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.accessTokenInterceptor))

	RegisterAuthServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
