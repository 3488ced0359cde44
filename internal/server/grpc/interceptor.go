package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const accountIDKey ctxKey = "accountID"

// methods that act on the caller's own account
var protected = map[string]bool{
	MethodPatch:         true,
	MethodLogout:        true,
	MethodLogoutSession: true,
	MethodDeleteAccount: true,
	MethodGetAccount:    true,
}

// AccountIDFromContext returns the account authenticated by the access
// token of the current call.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDKey).(string)
	return id, ok
}

func accountID(ctx context.Context) string {
	id, _ := AccountIDFromContext(ctx)
	return id
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if protected[info.FullMethod] {

		var accessToken string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.AccessTokenHeaderName)
			if len(values) > 0 {
				accessToken = values[0]
			}
		}
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		claims, err := auth.ParseToken(accessToken, s.jwtSecret)
		if err != nil {
			if errors.Is(err, common.ErrAccessTokenExpired) {
				return nil, status.Error(codes.Unauthenticated, err.Error())
			}
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		ctx = context.WithValue(ctx, accountIDKey, claims.AccountID)

	}

	return handler(ctx, req)
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if s.metrics == nil {
		return handler(ctx, req)
	}

	start := time.Now()
	resp, err := handler(ctx, req)
	s.metrics.ObserveRequest(info.FullMethod, status.Code(err).String(), time.Since(start))
	return resp, err
}
