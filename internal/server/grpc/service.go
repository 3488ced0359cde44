package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "gophauth.v1.AuthService"

// AuthServer is the server API of AuthService.
type AuthServer interface {
	Register(context.Context, *RegisterRequest) (*AccountResponse, error)
	RequestEmailVerification(context.Context, *IdentifierRequest) (*Empty, error)
	RequestPasswordReset(context.Context, *IdentifierRequest) (*Empty, error)
	VerifyEmail(context.Context, *VerifyEmailRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	ResetPassword(context.Context, *ResetPasswordRequest) (*AuthResponse, error)
	Refresh(context.Context, *SessionRequest) (*AuthResponse, error)
	Patch(context.Context, *PatchRequest) (*AccountResponse, error)
	Logout(context.Context, *Empty) (*Empty, error)
	LogoutSession(context.Context, *SessionRequest) (*Empty, error)
	DeleteAccount(context.Context, *Empty) (*Empty, error)
	GetAccount(context.Context, *Empty) (*AccountResponse, error)
}

// Full method names.
const (
	MethodRegister                 = "/" + ServiceName + "/Register"
	MethodRequestEmailVerification = "/" + ServiceName + "/RequestEmailVerification"
	MethodRequestPasswordReset     = "/" + ServiceName + "/RequestPasswordReset"
	MethodVerifyEmail              = "/" + ServiceName + "/VerifyEmail"
	MethodLogin                    = "/" + ServiceName + "/Login"
	MethodResetPassword            = "/" + ServiceName + "/ResetPassword"
	MethodRefresh                  = "/" + ServiceName + "/Refresh"
	MethodPatch                    = "/" + ServiceName + "/Patch"
	MethodLogout                   = "/" + ServiceName + "/Logout"
	MethodLogoutSession            = "/" + ServiceName + "/LogoutSession"
	MethodDeleteAccount            = "/" + ServiceName + "/DeleteAccount"
	MethodGetAccount               = "/" + ServiceName + "/GetAccount"
)

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", AuthServer.Register),
		unary("RequestEmailVerification", AuthServer.RequestEmailVerification),
		unary("RequestPasswordReset", AuthServer.RequestPasswordReset),
		unary("VerifyEmail", AuthServer.VerifyEmail),
		unary("Login", AuthServer.Login),
		unary("ResetPassword", AuthServer.ResetPassword),
		unary("Refresh", AuthServer.Refresh),
		unary("Patch", AuthServer.Patch),
		unary("Logout", AuthServer.Logout),
		unary("LogoutSession", AuthServer.LogoutSession),
		unary("DeleteAccount", AuthServer.DeleteAccount),
		unary("GetAccount", AuthServer.GetAccount),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterAuthServer registers srv on s.
func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&serviceDesc, srv)
}

func unary[Req, Resp any](name string, call func(AuthServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AuthServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls AuthService over conn using the JSON codec.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.conn.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c, MethodRegister, in, opts)
}

func (c *Client) RequestEmailVerification(ctx context.Context, in *IdentifierRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, MethodRequestEmailVerification, in, opts)
}

func (c *Client) RequestPasswordReset(ctx context.Context, in *IdentifierRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, MethodRequestPasswordReset, in, opts)
}

func (c *Client) VerifyEmail(ctx context.Context, in *VerifyEmailRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c, MethodVerifyEmail, in, opts)
}

func (c *Client) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c, MethodLogin, in, opts)
}

func (c *Client) ResetPassword(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c, MethodResetPassword, in, opts)
}

func (c *Client) Refresh(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c, MethodRefresh, in, opts)
}

func (c *Client) Patch(ctx context.Context, in *PatchRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c, MethodPatch, in, opts)
}

func (c *Client) Logout(ctx context.Context, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, MethodLogout, &Empty{}, opts)
}

func (c *Client) LogoutSession(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, MethodLogoutSession, in, opts)
}

func (c *Client) DeleteAccount(ctx context.Context, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, MethodDeleteAccount, &Empty{}, opts)
}

func (c *Client) GetAccount(ctx context.Context, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c, MethodGetAccount, &Empty{}, opts)
}
