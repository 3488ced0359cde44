package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

func (s *GRPCServer) Register(ctx context.Context, req *RegisterRequest) (*AccountResponse, error) {
	a, err := s.svc.Register(ctx, services.RegistrationInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
	})
	if err != nil {
		return nil, s.statusErr(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "account_id", a.ID)
	return &AccountResponse{Account: a.View()}, nil
}

func (s *GRPCServer) RequestEmailVerification(ctx context.Context, req *IdentifierRequest) (*Empty, error) {
	if err := s.svc.RequestEmailVerification(ctx, req.Identifier); err != nil {
		return nil, s.statusErr(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) RequestPasswordReset(ctx context.Context, req *IdentifierRequest) (*Empty, error) {
	if err := s.svc.RequestPasswordReset(ctx, req.Identifier); err != nil {
		return nil, s.statusErr(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) VerifyEmail(ctx context.Context, req *VerifyEmailRequest) (*AuthResponse, error) {
	res, err := s.svc.VerifyEmail(ctx, req.Email, req.Code)
	if err != nil {
		return nil, s.statusErr(ctx, err)
	}
	return authResponse(res), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	res, err := s.svc.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		return nil, s.statusErr(ctx, err)
	}
	return authResponse(res), nil
}

func (s *GRPCServer) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (*AuthResponse, error) {
	res, err := s.svc.ResetPasswordWithToken(ctx, req.Identifier, req.Code, req.NewPassword)
	if err != nil {
		return nil, s.statusErr(ctx, err)
	}
	return authResponse(res), nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *SessionRequest) (*AuthResponse, error) {
	res, err := s.svc.RefreshAccessToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.statusErr(ctx, err)
	}
	return authResponse(res), nil
}

func (s *GRPCServer) Patch(ctx context.Context, req *PatchRequest) (*AccountResponse, error) {
	a, err := s.svc.ApplyPatch(ctx, accountID(ctx), req.AccountPatch)
	if err != nil {
		return nil, s.statusErr(ctx, err)
	}
	return &AccountResponse{Account: a.View()}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *Empty) (*Empty, error) {
	if err := s.svc.Logout(ctx, accountID(ctx)); err != nil {
		return nil, s.statusErr(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) LogoutSession(ctx context.Context, req *SessionRequest) (*Empty, error) {
	if err := s.svc.LogoutSession(ctx, accountID(ctx), req.RefreshToken); err != nil {
		return nil, s.statusErr(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) DeleteAccount(ctx context.Context, _ *Empty) (*Empty, error) {
	if err := s.svc.DeleteAccount(ctx, accountID(ctx)); err != nil {
		return nil, s.statusErr(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) GetAccount(ctx context.Context, _ *Empty) (*AccountResponse, error) {
	v, err := s.svc.GetAccount(ctx, accountID(ctx))
	if err != nil {
		return nil, s.statusErr(ctx, err)
	}
	return &AccountResponse{Account: v}, nil
}
