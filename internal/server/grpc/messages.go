package grpc

import (
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type RegisterRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// IdentifierRequest names an account by email or username.
type IdentifierRequest struct {
	Identifier string `json:"identifier"`
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type ResetPasswordRequest struct {
	Identifier  string `json:"identifier"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// SessionRequest carries a refresh token.
type SessionRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// PatchRequest holds only the fields to change.
type PatchRequest struct {
	models.AccountPatch
}

type AccountResponse struct {
	Account *models.AccountView `json:"account"`
}

// AuthResponse is returned by every operation that authenticates.
type AuthResponse struct {
	AccountID        string    `json:"account_id"`
	AccessToken      string    `json:"access_token"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type Empty struct{}

func authResponse(r *models.AuthResult) *AuthResponse {
	return &AuthResponse{
		AccountID:        r.AccountID,
		AccessToken:      r.AccessToken,
		ExpiresAt:        r.ExpiresAt,
		RefreshToken:     r.RefreshToken,
		RefreshExpiresAt: r.RefreshExpiresAt,
	}
}
