package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func TestMintAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	m := NewMinter(secret, 10*time.Minute)

	tok, exp, err := m.Mint(context.Background(), "acc-123", "janedoe", []string{"USER", "ADMIN"})
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	if d := time.Until(exp); d <= 9*time.Minute || d > 10*time.Minute {
		t.Fatalf("unexpected expiry in %v", d)
	}

	claims, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.AccountID != "acc-123" {
		t.Fatalf("id mismatch: got %q", claims.AccountID)
	}
	if claims.Subject != "janedoe" {
		t.Fatalf("sub mismatch: got %q", claims.Subject)
	}
	if claims.Issuer != "self" {
		t.Fatalf("iss mismatch: got %q", claims.Issuer)
	}
	if claims.Roles != "USER ADMIN" {
		t.Fatalf("roles mismatch: got %q", claims.Roles)
	}
	if got := claims.RoleList(); len(got) != 2 || got[1] != "ADMIN" {
		t.Fatalf("role list mismatch: %v", got)
	}
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	m := NewMinter(secret, -1*time.Second)

	tok, _, err := m.Mint(context.Background(), "u1", "user1", nil)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	_, err = ParseToken(tok, secret)
	if !errors.Is(err, common.ErrAccessTokenExpired) {
		t.Fatalf("expected common.ErrAccessTokenExpired, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _, err := NewMinter([]byte("right-secret"), time.Hour).Mint(context.Background(), "u2", "user2", nil)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	_, err = ParseToken(tok, []byte("wrong-secret"))
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected common.ErrorUnauthorized, got %v", err)
	}
}

func TestParseToken_WrongIssuer(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		AccountID: "u3",
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	if _, err := ParseToken(tok, secret); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected common.ErrorUnauthorized, got %v", err)
	}
}

func TestParseToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not.a.jwt", []byte("k"))
	if err == nil {
		t.Fatalf("expected error for malformed token, got nil")
	}
}

func TestMint_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := NewMinter([]byte("k"), time.Minute).Mint(ctx, "u", "user", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
