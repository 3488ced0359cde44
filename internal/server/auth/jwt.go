// Package auth holds the credential collaborators of the auth service:
// access token minting and parsing, password hashing and the authenticator.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the "iss" claim of every access token.
const Issuer = "self"

// Claims are the access token claims: sub carries the username, roles the
// space-separated authority names and id the account id.
type Claims struct {
	jwt.RegisteredClaims
	Roles     string `json:"roles"`
	AccountID string `json:"id"`
}

// RoleList splits Roles back into authority names.
func (c *Claims) RoleList() []string {
	return strings.Fields(c.Roles)
}

// Minter signs HS256 access tokens.
type Minter struct {
	secretKey []byte
	validity  time.Duration
	now       func() time.Time
}

// NewMinter returns a Minter issuing tokens valid for validity.
func NewMinter(secretKey []byte, validity time.Duration) *Minter {
	return &Minter{secretKey: secretKey, validity: validity, now: time.Now}
}

// Mint returns a signed access token for the account and its expiry.
func (m *Minter) Mint(ctx context.Context, accountID, username string, roles []string) (string, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return "", time.Time{}, err
	}

	now := m.now()
	expiresAt := now.Add(m.validity)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Roles:     strings.Join(roles, " "),
		AccountID: accountID,
	})

	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ParseToken verifies signature, issuer and expiry and returns the claims.
// An expired token yields common.ErrAccessTokenExpired, anything else that
// fails verification yields common.ErrorUnauthorized.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrAccessTokenExpired
		}
		return nil, common.ErrorUnauthorized
	}

	if !token.Valid || claims.AccountID == "" {
		return nil, common.ErrorUnauthorized
	}

	return claims, nil
}
