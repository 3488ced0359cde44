// Package common defines shared constants and sentinel errors used across
// the gophauth server layers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("already exists")

	// Infrastructure errors surfaced to callers without internals.
	ErrorInternal    = errors.New("internal error")
	ErrEmailDispatch = errors.New("unable to send email")

	// Credential errors.
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrEmailNotVerified     = errors.New("email address is not verified")
	ErrAccountLocked        = errors.New("account is locked")
	ErrAccountExpired       = errors.New("account is expired")
	ErrCredentialsExpired   = errors.New("credentials are expired")
	ErrEmailAlreadyVerified = errors.New("email address is already verified")

	// Verification code and token lifecycle errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrAccessTokenExpired  = errors.New("access token expired")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries every field violation found for one request.
// It is never returned with an empty Fields map.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns nil when fields is empty.
func NewValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is reports a match against ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var domainErrors = []error{
	ErrorNotFound,
	ErrConflict,
	ErrorUnauthorized,
	ErrEmailNotVerified,
	ErrAccountLocked,
	ErrAccountExpired,
	ErrCredentialsExpired,
	ErrEmailAlreadyVerified,
	ErrInvalidToken,
	ErrTokenExpired,
	ErrRefreshTokenExpired,
	ErrAccessTokenExpired,
	ErrValidation,
}

// IsDomainError reports whether err belongs to the domain taxonomy and may be
// returned to callers unchanged.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
