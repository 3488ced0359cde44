package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidationError_EmptyIsNil(t *testing.T) {
	require.NoError(t, NewValidationError(nil))
	require.NoError(t, NewValidationError(map[string]string{}))
}

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := NewValidationError(map[string]string{
		"username": "Username is already in use",
		"email":    "Email address is already in use",
	})
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(fmt.Errorf("register: %w", err), ErrValidation))
	assert.Equal(t, "validation failed: email: Email address is already in use; username: Username is already in use", err.Error())

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)
}

func TestIsDomainError(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "not found", err: ErrorNotFound, want: true},
		{name: "wrapped expired", err: fmt.Errorf("validate: %w", ErrTokenExpired), want: true},
		{name: "validation", err: NewValidationError(map[string]string{"email": "Invalid email address"}), want: true},
		{name: "internal", err: ErrorInternal, want: false},
		{name: "dispatch", err: ErrEmailDispatch, want: false},
		{name: "foreign", err: errors.New("db down"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDomainError(tt.err))
		})
	}
}
