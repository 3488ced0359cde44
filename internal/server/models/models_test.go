package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusGates(t *testing.T) {
	tests := []struct {
		status AccountStatus
		want   Gates
	}{
		{StatusActive, Gates{NonLocked: true, NonExpired: true, CredentialsNonExpired: true}},
		{StatusLocked, Gates{NonLocked: false, NonExpired: true, CredentialsNonExpired: true}},
		{StatusExpired, Gates{NonLocked: true, NonExpired: false, CredentialsNonExpired: true}},
		{StatusCredentialsExpired, Gates{NonLocked: true, NonExpired: true, CredentialsNonExpired: false}},
		{AccountStatus("BOGUS"), Gates{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusGates(tt.status))
		})
	}
}

func TestAccount_PendingTokenSlots(t *testing.T) {
	a := &Account{ID: "a1"}
	assert.Nil(t, a.PendingToken(TokenEmailVerification))

	ev := &VerificationToken{AccountID: "a1", Type: TokenEmailVerification, Value: "111111"}
	pr := &VerificationToken{AccountID: "a1", Type: TokenPasswordReset, Value: "222222"}
	a.SetPendingToken(ev)
	a.SetPendingToken(pr)

	assert.Same(t, ev, a.PendingToken(TokenEmailVerification))
	assert.Same(t, pr, a.PendingToken(TokenPasswordReset))

	a.SetPendingToken(&VerificationToken{Type: TokenEmailVerification, Value: "333333"})
	assert.Equal(t, "333333", a.PendingToken(TokenEmailVerification).Value)

	a.ClearPendingToken(TokenEmailVerification)
	assert.Nil(t, a.PendingToken(TokenEmailVerification))
	assert.NotNil(t, a.PendingToken(TokenPasswordReset))
}

func TestAccount_CloneIsDeep(t *testing.T) {
	now := time.Now()
	a := &Account{
		ID:                     "a1",
		EmailVerifiedAt:        &now,
		Roles:                  []Role{{ID: "r1", Authority: "USER"}},
		EmailVerificationToken: &VerificationToken{Value: "123456"},
	}
	c := a.Clone()
	c.Roles[0].Authority = "ADMIN"
	c.EmailVerificationToken.Value = "000000"
	*c.EmailVerifiedAt = now.Add(time.Hour)

	assert.Equal(t, "USER", a.Roles[0].Authority)
	assert.Equal(t, "123456", a.EmailVerificationToken.Value)
	assert.True(t, a.EmailVerifiedAt.Equal(now))
}

func TestAccount_ViewHidesSecrets(t *testing.T) {
	a := &Account{
		ID: "a1", Username: "jane", Email: "jane@x.com", PasswordHash: "hash",
		Status: StatusActive, Roles: []Role{{Authority: "USER"}},
	}
	v := a.View()
	require.NotNil(t, v)
	assert.Equal(t, []string{"USER"}, v.Roles)
	assert.Equal(t, "ACTIVE", v.Status)
}

func TestExpiry(t *testing.T) {
	now := time.Now()
	tok := &VerificationToken{ExpiresAt: now}
	assert.False(t, tok.Expired(now), "expiry instant is still valid")
	assert.False(t, tok.Expired(now.Add(-time.Second)))
	assert.True(t, tok.Expired(now.Add(time.Nanosecond)))

	s := &Session{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.Expired(now))
	assert.False(t, s.Expired(now.Add(time.Minute)))
	assert.True(t, s.Expired(now.Add(time.Minute+time.Second)))
}

func TestAccountPatch_Empty(t *testing.T) {
	assert.True(t, AccountPatch{}.Empty())
	name := "Jane"
	assert.False(t, AccountPatch{FirstName: &name}.Empty())
}
