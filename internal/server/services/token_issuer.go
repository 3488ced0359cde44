package services

import (
	"encoding/base32"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// CodeGenerator yields fresh one-time codes.
type CodeGenerator interface {
	Next() (string, error)
}

// HOTPGenerator produces 6-digit HOTP (SHA-256) codes from a process-wide
// secret and a monotonically increasing counter.
type HOTPGenerator struct {
	secret  string
	counter atomic.Uint64
}

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewHOTPGenerator returns a generator for the base32 secret. An empty
// secret is replaced by a random one; the counter starts at start.
func NewHOTPGenerator(secret string, start uint64) (*HOTPGenerator, error) {
	secret = strings.ToUpper(strings.TrimSpace(secret))
	if secret == "" {
		secret = b32.EncodeToString(common.GenerateRandByteArray(20))
	} else if _, err := b32.DecodeString(strings.TrimRight(secret, "=")); err != nil {
		return nil, fmt.Errorf("verification code secret is not base32: %w", err)
	}

	g := &HOTPGenerator{secret: secret}
	g.counter.Store(start)
	return g, nil
}

// Next returns the code for the next counter value.
func (g *HOTPGenerator) Next() (string, error) {
	return hotp.GenerateCodeCustom(g.secret, g.counter.Add(1), hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA256,
	})
}

// TokenIssuer issues and validates the single-use codes held in an
// account's pending slots. It only mutates the account value; persisting
// the change is up to the caller.
type TokenIssuer struct {
	codes    CodeGenerator
	validity time.Duration
	now      func() time.Time
}

// NewTokenIssuer returns a TokenIssuer whose codes live for validity.
func NewTokenIssuer(codes CodeGenerator, validity time.Duration, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{codes: codes, validity: validity, now: now}
}

// Issue generates a new code of type t and replaces any pending one.
func (i *TokenIssuer) Issue(account *models.Account, t models.TokenType) (*models.VerificationToken, error) {
	value, err := i.codes.Next()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	tok := &models.VerificationToken{
		AccountID: account.ID,
		Type:      t,
		Value:     value,
		ExpiresAt: i.now().Add(i.validity),
	}
	account.SetPendingToken(tok)
	return tok, nil
}

// Validate checks supplied against the pending code of type t. A missing
// code or a mismatch fails with common.ErrInvalidToken, an expired code with
// common.ErrTokenExpired; in both cases the pending code is kept. Expiry is
// checked before equality. A match clears the slot.
func (i *TokenIssuer) Validate(account *models.Account, t models.TokenType, supplied string) error {
	pending := account.PendingToken(t)
	if pending == nil {
		return common.ErrInvalidToken
	}
	if pending.Expired(i.now()) {
		return common.ErrTokenExpired
	}
	if strings.TrimSpace(supplied) != pending.Value {
		return common.ErrInvalidToken
	}

	account.ClearPendingToken(t)
	return nil
}
