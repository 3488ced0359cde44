// Package services contains server-side business logic: the one-time code
// issuer, the session manager, the credential store and the AuthService
// that orchestrates them.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/lock"
	"github.com/dmitrijs2005/gophauth/internal/server/mail"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// Deps are the collaborators of an AuthService.
type Deps struct {
	// DB is used for reads outside a transaction; it may be nil when the
	// repositories ignore their handle.
	DB         dbx.DBTX
	Transactor dbx.Transactor
	Repos      repomanager.RepositoryManager

	Tokens   *TokenIssuer
	Sessions *SessionManager
	Store    *CredentialStore
	Validate *Validator

	Authenticator Authenticator
	Minter        TokenMinter
	Hasher        PasswordHasher
	Mailer        EmailDispatcher
	Locker        lock.Locker
	Reporter      ErrorReporter
	Log           logging.Logger

	// CodeValidity is quoted in outgoing emails.
	CodeValidity time.Duration
	Now          func() time.Time
}

// AuthService implements registration, email verification, login, password
// reset, profile patching, logout, refresh and account deletion. Domain
// errors from internal/common are returned as is; anything else is reported
// and surfaced as common.ErrorInternal or common.ErrEmailDispatch.
type AuthService struct {
	db    dbx.DBTX
	tx    dbx.Transactor
	repos repomanager.RepositoryManager

	tokens   *TokenIssuer
	sessions *SessionManager
	store    *CredentialStore
	validate *Validator

	authenticator Authenticator
	minter        TokenMinter
	hasher        PasswordHasher
	mailer        EmailDispatcher
	locker        lock.Locker
	reporter      ErrorReporter
	log           logging.Logger

	codeValidity time.Duration
	now          func() time.Time
}

func NewAuthService(d Deps) *AuthService {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = logging.Nop()
	}
	return &AuthService{
		db:            d.DB,
		tx:            d.Transactor,
		repos:         d.Repos,
		tokens:        d.Tokens,
		sessions:      d.Sessions,
		store:         d.Store,
		validate:      d.Validate,
		authenticator: d.Authenticator,
		minter:        d.Minter,
		hasher:        d.Hasher,
		mailer:        d.Mailer,
		locker:        d.Locker,
		reporter:      d.Reporter,
		log:           d.Log.With("module", "auth"),
		codeValidity:  d.CodeValidity,
		now:           d.Now,
	}
}

// Register creates an unverified ACTIVE account holding the default role
// and a pending EMAIL_VERIFICATION code, commits it, then mails the code.
// Format problems and taken email/username are reported together in one
// common.ValidationError. If the email cannot be sent the account stays
// registered and common.ErrEmailDispatch is returned; requesting a new
// verification code is the way out.
func (s *AuthService) Register(ctx context.Context, in RegistrationInput) (*models.Account, error) {
	const op = "register"

	violations := s.validate.Registration(in)

	unlock, err := s.lockKeys(ctx, emailKey(in.Email), usernameKey(in.Username))
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	defer unlock()

	var hash string
	if _, bad := violations[FieldPassword]; !bad {
		if hash, err = s.hasher.Hash(in.Password); err != nil {
			return nil, s.fail(ctx, op, fmt.Errorf("hash password: %v", err))
		}
	}

	var (
		account *models.Account
		code    *models.VerificationToken
	)
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.checkUnique(ctx, tx, violations, in.Email, in.Username, ""); err != nil {
			return err
		}
		if err := common.NewValidationError(violations); err != nil {
			return err
		}

		role, err := s.repos.Roles(tx).FindByAuthority(ctx, models.DefaultRole)
		if err != nil {
			return fmt.Errorf("default role %s: %v", models.DefaultRole, err)
		}

		account = &models.Account{
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Email:        in.Email,
			Username:     in.Username,
			PasswordHash: hash,
			Status:       models.StatusActive,
			CreatedAt:    s.now().UTC(),
			Roles:        []models.Role{*role},
		}
		if code, err = s.tokens.Issue(account, models.TokenEmailVerification); err != nil {
			return err
		}
		account, err = s.store.Create(ctx, tx, account)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.log.Info(ctx, "account registered", "account_id", account.ID)

	if err := s.dispatch(ctx, account, code); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return account, nil
}

// RequestEmailVerification replaces the pending verification code of the
// account matching identifier and mails the new one.
func (s *AuthService) RequestEmailVerification(ctx context.Context, identifier string) error {
	return s.reissue(ctx, "request_email_verification", identifier, models.TokenEmailVerification)
}

// RequestPasswordReset replaces the pending reset code of the account
// matching identifier and mails the new one.
func (s *AuthService) RequestPasswordReset(ctx context.Context, identifier string) error {
	return s.reissue(ctx, "request_password_reset", identifier, models.TokenPasswordReset)
}

func (s *AuthService) reissue(ctx context.Context, op, identifier string, t models.TokenType) error {
	if err := s.validate.Check(map[string]string{FieldIdentifier: identifier}); err != nil {
		return err
	}

	found, err := s.store.FindByIdentifier(ctx, s.db, identifier)
	if err != nil {
		return s.fail(ctx, op, err)
	}

	var (
		account *models.Account
		code    *models.VerificationToken
	)
	err = s.mutate(ctx, found.ID, func(ctx context.Context, tx dbx.DBTX, a *models.Account) error {
		var err error
		if code, err = s.tokens.Issue(a, t); err != nil {
			return err
		}
		account = a
		return s.store.Save(ctx, tx, a)
	})
	if err != nil {
		return s.fail(ctx, op, err)
	}

	if err := s.dispatch(ctx, account, code); err != nil {
		return s.fail(ctx, op, err)
	}
	return nil
}

// VerifyEmail consumes the verification code of the account with email,
// marks the address verified and opens a session.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*models.AuthResult, error) {
	const op = "verify_email"

	code = strings.TrimSpace(code)
	if err := s.validate.Check(map[string]string{FieldEmail: email, FieldCode: code}); err != nil {
		return nil, err
	}

	found, err := s.store.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	var result *models.AuthResult
	err = s.mutate(ctx, found.ID, func(ctx context.Context, tx dbx.DBTX, a *models.Account) error {
		if a.EmailVerified {
			return common.ErrEmailAlreadyVerified
		}
		if err := s.tokens.Validate(a, models.TokenEmailVerification, code); err != nil {
			return err
		}

		verifiedAt := s.now().UTC()
		a.EmailVerified = true
		a.EmailVerifiedAt = &verifiedAt
		if err := s.store.Save(ctx, tx, a); err != nil {
			return err
		}

		var err error
		result, err = s.openSession(ctx, tx, a)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.log.Info(ctx, "email verified", "account_id", found.ID)
	return result, nil
}

// Login checks the credentials of the account matching identifier and
// opens a new session.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*models.AuthResult, error) {
	const op = "login"

	if err := s.validate.Check(map[string]string{FieldIdentifier: identifier}); err != nil {
		return nil, err
	}

	found, err := s.store.FindByIdentifier(ctx, s.db, identifier)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if !found.EmailVerified {
		return nil, common.ErrEmailNotVerified
	}
	if err := s.authenticator.Authenticate(ctx, found, password); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	var result *models.AuthResult
	err = s.mutate(ctx, found.ID, func(ctx context.Context, tx dbx.DBTX, a *models.Account) error {
		var err error
		result, err = s.openSession(ctx, tx, a)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return result, nil
}

// ResetPasswordWithToken consumes the reset code, stores the new password,
// ends every existing session of the account and opens a fresh one.
func (s *AuthService) ResetPasswordWithToken(ctx context.Context, identifier, code, newPassword string) (*models.AuthResult, error) {
	const op = "reset_password"

	code = strings.TrimSpace(code)
	err := s.validate.Check(map[string]string{
		FieldIdentifier: identifier,
		FieldCode:       code,
		FieldPassword:   newPassword,
	})
	if err != nil {
		return nil, err
	}

	found, err := s.store.FindByIdentifier(ctx, s.db, identifier)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	var result *models.AuthResult
	err = s.mutate(ctx, found.ID, func(ctx context.Context, tx dbx.DBTX, a *models.Account) error {
		if err := s.tokens.Validate(a, models.TokenPasswordReset, code); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return fmt.Errorf("hash password: %v", err)
		}
		a.PasswordHash = hash

		if err := s.authenticator.Authenticate(ctx, a, newPassword); err != nil {
			return err
		}
		if _, err := s.sessions.DeleteAll(ctx, tx, a.ID); err != nil {
			return err
		}
		if err := s.store.Save(ctx, tx, a); err != nil {
			return err
		}

		result, err = s.openSession(ctx, tx, a)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.log.Info(ctx, "password reset", "account_id", found.ID)
	return result, nil
}

// RefreshAccessToken mints a new access token for the owner of the session
// with value. No new session is created. An expired session is deleted and
// common.ErrRefreshTokenExpired returned; using it again yields
// common.ErrorNotFound.
func (s *AuthService) RefreshAccessToken(ctx context.Context, value string) (*models.AuthResult, error) {
	const op = "refresh_access_token"

	if err := s.validate.Check(map[string]string{FieldRefreshToken: value}); err != nil {
		return nil, err
	}

	found, err := s.sessions.FindByValue(ctx, s.db, value)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	var (
		result  *models.AuthResult
		expired bool
	)
	err = s.mutate(ctx, found.AccountID, func(ctx context.Context, tx dbx.DBTX, a *models.Account) error {
		session, err := s.sessions.FindByValue(ctx, tx, value)
		if err != nil {
			return err
		}
		if _, err := s.sessions.VerifyNotExpired(ctx, tx, session); err != nil {
			if errors.Is(err, common.ErrRefreshTokenExpired) {
				// commit the deletion
				expired = true
				return nil
			}
			return err
		}

		token, exp, err := s.minter.Mint(ctx, a.ID, a.Username, a.Authorities())
		if err != nil {
			return fmt.Errorf("mint access token: %v", err)
		}
		result = &models.AuthResult{
			AccountID:        a.ID,
			AccessToken:      token,
			ExpiresAt:        exp,
			RefreshToken:     session.Value,
			RefreshExpiresAt: session.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if expired {
		return nil, common.ErrRefreshTokenExpired
	}
	return result, nil
}

// ApplyPatch validates every present field of patch and applies all of them
// or none. Changing the email marks the account unverified and mails a new
// verification code once the change is committed.
func (s *AuthService) ApplyPatch(ctx context.Context, accountID string, patch models.AccountPatch) (*models.Account, error) {
	const op = "apply_patch"

	keys := []string{accountKey(accountID)}
	if patch.Email != nil {
		keys = append(keys, emailKey(*patch.Email))
	}
	if patch.Username != nil {
		keys = append(keys, usernameKey(*patch.Username))
	}

	var (
		account *models.Account
		code    *models.VerificationToken
	)
	unlock, err := s.lockKeys(ctx, keys...)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	defer unlock()

	err = s.inTx(ctx, accountID, func(ctx context.Context, tx dbx.DBTX, a *models.Account) error {
		var err error
		violations := s.patchViolations(patch)
		email, username := a.Email, a.Username
		if patch.Email != nil {
			email = *patch.Email
		}
		if patch.Username != nil {
			username = *patch.Username
		}
		if err := s.checkUnique(ctx, tx, violations, email, username, a.ID); err != nil {
			return err
		}
		if err := common.NewValidationError(violations); err != nil {
			return err
		}

		if patch.FirstName != nil {
			a.FirstName = *patch.FirstName
		}
		if patch.LastName != nil {
			a.LastName = *patch.LastName
		}
		if patch.Username != nil {
			a.Username = *patch.Username
		}
		if patch.Email != nil && strings.TrimSpace(*patch.Email) != a.Email {
			a.Email = *patch.Email
			a.EmailVerified = false
			a.EmailVerifiedAt = nil
			if code, err = s.tokens.Issue(a, models.TokenEmailVerification); err != nil {
				return err
			}
		}
		if patch.Password != nil {
			hash, err := s.hasher.Hash(*patch.Password)
			if err != nil {
				return fmt.Errorf("hash password: %v", err)
			}
			a.PasswordHash = hash
		}

		account = a
		return s.store.Save(ctx, tx, a)
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	if code != nil {
		if err := s.dispatch(ctx, account, code); err != nil {
			return nil, s.fail(ctx, op, err)
		}
	}
	return account, nil
}

func (s *AuthService) patchViolations(p models.AccountPatch) map[string]string {
	violations := make(map[string]string)
	check := func(field string, v *string) {
		if v == nil {
			return
		}
		if msg := s.validate.Field(field, *v); msg != "" {
			violations[field] = msg
		}
	}
	check(FieldFirstName, p.FirstName)
	check(FieldLastName, p.LastName)
	check(FieldEmail, p.Email)
	check(FieldUsername, p.Username)
	check(FieldPassword, p.Password)
	return violations
}

// Logout ends every session of the account.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	err := s.mutate(ctx, accountID, func(ctx context.Context, tx dbx.DBTX, a *models.Account) error {
		_, err := s.sessions.DeleteAll(ctx, tx, a.ID)
		return err
	})
	return s.fail(ctx, "logout", err)
}

// LogoutSession ends exactly one session of the account. A session owned by
// another account is reported as common.ErrorNotFound.
func (s *AuthService) LogoutSession(ctx context.Context, accountID, value string) error {
	if err := s.validate.Check(map[string]string{FieldRefreshToken: value}); err != nil {
		return err
	}

	err := s.mutate(ctx, accountID, func(ctx context.Context, tx dbx.DBTX, a *models.Account) error {
		session, err := s.sessions.FindByValue(ctx, tx, value)
		if err != nil {
			return err
		}
		if session.AccountID != a.ID {
			return common.ErrorNotFound
		}
		return s.sessions.Delete(ctx, tx, value)
	})
	return s.fail(ctx, "logout_session", err)
}

// DeleteAccount removes the account with its sessions and codes.
func (s *AuthService) DeleteAccount(ctx context.Context, accountID string) error {
	err := s.mutate(ctx, accountID, func(ctx context.Context, tx dbx.DBTX, a *models.Account) error {
		if _, err := s.sessions.DeleteAll(ctx, tx, a.ID); err != nil {
			return err
		}
		return s.store.Delete(ctx, tx, a.ID)
	})
	if err != nil {
		return s.fail(ctx, "delete_account", err)
	}
	s.log.Info(ctx, "account deleted", "account_id", accountID)
	return nil
}

// GetAccount returns the public projection of the account.
func (s *AuthService) GetAccount(ctx context.Context, accountID string) (*models.AccountView, error) {
	a, err := s.store.FindByID(ctx, s.db, accountID)
	if err != nil {
		return nil, s.fail(ctx, "get_account", err)
	}
	return a.View(), nil
}

// mutate runs fn under the account lock inside one transaction, handing it
// the account as currently stored.
func (s *AuthService) mutate(ctx context.Context, accountID string, fn func(ctx context.Context, tx dbx.DBTX, a *models.Account) error) error {
	unlock, err := s.locker.Lock(ctx, accountKey(accountID))
	if err != nil {
		return err
	}
	defer unlock()

	return s.inTx(ctx, accountID, fn)
}

// inTx runs fn inside one transaction with the account as currently stored.
// The caller holds the account lock.
func (s *AuthService) inTx(ctx context.Context, accountID string, fn func(ctx context.Context, tx dbx.DBTX, a *models.Account) error) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		a, err := s.store.FindByID(ctx, tx, accountID)
		if err != nil {
			return err
		}
		return fn(ctx, tx, a)
	})
}

// lockKeys takes the given locks in order and returns a func releasing all
// of them. Empty keys are skipped.
func (s *AuthService) lockKeys(ctx context.Context, keys ...string) (lock.Unlock, error) {
	var held []lock.Unlock
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}
	for _, k := range keys {
		if k == "" {
			continue
		}
		unlock, err := s.locker.Lock(ctx, k)
		if err != nil {
			release()
			return nil, err
		}
		held = append(held, unlock)
	}
	return release, nil
}

// checkUnique adds an "in use" violation for email and username when they
// are well-formed and held by an account other than exceptID.
func (s *AuthService) checkUnique(ctx context.Context, tx dbx.DBTX, violations map[string]string, email, username, exceptID string) error {
	if _, bad := violations[FieldEmail]; !bad {
		taken, err := s.store.EmailTaken(ctx, tx, email, exceptID)
		if err != nil {
			return err
		}
		if taken {
			violations[FieldEmail] = msgEmailInUse
		}
	}
	if _, bad := violations[FieldUsername]; !bad {
		taken, err := s.store.UsernameTaken(ctx, tx, username, exceptID)
		if err != nil {
			return err
		}
		if taken {
			violations[FieldUsername] = msgUsernameInUse
		}
	}
	return nil
}

func (s *AuthService) openSession(ctx context.Context, tx dbx.DBTX, a *models.Account) (*models.AuthResult, error) {
	session, err := s.sessions.Create(ctx, tx, a)
	if err != nil {
		return nil, err
	}
	token, exp, err := s.minter.Mint(ctx, a.ID, a.Username, a.Authorities())
	if err != nil {
		return nil, fmt.Errorf("mint access token: %v", err)
	}
	return &models.AuthResult{
		AccountID:        a.ID,
		AccessToken:      token,
		ExpiresAt:        exp,
		RefreshToken:     session.Value,
		RefreshExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *AuthService) dispatch(ctx context.Context, a *models.Account, code *models.VerificationToken) error {
	template := mail.TemplateVerifyEmail
	if code.Type == models.TokenPasswordReset {
		template = mail.TemplateResetPassword
	}
	return s.mailer.Send(ctx, a.Email, template, map[string]string{
		"token":     code.Value,
		"firstname": a.FirstName,
		"validity":  s.codeValidity.String(),
	})
}

// fail passes domain and context errors through and hides everything else
// behind a generic infrastructure error after reporting it.
func (s *AuthService) fail(ctx context.Context, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case common.IsDomainError(err):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, common.ErrEmailDispatch):
		s.reporter.Report(ctx, op, err)
		return common.ErrEmailDispatch
	default:
		s.reporter.Report(ctx, op, err)
		return common.ErrorInternal
	}
}

func accountKey(id string) string { return "account:" + id }

func emailKey(email string) string {
	if email = strings.TrimSpace(email); email == "" {
		return ""
	}
	return "email:" + strings.ToLower(email)
}

func usernameKey(username string) string {
	if username = strings.TrimSpace(username); username == "" {
		return ""
	}
	return "username:" + strings.ToLower(username)
}
