package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/lock"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret       = "test-secret"
	testCodeValidity = 15 * time.Minute
	testSessionLife  = 24 * time.Hour
	testPassword     = "Aa1@aaaa"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// seqCodes hands out 100001, 100002, ...
type seqCodes struct {
	mu sync.Mutex
	n  int
}

func (s *seqCodes) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%06d", 100000+s.n), nil
}

type sentMail struct {
	to       string
	template string
	vars     map[string]string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, templateName string, vars map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, template: templateName, vars: vars})
	return nil
}

func (m *fakeMailer) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email sent")
	return m.sent[len(m.sent)-1]
}

type fakeReporter struct {
	mu   sync.Mutex
	errs []error
	ops  []string
}

func (r *fakeReporter) Report(_ context.Context, operation string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, operation)
	r.errs = append(r.errs, err)
}

type failingTx struct {
	err error
}

func (f failingTx) WithTx(context.Context, func(context.Context, dbx.DBTX) error) error {
	return f.err
}

type harness struct {
	svc      *AuthService
	store    *CredentialStore
	sessions *SessionManager
	repos    *memory.RepositoryManager
	mail     *fakeMailer
	reporter *fakeReporter
	clock    *fakeClock
	deps     Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mem := memory.NewStore()
	repos := memory.NewRepositoryManager(mem)
	require.NoError(t, SeedRoles(context.Background(), repos, nil, models.DefaultRole))

	clock := newFakeClock()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	h := &harness{
		store:    NewCredentialStore(repos),
		sessions: NewSessionManager(repos, testSessionLife, clock.Now),
		repos:    repos,
		mail:     &fakeMailer{},
		reporter: &fakeReporter{},
		clock:    clock,
	}
	h.deps = Deps{
		Transactor:    memory.NewTransactor(mem),
		Repos:         repos,
		Tokens:        NewTokenIssuer(&seqCodes{}, testCodeValidity, clock.Now),
		Sessions:      h.sessions,
		Store:         h.store,
		Validate:      NewValidator(),
		Authenticator: auth.NewAuthenticator(hasher),
		Minter:        auth.NewMinter([]byte(testSecret), 5*time.Minute),
		Hasher:        hasher,
		Mailer:        h.mail,
		Locker:        lock.NewKeyedMutex(),
		Reporter:      h.reporter,
		CodeValidity:  testCodeValidity,
		Now:           clock.Now,
	}
	h.svc = NewAuthService(h.deps)
	return h
}

func jane() RegistrationInput {
	return RegistrationInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Username:  "janedoe",
		Password:  testPassword,
	}
}

// register creates an account and returns it with the mailed code.
func (h *harness) register(t *testing.T, in RegistrationInput) (*models.Account, string) {
	t.Helper()
	a, err := h.svc.Register(context.Background(), in)
	require.NoError(t, err)
	return a, h.mail.last(t).vars["token"]
}

// verified registers and verifies an account, returning the first session.
func (h *harness) verified(t *testing.T, in RegistrationInput) (*models.Account, *models.AuthResult) {
	t.Helper()
	a, code := h.register(t, in)
	res, err := h.svc.VerifyEmail(context.Background(), in.Email, code)
	require.NoError(t, err)
	return a, res
}

func (h *harness) account(t *testing.T, id string) *models.Account {
	t.Helper()
	a, err := h.store.FindByID(context.Background(), nil, id)
	require.NoError(t, err)
	return a
}
