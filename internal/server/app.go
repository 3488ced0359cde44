// Package server wires the gophauth components together: storage, locks,
// mail, metrics and the gRPC endpoint.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/lock"
	"github.com/dmitrijs2005/gophauth/internal/server/mail"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/telemetry"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
	service  *services.AuthService
	reporter *telemetry.Reporter

	db    *sql.DB
	redis redis.UniversalClient
}

// storage is the persistence chosen by the configuration.
type storage struct {
	db    dbx.DBTX
	tx    dbx.Transactor
	repos repomanager.RepositoryManager
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	registry := telemetry.NewRegistry()
	app := &App{
		config:   c,
		logger:   logging.NewJSONLogger(os.Stdout, c.LogLevel, "gophauth"),
		registry: registry,
		metrics:  telemetry.NewMetrics(registry),
	}

	st, err := app.initStorage(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	if err := services.SeedRoles(ctx, st.repos, st.db, models.DefaultRole); err != nil {
		app.Close()
		return nil, fmt.Errorf("seed roles: %w", err)
	}

	locker, err := app.initLocker(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("lock init error: %w", err)
	}

	codes, err := services.NewHOTPGenerator(c.VerificationCodeSecret, uint64(time.Now().UnixNano()))
	if err != nil {
		app.Close()
		return nil, err
	}

	hub, err := telemetry.NewSentryHub(sentry.ClientOptions{Dsn: c.SentryDSN, Release: "gophauth"})
	if err != nil {
		app.Close()
		return nil, err
	}
	app.reporter = telemetry.NewReporter(app.logger, app.metrics).WithSentry(hub)

	hasher := auth.NewBcryptHasher(0)
	mailer := mail.NewSMTPDispatcher(mail.Options{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
		FromName: c.MailFromName,
		Timeout:  c.OperationTimeout,
		Observe:  app.metrics.ObserveEmail,
	}, app.logger)

	app.service = services.NewAuthService(services.Deps{
		DB:            st.db,
		Transactor:    st.tx,
		Repos:         st.repos,
		Tokens:        services.NewTokenIssuer(codes, c.VerificationCodeValidity, time.Now),
		Sessions:      services.NewSessionManager(st.repos, c.SessionLifespan(), time.Now),
		Store:         services.NewCredentialStore(st.repos),
		Validate:      services.NewValidator(),
		Authenticator: auth.NewAuthenticator(hasher),
		Minter:        auth.NewMinter([]byte(c.SecretKey), c.AccessTokenValidityDuration),
		Hasher:        hasher,
		Mailer:        mailer,
		Locker:        locker,
		Reporter:      app.reporter,
		Log:           app.logger,
		CodeValidity:  c.VerificationCodeValidity,
		Now:           time.Now,
	})

	return app, nil
}

// initStorage opens PostgreSQL and applies migrations when a DSN is set,
// and falls back to process memory otherwise.
func (app *App) initStorage(ctx context.Context) (storage, error) {
	if app.config.DatabaseDSN == "" {
		app.logger.Warn(ctx, "DATABASE_DSN is empty, accounts are kept in memory")
		mem := memory.NewStore()
		return storage{
			tx:    memory.NewTransactor(mem),
			repos: memory.NewRepositoryManager(mem),
		}, nil
	}

	db, err := repomanager.OpenPostgres(ctx, app.config.DatabaseDSN)
	if err != nil {
		return storage{}, err
	}
	app.db = db

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return storage{}, err
	}

	return storage{
		db:    db,
		tx:    dbx.NewSQLTransactor(db, nil),
		repos: repos,
	}, nil
}

// initLocker uses Redis when configured so that several instances serialize
// on the same accounts.
func (app *App) initLocker(ctx context.Context) (lock.Locker, error) {
	if app.config.RedisAddr == "" {
		return lock.NewKeyedMutex(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: app.config.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	app.redis = client

	return lock.NewRedisLocker(client, app.config.LockTTL, ""), nil
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.service, app.config.SecretKey, app.metrics)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.MetricsAddr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler(app.registry))
	srv := &http.Server{
		Addr:              app.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is done or one of the servers fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
}

// Close releases the database pool and the Redis client.
func (app *App) Close() {
	if app.reporter != nil {
		app.reporter.Flush(2 * time.Second)
	}
	if app.db != nil {
		_ = app.db.Close()
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
}
