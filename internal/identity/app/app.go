package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/credstore"
	httpapi "github.com/aussiebroadwan/identity/internal/identity/http"
	"github.com/aussiebroadwan/identity/internal/identity/notify"
	"github.com/aussiebroadwan/identity/internal/identity/oauth"
	"github.com/aussiebroadwan/identity/internal/identity/profile"
	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/aussiebroadwan/identity/internal/identity/store/drivers/sqlite"
	"github.com/aussiebroadwan/identity/pkg/cryptox"
	"github.com/aussiebroadwan/identity/pkg/jwtx"
	"github.com/aussiebroadwan/identity/pkg/otelx"
	"github.com/aussiebroadwan/identity/pkg/retry"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
	serviceName  = "identity-service"
)

// Application encapsulates the identity service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db             store.Store
	creds          credstore.Store
	engine         *jwtx.Engine
	mailer         notify.Mailer
	closeMailer    func() error
	shutdownTracer func(context.Context) error

	// Services
	accountService      *service.AccountService
	tokenService        *service.TokenService
	oauthService        *service.OAuthService
	userService         *service.UserService
	partnerService      *service.PartnerService
	adminService        *service.AdminService
	housekeepingService *service.HousekeepingService
	dispatcher          *notify.Dispatcher

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates an Application with every dependency initialised. Nothing is
// started until Run or Start.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: serviceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	shutdown, err := otelx.Setup(context.Background(), otelx.Config{
		Enabled:  cfg.Tracing.Enabled,
		Endpoint: cfg.Tracing.Endpoint,
		Service:  serviceName,
		Version:  BuildVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.shutdownTracer = shutdown

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initCredentialStore(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	key, err := jwtx.DecodeSecret(cfg.JWT.Secret)
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to decode JWT secret: %w", err)
	}
	app.engine, err = jwtx.NewEngine(jwtx.Config{
		Secret:     key,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Leeway:     cfg.JWT.Leeway,
	})
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to initialize token engine: %w", err)
	}

	if err := app.initMailer(); err != nil {
		app.closeStores()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Start launches the background workers.
func (app *Application) Start() {
	app.dispatcher.Start()
	app.housekeepingService.Start()
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.Start()

	app.logger.Info("identity service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops the server, drains queued notices and closes every
// connection.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down identity service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()
	app.dispatcher.Stop()

	var errs []error
	if app.closeMailer != nil {
		if err := app.closeMailer(); err != nil {
			app.logger.Error("error closing mailer", "error", err)
			errs = append(errs, err)
		}
	}
	if err := app.creds.Close(); err != nil {
		app.logger.Error("error closing credential store", "error", err)
		errs = append(errs, err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}
	if err := app.shutdownTracer(ctx); err != nil {
		app.logger.Error("error flushing traces", "error", err)
		errs = append(errs, err)
	}

	app.logger.Info("identity service stopped")
	return errors.Join(errs...)
}

func (app *Application) closeStores() {
	if app.creds != nil {
		_ = app.creds.Close()
	}
	_ = app.db.Close()
}

// initDatabase opens SQLite and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	if app.cfg.DatabaseFile == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initCredentialStore() error {
	if app.cfg.Redis.Addr == "" {
		app.logger.Warn("REDIS_ADDR not set, keeping tokens in process memory")
		app.creds = credstore.NewMemory()
		return nil
	}

	rs := credstore.NewRedis(credstore.RedisConfig{
		Addr:      app.cfg.Redis.Addr,
		Password:  app.cfg.Redis.Password,
		DB:        app.cfg.Redis.DB,
		OpTimeout: app.cfg.Redis.OpTimeout,
		Retry:     retry.Store,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rs.Ping(ctx); err != nil {
		_ = rs.Close()
		return fmt.Errorf("failed to reach redis at %s: %w", app.cfg.Redis.Addr, err)
	}

	app.creds = rs
	app.logger.Info("credential store connected", "addr", app.cfg.Redis.Addr)
	return nil
}

func (app *Application) initMailer() error {
	switch strings.ToLower(app.cfg.Mailer) {
	case MailerSMTP:
		app.mailer = notify.NewSMTPMailer(app.cfg.SMTP, app.cfg.Subjects)
	case MailerKafka:
		km := notify.NewKafkaMailer(notify.NewKafkaWriter(app.cfg.Kafka), app.cfg.Subjects, app.cfg.Kafka.WriteTimeout)
		app.mailer = km
		app.closeMailer = km.Close
	case MailerLog, "":
		app.mailer = notify.NewLogMailer(app.logger, app.cfg.Subjects)
	default:
		return fmt.Errorf("unknown mailer %q", app.cfg.Mailer)
	}
	app.logger.Info("mailer configured", "mailer", app.cfg.Mailer)
	return nil
}

func (app *Application) providers() *oauth.Registry {
	var ps []oauth.Provider
	for _, p := range []struct {
		cfg   oauth.ProviderConfig
		build func(oauth.ProviderConfig, *http.Client) oauth.Provider
	}{
		{app.cfg.Naver, oauth.Naver},
		{app.cfg.Kakao, oauth.Kakao},
		{app.cfg.Google, oauth.Google},
	} {
		if !p.cfg.Enabled() {
			continue
		}
		prov := p.build(p.cfg, nil)
		ps = append(ps, prov)
		app.logger.Info("social provider enabled", "provider", prov.Name())
	}
	return oauth.NewRegistry(ps...)
}

// initServices wires the identity flows.
func (app *Application) initServices() {
	profileConfig := func(base string) profile.Config {
		return profile.Config{
			BaseURL:       base,
			InternalToken: app.cfg.Profiles.InternalToken,
			Timeout:       app.cfg.Profiles.Timeout,
		}
	}
	partners := profile.NewPartnerClient(profileConfig(app.cfg.Profiles.PartnerURL))

	app.dispatcher = notify.NewDispatcher(app.mailer, app.logger, notify.DispatcherConfig{})

	app.accountService = &service.AccountService{Store: app.db}
	app.tokenService = &service.TokenService{
		Engine:   app.engine,
		Creds:    app.creds,
		Accounts: app.accountService,
	}
	app.oauthService = &service.OAuthService{
		Registry: app.providers(),
		Creds:    app.creds,
		Accounts: app.accountService,
		Tokens:   app.tokenService,
		StateTTL: app.cfg.OAuthStateTTL,
	}
	app.userService = &service.UserService{
		Accounts: app.accountService,
		Tokens:   app.tokenService,
		Profiles: profile.NewUserClient(profileConfig(app.cfg.Profiles.UserURL)),
	}
	app.partnerService = &service.PartnerService{
		Accounts:        app.accountService,
		Tokens:          app.tokenService,
		Profiles:        partners,
		Creds:           app.creds,
		Mailer:          app.mailer,
		Notices:         app.dispatcher,
		BaseURL:         strings.TrimSuffix(app.cfg.PublicBaseURL, "/"),
		VerificationTTL: app.cfg.VerificationTTL,
		SignupGrace:     app.cfg.SignupGrace,
	}
	app.adminService = &service.AdminService{
		Accounts:       app.accountService,
		Tokens:         app.tokenService,
		Profiles:       profile.NewAdminClient(profileConfig(app.cfg.Profiles.AdminURL)),
		BootstrapToken: app.cfg.BootstrapToken,
		TOTPIssuer:     app.cfg.TOTPIssuer,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.accountService,
		partners,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.SignupGrace,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.engine,
		BuildVersion,
		map[string]httpapi.Pinger{
			"database":  app.db,
			"credstore": app.creds,
		},
		app.logger,
	)

	router.TrustGateway = app.cfg.TrustGateway
	router.TokenService = app.tokenService
	router.OAuthService = app.oauthService
	router.UserService = app.userService
	router.PartnerService = app.partnerService
	router.AdminService = app.adminService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
