package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/openbridgehq/hubconsole/internal/console/http"
	"github.com/openbridgehq/hubconsole/internal/console/service"
	"github.com/openbridgehq/hubconsole/internal/console/store"
	"github.com/openbridgehq/hubconsole/internal/console/store/file"
	"github.com/openbridgehq/hubconsole/pkg/jwtx"
	"github.com/openbridgehq/hubconsole/pkg/otpx"
	"github.com/openbridgehq/hubconsole/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	shutdownGracePeriod = 10 * time.Second
)

// Application encapsulates the console with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	users    store.Users
	identity Identity

	authService  *service.AuthService
	userService  *service.UserService
	otpService   *service.OtpService
	tokenService *service.TokenService
	setupState   *service.SetupState

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "hubconsole",
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	identity, err := LoadOrCreateIdentity(cfg.SecretsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize instance identity: %w", err)
	}
	app.identity = identity

	app.users = file.New(cfg.UserFilePath)

	// Seed the runtime setup flag from the auth file on disk.
	complete, err := app.users.SetupComplete(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read auth file: %w", err)
	}
	app.setupState = service.NewSetupState(complete)

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("console starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"auth_mode", app.cfg.AuthMode,
		"instance_id", app.identity.InstanceID,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully drains the HTTP server.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down console...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.logger.Info("console stopped")
	return nil
}

func (app *Application) initServices() {
	app.userService = &service.UserService{Store: app.users}

	app.otpService = &service.OtpService{
		Users:  app.userService,
		Engine: &otpx.Engine{Issuer: app.cfg.OtpIssuer},
		Replay: service.NewReplayGuard(service.OtpTolerance),
	}

	app.tokenService = &service.TokenService{
		Signer:     jwtx.NewSigner([]byte(app.identity.SecretKey)),
		Users:      app.userService,
		Setup:      app.setupState,
		InstanceID: app.identity.InstanceID,
		AuthMode:   app.cfg.AuthMode,
		SessionTTL: app.cfg.SessionTimeout,
	}

	app.authService = &service.AuthService{
		Users:  app.userService,
		Otp:    app.otpService,
		Tokens: app.tokenService,
		Setup:  app.setupState,
	}
}

func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(app.logger)
	app.router.AuthService = app.authService
	app.router.UserService = app.userService
	app.router.OtpService = app.otpService
	app.router.TokenService = app.tokenService
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
