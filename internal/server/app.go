// Package server wires the barbot components together: storage, the auth
// services, the chat proxy and the HTTP server. It also handles start-up
// seeding and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/dmitrijs2005/barbot/internal/logging"
	"github.com/dmitrijs2005/barbot/internal/server/auth"
	"github.com/dmitrijs2005/barbot/internal/server/bootstrap"
	"github.com/dmitrijs2005/barbot/internal/server/chat"
	"github.com/dmitrijs2005/barbot/internal/server/config"
	"github.com/dmitrijs2005/barbot/internal/server/httpapi"
	"github.com/dmitrijs2005/barbot/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/barbot/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	userService *services.UserService
	chatService *chat.Service
}

// NewApp opens storage and builds the services. Migrations and admin
// seeding run in Run.
func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	rm, err := repomanager.New(c.DatabaseDSN, repomanager.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	secret := []byte(c.SecretKey)
	if len(secret) == 0 {
		secret = common.GenerateRandByteArray(32)
		logger.Warn(context.Background(), "SECRET_KEY not set; using a random key, tokens will not survive a restart")
	}

	tokens, err := auth.NewTokenService(secret, c.AccessTokenValidityDuration)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("token service: %w", err)
	}
	logger.Info(context.Background(), "Token service ready", "ttl", tokens.TTL().String())

	hasher := auth.NewPasswordHasher(c.BcryptCost)
	us, err := services.NewUserService(rm, hasher, tokens, logger)
	if err != nil {
		_ = rm.Close()
		return nil, err
	}

	var completer chat.Completer
	if c.AnthropicAPIKey != "" {
		completer = chat.NewAnthropicClient(c.AnthropicBaseURL, c.AnthropicAPIKey, c.RequestTimeout)
	}
	cs := chat.NewService(completer, chat.Options{
		Model:         c.ChatModel,
		MaxTokens:     c.ChatMaxTokens,
		AllowedTopics: c.ChatAllowedTopics,
	}, logger)
	if !cs.Enabled() {
		logger.Warn(context.Background(), "ANTHROPIC_API_KEY not set; /chat will answer 503")
	}

	return &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		hasher:      hasher,
		userService: us,
		chatService: cs,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// prepare migrates the schema and seeds the admin account.
func (app *App) prepare(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	admin := bootstrap.AdminAccount{
		Username: app.config.AdminUsername,
		Email:    app.config.AdminEmail,
		FullName: app.config.AdminFullName,
		Password: app.config.AdminPassword,
	}
	created, err := bootstrap.EnsureAdmin(ctx, app.repomanager.Users(), app.hasher, admin, app.logger)
	if err != nil {
		return fmt.Errorf("admin bootstrap: %w", err)
	}
	if created && app.config.AdminPassword == config.DefaultAdminPassword {
		app.logger.Warn(ctx, "admin account created with the default password; change it")
	}
	return nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	s := httpapi.NewServer(httpapi.Options{
		Address:        app.config.EndpointAddrHTTP,
		RequestTimeout: app.config.RequestTimeout,
		AllowedOrigins: app.config.CORSAllowedOrigins,
	}, app.logger, app.userService, app.chatService, app.repomanager)

	if err := s.Run(ctx); err != nil {
		cancelFunc()
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	defer func() {
		if err := app.repomanager.Close(); err != nil {
			app.logger.Error(ctx, "closing storage", "error", err)
		}
	}()

	if err := app.prepare(ctx); err != nil {
		return err
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	errs := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	close(errs)

	var runErr error
	for err := range errs {
		runErr = errors.Join(runErr, err)
	}
	if runErr != nil {
		app.logger.Error(context.Background(), "App stopped with error", "error", runErr)
		return runErr
	}

	app.logger.Info(context.Background(), "App stopped")
	return nil
}
