// Package server initializes and runs the floraid application server:
// database, migrations, services, the HTTP API, and the health endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/verdantlab/floraid/internal/logging"
	"github.com/verdantlab/floraid/internal/server/config"
	"github.com/verdantlab/floraid/internal/server/hashing"
	"github.com/verdantlab/floraid/internal/server/health"
	"github.com/verdantlab/floraid/internal/server/httpapi"
	"github.com/verdantlab/floraid/internal/server/mail"
	"github.com/verdantlab/floraid/internal/server/oauth"
	"github.com/verdantlab/floraid/internal/server/repositories/repomanager"
	"github.com/verdantlab/floraid/internal/server/services"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.Server
	health     *health.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	hasher := hashing.NewHasher(hashing.DefaultParams())
	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.MailHost,
		Port:     cfg.MailPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		From:     cfg.MailFrom,
		FromName: cfg.MailFromName,
	})
	verifier := oauth.NewGoogleVerifier(cfg.GoogleClientID)

	userService := services.NewUserService(db, rm, hasher, mailer, verifier, logger, cfg)
	speciesService := services.NewSpeciesService(db, rm, cfg)
	identificationService := services.NewIdentificationService(db, rm)

	handler := httpapi.NewHandler(userService, speciesService, identificationService, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		httpServer: httpapi.NewServer(cfg.EndpointAddrHTTP, handler, logger),
		health:     health.NewServer(cfg.EndpointAddrHealth, db, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.health.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing db", "error", err)
	}
}
