// Package server initializes and runs the results server: it connects to
// Postgres, applies migrations, assembles the service layer, and serves the
// HTTP API until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/logging"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/auth"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/config"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/httpapi"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/mail"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/repomanager"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/services"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/storage"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.API
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	sender := newMailSender(cfg, logger)

	files, err := newFileStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	codec := auth.NewCodec([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	tokens := services.NewEmailTokenService(db, rm, cfg)
	sessions := services.NewSessionService(db, rm, cfg)
	authSvc := services.NewAuthService(db, rm, tokens, sessions, codec, sender, cfg, logger)
	noteSvc := services.NewNoteService(db, rm, logger)
	uploadSvc := services.NewUploadService(db, rm, noteSvc, files, logger)

	api := httpapi.NewAPI(authSvc, noteSvc, uploadSvc, cfg, logger)

	return &App{config: cfg, logger: logger, db: db, api: api}, nil
}

// openDB opens the pool and waits for the database to accept connections,
// retrying with a fibonacci backoff so the server survives a database that
// starts slightly later than it does.
func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	b := retry.WithMaxDuration(30*time.Second, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// newMailSender picks the outbound transport: real SMTP when credentials are
// configured, otherwise a console sender that logs the links.
func newMailSender(cfg *config.Config, logger logging.Logger) mail.Sender {
	if cfg.SMTPUser != "" {
		return mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
	}
	return mail.NewConsoleSender(logger)
}

func newFileStore(ctx context.Context, cfg *config.Config) (storage.FileStore, error) {
	if cfg.StorageType == "s3" {
		return storage.NewS3Store(ctx, storage.S3Options{
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	}
	return storage.NewLocalStore(cfg.UploadDir)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.api.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "shutdown error", "error", err)
	}
	return app.db.Close()
}
