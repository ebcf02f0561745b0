// Package app initializes and runs the application server. It opens the
// database, applies migrations, wires services to their backends, and
// serves the HTTP API until the process is told to stop.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avankov/pixvault/internal/api"
	"github.com/avankov/pixvault/internal/assetindex"
	"github.com/avankov/pixvault/internal/assets"
	"github.com/avankov/pixvault/internal/config"
	"github.com/avankov/pixvault/internal/logging"
	"github.com/avankov/pixvault/internal/notifier"
	"github.com/avankov/pixvault/internal/repositories/repomanager"
	"github.com/avankov/pixvault/internal/services"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	notifier notifier.Notifier
	handler  http.Handler
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	var n notifier.Notifier = notifier.Noop{}
	if cfg.NATSEndpoint != "" {
		nn, err := notifier.NewNATSNotifier(cfg.NATSEndpoint, logger)
		if err != nil {
			return nil, fmt.Errorf("nats init error: %w", err)
		}
		n = nn
	}

	index := assetindex.NewClient(cfg.AssetIndexEndpoint, cfg.AssetIndexKey, cfg.AssetIndexSecret)
	signer := assets.NewSigner(assets.Config{
		Region:       cfg.S3Region,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Bucket:       cfg.S3Bucket,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})

	userService := services.NewUserService(db, rm, n, logger)
	imageService := services.NewImageService(db, rm, index, n, logger,
		cfg.AssetFolder, cfg.PageSize, cfg.DeleteRequiresOwner)

	handler := api.NewRouter(userService, imageService, signer, []byte(cfg.IdentitySecretKey))

	return &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		notifier: n,
		handler:  handler,
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

// Run serves the HTTP API until ctx is cancelled or a termination signal
// arrives, then shuts down gracefully.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	server := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.handler,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if c, ok := app.notifier.(*notifier.NATSNotifier); ok {
		c.Close()
	}
	return app.db.Close()
}
