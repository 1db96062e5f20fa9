// Package cli holds process bootstrap shared by cmd/tracker and
// cmd/tracker-worker, and the terminal rendering of reports.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgettracker/internal/backend"
	"budgettracker/internal/config"
	"budgettracker/internal/events"
	applog "budgettracker/internal/log"
	"budgettracker/internal/store"
)

// SetupLogger builds the application logger at level, writing to out
// (stdout when nil), and installs it as the slog default.
func SetupLogger(level string, out io.Writer) *applog.Logger {
	logger := applog.New(applog.Config{Level: applog.ParseLevel(level), Component: applog.ComponentApp, Output: out})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env files for local development. Missing files are
// not an error.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadAndValidateConfig loads configuration from the environment, lets
// override adjust it (command-line flags), then validates it.
func LoadAndValidateConfig(override func(*config.Config)) (*config.Config, error) {
	cfg := config.Load()
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// App is a loaded record store with the resources behind it.
type App struct {
	Config  *config.Config
	Logger  *applog.Logger
	Store   *store.Store
	Backend *backend.BackendResult
	Feed    *events.Client
	Load    store.LoadResult
}

// Bootstrap opens the configured backend, loads the store and, when
// AMQP is configured and withFeed is set, attaches the change publisher.
// A broker that cannot be reached is logged and skipped.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *applog.Logger, withFeed bool) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend)).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger, Backend: res}
	app.Store = store.New(res.Backend)
	app.Store.SetLogger(logger.WithComponent(applog.ComponentStore).Logger)

	if withFeed && cfg.FeedEnabled() {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPPrefetch)
		if err != nil {
			logger.WarnContext(ctx, "Change feed unavailable, continuing without it", "error", err)
		} else {
			app.Feed = client
			app.Store.AddListener(events.NewPublisher(client, logger.WithComponent(applog.ComponentEvents).Logger))
			logger.InfoContext(ctx, "Change feed enabled",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	app.Load = app.Store.Load(ctx)
	if app.Load.Degraded != nil {
		logger.WarnContext(ctx, "Stored data could not be fully read", "error", app.Load.Degraded)
	}
	logger.InfoContext(ctx, "Record store loaded",
		"backend", bcfg.Type,
		"transactions", app.Load.Transactions,
		"budgets", app.Load.Budgets)
	return app, nil
}

// Close releases the feed connection and the backend.
func (a *App) Close() error {
	var errs []error
	if a.Feed != nil {
		errs = append(errs, a.Feed.Close())
	}
	errs = append(errs, a.Backend.Close())
	return errors.Join(errs...)
}
