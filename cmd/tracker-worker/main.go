package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgettracker/internal/cli"
	"budgettracker/internal/config"
	"budgettracker/internal/events"
	applog "budgettracker/internal/log"
	"budgettracker/internal/sheets"
	gsheet "budgettracker/internal/sheets/google"
	mem "budgettracker/internal/sheets/memory"
	"budgettracker/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		applog.New(applog.DefaultConfig()).Error("Failed to load env file", "error", err)
		os.Exit(1)
	}

	cfg, err := cli.LoadAndValidateConfig(nil)
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed",
			applog.FieldOperation, applog.OpValidate,
			"error", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, nil).WithComponent(applog.ComponentWorker)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", applog.FieldOperation, applog.OpShutdown)
}

func run(parent context.Context, cfg *config.Config, logger *applog.Logger) error {
	if !cfg.FeedEnabled() {
		return errors.New("AMQP_URL is required for the mirror worker")
	}

	ctx, cancel := cli.GracefulShutdown(parent, logger)
	defer cancel()

	sheet, err := openMirror(ctx, cfg, logger)
	if err != nil {
		return err
	}
	mirror := worker.NewMirror(sheet)

	// Startup recovery: append anything the mirror missed while the
	// worker was down.
	app, err := cli.Bootstrap(ctx, cfg, logger, false)
	if err != nil {
		logger.WarnContext(ctx, "Skipping startup reconcile, store unavailable", "error", err)
	} else {
		if err := mirror.Reconcile(ctx, app.Store.Transactions()); err != nil {
			logger.ErrorContext(ctx, "Startup reconcile incomplete", "error", err)
		}
		if err := app.Close(); err != nil {
			logger.WarnContext(ctx, "Failed to release store", "error", err)
		}
	}

	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPPrefetch)
	if err != nil {
		return err
	}
	defer client.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "Consuming change events",
			applog.FieldOperation, applog.OpStartup,
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
		err := client.Consume(gctx, mirror.Handle)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				st := mirror.Stats()
				logger.DebugContext(gctx, "Mirror stats",
					"appended", st.Appended,
					"cleared", st.Cleared,
					"ignored", st.Ignored,
					"failed", st.Failed)
			}
		}
	})
	return g.Wait()
}

// openMirror returns the Google Sheets mirror when a spreadsheet is
// configured, and an in-memory mirror otherwise.
func openMirror(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.TransactionMirror, error) {
	if !cfg.MirrorEnabled() {
		logger.InfoContext(ctx, "Google Sheets disabled, mirroring in memory")
		return mem.New(), nil
	}
	creds, err := cfg.GoogleCredentials()
	if err != nil {
		return nil, err
	}
	client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, creds)
	if err != nil {
		return nil, err
	}
	client.SetLogger(logger.WithComponent(applog.ComponentSheets).Logger)
	logger.InfoContext(ctx, "Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)
	return client, nil
}
