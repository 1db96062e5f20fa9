package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"budgettracker/internal/cache"
	"budgettracker/internal/cli"
	apphttp "budgettracker/internal/http"
	applog "budgettracker/internal/log"
	"budgettracker/internal/report"
)

var flagRateLimit int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&flagRateLimit, "rate-limit", 120, "Requests per client per minute (0 disables)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := cli.GracefulShutdown(cmd.Context(), logger)
	defer cancel()

	app, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to release resources", "error", err)
		}
	}()

	views := cache.NewLRUCache[report.View](cfg.CacheSize, cfg.CacheTTL)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:         app.Store,
		Ready:         app.Backend.Backend,
		Views:         views,
		SavingsTarget: cfg.SavingsTarget,
		Logger:        logger.WithComponent(applog.ComponentHTTP),
		RateLimit:     flagRateLimit,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting tracker server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"feed", app.Feed != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return cache.NewManager(views).Run(gctx, time.Minute, logger.WithComponent(applog.ComponentCache).Logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
