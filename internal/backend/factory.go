package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budgettracker/internal/config"
	applog "budgettracker/internal/log"
	"budgettracker/internal/persist/blob"
	"budgettracker/internal/storage"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:          backendType,
		DataDirectory: appConfig.DataDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	switch c.Type {
	case BlobBackend:
		if c.DataDirectory == "" {
			return fmt.Errorf("data directory is required for blob backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}

// Factory creates backends based on configuration
type Factory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory. Backends log under the
// storage component of logger.
func NewFactory(logger *applog.Logger) *Factory {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentBackend, Handler: slog.Default().Handler()})
	}
	return &Factory{logger: logger}
}

// CreateBackend creates a backend instance based on the provided config
func (f *Factory) CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, cfg)
	case BlobBackend:
		return f.createBlobBackend(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func (f *Factory) createSQLiteBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	repo.SetLogger(f.logger.WithComponent(applog.ComponentStorage).Logger)

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *Factory) createBlobBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	store := blob.New(cfg.DataDirectory)
	store.SetLogger(f.logger.WithComponent(applog.ComponentStorage).Logger)

	f.logger.InfoContext(ctx, "Initialized blob backend", "data_directory", cfg.DataDirectory)

	return &BackendResult{Backend: store}, nil
}
