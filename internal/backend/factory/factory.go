// Package factory builds the backend selected by configuration. It
// lives below the port package so the implementations it wires never
// import their own consumers.
package factory

import (
	"context"
	"fmt"
	"log/slog"

	"salon/internal/backend"
	"salon/internal/memory"
	"salon/internal/rest"
	"salon/internal/storage"
)

// Config holds configuration for backend creation.
type Config struct {
	Type backend.Type

	// SQLite specific
	SQLiteDBPath string

	// REST (hosted service) specific
	RESTBaseURL string
	RESTAPIKey  string

	// Memory backend seed staff names
	SeedStaff []string
}

// Factory creates backends based on configuration.
type Factory struct {
	logger *slog.Logger
}

// New creates a new backend factory.
func New(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateBackend builds the backend selected by config.Type.
func (f *Factory) CreateBackend(ctx context.Context, config Config) (*backend.Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case backend.SQLiteBackend:
		repo, err := storage.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &backend.Result{Backend: repo, Cleanup: repo.Close}, nil

	case backend.RESTBackend:
		cli, err := rest.NewClient(config.RESTBaseURL, config.RESTAPIKey)
		if err != nil {
			return nil, fmt.Errorf("initialize rest client: %w", err)
		}
		f.logger.Info("Initialized hosted REST backend", "base_url", config.RESTBaseURL)
		return &backend.Result{Backend: cli, Cleanup: nil}, nil

	case backend.MemoryBackend:
		store := memory.NewStore(config.SeedStaff)
		f.logger.Info("Initialized memory backend", "staff", len(config.SeedStaff))
		return &backend.Result{Backend: store, Cleanup: nil}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
