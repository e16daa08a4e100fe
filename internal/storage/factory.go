package storage

import (
	"context"

	"github.com/petnames/reminders/internal/config"
)

// NewFromConfig opens the backend selected by storage_backend.
func NewFromConfig(ctx context.Context) (*Store, error) {
	return Open(ctx, OptionsFromConfig())
}

// OptionsFromConfig builds Options from the global configuration.
func OptionsFromConfig() Options {
	return Options{
		Backend: config.Get("storage_backend", BackendSQLite),
		Path:    config.Get("database_path", ""),
		DSN:     config.Get("postgres_dsn", ""),
	}
}
