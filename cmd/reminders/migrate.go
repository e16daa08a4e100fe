package main

import (
	"fmt"

	"github.com/petnames/reminders/internal/colors"
	"github.com/petnames/reminders/internal/storage"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply pending schema migrations to the configured database
(storage_backend, database_path or postgres_dsn) and print the version.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			opts := storage.OptionsFromConfig()
			store, err := storage.Open(c.Context(), opts)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer store.Close()

			v, err := store.SchemaVersion(c.Context())
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			colors.Success(fmt.Sprintf("%s schema at version %d of %d", store.Backend(), v, storage.LatestSchemaVersion()))
			return nil
		},
	}
}
