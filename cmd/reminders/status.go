package main

import (
	"github.com/petnames/reminders/cmd"
	"github.com/petnames/reminders/internal/app"
	"github.com/petnames/reminders/internal/config"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command with explicit dependencies.
func NewStatusCmd(open notificationOpener) *cobra.Command {
	if open == nil {
		panic("NewStatusCmd: client dependency cannot be nil")
	}
	var format string
	c := &cobra.Command{
		Use:   "status",
		Short: "Show the unread badge",
		Long: `Show the unread badge.

FORMATS:
    compact      unread plus per-group counts (default)
    count-only   just the unread number, for status bars
    json         counts as JSON`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			formatValue := app.DetermineStatusFormat(format, config.Get("status_format", ""), c.Flags().Changed("format"))
			if err := app.ValidateStatusFormat(formatValue); err != nil {
				return err
			}
			userID, err := cmd.UserID()
			if err != nil {
				return err
			}
			client, closeFn, err := open(c.Context(), clientOptions{})
			if err != nil {
				return err
			}
			defer closeFn()
			return app.NewStatusUseCase(client).Execute(c.Context(), c.OutOrStdout(), userID, formatValue)
		},
	}
	c.Flags().StringVar(&format, "format", app.StatusCompact, "output format: compact, count-only, json")
	return c
}
