package main

import (
	"github.com/petnames/reminders/cmd"
	"github.com/petnames/reminders/internal/app"
	"github.com/spf13/cobra"
)

// NewDismissCmd creates the dismiss command with explicit dependencies.
func NewDismissCmd(open notificationOpener) *cobra.Command {
	if open == nil {
		panic("NewDismissCmd: client dependency cannot be nil")
	}
	return &cobra.Command{
		Use:   "dismiss <appointment-id>...",
		Short: "Hide past reminders",
		Long: `Dismiss one or more reminders.

A dismissed past reminder is hidden for good. Dismissing a reminder due today
or later marks it read but keeps it listed until its day has passed.
Dismissing twice is harmless.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			userID, err := cmd.UserID()
			if err != nil {
				return err
			}
			client, closeFn, err := open(c.Context(), clientOptions{})
			if err != nil {
				return err
			}
			defer closeFn()
			return app.NewDismissUseCase(client).Execute(c.Context(), userID, args...)
		},
	}
}
