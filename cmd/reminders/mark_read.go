package main

import (
	"github.com/petnames/reminders/cmd"
	"github.com/petnames/reminders/internal/app"
	"github.com/spf13/cobra"
)

// NewMarkReadCmd creates the mark-read command with explicit dependencies.
func NewMarkReadCmd(open notificationOpener) *cobra.Command {
	if open == nil {
		panic("NewMarkReadCmd: client dependency cannot be nil")
	}
	var tz string
	c := &cobra.Command{
		Use:   "mark-read",
		Short: "Mark every reminder due today or later as read",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			userID, err := cmd.UserID()
			if err != nil {
				return err
			}
			loc, err := cmd.Location(tz)
			if err != nil {
				return err
			}
			client, closeFn, err := open(c.Context(), clientOptions{Location: loc, Timezone: tz})
			if err != nil {
				return err
			}
			defer closeFn()
			_, err = app.NewMarkReadUseCase(client).Execute(c.Context(), userID)
			return err
		},
	}
	c.Flags().StringVar(&tz, "tz", "", "IANA time zone that defines today")
	return c
}
