package main

import (
	"github.com/petnames/reminders/cmd"
	"github.com/petnames/reminders/internal/app"
	"github.com/petnames/reminders/internal/cache"
	"github.com/spf13/cobra"
)

const listCommandLong = `List reminders grouped into today, upcoming and past.

USAGE:
    reminders list [OPTIONS]

OPTIONS:
    --json           Print JSON instead of the grouped table
    --tz <zone>      IANA time zone that defines "today" (default: timezone setting)
    --remote         Read from the server at server_url through the client cache
    -h, --help       Show this help`

// NewListCmd creates the list command with explicit dependencies.
func NewListCmd(open notificationOpener) *cobra.Command {
	if open == nil {
		panic("NewListCmd: client dependency cannot be nil")
	}

	var asJSON bool
	var tz string

	c := &cobra.Command{
		Use:   "list",
		Short: "List reminders grouped by day",
		Long:  listCommandLong,
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

			var lister app.NotificationLister = client
			if cmd.Remote() {
				lister = cache.New(client, cache.Options{})
			}
			return app.NewListUseCase(lister).Execute(c.Context(), c.OutOrStdout(), app.ListInput{
				UserID:   userID,
				JSON:     asJSON,
				Location: loc,
			})
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	c.Flags().StringVar(&tz, "tz", "", "IANA time zone that defines today")
	return c
}
