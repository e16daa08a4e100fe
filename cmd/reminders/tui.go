package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/petnames/reminders/cmd"
	"github.com/petnames/reminders/internal/cache"
	"github.com/petnames/reminders/internal/colors"
	"github.com/petnames/reminders/internal/config"
	"github.com/petnames/reminders/internal/logging"
	"github.com/petnames/reminders/internal/tui/state"
	"github.com/spf13/cobra"
)

// runProgram is swapped in tests to avoid taking over the terminal.
var runProgram = func(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// NewTUICmd creates the tui command with explicit dependencies.
func NewTUICmd(open notificationOpener) *cobra.Command {
	if open == nil {
		panic("NewTUICmd: client dependency cannot be nil")
	}
	var tz string
	c := &cobra.Command{
		Use:   "tui",
		Short: "Browse reminders interactively",
		Long: `Browse reminders interactively.

KEYS:
    j/k     move
    d       dismiss the selected reminder
    m       mark everything read
    r       refresh
    ?       more help
    q       quit`,
		Args: cobra.NoArgs,
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

			// JSON lines on stderr would corrupt the screen.
			colors.DisableStructuredLogging()
			defer colors.EnableStructuredLogging()

			changes := make(chan struct{}, 1)
			notifications := cache.New(client, cache.Options{
				Logger: logging.With("component", "cache"),
				OnChange: func(cache.Snapshot) {
					select {
					case changes <- struct{}{}:
					default:
					}
				},
			})
			defer notifications.Wait()

			model := state.NewModel(notifications, userID, state.Options{
				Changes:         changes,
				Timeout:         config.GetDuration("request_timeout", 15*time.Second),
				Clock:           func() time.Time { return time.Now().In(loc) },
				RefreshInterval: config.GetDuration("watch_interval", 30*time.Second),
			})
			return runProgram(model)
		},
	}
	c.Flags().StringVar(&tz, "tz", "", "IANA time zone that defines today")
	return c
}
