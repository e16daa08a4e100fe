// Package cmd holds the root command shared by the reminders binary.
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/petnames/reminders/internal/colors"
	"github.com/petnames/reminders/internal/config"
	"github.com/petnames/reminders/internal/domain"
	"github.com/petnames/reminders/internal/logging"
	"github.com/petnames/reminders/internal/version"
	"github.com/spf13/cobra"
)

var (
	userFlag   string
	remoteFlag bool
	debugFlag  bool
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Appointment reminders for your pets.",
	Long: `Appointment reminders for your pets.

Reminders are grouped into today, upcoming and past. Past reminders can be
dismissed; everything due today or later counts as unread until read.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.ShutdownGlobal()
	},
}

func init() {
	RootCmd.Version = version.Version
	RootCmd.CompletionOptions.HiddenDefaultCmd = true

	RootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "user id (default: user_id from config)")
	RootCmd.PersistentFlags().BoolVar(&remoteFlag, "remote", false, "talk to the server at server_url instead of the local database")
	RootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug output")
}

// Execute runs the root command and prints any error.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		colors.Error(err.Error())
	}
	return err
}

func setup(cmd *cobra.Command, args []string) error {
	config.Load()
	colors.SetDebug(debugFlag || config.GetBool("debug", false))
	if err := logging.InitGlobal(); err != nil {
		colors.Warning("file logging disabled:", err.Error())
	}
	logging.Debug("command started", "command", cmd.CommandPath())
	return nil
}

// UserID returns the acting user from --user or the user_id setting.
func UserID() (string, error) {
	if id := strings.TrimSpace(userFlag); id != "" {
		return id, nil
	}
	if id := strings.TrimSpace(config.Get("user_id", "")); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("%w: no user: pass --user or set %sUSER_ID", domain.ErrInvalidArgument, config.EnvPrefix)
}

// Remote reports whether commands should go through the HTTP API.
func Remote() bool {
	return remoteFlag
}

// Location resolves tz, falling back to the configured timezone.
func Location(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return config.Location(), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", domain.ErrInvalidArgument, tz)
	}
	return loc, nil
}
