package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petnames/reminders/internal/colors"
	"github.com/petnames/reminders/internal/config"
	"github.com/petnames/reminders/internal/httpapi"
	"github.com/petnames/reminders/internal/logging"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command with explicit dependencies.
func NewServeCmd(open serviceOpener) *cobra.Command {
	if open == nil {
		panic("NewServeCmd: service dependency cannot be nil")
	}
	var addr string
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the notifications HTTP API",
		Long: `Serve the notifications HTTP API until interrupted.

ENDPOINTS:
    GET  /v1/notifications
    POST /v1/notifications/{appointmentID}/dismiss
    POST /v1/notifications/mark-all-read
    GET  /health

The caller is identified by the X-User-ID header.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if addr == "" {
				addr = config.Get("listen_addr", ":8080")
			}
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, closeFn, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			level := config.Get("logging_level", "info")
			if colors.DebugEnabled() {
				level = "debug"
			}
			log := logging.NewConsole(c.ErrOrStderr(), level)
			colors.Info("Serving reminders on " + addr)
			return runServer(ctx, httpapi.NewServer(svc, log), addr)
		},
	}
	c.Flags().StringVar(&addr, "addr", "", "listen address (default: listen_addr setting)")
	return c
}

var runServer = func(ctx context.Context, srv *httpapi.Server, addr string) error {
	return srv.Run(ctx, addr, shutdownTimeout)
}
