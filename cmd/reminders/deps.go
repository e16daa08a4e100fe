package main

import (
	"context"
	"net/http"
	"time"

	"github.com/petnames/reminders/cmd"
	"github.com/petnames/reminders/internal/app"
	"github.com/petnames/reminders/internal/config"
	"github.com/petnames/reminders/internal/core"
	"github.com/petnames/reminders/internal/httpapi"
	"github.com/petnames/reminders/internal/logging"
	"github.com/petnames/reminders/internal/storage"
)

// clientOptions tunes the notification client for one command.
type clientOptions struct {
	Location *time.Location
	// Timezone is sent to the server; empty means the server's zone.
	Timezone string
}

// notificationOpener returns the notification client and a closer.
type notificationOpener func(ctx context.Context, opts clientOptions) (app.NotificationClient, func() error, error)

// appointmentOpener returns the appointment client and a closer.
type appointmentOpener func(ctx context.Context) (app.AppointmentClient, func() error, error)

// serviceOpener returns the engine served over HTTP and a closer.
type serviceOpener func(ctx context.Context) (httpapi.Service, func() error, error)

func noClose() error { return nil }

// openNotifications picks the HTTP client with --remote and the in-process
// core over the configured database otherwise.
func openNotifications(ctx context.Context, opts clientOptions) (app.NotificationClient, func() error, error) {
	if cmd.Remote() {
		timeout := config.GetDuration("request_timeout", 15*time.Second)
		tz := opts.Timezone
		if tz == "" {
			tz = config.Get("timezone", "")
		}
		client := httpapi.NewClient(config.Get("server_url", ""), &http.Client{Timeout: timeout}, httpapi.WithTimezone(tz))
		return client, noClose, nil
	}

	store, err := storage.NewFromConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	loc := opts.Location
	if loc == nil {
		loc = config.Location()
	}
	c := core.New(store, core.WithLocation(loc), core.WithLogger(logging.With("component", "core")))
	return core.NewLocalSource(c), store.Close, nil
}

func openAppointments(ctx context.Context) (app.AppointmentClient, func() error, error) {
	store, err := storage.NewFromConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func openService(ctx context.Context) (httpapi.Service, func() error, error) {
	store, err := storage.NewFromConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	c := core.New(store, core.WithLocation(config.Location()), core.WithLogger(logging.With("component", "core")))
	return c, store.Close, nil
}
