// Package app holds the use cases behind the CLI commands. Each use case
// depends on a narrow client interface so commands can be tested with fakes.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/petnames/reminders/internal/domain"
	"github.com/petnames/reminders/internal/tui/render"
)

// NotificationClient is implemented by core.LocalSource and httpapi.Client.
type NotificationClient interface {
	GetGroupedNotifications(ctx context.Context, userID string) (domain.Notifications, error)
	DismissNotification(ctx context.Context, userID, appointmentID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// NotificationLister reads grouped notifications. cache.Cache implements it
// as well as every NotificationClient.
type NotificationLister interface {
	GetGroupedNotifications(ctx context.Context, userID string) (domain.Notifications, error)
}

// ListJSON is the machine-readable list output.
type ListJSON struct {
	Today       []domain.Appointment `json:"today"`
	Upcoming    []domain.Appointment `json:"upcoming"`
	Past        []domain.Appointment `json:"past"`
	UnreadCount int                  `json:"unreadCount"`
}

// ListInput represents list command inputs after flag parsing.
type ListInput struct {
	UserID string
	JSON   bool
	// Now picks the day used for labels. Zero means time.Now in Location.
	Now      time.Time
	Location *time.Location
	Width    int
}

// ListUseCase prints grouped notifications.
type ListUseCase struct {
	client NotificationLister
}

// NewListUseCase creates a list use-case.
func NewListUseCase(client NotificationLister) *ListUseCase {
	if client == nil {
		panic("NewListUseCase: client dependency cannot be nil")
	}
	return &ListUseCase{client: client}
}

// Execute fetches and writes the user's notifications.
func (u *ListUseCase) Execute(ctx context.Context, w io.Writer, input ListInput) error {
	n, err := u.client.GetGroupedNotifications(ctx, input.UserID)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	if input.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ListJSON{
			Today:       nonNil(n.Groups.Today),
			Upcoming:    nonNil(n.Groups.Upcoming),
			Past:        nonNil(n.Groups.Past),
			UnreadCount: n.UnreadCount,
		})
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	if input.Location != nil {
		now = now.In(input.Location)
	}

	if _, err := fmt.Fprintf(w, "%d unread\n\n", n.UnreadCount); err != nil {
		return err
	}
	for _, section := range []struct {
		bucket domain.Bucket
		appts  []domain.Appointment
	}{
		{domain.BucketToday, n.Groups.Today},
		{domain.BucketUpcoming, n.Groups.Upcoming},
		{domain.BucketPast, n.Groups.Past},
	} {
		out := render.Section(render.SectionState{
			Bucket:       section.bucket,
			Appointments: section.appts,
			Cursor:       -1,
			Now:          now,
			Width:        input.Width,
		})
		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}
	}
	return nil
}

func nonNil(in []domain.Appointment) []domain.Appointment {
	if in == nil {
		return []domain.Appointment{}
	}
	return in
}
