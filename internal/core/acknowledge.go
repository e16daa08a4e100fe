package core

import (
	"context"
	"fmt"
	"time"

	"github.com/petnames/reminders/internal/domain"
)

// Dismiss permanently hides a past appointment for the user and marks a
// today or upcoming one as read. Repeating the call changes nothing.
func (c *Core) Dismiss(ctx context.Context, userID, appointmentID string) error {
	if err := requireID("dismiss", "user id", userID); err != nil {
		return err
	}
	if err := requireID("dismiss", "appointment id", appointmentID); err != nil {
		return err
	}
	if err := c.repo.Dismiss(ctx, userID, appointmentID); err != nil {
		c.log.Warn("dismiss failed", "user_id", userID, "appointment_id", appointmentID, "error", err)
		return fmt.Errorf("core: dismiss: %w", err)
	}
	c.log.Info("appointment dismissed", "user_id", userID, "appointment_id", appointmentID)
	return nil
}

// DismissNotification is Dismiss under its API name.
func (c *Core) DismissNotification(ctx context.Context, userID, appointmentID string) error {
	return c.Dismiss(ctx, userID, appointmentID)
}

// MarkAllRead records a read marker for every today-or-later appointment
// of the user that has none, and returns how many were created.
// Existing records, including dismissals, are left untouched.
func (c *Core) MarkAllRead(ctx context.Context, userID string, now time.Time) (int, error) {
	if err := requireID("mark all read", "user id", userID); err != nil {
		return 0, err
	}
	marked, err := c.repo.MarkAllRead(ctx, userID, domain.WindowFor(now).Start)
	if err != nil {
		c.log.Warn("mark all read failed", "user_id", userID, "error", err)
		return 0, fmt.Errorf("core: mark all read: %w", err)
	}
	c.log.Info("marked all read", "user_id", userID, "marked", marked)
	return marked, nil
}
