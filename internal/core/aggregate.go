package core

import (
	"context"
	"fmt"
	"time"

	"github.com/petnames/reminders/internal/domain"
)

// ListGrouped returns the user's visible appointments partitioned into
// today, upcoming and past relative to now, plus the unread count.
//
// Past appointments with a hidden dismissal are excluded; today and
// upcoming ones are always included. Unread counts today-or-later
// appointments with no record at all. On failure no partial result is returned.
func (c *Core) ListGrouped(ctx context.Context, userID string, now time.Time) (domain.Notifications, error) {
	if err := requireID("list", "user id", userID); err != nil {
		return domain.Notifications{}, err
	}

	window := domain.WindowFor(now)
	snap, err := c.repo.Snapshot(ctx, userID, window.Start)
	if err != nil {
		return domain.Notifications{}, fmt.Errorf("core: list: %w", err)
	}

	loc := now.Location()
	for i := range snap.Visible {
		snap.Visible[i].Due = snap.Visible[i].Due.In(loc)
	}
	return domain.Notifications{
		Groups:      domain.Partition(snap.Visible, now),
		UnreadCount: snap.Unread,
	}, nil
}

// GetGroupedNotifications is ListGrouped at the core's current time.
func (c *Core) GetGroupedNotifications(ctx context.Context, userID string) (domain.Notifications, error) {
	return c.ListGrouped(ctx, userID, c.Now())
}
