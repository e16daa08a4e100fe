package core

import (
	"context"

	"github.com/petnames/reminders/internal/domain"
)

// LocalSource exposes a Core through the three transport-agnostic
// operations, using the core's clock for "now".
type LocalSource struct {
	core *Core
}

// NewLocalSource wraps c.
func NewLocalSource(c *Core) *LocalSource {
	if c == nil {
		panic("core.NewLocalSource: core dependency cannot be nil")
	}
	return &LocalSource{core: c}
}

// GetGroupedNotifications returns the grouped notifications for userID.
func (s *LocalSource) GetGroupedNotifications(ctx context.Context, userID string) (domain.Notifications, error) {
	return s.core.GetGroupedNotifications(ctx, userID)
}

// DismissNotification dismisses one appointment for userID.
func (s *LocalSource) DismissNotification(ctx context.Context, userID, appointmentID string) error {
	return s.core.Dismiss(ctx, userID, appointmentID)
}

// MarkAllRead marks every today-or-later appointment of userID as read.
func (s *LocalSource) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.core.MarkAllRead(ctx, userID, s.core.Now())
}
