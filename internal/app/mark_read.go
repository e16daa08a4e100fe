package app

import (
	"context"
	"fmt"

	"github.com/petnames/reminders/internal/colors"
)

// MarkReadUseCase coordinates mark-all-read behavior.
type MarkReadUseCase struct {
	client NotificationClient
}

// NewMarkReadUseCase creates a new mark-read use-case.
func NewMarkReadUseCase(client NotificationClient) *MarkReadUseCase {
	if client == nil {
		panic("NewMarkReadUseCase: client dependency cannot be nil")
	}
	return &MarkReadUseCase{client: client}
}

// Execute marks everything due today or later as read.
func (u *MarkReadUseCase) Execute(ctx context.Context, userID string) (int, error) {
	marked, err := u.client.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark-read: %w", err)
	}
	if marked == 0 {
		colors.Info("Nothing to mark as read")
	} else {
		colors.Success(fmt.Sprintf("%d notification(s) marked as read", marked))
	}
	return marked, nil
}
