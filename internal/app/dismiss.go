package app

import (
	"context"
	"fmt"

	"github.com/petnames/reminders/internal/colors"
)

// DismissUseCase coordinates dismiss behavior.
type DismissUseCase struct {
	client NotificationClient
}

// NewDismissUseCase creates a dismiss use-case.
func NewDismissUseCase(client NotificationClient) *DismissUseCase {
	if client == nil {
		panic("NewDismissUseCase: client dependency cannot be nil")
	}
	return &DismissUseCase{client: client}
}

// Execute dismisses each appointment in turn and stops at the first failure.
func (u *DismissUseCase) Execute(ctx context.Context, userID string, appointmentIDs ...string) error {
	if len(appointmentIDs) == 0 {
		return fmt.Errorf("dismiss: appointment id is required")
	}
	for _, id := range appointmentIDs {
		if err := u.client.DismissNotification(ctx, userID, id); err != nil {
			return fmt.Errorf("dismiss %s: %w", id, err)
		}
		colors.Success("Appointment " + id + " dismissed")
	}
	return nil
}
