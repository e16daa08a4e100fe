package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Status output formats.
const (
	StatusCompact   = "compact"
	StatusCountOnly = "count-only"
	StatusJSON      = "json"
)

// StatusJSONOutput is the json status format.
type StatusJSONOutput struct {
	UserID   string `json:"userId"`
	Unread   int    `json:"unread"`
	Today    int    `json:"today"`
	Upcoming int    `json:"upcoming"`
	Past     int    `json:"past"`
}

// StatusUseCase prints the unread badge.
type StatusUseCase struct {
	client NotificationClient
}

// NewStatusUseCase creates a status use-case.
func NewStatusUseCase(client NotificationClient) *StatusUseCase {
	if client == nil {
		panic("NewStatusUseCase: client dependency cannot be nil")
	}
	return &StatusUseCase{client: client}
}

// DetermineStatusFormat resolves effective format preserving CLI precedence:
// an explicit flag wins over the configured format.
func DetermineStatusFormat(formatFlag, configFormat string, flagChanged bool) string {
	result := formatFlag
	if !flagChanged && configFormat != "" {
		result = configFormat
	}
	if result == "" {
		result = StatusCompact
	}
	return result
}

// ValidateStatusFormat validates status output format.
func ValidateStatusFormat(formatValue string) error {
	switch formatValue {
	case StatusCompact, StatusCountOnly, StatusJSON:
		return nil
	default:
		return fmt.Errorf("status: unknown format: %s", formatValue)
	}
}

// Execute runs status behavior for a validated format.
func (u *StatusUseCase) Execute(ctx context.Context, w io.Writer, userID, formatValue string) error {
	if err := ValidateStatusFormat(formatValue); err != nil {
		return err
	}
	n, err := u.client.GetGroupedNotifications(ctx, userID)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	switch formatValue {
	case StatusCountOnly:
		_, err = fmt.Fprintln(w, n.UnreadCount)
	case StatusJSON:
		err = json.NewEncoder(w).Encode(StatusJSONOutput{
			UserID:   userID,
			Unread:   n.UnreadCount,
			Today:    len(n.Groups.Today),
			Upcoming: len(n.Groups.Upcoming),
			Past:     len(n.Groups.Past),
		})
	default:
		if n.UnreadCount == 0 && n.Groups.Len() == 0 {
			_, err = fmt.Fprintln(w, "No reminders")
			break
		}
		_, err = fmt.Fprintf(w, "%d unread · %d today · %d upcoming · %d past\n",
			n.UnreadCount, len(n.Groups.Today), len(n.Groups.Upcoming), len(n.Groups.Past))
	}
	return err
}
