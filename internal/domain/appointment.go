// Package domain provides the domain layer for appointment reminders.
// It contains value objects, the time-window classifier and the
// repository contracts implemented by storage.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// AppointmentStatus is the lifecycle status of an appointment.
// It is mutated by the appointment collaborator and never affects grouping.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusCompleted AppointmentStatus = "completed"
)

// IsValid checks if the appointment status is valid.
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s AppointmentStatus) String() string {
	return string(s)
}

// ParseAppointmentStatus parses a string into an AppointmentStatus.
func ParseAppointmentStatus(status string) (AppointmentStatus, error) {
	st := AppointmentStatus(strings.ToLower(strings.TrimSpace(status)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid appointment status: %s", ErrInvalidArgument, status)
	}
	return st, nil
}

// Pet owns appointments and is owned by a user.
type Pet struct {
	ID       string `json:"id"`
	OwnerID  string `json:"ownerId"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Appointment is the read model of a scheduled pet reminder.
type Appointment struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Due         time.Time         `json:"due"`
	Status      AppointmentStatus `json:"status"`
	PetID       string            `json:"petId"`
	PetName     string            `json:"petName"`
	PetImageURL string            `json:"petImageUrl,omitempty"`
}

// Validate validates the appointment fields required for creation.
func (a *Appointment) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: appointment title cannot be empty", ErrInvalidArgument)
	}
	if strings.TrimSpace(a.PetID) == "" {
		return fmt.Errorf("%w: appointment pet cannot be empty", ErrInvalidArgument)
	}
	if a.Due.IsZero() {
		return fmt.Errorf("%w: appointment due time cannot be empty", ErrInvalidArgument)
	}
	if a.Status != "" && !a.Status.IsValid() {
		return fmt.Errorf("%w: invalid appointment status: %s", ErrInvalidArgument, a.Status)
	}
	return nil
}

// DismissalRecord is the per-(user, appointment) acknowledgement marker.
//
// A missing record means unread. A record with Hidden=false means read.
// A record with Hidden=true means permanently dismissed; it is never reverted.
type DismissalRecord struct {
	UserID        string    `json:"userId"`
	AppointmentID string    `json:"appointmentId"`
	Hidden        bool      `json:"hidden"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AckState is the acknowledgement state of a (user, appointment) pair.
type AckState string

const (
	AckUnread    AckState = "unread"
	AckRead      AckState = "read"
	AckDismissed AckState = "dismissed"
)

// StateOf returns the acknowledgement state represented by an optional record.
func StateOf(record *DismissalRecord) AckState {
	switch {
	case record == nil:
		return AckUnread
	case record.Hidden:
		return AckDismissed
	default:
		return AckRead
	}
}
