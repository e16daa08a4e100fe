package domain

import (
	"context"
	"time"
)

// NotificationSnapshot is a consistent read of one user's reminder state.
type NotificationSnapshot struct {
	// Visible holds appointments due on or after todayStart plus past
	// appointments without a hidden dismissal record.
	Visible []Appointment
	// Unread counts appointments due on or after todayStart with no record at all.
	Unread int
}

// NotificationRepository defines the persistence operations the engine needs.
// Storage implementations must enforce uniqueness of (user, appointment)
// records at the storage layer.
type NotificationRepository interface {
	// Snapshot reads the visible set and unread count in one consistent read.
	Snapshot(ctx context.Context, userID string, todayStart time.Time) (NotificationSnapshot, error)

	// Dismiss upserts a hidden record for an appointment owned by userID.
	// Returns ErrNotFound when no such appointment is owned by the user.
	Dismiss(ctx context.Context, userID, appointmentID string) error

	// MarkAllRead inserts read records for owned appointments due on or
	// after todayStart that have no record yet, and returns how many were created.
	MarkAllRead(ctx context.Context, userID string, todayStart time.Time) (int, error)
}

// DismissalLookup reads acknowledgement records.
type DismissalLookup interface {
	GetDismissal(ctx context.Context, userID, appointmentID string) (*DismissalRecord, error)
	ListDismissals(ctx context.Context, userID string) ([]DismissalRecord, error)
}

// AppointmentRepository manages the appointment read model.
type AppointmentRepository interface {
	AddPet(ctx context.Context, pet Pet) (Pet, error)
	ListPets(ctx context.Context, ownerID string) ([]Pet, error)
	// AddAppointment fails with ErrNotFound unless appt.PetID is owned by ownerID.
	AddAppointment(ctx context.Context, ownerID string, appt Appointment) (Appointment, error)
	GetAppointment(ctx context.Context, ownerID, appointmentID string) (*Appointment, error)
	ListAppointments(ctx context.Context, ownerID string) ([]Appointment, error)
	SetAppointmentStatus(ctx context.Context, ownerID, appointmentID string, status AppointmentStatus) error
	RescheduleAppointment(ctx context.Context, ownerID, appointmentID string, due time.Time) error
}
