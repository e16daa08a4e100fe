package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/petnames/reminders/internal/domain"
)

type petRow struct {
	ID       string `db:"id"`
	OwnerID  string `db:"owner_id"`
	Name     string `db:"name"`
	ImageURL string `db:"image_url"`
}

// AddPet stores a pet, generating an id when none is given.
func (s *Store) AddPet(ctx context.Context, pet domain.Pet) (domain.Pet, error) {
	if err := requireID("add pet", "owner id", pet.OwnerID); err != nil {
		return pet, err
	}
	pet.Name = strings.TrimSpace(pet.Name)
	if pet.Name == "" {
		return pet, fmt.Errorf("storage: add pet: %w: name cannot be empty", domain.ErrInvalidArgument)
	}
	if pet.ID == "" {
		pet.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
INSERT INTO pets (id, owner_id, name, image_url, created_at) VALUES (?, ?, ?, ?, ?)`),
		pet.ID, pet.OwnerID, pet.Name, pet.ImageURL, toMillis(s.now()))
	if err != nil {
		return pet, unavailable("add pet", err)
	}
	return pet, nil
}

// ListPets returns the owner's pets ordered by name.
func (s *Store) ListPets(ctx context.Context, ownerID string) ([]domain.Pet, error) {
	var rows []petRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
SELECT id, owner_id, name, image_url FROM pets WHERE owner_id = ? ORDER BY name, id`), ownerID)
	if err != nil {
		return nil, unavailable("list pets", err)
	}
	pets := make([]domain.Pet, 0, len(rows))
	for _, r := range rows {
		pets = append(pets, domain.Pet{ID: r.ID, OwnerID: r.OwnerID, Name: r.Name, ImageURL: r.ImageURL})
	}
	return pets, nil
}

// AddAppointment stores an appointment for a pet owned by ownerID.
func (s *Store) AddAppointment(ctx context.Context, ownerID string, appt domain.Appointment) (domain.Appointment, error) {
	if err := requireID("add appointment", "owner id", ownerID); err != nil {
		return appt, err
	}
	if appt.Status == "" {
		appt.Status = domain.StatusPending
	}
	if err := appt.Validate(); err != nil {
		return appt, fmt.Errorf("storage: add appointment: %w", err)
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
INSERT INTO appointments (id, pet_id, title, description, due_at, status, created_at)
SELECT CAST(? AS TEXT), p.id, CAST(? AS TEXT), CAST(? AS TEXT), CAST(? AS BIGINT), CAST(? AS TEXT), CAST(? AS BIGINT)
FROM pets p WHERE p.id = ? AND p.owner_id = ?`),
		appt.ID, strings.TrimSpace(appt.Title), appt.Description, toMillis(appt.Due), string(appt.Status), toMillis(s.now()),
		appt.PetID, ownerID)
	if err != nil {
		return appt, unavailable("add appointment", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return appt, unavailable("add appointment", err)
	}
	if n == 0 {
		return appt, notFound("add appointment", "pet", appt.PetID)
	}

	stored, err := s.GetAppointment(ctx, ownerID, appt.ID)
	if err != nil {
		return appt, err
	}
	return *stored, nil
}

// GetAppointment returns one appointment owned by ownerID.
func (s *Store) GetAppointment(ctx context.Context, ownerID, appointmentID string) (*domain.Appointment, error) {
	if err := requireID("get appointment", "appointment id", appointmentID); err != nil {
		return nil, err
	}
	var row appointmentRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(selectAppointmentColumns+`
WHERE a.id = ? AND p.owner_id = ?`), appointmentID, ownerID)
	if isNoRows(err) {
		return nil, notFound("get appointment", "appointment", appointmentID)
	}
	if err != nil {
		return nil, unavailable("get appointment", err)
	}
	appt := row.toDomain()
	return &appt, nil
}

// ListAppointments returns every appointment of the owner's pets ordered by due time.
func (s *Store) ListAppointments(ctx context.Context, ownerID string) ([]domain.Appointment, error) {
	var rows []appointmentRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(selectAppointmentColumns+`
WHERE p.owner_id = ?
ORDER BY a.due_at, a.id`), ownerID)
	if err != nil {
		return nil, unavailable("list appointments", err)
	}
	out := make([]domain.Appointment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// SetAppointmentStatus changes the lifecycle status. Status never affects grouping.
func (s *Store) SetAppointmentStatus(ctx context.Context, ownerID, appointmentID string, status domain.AppointmentStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("storage: set status: %w: invalid appointment status: %s", domain.ErrInvalidArgument, status)
	}
	return s.updateOwned(ctx, "set status", ownerID, appointmentID, `status = ?`, string(status))
}

// RescheduleAppointment moves the due time. An existing dismissal is kept.
func (s *Store) RescheduleAppointment(ctx context.Context, ownerID, appointmentID string, due time.Time) error {
	if due.IsZero() {
		return fmt.Errorf("storage: reschedule: %w: due time cannot be empty", domain.ErrInvalidArgument)
	}
	return s.updateOwned(ctx, "reschedule", ownerID, appointmentID, `due_at = ?`, toMillis(due))
}

func (s *Store) updateOwned(ctx context.Context, op, ownerID, appointmentID, set string, value any) error {
	if err := requireID(op, "appointment id", appointmentID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
UPDATE appointments SET `+set+`
WHERE id = ? AND pet_id IN (SELECT id FROM pets WHERE owner_id = ?)`), value, appointmentID, ownerID)
	if err != nil {
		return unavailable(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(op, err)
	}
	if n == 0 {
		return notFound(op, "appointment", appointmentID)
	}
	return nil
}
