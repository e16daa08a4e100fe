package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/petnames/reminders/internal/colors"
	"github.com/petnames/reminders/internal/domain"
)

// DueLayouts are the accepted --due formats, tried in order.
var DueLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// AppointmentClient manages the appointment read model and reads
// acknowledgement records. *storage.Store satisfies it.
type AppointmentClient interface {
	domain.AppointmentRepository
	domain.DismissalLookup
}

// AppointmentsUseCase coordinates pet and appointment management.
type AppointmentsUseCase struct {
	client AppointmentClient
}

// NewAppointmentsUseCase creates an appointments use-case.
func NewAppointmentsUseCase(client AppointmentClient) *AppointmentsUseCase {
	if client == nil {
		panic("NewAppointmentsUseCase: client dependency cannot be nil")
	}
	return &AppointmentsUseCase{client: client}
}

// AddPet registers a pet for ownerID.
func (u *AppointmentsUseCase) AddPet(ctx context.Context, ownerID, name, imageURL string) (domain.Pet, error) {
	pet, err := u.client.AddPet(ctx, domain.Pet{OwnerID: ownerID, Name: strings.TrimSpace(name), ImageURL: imageURL})
	if err != nil {
		return domain.Pet{}, fmt.Errorf("pet add: %w", err)
	}
	colors.Success(fmt.Sprintf("Pet %s added with id %s", pet.Name, pet.ID))
	return pet, nil
}

// ListPets writes ownerID's pets as a table.
func (u *AppointmentsUseCase) ListPets(ctx context.Context, w io.Writer, ownerID string) error {
	pets, err := u.client.ListPets(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("pet list: %w", err)
	}
	rows := make([][]string, 0, len(pets))
	for _, p := range pets {
		rows = append(rows, []string{p.ID, p.Name})
	}
	return writeTable(w, []string{"ID", "NAME"}, rows)
}

// AddAppointmentInput represents appointment add inputs after flag parsing.
type AddAppointmentInput struct {
	OwnerID     string
	PetID       string
	Title       string
	Description string
	Due         string
	Location    *time.Location
}

// AddAppointment schedules an appointment for one of the owner's pets.
func (u *AppointmentsUseCase) AddAppointment(ctx context.Context, input AddAppointmentInput) (domain.Appointment, error) {
	due, err := ParseDue(input.Due, input.Location)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("appointment add: %w", err)
	}
	appt, err := u.client.AddAppointment(ctx, input.OwnerID, domain.Appointment{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		PetID:       input.PetID,
		Due:         due,
	})
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("appointment add: %w", err)
	}
	colors.Success(fmt.Sprintf("Appointment %s scheduled for %s", appt.ID, appt.Due.In(locOrLocal(input.Location)).Format("2006-01-02 15:04")))
	return appt, nil
}

// Complete marks an appointment completed. Grouping is unaffected.
func (u *AppointmentsUseCase) Complete(ctx context.Context, ownerID, appointmentID string) error {
	if err := u.client.SetAppointmentStatus(ctx, ownerID, appointmentID, domain.StatusCompleted); err != nil {
		return fmt.Errorf("appointment complete: %w", err)
	}
	colors.Success("Appointment " + appointmentID + " completed")
	return nil
}

// Reschedule moves an appointment to a new due time. A dismissal record
// survives the move, so a dismissed appointment stays hidden if it is
// rescheduled into the past.
func (u *AppointmentsUseCase) Reschedule(ctx context.Context, ownerID, appointmentID, due string, loc *time.Location) error {
	t, err := ParseDue(due, loc)
	if err != nil {
		return fmt.Errorf("appointment reschedule: %w", err)
	}
	if err := u.client.RescheduleAppointment(ctx, ownerID, appointmentID, t); err != nil {
		return fmt.Errorf("appointment reschedule: %w", err)
	}
	colors.Success("Appointment " + appointmentID + " rescheduled")
	return nil
}

// List writes every appointment of the owner with its acknowledgement state.
func (u *AppointmentsUseCase) List(ctx context.Context, w io.Writer, ownerID string, loc *time.Location) error {
	appts, err := u.client.ListAppointments(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("appointment list: %w", err)
	}
	records, err := u.client.ListDismissals(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("appointment list: %w", err)
	}
	byID := make(map[string]*domain.DismissalRecord, len(records))
	for i := range records {
		byID[records[i].AppointmentID] = &records[i]
	}

	loc = locOrLocal(loc)
	rows := make([][]string, 0, len(appts))
	for _, a := range appts {
		rows = append(rows, []string{
			a.ID, a.Due.In(loc).Format("2006-01-02 15:04"), a.PetName, a.Title,
			a.Status.String(), string(domain.StateOf(byID[a.ID])),
		})
	}
	return writeTable(w, []string{"ID", "DUE", "PET", "TITLE", "STATUS", "ACK"}, rows)
}

// AckState reports the acknowledgement state of one appointment.
func (u *AppointmentsUseCase) AckState(ctx context.Context, userID, appointmentID string) (domain.AckState, error) {
	rec, err := u.client.GetDismissal(ctx, userID, appointmentID)
	if err != nil {
		return "", fmt.Errorf("appointment state: %w", err)
	}
	return domain.StateOf(rec), nil
}

// ParseDue parses a due time in loc (local time when nil).
func ParseDue(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: due time cannot be empty", domain.ErrInvalidArgument)
	}
	loc = locOrLocal(loc)
	for _, layout := range DueLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid due time %q (want RFC3339 or YYYY-MM-DD HH:MM)", domain.ErrInvalidArgument, value)
}

// writeTable prints a borderless table with a bold header row.
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	header := lipgloss.NewStyle().Bold(true).PaddingRight(2)
	cell := lipgloss.NewStyle().PaddingRight(2)
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
