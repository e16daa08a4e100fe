package storage

import (
	"context"
	"time"

	"github.com/petnames/reminders/internal/domain"
)

type appointmentRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	DueAt       int64  `db:"due_at"`
	Status      string `db:"status"`
	PetID       string `db:"pet_id"`
	PetName     string `db:"pet_name"`
	PetImageURL string `db:"pet_image_url"`
}

func (r appointmentRow) toDomain() domain.Appointment {
	return domain.Appointment{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Due:         fromMillis(r.DueAt),
		Status:      domain.AppointmentStatus(r.Status),
		PetID:       r.PetID,
		PetName:     r.PetName,
		PetImageURL: r.PetImageURL,
	}
}

type dismissalRow struct {
	UserID        string `db:"user_id"`
	AppointmentID string `db:"appointment_id"`
	Hidden        bool   `db:"hidden"`
	CreatedAt     int64  `db:"created_at"`
}

func (r dismissalRow) toDomain() domain.DismissalRecord {
	return domain.DismissalRecord{
		UserID:        r.UserID,
		AppointmentID: r.AppointmentID,
		Hidden:        r.Hidden,
		CreatedAt:     fromMillis(r.CreatedAt),
	}
}

const selectAppointmentColumns = `
SELECT a.id, a.title, a.description, a.due_at, a.status, a.pet_id,
       p.name AS pet_name, p.image_url AS pet_image_url
FROM appointments a
JOIN pets p ON p.id = a.pet_id`

// Today and future appointments are always visible; past ones only until hidden.
const visibleQuery = selectAppointmentColumns + `
WHERE p.owner_id = ?
  AND (a.due_at >= ? OR NOT EXISTS (
        SELECT 1 FROM dismissals d
        WHERE d.user_id = ? AND d.appointment_id = a.id AND d.hidden = TRUE))
ORDER BY a.due_at, a.id`

// Existence of any record, not the hidden flag, marks an appointment as seen.
const unreadQuery = `
SELECT COUNT(*)
FROM appointments a
JOIN pets p ON p.id = a.pet_id
WHERE p.owner_id = ?
  AND a.due_at >= ?
  AND NOT EXISTS (
        SELECT 1 FROM dismissals d
        WHERE d.user_id = ? AND d.appointment_id = a.id)`

const dismissQuery = `
INSERT INTO dismissals (user_id, appointment_id, hidden, created_at)
SELECT CAST(? AS TEXT), a.id, TRUE, CAST(? AS BIGINT)
FROM appointments a
JOIN pets p ON p.id = a.pet_id
WHERE a.id = ? AND p.owner_id = ?
ON CONFLICT (user_id, appointment_id) DO UPDATE SET hidden = TRUE`

// Existing records of either kind are skipped, so a dismissal is never downgraded.
const markAllReadQuery = `
INSERT INTO dismissals (user_id, appointment_id, hidden, created_at)
SELECT CAST(? AS TEXT), a.id, FALSE, CAST(? AS BIGINT)
FROM appointments a
JOIN pets p ON p.id = a.pet_id
WHERE p.owner_id = ? AND a.due_at >= ?
ON CONFLICT (user_id, appointment_id) DO NOTHING`

// Snapshot reads the visible set and the unread count in one transaction.
func (s *Store) Snapshot(ctx context.Context, userID string, todayStart time.Time) (domain.NotificationSnapshot, error) {
	var snap domain.NotificationSnapshot
	if err := requireID("snapshot", "user id", userID); err != nil {
		return snap, err
	}
	start := toMillis(todayStart)

	tx, err := s.db.BeginTxx(ctx, s.snapshotTxOptions())
	if err != nil {
		return snap, unavailable("snapshot", err)
	}
	defer tx.Rollback()

	var rows []appointmentRow
	if err := tx.SelectContext(ctx, &rows, tx.Rebind(visibleQuery), userID, start, userID); err != nil {
		return snap, unavailable("snapshot", err)
	}
	if err := tx.GetContext(ctx, &snap.Unread, tx.Rebind(unreadQuery), userID, start, userID); err != nil {
		return snap, unavailable("snapshot", err)
	}
	if err := tx.Commit(); err != nil {
		return snap, unavailable("snapshot", err)
	}

	snap.Visible = make([]domain.Appointment, 0, len(rows))
	for _, r := range rows {
		snap.Visible = append(snap.Visible, r.toDomain())
	}
	return snap, nil
}

// Dismiss upserts a hidden record for an appointment owned by userID.
// It is a single statement, so concurrent calls converge on one hidden row.
func (s *Store) Dismiss(ctx context.Context, userID, appointmentID string) error {
	if err := requireID("dismiss", "user id", userID); err != nil {
		return err
	}
	if err := requireID("dismiss", "appointment id", appointmentID); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(dismissQuery), userID, toMillis(s.now()), appointmentID, userID)
	if err != nil {
		return unavailable("dismiss", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("dismiss", err)
	}
	if n == 0 {
		return notFound("dismiss", "appointment", appointmentID)
	}
	return nil
}

// MarkAllRead creates read records for the user's appointments due at or
// after todayStart that have no record yet, returning how many were created.
func (s *Store) MarkAllRead(ctx context.Context, userID string, todayStart time.Time) (int, error) {
	if err := requireID("mark all read", "user id", userID); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(markAllReadQuery), userID, toMillis(s.now()), userID, toMillis(todayStart))
	if err != nil {
		return 0, unavailable("mark all read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("mark all read", err)
	}
	return int(n), nil
}

// GetDismissal returns the record for the pair, or nil when none exists.
func (s *Store) GetDismissal(ctx context.Context, userID, appointmentID string) (*domain.DismissalRecord, error) {
	var row dismissalRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
SELECT user_id, appointment_id, hidden, created_at
FROM dismissals WHERE user_id = ? AND appointment_id = ?`), userID, appointmentID)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get dismissal", err)
	}
	rec := row.toDomain()
	return &rec, nil
}

// ListDismissals returns every record of the user ordered by appointment id.
func (s *Store) ListDismissals(ctx context.Context, userID string) ([]domain.DismissalRecord, error) {
	var rows []dismissalRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
SELECT user_id, appointment_id, hidden, created_at
FROM dismissals WHERE user_id = ? ORDER BY appointment_id`), userID)
	if err != nil {
		return nil, unavailable("list dismissals", err)
	}
	out := make([]domain.DismissalRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
