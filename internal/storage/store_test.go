package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/petnames/reminders/internal/domain"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	s.now = func() time.Time { return testNow }
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type fixture struct {
	user  string
	pet   domain.Pet
	today domain.Appointment
	later domain.Appointment
	past  domain.Appointment
}

// seed creates one pet with an appointment due today, one next week and one yesterday.
func seed(t *testing.T, s *Store) fixture {
	t.Helper()
	ctx := context.Background()
	user := "user-" + uuid.NewString()

	pet, err := s.AddPet(ctx, domain.Pet{OwnerID: user, Name: "Biscuit", ImageURL: "https://img.example/biscuit.png"})
	require.NoError(t, err)

	add := func(title string, due time.Time) domain.Appointment {
		appt, err := s.AddAppointment(ctx, user, domain.Appointment{Title: title, PetID: pet.ID, Due: due})
		require.NoError(t, err)
		return appt
	}
	return fixture{
		user:  user,
		pet:   pet,
		today: add("Vaccine", testNow.Add(2*time.Hour)),
		later: add("Grooming", testNow.AddDate(0, 0, 7)),
		past:  add("Checkup", testNow.AddDate(0, 0, -1)),
	}
}

func todayStart() time.Time {
	return domain.WindowFor(testNow).Start
}

func visibleIDs(snap domain.NotificationSnapshot) []string {
	out := make([]string, 0, len(snap.Visible))
	for _, a := range snap.Visible {
		out = append(out, a.ID)
	}
	return out
}

func TestOpenRunsMigrations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, LatestSchemaVersion(), v)

	v, err = s.Migrate(ctx)
	require.NoError(t, err, "migrate must be re-runnable")
	require.Equal(t, LatestSchemaVersion(), v)
	require.Equal(t, BackendSQLite, s.Backend())
	require.NoError(t, s.Ping(ctx))
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "reminders.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	pet, err := s.AddPet(ctx, domain.Pet{OwnerID: "u1", Name: "Rex"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	pets, err := s.ListPets(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []domain.Pet{pet}, pets)
}

func TestOpenRejectsBadOptions(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, Options{Backend: "mysql"})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = Open(ctx, Options{Backend: BackendSQLite})
	require.Error(t, err)

	_, err = Open(ctx, Options{Backend: BackendPostgres})
	require.Error(t, err)
}

func TestAddAppointmentRequiresOwnedPet(t *testing.T) {
	s := newTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	_, err := s.AddAppointment(ctx, "someone-else", domain.Appointment{Title: "Walk", PetID: f.pet.ID, Due: testNow})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.AddAppointment(ctx, f.user, domain.Appointment{Title: "", PetID: f.pet.ID, Due: testNow})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	require.Equal(t, "Biscuit", f.today.PetName)
	require.Equal(t, f.pet.ImageURL, f.today.PetImageURL)
	require.Equal(t, domain.StatusPending, f.today.Status)
	require.True(t, f.today.Due.Equal(testNow.Add(2*time.Hour)))
}

func TestAddPetValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddPet(ctx, domain.Pet{Name: "Rex"})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = s.AddPet(ctx, domain.Pet{OwnerID: "u1", Name: "  "})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSnapshotFreshUser(t *testing.T) {
	s := newTestStore(t)
	f := seed(t, s)

	snap, err := s.Snapshot(context.Background(), f.user, todayStart())
	require.NoError(t, err)
	require.Equal(t, []string{f.past.ID, f.today.ID, f.later.ID}, visibleIDs(snap))
	require.Equal(t, 2, snap.Unread, "past appointments never count as unread")
}

func TestSnapshotIsScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	snap, err := s.Snapshot(context.Background(), "stranger", todayStart())
	require.NoError(t, err)
	require.Empty(t, snap.Visible)
	require.Zero(t, snap.Unread)

	_, err = s.Snapshot(context.Background(), " ", todayStart())
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestDismissPastHidesIt(t *testing.T) {
	s := newTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Dismiss(ctx, f.user, f.past.ID))

	snap, err := s.Snapshot(ctx, f.user, todayStart())
	require.NoError(t, err)
	require.Equal(t, []string{f.today.ID, f.later.ID}, visibleIDs(snap))

	// A week later the dismissed item is still hidden.
	snap, err = s.Snapshot(ctx, f.user, todayStart().AddDate(0, 0, 7))
	require.NoError(t, err)
	require.NotContains(t, visibleIDs(snap), f.past.ID)
}

func TestDismissTodayKeepsItVisibleButRead(t *testing.T) {
	s := newTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Dismiss(ctx, f.user, f.today.ID))

	snap, err := s.Snapshot(ctx, f.user, todayStart())
	require.NoError(t, err)
	require.Contains(t, visibleIDs(snap), f.today.ID)
	require.Equal(t, 1, snap.Unread)
}

func TestDismissIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Dismiss(ctx, f.user, f.past.ID))
	first, err := s.ListDismissals(ctx, f.user)
	require.NoError(t, err)

	require.NoError(t, s.Dismiss(ctx, f.user, f.past.ID))
	second, err := s.ListDismissals(ctx, f.user)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, second, 1)
	require.True(t, second[0].Hidden)
}

func TestDismissErrors(t *testing.T) {
	s := newTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	tests := []struct {
		name    string
		user    string
		appt    string
		wantErr error
	}{
		{"unknown appointment", f.user, "missing", domain.ErrNotFound},
		{"not owned", "intruder", f.past.ID, domain.ErrNotFound},
		{"blank user", "", f.past.ID, domain.ErrInvalidArgument},
		{"blank appointment", f.user, "", domain.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, s.Dismiss(ctx, tt.user, tt.appt), tt.wantErr)
		})
	}

	recs, err := s.ListDismissals(ctx, "intruder")
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestMarkAllRead(t *testing.T) {
	s := newTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	n, err := s.MarkAllRead(ctx, f.user, todayStart())
	require.NoError(t, err)
	require.Equal(t, 2, n)

	snap, err := s.Snapshot(ctx, f.user, todayStart())
	require.NoError(t, err)
	require.Zero(t, snap.Unread)
	require.Len(t, snap.Visible, 3, "mark all read hides nothing")

	n, err = s.MarkAllRead(ctx, f.user, todayStart())
	require.NoError(t, err)
	require.Zero(t, n, "second call finds nothing to mark")

	rec, err := s.GetDismissal(ctx, f.user, f.past.ID)
	require.NoError(t, err)
	require.Nil(t, rec, "past appointments are not marked")
}

func TestMarkAllReadNeverDowngradesDismissal(t *testing.T) {
	s := newTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Dismiss(ctx, f.user, f.later.ID))
	n, err := s.MarkAllRead(ctx, f.user, todayStart())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	rec, err := s.GetDismissal(ctx, f.user, f.later.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AckDismissed, domain.StateOf(rec))

	rec, err = s.GetDismissal(ctx, f.user, f.today.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AckRead, domain.StateOf(rec))
	require.True(t, rec.CreatedAt.Equal(testNow))
}

func TestDismissAfterMarkAllReadFlipsHidden(t *testing.T) {
	s := newTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	_, err := s.MarkAllRead(ctx, f.user, todayStart())
	require.NoError(t, err)
	require.NoError(t, s.Dismiss(ctx, f.user, f.today.ID))

	rec, err := s.GetDismissal(ctx, f.user, f.today.ID)
	require.NoError(t, err)
	require.True(t, rec.Hidden)
}

func TestConcurrentDismissConverges(t *testing.T) {
	s := newTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Dismiss(ctx, f.user, f.past.ID)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	recs, err := s.ListDismissals(ctx, f.user)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.True(t, recs[0].Hidden)
}

func TestRescheduleKeepsDismissal(t *testing.T) {
	s := newTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Dismiss(ctx, f.user, f.past.ID))
	require.NoError(t, s.RescheduleAppointment(ctx, f.user, f.past.ID, testNow.AddDate(0, 0, -3)))

	snap, err := s.Snapshot(ctx, f.user, todayStart())
	require.NoError(t, err)
	require.NotContains(t, visibleIDs(snap), f.past.ID)

	err = s.RescheduleAppointment(ctx, "intruder", f.past.ID, testNow)
	require.ErrorIs(t, err, domain.ErrNotFound)
	err = s.RescheduleAppointment(ctx, f.user, f.past.ID, time.Time{})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSetAppointmentStatus(t *testing.T) {
	s := newTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.SetAppointmentStatus(ctx, f.user, f.today.ID, domain.StatusCompleted))
	got, err := s.GetAppointment(ctx, f.user, f.today.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, got.Status)

	snap, err := s.Snapshot(ctx, f.user, todayStart())
	require.NoError(t, err)
	require.Contains(t, visibleIDs(snap), f.today.ID, "status does not affect visibility")

	require.ErrorIs(t, s.SetAppointmentStatus(ctx, f.user, f.today.ID, "late"), domain.ErrInvalidArgument)
	require.ErrorIs(t, s.SetAppointmentStatus(ctx, f.user, "missing", domain.StatusPending), domain.ErrNotFound)
}

func TestListAppointmentsAndPets(t *testing.T) {
	s := newTestStore(t)
	f := seed(t, s)
	ctx := context.Background()

	appts, err := s.ListAppointments(ctx, f.user)
	require.NoError(t, err)
	require.Len(t, appts, 3)
	require.Equal(t, f.past.ID, appts[0].ID)

	pets, err := s.ListPets(ctx, f.user)
	require.NoError(t, err)
	require.Equal(t, []domain.Pet{f.pet}, pets)

	_, err = s.GetAppointment(ctx, "intruder", f.today.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := newTestStore(t)
	f := seed(t, s)
	require.NoError(t, s.Close())

	_, err := s.Snapshot(context.Background(), f.user, todayStart())
	require.ErrorIs(t, err, domain.ErrUnavailable)
	require.True(t, domain.Retryable(err))
	require.ErrorIs(t, s.Dismiss(context.Background(), f.user, f.past.ID), domain.ErrUnavailable)
}
