package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/petnames/reminders/internal/domain"
	"github.com/petnames/reminders/internal/storage"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC)

type env struct {
	core  *Core
	store *storage.Store
	user  string
	pet   domain.Pet
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	s, err := storage.OpenSQLite(ctx, filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	pet, err := s.AddPet(ctx, domain.Pet{OwnerID: "U", Name: "Mochi"})
	require.NoError(t, err)

	c := New(s, WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC))
	return &env{core: c, store: s, user: "U", pet: pet}
}

func (e *env) add(t *testing.T, id string, due time.Time) domain.Appointment {
	t.Helper()
	appt, err := e.store.AddAppointment(context.Background(), e.user, domain.Appointment{
		ID: id, Title: "appt " + id, PetID: e.pet.ID, Due: due,
	})
	require.NoError(t, err)
	return appt
}

func groupIDs(appts []domain.Appointment) []string {
	out := make([]string, 0, len(appts))
	for _, a := range appts {
		out = append(out, a.ID)
	}
	return out
}

// Scenarios A through D run in sequence against one user.
func TestNotificationLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.add(t, "A1", fixedNow.Add(time.Hour))

	// A: one appointment due today with no record.
	got, err := e.core.ListGrouped(ctx, e.user, fixedNow)
	require.NoError(t, err)
	require.Equal(t, []string{"A1"}, groupIDs(got.Groups.Today))
	require.Equal(t, 1, got.UnreadCount)

	// B: mark all read clears the badge but keeps A1 in today.
	marked, err := e.core.MarkAllRead(ctx, e.user, fixedNow)
	require.NoError(t, err)
	require.Equal(t, 1, marked)
	got, err = e.core.ListGrouped(ctx, e.user, fixedNow)
	require.NoError(t, err)
	require.Zero(t, got.UnreadCount)
	require.Equal(t, []string{"A1"}, groupIDs(got.Groups.Today))

	// C: an appointment due yesterday shows in past and is not unread.
	e.add(t, "A2", fixedNow.AddDate(0, 0, -1))
	got, err = e.core.ListGrouped(ctx, e.user, fixedNow)
	require.NoError(t, err)
	require.Equal(t, []string{"A2"}, groupIDs(got.Groups.Past))
	require.Zero(t, got.UnreadCount)

	// D: dismissing A2 removes it from past in every later call.
	require.NoError(t, e.core.Dismiss(ctx, e.user, "A2"))
	for _, now := range []time.Time{fixedNow, fixedNow.AddDate(0, 0, 1), fixedNow.AddDate(0, 1, 0)} {
		got, err = e.core.ListGrouped(ctx, e.user, now)
		require.NoError(t, err)
		require.NotContains(t, groupIDs(got.Groups.Past), "A2", "now=%s", now)
	}
}

// Scenario E.
func TestConcurrentDismissBothSucceed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.add(t, "A2", fixedNow.AddDate(0, 0, -1))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = e.core.Dismiss(ctx, e.user, "A2")
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	recs, err := e.store.ListDismissals(ctx, e.user)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.True(t, recs[0].Hidden)
}

func TestBoundariesAreToday(t *testing.T) {
	e := newEnv(t)
	window := domain.WindowFor(fixedNow)
	e.add(t, "start", window.Start)
	// Stored at millisecond precision, so the last representable instant is End truncated.
	e.add(t, "end", window.End.Truncate(time.Millisecond))
	e.add(t, "before", window.Start.Add(-time.Millisecond))
	e.add(t, "after", window.End.Add(time.Nanosecond))

	got, err := e.core.ListGrouped(context.Background(), e.user, fixedNow)
	require.NoError(t, err)
	require.Equal(t, []string{"start", "end"}, groupIDs(got.Groups.Today))
	require.Equal(t, []string{"before"}, groupIDs(got.Groups.Past))
	require.Equal(t, []string{"after"}, groupIDs(got.Groups.Upcoming))
	require.Equal(t, 3, got.UnreadCount)
}

func TestUnreadIgnoresHiddenFlag(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.add(t, "t1", fixedNow.Add(time.Hour))
	e.add(t, "t2", fixedNow.Add(2*time.Hour))
	e.add(t, "u1", fixedNow.AddDate(0, 0, 2))
	e.add(t, "p1", fixedNow.AddDate(0, 0, -2))

	require.NoError(t, e.core.Dismiss(ctx, e.user, "t1"))
	require.NoError(t, e.core.Dismiss(ctx, e.user, "p1"))

	got, err := e.core.ListGrouped(ctx, e.user, fixedNow)
	require.NoError(t, err)
	require.Equal(t, 2, got.UnreadCount, "t2 and u1 have no record")
	require.Equal(t, []string{"t1", "t2"}, groupIDs(got.Groups.Today), "dismiss never hides today items")
	require.Empty(t, got.Groups.Past)
}

func TestMarkAllReadWithNothingUnread(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	marked, err := e.core.MarkAllRead(ctx, e.user, fixedNow)
	require.NoError(t, err)
	require.Zero(t, marked)

	e.add(t, "p1", fixedNow.AddDate(0, 0, -2))
	marked, err = e.core.MarkAllRead(ctx, e.user, fixedNow)
	require.NoError(t, err)
	require.Zero(t, marked, "past appointments are never marked")
}

func TestListGroupedUsesCallerDay(t *testing.T) {
	e := newEnv(t)
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2026-03-10 16:00 UTC is 01:00 on the 11th in Tokyo.
	e.add(t, "late", time.Date(2026, time.March, 10, 16, 0, 0, 0, time.UTC))

	utc, err := e.core.ListGrouped(context.Background(), e.user, fixedNow)
	require.NoError(t, err)
	require.Equal(t, []string{"late"}, groupIDs(utc.Groups.Today))

	jst, err := e.core.ListGrouped(context.Background(), e.user, fixedNow.In(tokyo).Add(-6*time.Hour))
	require.NoError(t, err)
	require.Equal(t, []string{"late"}, groupIDs(jst.Groups.Upcoming))
	require.Equal(t, tokyo, jst.Groups.Upcoming[0].Due.Location())
}

func TestGetGroupedNotificationsUsesClock(t *testing.T) {
	e := newEnv(t)
	e.add(t, "t1", fixedNow.Add(time.Hour))

	got, err := e.core.GetGroupedNotifications(context.Background(), e.user)
	require.NoError(t, err)
	require.Equal(t, []string{"t1"}, groupIDs(got.Groups.Today))
	require.Equal(t, fixedNow, e.core.Now())
	require.Equal(t, time.UTC, e.core.Location())
}

func TestInvalidArguments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.core.ListGrouped(ctx, "", fixedNow)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	require.ErrorIs(t, e.core.Dismiss(ctx, " ", "a"), domain.ErrInvalidArgument)
	require.ErrorIs(t, e.core.Dismiss(ctx, e.user, ""), domain.ErrInvalidArgument)
	_, err = e.core.MarkAllRead(ctx, "", fixedNow)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	require.ErrorIs(t, e.core.DismissNotification(ctx, e.user, "missing"), domain.ErrNotFound)
}

type failingRepo struct {
	err   error
	calls int
}

func (f *failingRepo) Snapshot(context.Context, string, time.Time) (domain.NotificationSnapshot, error) {
	f.calls++
	return domain.NotificationSnapshot{Visible: []domain.Appointment{{ID: "partial"}}, Unread: 9}, f.err
}

func (f *failingRepo) Dismiss(context.Context, string, string) error {
	f.calls++
	return f.err
}

func (f *failingRepo) MarkAllRead(context.Context, string, time.Time) (int, error) {
	f.calls++
	return 3, f.err
}

func TestStoreFailureReturnsNoPartialResult(t *testing.T) {
	repo := &failingRepo{err: fmt.Errorf("storage: snapshot: %w: %w", domain.ErrUnavailable, errors.New("disk I/O error"))}
	c := New(repo)
	ctx := context.Background()

	got, err := c.ListGrouped(ctx, "U", fixedNow)
	require.ErrorIs(t, err, domain.ErrUnavailable)
	require.Equal(t, domain.Notifications{}, got)

	marked, err := c.MarkAllRead(ctx, "U", fixedNow)
	require.ErrorIs(t, err, domain.ErrUnavailable)
	require.Zero(t, marked)

	require.ErrorIs(t, c.Dismiss(ctx, "U", "a"), domain.ErrUnavailable)
	require.Equal(t, 3, repo.calls)
}

func TestLocalSource(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.add(t, "t1", fixedNow.Add(time.Hour))
	e.add(t, "p1", fixedNow.AddDate(0, 0, -1))
	src := NewLocalSource(e.core)

	got, err := src.GetGroupedNotifications(ctx, e.user)
	require.NoError(t, err)
	require.Equal(t, 1, got.UnreadCount)

	require.NoError(t, src.DismissNotification(ctx, e.user, "p1"))
	marked, err := src.MarkAllRead(ctx, e.user)
	require.NoError(t, err)
	require.Equal(t, 1, marked)

	got, err = src.GetGroupedNotifications(ctx, e.user)
	require.NoError(t, err)
	require.Zero(t, got.UnreadCount)
	require.Empty(t, got.Groups.Past)
}

func TestNewPanicsOnNilRepository(t *testing.T) {
	require.Panics(t, func() { New(nil) })
	require.Panics(t, func() { NewLocalSource(nil) })
}
