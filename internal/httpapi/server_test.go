package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/petnames/reminders/internal/core"
	"github.com/petnames/reminders/internal/domain"
	"github.com/petnames/reminders/internal/logging"
	"github.com/petnames/reminders/internal/storage"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC)

type apiEnv struct {
	server *httptest.Server
	store  *storage.Store
	petID  string
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	ctx := context.Background()
	s, err := storage.OpenSQLite(ctx, filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	pet, err := s.AddPet(ctx, domain.Pet{OwnerID: "U", Name: "Mochi"})
	require.NoError(t, err)
	for id, due := range map[string]time.Time{
		"t1": fixedNow.Add(time.Hour),
		"u1": fixedNow.AddDate(0, 0, 3),
		"p1": fixedNow.AddDate(0, 0, -1),
	} {
		_, err := s.AddAppointment(ctx, "U", domain.Appointment{ID: id, Title: id, PetID: pet.ID, Due: due})
		require.NoError(t, err)
	}

	c := core.New(s, core.WithClock(func() time.Time { return fixedNow }), core.WithLocation(time.UTC))
	srv := httptest.NewServer(NewServer(c, nil))
	t.Cleanup(srv.Close)
	return &apiEnv{server: srv, store: s, petID: pet.ID}
}

func (e *apiEnv) do(t *testing.T, method, path, user string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, nil)
	require.NoError(t, err)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestListNotifications(t *testing.T) {
	e := newAPIEnv(t)

	resp := e.do(t, http.MethodGet, "/v1/notifications", "U")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NotEmpty(t, resp.Header.Get("X-Correlation-Id"))

	body := decode[NotificationsResponse](t, resp)
	require.Len(t, body.Today, 1)
	require.Equal(t, "t1", body.Today[0].ID)
	require.Equal(t, "Mochi", body.Today[0].PetName)
	require.Len(t, body.Upcoming, 1)
	require.Len(t, body.Past, 1)
	require.Equal(t, 2, body.UnreadCount)
}

func TestListEmptyBucketsEncodeAsArrays(t *testing.T) {
	e := newAPIEnv(t)

	resp := e.do(t, http.MethodGet, "/v1/notifications", "nobody")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	require.JSONEq(t, `[]`, string(raw["today"]))
	require.JSONEq(t, `[]`, string(raw["past"]))
	require.JSONEq(t, `0`, string(raw["unreadCount"]))
}

func TestListWithTimezone(t *testing.T) {
	e := newAPIEnv(t)
	// 08:30 UTC on the 10th is 22:30 on the 10th in Pacific/Kiritimati (UTC+14),
	// where it is already the 11th.
	_, err := e.store.AddAppointment(context.Background(), "U",
		domain.Appointment{ID: "e1", Title: "early", PetID: e.petID, Due: fixedNow.Add(-6 * time.Hour)})
	require.NoError(t, err)

	body := decode[NotificationsResponse](t, e.do(t, http.MethodGet, "/v1/notifications", "U"))
	require.Equal(t, []string{"e1", "t1"}, appointmentIDs(body.Today))

	resp := e.do(t, http.MethodGet, "/v1/notifications?tz=Pacific/Kiritimati", "U")
	if resp.StatusCode == http.StatusBadRequest {
		t.Skip("tz database not available")
	}
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decode[NotificationsResponse](t, resp)
	require.Equal(t, []string{"t1"}, appointmentIDs(body.Today))
	require.Equal(t, []string{"p1", "e1"}, appointmentIDs(body.Past))

	resp = e.do(t, http.MethodGet, "/v1/notifications?tz=Nowhere/Special", "U")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid_argument", decode[ErrorResponse](t, resp).Code)
}

func appointmentIDs(appts []domain.Appointment) []string {
	out := make([]string, 0, len(appts))
	for _, a := range appts {
		out = append(out, a.ID)
	}
	return out
}

func TestDismissAndMarkAllRead(t *testing.T) {
	e := newAPIEnv(t)

	resp := e.do(t, http.MethodPost, "/v1/notifications/p1/dismiss", "U")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, decode[DismissResponse](t, resp).OK)

	resp = e.do(t, http.MethodPost, "/v1/notifications/p1/dismiss", "U")
	require.Equal(t, http.StatusOK, resp.StatusCode, "dismiss is idempotent")

	resp = e.do(t, http.MethodPost, "/v1/notifications/mark-all-read", "U")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, MarkAllReadResponse{OK: true, MarkedCount: 2}, decode[MarkAllReadResponse](t, resp))

	resp = e.do(t, http.MethodPost, "/v1/notifications/mark-all-read", "U")
	require.Equal(t, 0, decode[MarkAllReadResponse](t, resp).MarkedCount)

	body := decode[NotificationsResponse](t, e.do(t, http.MethodGet, "/v1/notifications", "U"))
	require.Empty(t, body.Past)
	require.Zero(t, body.UnreadCount)
	require.Len(t, body.Today, 1)
}

func TestErrorResponses(t *testing.T) {
	e := newAPIEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		status int
		code   string
	}{
		{"missing user", http.MethodGet, "/v1/notifications", "", http.StatusUnauthorized, "unauthenticated"},
		{"unknown appointment", http.MethodPost, "/v1/notifications/nope/dismiss", "U", http.StatusNotFound, "not_found"},
		{"not owned", http.MethodPost, "/v1/notifications/p1/dismiss", "V", http.StatusNotFound, "not_found"},
		{"unknown route", http.MethodGet, "/v2/things", "U", http.StatusNotFound, "not_found"},
		{"wrong method", http.MethodDelete, "/v1/notifications", "U", http.StatusMethodNotAllowed, "method_not_allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.do(t, tt.method, tt.path, tt.user)
			require.Equal(t, tt.status, resp.StatusCode)
			body := decode[ErrorResponse](t, resp)
			require.Equal(t, tt.code, body.Code)
			require.NotEmpty(t, body.CorrelationID)
			require.Equal(t, resp.Header.Get("X-Correlation-Id"), body.CorrelationID)
		})
	}
}

func TestCorrelationIDIsPropagated(t *testing.T) {
	e := newAPIEnv(t)
	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/v1/notifications/missing/dismiss", nil)
	require.NoError(t, err)
	req.Header.Set("X-User-ID", "U")
	req.Header.Set("X-Correlation-Id", "corr-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "corr-123", resp.Header.Get("X-Correlation-Id"))
	require.Equal(t, "corr-123", decode[ErrorResponse](t, resp).CorrelationID)
}

func TestHealth(t *testing.T) {
	e := newAPIEnv(t)
	resp := e.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", decode[map[string]any](t, resp)["status"])
}

type brokenService struct{ err error }

func (b brokenService) ListGrouped(context.Context, string, time.Time) (domain.Notifications, error) {
	return domain.Notifications{}, b.err
}
func (b brokenService) Dismiss(context.Context, string, string) error { return b.err }
func (b brokenService) MarkAllRead(context.Context, string, time.Time) (int, error) {
	return 0, b.err
}
func (b brokenService) Now() time.Time { return fixedNow }

func TestServiceFailuresHideDetail(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("core: list: %w: %w", domain.ErrUnavailable, errors.New("database is locked")), http.StatusServiceUnavailable, "unavailable"},
		{errors.New("nil pointer somewhere"), http.StatusInternalServerError, "internal"},
		{fmt.Errorf("core: list: %w: user id cannot be empty", domain.ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			var logs bytes.Buffer
			srv := NewServer(brokenService{err: tt.err}, logging.NewConsole(&logs, "info"))
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/v1/notifications", nil)
			req.Header.Set("X-User-ID", "U")
			srv.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.code, body.Code)
			require.NotContains(t, body.Message, "database is locked")
			require.Contains(t, logs.String(), "request")
		})
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv := NewServer(brokenService{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0", time.Second) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewServerPanicsOnNilService(t *testing.T) {
	require.Panics(t, func() { NewServer(nil, nil) })
}
