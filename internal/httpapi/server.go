// Package httpapi exposes the notification operations over HTTP and
// provides a retrying client for them.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/petnames/reminders/internal/domain"
	"github.com/petnames/reminders/internal/logging"
	"github.com/petnames/reminders/internal/version"
)

const (
	headerUserID        = "X-User-ID"
	headerCorrelationID = "X-Correlation-Id"
)

// Service is the engine behind the API. *core.Core implements it.
type Service interface {
	ListGrouped(ctx context.Context, userID string, now time.Time) (domain.Notifications, error)
	Dismiss(ctx context.Context, userID, appointmentID string) error
	MarkAllRead(ctx context.Context, userID string, now time.Time) (int, error)
	Now() time.Time
}

// NotificationsResponse is the body of GET /v1/notifications.
type NotificationsResponse struct {
	Today       []domain.Appointment `json:"today"`
	Upcoming    []domain.Appointment `json:"upcoming"`
	Past        []domain.Appointment `json:"past"`
	UnreadCount int                  `json:"unreadCount"`
}

// DismissResponse is the body of a successful dismiss.
type DismissResponse struct {
	OK bool `json:"ok"`
}

// MarkAllReadResponse is the body of a successful mark-all-read.
type MarkAllReadResponse struct {
	OK          bool `json:"ok"`
	MarkedCount int  `json:"markedCount"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId"`
}

// Server routes API requests to a Service.
type Server struct {
	svc     Service
	log     logging.Logger
	handler http.Handler
}

type ctxKey int

const (
	correlationKey ctxKey = iota
	userKey
)

// NewServer builds the router. A nil logger discards access logs.
func NewServer(svc Service, log logging.Logger) *Server {
	if svc == nil {
		panic("httpapi.NewServer: service dependency cannot be nil")
	}
	if log == nil {
		log = logging.Nop()
	}
	s := &Server{svc: svc, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(s.requireUser)
	api.HandleFunc("/notifications", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/notifications/mark-all-read", s.handleMarkAllRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{appointmentID}/dismiss", s.handleDismiss).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found", correlationID(r.Context()))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", correlationID(r.Context()))
	})

	// Outside the router so unmatched routes are logged and correlated too.
	s.handler = s.correlate(s.accessLog(r))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.String(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	now, ok := s.callerNow(w, r)
	if !ok {
		return
	}
	n, err := s.svc.ListGrouped(r.Context(), userID(r.Context()), now)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NotificationsResponse{
		Today:       n.Groups.Today,
		Upcoming:    n.Groups.Upcoming,
		Past:        n.Groups.Past,
		UnreadCount: n.UnreadCount,
	})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["appointmentID"]
	if err := s.svc.Dismiss(r.Context(), userID(r.Context()), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DismissResponse{OK: true})
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	now, ok := s.callerNow(w, r)
	if !ok {
		return
	}
	marked, err := s.svc.MarkAllRead(r.Context(), userID(r.Context()), now)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MarkAllReadResponse{OK: true, MarkedCount: marked})
}

// callerNow applies the optional tz query parameter to the service clock.
func (s *Server) callerNow(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	now := s.svc.Now()
	tz := strings.TrimSpace(r.URL.Query().Get("tz"))
	if tz == "" {
		return now, true
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.KindInvalidArgument.String(), "unknown time zone "+tz, correlationID(r.Context()))
		return time.Time{}, false
	}
	return now.In(loc), true
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := strings.TrimSpace(r.Header.Get(headerUserID))
		if user == "" {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "missing "+headerUserID+" header", correlationID(r.Context()))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func (s *Server) correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(headerCorrelationID))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerCorrelationID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), correlationKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
			"user_id", r.Header.Get(headerUserID),
			"correlation_id", correlationID(r.Context()),
		)
	})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Server-side
// failures are logged and reported without internal detail.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	cid := correlationID(r.Context())
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindInvalidArgument:
		writeError(w, http.StatusBadRequest, kind.String(), err.Error(), cid)
	case domain.KindNotFound:
		writeError(w, http.StatusNotFound, kind.String(), err.Error(), cid)
	case domain.KindUnavailable:
		s.log.Warn("service unavailable", "error", err, "correlation_id", cid)
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, kind.String(), "service temporarily unavailable", cid)
	default:
		s.log.Error("internal error", "error", err, "correlation_id", cid)
		writeError(w, http.StatusInternalServerError, "internal", "internal error", cid)
	}
}

func correlationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

func userID(ctx context.Context) string {
	id, _ := ctx.Value(userKey).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message, correlationID string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message, CorrelationID: correlationID})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully,
// giving in-flight requests up to shutdownTimeout to finish.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down", "addr", addr)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
