// Package storage persists pets, appointments and per-user dismissal records
// in SQLite or PostgreSQL.
//
// Atomicity of acknowledgements comes from the (user_id, appointment_id)
// primary key and single-statement upserts, never from application locks.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/petnames/reminders/internal/domain"
)

const (
	// BackendSQLite selects the embedded SQLite store.
	BackendSQLite = "sqlite"
	// BackendPostgres selects a PostgreSQL server reached through lib/pq.
	BackendPostgres = "postgres"
)

var (
	_ domain.NotificationRepository = (*Store)(nil)
	_ domain.DismissalLookup        = (*Store)(nil)
	_ domain.AppointmentRepository  = (*Store)(nil)
)

// Store implements the domain repositories over a sqlx handle.
type Store struct {
	db      *sqlx.DB
	backend string
	now     func() time.Time
}

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Path is the SQLite database file.
	Path string
	// DSN is the PostgreSQL connection string.
	DSN string
	// BusyTimeout bounds how long SQLite writers wait for a lock.
	BusyTimeout time.Duration
}

// Open connects to the configured backend and applies pending migrations.
func Open(ctx context.Context, opts Options) (*Store, error) {
	var (
		db  *sqlx.DB
		err error
	)
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	switch backend {
	case "", BackendSQLite:
		backend = BackendSQLite
		db, err = openSQLite(ctx, opts.Path, opts.BusyTimeout)
	case BackendPostgres:
		db, err = openPostgres(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("storage: %w: unknown backend %q", domain.ErrInvalidArgument, opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, backend: backend, now: time.Now}
	if _, err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Backend returns the backend name.
func (s *Store) Backend() string {
	return s.backend
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// unavailable marks a driver error with domain.ErrUnavailable while keeping the cause inspectable.
func unavailable(op string, err error) error {
	return fmt.Errorf("storage: %s: %w: %w", op, domain.ErrUnavailable, err)
}

func notFound(op, what, id string) error {
	return fmt.Errorf("storage: %s: %w: %s %s", op, domain.ErrNotFound, what, id)
}

func requireID(op, what, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("storage: %s: %w: %s cannot be empty", op, domain.ErrInvalidArgument, what)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// snapshotTxOptions returns options that give both snapshot queries the same view.
// SQLite read transactions already see a single snapshot in WAL mode.
func (s *Store) snapshotTxOptions() *sql.TxOptions {
	if s.backend == BackendPostgres {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
