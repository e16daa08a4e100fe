package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const defaultBusyTimeout = 5 * time.Second

// OpenSQLite opens (or creates) a SQLite store at path.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	return Open(ctx, Options{Backend: BackendSQLite, Path: path})
}

// openSQLite enables WAL mode, foreign keys and a busy timeout on every
// pooled connection through _pragma DSN parameters.
func openSQLite(ctx context.Context, path string, busyTimeout time.Duration) (*sqlx.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite storage: db path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite storage: create db directory: %w", err)
	}
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(1)")
	dsn := "file:" + path + "?" + params.Encode()

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: open db: %w", err)
	}
	// A single writer connection serializes upserts inside the process;
	// busy_timeout covers other processes sharing the file.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite storage: %w", unavailable("ping", err))
	}
	return db, nil
}
