package storage

import (
	"context"
	"fmt"
)

type migration struct {
	version int
	name    string
	sqlite  string
	pg      string
}

// migrations are applied in order; each runs in its own transaction
// together with its schema_version row.
var migrations = []migration{
	{
		version: 1,
		name:    "pets and appointments",
		sqlite: `
CREATE TABLE IF NOT EXISTS pets (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	name       TEXT NOT NULL,
	image_url  TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pets_owner ON pets(owner_id);
CREATE TABLE IF NOT EXISTS appointments (
	id          TEXT PRIMARY KEY,
	pet_id      TEXT NOT NULL REFERENCES pets(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	due_at      INTEGER NOT NULL,
	status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed')),
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_appointments_pet_due ON appointments(pet_id, due_at);`,
		pg: `
CREATE TABLE IF NOT EXISTS pets (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	name       TEXT NOT NULL,
	image_url  TEXT NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pets_owner ON pets(owner_id);
CREATE TABLE IF NOT EXISTS appointments (
	id          TEXT PRIMARY KEY,
	pet_id      TEXT NOT NULL REFERENCES pets(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	due_at      BIGINT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed')),
	created_at  BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_appointments_pet_due ON appointments(pet_id, due_at);`,
	},
	{
		version: 2,
		name:    "dismissals",
		sqlite: `
CREATE TABLE IF NOT EXISTS dismissals (
	user_id        TEXT NOT NULL,
	appointment_id TEXT NOT NULL,
	hidden         BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     INTEGER NOT NULL,
	PRIMARY KEY (user_id, appointment_id)
);`,
		pg: `
CREATE TABLE IF NOT EXISTS dismissals (
	user_id        TEXT NOT NULL,
	appointment_id TEXT NOT NULL,
	hidden         BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     BIGINT NOT NULL,
	PRIMARY KEY (user_id, appointment_id)
);`,
	},
}

// LatestSchemaVersion is the version Migrate brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Migrate applies outstanding migrations and returns the resulting schema version.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	const createVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
	version    INTEGER PRIMARY KEY,
	applied_at BIGINT NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, createVersionTable); err != nil {
		return 0, unavailable("migrate", err)
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return 0, err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return current, err
		}
		current = m.version
	}
	return current, nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	ddl := m.sqlite
	if s.backend == BackendPostgres {
		ddl = m.pg
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return unavailable("migrate", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("storage: applying migration v%d (%s): %w", m.version, m.name, err)
	}
	insert := tx.Rebind(`INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`)
	if _, err := tx.ExecContext(ctx, insert, m.version, toMillis(s.now())); err != nil {
		return fmt.Errorf("storage: recording migration v%d: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable("migrate", err)
	}
	return nil
}

// SchemaVersion returns the highest applied migration, 0 for a fresh database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.GetContext(ctx, &version, `SELECT COALESCE(MAX(version), 0) FROM schema_version`); err != nil {
		return 0, unavailable("schema version", err)
	}
	return version, nil
}
