package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations lists the ordered schema versions. Each entry runs at most once;
// applied versions are tracked in schema_migrations.
var migrations = []struct {
	version int
	script  string
}{
	{
		version: 1,
		script: `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	role TEXT NOT NULL CHECK (role IN ('mentor', 'mentee')),
	email TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	meeting_locations TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS slot_templates (
	id TEXT PRIMARY KEY,
	mentor_id TEXT NOT NULL REFERENCES users(id),
	start_at TEXT NOT NULL,
	end_at TEXT NOT NULL,
	recurrence TEXT NOT NULL CHECK (recurrence IN ('daily', 'weekly', 'monthly', 'unique')),
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_slot_templates_mentor ON slot_templates(mentor_id);

-- meetups.slot_template_id is deliberately not a foreign key: reconciliation
-- deletes slot templates while meetup records are never deleted.
CREATE TABLE IF NOT EXISTS meetups (
	id TEXT PRIMARY KEY,
	slot_template_id TEXT NOT NULL,
	mentor_id TEXT NOT NULL REFERENCES users(id),
	mentee_id TEXT NOT NULL REFERENCES users(id),
	start_at TEXT NOT NULL,
	location TEXT NOT NULL,
	message TEXT,
	status TEXT NOT NULL CHECK (status IN ('pending', 'confirmed', 'refused')),
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

-- Booking exclusivity: at most one confirmed meetup per occurrence, and at
-- most one pending request per (occurrence, mentee).
CREATE UNIQUE INDEX IF NOT EXISTS idx_meetups_confirmed_occurrence
	ON meetups(slot_template_id, start_at) WHERE status = 'confirmed';
CREATE UNIQUE INDEX IF NOT EXISTS idx_meetups_pending_request
	ON meetups(slot_template_id, start_at, mentee_id) WHERE status = 'pending';

CREATE INDEX IF NOT EXISTS idx_meetups_mentee ON meetups(mentee_id);
CREATE INDEX IF NOT EXISTS idx_meetups_mentor_status ON meetups(mentor_id, status);

CREATE TABLE IF NOT EXISTS credentials (
	mentor_id TEXT PRIMARY KEY REFERENCES users(id),
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`,
	},
}

// Migrate applies pending schema versions in order.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL DEFAULT (datetime('now'))
)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, migration := range migrations {
		applied, err := cp.migrationApplied(ctx, migration.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, execErr := tx.Exec(migration.script); execErr != nil {
				return fmt.Errorf("apply migration %d: %w", migration.version, execErr)
			}
			if _, execErr := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", migration.version); execErr != nil {
				return fmt.Errorf("record migration %d: %w", migration.version, execErr)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (cp *ConnectionPool) migrationApplied(ctx context.Context, version int) (bool, error) {
	var count int
	err := cp.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check migration %d: %w", version, err)
	}
	return count > 0, nil
}
