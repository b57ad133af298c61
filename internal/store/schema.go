package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

// migrations[i] moves a database from version i to i+1.
var migrations = []string{
	schemaSQL,
}

const metadataDDL = `CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

func schemaVersion() int {
	return len(migrations)
}

// migrate applies every pending migration in one transaction and records the
// resulting version. A database written by a newer build is rejected.
func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, metadataDDL); err != nil {
		return fmt.Errorf("create metadata: %w", err)
	}

	current, err := currentVersion(ctx, tx)
	if err != nil {
		return err
	}
	if current > schemaVersion() {
		return fmt.Errorf("database schema version %d is newer than supported %d", current, schemaVersion())
	}

	for v := current; v < schemaVersion(); v++ {
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			return fmt.Errorf("apply migration %d: %w", v+1, err)
		}
	}

	if current != schemaVersion() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO metadata (key, value) VALUES ('schema_version', ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, strconv.Itoa(schemaVersion())); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	}

	return tx.Commit()
}

// currentVersion returns 0 for a database that has never been migrated.
func currentVersion(ctx context.Context, tx *sql.Tx) (int, error) {
	var raw string
	err := tx.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse schema version %q: %w", raw, err)
	}
	return v, nil
}
