package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// schema_migrations records which up scripts have run, keyed by the
// script's base name, so reopening a store never replays them.
const migrationLogDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	name TEXT PRIMARY KEY,
	applied_at TEXT NOT NULL
)`

// MigrateUp applies every pending up migration in filename order.
func MigrateUp(db *sql.DB) error {
	return runMigrations(db, ".up.sql")
}

// MigrateDown replays the down scripts in reverse order and clears
// their log rows.
func MigrateDown(db *sql.DB) error {
	return runMigrations(db, ".down.sql")
}

func runMigrations(db *sql.DB, suffix string) error {
	if _, err := db.Exec(migrationLogDDL); err != nil {
		return fmt.Errorf("storage: create migration log: %w", err)
	}
	names, err := fs.Glob(migrationFiles, "migrations/*"+suffix)
	if err != nil {
		return fmt.Errorf("storage: glob migrations: %w", err)
	}
	sort.Strings(names)
	down := suffix == ".down.sql"
	if down {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}
	for _, name := range names {
		key := strings.TrimSuffix(path.Base(name), suffix)
		if !down {
			applied, err := migrationApplied(db, key)
			if err != nil {
				return err
			}
			if applied {
				continue
			}
		}
		if err := runMigration(db, name, key, down); err != nil {
			return err
		}
	}
	return nil
}

func migrationApplied(db *sql.DB, key string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("storage: read migration log: %w", err)
	}
	return n > 0, nil
}

// runMigration executes one script and its log row in a single
// transaction so a failed script leaves no partial record.
func runMigration(db *sql.DB, name, key string, down bool) error {
	script, err := migrationFiles.ReadFile(name)
	if err != nil {
		return fmt.Errorf("storage: read migration %s: %w", name, err)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin migration %s: %w", name, err)
	}
	if _, err := tx.Exec(string(script)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("storage: apply migration %s: %w", name, err)
	}
	if down {
		_, err = tx.Exec(`DELETE FROM schema_migrations WHERE name = ?`, key)
	} else {
		_, err = tx.Exec(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
			key, time.Now().UTC().Format(time.RFC3339))
	}
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("storage: log migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit migration %s: %w", name, err)
	}
	return nil
}
