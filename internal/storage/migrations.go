package storage

import (
	"database/sql"
	"fmt"
)

// MigrateToV2 migrates from schema v1 (group names recovered from the
// subnet path) to v2 (group_name stored per subnet row). Databases
// created at v2 carry the column from schema.sql and only record the
// version.
func (ss *SQLiteStorage) MigrateToV2() error {
	var version sql.NullInt64
	err := ss.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("checking migration version: %w", err)
	}
	if version.Valid && version.Int64 >= 2 {
		return nil // Already migrated
	}

	tx, err := ss.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var groupNameColumn string
	err = tx.QueryRow(`
		SELECT name FROM pragma_table_info('placement_subnets')
		WHERE name='group_name'
	`).Scan(&groupNameColumn)

	if err == sql.ErrNoRows {
		if _, err := tx.Exec(`
			ALTER TABLE placement_subnets ADD COLUMN group_name TEXT NOT NULL DEFAULT ''
		`); err != nil {
			return fmt.Errorf("adding group_name column: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("inspecting placement_subnets: %w", err)
	}

	if _, err := tx.Exec(`INSERT OR IGNORE INTO schema_migrations (version) VALUES (2)`); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	return tx.Commit()
}
