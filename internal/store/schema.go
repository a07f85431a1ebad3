package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is recorded in store_meta.
const SchemaVersion = 1

// createSchema creates the mirror tables and indexes.
func createSchema(db *sql.DB) error {
	itemsSQL := `
		CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			parent_id TEXT,
			content TEXT NOT NULL,
			state TEXT NOT NULL,
			indent INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		)
	`
	if _, err := db.Exec(itemsSQL); err != nil {
		return fmt.Errorf("create items table: %w", err)
	}

	// One JSON document per item; replaced wholesale unless merged.
	metadataSQL := `
		CREATE TABLE IF NOT EXISTS item_metadata (
			item_id TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)
	`
	if _, err := db.Exec(metadataSQL); err != nil {
		return fmt.Errorf("create item_metadata table: %w", err)
	}

	metaSQL := `
		CREATE TABLE IF NOT EXISTS store_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`
	if _, err := db.Exec(metaSQL); err != nil {
		return fmt.Errorf("create store_meta table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_items_position ON items(position)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	if _, err := db.Exec(
		`INSERT INTO store_meta (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprint(SchemaVersion),
	); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}
