package model

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const Schema = `
CREATE TABLE IF NOT EXISTS crawls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	screen_name VARCHAR NOT NULL,
	kind VARCHAR NOT NULL,
	status VARCHAR NOT NULL,
	tweet_count INTEGER NOT NULL DEFAULT 0,
	newest_id INTEGER NOT NULL DEFAULT 0,
	path VARCHAR NOT NULL DEFAULT '',
	run_id VARCHAR NOT NULL DEFAULT '',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (screen_name, kind)
);

CREATE INDEX IF NOT EXISTS idx_crawls_status ON crawls (status);
`

const SchemaPostgres = `
CREATE TABLE IF NOT EXISTS crawls (
	id SERIAL PRIMARY KEY,
	screen_name VARCHAR NOT NULL,
	kind VARCHAR NOT NULL,
	status VARCHAR NOT NULL,
	tweet_count INTEGER NOT NULL DEFAULT 0,
	newest_id BIGINT NOT NULL DEFAULT 0,
	path VARCHAR NOT NULL DEFAULT '',
	run_id VARCHAR NOT NULL DEFAULT '',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (screen_name, kind)
);

CREATE INDEX IF NOT EXISTS idx_crawls_status ON crawls (status);
`

// CreateTables creates the schema matching the driver of db.
func CreateTables(db *sqlx.DB) error {
	switch db.DriverName() {
	case "sqlite3":
		_, err := db.Exec(Schema)
		return err
	case "postgres":
		_, err := db.Exec(SchemaPostgres)
		return err
	default:
		return fmt.Errorf("no schema for driver %s", db.DriverName())
	}
}
