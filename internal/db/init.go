// Package db opens the settings store database and keeps it tidy.
package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL flavour behind a connection.
type Dialect string

const (
	// Postgres is served by lib/pq.
	Postgres Dialect = "postgres"
	// SQLite is served by modernc.org/sqlite.
	SQLite Dialect = "sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
    passcode TEXT PRIMARY KEY,
    document TEXT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings_revisions (
    id TEXT PRIMARY KEY,
    passcode TEXT NOT NULL,
    seq BIGINT NOT NULL,
    document TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    UNIQUE (passcode, seq)
);

CREATE INDEX IF NOT EXISTS settings_revisions_created_at ON settings_revisions (created_at);
`

// Rebind rewrites $n placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if d == SQLite {
		return strings.ReplaceAll(query, "$", "?")
	}
	return query
}

// ParseDSN picks the dialect for dsn and returns the driver data source.
// "sqlite:<path>" and "file:<path>" select SQLite; anything else is postgres.
func ParseDSN(dsn string) (Dialect, string) {
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		return SQLite, strings.TrimPrefix(dsn, "sqlite:")
	case strings.HasPrefix(dsn, "file:"):
		return SQLite, dsn
	default:
		return Postgres, dsn
	}
}

// Open connects to dsn and creates the settings tables.
func Open(dsn string) (*sql.DB, Dialect, error) {
	dialect, source := ParseDSN(dsn)
	db, err := sql.Open(string(dialect), source)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == SQLite {
		// one writer at a time keeps sqlite from returning SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", dialect, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("create schema: %w", err)
	}

	return db, dialect, nil
}
