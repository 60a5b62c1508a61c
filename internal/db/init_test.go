package db_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/configurator/internal/db"
)

func TestParseDSN(t *testing.T) {
	cases := []struct {
		dsn        string
		wantDial   db.Dialect
		wantSource string
	}{
		{"sqlite:settings.db", db.SQLite, "settings.db"},
		{"file:settings.db?cache=shared", db.SQLite, "file:settings.db?cache=shared"},
		{"postgres://u:p@localhost/settings", db.Postgres, "postgres://u:p@localhost/settings"},
		{"host=localhost dbname=settings", db.Postgres, "host=localhost dbname=settings"},
	}
	for _, tc := range cases {
		t.Run(tc.dsn, func(t *testing.T) {
			d, src := db.ParseDSN(tc.dsn)
			assert.Equal(t, tc.wantDial, d)
			assert.Equal(t, tc.wantSource, src)
		})
	}
}

func TestRebind(t *testing.T) {
	q := `SELECT document FROM settings WHERE passcode = $1 AND updated_at > $2`
	assert.Equal(t, q, db.Postgres.Rebind(q))
	assert.Equal(t, `SELECT document FROM settings WHERE passcode = ?1 AND updated_at > ?2`, db.SQLite.Rebind(q))
}

func TestOpen_SQLiteCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	conn, dialect, err := db.Open("sqlite:" + path)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, db.SQLite, dialect)

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM settings`).Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM settings_revisions`).Scan(&n))
	assert.Zero(t, n)

	// reopening an existing store is fine
	again, _, err := db.Open("sqlite:" + path)
	require.NoError(t, err)
	_ = again.Close()
}

func TestOpen_PostgresErrorPaths(t *testing.T) {
	cases := []struct {
		name string
		dsn  string
	}{
		{"invalid DSN", "some=random"},
		{"empty DSN", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := db.Open(tc.dsn)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), "ping postgres"), err.Error())
		})
	}
}
