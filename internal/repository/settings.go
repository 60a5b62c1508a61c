// Package repository persists settings documents in SQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/configurator/internal/db"
	"github.com/atinyakov/configurator/internal/models"
)

// ErrNotFound is returned when no document is stored under a passcode.
var ErrNotFound = errors.New("settings not found")

const (
	selectDocument = `SELECT document, updated_at FROM settings WHERE passcode = $1`
	upsertDocument = `
		INSERT INTO settings (passcode, document, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (passcode) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at`
	insertRevision = `
		INSERT INTO settings_revisions (id, passcode, seq, document, created_at)
		SELECT CAST($1 AS TEXT), CAST($2 AS TEXT), COALESCE(MAX(seq), 0) + 1, CAST($3 AS TEXT), CAST($4 AS BIGINT)
		FROM settings_revisions WHERE passcode = $2`
	selectRevisions = `
		SELECT id, document, created_at FROM settings_revisions
		WHERE passcode = $1 ORDER BY seq DESC LIMIT $2`
)

// SettingsRepository stores documents keyed by passcode.
type SettingsRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB      *sql.DB
	dialect db.Dialect
	now     func() time.Time
	newID   func() string
}

// NewSettingsRepository returns a repository over conn speaking dialect.
func NewSettingsRepository(conn *sql.DB, dialect db.Dialect) *SettingsRepository {
	return &SettingsRepository{
		DB:      conn,
		dialect: dialect,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Get returns the document stored under passcode, or ErrNotFound.
func (r *SettingsRepository) Get(ctx context.Context, passcode string) (*models.Document, error) {
	var (
		body    string
		updated int64
	)
	err := r.DB.QueryRowContext(ctx, r.dialect.Rebind(selectDocument), passcode).Scan(&body, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &models.Document{
		Passcode:  passcode,
		Body:      []byte(body),
		UpdatedAt: time.Unix(updated, 0),
	}, nil
}

// Put replaces the document under passcode and records the write as a revision.
// Revisions of one passcode are numbered in write order; the upsert holds the
// settings row lock while the next number is taken.
func (r *SettingsRepository) Put(ctx context.Context, passcode string, body []byte) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := r.now().Unix()
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(upsertDocument), passcode, string(body), now); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(insertRevision), r.newID(), passcode, string(body), now); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Revisions returns up to limit past writes under passcode, newest first.
func (r *SettingsRepository) Revisions(ctx context.Context, passcode string, limit int) ([]models.Revision, error) {
	rows, err := r.DB.QueryContext(ctx, r.dialect.Rebind(selectRevisions), passcode, limit)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var revs []models.Revision
	for rows.Next() {
		var (
			rev     models.Revision
			body    string
			created int64
		)
		if err := rows.Scan(&rev.ID, &body, &created); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rev.Passcode = passcode
		rev.Body = []byte(body)
		rev.CreatedAt = time.Unix(created, 0)
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	return revs, nil
}
