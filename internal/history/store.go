// Package history keeps a small SQLite log of the warnings the monitor has seen.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"tailscale-dashboard/internal/migrate"
	"tailscale-dashboard/internal/model"
)

var ErrNotFound = errors.New("not found")

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *sql.DB
}

// New applies the history migrations and returns a store over db.
func New(db *sql.DB) (*Store, error) {
	if err := migrate.Apply(db, migrations, "migrations"); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Record upserts one row per warning code. A code seen again keeps its
// first_seen_at, takes the latest message and priority, and bumps occurrences.
func (s *Store) Record(ctx context.Context, warnings []model.Warning, at time.Time) error {
	if len(warnings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ts := at.UTC().UnixMilli()
	for _, w := range warnings {
		_, err := tx.ExecContext(ctx, `INSERT INTO warning_history (code, priority, message, first_seen_at, last_seen_at, occurrences)
VALUES (?, ?, ?, ?, ?, 1)
ON CONFLICT(code) DO UPDATE SET
    priority = excluded.priority,
    message = excluded.message,
    last_seen_at = excluded.last_seen_at,
    occurrences = warning_history.occurrences + 1`, w.Code, w.Priority, w.Message, ts, ts)
		if err != nil {
			return fmt.Errorf("record %s: %w", w.Code, err)
		}
	}

	return tx.Commit()
}

// List returns the most recently seen entries first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, code, priority, message, first_seen_at, last_seen_at, occurrences
FROM warning_history ORDER BY last_seen_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.HistoryEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, code string) (model.HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, code, priority, message, first_seen_at, last_seen_at, occurrences
FROM warning_history WHERE code = ?`, code)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.HistoryEntry{}, ErrNotFound
	}
	return entry, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (model.HistoryEntry, error) {
	var (
		entry           model.HistoryEntry
		firstMS, lastMS int64
	)
	if err := row.Scan(&entry.ID, &entry.Code, &entry.Priority, &entry.Message, &firstMS, &lastMS, &entry.Occurrences); err != nil {
		return model.HistoryEntry{}, err
	}
	entry.FirstSeenAt = time.UnixMilli(firstMS).UTC()
	entry.LastSeenAt = time.UnixMilli(lastMS).UTC()
	return entry, nil
}
