package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// MirrorState records the last revision of a kind pushed to the mirror.
type MirrorState struct {
	Kind       string    `json:"kind"`
	Revision   string    `json:"revision"`
	Rows       int       `json:"rows"`
	MirroredAt time.Time `json:"mirrored_at"`
}

// Ledger is the worker's bookkeeping of what has been mirrored, kept in
// SQLite so restarts do not re-push unchanged tables.
type Ledger struct {
	db *sql.DB
}

func OpenLedger(dbPath string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

// LastRevision returns the revision last mirrored for kind, or "" if the
// kind was never mirrored.
func (l *Ledger) LastRevision(ctx context.Context, kind string) (string, error) {
	var rev string
	err := l.db.QueryRowContext(ctx,
		`SELECT revision FROM mirror_state WHERE kind = ?`, kind).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query mirror state: %w", err)
	}
	return rev, nil
}

// MarkMirrored stores revision as the mirrored state of kind.
func (l *Ledger) MarkMirrored(ctx context.Context, kind, revision string, rows int) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO mirror_state (kind, revision, rows, mirrored_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET
			revision = excluded.revision,
			rows = excluded.rows,
			mirrored_at = excluded.mirrored_at`,
		kind, revision, rows, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("update mirror state: %w", err)
	}
	return nil
}

// List returns every mirrored kind ordered by name.
func (l *Ledger) List(ctx context.Context) ([]MirrorState, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT kind, revision, rows, mirrored_at FROM mirror_state ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("list mirror state: %w", err)
	}
	defer rows.Close()

	var out []MirrorState
	for rows.Next() {
		var (
			st MirrorState
			at string
		)
		if err := rows.Scan(&st.Kind, &st.Revision, &st.Rows, &at); err != nil {
			return nil, fmt.Errorf("scan mirror state: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			st.MirroredAt = t
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
