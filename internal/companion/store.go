package companion

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/meltforce/gymtrack/internal/apperrors"
	_ "modernc.org/sqlite"
)

// ContextStore keeps the last payload of each kind for a companion that
// could not be reached live.
type ContextStore interface {
	UpdateContext(ctx context.Context, msg Outbound) error
	LastContext(ctx context.Context, kind string) (json.RawMessage, time.Time, error)
}

// SQLiteStore is a ContextStore backed by dir/companion.db.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteStore opens (or creates) the context database in dir.
func OpenSQLiteStore(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "companion.db"))
	if err != nil {
		return nil, fmt.Errorf("opening companion db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS companion_context (
		kind       TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating context table: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// UpdateContext replaces the stored payload for msg's kind.
func (s *SQLiteStore) UpdateContext(ctx context.Context, msg Outbound) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", msg.Kind(), err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO companion_context (kind, payload, updated_at) VALUES (?, ?, ?)`,
		msg.Kind(), string(data), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storing %s context: %w", msg.Kind(), err)
	}
	return nil
}

// LastContext returns the latest payload of kind and when it was stored.
func (s *SQLiteStore) LastContext(ctx context.Context, kind string) (json.RawMessage, time.Time, error) {
	var payload string
	var at time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, updated_at FROM companion_context WHERE kind = ?`, kind,
	).Scan(&payload, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, fmt.Errorf("%s context: %w", kind, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading %s context: %w", kind, err)
	}
	return json.RawMessage(payload), at, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
