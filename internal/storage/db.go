package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meltforce/gymtrack/internal/workoutdata"
)

// Compile-time check: *DB satisfies workoutdata.Service.
var _ workoutdata.Service = (*DB)(nil)

// DB wraps a pgxpool.Pool and provides repository methods.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new DB with a connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// claimID decides the id a create will use. The client's candidate is kept
// when unused; stored is true when it already belongs to the same user (a
// retried create). An id owned by someone else is replaced with a fresh one.
func (db *DB) claimID(ctx context.Context, table, candidate, userID string) (id string, stored bool, err error) {
	var owner string
	err = db.Pool.QueryRow(ctx, `SELECT user_id FROM `+table+` WHERE id = $1`, candidate).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return candidate, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("checking %s id: %w", table, err)
	}
	if owner == userID {
		return candidate, true, nil
	}
	return uuid.NewString(), false, nil
}

const maxClaimAttempts = 3

// createClaimed claims an id and inserts under it. insert must use
// ON CONFLICT DO NOTHING RETURNING id, so a row taken between claim and
// insert surfaces as pgx.ErrNoRows and the id is claimed again.
func createClaimed(ctx context.Context, table string, claim func(context.Context) (string, bool, error), insert func(ctx context.Context, id string) error) (string, error) {
	for range maxClaimAttempts {
		id, stored, err := claim(ctx)
		if err != nil {
			return "", err
		}
		if stored {
			return id, nil
		}
		err = insert(ctx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("inserting into %s: %w", table, err)
		}
		return id, nil
	}
	return "", fmt.Errorf("inserting into %s: id contended after %d attempts", table, maxClaimAttempts)
}
