package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/payload"
)

// SaveSessionLog stores a finished workout, its per-movement set logs and its
// heart-rate samples in one transaction.
func (db *DB) SaveSessionLog(ctx context.Context, p payload.SessionLogPayload) error {
	if err := p.Validate(); err != nil {
		return err
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning session log tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	logID := uuid.New()
	_, err = tx.Exec(ctx,
		`INSERT INTO session_logs (id, user_id, original_session_id, session_name, duration_sec,
		 total_volume, total_sets, total_reps, total_weight, completed, calories, notes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		logID, p.UserID, p.OriginalSessionID, p.SessionName, p.Duration,
		p.TotalVolume, p.TotalSets, p.TotalReps, p.TotalWeight, p.Completed, p.Calories, p.Notes)
	if err != nil {
		return fmt.Errorf("inserting session log: %w", err)
	}

	for _, m := range p.Movements {
		if _, err := insertMovementLog(ctx, tx, p.UserID, &logID, m); err != nil {
			return err
		}
	}

	if _, err := insertHeartRate(ctx, tx, logID, p.UserID, p.HeartRate); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing session log: %w", err)
	}
	return nil
}

// insertHeartRate batch-inserts heart-rate samples. Returns count inserted.
func insertHeartRate(ctx context.Context, tx pgx.Tx, logID uuid.UUID, userID string, samples []models.HeartRateSample) (int64, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	query := `INSERT INTO session_log_heart_rate (time, session_log_id, user_id, bpm) VALUES `
	args := make([]any, 0, len(samples)*4)
	valueStrings := make([]string, 0, len(samples))

	for i, s := range samples {
		base := i * 4
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))
		args = append(args, s.Time, logID, userID, s.BPM)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting session heart rate: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetSessionLogs returns one page of a user's session logs, newest first.
func (db *DB) GetSessionLogs(ctx context.Context, userID string, limit int, nextToken string) (*models.LogPage[models.SessionLog], error) {
	c, err := decodeCursor(nextToken)
	if err != nil {
		return nil, err
	}
	limit = pageLimit(limit)
	afterTime, afterID := keysetArgs(c)

	rows, err := db.Pool.Query(ctx,
		`SELECT id::text, user_id, original_session_id, session_name, logged_at, duration_sec,
		 total_volume, total_sets, total_reps, total_weight, completed, calories, notes
		 FROM session_logs
		 WHERE user_id = $1
		   AND ($2::timestamptz IS NULL OR (logged_at, id::text) < ($2, $3::text))
		 ORDER BY logged_at DESC, id::text DESC
		 LIMIT $4`,
		userID, afterTime, afterID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("querying session logs: %w", err)
	}
	defer rows.Close()

	var logs []models.SessionLog
	for rows.Next() {
		var l models.SessionLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.OriginalSessionID, &l.SessionName, &l.LoggedAt, &l.Duration,
			&l.TotalVolume, &l.TotalSets, &l.TotalReps, &l.TotalWeight, &l.Completed, &l.Calories, &l.Notes); err != nil {
			return nil, fmt.Errorf("scanning session log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return buildPage(logs, limit, func(l models.SessionLog) cursor {
		return cursor{LoggedAt: l.LoggedAt, ID: l.ID}
	}), nil
}

// buildPage trims the probe row fetched beyond limit and derives the next token.
func buildPage[T any](rows []T, limit int, pos func(T) cursor) *models.LogPage[T] {
	page := &models.LogPage[T]{Logs: rows}
	if page.Logs == nil {
		page.Logs = []T{}
	}
	if len(rows) > limit {
		page.Logs = rows[:limit]
		page.HasMore = true
		page.NextToken = encodeCursor(pos(rows[limit-1]))
	}
	return page
}
