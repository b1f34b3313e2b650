package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/payload"
)

// insertMovementLog stores the completed sets of one movement. Returns the new log id.
func insertMovementLog(ctx context.Context, tx pgx.Tx, userID string, sessionLogID *uuid.UUID, m payload.MovementLogPayload) (uuid.UUID, error) {
	sets := make([]models.SetRecord, 0, len(m.Sets))
	for _, s := range m.Sets {
		sets = append(sets, models.SetRecord{ID: s.ID, Reps: s.Reps, Weight: s.Weight, Duration: s.Duration, Completed: true})
	}
	data, err := json.Marshal(sets)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding movement log sets: %w", err)
	}

	id := uuid.New()
	_, err = tx.Exec(ctx,
		`INSERT INTO movement_logs (id, user_id, session_log_id, movement_id, movement_name, sets)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		id, userID, sessionLogID, m.MovementID, m.MovementName, string(data))
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting movement log: %w", err)
	}
	return id, nil
}

// GetMovementLogs returns one page of a user's movement logs, newest first.
func (db *DB) GetMovementLogs(ctx context.Context, userID string, limit int, nextToken string) (*models.LogPage[models.MovementLog], error) {
	c, err := decodeCursor(nextToken)
	if err != nil {
		return nil, err
	}
	limit = pageLimit(limit)
	afterTime, afterID := keysetArgs(c)

	rows, err := db.Pool.Query(ctx,
		`SELECT id::text, user_id, COALESCE(session_log_id::text, ''), movement_id, movement_name, logged_at, sets
		 FROM movement_logs
		 WHERE user_id = $1
		   AND ($2::timestamptz IS NULL OR (logged_at, id::text) < ($2, $3::text))
		 ORDER BY logged_at DESC, id::text DESC
		 LIMIT $4`,
		userID, afterTime, afterID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("querying movement logs: %w", err)
	}
	defer rows.Close()

	var logs []models.MovementLog
	for rows.Next() {
		var l models.MovementLog
		var sets []byte
		if err := rows.Scan(&l.ID, &l.UserID, &l.SessionLogID, &l.MovementID, &l.MovementName, &l.LoggedAt, &sets); err != nil {
			return nil, fmt.Errorf("scanning movement log: %w", err)
		}
		if err := json.Unmarshal(sets, &l.Sets); err != nil {
			return nil, fmt.Errorf("decoding movement log sets: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return buildPage(logs, limit, func(l models.MovementLog) cursor {
		return cursor{LoggedAt: l.LoggedAt, ID: l.ID}
	}), nil
}
