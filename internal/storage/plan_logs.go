package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/gymtrack/internal/apperrors"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/payload"
)

// SavePlanLog records a completed plan slot. The plan name is copied so the
// log stays readable after the plan is renamed.
func (db *DB) SavePlanLog(ctx context.Context, p payload.PlanLogPayload) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var name string
	err := db.Pool.QueryRow(ctx,
		`SELECT name FROM plans WHERE id = $1 AND user_id = $2`,
		p.PlanID, p.UserID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("plan %s: %w", p.PlanID, apperrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("querying plan: %w", err)
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO plan_logs (id, user_id, plan_id, plan_name, slot) VALUES ($1,$2,$3,$4,$5)`,
		uuid.New(), p.UserID, p.PlanID, name, p.Slot)
	if err != nil {
		return fmt.Errorf("inserting plan log: %w", err)
	}
	return nil
}

// GetPlanLogs returns one page of a user's plan logs, newest first.
func (db *DB) GetPlanLogs(ctx context.Context, userID string, limit int, nextToken string) (*models.LogPage[models.PlanLog], error) {
	c, err := decodeCursor(nextToken)
	if err != nil {
		return nil, err
	}
	limit = pageLimit(limit)
	afterTime, afterID := keysetArgs(c)

	rows, err := db.Pool.Query(ctx,
		`SELECT id::text, user_id, plan_id, plan_name, slot, logged_at
		 FROM plan_logs
		 WHERE user_id = $1
		   AND ($2::timestamptz IS NULL OR (logged_at, id::text) < ($2, $3::text))
		 ORDER BY logged_at DESC, id::text DESC
		 LIMIT $4`,
		userID, afterTime, afterID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("querying plan logs: %w", err)
	}
	defer rows.Close()

	var logs []models.PlanLog
	for rows.Next() {
		var l models.PlanLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.PlanID, &l.PlanName, &l.Slot, &l.LoggedAt); err != nil {
			return nil, fmt.Errorf("scanning plan log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return buildPage(logs, limit, func(l models.PlanLog) cursor {
		return cursor{LoggedAt: l.LoggedAt, ID: l.ID}
	}), nil
}
