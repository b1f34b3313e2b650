package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/gymtrack/internal/apperrors"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/payload"
)

// CreateSession inserts a session with its movements embedded as JSON.
func (db *DB) CreateSession(ctx context.Context, p payload.SessionPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	movements, err := json.Marshal(p.Movements)
	if err != nil {
		return "", fmt.Errorf("encoding session movements: %w", err)
	}
	claim := func(ctx context.Context) (string, bool, error) {
		return db.claimID(ctx, "sessions", p.SessionID, p.UserID)
	}
	return createClaimed(ctx, "sessions", claim, func(ctx context.Context, id string) error {
		return db.Pool.QueryRow(ctx,
			`INSERT INTO sessions (id, user_id, name, description, difficulty, estimated_duration, movements)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)
			 ON CONFLICT (id) DO NOTHING
			 RETURNING id`,
			id, p.UserID, p.Name, p.Description, p.Difficulty, p.EstimatedDuration, string(movements)).Scan(&id)
	})
}

func (db *DB) UpdateSession(ctx context.Context, p payload.SessionPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	movements, err := json.Marshal(p.Movements)
	if err != nil {
		return "", fmt.Errorf("encoding session movements: %w", err)
	}

	tag, err := db.Pool.Exec(ctx,
		`UPDATE sessions SET
		 name = $3, description = $4, difficulty = $5, estimated_duration = $6, movements = $7, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		p.SessionID, p.UserID, p.Name, p.Description, p.Difficulty, p.EstimatedDuration, string(movements))
	if err != nil {
		return "", fmt.Errorf("updating session %s: %w", p.SessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return "", fmt.Errorf("session %s: %w", p.SessionID, apperrors.ErrNotFound)
	}
	return p.SessionID, nil
}

// GetSession loads a session and its movements as a draft.
func (db *DB) GetSession(ctx context.Context, userID, sessionID string) (*models.SessionDraft, error) {
	var p payload.SessionPayload
	var movements []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, description, difficulty, estimated_duration, movements
		 FROM sessions
		 WHERE id = $1 AND user_id = $2`,
		sessionID, userID,
	).Scan(&p.SessionID, &p.UserID, &p.Name, &p.Description, &p.Difficulty, &p.EstimatedDuration, &movements)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	if err := json.Unmarshal(movements, &p.Movements); err != nil {
		return nil, fmt.Errorf("decoding session movements: %w", err)
	}

	draft := payload.ToSessionDraft(p)
	return &draft, nil
}

// CreatePlan inserts a plan; its slot map is stored as JSON.
func (db *DB) CreatePlan(ctx context.Context, p payload.PlanPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	sessions, err := json.Marshal(p.Sessions)
	if err != nil {
		return "", fmt.Errorf("encoding plan sessions: %w", err)
	}
	claim := func(ctx context.Context) (string, bool, error) {
		return db.claimID(ctx, "plans", p.PlanID, p.UserID)
	}
	return createClaimed(ctx, "plans", claim, func(ctx context.Context, id string) error {
		return db.Pool.QueryRow(ctx,
			`INSERT INTO plans (id, user_id, name, description, difficulty, is_day_of_the_week_plan, equipment_needed, sessions)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			 ON CONFLICT (id) DO NOTHING
			 RETURNING id`,
			id, p.UserID, p.Name, p.Description, p.Difficulty, p.IsDayOfTheWeekPlan, p.EquipmentNeeded, string(sessions)).Scan(&id)
	})
}

func (db *DB) UpdatePlan(ctx context.Context, p payload.PlanPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	sessions, err := json.Marshal(p.Sessions)
	if err != nil {
		return "", fmt.Errorf("encoding plan sessions: %w", err)
	}

	tag, err := db.Pool.Exec(ctx,
		`UPDATE plans SET
		 name = $3, description = $4, difficulty = $5, is_day_of_the_week_plan = $6,
		 equipment_needed = $7, sessions = $8, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		p.PlanID, p.UserID, p.Name, p.Description, p.Difficulty, p.IsDayOfTheWeekPlan, p.EquipmentNeeded, string(sessions))
	if err != nil {
		return "", fmt.Errorf("updating plan %s: %w", p.PlanID, err)
	}
	if tag.RowsAffected() == 0 {
		return "", fmt.Errorf("plan %s: %w", p.PlanID, apperrors.ErrNotFound)
	}
	return p.PlanID, nil
}
