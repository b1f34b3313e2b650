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

type movementSetColumns struct {
	first, second, weaved string
}

func encodeMovementSets(p payload.MovementPayload) (movementSetColumns, error) {
	var cols movementSetColumns
	for _, c := range []struct {
		dst  *string
		sets []payload.MovementSetPayload
	}{
		{&cols.first, p.FirstSectionSets},
		{&cols.second, p.SecondSectionSets},
		{&cols.weaved, p.WeavedSets},
	} {
		sets := c.sets
		if sets == nil {
			sets = []payload.MovementSetPayload{}
		}
		data, err := json.Marshal(sets)
		if err != nil {
			return cols, fmt.Errorf("encoding sets: %w", err)
		}
		*c.dst = string(data)
	}
	return cols, nil
}

// CreateMovement inserts a movement and returns the id it was stored under.
func (db *DB) CreateMovement(ctx context.Context, p payload.MovementPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	sets, err := encodeMovementSets(p)
	if err != nil {
		return "", err
	}
	claim := func(ctx context.Context) (string, bool, error) {
		return db.claimID(ctx, "movements", p.MovementID, p.UserID)
	}
	return createClaimed(ctx, "movements", claim, func(ctx context.Context, id string) error {
		return db.Pool.QueryRow(ctx,
			`INSERT INTO movements (id, user_id, movement1_name, movement2_name, is_single, is_timed,
			 category, difficulty, equipments_needed, description, tags,
			 first_section_sets, second_section_sets, weaved_sets)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			 ON CONFLICT (id) DO NOTHING
			 RETURNING id`,
			id, p.UserID, p.Movement1Name, p.Movement2Name, p.IsSingle, p.IsTimed,
			p.Category, p.Difficulty, p.EquipmentsNeeded, p.Description, nonNilStrings(p.Tags),
			sets.first, sets.second, sets.weaved).Scan(&id)
	})
}

// UpdateMovement overwrites an existing movement owned by the payload's user.
func (db *DB) UpdateMovement(ctx context.Context, p payload.MovementPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	sets, err := encodeMovementSets(p)
	if err != nil {
		return "", err
	}

	tag, err := db.Pool.Exec(ctx,
		`UPDATE movements SET
		 movement1_name = $3, movement2_name = $4, is_single = $5, is_timed = $6,
		 category = $7, difficulty = $8, equipments_needed = $9, description = $10, tags = $11,
		 first_section_sets = $12, second_section_sets = $13, weaved_sets = $14, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		p.MovementID, p.UserID, p.Movement1Name, p.Movement2Name, p.IsSingle, p.IsTimed,
		p.Category, p.Difficulty, p.EquipmentsNeeded, p.Description, nonNilStrings(p.Tags),
		sets.first, sets.second, sets.weaved)
	if err != nil {
		return "", fmt.Errorf("updating movement %s: %w", p.MovementID, err)
	}
	if tag.RowsAffected() == 0 {
		return "", fmt.Errorf("movement %s: %w", p.MovementID, apperrors.ErrNotFound)
	}
	return p.MovementID, nil
}

// GetMovement loads a movement as an editable draft.
func (db *DB) GetMovement(ctx context.Context, userID, movementID string) (*models.MovementDraft, error) {
	var p payload.MovementPayload
	var first, second, weaved []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, movement1_name, movement2_name, is_single, is_timed,
		 category, difficulty, equipments_needed, description, tags,
		 first_section_sets, second_section_sets, weaved_sets
		 FROM movements
		 WHERE id = $1 AND user_id = $2`,
		movementID, userID,
	).Scan(&p.MovementID, &p.UserID, &p.Movement1Name, &p.Movement2Name, &p.IsSingle, &p.IsTimed,
		&p.Category, &p.Difficulty, &p.EquipmentsNeeded, &p.Description, &p.Tags,
		&first, &second, &weaved)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("movement %s: %w", movementID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying movement: %w", err)
	}

	for _, c := range []struct {
		raw []byte
		dst *[]payload.MovementSetPayload
	}{
		{first, &p.FirstSectionSets},
		{second, &p.SecondSectionSets},
		{weaved, &p.WeavedSets},
	} {
		if err := json.Unmarshal(c.raw, c.dst); err != nil {
			return nil, fmt.Errorf("decoding movement sets: %w", err)
		}
	}

	draft := payload.ToMovementDraft(p)
	return &draft, nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
