// Package editor implements the save flows behind the movement, session and
// plan edit forms: validate, serialize, create-or-update, then adopt the
// server-assigned id. A failed create leaves the draft unsaved but keeps the
// id it reserved in PendingID, so a retry cannot store a second copy.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/meltforce/gymtrack/internal/apperrors"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/payload"
	"github.com/meltforce/gymtrack/internal/workoutdata"
)

// Editor saves drafts through the workout-data service.
type Editor struct {
	svc   workoutdata.Service
	log   *slog.Logger
	newID func() string
}

// New creates an Editor.
func New(svc workoutdata.Service, log *slog.Logger) *Editor {
	return &Editor{svc: svc, log: log, newID: uuid.NewString}
}

// SaveMovement creates the movement when draft.ID is empty, otherwise updates it.
func (e *Editor) SaveMovement(ctx context.Context, userID string, draft *models.MovementDraft) error {
	if userID == "" {
		return apperrors.ErrNoUser
	}
	if strings.TrimSpace(draft.Movement1Name) == "" {
		return fmt.Errorf("%w: movement name is required", apperrors.ErrValidation)
	}

	creating := draft.ID == ""
	candidate := *draft
	if creating {
		candidate.ID = e.reserve(&draft.PendingID)
	}
	p := payload.Movement(userID, candidate)
	if err := p.Validate(); err != nil {
		return err
	}

	var id string
	var err error
	if creating {
		id, err = e.svc.CreateMovement(ctx, p)
	} else {
		id, err = e.svc.UpdateMovement(ctx, p)
	}
	if err != nil {
		e.log.Error("save movement failed", "movement", p.Movement1Name, "create", creating, "error", err)
		return fmt.Errorf("saving movement: %w", err)
	}

	draft.ID = adopt(id, candidate.ID)
	draft.PendingID = ""
	e.log.Info("movement saved", "id", draft.ID, "create", creating)
	return nil
}

// SaveSession creates or updates a session. Movements inside the session are
// embedded in its payload; movements that have no id yet get one so their
// sets can be attributed during tracking.
func (e *Editor) SaveSession(ctx context.Context, userID string, draft *models.SessionDraft) error {
	if userID == "" {
		return apperrors.ErrNoUser
	}
	if strings.TrimSpace(draft.Name) == "" {
		return fmt.Errorf("%w: session name is required", apperrors.ErrValidation)
	}

	creating := !draft.IsEdit()
	// Embedded movement ids are part of the stored payload and must not
	// change between attempts either.
	for i := range draft.MovementsInSession {
		if draft.MovementsInSession[i].ID == "" {
			draft.MovementsInSession[i].ID = e.newID()
		}
	}
	candidate := draft.Clone()
	if creating {
		candidate.ID = e.reserve(&draft.PendingID)
	}
	p := payload.Session(userID, candidate)
	if err := p.Validate(); err != nil {
		return err
	}

	var id string
	var err error
	if creating {
		id, err = e.svc.CreateSession(ctx, p)
	} else {
		id, err = e.svc.UpdateSession(ctx, p)
	}
	if err != nil {
		e.log.Error("save session failed", "session", p.Name, "create", creating, "error", err)
		return fmt.Errorf("saving session: %w", err)
	}

	candidate.ID = adopt(id, candidate.ID)
	candidate.PendingID = ""
	*draft = candidate
	e.log.Info("session saved", "id", draft.ID, "create", creating, "movements", len(p.Movements))
	return nil
}

// SavePlan creates or updates a plan.
func (e *Editor) SavePlan(ctx context.Context, userID string, draft *models.PlanDraft) error {
	if userID == "" {
		return apperrors.ErrNoUser
	}
	if strings.TrimSpace(draft.Name) == "" {
		return fmt.Errorf("%w: plan name is required", apperrors.ErrValidation)
	}

	creating := draft.ID == ""
	candidate := *draft
	if creating {
		candidate.ID = e.reserve(&draft.PendingID)
	}
	p := payload.Plan(userID, candidate)
	if err := p.Validate(); err != nil {
		return err
	}

	var id string
	var err error
	if creating {
		id, err = e.svc.CreatePlan(ctx, p)
	} else {
		id, err = e.svc.UpdatePlan(ctx, p)
	}
	if err != nil {
		e.log.Error("save plan failed", "plan", p.Name, "create", creating, "error", err)
		return fmt.Errorf("saving plan: %w", err)
	}

	draft.ID = adopt(id, candidate.ID)
	draft.PendingID = ""
	e.log.Info("plan saved", "id", draft.ID, "create", creating)
	return nil
}

// LoadMovement fetches a stored movement for editing.
func (e *Editor) LoadMovement(ctx context.Context, userID, movementID string) (*models.MovementDraft, error) {
	if userID == "" {
		return nil, apperrors.ErrNoUser
	}
	return e.svc.GetMovement(ctx, userID, movementID)
}

// LoadSession fetches a stored session for editing.
func (e *Editor) LoadSession(ctx context.Context, userID, sessionID string) (*models.SessionDraft, error) {
	if userID == "" {
		return nil, apperrors.ErrNoUser
	}
	return e.svc.GetSession(ctx, userID, sessionID)
}

// reserve returns the draft's pending id, minting one on the first attempt.
func (e *Editor) reserve(pending *string) string {
	if *pending == "" {
		*pending = e.newID()
	}
	return *pending
}

// adopt prefers the id returned by the server; an empty reply keeps the candidate.
func adopt(returned, candidate string) string {
	if returned != "" {
		return returned
	}
	return candidate
}
