// Package workoutdata defines the workout-data service that drafts and
// tracking results are persisted to. Both *storage.DB (local Postgres) and
// HTTPClient (remote REST) satisfy Service.
package workoutdata

import (
	"context"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/payload"
)

// Service is the persistence collaborator. Create methods return the
// server-assigned id, which may differ from the candidate id in the payload.
type Service interface {
	CreateMovement(ctx context.Context, p payload.MovementPayload) (string, error)
	UpdateMovement(ctx context.Context, p payload.MovementPayload) (string, error)
	GetMovement(ctx context.Context, userID, movementID string) (*models.MovementDraft, error)

	CreateSession(ctx context.Context, p payload.SessionPayload) (string, error)
	UpdateSession(ctx context.Context, p payload.SessionPayload) (string, error)
	GetSession(ctx context.Context, userID, sessionID string) (*models.SessionDraft, error)

	CreatePlan(ctx context.Context, p payload.PlanPayload) (string, error)
	UpdatePlan(ctx context.Context, p payload.PlanPayload) (string, error)

	SaveSessionLog(ctx context.Context, p payload.SessionLogPayload) error
	SavePlanLog(ctx context.Context, p payload.PlanLogPayload) error

	// GetTrainingSummary rolls the user's session logs in [start, end) up
	// per week or month, newest period first.
	GetTrainingSummary(ctx context.Context, userID string, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error)

	LogSource
}

// LogSource lists the three paginated log streams. An empty nextToken
// requests the first page.
type LogSource interface {
	GetSessionLogs(ctx context.Context, userID string, limit int, nextToken string) (*models.LogPage[models.SessionLog], error)
	GetMovementLogs(ctx context.Context, userID string, limit int, nextToken string) (*models.LogPage[models.MovementLog], error)
	GetPlanLogs(ctx context.Context, userID string, limit int, nextToken string) (*models.LogPage[models.PlanLog], error)
}
