// Package companion keeps a wearable companion in step with the tracking
// engine. Outbound state is pushed over a live HTTP channel when the
// companion is reachable and otherwise parked in a SQLite "last known
// state" store the companion can poll. Inbound messages drive the engine.
package companion

import (
	"time"

	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/tracking"
)

// Outbound payload kinds, also used as ContextStore keys.
const (
	KindState = "workoutState"
	KindSets  = "setsUpdate"
)

// Inbound message types.
const (
	MsgHandoff      = "workoutHandoff"
	MsgSetCompleted = "setCompleted"
	MsgStart        = "workoutStart"
	MsgPause        = "workoutPause"
	MsgResume       = "workoutResume"
	MsgStop         = "workoutStop"
	MsgSensorUpdate = "sensorUpdate"
)

// Outbound is a payload pushed to the companion.
type Outbound interface {
	Kind() string
}

// StatePayload mirrors the tracking state on start, pause, resume and end.
type StatePayload struct {
	Type          string    `json:"type"`
	SessionID     string    `json:"sessionId"`
	SessionName   string    `json:"sessionName"`
	IsTracking    bool      `json:"isTracking"`
	ElapsedTime   int       `json:"elapsedTime"`
	TotalCalories float64   `json:"totalCalories"`
	TotalVolume   float64   `json:"totalVolume"`
	TotalReps     int       `json:"totalReps"`
	HeartRate     float64   `json:"heartRate"`
	Timestamp     time.Time `json:"timestamp"`
}

func (StatePayload) Kind() string { return KindState }

// SetsPayload carries the completed-set ledger after it changes.
type SetsPayload struct {
	Type          string                  `json:"type"`
	CompletedSets []tracking.CompletedSet `json:"completedSets"`
	TotalVolume   float64                 `json:"totalVolume"`
	TotalReps     int                     `json:"totalReps"`
	Timestamp     time.Time               `json:"timestamp"`
}

func (SetsPayload) Kind() string { return KindSets }

func statePayload(s tracking.Snapshot, at time.Time) StatePayload {
	p := StatePayload{
		Type:          KindState,
		IsTracking:    s.State == tracking.StateActive,
		ElapsedTime:   s.Elapsed,
		TotalCalories: s.TotalCalories,
		TotalVolume:   s.TotalVolume,
		TotalReps:     s.TotalReps,
		HeartRate:     s.HeartRate,
		Timestamp:     at,
	}
	if s.Session != nil {
		p.SessionID = s.Session.ID
		p.SessionName = s.Session.Name
	}
	return p
}

func setsPayload(s tracking.Snapshot, at time.Time) SetsPayload {
	return SetsPayload{
		Type:          KindSets,
		CompletedSets: s.CompletedSets,
		TotalVolume:   s.TotalVolume,
		TotalReps:     s.TotalReps,
		Timestamp:     at,
	}
}

// Message is the inbound envelope. Type is mandatory; the other fields are
// read according to it.
type Message struct {
	Type string `json:"type"`

	// workoutStart, workoutHandoff
	SessionID   string               `json:"sessionId,omitempty"`
	SessionName string               `json:"sessionName,omitempty"`
	Session     *models.SessionDraft `json:"session,omitempty"`

	// setCompleted
	MovementID string   `json:"movementId,omitempty"`
	SetID      string   `json:"setId,omitempty"`
	Reps       *int     `json:"reps,omitempty"`
	Weight     *float64 `json:"weight,omitempty"`
	Duration   *int     `json:"duration,omitempty"`

	// workoutHandoff
	ElapsedTime   int                     `json:"elapsedTime,omitempty"`
	IsPaused      bool                    `json:"isPaused,omitempty"`
	CompletedSets []tracking.CompletedSet `json:"completedSets,omitempty"`
	TotalCalories float64                 `json:"totalCalories,omitempty"`

	// sensorUpdate, workoutHandoff
	HeartRate *float64 `json:"heartRate,omitempty"`
	Calories  *float64 `json:"calories,omitempty"`
}
