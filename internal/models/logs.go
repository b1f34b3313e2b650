package models

import "time"

// SessionLog is a finished workout as stored by the workout-data service.
// Duration is in seconds.
type SessionLog struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	OriginalSessionID string    `json:"originalSessionId"`
	SessionName       string    `json:"sessionName"`
	LoggedAt          time.Time `json:"loggedAt"`
	Duration          int       `json:"duration"`
	TotalVolume       *float64  `json:"totalVolume,omitempty"`
	TotalSets         *int      `json:"totalSets,omitempty"`
	TotalReps         *int      `json:"totalReps,omitempty"`
	TotalWeight       *float64  `json:"totalWeight,omitempty"`
	Completed         bool      `json:"completed"`
	Calories          *float64  `json:"calories,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

// MovementLog records the completed sets of one movement within a session log.
type MovementLog struct {
	ID           string      `json:"id"`
	UserID       string      `json:"userId"`
	SessionLogID string      `json:"sessionLogId,omitempty"`
	MovementID   string      `json:"movementId"`
	MovementName string      `json:"movementName"`
	LoggedAt     time.Time   `json:"loggedAt"`
	Sets         []SetRecord `json:"sets"`
}

// PlanLog marks one scheduled plan slot as done.
type PlanLog struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	PlanID   string    `json:"planId"`
	PlanName string    `json:"planName"`
	Slot     string    `json:"slot,omitempty"`
	LoggedAt time.Time `json:"loggedAt"`
}

// HeartRateSample is one live heart-rate reading captured during tracking.
type HeartRateSample struct {
	Time time.Time `json:"time"`
	BPM  float64   `json:"bpm"`
}

// LogPage is one page of a cursor-paginated log listing.
type LogPage[T any] struct {
	Logs      []T    `json:"logs"`
	HasMore   bool   `json:"hasMore"`
	NextToken string `json:"nextToken,omitempty"`
}

// LogType discriminates history entries by their source stream.
type LogType string

const (
	LogTypeSession  LogType = "session"
	LogTypeMovement LogType = "movement"
	LogTypePlan     LogType = "plan"
)

// HistoryItem is one row of the unified workout history.
type HistoryItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	Duration  *int      `json:"duration,omitempty"`
	Calories  *float64  `json:"calories,omitempty"`
	TotalSets *int      `json:"totalSets,omitempty"`
	LogType   LogType   `json:"logType"`
}
