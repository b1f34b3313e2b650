package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/gymtrack/internal/apperrors"
	"github.com/meltforce/gymtrack/internal/history"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/tracking"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetWorkoutHistory = mcp.NewTool("get_workout_history",
	mcp.WithDescription("Merged workout history across session, movement and plan logs, newest first. Each item has a name, date, optional duration (seconds), calories and total sets."),
	mcp.WithString("type", mcp.Description("Restrict to one log type. Defaults to 'all'."), mcp.Enum("all", "session", "movement", "plan")),
	mcp.WithString("date", mcp.Description("Restrict to a calendar window. Defaults to 'all'."), mcp.Enum("all", "today", "week", "month")),
)

var toolGetSessionLogs = mcp.NewTool("get_session_logs",
	mcp.WithDescription("Logged workouts in a time range with totals (volume, sets, reps, weight), calories and notes."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Weekly or monthly roll-up of logged workouts: session counts by name with average duration, calories and heart rate, plus set/rep/volume totals per period."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 6 months ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to '1 month'."), mcp.Enum("1 week", "1 month")),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("A saved session template with its movements and planned sets."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
)

var toolGetMovement = mcp.NewTool("get_movement",
	mcp.WithDescription("A saved movement (single exercise or superset) with its planned sets."),
	mcp.WithString("movement_id", mcp.Required(), mcp.Description("Movement id")),
)

var toolGetTrackingState = mcp.NewTool("get_tracking_state",
	mcp.WithDescription("The live workout: state (idle/active/paused/ended), elapsed seconds, completed sets, totals, calories and heart rate."),
)

// --- Tool handlers ---

func (h *handlers) getWorkoutHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	if uid == "" {
		return mcp.NewToolResultError("no authenticated user"), nil
	}

	typ, err := history.ParseTypeFilter(req.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := history.ParseDateFilter(req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	items := history.Filter(h.history.LoadHistory(ctx, uid), typ, date, time.Now())
	if items == nil {
		items = []models.HistoryItem{}
	}

	result, err := mcp.NewToolResultJSON(items)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// maxLogPages bounds how far back get_session_logs pages.
const maxLogPages = 20

func (h *handlers) getSessionLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	if uid == "" {
		return mcp.NewToolResultError("no authenticated user"), nil
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	logs := []models.SessionLog{}
	token := ""
	// Pages arrive newest first, so stop once a page reaches past start.
	for range maxLogPages {
		page, err := h.ds.GetSessionLogs(ctx, uid, 0, token)
		if err != nil {
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		older := false
		for _, l := range page.Logs {
			if l.LoggedAt.Before(start) {
				older = true
				continue
			}
			if !l.LoggedAt.After(end) {
				logs = append(logs, l)
			}
		}
		if older || !page.HasMore || page.NextToken == "" || page.NextToken == token {
			break
		}
		token = page.NextToken
	}

	result, err := mcp.NewToolResultJSON(logs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	if uid == "" {
		return mcp.NewToolResultError("no authenticated user"), nil
	}

	startStr := req.GetString("start", "")
	endStr := req.GetString("end", "")
	start, end, err := defaultTimeRange(startStr, endStr)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	if startStr == "" {
		start = end.AddDate(0, -6, 0)
	}
	bucket := req.GetString("bucket", models.BucketMonth)
	if bucket != models.BucketWeek && bucket != models.BucketMonth {
		return mcp.NewToolResultError("bucket must be '1 week' or '1 month'"), nil
	}

	periods, err := h.ds.GetTrainingSummary(ctx, uid, start, end, bucket)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(periods)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	uid := UserIDFromContext(ctx)
	if uid == "" {
		return mcp.NewToolResultError("no authenticated user"), nil
	}

	session, err := h.ds.GetSession(ctx, uid, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return mcp.NewToolResultError("session " + id + " not found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(session)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getMovement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("movement_id")
	if err != nil {
		return mcp.NewToolResultError("movement_id parameter is required"), nil
	}
	uid := UserIDFromContext(ctx)
	if uid == "" {
		return mcp.NewToolResultError("no authenticated user"), nil
	}

	movement, err := h.ds.GetMovement(ctx, uid, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return mcp.NewToolResultError("movement " + id + " not found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(movement)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

type trackingState struct {
	tracking.Snapshot
	ElapsedFormatted string `json:"elapsedFormatted"`
}

func (h *handlers) snapshot() trackingState {
	snap := h.tracker.Snapshot()
	return trackingState{Snapshot: snap, ElapsedFormatted: tracking.FormatElapsed(snap.Elapsed)}
}

func (h *handlers) getTrackingState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(h.snapshot())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
