package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/gymtrack/internal/history"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/payload"
	"github.com/meltforce/gymtrack/internal/tracking"
	"github.com/meltforce/gymtrack/internal/workoutdata"
)

// TestUserIDFromContextDefault verifies an anonymous context has no user.
func TestUserIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := UserIDFromContext(ctx); id != "" {
		t.Errorf("UserIDFromContext(empty) = %q, want empty", id)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), "alice@example.com")
	if id := UserIDFromContext(ctx); id != "alice@example.com" {
		t.Errorf("UserIDFromContext = %q, want alice@example.com", id)
	}
}

// TestDefaultTimeRange verifies time range defaults (last 7 days) and parsing.
func TestDefaultTimeRange(t *testing.T) {
	// Both empty → defaults to last 7 days
	start, end, err := defaultTimeRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diff := end.Sub(start)
	if diff.Hours() < 167 || diff.Hours() > 169 { // ~168 hours = 7 days
		t.Errorf("default range = %.0f hours, want ~168", diff.Hours())
	}

	// Explicit dates
	start, end, err = defaultTimeRange("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Year() != 2024 || start.Month() != 1 || start.Day() != 1 {
		t.Errorf("start = %v, want 2024-01-01", start)
	}
	if end.Year() != 2024 || end.Month() != 1 || end.Day() != 31 {
		t.Errorf("end = %v, want 2024-01-31", end)
	}

	// RFC3339
	start, _, err = defaultTimeRange("2024-06-15T10:30:00Z", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	// Invalid
	_, _, err = defaultTimeRange("not-a-date", "")
	if err == nil {
		t.Error("expected error for invalid date")
	}
}

func newTestHandlers(t *testing.T) (*handlers, *workoutdata.Memory) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := workoutdata.NewMemory()
	return &handlers{ds: mem, history: history.NewAggregator(mem, 10, log), log: log}, mem
}

func callTool(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want TextContent", res.Content[0])
	}
	return text.Text
}

// TestGetWorkoutHistory verifies the history tool merges logs and honors the type filter.
func TestGetWorkoutHistory(t *testing.T) {
	h, mem := newTestHandlers(t)
	ctx := WithUserID(context.Background(), "alice")

	err := mem.SaveSessionLog(ctx, payload.SessionLogPayload{
		UserID: "alice", OriginalSessionID: "s1", SessionName: "Legs", Duration: 1800, Completed: true,
		Movements: []payload.MovementLogPayload{{MovementID: "m1", MovementName: "Squat", Sets: []payload.SetPayload{{ID: "x"}}}},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := h.getWorkoutHistory(ctx, callTool(nil))
	if err != nil || res.IsError {
		t.Fatalf("all history: err=%v result=%+v", err, res)
	}
	var items []models.HistoryItem
	if err := json.Unmarshal([]byte(resultText(t, res)), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want session + movement", len(items))
	}

	res, _ = h.getWorkoutHistory(ctx, callTool(map[string]any{"type": "session"}))
	items = nil
	if err := json.Unmarshal([]byte(resultText(t, res)), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Name != "Legs" {
		t.Errorf("session history = %+v", items)
	}

	res, _ = h.getWorkoutHistory(ctx, callTool(map[string]any{"date": "fortnight"}))
	if !res.IsError {
		t.Error("unknown date filter should be a tool error")
	}
}

// TestToolsRequireUser verifies anonymous calls get a tool error, not a panic.
func TestToolsRequireUser(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := context.Background()

	res, err := h.getWorkoutHistory(ctx, callTool(nil))
	if err != nil || !res.IsError {
		t.Errorf("history: err=%v isError=%v", err, res.IsError)
	}
	res, err = h.getSession(ctx, callTool(map[string]any{"session_id": "s1"}))
	if err != nil || !res.IsError {
		t.Errorf("session: err=%v isError=%v", err, res.IsError)
	}
}

// TestGetSessionNotFound verifies a missing session is reported as a tool error.
func TestGetSessionNotFound(t *testing.T) {
	h, mem := newTestHandlers(t)
	ctx := WithUserID(context.Background(), "alice")

	res, _ := h.getSession(ctx, callTool(map[string]any{"session_id": "nope"}))
	if !res.IsError {
		t.Error("expected tool error for missing session")
	}

	_, err := mem.CreateSession(ctx, payload.SessionPayload{UserID: "alice", SessionID: "s1", Name: "Push"})
	if err != nil {
		t.Fatal(err)
	}
	res, _ = h.getSession(ctx, callTool(map[string]any{"session_id": "s1"}))
	if res.IsError {
		t.Fatalf("get existing session: %s", resultText(t, res))
	}
	var s models.SessionDraft
	if err := json.Unmarshal([]byte(resultText(t, res)), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "Push" {
		t.Errorf("name = %q, want Push", s.Name)
	}
}

// TestGetSessionLogsWindow verifies only logs inside the requested range are returned.
func TestGetSessionLogsWindow(t *testing.T) {
	h, mem := newTestHandlers(t)
	ctx := WithUserID(context.Background(), "alice")
	if err := mem.SaveSessionLog(ctx, payload.SessionLogPayload{UserID: "alice", OriginalSessionID: "s1", Duration: 60}); err != nil {
		t.Fatal(err)
	}

	res, _ := h.getSessionLogs(ctx, callTool(nil))
	var logs []models.SessionLog
	if err := json.Unmarshal([]byte(resultText(t, res)), &logs); err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Errorf("last 7 days: got %d logs, want 1", len(logs))
	}

	res, _ = h.getSessionLogs(ctx, callTool(map[string]any{"start": "2020-01-01", "end": "2020-02-01"}))
	logs = nil
	if err := json.Unmarshal([]byte(resultText(t, res)), &logs); err != nil {
		t.Fatal(err)
	}
	if len(logs) != 0 {
		t.Errorf("2020 window: got %d logs, want 0", len(logs))
	}
}

// TestTrackingStateTool verifies the live snapshot is exposed with a formatted clock.
func TestTrackingStateTool(t *testing.T) {
	h, mem := newTestHandlers(t)
	engine := tracking.NewEngine(mem, tracking.InlineDispatcher{}, time.Hour, h.log)
	t.Cleanup(engine.Timer().Stop)
	h.tracker = engine

	if err := engine.StartWorkout(tracking.OpenTrainingSession()); err != nil {
		t.Fatal(err)
	}
	engine.Timer().SetElapsed(3725)

	res, _ := h.getTrackingState(context.Background(), callTool(nil))
	var got struct {
		State            string `json:"state"`
		ElapsedFormatted string `json:"elapsedFormatted"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if got.State != "active" || got.ElapsedFormatted != "01:02:05" {
		t.Errorf("state = %q elapsed = %q, want active 01:02:05", got.State, got.ElapsedFormatted)
	}
}

// TestNewRegistersWithoutTracker verifies the stdio configuration builds.
func TestNewRegistersWithoutTracker(t *testing.T) {
	s := New(workoutdata.NewMemory(), nil, 50, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if s == nil {
		t.Fatal("New returned nil")
	}
}

// TestGetTrainingSummary verifies the summary tool groups logs into the current month.
func TestGetTrainingSummary(t *testing.T) {
	h, mem := newTestHandlers(t)
	ctx := WithUserID(context.Background(), "alice")
	sets, reps := 4, 40
	for range 2 {
		err := mem.SaveSessionLog(ctx, payload.SessionLogPayload{
			UserID: "alice", OriginalSessionID: "s1", SessionName: "Legs", Duration: 600,
			TotalSets: &sets, TotalReps: &reps,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	res, _ := h.getTrainingSummary(ctx, callTool(nil))
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var periods []models.TrainingSummaryPeriod
	if err := json.Unmarshal([]byte(resultText(t, res)), &periods); err != nil {
		t.Fatal(err)
	}
	if len(periods) != 1 {
		t.Fatalf("got %d periods, want 1", len(periods))
	}
	p := periods[0]
	if len(p.Sessions) != 1 || p.Sessions[0].Count != 2 || p.Sessions[0].AvgDuration != 600 {
		t.Errorf("sessions = %+v", p.Sessions)
	}
	if p.Volume == nil || p.Volume.Sets != 8 || p.Volume.AvgSetsPerSession != 4 {
		t.Errorf("volume = %+v", p.Volume)
	}

	res, _ = h.getTrainingSummary(ctx, callTool(map[string]any{"bucket": "1 day"}))
	if !res.IsError {
		t.Error("unsupported bucket should be a tool error")
	}
}
