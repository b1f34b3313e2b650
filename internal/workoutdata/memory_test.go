package workoutdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meltforce/gymtrack/internal/apperrors"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/payload"
)

// TestMemoryMovementRoundTrip verifies create is idempotent and update requires an existing record.
func TestMemoryMovementRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.UpdateMovement(ctx, payload.MovementPayload{UserID: "u1", MovementID: "m1", Movement1Name: "Row"})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("update before create: err = %v, want ErrNotFound", err)
	}

	id, err := m.CreateMovement(ctx, payload.MovementPayload{UserID: "u1", MovementID: "m1", Movement1Name: "Row"})
	if err != nil || id != "m1" {
		t.Fatalf("create = %q, %v", id, err)
	}
	if _, err := m.UpdateMovement(ctx, payload.MovementPayload{UserID: "u1", MovementID: "m1", Movement1Name: "Pendlay Row"}); err != nil {
		t.Fatal(err)
	}

	got, err := m.GetMovement(ctx, "u1", "m1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Movement1Name != "Pendlay Row" {
		t.Errorf("name = %q, want Pendlay Row", got.Movement1Name)
	}

	if _, err := m.GetMovement(ctx, "u2", "m1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("other user: err = %v, want ErrNotFound", err)
	}
}

// TestMemoryRejectsInvalidPayload verifies payload validation runs before storing.
func TestMemoryRejectsInvalidPayload(t *testing.T) {
	m := NewMemory()
	_, err := m.CreateSession(context.Background(), payload.SessionPayload{UserID: "u1", SessionID: "s1"})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

// TestMemorySessionLogPaging verifies logs page newest first and the token resumes after the last item.
func TestMemorySessionLogPaging(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := range 5 {
		m.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		if err := m.SaveSessionLog(ctx, payload.SessionLogPayload{UserID: "u1", OriginalSessionID: "s1", Duration: i}); err != nil {
			t.Fatal(err)
		}
	}

	var seen []int
	token := ""
	for {
		page, err := m.GetSessionLogs(ctx, "u1", 2, token)
		if err != nil {
			t.Fatal(err)
		}
		for _, l := range page.Logs {
			seen = append(seen, l.Duration)
		}
		if !page.HasMore {
			break
		}
		token = page.NextToken
	}
	want := []int{4, 3, 2, 1, 0}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen = %v, want %v", seen, want)
			break
		}
	}

	if _, err := m.GetSessionLogs(ctx, "u1", 2, "%%%"); !errors.Is(err, apperrors.ErrBadCursor) {
		t.Errorf("bad token: err = %v, want ErrBadCursor", err)
	}
}

// TestMemorySessionLogWritesMovementLogs verifies each logged movement gets its own entry.
func TestMemorySessionLogWritesMovementLogs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	reps := 8
	err := m.SaveSessionLog(ctx, payload.SessionLogPayload{
		UserID: "u1", OriginalSessionID: "s1", SessionName: "Pull",
		Movements: []payload.MovementLogPayload{
			{MovementID: "m1", MovementName: "Row", Sets: []payload.SetPayload{{ID: "a", Reps: &reps}}},
			{MovementID: "m2", MovementName: "Curl"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	page, err := m.GetMovementLogs(ctx, "u1", 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Logs) != 2 {
		t.Fatalf("got %d movement logs, want 2", len(page.Logs))
	}
	sessions, _ := m.GetSessionLogs(ctx, "u1", 10, "")
	for _, ml := range page.Logs {
		if ml.SessionLogID != sessions.Logs[0].ID {
			t.Errorf("movement log %s not linked to session log", ml.MovementName)
		}
	}
}

// TestMemoryPlanLogNeedsPlan verifies plan logs resolve the plan name and reject unknown plans.
func TestMemoryPlanLogNeedsPlan(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.SavePlanLog(ctx, payload.PlanLogPayload{UserID: "u1", PlanID: "p1", Slot: "monday"}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("unknown plan: err = %v, want ErrNotFound", err)
	}
	if _, err := m.CreatePlan(ctx, payload.PlanPayload{UserID: "u1", PlanID: "p1", Name: "PPL"}); err != nil {
		t.Fatal(err)
	}
	if err := m.SavePlanLog(ctx, payload.PlanLogPayload{UserID: "u1", PlanID: "p1", Slot: "monday"}); err != nil {
		t.Fatal(err)
	}
	page, _ := m.GetPlanLogs(ctx, "u1", 10, "")
	if len(page.Logs) != 1 || page.Logs[0].PlanName != "PPL" {
		t.Errorf("plan logs = %+v", page.Logs)
	}
}

// TestMemoryTrainingSummary verifies weekly buckets, name grouping and heart-rate averaging.
func TestMemoryTrainingSummary(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	sets := 5

	save := func(at time.Time, name string, dur int, bpm ...float64) {
		t.Helper()
		m.now = func() time.Time { return at }
		var hr []models.HeartRateSample
		for _, b := range bpm {
			hr = append(hr, models.HeartRateSample{Time: at, BPM: b})
		}
		err := m.SaveSessionLog(ctx, payload.SessionLogPayload{
			UserID: "u1", OriginalSessionID: "s", SessionName: name, Duration: dur, TotalSets: &sets, HeartRate: hr,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	// Week of 2025-03-10
	save(time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), "Legs", 1000, 120, 140)
	save(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), "Legs", 2000)
	save(time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC), "Push", 1500)
	// Week of 2025-03-17
	save(time.Date(2025, 3, 18, 9, 0, 0, 0, time.UTC), "Pull", 900)

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	got, err := m.GetTrainingSummary(ctx, "u1", start, end, models.BucketWeek)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d periods, want 2", len(got))
	}
	if got[0].Period != "2025-03-17" || got[1].Period != "2025-03-10" {
		t.Errorf("periods = %s, %s", got[0].Period, got[1].Period)
	}

	week := got[1]
	if len(week.Sessions) != 2 || week.Sessions[0].Name != "Legs" {
		t.Fatalf("sessions = %+v, want Legs first", week.Sessions)
	}
	legs := week.Sessions[0]
	if legs.Count != 2 || legs.AvgDuration != 1500 {
		t.Errorf("legs = %+v, want count 2 avg 1500", legs)
	}
	if legs.AvgHeartRate == nil || *legs.AvgHeartRate != 130 {
		t.Errorf("legs heart rate = %v, want 130", legs.AvgHeartRate)
	}
	if week.Sessions[1].AvgHeartRate != nil {
		t.Error("push has no samples, want nil heart rate")
	}
	if week.Volume == nil || week.Volume.Sets != 15 || week.Volume.Sessions != 3 {
		t.Errorf("volume = %+v", week.Volume)
	}

	other, _ := m.GetTrainingSummary(ctx, "u2", start, end, models.BucketWeek)
	if len(other) != 0 {
		t.Errorf("other user sees %d periods", len(other))
	}
}
