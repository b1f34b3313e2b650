package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

var base = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pagedSource serves fixed pages per stream. A page index listed in fail
// returns an error instead.
type pagedSource struct {
	sessions  [][]models.SessionLog
	movements [][]models.MovementLog
	plans     [][]models.PlanLog
	fail      map[string]int
	calls     atomic.Int32
}

func servePage[T any](s *pagedSource, stream string, pages [][]T, token string) (*models.LogPage[T], error) {
	s.calls.Add(1)
	i := 0
	if token != "" {
		i, _ = strconv.Atoi(token)
	}
	if at, ok := s.fail[stream]; ok && at == i {
		return nil, errors.New(stream + " backend unavailable")
	}
	page := &models.LogPage[T]{Logs: []T{}}
	if i < len(pages) {
		page.Logs = pages[i]
	}
	if i+1 < len(pages) {
		page.HasMore = true
		page.NextToken = strconv.Itoa(i + 1)
	}
	return page, nil
}

func (s *pagedSource) GetSessionLogs(_ context.Context, _ string, _ int, token string) (*models.LogPage[models.SessionLog], error) {
	return servePage(s, "session", s.sessions, token)
}

func (s *pagedSource) GetMovementLogs(_ context.Context, _ string, _ int, token string) (*models.LogPage[models.MovementLog], error) {
	return servePage(s, "movement", s.movements, token)
}

func (s *pagedSource) GetPlanLogs(_ context.Context, _ string, _ int, token string) (*models.LogPage[models.PlanLog], error) {
	return servePage(s, "plan", s.plans, token)
}

func fixture() *pagedSource {
	return &pagedSource{
		sessions: [][]models.SessionLog{
			{{ID: "s1", SessionName: "Push", LoggedAt: base.Add(-48 * time.Hour), Duration: 3600}},
			{{ID: "s2", SessionName: "Pull", LoggedAt: base.Add(-1 * time.Hour), Duration: 2400}},
		},
		movements: [][]models.MovementLog{{}},
		plans: [][]models.PlanLog{
			{{ID: "p1", PlanName: "5x5", Slot: "monday", LoggedAt: base.Add(-24 * time.Hour)}},
		},
	}
}

// TestLoadHistoryMergesStreams verifies items from 2/0/1 logs over 2/1/1 pages
// come back as 3 items, newest first.
func TestLoadHistoryMergesStreams(t *testing.T) {
	src := fixture()
	items := NewAggregator(src, 1, testLogger()).LoadHistory(context.Background(), "alice")

	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	wantIDs := []string{"s2", "p1", "s1"}
	for i, id := range wantIDs {
		if items[i].ID != id {
			t.Errorf("items[%d] = %s, want %s", i, items[i].ID, id)
		}
	}
	if items[1].Name != "5x5 (monday)" || items[1].LogType != models.LogTypePlan {
		t.Errorf("plan item = %+v", items[1])
	}
	if got := src.calls.Load(); got != 4 {
		t.Errorf("page fetches = %d, want 4", got)
	}
}

// TestLoadHistoryPartialFailure verifies a failed page stops only its own stream.
func TestLoadHistoryPartialFailure(t *testing.T) {
	tests := []struct {
		name    string
		fail    map[string]int
		wantIDs []string
	}{
		{"plan fails", map[string]int{"plan": 0}, []string{"s2", "s1"}},
		{"second session page fails", map[string]int{"session": 1}, []string{"p1", "s1"}},
		{"everything fails", map[string]int{"session": 0, "movement": 0, "plan": 0}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fixture()
			src.fail = tt.fail
			items := NewAggregator(src, 1, testLogger()).LoadHistory(context.Background(), "alice")

			if len(items) != len(tt.wantIDs) {
				t.Fatalf("items = %d, want %d", len(items), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if items[i].ID != id {
					t.Errorf("items[%d] = %s, want %s", i, items[i].ID, id)
				}
			}
		})
	}
}

// TestLoadHistoryRepeatedToken verifies a source that never advances its token terminates.
func TestLoadHistoryRepeatedToken(t *testing.T) {
	src := &stuckSource{}
	items := NewAggregator(src, 10, testLogger()).LoadHistory(context.Background(), "alice")
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
}

type stuckSource struct{ pagedSource }

func (s *stuckSource) GetSessionLogs(context.Context, string, int, string) (*models.LogPage[models.SessionLog], error) {
	return &models.LogPage[models.SessionLog]{
		Logs:      []models.SessionLog{{ID: "loop", LoggedAt: base}},
		HasMore:   true,
		NextToken: "same",
	}, nil
}

// TestSortTiesByID verifies equal dates are ordered by id.
func TestSortTiesByID(t *testing.T) {
	items := []models.HistoryItem{
		{ID: "b", Date: base},
		{ID: "c", Date: base.Add(time.Minute)},
		{ID: "a", Date: base},
	}
	Sort(items)
	got := items[0].ID + items[1].ID + items[2].ID
	if got != "cab" {
		t.Errorf("order = %s, want cab", got)
	}
}

// TestFilter verifies type and date windows and that filtering is repeatable.
func TestFilter(t *testing.T) {
	items := []models.HistoryItem{
		{ID: "today", Date: base.Add(-2 * time.Hour), LogType: models.LogTypeSession},
		{ID: "week", Date: base.Add(-5 * 24 * time.Hour), LogType: models.LogTypeMovement},
		{ID: "month", Date: base.Add(-20 * 24 * time.Hour), LogType: models.LogTypePlan},
		{ID: "old", Date: base.Add(-90 * 24 * time.Hour), LogType: models.LogTypeSession},
	}

	tests := []struct {
		typ  TypeFilter
		date DateFilter
		want int
	}{
		{TypeAll, DateAll, 4},
		{TypeAll, DateToday, 1},
		{TypeAll, DateWeek, 2},
		{TypeAll, DateMonth, 3},
		{TypeSession, DateAll, 2},
		{TypeSession, DateMonth, 1},
		{TypePlan, DateWeek, 0},
		{"", "", 4},
	}
	for _, tt := range tests {
		got := Filter(items, tt.typ, tt.date, base)
		if len(got) != tt.want {
			t.Errorf("Filter(%q, %q) = %d items, want %d", tt.typ, tt.date, len(got), tt.want)
		}
		again := Filter(items, tt.typ, tt.date, base)
		if len(again) != len(got) {
			t.Errorf("Filter(%q, %q) not repeatable", tt.typ, tt.date)
		}
	}
	if len(items) != 4 {
		t.Error("Filter must not modify its input")
	}
}

// TestParseFilters verifies accepted values and defaults.
func TestParseFilters(t *testing.T) {
	if f, err := ParseTypeFilter(""); err != nil || f != TypeAll {
		t.Errorf("ParseTypeFilter(\"\") = %q, %v", f, err)
	}
	if _, err := ParseTypeFilter("workout"); err == nil {
		t.Error("expected error for unknown type")
	}
	if f, err := ParseDateFilter("week"); err != nil || f != DateWeek {
		t.Errorf("ParseDateFilter(week) = %q, %v", f, err)
	}
	if _, err := ParseDateFilter("year"); err == nil {
		t.Error("expected error for unknown date window")
	}
}
