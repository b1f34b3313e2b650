// Package history merges the session, movement and plan log streams into a
// single newest-first list and filters it.
package history

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/meltforce/gymtrack/internal/apperrors"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/workoutdata"
)

// Aggregator loads history from the three paginated log streams.
type Aggregator struct {
	src      workoutdata.LogSource
	pageSize int
	log      *slog.Logger
}

// NewAggregator creates an aggregator. pageSize <= 0 means 50.
func NewAggregator(src workoutdata.LogSource, pageSize int, log *slog.Logger) *Aggregator {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Aggregator{src: src, pageSize: pageSize, log: log}
}

// LoadHistory fetches all three streams concurrently and returns their items
// sorted by date, newest first. A stream whose page fetch fails stops and
// keeps what it already had; the others are unaffected.
func (a *Aggregator) LoadHistory(ctx context.Context, userID string) []models.HistoryItem {
	var wg sync.WaitGroup
	var sessions, movements, plans []models.HistoryItem

	wg.Add(3)
	go func() {
		defer wg.Done()
		sessions = fetchAll(ctx, a, "session", userID, a.src.GetSessionLogs, sessionItem)
	}()
	go func() {
		defer wg.Done()
		movements = fetchAll(ctx, a, "movement", userID, a.src.GetMovementLogs, movementItem)
	}()
	go func() {
		defer wg.Done()
		plans = fetchAll(ctx, a, "plan", userID, a.src.GetPlanLogs, planItem)
	}()
	wg.Wait()

	items := make([]models.HistoryItem, 0, len(sessions)+len(movements)+len(plans))
	items = append(items, sessions...)
	items = append(items, movements...)
	items = append(items, plans...)
	Sort(items)
	return items
}

type pageFunc[T any] func(ctx context.Context, userID string, limit int, nextToken string) (*models.LogPage[T], error)

func fetchAll[T any](ctx context.Context, a *Aggregator, stream, userID string, fetch pageFunc[T], convert func(T) models.HistoryItem) []models.HistoryItem {
	var items []models.HistoryItem
	token := ""
	seen := make(map[string]bool)
	for page := 1; ; page++ {
		p, err := fetch(ctx, userID, a.pageSize, token)
		if err != nil {
			a.log.Warn("history stream stopped", "stream", stream, "page", page, "items", len(items), "error", err)
			return items
		}
		for _, l := range p.Logs {
			items = append(items, convert(l))
		}
		if !p.HasMore || p.NextToken == "" {
			return items
		}
		if seen[p.NextToken] {
			a.log.Warn("history stream repeated token", "stream", stream, "page", page)
			return items
		}
		seen[p.NextToken] = true
		token = p.NextToken
	}
}

func sessionItem(l models.SessionLog) models.HistoryItem {
	d := l.Duration
	name := l.SessionName
	if name == "" {
		name = "Workout"
	}
	return models.HistoryItem{
		ID:        l.ID,
		Name:      name,
		Date:      l.LoggedAt,
		Duration:  &d,
		Calories:  l.Calories,
		TotalSets: l.TotalSets,
		LogType:   models.LogTypeSession,
	}
}

func movementItem(l models.MovementLog) models.HistoryItem {
	n := len(l.Sets)
	return models.HistoryItem{
		ID:        l.ID,
		Name:      l.MovementName,
		Date:      l.LoggedAt,
		TotalSets: &n,
		LogType:   models.LogTypeMovement,
	}
}

func planItem(l models.PlanLog) models.HistoryItem {
	name := l.PlanName
	if l.Slot != "" {
		name = fmt.Sprintf("%s (%s)", l.PlanName, l.Slot)
	}
	return models.HistoryItem{
		ID:      l.ID,
		Name:    name,
		Date:    l.LoggedAt,
		LogType: models.LogTypePlan,
	}
}

// Sort orders items newest first, breaking ties by id.
func Sort(items []models.HistoryItem) {
	slices.SortStableFunc(items, func(x, y models.HistoryItem) int {
		if c := y.Date.Compare(x.Date); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
}

// TypeFilter selects one log stream, or all of them.
type TypeFilter string

const (
	TypeAll      TypeFilter = "all"
	TypeSession  TypeFilter = TypeFilter(models.LogTypeSession)
	TypeMovement TypeFilter = TypeFilter(models.LogTypeMovement)
	TypePlan     TypeFilter = TypeFilter(models.LogTypePlan)
)

// DateFilter selects a window ending now.
type DateFilter string

const (
	DateAll   DateFilter = "all"
	DateToday DateFilter = "today"
	DateWeek  DateFilter = "week"
	DateMonth DateFilter = "month"
)

// ParseTypeFilter maps a query value to a TypeFilter; empty means all.
func ParseTypeFilter(s string) (TypeFilter, error) {
	switch f := TypeFilter(s); f {
	case "", TypeAll:
		return TypeAll, nil
	case TypeSession, TypeMovement, TypePlan:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown type filter %q", apperrors.ErrValidation, s)
}

// ParseDateFilter maps a query value to a DateFilter; empty means all.
func ParseDateFilter(s string) (DateFilter, error) {
	switch f := DateFilter(s); f {
	case "", DateAll:
		return DateAll, nil
	case DateToday, DateWeek, DateMonth:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown date filter %q", apperrors.ErrValidation, s)
}

// Filter returns the items matching both filters, preserving order. It has
// no state: the same inputs always give the same result.
func Filter(items []models.HistoryItem, typ TypeFilter, date DateFilter, now time.Time) []models.HistoryItem {
	out := make([]models.HistoryItem, 0, len(items))
	for _, it := range items {
		if typ != "" && typ != TypeAll && string(typ) != string(it.LogType) {
			continue
		}
		if !inWindow(it.Date, date, now) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func inWindow(t time.Time, f DateFilter, now time.Time) bool {
	switch f {
	case DateToday:
		y1, m1, d1 := t.In(now.Location()).Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case DateWeek:
		return !t.Before(now.AddDate(0, 0, -7))
	case DateMonth:
		return !t.Before(now.AddDate(0, 0, -30))
	default:
		return true
	}
}
