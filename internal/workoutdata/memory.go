package workoutdata

import (
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/gymtrack/internal/apperrors"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/payload"
)

// Memory is an in-process Service used for local development
// (database.in_memory) and tests. Logs are kept newest first.
type Memory struct {
	mu sync.Mutex

	movements   map[string]payload.MovementPayload
	sessions    map[string]payload.SessionPayload
	plans       map[string]payload.PlanPayload
	sessionLogs []models.SessionLog
	moveLogs    []models.MovementLog
	planLogs    []models.PlanLog
	avgBPM      map[string]float64

	now func() time.Time
}

var _ Service = (*Memory)(nil)

// NewMemory creates an empty in-memory service.
func NewMemory() *Memory {
	return &Memory{
		movements: make(map[string]payload.MovementPayload),
		sessions:  make(map[string]payload.SessionPayload),
		plans:     make(map[string]payload.PlanPayload),
		avgBPM:    make(map[string]float64),
		now:       time.Now,
	}
}

func key(userID, id string) string { return userID + "/" + id }

func (m *Memory) CreateMovement(_ context.Context, p payload.MovementPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.movements[key(p.UserID, p.MovementID)]; !ok {
		m.movements[key(p.UserID, p.MovementID)] = p
	}
	return p.MovementID, nil
}

func (m *Memory) UpdateMovement(_ context.Context, p payload.MovementPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.movements[key(p.UserID, p.MovementID)]; !ok {
		return "", fmt.Errorf("movement %s: %w", p.MovementID, apperrors.ErrNotFound)
	}
	m.movements[key(p.UserID, p.MovementID)] = p
	return p.MovementID, nil
}

func (m *Memory) GetMovement(_ context.Context, userID, movementID string) (*models.MovementDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.movements[key(userID, movementID)]
	if !ok {
		return nil, fmt.Errorf("movement %s: %w", movementID, apperrors.ErrNotFound)
	}
	d := payload.ToMovementDraft(p)
	return &d, nil
}

func (m *Memory) CreateSession(_ context.Context, p payload.SessionPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[key(p.UserID, p.SessionID)]; !ok {
		m.sessions[key(p.UserID, p.SessionID)] = p
	}
	return p.SessionID, nil
}

func (m *Memory) UpdateSession(_ context.Context, p payload.SessionPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[key(p.UserID, p.SessionID)]; !ok {
		return "", fmt.Errorf("session %s: %w", p.SessionID, apperrors.ErrNotFound)
	}
	m.sessions[key(p.UserID, p.SessionID)] = p
	return p.SessionID, nil
}

func (m *Memory) GetSession(_ context.Context, userID, sessionID string) (*models.SessionDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.sessions[key(userID, sessionID)]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, apperrors.ErrNotFound)
	}
	d := payload.ToSessionDraft(p)
	return &d, nil
}

func (m *Memory) CreatePlan(_ context.Context, p payload.PlanPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[key(p.UserID, p.PlanID)]; !ok {
		m.plans[key(p.UserID, p.PlanID)] = p
	}
	return p.PlanID, nil
}

func (m *Memory) UpdatePlan(_ context.Context, p payload.PlanPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[key(p.UserID, p.PlanID)]; !ok {
		return "", fmt.Errorf("plan %s: %w", p.PlanID, apperrors.ErrNotFound)
	}
	m.plans[key(p.UserID, p.PlanID)] = p
	return p.PlanID, nil
}

func (m *Memory) SaveSessionLog(_ context.Context, p payload.SessionLogPayload) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	log := models.SessionLog{
		ID:                uuid.NewString(),
		UserID:            p.UserID,
		OriginalSessionID: p.OriginalSessionID,
		SessionName:       p.SessionName,
		LoggedAt:          now,
		Duration:          p.Duration,
		TotalVolume:       p.TotalVolume,
		TotalSets:         p.TotalSets,
		TotalReps:         p.TotalReps,
		TotalWeight:       p.TotalWeight,
		Completed:         p.Completed,
		Calories:          p.Calories,
		Notes:             p.Notes,
	}
	m.sessionLogs = append([]models.SessionLog{log}, m.sessionLogs...)
	if n := len(p.HeartRate); n > 0 {
		var sum float64
		for _, hr := range p.HeartRate {
			sum += hr.BPM
		}
		m.avgBPM[log.ID] = sum / float64(n)
	}

	for _, mv := range p.Movements {
		ml := models.MovementLog{
			ID:           uuid.NewString(),
			UserID:       p.UserID,
			SessionLogID: log.ID,
			MovementID:   mv.MovementID,
			MovementName: mv.MovementName,
			LoggedAt:     now,
		}
		for _, s := range mv.Sets {
			ml.Sets = append(ml.Sets, models.SetRecord{ID: s.ID, Reps: s.Reps, Weight: s.Weight, Duration: s.Duration, Completed: true})
		}
		m.moveLogs = append([]models.MovementLog{ml}, m.moveLogs...)
	}
	return nil
}

func (m *Memory) SavePlanLog(_ context.Context, p payload.PlanLogPayload) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.plans[key(p.UserID, p.PlanID)]
	if !ok {
		return fmt.Errorf("plan %s: %w", p.PlanID, apperrors.ErrNotFound)
	}
	m.planLogs = append([]models.PlanLog{{
		ID:       uuid.NewString(),
		UserID:   p.UserID,
		PlanID:   p.PlanID,
		PlanName: plan.Name,
		Slot:     p.Slot,
		LoggedAt: m.now(),
	}}, m.planLogs...)
	return nil
}

func (m *Memory) GetSessionLogs(_ context.Context, userID string, limit int, nextToken string) (*models.LogPage[models.SessionLog], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memoryPage(m.sessionLogs, func(l models.SessionLog) bool { return l.UserID == userID }, limit, nextToken)
}

func (m *Memory) GetMovementLogs(_ context.Context, userID string, limit int, nextToken string) (*models.LogPage[models.MovementLog], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memoryPage(m.moveLogs, func(l models.MovementLog) bool { return l.UserID == userID }, limit, nextToken)
}

func (m *Memory) GetPlanLogs(_ context.Context, userID string, limit int, nextToken string) (*models.LogPage[models.PlanLog], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memoryPage(m.planLogs, func(l models.PlanLog) bool { return l.UserID == userID }, limit, nextToken)
}

func (m *Memory) GetTrainingSummary(_ context.Context, userID string, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type group struct {
		summary  models.SessionTypeSummary
		duration int
		bpmSum   float64
		bpmN     int
	}
	type period struct {
		start  time.Time
		names  []string
		groups map[string]*group
		volume models.VolumeSummary
	}
	periods := make(map[time.Time]*period)

	for _, l := range m.sessionLogs {
		if l.UserID != userID || l.LoggedAt.Before(start) || !l.LoggedAt.Before(end) {
			continue
		}
		ps := models.PeriodStart(l.LoggedAt, bucket)
		p, ok := periods[ps]
		if !ok {
			p = &period{start: ps, groups: make(map[string]*group)}
			periods[ps] = p
		}
		g, ok := p.groups[l.SessionName]
		if !ok {
			g = &group{summary: models.SessionTypeSummary{Name: l.SessionName}}
			p.groups[l.SessionName] = g
			p.names = append(p.names, l.SessionName)
		}
		g.summary.Count++
		g.duration += l.Duration
		if l.Calories != nil {
			g.summary.TotalCalories += *l.Calories
		}
		if bpm, ok := m.avgBPM[l.ID]; ok {
			g.bpmSum += bpm
			g.bpmN++
		}

		p.volume.Sessions++
		if l.TotalSets != nil {
			p.volume.Sets += *l.TotalSets
		}
		if l.TotalReps != nil {
			p.volume.Reps += *l.TotalReps
		}
		if l.TotalVolume != nil {
			p.volume.Volume += *l.TotalVolume
		}
		if l.TotalWeight != nil {
			p.volume.Weight += *l.TotalWeight
		}
	}

	starts := make([]time.Time, 0, len(periods))
	for ps := range periods {
		starts = append(starts, ps)
	}
	slices.SortFunc(starts, func(a, b time.Time) int { return b.Compare(a) })

	out := make([]models.TrainingSummaryPeriod, 0, len(starts))
	for _, ps := range starts {
		p := periods[ps]
		tp := models.TrainingSummaryPeriod{Period: ps.Format("2006-01-02"), Sessions: []models.SessionTypeSummary{}}
		for _, name := range p.names {
			g := p.groups[name]
			g.summary.AvgDuration = float64(g.duration) / float64(g.summary.Count)
			if g.bpmN > 0 {
				avg := g.bpmSum / float64(g.bpmN)
				g.summary.AvgHeartRate = &avg
			}
			tp.Sessions = append(tp.Sessions, g.summary)
		}
		slices.SortStableFunc(tp.Sessions, func(a, b models.SessionTypeSummary) int { return b.Count - a.Count })
		v := p.volume
		v.AvgSetsPerSession = float64(v.Sets) / float64(v.Sessions)
		tp.Volume = &v
		out = append(out, tp)
	}
	return out, nil
}

// memoryPage slices a filtered list using an opaque offset token.
func memoryPage[T any](all []T, keep func(T) bool, limit int, token string) (*models.LogPage[T], error) {
	if limit <= 0 {
		limit = 50
	}
	offset := 0
	if token != "" {
		raw, err := base64.RawURLEncoding.DecodeString(token)
		if err != nil {
			return nil, fmt.Errorf("decoding token: %w", apperrors.ErrBadCursor)
		}
		offset, err = strconv.Atoi(string(raw))
		if err != nil || offset < 0 {
			return nil, fmt.Errorf("decoding token: %w", apperrors.ErrBadCursor)
		}
	}

	var filtered []T
	for _, item := range all {
		if keep(item) {
			filtered = append(filtered, item)
		}
	}

	page := &models.LogPage[T]{Logs: []T{}}
	if offset >= len(filtered) {
		return page, nil
	}
	end := min(offset+limit, len(filtered))
	page.Logs = append(page.Logs, filtered[offset:end]...)
	if end < len(filtered) {
		page.HasMore = true
		page.NextToken = base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(end)))
	}
	return page, nil
}
