// Package tracking runs the live workout: a one-second stopwatch, a state
// machine (idle, active, paused, ended) and a ledger of completed sets whose
// totals are recomputed on every change. One Engine tracks at most one
// workout at a time; observers subscribe for change events.
package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meltforce/gymtrack/internal/apperrors"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/payload"
	"github.com/meltforce/gymtrack/internal/workoutdata"
)

// State is the lifecycle position of the tracked workout.
type State int

const (
	StateIdle State = iota
	StateActive
	StatePaused
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StateIdle
	case "active":
		*s = StateActive
	case "paused":
		*s = StatePaused
	case "ended":
		*s = StateEnded
	default:
		return fmt.Errorf("%w: unknown state %q", apperrors.ErrValidation, b)
	}
	return nil
}

// EndReason says how an ended workout finished.
type EndReason string

const (
	EndSaved     EndReason = "saved"
	EndDiscarded EndReason = "discarded"
)

// OpenTrainingID identifies the ad hoc session and its placeholder movement
// used when no planned session or movement applies.
const OpenTrainingID = "open-training"

// OpenTrainingMovement returns the placeholder movement that collects sets
// with no known movement.
func OpenTrainingMovement() models.MovementDraft {
	return models.MovementDraft{ID: OpenTrainingID, Movement1Name: "Open Training", IsSingle: true}
}

// OpenTrainingSession returns an unplanned session holding only the placeholder movement.
func OpenTrainingSession() models.SessionDraft {
	return models.SessionDraft{
		ID:                 OpenTrainingID,
		Name:               "Open Training",
		MovementsInSession: []models.MovementDraft{OpenTrainingMovement()},
	}
}

// CompletedSet is one ledger entry: a set record plus the movement it was logged against.
type CompletedSet struct {
	models.SetRecord
	MovementID   string `json:"movementId,omitempty"`
	MovementName string `json:"movementName,omitempty"`
}

// Snapshot is a point-in-time copy of the tracked workout. It shares no
// memory with the engine.
type Snapshot struct {
	State             State                `json:"state"`
	EndReason         EndReason            `json:"endReason,omitempty"`
	Session           *models.SessionDraft `json:"session,omitempty"`
	CurrentMovementID string               `json:"currentMovementId,omitempty"`
	StartedAt         time.Time            `json:"startedAt,omitzero"`
	Elapsed           int                  `json:"elapsedTime"`
	CompletedSets     []CompletedSet       `json:"completedSets"`
	TotalVolume       float64              `json:"totalVolume"`
	TotalReps         int                  `json:"totalReps"`
	TotalWeight       float64              `json:"totalWeight"`
	TotalCalories     float64              `json:"totalCalories"`
	HeartRate         float64              `json:"heartRate"`
}

// Live reports whether a workout is active or paused.
func (s Snapshot) Live() bool { return s.State == StateActive || s.State == StatePaused }

// EventKind names what changed.
type EventKind string

const (
	EventStarted         EventKind = "started"
	EventPaused          EventKind = "paused"
	EventResumed         EventKind = "resumed"
	EventEnded           EventKind = "ended"
	EventSetsChanged     EventKind = "setsChanged"
	EventMovementChanged EventKind = "movementChanged"
	EventSensors         EventKind = "sensors"
	EventTick            EventKind = "tick"
)

// Event is delivered to subscribers after every mutation.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
}

// Handoff is an in-progress workout transferred from the companion device.
type Handoff struct {
	Session       models.SessionDraft
	Elapsed       int
	Paused        bool
	Sets          []CompletedSet
	TotalCalories float64
	HeartRate     float64
}

// Engine owns the single tracked workout. All mutation is serialized by mu.
type Engine struct {
	svc      workoutdata.Service
	dispatch Dispatcher
	log      *slog.Logger
	timer    *Timer
	now      func() time.Time

	mu        sync.Mutex
	state     State
	endReason EndReason
	session   *models.SessionDraft
	current   string
	startedAt time.Time
	gen       uint64
	saving    bool

	ledger    []CompletedSet
	index     map[string]int
	volume    float64
	reps      int
	weight    float64
	calories  float64
	heartRate float64
	hrSamples []models.HeartRateSample

	subs   map[int]func(Event)
	nextID int
}

// NewEngine creates an idle engine. tick is the timer interval; zero means one second.
func NewEngine(svc workoutdata.Service, dispatch Dispatcher, tick time.Duration, log *slog.Logger) *Engine {
	e := &Engine{
		svc:      svc,
		dispatch: dispatch,
		log:      log,
		now:      time.Now,
		index:    make(map[string]int),
		subs:     make(map[int]func(Event)),
	}
	e.timer = NewTimer(tick, e.onTick)
	return e
}

// Timer exposes the workout stopwatch.
func (e *Engine) Timer() *Timer { return e.timer }

// Subscribe registers fn for change events and returns its unsubscribe func.
// fn runs on the dispatcher and must not block.
func (e *Engine) Subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// StartWorkout begins tracking session. Only one workout may be live.
func (e *Engine) StartWorkout(session models.SessionDraft) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.liveLocked() {
		return apperrors.ErrWorkoutActive
	}
	e.beginLocked(session)
	e.timer.Start()
	e.log.Info("workout started", "session", session.ID, "name", session.Name)
	e.publishLocked(EventStarted)
	return nil
}

// PauseWorkout freezes the timer.
func (e *Engine) PauseWorkout() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateActive {
		return fmt.Errorf("pause from %s: %w", e.state, apperrors.ErrInvalidTransition)
	}
	e.timer.Pause()
	e.state = StatePaused
	e.publishLocked(EventPaused)
	return nil
}

// ResumeWorkout restarts the timer after a pause.
func (e *Engine) ResumeWorkout() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePaused {
		return fmt.Errorf("resume from %s: %w", e.state, apperrors.ErrInvalidTransition)
	}
	e.timer.Resume()
	e.state = StateActive
	e.publishLocked(EventResumed)
	return nil
}

// CompleteSet upserts set into the ledger keyed by its id and marks it
// completed. Supplied weight, reps and duration overwrite stored values;
// nil keeps the prior ledger value, or the set's own value on first sight.
func (e *Engine) CompleteSet(movement models.MovementDraft, set models.SetRecord, weight *float64, reps, duration *int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.liveLocked() {
		return apperrors.ErrNoActiveWorkout
	}
	if e.saving {
		return fmt.Errorf("complete set while saving: %w", apperrors.ErrInvalidTransition)
	}
	if set.ID == "" {
		return fmt.Errorf("%w: set id is required", apperrors.ErrValidation)
	}

	entry := CompletedSet{SetRecord: set.Clone()}
	if i, ok := e.index[set.ID]; ok {
		entry = e.ledger[i]
	}
	entry.MovementID = movement.ID
	entry.MovementName = movement.DisplayName()
	entry.Completed = true
	if weight != nil {
		w := *weight
		entry.Weight = &w
	}
	if reps != nil {
		r := *reps
		entry.Reps = &r
	}
	if duration != nil {
		d := *duration
		entry.Duration = &d
	}
	if err := payload.Set(entry.SetRecord).Validate(); err != nil {
		return err
	}

	if i, ok := e.index[set.ID]; ok {
		e.ledger[i] = entry
	} else {
		e.index[set.ID] = len(e.ledger)
		e.ledger = append(e.ledger, entry)
	}
	if movement.ID != "" {
		e.current = movement.ID
	}

	e.recomputeLocked()
	e.reconcileLocked()
	e.publishLocked(EventSetsChanged)
	return nil
}

// UpdateCurrentMovement records the movement the user last interacted with.
func (e *Engine) UpdateCurrentMovement(movement models.MovementDraft) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.liveLocked() {
		return apperrors.ErrNoActiveWorkout
	}
	e.current = movement.ID
	e.publishLocked(EventMovementChanged)
	return nil
}

// CurrentMovement resolves the current-movement pointer against the session.
func (e *Engine) CurrentMovement() (models.MovementDraft, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil || e.current == "" {
		return models.MovementDraft{}, false
	}
	return findMovement(e.session, e.current)
}

// FindMovement looks up a movement of the tracked session by id.
func (e *Engine) FindMovement(id string) (models.MovementDraft, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil || id == "" {
		return models.MovementDraft{}, false
	}
	return findMovement(e.session, id)
}

// ResolveMovement picks the movement a set is attributed to. A non-empty id
// must name a movement of the tracked session; an empty id falls back to the
// current movement. Anything unresolved lands on the open-training placeholder.
func (e *Engine) ResolveMovement(id string) models.MovementDraft {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id == "" {
		id = e.current
	}
	if e.session != nil && id != "" {
		if m, ok := findMovement(e.session, id); ok {
			return m
		}
	}
	return OpenTrainingMovement()
}

// UpdateHeartRate records a live reading. Readings keep flowing while paused.
func (e *Engine) UpdateHeartRate(bpm float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.liveLocked() {
		return apperrors.ErrNoActiveWorkout
	}
	if bpm <= 0 {
		return fmt.Errorf("%w: heart rate must be positive", apperrors.ErrValidation)
	}
	e.heartRate = bpm
	e.hrSamples = append(e.hrSamples, models.HeartRateSample{Time: e.now(), BPM: bpm})
	e.publishLocked(EventSensors)
	return nil
}

// UpdateCalories records the running calorie total. Lower values are ignored.
func (e *Engine) UpdateCalories(total float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.liveLocked() {
		return apperrors.ErrNoActiveWorkout
	}
	if total <= e.calories {
		return nil
	}
	e.calories = total
	e.publishLocked(EventSensors)
	return nil
}

// StopWorkout discards the live workout without persisting it.
func (e *Engine) StopWorkout() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.liveLocked() {
		return fmt.Errorf("stop from %s: %w", e.state, apperrors.ErrInvalidTransition)
	}
	if e.saving {
		return fmt.Errorf("stop while saving: %w", apperrors.ErrInvalidTransition)
	}
	e.log.Info("workout discarded", "session", e.session.ID, "sets", len(e.ledger))
	e.endLocked(EndDiscarded)
	return nil
}

// SaveWorkout persists the live workout as a session log. The lock is
// released for the remote call; meanwhile new sets and Stop are refused so
// nothing is lost at teardown. The workout is torn down only after the
// service accepts it; on failure everything is kept so the caller can retry.
func (e *Engine) SaveWorkout(ctx context.Context, userID, notes string) error {
	if userID == "" {
		return apperrors.ErrNoUser
	}
	e.mu.Lock()
	if !e.liveLocked() {
		defer e.mu.Unlock()
		return fmt.Errorf("save from %s: %w", e.state, apperrors.ErrInvalidTransition)
	}
	if e.saving {
		e.mu.Unlock()
		return fmt.Errorf("save already in progress: %w", apperrors.ErrInvalidTransition)
	}
	p := e.sessionLogLocked(userID, notes)
	if err := p.Validate(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.saving = true
	gen := e.gen
	e.mu.Unlock()

	err := e.svc.SaveSessionLog(ctx, p)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if err != nil {
		e.log.Error("saving workout failed", "session", p.OriginalSessionID, "error", err)
		return fmt.Errorf("saving workout: %w", err)
	}
	if e.gen != gen || !e.liveLocked() {
		e.log.Warn("workout changed while saving; log kept, state left as is", "session", p.OriginalSessionID)
		return nil
	}

	e.log.Info("workout saved", "session", p.OriginalSessionID, "duration", p.Duration, "sets", *p.TotalSets)
	e.endLocked(EndSaved)
	return nil
}

// AdoptHandoff takes over a workout already in progress on the companion.
func (e *Engine) AdoptHandoff(h Handoff) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.liveLocked() {
		return apperrors.ErrWorkoutActive
	}

	e.beginLocked(h.Session)
	for _, s := range h.Sets {
		if s.ID == "" {
			continue
		}
		s.SetRecord = s.Clone()
		s.Completed = true
		if i, ok := e.index[s.ID]; ok {
			e.ledger[i] = s
			continue
		}
		e.index[s.ID] = len(e.ledger)
		e.ledger = append(e.ledger, s)
	}
	e.calories = h.TotalCalories
	e.heartRate = h.HeartRate
	e.recomputeLocked()
	e.reconcileLocked()

	e.timer.Start()
	e.timer.SetElapsed(h.Elapsed)
	if h.Paused {
		e.timer.Pause()
		e.state = StatePaused
	}
	e.log.Info("workout adopted from companion", "session", h.Session.ID, "elapsed", h.Elapsed, "sets", len(e.ledger))
	e.publishLocked(EventStarted)
	return nil
}

func (e *Engine) liveLocked() bool {
	return e.state == StateActive || e.state == StatePaused
}

func (e *Engine) beginLocked(session models.SessionDraft) {
	s := session.Clone()
	e.session = &s
	e.gen++
	e.state = StateActive
	e.endReason = ""
	e.current = ""
	e.startedAt = e.now()
	e.ledger = nil
	e.index = make(map[string]int)
	e.volume, e.reps, e.weight = 0, 0, 0
	e.calories, e.heartRate = 0, 0
	e.hrSamples = nil
}

func (e *Engine) endLocked(reason EndReason) {
	e.timer.Stop()
	e.state = StateEnded
	e.endReason = reason
	ended := e.session
	e.session = nil
	e.current = ""
	e.ledger = nil
	e.index = make(map[string]int)
	e.volume, e.reps, e.weight = 0, 0, 0
	e.calories, e.heartRate = 0, 0
	e.hrSamples = nil

	// The ended event still names the workout.
	snap := e.snapshotLocked()
	snap.Session = ended
	e.publishSnapshotLocked(EventEnded, snap)
}

// recomputeLocked sums the whole ledger. totalWeight is a plain sum of set
// weights; consumers read it that way.
func (e *Engine) recomputeLocked() {
	var volume, weight float64
	var reps int
	for _, s := range e.ledger {
		var r int
		var w float64
		if s.Reps != nil {
			r = *s.Reps
		}
		if s.Weight != nil {
			w = *s.Weight
		}
		reps += r
		weight += w
		volume += float64(r) * w
	}
	e.volume, e.reps, e.weight = volume, reps, weight
}

// reconcileLocked copies ledger values into every set of the session whose
// id matches. Ledger entries with no matching set are left alone.
func (e *Engine) reconcileLocked() {
	if e.session == nil {
		return
	}
	for mi := range e.session.MovementsInSession {
		m := &e.session.MovementsInSession[mi]
		for _, coll := range m.SetCollections() {
			sets := *coll
			for si := range sets {
				i, ok := e.index[sets[si].ID]
				if !ok {
					continue
				}
				l := e.ledger[i].Clone()
				sets[si].Reps = l.Reps
				sets[si].Weight = l.Weight
				sets[si].Duration = l.Duration
				sets[si].Completed = l.Completed
			}
		}
	}
}

func (e *Engine) sessionLogLocked(userID, notes string) payload.SessionLogPayload {
	sets := len(e.ledger)
	reps := e.reps
	volume := e.volume
	weight := e.weight
	p := payload.SessionLogPayload{
		UserID:            userID,
		OriginalSessionID: e.session.ID,
		SessionName:       e.session.Name,
		Duration:          e.timer.Elapsed(),
		TotalVolume:       &volume,
		TotalSets:         &sets,
		TotalReps:         &reps,
		TotalWeight:       &weight,
		Completed:         true,
		Notes:             notes,
		HeartRate:         append([]models.HeartRateSample(nil), e.hrSamples...),
	}
	if e.calories > 0 {
		c := e.calories
		p.Calories = &c
	}

	byMovement := make(map[string]int)
	for _, s := range e.ledger {
		id := s.MovementID
		if id == "" {
			id = OpenTrainingID
		}
		i, ok := byMovement[id]
		if !ok {
			i = len(p.Movements)
			byMovement[id] = i
			name := s.MovementName
			if name == "" {
				name = OpenTrainingMovement().Movement1Name
			}
			p.Movements = append(p.Movements, payload.MovementLogPayload{MovementID: id, MovementName: name})
		}
		p.Movements[i].Sets = append(p.Movements[i].Sets, payload.Set(s.SetRecord))
	}
	return p
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:             e.state,
		EndReason:         e.endReason,
		CurrentMovementID: e.current,
		Elapsed:           e.timer.Elapsed(),
		CompletedSets:     make([]CompletedSet, len(e.ledger)),
		TotalVolume:       e.volume,
		TotalReps:         e.reps,
		TotalWeight:       e.weight,
		TotalCalories:     e.calories,
		HeartRate:         e.heartRate,
	}
	if e.liveLocked() {
		snap.StartedAt = e.startedAt
	}
	if e.session != nil {
		s := e.session.Clone()
		snap.Session = &s
	}
	for i, s := range e.ledger {
		snap.CompletedSets[i] = CompletedSet{SetRecord: s.Clone(), MovementID: s.MovementID, MovementName: s.MovementName}
	}
	return snap
}

func (e *Engine) publishLocked(kind EventKind) {
	if len(e.subs) == 0 {
		return
	}
	e.publishSnapshotLocked(kind, e.snapshotLocked())
}

func (e *Engine) publishSnapshotLocked(kind EventKind, snap Snapshot) {
	if len(e.subs) == 0 {
		return
	}
	ev := Event{Kind: kind, Snapshot: snap}
	fns := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.dispatch.Dispatch(func() {
		for _, fn := range fns {
			fn(ev)
		}
	})
}

func (e *Engine) onTick(int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateActive {
		return
	}
	e.publishLocked(EventTick)
}

func findMovement(s *models.SessionDraft, id string) (models.MovementDraft, bool) {
	for _, m := range s.MovementsInSession {
		if m.ID == id {
			return m.Clone(), true
		}
	}
	return models.MovementDraft{}, false
}

// FindSet returns the set with id from any of m's collections, or a bare
// record carrying only the id.
func FindSet(m models.MovementDraft, id string) models.SetRecord {
	for _, coll := range m.SetCollections() {
		for _, s := range *coll {
			if s.ID == id {
				return s.Clone()
			}
		}
	}
	return models.SetRecord{ID: id}
}
