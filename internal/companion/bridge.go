package companion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meltforce/gymtrack/internal/apperrors"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/tracking"
	"github.com/meltforce/gymtrack/internal/workoutdata"
)

// Bridge connects the tracking engine to the companion device.
type Bridge struct {
	engine *tracking.Engine
	svc    workoutdata.Service
	live   LiveTransport
	store  ContextStore
	log    *slog.Logger

	outbox      *tracking.SerialDispatcher
	sendTimeout time.Duration
	now         func() time.Time
	unsubscribe func()
}

// NewBridge creates a bridge. live may be nil when no companion URL is configured.
func NewBridge(engine *tracking.Engine, svc workoutdata.Service, live LiveTransport, store ContextStore, log *slog.Logger) *Bridge {
	return &Bridge{
		engine:      engine,
		svc:         svc,
		live:        live,
		store:       store,
		log:         log,
		sendTimeout: 10 * time.Second,
		now:         time.Now,
	}
}

// Start subscribes to engine events and begins pushing to the companion.
func (b *Bridge) Start() {
	b.outbox = tracking.NewSerialDispatcher()
	b.unsubscribe = b.engine.Subscribe(b.onEvent)
}

// Close unsubscribes and flushes queued pushes.
func (b *Bridge) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	if b.outbox != nil {
		b.outbox.Close()
	}
}

// onEvent runs on the engine's dispatcher; delivery is handed to the outbox
// goroutine so subscribers never wait on the network.
func (b *Bridge) onEvent(ev tracking.Event) {
	var msg Outbound
	switch ev.Kind {
	case tracking.EventStarted, tracking.EventPaused, tracking.EventResumed, tracking.EventEnded:
		msg = statePayload(ev.Snapshot, b.now())
	case tracking.EventSetsChanged:
		msg = setsPayload(ev.Snapshot, b.now())
	default:
		return
	}
	b.outbox.Dispatch(func() { b.Push(msg) })
}

// Push delivers msg live when possible and otherwise records it in the
// context store. Failures are logged and never returned.
func (b *Bridge) Push(msg Outbound) {
	ctx, cancel := context.WithTimeout(context.Background(), b.sendTimeout)
	defer cancel()

	if b.live != nil && b.live.Reachable() {
		err := b.live.Send(ctx, msg)
		if err == nil {
			return
		}
		b.log.Warn("companion send failed, falling back to context", "kind", msg.Kind(), "error", err)
	}

	if b.store == nil {
		return
	}
	if err := b.store.UpdateContext(ctx, msg); err != nil {
		b.log.Error("companion context update failed", "kind", msg.Kind(), "error", err)
	}
}

// HandleMessage applies an inbound companion message to the engine.
func (b *Bridge) HandleMessage(ctx context.Context, userID string, msg Message) error {
	b.log.Debug("companion message", "type", msg.Type, "user", userID)

	switch msg.Type {
	case MsgHandoff:
		return b.handoff(ctx, userID, msg)
	case MsgSetCompleted:
		return b.setCompleted(msg)
	case MsgStart:
		session, err := b.resolveSession(ctx, userID, msg)
		if err != nil {
			return err
		}
		return b.engine.StartWorkout(session)
	case MsgPause:
		return b.engine.PauseWorkout()
	case MsgResume:
		return b.engine.ResumeWorkout()
	case MsgStop:
		return b.engine.StopWorkout()
	case MsgSensorUpdate:
		return b.sensorUpdate(msg)
	default:
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownMessage, msg.Type)
	}
}

func (b *Bridge) handoff(ctx context.Context, userID string, msg Message) error {
	session, err := b.resolveSession(ctx, userID, msg)
	if err != nil {
		return err
	}
	h := tracking.Handoff{
		Session:       session,
		Elapsed:       msg.ElapsedTime,
		Paused:        msg.IsPaused,
		Sets:          msg.CompletedSets,
		TotalCalories: msg.TotalCalories,
	}
	if msg.HeartRate != nil {
		h.HeartRate = *msg.HeartRate
	}
	return b.engine.AdoptHandoff(h)
}

// setCompleted attributes the set to the named movement, else the current
// movement, else the open-training placeholder. Replays are harmless since
// the ledger is keyed by set id.
func (b *Bridge) setCompleted(msg Message) error {
	if msg.SetID == "" {
		return fmt.Errorf("%w: setId is required", apperrors.ErrValidation)
	}

	movement := b.engine.ResolveMovement(msg.MovementID)
	set := tracking.FindSet(movement, msg.SetID)
	return b.engine.CompleteSet(movement, set, msg.Weight, msg.Reps, msg.Duration)
}

func (b *Bridge) sensorUpdate(msg Message) error {
	if msg.HeartRate == nil && msg.Calories == nil {
		return fmt.Errorf("%w: sensorUpdate needs heartRate or calories", apperrors.ErrValidation)
	}
	if msg.HeartRate != nil {
		if err := b.engine.UpdateHeartRate(*msg.HeartRate); err != nil {
			return err
		}
	}
	if msg.Calories != nil {
		if err := b.engine.UpdateCalories(*msg.Calories); err != nil {
			return err
		}
	}
	return nil
}

// resolveSession prefers an embedded session, then a stored one by id, then open training.
func (b *Bridge) resolveSession(ctx context.Context, userID string, msg Message) (models.SessionDraft, error) {
	if msg.Session != nil {
		return *msg.Session, nil
	}
	if msg.SessionID == "" || msg.SessionID == tracking.OpenTrainingID {
		s := tracking.OpenTrainingSession()
		if msg.SessionName != "" {
			s.Name = msg.SessionName
		}
		return s, nil
	}
	if userID == "" {
		return models.SessionDraft{}, apperrors.ErrNoUser
	}
	s, err := b.svc.GetSession(ctx, userID, msg.SessionID)
	if err != nil {
		return models.SessionDraft{}, fmt.Errorf("loading session %s: %w", msg.SessionID, err)
	}
	return *s, nil
}
