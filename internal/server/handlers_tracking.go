package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/meltforce/gymtrack/internal/apperrors"
	"github.com/meltforce/gymtrack/internal/companion"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/tracking"
)

type trackingResponse struct {
	tracking.Snapshot
	ElapsedFormatted string `json:"elapsedFormatted"`
}

func (s *Server) writeSnapshot(w http.ResponseWriter) {
	snap := s.engine.Snapshot()
	writeJSON(w, http.StatusOK, trackingResponse{Snapshot: snap, ElapsedFormatted: tracking.FormatElapsed(snap.Elapsed)})
}

func (s *Server) handleTrackingState(w http.ResponseWriter, r *http.Request) {
	s.writeSnapshot(w)
}

type startRequest struct {
	SessionID string               `json:"sessionId"`
	Session   *models.SessionDraft `json:"session"`
}

func (s *Server) handleTrackingStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	var session models.SessionDraft
	switch {
	case req.Session != nil:
		session = *req.Session
	case req.SessionID == "" || req.SessionID == tracking.OpenTrainingID:
		session = tracking.OpenTrainingSession()
	default:
		loaded, err := s.svc.GetSession(r.Context(), userIDFromContext(r), req.SessionID)
		if err != nil {
			s.writeError(w, "load session", err)
			return
		}
		session = *loaded
	}

	if err := s.engine.StartWorkout(session); err != nil {
		s.writeError(w, "start workout", err)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handleTrackingPause(w http.ResponseWriter, r *http.Request) {
	s.transition(w, s.engine.PauseWorkout)
}

func (s *Server) handleTrackingResume(w http.ResponseWriter, r *http.Request) {
	s.transition(w, s.engine.ResumeWorkout)
}

func (s *Server) handleTrackingStop(w http.ResponseWriter, r *http.Request) {
	s.transition(w, s.engine.StopWorkout)
}

func (s *Server) transition(w http.ResponseWriter, fn func() error) {
	if err := fn(); err != nil {
		s.writeError(w, "tracking transition", err)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handleTrackingSave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if err := s.engine.SaveWorkout(r.Context(), userIDFromContext(r), req.Notes); err != nil {
		s.writeError(w, "save workout", err)
		return
	}
	s.writeSnapshot(w)
}

type setRequest struct {
	MovementID string   `json:"movementId"`
	SetID      string   `json:"setId"`
	Weight     *float64 `json:"weight"`
	Reps       *int     `json:"reps"`
	Duration   *int     `json:"duration"`
}

func (s *Server) handleTrackingSet(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SetID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "setId is required"})
		return
	}
	movement := s.engine.ResolveMovement(req.MovementID)
	set := tracking.FindSet(movement, req.SetID)
	if err := s.engine.CompleteSet(movement, set, req.Weight, req.Reps, req.Duration); err != nil {
		s.writeError(w, "complete set", err)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handleCurrentMovement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MovementID string `json:"movementId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	movement, ok := s.engine.FindMovement(req.MovementID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "movement not in tracked session"})
		return
	}
	if err := s.engine.UpdateCurrentMovement(movement); err != nil {
		s.writeError(w, "current movement", err)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handleSensors(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HeartRate *float64 `json:"heartRate"`
		Calories  *float64 `json:"calories"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.HeartRate == nil && req.Calories == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "heartRate or calories required"})
		return
	}
	if req.HeartRate != nil {
		if err := s.engine.UpdateHeartRate(*req.HeartRate); err != nil {
			s.writeError(w, "heart rate", err)
			return
		}
	}
	if req.Calories != nil {
		if err := s.engine.UpdateCalories(*req.Calories); err != nil {
			s.writeError(w, "calories", err)
			return
		}
	}
	s.writeSnapshot(w)
}

func (s *Server) handleCompanionMessage(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "companion bridge not configured"})
		return
	}
	var msg companion.Message
	if !decodeJSON(w, r, &msg) {
		return
	}
	if err := s.bridge.HandleMessage(r.Context(), userIDFromContext(r), msg); err != nil {
		s.writeError(w, "companion message", err)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handleCompanionContext(w http.ResponseWriter, r *http.Request) {
	if s.context == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "companion context not configured"})
		return
	}
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = companion.KindState
	}
	if kind != companion.KindState && kind != companion.KindSets {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind must be workoutState or setsUpdate"})
		return
	}

	raw, updatedAt, err := s.context.LastContext(r.Context(), kind)
	if errors.Is(err, apperrors.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no context recorded for " + kind})
		return
	}
	if err != nil {
		s.writeError(w, "companion context", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":      kind,
		"updatedAt": updatedAt.UTC().Format(time.RFC3339),
		"payload":   raw,
	})
}
