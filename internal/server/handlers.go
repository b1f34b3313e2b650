package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/gymtrack/internal/apperrors"
	"github.com/meltforce/gymtrack/internal/payload"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	var p payload.MovementPayload
	if !decodeValid(w, r, &p) {
		return
	}
	id, err := s.svc.CreateMovement(r.Context(), p)
	if err != nil {
		s.writeError(w, "create movement", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"movementId": id})
}

func (s *Server) handleUpdateMovement(w http.ResponseWriter, r *http.Request) {
	var p payload.MovementPayload
	if !decodeJSON(w, r, &p) || !pathID(w, r, &p.MovementID) || !valid(w, p) {
		return
	}
	id, err := s.svc.UpdateMovement(r.Context(), p)
	if err != nil {
		s.writeError(w, "update movement", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"movementId": id})
}

func (s *Server) handleGetMovement(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userId parameter required"})
		return
	}
	m, err := s.svc.GetMovement(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "get movement", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var p payload.SessionPayload
	if !decodeValid(w, r, &p) {
		return
	}
	id, err := s.svc.CreateSession(r.Context(), p)
	if err != nil {
		s.writeError(w, "create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": id})
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var p payload.SessionPayload
	if !decodeJSON(w, r, &p) || !pathID(w, r, &p.SessionID) || !valid(w, p) {
		return
	}
	id, err := s.svc.UpdateSession(r.Context(), p)
	if err != nil {
		s.writeError(w, "update session", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"sessionId": id})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userId parameter required"})
		return
	}
	session, err := s.svc.GetSession(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var p payload.PlanPayload
	if !decodeValid(w, r, &p) {
		return
	}
	id, err := s.svc.CreatePlan(r.Context(), p)
	if err != nil {
		s.writeError(w, "create plan", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"planId": id})
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var p payload.PlanPayload
	if !decodeJSON(w, r, &p) || !pathID(w, r, &p.PlanID) || !valid(w, p) {
		return
	}
	id, err := s.svc.UpdatePlan(r.Context(), p)
	if err != nil {
		s.writeError(w, "update plan", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"planId": id})
}

func (s *Server) handleSaveSessionLog(w http.ResponseWriter, r *http.Request) {
	var p payload.SessionLogPayload
	if !decodeValid(w, r, &p) {
		return
	}
	if err := s.svc.SaveSessionLog(r.Context(), p); err != nil {
		s.writeError(w, "save session log", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (s *Server) handleSavePlanLog(w http.ResponseWriter, r *http.Request) {
	var p payload.PlanLogPayload
	if !decodeValid(w, r, &p) {
		return
	}
	if err := s.svc.SavePlanLog(r.Context(), p); err != nil {
		s.writeError(w, "save plan log", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userId parameter required"})
		return
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}
	token := q.Get("nextToken")

	var (
		page any
		err  error
	)
	switch kind := chi.URLParam(r, "kind"); kind {
	case "session":
		page, err = s.svc.GetSessionLogs(r.Context(), userID, limit, token)
	case "movement":
		page, err = s.svc.GetMovementLogs(r.Context(), userID, limit, token)
	case "plan":
		page, err = s.svc.GetPlanLogs(r.Context(), userID, limit, token)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown log kind " + strconv.Quote(kind)})
		return
	}
	if err != nil {
		s.writeError(w, "get logs", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type validator interface {
	Validate() error
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func valid(w http.ResponseWriter, v validator) bool {
	if err := v.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func decodeValid[T validator](w http.ResponseWriter, r *http.Request, v *T) bool {
	return decodeJSON(w, r, v) && valid(w, *v)
}

// pathID fills an empty body id from the URL and rejects a mismatch.
func pathID(w http.ResponseWriter, r *http.Request, id *string) bool {
	want := chi.URLParam(r, "id")
	if *id == "" {
		*id = want
	}
	if *id != want {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body id does not match path"})
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrBadCursor),
		errors.Is(err, apperrors.ErrUnknownMessage):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNoUser):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrWorkoutActive),
		errors.Is(err, apperrors.ErrNoActiveWorkout):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(op+" failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
