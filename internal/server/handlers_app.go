package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/gymtrack/internal/history"
	"github.com/meltforce/gymtrack/internal/models"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	typ, err := history.ParseTypeFilter(r.URL.Query().Get("type"))
	if err != nil {
		s.writeError(w, "history", err)
		return
	}
	date, err := history.ParseDateFilter(r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, "history", err)
		return
	}

	items := s.history.LoadHistory(r.Context(), userIDFromContext(r))
	items = history.Filter(items, typ, date, time.Now())
	if items == nil {
		items = []models.HistoryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSaveMovementDraft(w http.ResponseWriter, r *http.Request) {
	var draft models.MovementDraft
	if !decodeJSON(w, r, &draft) {
		return
	}
	if err := s.editor.SaveMovement(r.Context(), userIDFromContext(r), &draft); err != nil {
		s.writeError(w, "save movement", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleLoadMovementDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := s.editor.LoadMovement(r.Context(), userIDFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "load movement", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleSaveSessionDraft(w http.ResponseWriter, r *http.Request) {
	var draft models.SessionDraft
	if !decodeJSON(w, r, &draft) {
		return
	}
	if err := s.editor.SaveSession(r.Context(), userIDFromContext(r), &draft); err != nil {
		s.writeError(w, "save session", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleLoadSessionDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := s.editor.LoadSession(r.Context(), userIDFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "load session", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleSavePlanDraft(w http.ResponseWriter, r *http.Request) {
	var draft models.PlanDraft
	if !decodeJSON(w, r, &draft) {
		return
	}
	if err := s.editor.SavePlan(r.Context(), userIDFromContext(r), &draft); err != nil {
		s.writeError(w, "save plan", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// handleMySummary is the caller-scoped view of handleTrainingSummary.
func (s *Server) handleMySummary(w http.ResponseWriter, r *http.Request) {
	s.writeSummary(w, r, userIDFromContext(r))
}

func (s *Server) handleTrainingSummary(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userId parameter required"})
		return
	}
	s.writeSummary(w, r, userID)
}

func (s *Server) writeSummary(w http.ResponseWriter, r *http.Request, userID string) {
	start, end, err := parseTimeRange(r, 180)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	bucket := r.URL.Query().Get("bucket")
	switch bucket {
	case "":
		bucket = models.BucketMonth
	case models.BucketWeek, models.BucketMonth:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bucket must be '1 week' or '1 month'"})
		return
	}

	periods, err := s.svc.GetTrainingSummary(r.Context(), userID, start, end, bucket)
	if err != nil {
		s.writeError(w, "training summary", err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

// parseTimeRange reads RFC3339 start/end query params. end defaults to now
// and start to defaultDays before end.
func parseTimeRange(r *http.Request, defaultDays int) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	end = time.Now()
	if endStr != "" {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
		}
	}
	start = end.AddDate(0, 0, -defaultDays)
	if startStr != "" {
		start, err = time.Parse(time.RFC3339, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
		}
	}
	return start, end, nil
}
