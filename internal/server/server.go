package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/gymtrack/internal/companion"
	"github.com/meltforce/gymtrack/internal/editor"
	"github.com/meltforce/gymtrack/internal/history"
	"github.com/meltforce/gymtrack/internal/tracking"
	"github.com/meltforce/gymtrack/internal/workoutdata"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc     workoutdata.Service
	engine  *tracking.Engine
	bridge  *companion.Bridge
	context companion.ContextStore
	history *history.Aggregator
	editor  *editor.Editor
	log     *slog.Logger
	apiKey  string
	devUser UserInfo
	whois   WhoIsClient
	router  chi.Router
}

// New creates a new Server with all routes configured. bridge may be nil when
// no companion is wired; companion routes then answer 503.
func New(svc workoutdata.Service, engine *tracking.Engine, bridge *companion.Bridge, hist *history.Aggregator, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		svc:     svc,
		engine:  engine,
		bridge:  bridge,
		history: hist,
		editor:  editor.New(svc, log),
		log:     log,
		apiKey:  apiKey,
		devUser: defaultDevUser,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Data service (API key required). Callers name the user explicitly.
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/movements", s.handleCreateMovement)
		r.Put("/api/v1/movements/{id}", s.handleUpdateMovement)
		r.Get("/api/v1/movements/{id}", s.handleGetMovement)
		r.Post("/api/v1/sessions", s.handleCreateSession)
		r.Put("/api/v1/sessions/{id}", s.handleUpdateSession)
		r.Get("/api/v1/sessions/{id}", s.handleGetSession)
		r.Post("/api/v1/plans", s.handleCreatePlan)
		r.Put("/api/v1/plans/{id}", s.handleUpdatePlan)
		r.Post("/api/v1/session-logs", s.handleSaveSessionLog)
		r.Post("/api/v1/plan-logs", s.handleSavePlanLog)
		r.Get("/api/v1/logs/{kind}", s.handleGetLogs)
		r.Get("/api/v1/training-summary", s.handleTrainingSummary)
	})

	// App endpoints act as the caller's identity.
	s.router.Group(func(r chi.Router) {
		r.Use(s.identity)
		r.Get("/api/v1/me", s.handleMe)

		r.Get("/api/v1/tracking", s.handleTrackingState)
		r.Post("/api/v1/tracking/start", s.handleTrackingStart)
		r.Post("/api/v1/tracking/pause", s.handleTrackingPause)
		r.Post("/api/v1/tracking/resume", s.handleTrackingResume)
		r.Post("/api/v1/tracking/stop", s.handleTrackingStop)
		r.Post("/api/v1/tracking/save", s.handleTrackingSave)
		r.Post("/api/v1/tracking/sets", s.handleTrackingSet)
		r.Post("/api/v1/tracking/current-movement", s.handleCurrentMovement)
		r.Post("/api/v1/tracking/sensors", s.handleSensors)

		r.Post("/api/v1/companion/messages", s.handleCompanionMessage)
		r.Get("/api/v1/companion/context", s.handleCompanionContext)

		r.Get("/api/v1/history", s.handleHistory)
		r.Get("/api/v1/history/summary", s.handleMySummary)

		r.Post("/api/v1/drafts/movements", s.handleSaveMovementDraft)
		r.Get("/api/v1/drafts/movements/{id}", s.handleLoadMovementDraft)
		r.Post("/api/v1/drafts/sessions", s.handleSaveSessionDraft)
		r.Get("/api/v1/drafts/sessions/{id}", s.handleLoadSessionDraft)
		r.Post("/api/v1/drafts/plans", s.handleSavePlanDraft)
	})
}

// SetTailscale switches identity resolution from the dev user to Tailscale WhoIs.
func (s *Server) SetTailscale(lc WhoIsClient) {
	s.whois = lc
}

// SetDevUser overrides the identity assumed when Tailscale is disabled.
func (s *Server) SetDevUser(login string) {
	if login != "" {
		s.devUser = UserInfo{Login: login, DisplayName: login}
	}
}

// SetContextStore exposes the companion context store for reads.
func (s *Server) SetContextStore(store companion.ContextStore) {
	s.context = store
}

// MountMCP serves an MCP handler at /mcp behind the identity middleware.
// The handler reads the caller with UserID.
func (s *Server) MountMCP(h http.Handler) {
	s.router.With(s.identity).Handle("/mcp", h)
}
