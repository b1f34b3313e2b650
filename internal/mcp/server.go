package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/gymtrack/internal/history"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user login injected by the transport layer,
// or "" when the caller is anonymous.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// WithUserID returns a context with the given user login.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
// tracker may be nil.
func New(ds DataSource, tracker Tracker, pageSize int, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("GymTrack", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("GymTrack workout server. Query workout history, session logs, saved sessions and movements, and the live workout. All data is scoped to the authenticated user."),
	)

	h := &handlers{
		ds:      ds,
		tracker: tracker,
		history: history.NewAggregator(ds, pageSize, log),
		log:     log,
	}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetWorkoutHistory, Handler: h.getWorkoutHistory},
		server.ServerTool{Tool: toolGetSessionLogs, Handler: h.getSessionLogs},
		server.ServerTool{Tool: toolGetTrainingSummary, Handler: h.getTrainingSummary},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolGetMovement, Handler: h.getMovement},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentHistory, Handler: h.recentHistory},
	)

	if tracker != nil {
		s.AddTools(server.ServerTool{Tool: toolGetTrackingState, Handler: h.getTrackingState})
		s.AddResources(server.ServerResource{Resource: resTrackingState, Handler: h.trackingState})
	}

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds      DataSource
	tracker Tracker
	history *history.Aggregator
	log     *slog.Logger
}

// --- Resource definitions ---

var resRecentHistory = mcp.NewResource(
	"gymtrack://recent_history",
	"Recent History",
	mcp.WithResourceDescription("Session, movement and plan logs from the last 14 days, newest first"),
	mcp.WithMIMEType("application/json"),
)

var resTrackingState = mcp.NewResource(
	"gymtrack://tracking_state",
	"Tracking State",
	mcp.WithResourceDescription("The workout currently being tracked, with completed sets and running totals"),
	mcp.WithMIMEType("application/json"),
)
