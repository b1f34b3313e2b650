package mcp

import (
	"github.com/meltforce/gymtrack/internal/storage"
	"github.com/meltforce/gymtrack/internal/tracking"
	"github.com/meltforce/gymtrack/internal/workoutdata"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and *workoutdata.HTTPClient (remote via REST API) satisfy this interface.
type DataSource = workoutdata.Service

// Compile-time checks: both backends satisfy DataSource.
var (
	_ DataSource = (*storage.DB)(nil)
	_ DataSource = (*workoutdata.HTTPClient)(nil)
)

// Tracker exposes the live workout. Only the server process has one; the
// stdio binary passes nil and the tracking tool is not registered.
type Tracker interface {
	Snapshot() tracking.Snapshot
}

var _ Tracker = (*tracking.Engine)(nil)
