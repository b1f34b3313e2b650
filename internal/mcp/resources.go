package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/gymtrack/internal/apperrors"
	"github.com/meltforce/gymtrack/internal/models"
)

const recentWindow = 14 * 24 * time.Hour

func (h *handlers) recentHistory(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	if uid == "" {
		return nil, apperrors.ErrNoUser
	}

	cutoff := time.Now().Add(-recentWindow)
	recent := []models.HistoryItem{}
	for _, item := range h.history.LoadHistory(ctx, uid) {
		if item.Date.Before(cutoff) {
			break
		}
		recent = append(recent, item)
	}

	return jsonContents(req.Params.URI, recent)
}

func (h *handlers) trackingState(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(req.Params.URI, h.snapshot())
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
