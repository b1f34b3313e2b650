package workoutdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/gymtrack/internal/apperrors"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/payload"
)

// HTTPClient implements Service by calling the GymTrack REST API.
// Used by the stdio MCP binary and any client that keeps drafts locally
// while the data lives on a remote server.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies Service.
var _ Service = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type idResponse struct {
	MovementID string `json:"movementId,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
	PlanID     string `json:"planId,omitempty"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("httpclient: marshal %s: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("httpclient: %s: %w", path, apperrors.ErrNotFound)
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("httpclient: %s: %w: %s", path, apperrors.ErrValidation, respBody)
	default:
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, respBody)
	}
}

func (c *HTTPClient) writeID(ctx context.Context, method, path string, body any) (idResponse, error) {
	data, err := c.do(ctx, method, path, nil, body)
	if err != nil {
		return idResponse{}, err
	}
	var resp idResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return idResponse{}, fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return resp, nil
}

func (c *HTTPClient) CreateMovement(ctx context.Context, p payload.MovementPayload) (string, error) {
	resp, err := c.writeID(ctx, http.MethodPost, "/api/v1/movements", p)
	return resp.MovementID, err
}

func (c *HTTPClient) UpdateMovement(ctx context.Context, p payload.MovementPayload) (string, error) {
	resp, err := c.writeID(ctx, http.MethodPut, "/api/v1/movements/"+url.PathEscape(p.MovementID), p)
	return resp.MovementID, err
}

func (c *HTTPClient) GetMovement(ctx context.Context, userID, movementID string) (*models.MovementDraft, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/movements/"+url.PathEscape(movementID), userParams(userID), nil)
	if err != nil {
		return nil, err
	}
	var m models.MovementDraft
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("httpclient: decode movement: %w", err)
	}
	return &m, nil
}

func (c *HTTPClient) CreateSession(ctx context.Context, p payload.SessionPayload) (string, error) {
	resp, err := c.writeID(ctx, http.MethodPost, "/api/v1/sessions", p)
	return resp.SessionID, err
}

func (c *HTTPClient) UpdateSession(ctx context.Context, p payload.SessionPayload) (string, error) {
	resp, err := c.writeID(ctx, http.MethodPut, "/api/v1/sessions/"+url.PathEscape(p.SessionID), p)
	return resp.SessionID, err
}

func (c *HTTPClient) GetSession(ctx context.Context, userID, sessionID string) (*models.SessionDraft, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+url.PathEscape(sessionID), userParams(userID), nil)
	if err != nil {
		return nil, err
	}
	var s models.SessionDraft
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("httpclient: decode session: %w", err)
	}
	return &s, nil
}

func (c *HTTPClient) CreatePlan(ctx context.Context, p payload.PlanPayload) (string, error) {
	resp, err := c.writeID(ctx, http.MethodPost, "/api/v1/plans", p)
	return resp.PlanID, err
}

func (c *HTTPClient) UpdatePlan(ctx context.Context, p payload.PlanPayload) (string, error) {
	resp, err := c.writeID(ctx, http.MethodPut, "/api/v1/plans/"+url.PathEscape(p.PlanID), p)
	return resp.PlanID, err
}

func (c *HTTPClient) SaveSessionLog(ctx context.Context, p payload.SessionLogPayload) error {
	_, err := c.do(ctx, http.MethodPost, "/api/v1/session-logs", nil, p)
	return err
}

func (c *HTTPClient) SavePlanLog(ctx context.Context, p payload.PlanLogPayload) error {
	_, err := c.do(ctx, http.MethodPost, "/api/v1/plan-logs", nil, p)
	return err
}

func (c *HTTPClient) GetSessionLogs(ctx context.Context, userID string, limit int, nextToken string) (*models.LogPage[models.SessionLog], error) {
	return getPage[models.SessionLog](ctx, c, "session", userID, limit, nextToken)
}

func (c *HTTPClient) GetMovementLogs(ctx context.Context, userID string, limit int, nextToken string) (*models.LogPage[models.MovementLog], error) {
	return getPage[models.MovementLog](ctx, c, "movement", userID, limit, nextToken)
}

func (c *HTTPClient) GetPlanLogs(ctx context.Context, userID string, limit int, nextToken string) (*models.LogPage[models.PlanLog], error) {
	return getPage[models.PlanLog](ctx, c, "plan", userID, limit, nextToken)
}

func (c *HTTPClient) GetTrainingSummary(ctx context.Context, userID string, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error) {
	params := userParams(userID)
	params.Set("start", start.Format(time.RFC3339))
	params.Set("end", end.Format(time.RFC3339))
	params.Set("bucket", bucket)

	body, err := c.do(ctx, http.MethodGet, "/api/v1/training-summary", params, nil)
	if err != nil {
		return nil, err
	}

	var periods []models.TrainingSummaryPeriod
	if err := json.Unmarshal(body, &periods); err != nil {
		return nil, fmt.Errorf("httpclient: decode training summary: %w", err)
	}
	return periods, nil
}

func getPage[T any](ctx context.Context, c *HTTPClient, kind, userID string, limit int, nextToken string) (*models.LogPage[T], error) {
	params := userParams(userID)
	params.Set("limit", strconv.Itoa(limit))
	if nextToken != "" {
		params.Set("nextToken", nextToken)
	}

	body, err := c.do(ctx, http.MethodGet, "/api/v1/logs/"+kind, params, nil)
	if err != nil {
		return nil, err
	}

	var page models.LogPage[T]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("httpclient: decode %s logs: %w", kind, err)
	}
	return &page, nil
}

func userParams(userID string) url.Values {
	v := url.Values{}
	v.Set("userId", userID)
	return v
}
