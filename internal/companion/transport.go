package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// LiveTransport is the low-latency channel to the companion.
type LiveTransport interface {
	Reachable() bool
	Send(ctx context.Context, msg Outbound) error
}

// HTTPTransport POSTs payloads to the companion's endpoint. A failed send
// marks the companion unreachable for a cooldown so later pushes go straight
// to the context store.
type HTTPTransport struct {
	url        string
	httpClient *http.Client
	cooldown   time.Duration
	now        func() time.Time

	mu        sync.Mutex
	downUntil time.Time
}

// NewHTTPTransport creates a transport for url. An empty url is never reachable.
func NewHTTPTransport(url string, timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPTransport{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		cooldown:   30 * time.Second,
		now:        time.Now,
	}
}

func (t *HTTPTransport) Reachable() bool {
	if t.url == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.now().Before(t.downUntil)
}

// Send POSTs msg as JSON. There is no retry.
func (t *HTTPTransport) Send(ctx context.Context, msg Outbound) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", msg.Kind(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.markDown()
		return fmt.Errorf("sending %s: %w", msg.Kind(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		t.markDown()
		return fmt.Errorf("companion rejected %s (status %d): %s", msg.Kind(), resp.StatusCode, body)
	}
	return nil
}

func (t *HTTPTransport) markDown() {
	t.mu.Lock()
	t.downUntil = t.now().Add(t.cooldown)
	t.mu.Unlock()
}
