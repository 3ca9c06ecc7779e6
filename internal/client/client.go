// Package client is the HTTP client for the simulator API.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/api/dto"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/pkg/utils"
)

const apiPrefix = "/api/v1/simulator"

// APIError is a non-2xx reply from the simulator API
type APIError struct {
	StatusCode int
	Title      string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (status %d)", e.Title, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Title, e.Message, e.StatusCode)
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Config configures the HTTP client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to a running simulator over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	// streamClient has no timeout; event streams stay open until cancelled
	streamClient *http.Client
	logger       *slog.Logger
}

// New creates a client for the API at cfg.BaseURL
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{},
		logger:       logger.With("component", "simulator_client"),
	}
}

// Health checks the server
func (c *Client) Health(ctx context.Context) (dto.StatusResponse, error) {
	var out dto.StatusResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// Send sends one message to the active queue
func (c *Client) Send(ctx context.Context, req dto.SendMessageRequest) (dto.SendMessageResponse, error) {
	var out dto.SendMessageResponse
	err := c.do(ctx, http.MethodPost, apiPrefix+"/messages", req, &out)
	return out, err
}

// Batch sends a batch; zero-valued fields take the server defaults
func (c *Client) Batch(ctx context.Context, req dto.BatchRequest) (dto.BatchResponse, error) {
	var out dto.BatchResponse
	err := c.do(ctx, http.MethodPost, apiPrefix+"/messages/batch", req, &out)
	return out, err
}

// Fail forces a failure of the oldest in-flight message
func (c *Client) Fail(ctx context.Context) (dto.FailureResponse, error) {
	var out dto.FailureResponse
	err := c.do(ctx, http.MethodPost, apiPrefix+"/failures", nil, &out)
	return out, err
}

// Tick fires the dispatcher once
func (c *Client) Tick(ctx context.Context) (dto.TickResponse, error) {
	var out dto.TickResponse
	err := c.do(ctx, http.MethodPost, apiPrefix+"/tick", nil, &out)
	return out, err
}

// Clear empties the active queue
func (c *Client) Clear(ctx context.Context) (dto.StatusResponse, error) {
	var out dto.StatusResponse
	err := c.do(ctx, http.MethodPost, apiPrefix+"/clear", nil, &out)
	return out, err
}

// Switch changes the active queue kind
func (c *Client) Switch(ctx context.Context, queueType string) (dto.SnapshotResponse, error) {
	var out dto.SnapshotResponse
	err := c.do(ctx, http.MethodPut, apiPrefix+"/queue", dto.SwitchQueueRequest{QueueType: queueType}, &out)
	return out, err
}

// Snapshot fetches the full simulator state
func (c *Client) Snapshot(ctx context.Context) (dto.SnapshotResponse, error) {
	var out dto.SnapshotResponse
	err := c.do(ctx, http.MethodGet, apiPrefix+"/snapshot", nil, &out)
	return out, err
}

// Stats fetches the counters of the active queue
func (c *Client) Stats(ctx context.Context) (dto.StatsResponse, error) {
	var out dto.StatsResponse
	err := c.do(ctx, http.MethodGet, apiPrefix+"/stats", nil, &out)
	return out, err
}

// Queues lists the queue descriptors
func (c *Client) Queues(ctx context.Context) (dto.QueueListResponse, error) {
	var out dto.QueueListResponse
	err := c.do(ctx, http.MethodGet, apiPrefix+"/queues", nil, &out)
	return out, err
}

// AuditQuery filters the audit listing; zero values are omitted
type AuditQuery struct {
	Outcome   string
	QueueType string
	EngineID  string
	Limit     int
	StartTime time.Time
	EndTime   time.Time
}

func (q AuditQuery) encode() string {
	v := url.Values{}
	if q.Outcome != "" {
		v.Set("outcome", q.Outcome)
	}
	if q.QueueType != "" {
		v.Set("queue_type", q.QueueType)
	}
	if q.EngineID != "" {
		v.Set("engine_id", q.EngineID)
	}
	if q.Limit > 0 {
		v.Set("limit", fmt.Sprint(q.Limit))
	}
	if !q.StartTime.IsZero() {
		v.Set("start_time", utils.FormatTimestamp(q.StartTime))
	}
	if !q.EndTime.IsZero() {
		v.Set("end_time", utils.FormatTimestamp(q.EndTime))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// Audit lists archived processed and dead-lettered messages
func (c *Client) Audit(ctx context.Context, q AuditQuery) (dto.AuditListResponse, error) {
	var out dto.AuditListResponse
	err := c.do(ctx, http.MethodGet, apiPrefix+"/audit"+q.encode(), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("Request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
	)
	return nil
}

func decodeAPIError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)

	var errResp dto.ErrorResponse
	if err := json.Unmarshal(bodyBytes, &errResp); err != nil || errResp.Error == "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Title:      http.StatusText(resp.StatusCode),
			Message:    strings.TrimSpace(string(bodyBytes)),
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Title:      errResp.Error,
		Message:    errResp.Message,
	}
}

// EventHandler receives each streamed frame; returning an error stops Watch
type EventHandler func(ev dto.EventResponse) error

// Watch follows the SSE event stream, reconnecting with backoff until ctx
// is cancelled or handler returns an error.
func (c *Client) Watch(ctx context.Context, handler EventHandler) error {
	retryDelay := 1 * time.Second
	maxRetryDelay := 30 * time.Second

	for {
		connected, err := c.streamOnce(ctx, handler)
		if ctx.Err() != nil {
			return nil
		}
		var hErr *handlerError
		if errors.As(err, &hErr) {
			return hErr.err
		}
		if connected {
			retryDelay = 1 * time.Second
		}

		c.logger.Warn("Event stream closed, reconnecting",
			"error", err,
			"retry_in", retryDelay,
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryDelay):
		}
		retryDelay = min(retryDelay*2, maxRetryDelay)
	}
}

type handlerError struct{ err error }

func (e *handlerError) Error() string { return e.err.Error() }

func (c *Client) streamOnce(ctx context.Context, handler EventHandler) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiPrefix+"/events", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create events request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to connect to event stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, decodeAPIError(resp)
	}

	c.logger.Info("Event stream connected", "base_url", c.baseURL)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var data []byte
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "data:"):
			data = []byte(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case line == "":
			// Blank line terminates a frame; keepalive comments carry no data.
			if len(data) == 0 {
				continue
			}
			var ev dto.EventResponse
			if err := json.Unmarshal(data, &ev); err != nil {
				c.logger.Error("Failed to decode event", "error", err)
			} else if err := handler(ev); err != nil {
				return true, &handlerError{err: err}
			}
			data = nil
		}
	}

	if err := scanner.Err(); err != nil {
		return true, fmt.Errorf("error reading event stream: %w", err)
	}
	return true, io.EOF
}
