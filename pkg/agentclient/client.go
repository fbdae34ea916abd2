// Package agentclient talks to the remote agent HTTP API: the streaming
// chat endpoint, the tool-call endpoint, the tool catalogue and the health
// check. It performs no retries.
package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/workcharge/charge/pkg/logger"
	"github.com/workcharge/charge/pkg/utils"
)

const (
	streamPath = "/stream"
	chatPath   = "/agent/chat"
	toolsPath  = "/tools"
	healthPath = "/health"

	// errorBodyLimit caps how much of a failed response is kept.
	errorBodyLimit = 4 * 1024

	// jsonBodyLimit caps decoded JSON responses.
	jsonBodyLimit = 10 * 1024 * 1024
)

// Client is safe for concurrent use.
type Client struct {
	baseURL    atomic.Pointer[string]
	httpClient *http.Client
	timeout    *time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the *http.Client requests go through. It is never
// modified; a timeout from WithTimeout is applied to a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the overall request timeout, body reads included.
// Zero means no timeout. It wins over the timeout of a client given to
// WithHTTPClient, whatever the option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = &d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New returns a client for the API rooted at baseURL, which includes the
// API prefix (e.g. http://localhost:5000/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		logger:     logger.Nop(),
	}
	c.SetBaseURL(baseURL)

	for _, opt := range opts {
		opt(c)
	}

	if c.timeout != nil {
		hc := *c.httpClient
		hc.Timeout = *c.timeout
		c.httpClient = &hc
	}

	return c
}

func (c *Client) BaseURL() string {
	return *c.baseURL.Load()
}

// SetBaseURL points later requests at a new API root.
func (c *Client) SetBaseURL(u string) {
	u = strings.TrimSuffix(strings.TrimSpace(u), "/")
	c.baseURL.Store(&u)
}

func (c *Client) endpoint(path string) string {
	return c.BaseURL() + path
}

// Post sends payload as JSON to url. On success the caller owns the
// returned body. Network failures and non-2xx statuses return a
// *TransportError.
func (c *Client) Post(ctx context.Context, url string, payload any) (*Response, error) {
	return c.post(ctx, url, payload, "application/json")
}

// Stream opens the agent's event stream for one user message.
func (c *Client) Stream(ctx context.Context, sessionID, message string) (*Response, error) {
	return c.post(ctx, c.endpoint(streamPath), NewQueryRequest(sessionID, message), "text/event-stream")
}

func (c *Client) post(ctx context.Context, url string, payload any, accept string) (*Response, error) {
	resp, err := c.send(ctx, http.MethodPost, url, payload, accept)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(http.MethodPost, url, resp)
	}

	return &Response{Status: resp.StatusCode, Body: resp.Body}, nil
}

// Chat calls POST <base>/agent/chat. A reply with status "failed" returns
// the decoded response together with an *APIError, whatever the HTTP
// status.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	url := c.endpoint(chatPath)

	resp, err := c.send(ctx, http.MethodPost, url, req, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, jsonBodyLimit))
	if err != nil {
		return nil, &TransportError{Method: http.MethodPost, URL: url, Status: resp.StatusCode, Err: err}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299

	cr := &ChatResponse{}
	if err := json.Unmarshal(body, cr); err != nil {
		if !ok {
			return nil, &TransportError{Method: http.MethodPost, URL: url, Status: resp.StatusCode, Body: snippet(body)}
		}
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}

	if cr.Status == StatusFailed {
		toolName := cr.ToolName
		if toolName == "" {
			toolName = req.ToolName
		}
		return cr, &APIError{ToolName: toolName, Code: cr.ErrorCode, Message: cr.ErrorMessage}
	}

	if !ok {
		return nil, &TransportError{Method: http.MethodPost, URL: url, Status: resp.StatusCode, Body: snippet(body)}
	}

	return cr, nil
}

// Tools lists the tools the agent exposes.
func (c *Client) Tools(ctx context.Context) (*ToolsResponse, error) {
	out := &ToolsResponse{}
	if err := c.getJSON(ctx, c.endpoint(toolsPath), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health queries the agent's health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	out := &HealthResponse{}
	if err := c.getJSON(ctx, c.endpoint(healthPath), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.send(ctx, http.MethodGet, url, nil, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(http.MethodGet, url, resp)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, jsonBodyLimit)).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", url, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, url string, payload any, accept string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", utils.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if accept == "text/event-stream" {
		req.Header.Set("Cache-Control", "no-cache")
	}

	c.logger.Debug("agent request", "method", method, "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}

	c.logger.Debug("agent response", "method", method, "url", url, "status", resp.StatusCode)

	return resp, nil
}

// statusError drains and closes resp.
func statusError(method, url string, resp *http.Response) *TransportError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return &TransportError{Method: method, URL: url, Status: resp.StatusCode, Body: snippet(body)}
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > errorBodyLimit {
		s = s[:errorBodyLimit]
	}
	return s
}
