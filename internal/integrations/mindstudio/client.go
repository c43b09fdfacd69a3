// Package mindstudio calls hosted AI workflows through the MindStudio apps
// run API.
package mindstudio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://v1.mindstudio-api.com"

type runRequest struct {
	AppID     string            `json:"appId"`
	Variables map[string]string `json:"variables"`
	Workflow  string            `json:"workflow,omitempty"`
}

type runResponse struct {
	Success     bool            `json:"success"`
	ThreadID    string          `json:"threadId"`
	Result      json.RawMessage `json:"result"`
	BillingCost json.RawMessage `json:"billingCost"`
	Error       json.RawMessage `json:"error"`
}

// SecretSource yields the API key.
type SecretSource interface {
	Value(ctx context.Context) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("mindstudio: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// RunError is returned when the API answers 2xx but reports the run as failed.
type RunError struct {
	Detail string
}

func (e *RunError) Error() string {
	return "mindstudio: run failed: " + e.Detail
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     SecretSource
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(apiKey SecretSource, opts ...Option) (*Client, error) {
	if apiKey == nil {
		return nil, errors.New("mindstudio: api key source must not be nil")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RunInput names the app to run and its launch variables.
type RunInput struct {
	AppID     string
	Workflow  string
	Variables map[string]string
}

type RunOutput struct {
	ThreadID    string
	Result      json.RawMessage
	BillingCost json.RawMessage
}

func runURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return base + "/developer/v2/apps/run"
}

// Run executes an app synchronously and returns its output object.
func (c *Client) Run(ctx context.Context, in RunInput) (RunOutput, error) {
	if strings.TrimSpace(in.AppID) == "" {
		return RunOutput{}, errors.New("mindstudio: app id must not be empty")
	}
	apiKey, err := c.apiKey.Value(ctx)
	if err != nil {
		return RunOutput{}, fmt.Errorf("mindstudio: resolve api key: %w", err)
	}
	vars := in.Variables
	if vars == nil {
		vars = map[string]string{}
	}
	body, err := json.Marshal(runRequest{AppID: in.AppID, Variables: vars, Workflow: in.Workflow})
	if err != nil {
		return RunOutput{}, fmt.Errorf("mindstudio: marshal request: %w", err)
	}

	url := runURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return RunOutput{}, fmt.Errorf("mindstudio: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return RunOutput{}, fmt.Errorf("mindstudio: request failed: %w", err)
	}

	var payload runResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return RunOutput{}, fmt.Errorf("mindstudio: decode response: %w", err)
	}
	if !payload.Success {
		return RunOutput{}, &RunError{Detail: errorDetail(payload.Error)}
	}
	return RunOutput{
		ThreadID:    payload.ThreadID,
		Result:      unwrapResult(payload.Result),
		BillingCost: payload.BillingCost,
	}, nil
}

// unwrapResult returns the result object. Apps that emit their output as a
// JSON-encoded string are decoded one level.
func unwrapResult(raw json.RawMessage) json.RawMessage {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return raw
	}
	inner := json.RawMessage(strings.TrimSpace(s))
	if json.Valid(inner) {
		return inner
	}
	return raw
}

func errorDetail(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "unknown error"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(raw)
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{StatusCode: res.StatusCode, URL: url, Body: string(buf)}
	}
	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
