package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/meetfold/meetfold/internal/instrumentation"
	"github.com/meetfold/meetfold/internal/logging"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultHTTPTimeout = 60 * time.Second

	// The Assistants thread/run surface is versioned behind a beta header.
	betaHeader = "assistants=v2"
)

// ThreadRunner is the protocol surface the orchestrator drives. The
// orchestrator depends on this interface so its run loop can be tested
// against a fake provider.
type ThreadRunner interface {
	CreateMessage(ctx context.Context, threadID, role, content string) (*Message, error)
	CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error)
	ListMessages(ctx context.Context, threadID string, limit int) ([]Message, error)
}

// Client is a minimal HTTP client for the OpenAI Assistants API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        logging.Logger
	metrics    *instrumentation.Metrics
}

var _ ThreadRunner = (*Client)(nil)

// NewClient builds a Client. An empty baseURL falls back to the public
// endpoint; a nil httpClient gets a default with sane timeouts.
func NewClient(apiKey, baseURL string, httpClient *http.Client, log logging.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if log == nil {
		log = logging.DefaultLogger()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    sanitizeBaseURL(baseURL),
		apiKey:     apiKey,
		log:        log,
	}, nil
}

// SetMetrics attaches a metrics recorder for API request counts and
// latencies. A nil recorder disables recording.
func (c *Client) SetMetrics(m *instrumentation.Metrics) {
	c.metrics = m
}

func sanitizeBaseURL(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		return defaultBaseURL
	}
	return trimmed
}

// CreateAssistant registers an assistant persona with its tools.
func (c *Client) CreateAssistant(ctx context.Context, name, instructions, model string, tools []Tool) (*Assistant, error) {
	body := map[string]any{
		"name":         name,
		"instructions": instructions,
		"model":        model,
		"tools":        tools,
	}
	var out Assistant
	if err := c.do(ctx, http.MethodPost, "/assistants", body, &out); err != nil {
		return nil, fmt.Errorf("failed to create assistant: %w", err)
	}
	return &out, nil
}

// CreateThread opens a new empty conversation thread.
func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var out Thread
	if err := c.do(ctx, http.MethodPost, "/threads", map[string]any{}, &out); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}
	return &out, nil
}

// CreateMessage appends a message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) (*Message, error) {
	body := map[string]any{
		"role":    role,
		"content": content,
	}
	var out Message
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", body, &out); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return &out, nil
}

// CreateRun starts a run of the assistant against the thread.
func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error) {
	body := map[string]any{
		"assistant_id": assistantID,
	}
	var out Run
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs", body, &out); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return &out, nil
}

// GetRun retrieves the current state of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var out Run
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &out, nil
}

// SubmitToolOutputs answers the pending tool calls of a run so the run
// can proceed.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	body := map[string]any{
		"tool_outputs": outputs,
	}
	path := "/threads/" + threadID + "/runs/" + runID + "/submit_tool_outputs"
	var out Run
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, fmt.Errorf("failed to submit tool outputs: %w", err)
	}
	return &out, nil
}

// ListMessages returns the newest messages of a thread, newest first.
func (c *Client) ListMessages(ctx context.Context, threadID string, limit int) ([]Message, error) {
	path := "/threads/" + threadID + "/messages?order=desc"
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Data []Message `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return out.Data, nil
}

// do issues one API request and decodes the response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", betaHeader)

	c.log.Debug("assistant api request", "method", method, "path", path)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordHTTPRequest(ctx, method, metricPath(path), resp.StatusCode, time.Since(started))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// metricPath collapses resource identifiers in an API path so the
// path metric label stays low-cardinality.
func metricPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i := 1; i < len(segments); i++ {
		switch segments[i-1] {
		case "threads", "runs", "assistants":
			if segments[i] != "" {
				segments[i] = ":id"
			}
		}
	}
	return strings.Join(segments, "/")
}

func parseAPIError(status int, body []byte) error {
	var wrapper struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error != nil {
		wrapper.Error.StatusCode = status
		return wrapper.Error
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}
