package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/meetfold/meetfold/internal/instrumentation"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("sk-test", srv.URL, srv.Client(), nil)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("  ", "", nil, nil)
	require.Error(t, err)
}

func TestSanitizeBaseURL(t *testing.T) {
	assert.Equal(t, defaultBaseURL, sanitizeBaseURL(""))
	assert.Equal(t, defaultBaseURL, sanitizeBaseURL("   "))
	assert.Equal(t, "https://proxy.local/v1", sanitizeBaseURL("https://proxy.local/v1/"))
}

func TestCreateAssistant(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/assistants", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, betaHeader, r.Header.Get("OpenAI-Beta"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Calendar Assistant", body["name"])
		assert.Len(t, body["tools"], 1)

		json.NewEncoder(w).Encode(Assistant{ID: "asst_1", Name: "Calendar Assistant"})
	})

	tools := []Tool{{Type: "function", Function: &FunctionDefinition{Name: "create_google_calendar_event"}}}
	a, err := c.CreateAssistant(t.Context(), "Calendar Assistant", "instructions", "gpt-4-turbo", tools)
	require.NoError(t, err)
	assert.Equal(t, "asst_1", a.ID)
}

func TestCreateThreadAndMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/threads":
			json.NewEncoder(w).Encode(Thread{ID: "thread_1"})
		case "/threads/thread_1/messages":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, RoleUser, body["role"])
			json.NewEncoder(w).Encode(Message{ID: "msg_1", Role: RoleUser})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	thread, err := c.CreateThread(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "thread_1", thread.ID)

	msg, err := c.CreateMessage(t.Context(), thread.ID, RoleUser, "Schedule a meeting")
	require.NoError(t, err)
	assert.Equal(t, "msg_1", msg.ID)
}

func TestGetRunDecodesRequiredAction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/threads/thread_1/runs/run_1", r.URL.Path)
		w.Write([]byte(`{
			"id": "run_1",
			"thread_id": "thread_1",
			"status": "requires_action",
			"required_action": {
				"type": "submit_tool_outputs",
				"submit_tool_outputs": {
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "create_google_calendar_event", "arguments": "{}"}
					}]
				}
			}
		}`))
	})

	run, err := c.GetRun(t.Context(), "thread_1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, RunStatusRequiresAction, run.Status)

	calls := run.PendingToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "create_google_calendar_event", calls[0].Function.Name)
}

func TestSubmitToolOutputs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/threads/thread_1/runs/run_1/submit_tool_outputs", r.URL.Path)

		var body struct {
			ToolOutputs []ToolOutput `json:"tool_outputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.ToolOutputs, 1)
		assert.Equal(t, "call_1", body.ToolOutputs[0].ToolCallID)

		json.NewEncoder(w).Encode(Run{ID: "run_1", Status: RunStatusInProgress})
	})

	run, err := c.SubmitToolOutputs(t.Context(), "thread_1", "run_1",
		[]ToolOutput{{ToolCallID: "call_1", Output: "Event created: https://link"}})
	require.NoError(t, err)
	assert.Equal(t, RunStatusInProgress, run.Status)
}

func TestListMessages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/threads/thread_1/messages", r.URL.Path)
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"data": [{
			"id": "msg_2",
			"role": "assistant",
			"content": [{"type": "text", "text": {"value": "Done! https://link"}}]
		}]}`))
	})

	msgs, err := c.ListMessages(t.Context(), "thread_1", 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Done! https://link", msgs[0].Text())
}

func TestAPIErrorDecoding(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Invalid API key", "type": "invalid_request_error"}}`))
	})

	_, err := c.CreateThread(t.Context())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "Invalid API key")
}

func TestRunStatusTerminal(t *testing.T) {
	assert.True(t, RunStatusCompleted.Terminal())
	assert.True(t, RunStatusFailed.Terminal())
	assert.True(t, RunStatusCancelled.Terminal())
	assert.True(t, RunStatusExpired.Terminal())
	assert.False(t, RunStatusQueued.Terminal())
	assert.False(t, RunStatusInProgress.Terminal())
	assert.False(t, RunStatusRequiresAction.Terminal())
}

func TestMessageTextSkipsNonText(t *testing.T) {
	m := Message{Content: []MessageContent{
		{Type: "image_file"},
		{Type: "text", Text: &MessageText{Value: "hello"}},
	}}
	assert.Equal(t, "hello", m.Text())

	assert.Empty(t, Message{}.Text())
}

func TestMetricPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/threads", "/threads"},
		{"/assistants", "/assistants"},
		{"/threads/thread_123/messages", "/threads/:id/messages"},
		{"/threads/thread_123/messages?order=desc&limit=1", "/threads/:id/messages"},
		{"/threads/thread_123/runs", "/threads/:id/runs"},
		{"/threads/thread_123/runs/run_456", "/threads/:id/runs/:id"},
		{"/threads/thread_123/runs/run_456/submit_tool_outputs", "/threads/:id/runs/:id/submit_tool_outputs"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, metricPath(tt.path), "path %s", tt.path)
	}
}

func TestClientRecordsHTTPRequestMetrics(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Run{ID: "run_1", Status: RunStatusCompleted})
	})

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	metrics, err := instrumentation.NewMetrics(meter)
	require.NoError(t, err)
	c.SetMetrics(metrics)

	_, err = c.GetRun(t.Context(), "thread_123", "run_1")
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))

	var recorded bool
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "http_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				path, _ := dp.Attributes.Value(attribute.Key("path"))
				assert.Equal(t, "/threads/:id/runs/:id", path.AsString())
				recorded = true
			}
		}
	}
	assert.True(t, recorded, "expected an http_requests_total data point")
}
