package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetfold/meetfold/internal/openai"
)

func toolCall(name, arguments string) openai.ToolCall {
	return openai.ToolCall{
		ID:   "call_1",
		Type: "function",
		Function: openai.FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}
}

func TestProcessFunctionCallUnknownFunction(t *testing.T) {
	provider := &fakeProvider{}
	cal := &fakeCalendar{}
	o := newOrchestrator(t, provider, cal)

	out := o.ProcessFunctionCall(t.Context(), toolCall("send_email", `{}`))
	assert.Equal(t, "Unknown function called", out)
	assert.Empty(t, cal.inputs)
}

func TestProcessFunctionCallMalformedArguments(t *testing.T) {
	cal := &fakeCalendar{}
	o := newOrchestrator(t, &fakeProvider{}, cal)

	tests := []struct {
		name string
		args string
	}{
		{"not json", `{{{`},
		{"empty timestamps", `{"summary": "x", "start_time": "", "end_time": ""}`},
		{"garbage timestamp", `{"summary": "x", "start_time": "banana", "end_time": "2026-09-07T15:00:00Z"}`},
		{"garbage end", `{"summary": "x", "start_time": "2026-09-07T14:00:00Z", "end_time": "not a time"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := o.ProcessFunctionCall(t.Context(), toolCall(ToolNameCreateEvent, tc.args))
			assert.Contains(t, out, "Error creating event:")
		})
	}
	assert.Empty(t, cal.inputs)
}

func TestProcessFunctionCallCreatesEvent(t *testing.T) {
	cal := &fakeCalendar{}
	o := newOrchestrator(t, &fakeProvider{}, cal)

	args := `{
		"summary": "Design review",
		"description": "Q3 roadmap",
		"start_time": "2026-09-07T14:00:00Z",
		"end_time": "2026-09-07T15:00:00Z",
		"attendees": ["alice@example.com"]
	}`
	out := o.ProcessFunctionCall(t.Context(), toolCall(ToolNameCreateEvent, args))
	assert.Contains(t, out, "Event created:")
	assert.Contains(t, out, "https://calendar.google.com/")

	require.Len(t, cal.inputs, 1)
	input := cal.inputs[0]
	assert.Equal(t, "Design review", input.Summary)
	assert.Equal(t, "Q3 roadmap", input.Description)
	assert.Equal(t, []string{"alice@example.com"}, input.Attendees)
	assert.True(t, input.Start.Equal(time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)))
	assert.True(t, input.End.Equal(time.Date(2026, 9, 7, 15, 0, 0, 0, time.UTC)))
}

func TestProcessFunctionCallCalendarError(t *testing.T) {
	cal := &fakeCalendar{err: assert.AnError}
	o := newOrchestrator(t, &fakeProvider{}, cal)

	args := `{"summary": "x", "start_time": "2026-09-07T14:00:00Z", "end_time": "2026-09-07T15:00:00Z"}`
	out := o.ProcessFunctionCall(t.Context(), toolCall(ToolNameCreateEvent, args))
	assert.Contains(t, out, "Error creating event:")
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339", "2026-09-07T14:00:00Z", time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)},
		{"space separated", "2026-09-07 14:00:00", time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)},
		{"us style", "09/07/2026 2:00 PM", time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizeTimestamp(tc.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "got %s", got)
		})
	}
}

func TestNormalizeTimestampRoundTrip(t *testing.T) {
	first, err := normalizeTimestamp("2026-09-07T14:00:00Z")
	require.NoError(t, err)

	second, err := normalizeTimestamp(first.Format(time.RFC3339))
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestNormalizeTimestampRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "soonish", "32/13/2026"} {
		_, err := normalizeTimestamp(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestCreateEventToolDeclaration(t *testing.T) {
	tool := CreateEventTool()
	assert.Equal(t, "function", tool.Type)
	require.NotNil(t, tool.Function)
	assert.Equal(t, ToolNameCreateEvent, tool.Function.Name)
	assert.Contains(t, string(tool.Function.Parameters), `"start_time"`)
	assert.Contains(t, string(tool.Function.Parameters), `"required"`)
}
