package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/araddon/dateparse"

	"github.com/meetfold/meetfold/internal/calendar"
	"github.com/meetfold/meetfold/internal/logging"
	"github.com/meetfold/meetfold/internal/openai"
)

// ToolNameCreateEvent is the single capability declared to the assistant.
const ToolNameCreateEvent = "create_google_calendar_event"

// Fixed tool outputs. The run loop must always receive some textual
// output per tool call, so failures are stringified here and never
// propagated.
const (
	unknownFunctionResult = "Unknown function called"
)

// createEventParameters is the JSON schema for the create-event tool.
var createEventParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"summary": {
			"type": "string",
			"description": "Title of the event"
		},
		"start_time": {
			"type": "string",
			"format": "date-time",
			"description": "Start time in ISO 8601 format"
		},
		"end_time": {
			"type": "string",
			"format": "date-time",
			"description": "End time in ISO 8601 format"
		},
		"attendees": {
			"type": "array",
			"items": {
				"type": "string",
				"format": "email"
			},
			"description": "List of attendee email addresses"
		},
		"description": {
			"type": "string",
			"description": "Detailed description of the event"
		}
	},
	"required": ["summary", "start_time", "end_time"]
}`)

// CreateEventTool returns the function-tool declaration registered with
// the assistant persona.
func CreateEventTool() openai.Tool {
	return openai.Tool{
		Type: "function",
		Function: &openai.FunctionDefinition{
			Name:        ToolNameCreateEvent,
			Description: "Create a new Google Calendar event",
			Parameters:  createEventParameters,
		},
	}
}

// createEventArgs is the argument payload of a create-event tool call.
type createEventArgs struct {
	Summary     string   `json:"summary"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Attendees   []string `json:"attendees,omitempty"`
	Description string   `json:"description,omitempty"`
}

// ProcessFunctionCall executes one tool call and returns its textual
// output. Errors during parsing or event creation are converted into an
// error string; the run loop never sees a fault from here.
func (o *Orchestrator) ProcessFunctionCall(ctx context.Context, call openai.ToolCall) string {
	log := logging.WithTool(o.log, call.Function.Name)

	if call.Function.Name != ToolNameCreateEvent {
		log.Warn("unknown function requested")
		return unknownFunctionResult
	}

	summary, err := o.createEvent(ctx, call.Function.Arguments)
	if err != nil {
		log.Error("event creation failed", logging.Err(err))
		return fmt.Sprintf("Error creating event: %v", err)
	}

	log.Info("event created", "event_id", summary.ID, "attendees", len(summary.Attendees))
	return fmt.Sprintf("Event created: %s", summary.HTMLLink)
}

// createEvent parses the argument payload, normalizes both timestamps
// and invokes the calendar client.
func (o *Orchestrator) createEvent(ctx context.Context, arguments string) (*calendar.EventSummary, error) {
	var args createEventArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}

	start, err := normalizeTimestamp(args.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start_time %q: %w", args.StartTime, err)
	}
	end, err := normalizeTimestamp(args.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid end_time %q: %w", args.EndTime, err)
	}

	return o.events.CreateEvent(ctx, calendar.EventInput{
		Summary:     args.Summary,
		Description: args.Description,
		Start:       start,
		End:         end,
		Attendees:   args.Attendees,
	})
}

// normalizeTimestamp runs a permissive parse over an assistant-supplied
// timestamp string. The result round-trips through RFC 3339 to the same
// instant.
func normalizeTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
