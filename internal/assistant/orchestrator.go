package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/meetfold/meetfold/internal/calendar"
	"github.com/meetfold/meetfold/internal/instrumentation"
	"github.com/meetfold/meetfold/internal/logging"
	"github.com/meetfold/meetfold/internal/openai"
)

// RunFailedMessage is returned when a run ends in failed, cancelled or
// expired state. No partial result is recovered.
const RunFailedMessage = "Run failed"

// statusTimeout is the run status recorded when the local RunTimeout
// deadline expires before the provider reports a terminal state. It is
// distinct from the provider's expired status.
const statusTimeout = "timeout"

// Defaults for the persona registered at startup.
const (
	DefaultName         = "Calendar Assistant"
	DefaultInstructions = "You are a calendar scheduling assistant. Use the provided functions to schedule meetings."
)

// Provider is the assistant API surface the orchestrator drives.
type Provider interface {
	openai.ThreadRunner

	CreateAssistant(ctx context.Context, name, instructions, model string, tools []openai.Tool) (*openai.Assistant, error)
	CreateThread(ctx context.Context) (*openai.Thread, error)
}

// EventCreator is the single calendar capability the orchestrator
// dispatches into.
type EventCreator interface {
	CreateEvent(ctx context.Context, input calendar.EventInput) (*calendar.EventSummary, error)
}

// Config holds the orchestrator settings.
type Config struct {
	// Name and Instructions define the assistant persona.
	Name         string
	Instructions string

	// Model is the assistant model identifier.
	Model string

	// PollInterval is the delay between run status polls.
	PollInterval time.Duration

	// RunTimeout bounds one run end to end.
	RunTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Instructions == "" {
		c.Instructions = DefaultInstructions
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = 2 * time.Minute
	}
}

// Orchestrator bridges free-text user requests to the calendar-creation
// capability and manages the assistant run protocol. It owns one
// long-lived conversation thread, reused across queries.
type Orchestrator struct {
	cfg      Config
	provider Provider
	events   EventCreator

	assistantID string
	threadID    string

	log     *slog.Logger
	metrics *instrumentation.Metrics
}

// New registers the assistant persona with its single tool, opens the
// conversation thread and returns the ready orchestrator.
func New(ctx context.Context, cfg Config, provider Provider, events EventCreator, log *slog.Logger) (*Orchestrator, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	if events == nil {
		return nil, fmt.Errorf("event creator cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	cfg.applyDefaults()

	asst, err := provider.CreateAssistant(ctx, cfg.Name, cfg.Instructions, cfg.Model,
		[]openai.Tool{CreateEventTool()})
	if err != nil {
		return nil, fmt.Errorf("failed to register assistant: %w", err)
	}

	thread, err := provider.CreateThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	log.Info("assistant initialized",
		"assistant_id", asst.ID,
		slog.String(logging.KeyThreadID, thread.ID),
		"model", cfg.Model)

	return &Orchestrator{
		cfg:         cfg,
		provider:    provider,
		events:      events,
		assistantID: asst.ID,
		threadID:    thread.ID,
		log:         log,
	}, nil
}

// SetMetrics attaches a metrics recorder. A nil recorder disables
// metric recording.
func (o *Orchestrator) SetMetrics(m *instrumentation.Metrics) {
	o.metrics = m
}

// ThreadID returns the identifier of the active conversation thread.
func (o *Orchestrator) ThreadID() string {
	return o.threadID
}

// ResetThread replaces the conversation thread with a fresh one,
// dropping all prior context. The next run starts from a clean history.
func (o *Orchestrator) ResetThread(ctx context.Context) error {
	thread, err := o.provider.CreateThread(ctx)
	if err != nil {
		return fmt.Errorf("failed to create thread: %w", err)
	}
	o.threadID = thread.ID
	o.log.Info("thread reset", slog.String(logging.KeyThreadID, thread.ID))
	return nil
}

// Run posts userInput on the thread, drives the run to a terminal
// state and returns the assistant's reply.
//
// State machine: queued/in_progress -> requires_action <-> (tool
// submission) -> queued/in_progress -> completed | failed | cancelled |
// expired. Only completed yields a usable reply; the other terminal
// states return RunFailedMessage without reading the message list.
// Exactly one run is active on the thread at a time; Run is synchronous
// and must not be called concurrently.
func (o *Orchestrator) Run(ctx context.Context, userInput string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.RunTimeout)
	defer cancel()

	ctx, span := instrumentation.StartRunSpan(ctx, o.threadID)
	defer span.End()

	started := time.Now()

	if _, err := o.provider.CreateMessage(ctx, o.threadID, openai.RoleUser, userInput); err != nil {
		instrumentation.SetSpanError(span, err)
		return "", fmt.Errorf("failed to post user message: %w", err)
	}

	run, err := o.provider.CreateRun(ctx, o.threadID, o.assistantID)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	span.SetAttributes(attribute.String(instrumentation.SpanAttrRunID, run.ID))

	log := logging.WithRun(o.log, o.threadID, run.ID)
	log.Debug("run started")

	for {
		switch run.Status {
		case openai.RunStatusCompleted:
			o.recordRun(ctx, string(run.Status), started)
			instrumentation.SetSpanSuccess(span)
			span.SetAttributes(attribute.String(instrumentation.SpanAttrRunStatus, string(run.Status)))
			log.Debug("run completed", slog.Duration(logging.KeyDuration, time.Since(started)))
			return o.latestReply(ctx)

		case openai.RunStatusRequiresAction:
			run, err = o.answerToolCalls(ctx, run)
			if err != nil {
				o.recordRun(ctx, string(openai.RunStatusFailed), started)
				instrumentation.SetSpanError(span, err)
				return "", err
			}

		case openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired:
			o.recordRun(ctx, string(run.Status), started)
			span.SetAttributes(attribute.String(instrumentation.SpanAttrRunStatus, string(run.Status)))
			if run.LastError != nil {
				log.Error("run ended in terminal failure",
					logging.Status(string(run.Status)), "code", run.LastError.Code,
					logging.Err(fmt.Errorf("%s", run.LastError.Message)))
			} else {
				log.Error("run ended in terminal failure", logging.Status(string(run.Status)))
			}
			return RunFailedMessage, nil

		default: // queued, in_progress
			select {
			case <-ctx.Done():
				o.recordRun(ctx, statusTimeout, started)
				instrumentation.SetSpanError(span, ctx.Err())
				return "", fmt.Errorf("run %s did not finish: %w", run.ID, ctx.Err())
			case <-time.After(o.cfg.PollInterval):
			}

			run, err = o.provider.GetRun(ctx, o.threadID, run.ID)
			if err != nil {
				return "", fmt.Errorf("failed to poll run: %w", err)
			}
			if o.metrics != nil {
				o.metrics.RecordRunPoll(ctx)
			}
		}
	}
}

// answerToolCalls computes the output for every pending tool call and
// submits the whole batch. Each call is answered exactly once.
func (o *Orchestrator) answerToolCalls(ctx context.Context, run *openai.Run) (*openai.Run, error) {
	calls := run.PendingToolCalls()

	outputs := make([]openai.ToolOutput, 0, len(calls))
	for _, call := range calls {
		started := time.Now()
		callCtx, span := instrumentation.StartToolSpan(ctx, call.Function.Name)
		output := o.ProcessFunctionCall(callCtx, call)
		span.End()
		if o.metrics != nil {
			o.metrics.RecordToolDispatch(ctx, call.Function.Name, time.Since(started))
		}
		outputs = append(outputs, openai.ToolOutput{
			ToolCallID: call.ID,
			Output:     output,
		})
	}

	next, err := o.provider.SubmitToolOutputs(ctx, o.threadID, run.ID, outputs)
	if err != nil {
		return nil, fmt.Errorf("failed to submit tool outputs: %w", err)
	}
	return next, nil
}

// latestReply reads the thread and returns the newest message text.
func (o *Orchestrator) latestReply(ctx context.Context) (string, error) {
	msgs, err := o.provider.ListMessages(ctx, o.threadID, 1)
	if err != nil {
		return "", fmt.Errorf("failed to read thread messages: %w", err)
	}
	if len(msgs) == 0 {
		return "", fmt.Errorf("thread %s has no messages after completed run", o.threadID)
	}
	return msgs[0].Text(), nil
}

func (o *Orchestrator) recordRun(ctx context.Context, status string, started time.Time) {
	if o.metrics != nil {
		o.metrics.RecordRun(ctx, status, time.Since(started))
	}
}
