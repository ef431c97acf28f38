// Package assistant bridges free-text scheduling requests to the
// calendar client through the OpenAI Assistants run protocol.
//
// The Orchestrator registers one persona with a single function tool,
// owns one long-lived conversation thread, and drives each run through
// its status state machine: it polls until the run needs tool output,
// answers every pending tool call exactly once, and returns the
// assistant's final reply when the run completes. Tool failures are
// stringified into the tool output so the run loop never crashes.
package assistant
