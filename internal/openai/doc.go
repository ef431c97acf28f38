// Package openai is a minimal HTTP client for the OpenAI Assistants API.
//
// It covers exactly the protocol surface the run loop needs: assistant
// and thread creation, message CRUD, run creation and status retrieval,
// and tool-output submission. Provider objects are modeled as plain data
// records so the orchestrator can be driven against a fake implementing
// the ThreadRunner interface.
package openai
