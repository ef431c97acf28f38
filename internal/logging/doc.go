// Package logging provides structured logging helpers built on log/slog.
//
// It defines the canonical attribute keys used across the codebase
// (operation, tool, run_id, thread_id, status, error) together with small
// helper constructors so call sites stay consistent, plus a minimal Logger
// interface for components that should not depend on slog directly.
package logging
