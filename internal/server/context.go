package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/meetfold/meetfold/internal/calendar"
	"github.com/meetfold/meetfold/internal/config"
	"github.com/meetfold/meetfold/internal/google"
	"github.com/meetfold/meetfold/internal/instrumentation"
)

// ServerContext holds shared state for the MCP server: the application
// configuration and a lazily created Calendar client.
type ServerContext struct {
	ctx            context.Context
	cancel         context.CancelFunc
	cfg            config.Config
	calendarClient *calendar.Client
	metrics        *instrumentation.Metrics
	mu             sync.RWMutex
	shutdown       bool
}

// NewServerContext creates a new server context. The Calendar client is
// not created eagerly; tools obtain it via CalendarClient on first use
// so the server can start before the OAuth consent flow has run.
func NewServerContext(ctx context.Context, cfg config.Config) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		cfg:    cfg,
	}, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the application configuration.
func (sc *ServerContext) Config() config.Config {
	return sc.cfg
}

// CalendarClient returns the Calendar client, creating and caching it on
// first use. It fails when no cached OAuth token exists yet; run the
// auth command first in that case.
func (sc *ServerContext) CalendarClient() (*calendar.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.calendarClient != nil {
		return sc.calendarClient, nil
	}

	creds, err := google.LoadCredentials(sc.cfg.CredentialsFile, sc.cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load Google credentials: %w", err)
	}
	if !creds.HasToken() {
		return nil, fmt.Errorf("no cached OAuth token; run the auth command first")
	}
	creds.SetMetrics(sc.metrics)

	client, err := calendar.NewClient(sc.ctx, creds, sc.cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	sc.calendarClient = client
	return client, nil
}

// SetCalendarClient sets the cached Calendar client. Used by tests and
// by callers that already hold an authenticated client.
func (sc *ServerContext) SetCalendarClient(client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClient = client
}

// SetMetrics attaches the metrics recorder tool handlers report into.
// A nil recorder disables metric recording.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the attached metrics recorder, or nil when none is
// configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
