package server

import (
	"context"
	"strings"
	"testing"

	"github.com/meetfold/meetfold/internal/calendar"
	"github.com/meetfold/meetfold/internal/config"
	"github.com/meetfold/meetfold/internal/instrumentation"
)

func TestNewServerContext(t *testing.T) {
	cfg := config.Config{
		CredentialsFile: "/nonexistent/credentials.json",
		TokenFile:       "/nonexistent/token.json",
		Timezone:        "UTC",
	}

	sc, err := NewServerContext(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}

	if sc.Context() == nil {
		t.Error("Context() returned nil")
	}
	if sc.Config().Timezone != "UTC" {
		t.Errorf("Config().Timezone = %q, want %q", sc.Config().Timezone, "UTC")
	}
	if sc.IsShutdown() {
		t.Error("new server context must not be shut down")
	}
}

func TestServerContext_CalendarClientMissingCredentials(t *testing.T) {
	sc, err := NewServerContext(context.Background(), config.Config{
		CredentialsFile: "/nonexistent/credentials.json",
		TokenFile:       "/nonexistent/token.json",
		Timezone:        "UTC",
	})
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}

	_, err = sc.CalendarClient()
	if err == nil {
		t.Fatal("CalendarClient() expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "credentials") {
		t.Errorf("CalendarClient() error = %v, want credentials error", err)
	}
}

func TestServerContext_SetCalendarClient(t *testing.T) {
	sc, err := NewServerContext(context.Background(), config.Config{Timezone: "UTC"})
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}

	client := &calendar.Client{}
	sc.SetCalendarClient(client)

	got, err := sc.CalendarClient()
	if err != nil {
		t.Fatalf("CalendarClient() error = %v", err)
	}
	if got != client {
		t.Error("CalendarClient() did not return the cached client")
	}
}

func TestServerContext_Shutdown(t *testing.T) {
	sc, err := NewServerContext(context.Background(), config.Config{})
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}

	if err := sc.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if !sc.IsShutdown() {
		t.Error("IsShutdown() = false after Shutdown()")
	}

	select {
	case <-sc.Context().Done():
	default:
		t.Error("context not cancelled after Shutdown()")
	}

	// Second shutdown is a no-op
	if err := sc.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestServerContext_SetMetrics(t *testing.T) {
	sc, err := NewServerContext(context.Background(), config.Config{})
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	defer sc.Shutdown()

	if sc.Metrics() != nil {
		t.Error("Metrics() should be nil before SetMetrics")
	}

	metrics := &instrumentation.Metrics{}
	sc.SetMetrics(metrics)

	if sc.Metrics() != metrics {
		t.Error("Metrics() did not return the recorder set via SetMetrics")
	}
}
