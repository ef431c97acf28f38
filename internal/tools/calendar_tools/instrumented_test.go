package calendar_tools

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/meetfold/meetfold/internal/config"
	"github.com/meetfold/meetfold/internal/instrumentation"
	"github.com/meetfold/meetfold/internal/server"
)

func newMetricsContext(t *testing.T, ctx context.Context) (*server.ServerContext, *sdkmetric.ManualReader) {
	t.Helper()

	sc, err := server.NewServerContext(ctx, config.Config{})
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	metrics, err := instrumentation.NewMetrics(meter)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	sc.SetMetrics(metrics)

	return sc, reader
}

// operationStatuses collects calendar_api_operations_total grouped by
// the operation/status attribute pair.
func operationStatuses(t *testing.T, reader *sdkmetric.ManualReader) map[[2]string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	counts := make(map[[2]string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "calendar_api_operations_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T for %s", m.Data, m.Name)
			}
			for _, dp := range sum.DataPoints {
				op, _ := dp.Attributes.Value(attribute.Key("operation"))
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				counts[[2]string{op.AsString(), status.AsString()}] += dp.Value
			}
		}
	}
	return counts
}

func TestInstrumentedHandlerWithoutMetrics(t *testing.T) {
	ctx := context.Background()
	sc, err := server.NewServerContext(ctx, config.Config{})
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	defer sc.Shutdown()

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("ok"), nil
	}

	wrapped := instrumentedHandler("calendar_create_event", "create", sc, handler)

	result, err := wrapped(ctx, mcp.CallToolRequest{})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
	if result == nil {
		t.Error("expected result, got nil")
	}
}

func TestInstrumentedHandlerRecordsSuccess(t *testing.T) {
	ctx := context.Background()
	sc, reader := newMetricsContext(t, ctx)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}

	wrapped := instrumentedHandler("calendar_create_event", "create", sc, handler)
	if _, err := wrapped(ctx, mcp.CallToolRequest{}); err != nil {
		t.Fatalf("wrapped handler returned error: %v", err)
	}

	counts := operationStatuses(t, reader)
	if got := counts[[2]string{"create", instrumentation.StatusSuccess}]; got != 1 {
		t.Errorf("create/success count = %d, expected 1", got)
	}
}

func TestInstrumentedHandlerRecordsErrorResult(t *testing.T) {
	ctx := context.Background()
	sc, reader := newMetricsContext(t, ctx)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("event not found"), nil
	}

	wrapped := instrumentedHandler("calendar_get_event", "get", sc, handler)
	if _, err := wrapped(ctx, mcp.CallToolRequest{}); err != nil {
		t.Fatalf("wrapped handler returned error: %v", err)
	}

	counts := operationStatuses(t, reader)
	if got := counts[[2]string{"get", instrumentation.StatusError}]; got != 1 {
		t.Errorf("get/error count = %d, expected 1", got)
	}
}

func TestInstrumentedHandlerPassesErrorThrough(t *testing.T) {
	ctx := context.Background()
	sc, reader := newMetricsContext(t, ctx)

	wantErr := errors.New("transport broke")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, wantErr
	}

	wrapped := instrumentedHandler("calendar_list_events", "list", sc, handler)
	if _, err := wrapped(ctx, mcp.CallToolRequest{}); !errors.Is(err, wantErr) {
		t.Errorf("expected error %v, got %v", wantErr, err)
	}

	counts := operationStatuses(t, reader)
	if got := counts[[2]string{"list", instrumentation.StatusError}]; got != 1 {
		t.Errorf("list/error count = %d, expected 1", got)
	}
}
