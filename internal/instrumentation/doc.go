// Package instrumentation provides OpenTelemetry instrumentation for the
// meetfold assistant.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for assistant runs, tool dispatches, Calendar API
//     calls, and OAuth operations
//   - Distributed tracing for run lifecycles and API calls
//   - Prometheus metrics export via /metrics endpoint on a dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// Assistant Run Metrics:
//   - assistant_runs_total: Counter of finished runs by terminal status
//   - assistant_run_duration_seconds: Histogram of run durations
//   - assistant_run_polls_total: Counter of run status polls
//
// Tool Dispatch Metrics:
//   - assistant_tool_dispatch_total: Counter of dispatched tool calls by tool name
//   - assistant_tool_dispatch_duration_seconds: Histogram of dispatch durations
//
// Calendar API Metrics:
//   - calendar_api_operations_total: Counter of Calendar operations by operation and status
//   - calendar_api_operation_duration_seconds: Histogram of Calendar operation durations
//
// OAuth Authentication Metrics:
//   - oauth_auth_total: Counter of OAuth authentication events by result
//   - oauth_token_refresh_total: Counter of token refresh attempts by result
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// # Tracing
//
// Spans are created for:
//   - Assistant runs (assistant.run)
//   - Tool dispatches (tool.<name>)
//   - Calendar API calls (calendar.<operation>)
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: meetfold)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:    "meetfold",
//		ServiceVersion: "0.1.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordRun(ctx, "completed", time.Since(start))
//	recorder.RecordCalendarOperation(ctx, "create", "success", time.Since(start))
package instrumentation
