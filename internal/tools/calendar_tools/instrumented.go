package calendar_tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meetfold/meetfold/internal/instrumentation"
	"github.com/meetfold/meetfold/internal/server"
)

// instrumentedHandler wraps a tool handler with metrics and tracing.
// It records one tool dispatch and one Calendar API operation per
// invocation, with the status derived from the handler outcome.
func instrumentedHandler(
	toolName string,
	operation string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		if metrics == nil {
			return handler(ctx, request)
		}

		ctx, span := instrumentation.StartCalendarSpan(ctx, operation)
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}

		metrics.RecordToolDispatch(ctx, toolName, duration)
		metrics.RecordCalendarOperation(ctx, operation, status, duration)

		return result, err
	}
}
