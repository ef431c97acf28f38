// Package server provides the MCP server context and the metrics server
// for the meetfold application.
//
// ServerContext manages the Google Calendar client with lazy
// initialization and caching, so the MCP server can start before the
// OAuth consent flow has produced a token.
//
// MetricsServer serves Prometheus metrics on a dedicated port, separate
// from the stdio MCP transport.
package server
