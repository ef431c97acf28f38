// Package cmd implements the command-line interface for meetfold.
//
// This package provides the following commands:
//   - ask: Send a natural-language scheduling request to the assistant
//   - auth: Run the Google OAuth consent flow and cache the token
//   - serve: Start the MCP server to provide calendar tools for AI assistants
//   - version: Display version information
//
// The ask command is the default command when no subcommand is specified.
package cmd
