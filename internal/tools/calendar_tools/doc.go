// Package calendar_tools provides MCP (Model Context Protocol) tools for
// Google Calendar operations.
//
// This package exposes scheduling functionality through a standardized MCP
// interface, allowing AI assistants to create events, inspect upcoming
// meetings, and check availability on behalf of the user.
package calendar_tools
