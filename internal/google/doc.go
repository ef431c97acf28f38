// Package google handles OAuth2 authentication against Google APIs.
//
// It loads the OAuth client configuration from a Google client secrets
// file, caches the resulting token on disk, refreshes it transparently
// when expired, and runs an interactive consent flow over a local
// loopback listener when no usable token exists. The TokenProvider
// interface decouples consumers (the calendar client) from the
// file-based implementation.
package google
