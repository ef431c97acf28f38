package google

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenProvider is an interface for providing OAuth tokens for Google
// APIs. The abstraction keeps the calendar client testable without a
// credentials file on disk.
type TokenProvider interface {
	// Token retrieves a valid OAuth token, refreshing it if necessary.
	Token(ctx context.Context) (*oauth2.Token, error)

	// HasToken checks whether a cached token exists.
	HasToken() bool

	// TokenSource returns an auto-refreshing token source.
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

var _ TokenProvider = (*Credentials)(nil)

// StaticTokenProvider serves a fixed token. Used in tests and for
// short-lived tokens injected from the environment.
type StaticTokenProvider struct {
	Tok *oauth2.Token
}

func (p *StaticTokenProvider) Token(ctx context.Context) (*oauth2.Token, error) {
	return p.Tok, nil
}

func (p *StaticTokenProvider) HasToken() bool {
	return p.Tok != nil && p.Tok.AccessToken != ""
}

func (p *StaticTokenProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	return oauth2.StaticTokenSource(p.Tok), nil
}
