package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/meetfold/meetfold/internal/instrumentation"
)

// Credentials holds the OAuth2 client configuration and the location of
// the cached token. It is the single owner of the persisted auth session.
type Credentials struct {
	conf      *oauth2.Config
	tokenFile string
	metrics   *instrumentation.Metrics

	mu sync.Mutex // guards token file writes
}

// SetMetrics attaches a metrics recorder for auth and token-refresh
// outcomes. A nil recorder disables recording.
func (c *Credentials) SetMetrics(m *instrumentation.Metrics) {
	c.metrics = m
}

// LoadCredentials reads a Google client secrets file and returns the
// OAuth2 configuration bound to the given token cache location.
// A missing or malformed secrets file is fatal for the caller: no
// calendar operation can proceed without it.
func LoadCredentials(credentialsFile, tokenFile string) (*Credentials, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", credentialsFile, err)
	}

	conf, err := google.ConfigFromJSON(b, DefaultOAuthScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", credentialsFile, err)
	}

	return &Credentials{
		conf:      conf,
		tokenFile: tokenFile,
	}, nil
}

// HasToken reports whether a cached token file exists.
func (c *Credentials) HasToken() bool {
	_, err := os.Stat(c.tokenFile)
	return err == nil
}

// loadToken reads the cached token from disk.
func (c *Credentials) loadToken() (*oauth2.Token, error) {
	b, err := os.ReadFile(c.tokenFile)
	if err != nil {
		return nil, fmt.Errorf("no cached Google OAuth token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", c.tokenFile, err)
	}
	return &tok, nil
}

// SaveToken persists a token to the cache file, creating the parent
// directory as needed. The file is overwritten on every (re)auth.
func (c *Credentials) SaveToken(tok *oauth2.Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.tokenFile), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(c.tokenFile, b, 0600); err != nil {
		return fmt.Errorf("failed to write token file %s: %w", c.tokenFile, err)
	}
	return nil
}

// Token returns a valid OAuth token, refreshing the cached one
// transparently when it has expired. Refreshed tokens are persisted so
// the next process start does not repeat the refresh.
func (c *Credentials) Token(ctx context.Context) (*oauth2.Token, error) {
	cached, err := c.loadToken()
	if err != nil {
		return nil, err
	}

	ts := c.conf.TokenSource(ctx, cached)
	tok, err := ts.Token()
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		}
		return nil, fmt.Errorf("cached token is invalid and could not be refreshed: %w", err)
	}

	if tok.AccessToken != cached.AccessToken {
		if c.metrics != nil {
			c.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
		}
		if err := c.SaveToken(tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

// TokenSource returns a token source that persists refreshed tokens.
func (c *Credentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	return &persistingTokenSource{
		creds: c,
		base:  c.conf.TokenSource(ctx, tok),
		last:  tok.AccessToken,
	}, nil
}

// HTTPClient returns an HTTP client configured with OAuth2 authentication.
// The client is forced to HTTP/1.1 to avoid HTTP/2 protocol errors with
// the Google APIs.
func (c *Credentials) HTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := c.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)

	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	return client, nil
}

// persistingTokenSource writes every newly minted access token back to
// the cache file so refreshes survive process restarts.
type persistingTokenSource struct {
	creds *Credentials
	base  oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	changed := tok.AccessToken != s.last
	if changed {
		s.last = tok.AccessToken
	}
	s.mu.Unlock()

	if changed {
		if err := s.creds.SaveToken(tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}
