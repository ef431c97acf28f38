package google

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testClientSecrets = `{
  "installed": {
    "client_id": "test-client-id.apps.googleusercontent.com",
    "client_secret": "test-secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

func writeCredentials(t *testing.T) *Credentials {
	t.Helper()
	dir := t.TempDir()

	credFile := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(credFile, []byte(testClientSecrets), 0600))

	creds, err := LoadCredentials(credFile, filepath.Join(dir, "google.token"))
	require.NoError(t, err)
	return creds
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.json"), "token.json")
	require.Error(t, err)
}

func TestLoadCredentialsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	credFile := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(credFile, []byte("not json"), 0600))

	_, err := LoadCredentials(credFile, filepath.Join(dir, "google.token"))
	require.Error(t, err)
}

func TestHasToken(t *testing.T) {
	creds := writeCredentials(t)
	assert.False(t, creds.HasToken())

	tok := &oauth2.Token{AccessToken: "at", TokenType: "Bearer"}
	require.NoError(t, creds.SaveToken(tok))
	assert.True(t, creds.HasToken())
}

func TestSaveAndLoadTokenRoundTrip(t *testing.T) {
	creds := writeCredentials(t)

	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, creds.SaveToken(tok))

	loaded, err := creds.loadToken()
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, loaded.AccessToken)
	assert.Equal(t, tok.RefreshToken, loaded.RefreshToken)
	assert.WithinDuration(t, tok.Expiry, loaded.Expiry, time.Second)
}

func TestTokenValidCachedTokenIsReturned(t *testing.T) {
	creds := writeCredentials(t)

	tok := &oauth2.Token{
		AccessToken: "still-good",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}
	require.NoError(t, creds.SaveToken(tok))

	got, err := creds.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "still-good", got.AccessToken)
}

func TestTokenMissingCacheFails(t *testing.T) {
	creds := writeCredentials(t)

	_, err := creds.Token(t.Context())
	require.Error(t, err)
}

func TestStaticTokenProvider(t *testing.T) {
	p := &StaticTokenProvider{Tok: &oauth2.Token{AccessToken: "abc"}}
	assert.True(t, p.HasToken())

	tok, err := p.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)

	ts, err := p.TokenSource(t.Context())
	require.NoError(t, err)
	got, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", got.AccessToken)
}

func TestRandomStateUnique(t *testing.T) {
	a, err := randomState()
	require.NoError(t, err)
	b, err := randomState()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
}
