package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"daylist/internal/shared"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes requested from the platform. Playlist management requires the full
// youtube scope; readonly would not allow inserts.
var Scopes = []string{"https://www.googleapis.com/auth/youtube"}

// Manager pairs an OAuth client config with a [TokenStore] and produces fresh
// token sources for API clients.
type Manager struct {
	config *oauth2.Config
	store  TokenStore
}

// NewManager loads the client-credential descriptor (a Google client secret
// JSON file) and binds it to the given token store.
func NewManager(clientSecretPath, redirectURL string, store TokenStore) (*Manager, error) {
	data, err := os.ReadFile(clientSecretPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read client secret %s: %v", shared.ErrMissingCredentials, clientSecretPath, err)
	}

	config, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse client secret: %v", shared.ErrInvalidCredentials, err)
	}

	if redirectURL != "" {
		config.RedirectURL = redirectURL
	}

	return &Manager{config: config, store: store}, nil
}

// Config exposes the OAuth client config for the interactive consent flow.
func (m *Manager) Config() *oauth2.Config {
	return m.config
}

// Store exposes the underlying token store.
func (m *Manager) Store() TokenStore {
	return m.store
}

// Load returns the persisted token without refreshing it.
func (m *Manager) Load() (*oauth2.Token, error) {
	return m.store.Load()
}

// EnsureFresh loads the persisted token and returns a token source backed by
// it. When the access token has expired this refreshes it (one attempt via
// the refresh token) and persists the result BEFORE returning, so a process
// restart never reuses the stale token.
//
// A revoked or invalid refresh token is fatal: the error wraps
// shared.ErrRefreshFailed and the caller must not retry.
func (m *Manager) EnsureFresh(ctx context.Context) (oauth2.TokenSource, *oauth2.Token, error) {
	stored, err := m.store.Load()
	if err != nil {
		return nil, nil, err
	}

	return m.freshen(ctx, stored)
}

// Refresh refreshes the persisted token even when the access token is still
// valid, and persists the result.
func (m *Manager) Refresh(ctx context.Context) (*oauth2.Token, error) {
	stored, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	// Backdating the expiry makes the token source refresh unconditionally.
	stored.Expiry = time.Now().Add(-time.Minute)

	_, token, err := m.freshen(ctx, stored)
	return token, err
}

func (m *Manager) freshen(ctx context.Context, stored *oauth2.Token) (oauth2.TokenSource, *oauth2.Token, error) {
	source := m.config.TokenSource(ctx, stored)
	fresh, err := source.Token()
	if err != nil {
		if isInvalidGrant(err) {
			return nil, nil, fmt.Errorf("%w: refresh token rejected, re-run auth login: %v", shared.ErrRefreshFailed, err)
		}
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if fresh.AccessToken != stored.AccessToken || (fresh.RefreshToken != "" && fresh.RefreshToken != stored.RefreshToken) {
		// Google may omit the refresh token on refresh responses; keep the
		// long-lived one we already hold.
		if fresh.RefreshToken == "" {
			fresh.RefreshToken = stored.RefreshToken
		}
		if err := m.store.Save(fresh); err != nil {
			return nil, nil, fmt.Errorf("failed to persist refreshed token: %w", err)
		}
	}

	// ReuseTokenSource keeps subsequent calls on the freshened token instead
	// of refreshing again.
	return oauth2.ReuseTokenSource(fresh, source), fresh, nil
}

// Exchange trades an authorization code for a token and persists it.
func (m *Manager) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange failed: %v", shared.ErrAuthFailed, err)
	}
	if err := m.store.Save(token); err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}
	return token, nil
}

// AuthURL builds the consent URL for the interactive login flow.
func (m *Manager) AuthURL(state string) string {
	return m.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// isInvalidGrant detects the OAuth error returned for revoked or expired
// refresh tokens.
func isInvalidGrant(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_grant" {
		return true
	}
	return strings.Contains(err.Error(), "invalid_grant")
}
