package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"daylist/internal/shared"

	"golang.org/x/oauth2"
)

// writeClientSecret writes an installed-app client descriptor whose token
// endpoint points at the given URL.
func writeClientSecret(t *testing.T, dir, tokenURL string) string {
	t.Helper()
	path := filepath.Join(dir, "client_secret.json")
	data := fmt.Sprintf(`{
		"installed": {
			"client_id": "test-client",
			"client_secret": "test-secret",
			"redirect_uris": ["http://localhost:8910/callback"],
			"auth_uri": "https://accounts.google.com/o/oauth2/auth",
			"token_uri": "%s"
		}
	}`, tokenURL)
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestManager(t *testing.T, tokenURL string, stored *oauth2.Token) (*Manager, *FileStore) {
	t.Helper()
	dir := t.TempDir()
	secretPath := writeClientSecret(t, dir, tokenURL)
	store := NewFileStore(filepath.Join(dir, "token.json"))
	if stored != nil {
		if err := store.Save(stored); err != nil {
			t.Fatal(err)
		}
	}

	manager, err := NewManager(secretPath, "http://localhost:8910/callback", store)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return manager, store
}

func TestNewManager_MissingSecret(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "token.json"))
	_, err := NewManager(filepath.Join(t.TempDir(), "nope.json"), "", store)
	if !errors.Is(err, shared.ErrMissingCredentials) {
		t.Errorf("NewManager() error = %v, want ErrMissingCredentials", err)
	}
}

func TestNewManager_InvalidSecret(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client_secret.json")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := NewManager(path, "", NewFileStore(filepath.Join(dir, "token.json")))
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Errorf("NewManager() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestManager_AuthURL(t *testing.T) {
	manager, _ := newTestManager(t, "https://oauth2.googleapis.com/token", nil)

	url := manager.AuthURL("state-abc")
	for _, want := range []string{"state=state-abc", "access_type=offline", "client_id=test-client"} {
		if !strings.Contains(url, want) {
			t.Errorf("AuthURL() = %s, missing %s", url, want)
		}
	}
}

func TestManager_EnsureFresh(t *testing.T) {
	t.Run("no stored token", func(t *testing.T) {
		manager, _ := newTestManager(t, "https://oauth2.googleapis.com/token", nil)

		_, _, err := manager.EnsureFresh(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("EnsureFresh() error = %v, want ErrNotAuthenticated", err)
		}
	})

	t.Run("valid token is used without refresh", func(t *testing.T) {
		hits := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		stored := &oauth2.Token{
			AccessToken:  "still-good",
			RefreshToken: "refresh-1",
			Expiry:       time.Now().Add(time.Hour),
		}
		manager, _ := newTestManager(t, srv.URL, stored)

		_, token, err := manager.EnsureFresh(context.Background())
		if err != nil {
			t.Fatalf("EnsureFresh() error = %v", err)
		}
		if token.AccessToken != "still-good" {
			t.Errorf("AccessToken = %s, want still-good", token.AccessToken)
		}
		if hits != 0 {
			t.Errorf("token endpoint hit %d times, want 0", hits)
		}
	})

	t.Run("expired token is refreshed once and persisted", func(t *testing.T) {
		hits := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"fresh-access","token_type":"Bearer","expires_in":3600}`)
		}))
		defer srv.Close()

		stored := &oauth2.Token{
			AccessToken:  "expired-access",
			RefreshToken: "refresh-1",
			Expiry:       time.Now().Add(-time.Hour),
		}
		manager, store := newTestManager(t, srv.URL, stored)

		source, token, err := manager.EnsureFresh(context.Background())
		if err != nil {
			t.Fatalf("EnsureFresh() error = %v", err)
		}
		if token.AccessToken != "fresh-access" {
			t.Errorf("AccessToken = %s, want fresh-access", token.AccessToken)
		}
		if hits != 1 {
			t.Errorf("token endpoint hit %d times, want 1", hits)
		}

		// The refreshed token is on disk before any API call happens
		persisted, err := store.Load()
		if err != nil {
			t.Fatalf("Load() after refresh error = %v", err)
		}
		if persisted.AccessToken != "fresh-access" {
			t.Errorf("persisted AccessToken = %s, want fresh-access", persisted.AccessToken)
		}
		if persisted.RefreshToken != "refresh-1" {
			t.Errorf("persisted RefreshToken = %s, want the original refresh-1", persisted.RefreshToken)
		}

		// The returned source reuses the fresh token instead of refreshing again
		again, err := source.Token()
		if err != nil {
			t.Fatalf("source.Token() error = %v", err)
		}
		if again.AccessToken != "fresh-access" || hits != 1 {
			t.Errorf("source refreshed again: token=%s hits=%d", again.AccessToken, hits)
		}
	})

	t.Run("rotated refresh token replaces the stored one", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"fresh-access","refresh_token":"refresh-2","token_type":"Bearer","expires_in":3600}`)
		}))
		defer srv.Close()

		stored := &oauth2.Token{
			AccessToken:  "expired-access",
			RefreshToken: "refresh-1",
			Expiry:       time.Now().Add(-time.Hour),
		}
		manager, store := newTestManager(t, srv.URL, stored)

		if _, _, err := manager.EnsureFresh(context.Background()); err != nil {
			t.Fatalf("EnsureFresh() error = %v", err)
		}

		persisted, err := store.Load()
		if err != nil {
			t.Fatal(err)
		}
		if persisted.RefreshToken != "refresh-2" {
			t.Errorf("persisted RefreshToken = %s, want refresh-2", persisted.RefreshToken)
		}
	})

	t.Run("invalid_grant is fatal", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Token has been revoked."}`)
		}))
		defer srv.Close()

		stored := &oauth2.Token{
			AccessToken:  "expired-access",
			RefreshToken: "revoked",
			Expiry:       time.Now().Add(-time.Hour),
		}
		manager, _ := newTestManager(t, srv.URL, stored)

		_, _, err := manager.EnsureFresh(context.Background())
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("EnsureFresh() error = %v, want ErrRefreshFailed", err)
		}
	})
}

func TestManager_Refresh(t *testing.T) {
	t.Run("refreshes a still-valid token", func(t *testing.T) {
		hits := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"rotated-access","token_type":"Bearer","expires_in":3600}`)
		}))
		defer srv.Close()

		stored := &oauth2.Token{
			AccessToken:  "still-good",
			RefreshToken: "refresh-1",
			Expiry:       time.Now().Add(time.Hour),
		}
		manager, store := newTestManager(t, srv.URL, stored)

		token, err := manager.Refresh(context.Background())
		if err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}
		if token.AccessToken != "rotated-access" {
			t.Errorf("AccessToken = %s, want rotated-access", token.AccessToken)
		}
		if hits != 1 {
			t.Errorf("token endpoint hit %d times, want 1", hits)
		}

		persisted, err := store.Load()
		if err != nil {
			t.Fatal(err)
		}
		if persisted.AccessToken != "rotated-access" {
			t.Errorf("persisted AccessToken = %s, want rotated-access", persisted.AccessToken)
		}
		if persisted.RefreshToken != "refresh-1" {
			t.Errorf("persisted RefreshToken = %s, want refresh-1", persisted.RefreshToken)
		}
	})

	t.Run("no stored token", func(t *testing.T) {
		manager, _ := newTestManager(t, "https://oauth2.googleapis.com/token", nil)

		if _, err := manager.Refresh(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("Refresh() error = %v, want ErrNotAuthenticated", err)
		}
	})
}

func TestIsInvalidGrant(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			"retrieve error with invalid_grant code",
			&oauth2.RetrieveError{ErrorCode: "invalid_grant"},
			true,
		},
		{
			"retrieve error with other code",
			&oauth2.RetrieveError{ErrorCode: "server_error"},
			false,
		},
		{
			"message mentions invalid_grant",
			errors.New(`oauth2: "invalid_grant" "Bad Request"`),
			true,
		},
		{
			"unrelated error",
			errors.New("connection refused"),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isInvalidGrant(tt.err); got != tt.want {
				t.Errorf("isInvalidGrant(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
