package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daylist/internal/server"
	"daylist/internal/shared"

	"github.com/pkg/browser"
	"github.com/urfave/cli/v3"
)

// AuthLogin runs the interactive OAuth flow: opens the consent page, waits
// for the callback, and persists the exchanged token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	manager, err := r.authManager()
	if err != nil {
		return err
	}

	state := shared.GenerateID()
	authURL := manager.AuthURL(state)

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to authorize:\n%s\n", authURL)
	} else {
		r.logger.Info("opening browser for authorization")
		if err := browser.OpenURL(authURL); err != nil {
			r.logger.Warnf("failed to open browser: %v", err)
			r.writePlain("Open this URL to authorize:\n%s\n", authURL)
		}
	}

	handler := server.NewOAuthHandler(manager.Config(), state)

	serverCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Callback(serverCtx, r.config.Credentials.RedirectURL, handler)
	}()

	select {
	case result := <-handler.Result():
		cancel()
		if err := result.Error(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		if err := manager.Store().Save(result.Token); err != nil {
			return fmt.Errorf("failed to persist token: %w", err)
		}
	case err := <-serverErr:
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: authorization timed out", shared.ErrAuthFailed)
	}

	r.logger.Info("authentication successful")
	return r.writePlain("✓ Authentication successful\n")
}

// AuthStatus reports the stored credential state without calling the API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	manager, err := r.authManager()
	if err != nil {
		return err
	}

	token, err := manager.Load()
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return r.writePlain("Authentication: ✗ Not authenticated\nRun `daylist auth login` to authorize.\n")
	}
	if err != nil {
		return err
	}

	r.writePlain("Authentication: ✓ Token stored\n")
	if token.Expiry.IsZero() {
		r.writePlain("Expiry: none recorded\n")
	} else if token.Valid() {
		r.writePlain("Expiry: %s (valid)\n", shared.FormatTimestamp(token.Expiry))
	} else {
		r.writePlain("Expiry: %s (expired, will refresh on next sync)\n", shared.FormatTimestamp(token.Expiry))
	}

	return nil
}

// AuthRefresh forces a refresh of the stored token and persists the result.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	manager, err := r.authManager()
	if err != nil {
		return err
	}

	token, err := manager.Refresh(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("token refreshed")
	return r.writePlain("✓ Token valid until %s\n", shared.FormatTimestamp(token.Expiry))
}
