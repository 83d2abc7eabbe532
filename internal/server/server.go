// package server hosts the one-shot OAuth callback endpoint used by the
// interactive login flow.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Handler defines the interface for HTTP request handlers.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Callback runs an HTTP server for a single OAuth callback and shuts it down
// once the handler delivers a result or the context expires.
//
// redirectURL decides the listen address and callback path, so the server
// always matches the redirect registered with the OAuth client.
func Callback(ctx context.Context, redirectURL string, handler Handler) error {
	parsed, err := url.Parse(redirectURL)
	if err != nil {
		return fmt.Errorf("invalid redirect URL %s: %w", redirectURL, err)
	}

	mux := http.NewServeMux()
	for _, route := range handler.Routes() {
		mux.Handle(route, handler)
	}

	srv := &http.Server{Handler: mux}

	listener, err := net.Listen("tcp", parsed.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", parsed.Host, err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("callback server failed: %w", err)
	case <-ctx.Done():
		return nil
	}
}
