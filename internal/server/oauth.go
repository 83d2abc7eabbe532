package server

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"
)

// OAuthResult is the outcome of a single authorization callback.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler serves the authorization-code callback for one login attempt.
// The first request decides the result; later requests are rejected.
type OAuthHandler struct {
	config  *oauth2.Config
	state   string
	results chan OAuthResult
	handled atomic.Bool
	once    sync.Once
}

// NewOAuthHandler creates a handler bound to the given config and state
// token. The state should be freshly generated per login attempt.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:  config,
		state:   state,
		results: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.handled.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	token, err := h.authorize(r)
	if err != nil {
		h.deliver(nil, err)
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	h.deliver(token, nil)

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, callbackPage, "✓ Authorization Successful", "You can close this window and return to the terminal.")
}

// authorize validates the callback query and exchanges the code for a token.
func (h *OAuthHandler) authorize(r *http.Request) (*oauth2.Token, error) {
	query := r.URL.Query()

	if query.Get("state") != h.state {
		return nil, fmt.Errorf("state mismatch")
	}

	code := query.Get("code")
	if code == "" {
		return nil, fmt.Errorf("authorization failed: %s - %s",
			query.Get("error"), query.Get("error_description"))
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	return token, nil
}

// deliver publishes the result exactly once and closes the channel.
func (h *OAuthHandler) deliver(token *oauth2.Token, err error) {
	h.once.Do(func() {
		h.results <- OAuthResult{Token: token, err: err}
		close(h.results)
	})
}

// Result returns the channel carrying the single callback outcome.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

const callbackPage = `<!DOCTYPE html>
<html>
<head>
    <title>daylist</title>
    <style>
        body { font-family: sans-serif; text-align: center; margin-top: 20vh; background: #f5f5f5; }
        h1 { color: #c4302b; }
        p { color: #666; }
    </style>
</head>
<body>
    <h1>%s</h1>
    <p>%s</p>
</body>
</html>
`
