package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/alexanderalber/spotify-playlist-manager/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultCallbackPath is the redirect path registered with the Spotify application.
const DefaultCallbackPath = "/callback"

// Exchanger trades an authorization code for a token.
//
// Implemented by [services.SpotifyService].
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the OAuth2 callback of the terminal authorization flow.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	exchanger Exchanger
	state     string
	path      string
	results   chan OAuthResult
	sent      sync.Once
	handled   atomic.Bool
}

// NewOAuthHandler creates a handler serving path, or [DefaultCallbackPath] when empty.
//
// The state token should be random; see [shared.GenerateState].
func NewOAuthHandler(exchanger Exchanger, state, path string) *OAuthHandler {
	if path == "" {
		path = DefaultCallbackPath
	}
	return &OAuthHandler{
		exchanger: exchanger,
		state:     state,
		path:      path,
		results:   make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP validates the state parameter, exchanges the code and sends the result through the result channel.
// Only the first request is processed.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.handled.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.Send(OAuthResult{err: shared.ErrInvalidState})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		err := fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, query.Get("error"), query.Get("error_description"))
		h.Send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		h.Send(OAuthResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// Send delivers result to [OAuthHandler.Result]. Later calls are dropped.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.sent.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result yields exactly one result, then is closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>spm: Authorization Successful</title>
    <style>
        body { font-family: system-ui, sans-serif; background: #121212; color: #b3b3b3;
               min-height: 100vh; margin: 0; display: grid; place-items: center; }
        main { background: #181818; border-radius: 8px; padding: 2rem 3rem; text-align: center; }
        h1 { color: #1DB954; }
    </style>
</head>
<body>
    <main>
        <h1>✓ Spotify connected</h1>
        <p>spm saved your token. Return to the terminal.</p>
    </main>
</body>
</html>
`
