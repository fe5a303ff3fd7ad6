package server

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"golang.org/x/oauth2"

	"github.com/desertthunder/music-playlists/internal/shared"
)

// Exchanger turns an authorization code into a token.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// OAuthResult is the outcome of one authorization callback.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

// Err reports why the callback failed, or nil.
func (o OAuthResult) Err() error { return o.err }

// OAuthHandler handles the OAuth2 authorization code callback. It accepts one callback only.
type OAuthHandler struct {
	exchanger Exchanger
	state     string
	path      string
	served    atomic.Bool
	results   chan OAuthResult
}

// NewOAuthHandler creates an OAuth handler serving path. The state token should be random.
func NewOAuthHandler(exchanger Exchanger, state, path string) *OAuthHandler {
	return &OAuthHandler{
		exchanger: exchanger,
		state:     state,
		path:      cmp.Or(path, "/callback"),
		results:   make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP validates the state parameter and exchanges the authorization code.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.served.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	token, status, err := h.exchange(r)
	h.results <- OAuthResult{Token: token, err: err}
	close(h.results)

	if err != nil {
		http.Error(w, http.StatusText(status)+": "+err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, successPage)
}

func (h *OAuthHandler) exchange(r *http.Request) (*oauth2.Token, int, error) {
	query := r.URL.Query()
	if query.Get("state") != h.state {
		return nil, http.StatusBadRequest, fmt.Errorf("%w: state mismatch", shared.ErrAuthFailed)
	}

	code := query.Get("code")
	if code == "" {
		return nil, http.StatusBadRequest, fmt.Errorf("%w: %s %s", shared.ErrAuthFailed, query.Get("error"), query.Get("error_description"))
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	switch {
	case err != nil:
		return nil, http.StatusBadGateway, fmt.Errorf("%w: token exchange: %w", shared.ErrAuthFailed, err)
	case token.RefreshToken == "":
		return nil, http.StatusBadGateway, shared.ErrNoRefreshToken
	}
	return token, http.StatusOK, nil
}

// Result receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Music playlists can now update Spotify</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
