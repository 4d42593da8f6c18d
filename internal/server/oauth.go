package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/desertthunder/resonance/internal/shared"
	"golang.org/x/oauth2"
)

// TokenResult contains the result of the browser sign-in flow.
type TokenResult struct {
	Token *oauth2.Token
	err   error
}

func (o *TokenResult) Error() error {
	return o.err
}

// TokenCallbackHandler receives the redirect at the end of the Resonance OAuth flow.
// Implements the Handler interface for registration with a Router.
//
// The API finishes sign-in by setting the AUTH_TOKEN cookie; when the cookie is not visible to
// the callback host the token may arrive in a "token" query parameter instead. A query token is
// only accepted together with the expected state.
type TokenCallbackHandler struct {
	state       string
	resultChan  chan TokenResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewTokenCallbackHandler creates a handler expecting state to be echoed back.
func NewTokenCallbackHandler(state string) *TokenCallbackHandler {
	return &TokenCallbackHandler{
		state:      state,
		resultChan: make(chan TokenResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *TokenCallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the callback request. Only the first request is processed.
func (h *TokenCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if state := q.Get("state"); state != "" && state != h.state {
		h.Send(TokenResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	if errParam := q.Get("error"); errParam != "" {
		h.Send(TokenResult{err: fmt.Errorf("%w: %s %s", shared.ErrAuthFailed, errParam, q.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token := strings.TrimSpace(q.Get("token"))
	if c, err := r.Cookie(shared.AuthCookieName); err == nil && c.Value != "" {
		token = c.Value
	} else if token != "" && q.Get("state") != h.state {
		h.Send(TokenResult{err: fmt.Errorf("%w: query token without matching state", shared.ErrAuthFailed)})
		http.Error(w, "Missing state parameter", http.StatusBadRequest)
		return
	}
	if token == "" {
		h.Send(TokenResult{err: fmt.Errorf("%w: callback carried no %s", shared.ErrNoToken, shared.AuthCookieName)})
		http.Error(w, "No token received", http.StatusBadRequest)
		return
	}

	h.Send(TokenResult{Token: &oauth2.Token{AccessToken: token, TokenType: "Bearer"}})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// Send sends the result through the channel (only once).
func (h *TokenCallbackHandler) Send(result TokenResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel.
//
// Channel will receive exactly one result and then be closed.
func (h *TokenCallbackHandler) Result() <-chan TokenResult {
	return h.resultChan
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Signed in to Resonance</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #0b0b0f; color: #eee; }
        .container { text-align: center; padding: 2rem; border-radius: 8px; background: #18181f; }
        h1 { color: #a78bfa; margin: 0 0 1rem 0; }
        p { color: #999; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Signed in</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
