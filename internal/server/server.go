// package server contains middleware, routing and the one-shot sign-in callback server
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/resonance/internal/shared"
	"golang.org/x/oauth2"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own their routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// RequestLogger logs each request's method, path and duration.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("callback request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
		})
	}
}

// AwaitToken serves the callback handler on ln until a result arrives, ctx ends, or the server
// fails, then shuts the server down. The listener is owned by AwaitToken and closed on return.
func AwaitToken(ctx context.Context, ln net.Listener, handler *TokenCallbackHandler, logger *log.Logger) (*oauth2.Token, error) {
	if logger == nil {
		logger = shared.NopLogger()
	}

	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handler(handler)
	logger.Debug("callback server listening", "addr", ln.Addr().String(), "paths", router.Paths())

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down callback server", "error", err)
		}
		<-serveErr
	}()

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return nil, fmt.Errorf("sign-in failed: %w", result.Error())
		}
		return result.Token, nil
	case err, ok := <-serveErr:
		if !ok {
			return nil, fmt.Errorf("callback server stopped")
		}
		return nil, fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", shared.ErrTimeout, ctx.Err())
	}
}
