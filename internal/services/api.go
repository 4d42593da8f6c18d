// HTTP client for the Resonance API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL        = "http://localhost:8080/api"
	defaultMinQueryLength = 4
)

// APIService provides typed and raw access to the Resonance API.
//
// Every method takes the bearer token explicitly; an empty token makes a guest request.
// Requests are paced by an optional client-side limiter and never retried.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	minQuery   int
	logger     *log.Logger
}

// Option configures an [APIService].
type Option func(*APIService)

// WithRateLimit paces requests to rps per second. Zero or negative disables pacing.
func WithRateLimit(rps float64) Option {
	return func(a *APIService) {
		if rps > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithMinQueryLength sets the shortest query [APIService.Search] will send.
func WithMinQueryLength(n int) Option {
	return func(a *APIService) {
		if n > 0 {
			a.minQuery = n
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(a *APIService) { a.logger = l }
}

// NewAPIService creates a new API service instance.
func NewAPIService(baseURL string, client *http.Client, opts ...Option) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	a := &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		minQuery:   defaultMinQueryLength,
		logger:     shared.NopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BaseURL returns the API root every path is resolved against.
func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status is 2xx.
func (r *APIResponse) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path, token string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, token, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path, token string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, token, data)
}

// Login exchanges email and password for a bearer token.
func (a *APIService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := a.sendJSON(ctx, http.MethodPost, "/auth/login", "", req, "Login failed", &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: login response had no token", shared.ErrAuthFailed)
	}
	return &out, nil
}

// Register creates an account. It does not sign the user in.
func (a *APIService) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	var out models.RegisterResponse
	if err := a.sendJSON(ctx, http.MethodPost, "/auth/register", "", req, "Registration failed", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Feed fetches one page of the discovery feed. Guests pass an empty token.
func (a *APIService) Feed(ctx context.Context, token string, page, size int) (*models.FeedPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var out models.FeedPage
	if err := a.sendJSON(ctx, http.MethodGet, "/public/feed?"+q.Encode(), token, nil, "Failed to fetch discovery feed", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search queries the catalogue. An empty filter searches every media type.
//
// Queries shorter than the minimum length are rejected without a request.
func (a *APIService) Search(ctx context.Context, token, query string, filter models.MediaType, page, size int) (*models.FeedPage, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < a.minQuery {
		return nil, fmt.Errorf("%w: query must be at least %d characters", shared.ErrInvalidInput, a.minQuery)
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	if filter != "" {
		q.Set("type", string(filter))
	}

	var out models.FeedPage
	if err := a.sendJSON(ctx, http.MethodGet, "/search?"+q.Encode(), token, nil, "Search failed", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddToFavorites marks a media item as a favorite.
func (a *APIService) AddToFavorites(ctx context.Context, token, mediaID string) error {
	if token == "" {
		return shared.ErrNotAuthenticated
	}
	body := models.FavoriteRequest{MediaID: mediaID}
	return a.sendJSON(ctx, http.MethodPost, "/library/favorites", token, body, "Failed to add to favorites", nil)
}

// AddToLibrary saves a media item to the library with an optional comment.
func (a *APIService) AddToLibrary(ctx context.Context, token, mediaID string, mediaType models.MediaType, comment string) error {
	if token == "" {
		return shared.ErrNotAuthenticated
	}
	body := models.CreateLibraryEntryRequest{MediaID: mediaID, MediaType: mediaType, Comment: strings.TrimSpace(comment)}
	return a.sendJSON(ctx, http.MethodPost, "/library", token, body, "Failed to add to library", nil)
}

// Library lists the user's saved entries.
func (a *APIService) Library(ctx context.Context, token string) ([]models.UserLibraryEntry, error) {
	return a.entries(ctx, "/library", token, "Failed to fetch library")
}

// Favorites lists the user's favorite entries.
func (a *APIService) Favorites(ctx context.Context, token string) ([]models.UserLibraryEntry, error) {
	return a.entries(ctx, "/library/favorites", token, "Failed to fetch favorites")
}

func (a *APIService) entries(ctx context.Context, path, token, fallback string) ([]models.UserLibraryEntry, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}
	var out []models.UserLibraryEntry
	if err := a.sendJSON(ctx, http.MethodGet, path, token, nil, fallback, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// sendJSON encodes in (when non-nil), performs the request and decodes a 2xx body into out (when non-nil).
//
// Non-2xx responses become [shared.ServerError] carrying the body text, or fallback when the body is empty.
func (a *APIService) sendJSON(ctx context.Context, method, path, token string, in any, fallback string, out any) error {
	var data []byte
	if in != nil {
		var err error
		if data, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	resp, err := a.do(ctx, method, path, token, data)
	if err != nil {
		return err
	}

	if !resp.OK() {
		msg := strings.TrimSpace(string(resp.Body))
		if msg == "" {
			msg = fallback
		}
		return &shared.ServerError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func (a *APIService) do(ctx context.Context, method, path, token string, data []byte) (*APIResponse, error) {
	fullURL := a.baseURL + path

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request failed: %w", &shared.NetworkError{Op: method + " " + path, Err: err})
		}
	}

	a.logger.Debug("api request", "method", method, "path", path, "authenticated", token != "")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", &shared.NetworkError{Op: method + " " + path, Err: err})
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", &shared.NetworkError{Op: method + " " + path, Err: err})
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	var jsonData any
	if err := json.Unmarshal(respBody, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	a.logger.Debug("api response", "method", method, "path", path, "status", resp.StatusCode)
	return apiResp, nil
}
