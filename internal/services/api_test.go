package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/shared"
	tu "github.com/desertthunder/resonance/internal/testing"
)

func feedPayload(page int, last bool, ids ...string) models.FeedPage {
	p := models.FeedPage{Page: page, Size: len(ids), Last: last, First: page == 0}
	for _, id := range ids {
		p.Content = append(p.Content, models.MediaItem{ID: id, Type: models.MediaTrack, Title: "Song " + id})
	}
	return p
}

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/api/", customClient)

			if srv.baseURL != "http://example.com/api" {
				t.Errorf("expected trailing slash trimmed, got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.baseURL != "http://localhost:8080/api" {
				t.Errorf("expected default baseURL, got %s", srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("Options", func(t *testing.T) {
			srv := NewAPIService("", nil, WithRateLimit(2), WithMinQueryLength(6))
			if srv.limiter == nil {
				t.Error("expected limiter to be configured")
			}
			if srv.minQuery != 6 {
				t.Errorf("expected min query 6, got %d", srv.minQuery)
			}
			if NewAPIService("", nil, WithRateLimit(0)).limiter != nil {
				t.Error("zero rate should disable pacing")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Successful Request With JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/test" {
					t.Errorf("expected path '/test', got %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("expected bearer header, got %q", got)
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/test", "tok")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusOK || !resp.OK() {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
			if !resp.IsJSON || resp.JSONData == nil {
				t.Error("expected JSON response to be decoded")
			}
		})

		t.Run("Guest Request Has No Authorization Header", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, ok := r.Header["Authorization"]; ok {
					t.Error("guest request should not send Authorization")
				}
				w.Write([]byte("plain text response"))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/test", "")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON {
				t.Error("expected response to not be JSON")
			}
			if string(resp.Body) != "plain text response" {
				t.Errorf("unexpected body %s", string(resp.Body))
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			_, err := NewAPIService("http://example.com", nil).Get(context.Background(), "/test\x00invalid", "")
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}

			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test", "")
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
			if !errors.Is(err, shared.ErrNetwork) {
				t.Errorf("expected network error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test", "")
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := NewAPIService(server.URL, nil).Get(ctx, "/test", ""); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST method, got %s", r.Method)
			}
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected Content-Type 'application/json', got %s", r.Header.Get("Content-Type"))
			}
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
		}))
		defer server.Close()

		resp, err := NewAPIService(server.URL, nil).Post(context.Background(), "/echo", "", []byte(`{"a":1}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.StatusCode != http.StatusCreated || string(resp.Body) != `{"a":1}` {
			t.Errorf("unexpected response %d %s", resp.StatusCode, resp.Body)
		}
	})

	t.Run("Feed", func(t *testing.T) {
		t.Run("Requests Page And Size", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/public/feed" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("size") != "10" {
					t.Errorf("unexpected query %s", r.URL.RawQuery)
				}
				json.NewEncoder(w).Encode(feedPayload(2, true, "a", "b"))
			}))
			defer server.Close()

			page, err := NewAPIService(server.URL, nil).Feed(context.Background(), "", 2, 10)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if page.Page != 2 || !page.Last || len(page.Content) != 2 {
				t.Errorf("unexpected page %+v", page)
			}
		})

		t.Run("Server Error Uses Body Text", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "feed unavailable", http.StatusServiceUnavailable)
			}))
			defer server.Close()

			_, err := NewAPIService(server.URL, nil).Feed(context.Background(), "", 0, 10)
			var se *shared.ServerError
			if !errors.As(err, &se) {
				t.Fatalf("expected ServerError, got %v", err)
			}
			if se.Status != http.StatusServiceUnavailable || se.Message != "feed unavailable" {
				t.Errorf("unexpected server error %+v", se)
			}
		})

		t.Run("Server Error Falls Back To Default Message", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			_, err := NewAPIService(server.URL, nil).Feed(context.Background(), "", 0, 10)
			var se *shared.ServerError
			if !errors.As(err, &se) || se.Message != "Failed to fetch discovery feed" {
				t.Errorf("expected default message, got %v", err)
			}
		})

		t.Run("Malformed Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{not json"))
			}))
			defer server.Close()

			_, err := NewAPIService(server.URL, nil).Feed(context.Background(), "", 0, 10)
			if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
				t.Errorf("expected decode error, got %v", err)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("Short Query Is Rejected Without Request", func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
			}))
			defer server.Close()

			_, err := NewAPIService(server.URL, nil).Search(context.Background(), "", "ab", "", 0, 20)
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if hits.Load() != 0 {
				t.Error("short query must not reach the server")
			}
		})

		t.Run("Sends Query And Type Filter", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if r.URL.Path != "/search" || q.Get("query") != "abcd" || q.Get("type") != "ALBUM" || q.Get("size") != "20" {
					t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
				}
				json.NewEncoder(w).Encode(feedPayload(0, true, "x"))
			}))
			defer server.Close()

			page, err := NewAPIService(server.URL, nil).Search(context.Background(), "", " abcd ", models.MediaAlbum, 0, 20)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(page.Content) != 1 {
				t.Errorf("expected one result, got %d", len(page.Content))
			}
		})

		t.Run("No Filter Omits Type", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Has("type") {
					t.Errorf("type should be omitted, got %s", r.URL.RawQuery)
				}
				json.NewEncoder(w).Encode(feedPayload(0, true))
			}))
			defer server.Close()

			if _, err := NewAPIService(server.URL, nil).Search(context.Background(), "", "abcd", "", 0, 20); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("Auth", func(t *testing.T) {
		t.Run("Login Returns Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req models.LoginRequest
				json.NewDecoder(r.Body).Decode(&req)
				if r.URL.Path != "/auth/login" || req.Email != "a@b.c" {
					t.Errorf("unexpected login request %s %+v", r.URL.Path, req)
				}
				json.NewEncoder(w).Encode(models.LoginResponse{Token: "jwt"})
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Login(context.Background(), models.LoginRequest{Email: "a@b.c", Password: "pw"})
			if err != nil || resp.Token != "jwt" {
				t.Fatalf("Login() = %+v, %v", resp, err)
			}
		})

		t.Run("Login Failure", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			_, err := NewAPIService(server.URL, nil).Login(context.Background(), models.LoginRequest{})
			if shared.StatusCode(err) != http.StatusUnauthorized || !strings.Contains(err.Error(), "Login failed") {
				t.Errorf("expected 401 Login failed, got %v", err)
			}
		})

		t.Run("Login Without Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			_, err := NewAPIService(server.URL, nil).Login(context.Background(), models.LoginRequest{})
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})

		t.Run("Register", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				json.NewEncoder(w).Encode(models.RegisterResponse{ID: "u1", Email: "a@b.c", Username: "ab"})
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Register(context.Background(), models.RegisterRequest{Email: "a@b.c"})
			if err != nil || resp.ID != "u1" {
				t.Fatalf("Register() = %+v, %v", resp, err)
			}
		})
	})

	t.Run("Library", func(t *testing.T) {
		t.Run("Requires Token", func(t *testing.T) {
			srv := NewAPIService("http://example.com", &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("unreachable"))})
			ctx := context.Background()

			if err := srv.AddToFavorites(ctx, "", "1"); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("AddToFavorites: expected ErrNotAuthenticated, got %v", err)
			}
			if err := srv.AddToLibrary(ctx, "", "1", models.MediaTrack, ""); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("AddToLibrary: expected ErrNotAuthenticated, got %v", err)
			}
			if _, err := srv.Library(ctx, ""); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("Library: expected ErrNotAuthenticated, got %v", err)
			}
			if _, err := srv.Favorites(ctx, ""); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("Favorites: expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("Mutations Send Bodies", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/library/favorites":
					var req models.FavoriteRequest
					json.NewDecoder(r.Body).Decode(&req)
					if req.MediaID != "42" {
						t.Errorf("unexpected favorite body %+v", req)
					}
					w.WriteHeader(http.StatusCreated)
				case "/library":
					var req models.CreateLibraryEntryRequest
					json.NewDecoder(r.Body).Decode(&req)
					if req.MediaID != "42" || req.MediaType != models.MediaAlbum || req.Comment != "great" {
						t.Errorf("unexpected library body %+v", req)
					}
					w.WriteHeader(http.StatusOK)
				default:
					t.Errorf("unexpected path %s", r.URL.Path)
				}
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			if err := srv.AddToFavorites(context.Background(), "tok", "42"); err != nil {
				t.Errorf("AddToFavorites: %v", err)
			}
			if err := srv.AddToLibrary(context.Background(), "tok", "42", models.MediaAlbum, " great "); err != nil {
				t.Errorf("AddToLibrary: %v", err)
			}
		})

		t.Run("Lists Entries", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				entries := []models.UserLibraryEntry{{ID: "e1", MediaID: "m1", MediaTitle: "Song", IsFavorite: r.URL.Path == "/library/favorites"}}
				json.NewEncoder(w).Encode(entries)
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			lib, err := srv.Library(context.Background(), "tok")
			if err != nil || len(lib) != 1 || lib[0].IsFavorite {
				t.Errorf("Library() = %+v, %v", lib, err)
			}
			favs, err := srv.Favorites(context.Background(), "tok")
			if err != nil || len(favs) != 1 || !favs[0].IsFavorite {
				t.Errorf("Favorites() = %+v, %v", favs, err)
			}
		})
	})
}
