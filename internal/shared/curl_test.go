package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantURL     string
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:    "single header with single quotes",
			curlCmd: `curl -H 'Authorization: Bearer token123' https://api.example.com`,
			wantURL: "https://api.example.com",
			wantHeaders: map[string]string{
				"Authorization": "Bearer token123",
			},
		},
		{
			name:    "single header with double quotes",
			curlCmd: `curl "http://localhost:8080/api/library" -H "Authorization: Bearer token123"`,
			wantURL: "http://localhost:8080/api/library",
			wantHeaders: map[string]string{
				"Authorization": "Bearer token123",
			},
		},
		{
			name:        "cookie in -b flag",
			curlCmd:     `curl 'http://localhost:8080/api/public/feed' -b 'AUTH_TOKEN=abc123'`,
			wantURL:     "http://localhost:8080/api/public/feed",
			wantHeaders: map[string]string{},
			wantCookie:  "AUTH_TOKEN=abc123",
		},
		{
			name:        "cookie in --cookie flag",
			curlCmd:     `curl --cookie "AUTH_TOKEN=abc123" https://api.example.com`,
			wantURL:     "https://api.example.com",
			wantHeaders: map[string]string{},
			wantCookie:  "AUTH_TOKEN=abc123",
		},
		{
			name:    "cookie header is excluded from regular headers",
			curlCmd: `curl -H 'Cookie: AUTH_TOKEN=abc123; theme=dark' -H 'Accept: application/json' https://api.example.com`,
			wantURL: "https://api.example.com",
			wantHeaders: map[string]string{
				"Accept": "application/json",
			},
			wantCookie: "AUTH_TOKEN=abc123; theme=dark",
		},
		{
			name:        "-b cookie takes precedence over -H cookie",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://api.example.com`,
			wantURL:     "https://api.example.com",
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
		},
		{
			name: "multiline copy as cURL",
			curlCmd: `curl 'http://localhost:8080/api/library' \
  -H 'accept: */*' \
  -H 'content-type: application/json' \
  -b 'AUTH_TOKEN=jwt.value.here; other=1'`,
			wantURL: "http://localhost:8080/api/library",
			wantHeaders: map[string]string{
				"accept":       "*/*",
				"content-type": "application/json",
			},
			wantCookie: "AUTH_TOKEN=jwt.value.here; other=1",
		},
		{
			name:    "no headers or cookies",
			curlCmd: `curl https://api.example.com`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurlCommand(tc.curlCmd)

			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
			}

			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}

			if result.URL != tc.wantURL {
				t.Errorf("ParseCurlCommand() url = %q, want %q", result.URL, tc.wantURL)
			}

			if len(result.Headers) != len(tc.wantHeaders) {
				t.Errorf("ParseCurlCommand() headers count = %v, want %v", len(result.Headers), len(tc.wantHeaders))
			}

			for key, want := range tc.wantHeaders {
				if got := result.Headers[key]; got != want {
					t.Errorf("ParseCurlCommand() header[%s] = %v, want %v", key, got, want)
				}
			}

			if result.Cookie != tc.wantCookie {
				t.Errorf("ParseCurlCommand() cookie = %v, want %v", result.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestCurlRequest_AuthToken(t *testing.T) {
	tt := []struct {
		name    string
		req     *CurlRequest
		want    string
		wantErr bool
	}{
		{
			name: "auth cookie",
			req:  &CurlRequest{Headers: map[string]string{}, Cookie: "theme=dark; AUTH_TOKEN=abc"},
			want: "abc",
		},
		{
			name: "cookie wins over bearer",
			req:  &CurlRequest{Headers: map[string]string{"Authorization": "Bearer header"}, Cookie: "AUTH_TOKEN=cookie"},
			want: "cookie",
		},
		{
			name: "lowercase bearer header",
			req:  &CurlRequest{Headers: map[string]string{"authorization": "bearer xyz"}},
			want: "xyz",
		},
		{
			name:    "non bearer scheme",
			req:     &CurlRequest{Headers: map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}},
			wantErr: true,
		},
		{
			name:    "empty auth cookie",
			req:     &CurlRequest{Headers: map[string]string{}, Cookie: "AUTH_TOKEN="},
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.req.AuthToken()
			if tc.wantErr {
				if !errors.Is(err, ErrNoToken) {
					t.Errorf("expected ErrNoToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("AuthToken() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseCurlFile(t *testing.T) {
	t.Run("successful file parse", func(t *testing.T) {
		curlFile := filepath.Join(t.TempDir(), "curl.sh")

		curlCmd := `curl 'http://localhost:8080/api/library' -b 'AUTH_TOKEN=token123'`
		if err := os.WriteFile(curlFile, []byte(curlCmd), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		result, err := ParseCurlFile(curlFile)
		if err != nil {
			t.Fatalf("ParseCurlFile() error = %v", err)
		}

		token, err := result.AuthToken()
		if err != nil || token != "token123" {
			t.Errorf("AuthToken() = %q, %v; want token123", token, err)
		}
	})

	t.Run("file does not exist", func(t *testing.T) {
		if _, err := ParseCurlFile("/nonexistent/file.sh"); err == nil {
			t.Error("ParseCurlFile() expected error for nonexistent file")
		}
	})
}
