// Utilities for importing a session from a browser's "Copy as cURL" output.
package shared

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
)

// AuthCookieName is the cookie the OAuth flow sets on success.
const AuthCookieName = "AUTH_TOKEN"

var (
	curlHeaderRe = regexp.MustCompile(`(?:-H|--header)\s+'([^']+)'|(?:-H|--header)\s+"([^"]+)"`)
	curlCookieRe = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
	curlURLRe    = regexp.MustCompile(`curl\s+'([^']+)'|curl\s+"([^"]+)"|curl\s+(https?://\S+)`)
)

// CurlRequest is the subset of a cURL command needed to recover a session.
type CurlRequest struct {
	URL     string
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and parses it.
func ParseCurlFile(path string) (*CurlRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts the URL, headers and cookie string from a cURL command.
//
// A -b/--cookie flag takes precedence over a Cookie header.
func ParseCurlCommand(cmd string) (*CurlRequest, error) {
	cmd = strings.ReplaceAll(cmd, "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	req := &CurlRequest{Headers: make(map[string]string)}
	if m := curlURLRe.FindStringSubmatch(cmd); m != nil {
		req.URL = firstNonEmpty(m[1:]...)
	}

	var headerCookie string
	for _, m := range curlHeaderRe.FindAllStringSubmatch(cmd, -1) {
		key, value, ok := strings.Cut(firstNonEmpty(m[1], m[2]), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		req.Headers[key] = value
	}

	if m := curlCookieRe.FindStringSubmatch(cmd); m != nil {
		req.Cookie = firstNonEmpty(m[1], m[2])
	} else {
		req.Cookie = headerCookie
	}

	if len(req.Headers) == 0 && req.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return req, nil
}

// CookieValue returns the value of the named cookie, if present.
func (c *CurlRequest) CookieValue(name string) (string, bool) {
	if c.Cookie == "" {
		return "", false
	}
	r := &http.Request{Header: http.Header{"Cookie": {c.Cookie}}}
	ck, err := r.Cookie(name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

// AuthToken returns the session token carried by the request.
//
// The AUTH_TOKEN cookie wins over a bearer Authorization header.
func (c *CurlRequest) AuthToken() (string, error) {
	if v, ok := c.CookieValue(AuthCookieName); ok {
		return v, nil
	}
	for key, value := range c.Headers {
		if !strings.EqualFold(key, "authorization") {
			continue
		}
		scheme, token, ok := strings.Cut(value, " ")
		if ok && strings.EqualFold(scheme, "bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), nil
		}
	}
	return "", fmt.Errorf("%w: no %s cookie or bearer header in curl command", ErrNoToken, AuthCookieName)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
