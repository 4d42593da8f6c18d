package session

import (
	"net/url"
	"strings"
)

const (
	RouteHome     = "/"
	RouteSearch   = "/search"
	RouteLibrary  = "/library"
	RouteProfile  = "/profile"
	RouteLogin    = "/login"
	RouteRegister = "/register"
)

var (
	protectedRoutes = []string{RouteLibrary, RouteProfile}
	authRoutes      = []string{RouteLogin, RouteRegister}
)

// Resolve applies the navigation guard. Guests asking for a protected route are sent to the
// login page with the original route in "from"; signed-in users asking for login or register
// are sent home. Otherwise route is returned unchanged and redirected is false.
func Resolve(route string, authenticated bool) (target string, redirected bool) {
	if !authenticated && hasPrefix(route, protectedRoutes) {
		q := url.Values{}
		q.Set("from", route)
		return RouteLogin + "?" + q.Encode(), true
	}
	if authenticated && hasPrefix(route, authRoutes) {
		return RouteHome, true
	}
	return route, false
}

// ReturnTo extracts the "from" route of a login redirect, defaulting to home.
func ReturnTo(loginRoute string) string {
	_, rawQuery, _ := strings.Cut(loginRoute, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil || q.Get("from") == "" {
		return RouteHome
	}
	return q.Get("from")
}

func hasPrefix(route string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(route, p) {
			return true
		}
	}
	return false
}
