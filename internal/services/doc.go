// Package services implements the Resonance HTTP API client.
//
// [APIService] implements [Service], the union of the narrow interfaces ([FeedService],
// [SearchService], [LibraryService], [AuthService]) that the feed, search and TUI layers accept.
//
// # Authentication
//
// Each call takes the bearer token explicitly. An empty token makes a guest request and omits
// the Authorization header; library reads and mutations refuse to run without a token and return
// [shared.ErrNotAuthenticated] before any request is sent.
//
// # Error Handling
//
// Failures are typed so callers can branch with errors.Is and errors.As:
//   - [shared.NetworkError] : transport failure, no response was produced
//   - [shared.ServerError] : non-2xx response, Message is the body text or a default
//   - [shared.ErrInvalidInput] : search query below the minimum length
//
// Requests are never retried here. Pacing through x/time/rate only delays them.
package services
