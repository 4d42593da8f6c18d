// Package server provides HTTP routing, middleware, and the sign-in callback used by the CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Sign-in Callback
//
// [TokenCallbackHandler] receives the browser redirect at the end of the Resonance OAuth flow.
// The API signals success by setting the AUTH_TOKEN cookie; the handler also accepts a "token"
// query parameter. When the provider echoes a state parameter it must match.
//
// It only processes one callback to prevent replay attacks.
//
// [AwaitToken] runs the handler on a caller-supplied listener, waits for exactly one result and
// shuts the server down before returning.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
