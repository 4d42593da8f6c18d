// Package feed implements the discovery feed: page fetching, the scroll controller and
// viewport observation.
//
// # Flow
//
// The host (the TUI) owns the event loop. It asks the [Controller] what to fetch, executes each
// [Request] through a [Pager], and hands the outcome back with [Controller.Apply]. Viewport
// changes go through an [Observer], whose activation events are fed to [Controller.Activate] in
// delivery order, so the last activation in a batch wins.
//
// # Ordering
//
// The controller issues at most one request at a time and stamps each with a generation. A
// result from an older generation (the identity changed while it was in flight) is dropped.
// A page that arrives ahead of its predecessor is held until the gap is filled, so the feed is
// always the concatenation of pages in page-number order.
//
// # Guests
//
// Guests see the first page only. The first time the active index reaches the prompt index a
// one-time interstitial is raised; it is never raised again for the life of the controller,
// even across sign-in and sign-out. A trailing end-of-feed slot at index Len() invites sign-in.
// With the clamp variant enabled, scrolling past the guest maximum index is held back.
package feed
