// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI mirrors the Resonance web client:
//  1. [FeedView] : Full-height discovery cards, snap scrolled with j/k
//  2. [SearchView] : Debounced catalogue search with a type filter
//  3. [LibraryView] : The user's library and favorites, fuzzy filtered
//  4. [LoginView] : Email and password sign-in
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Session changes flow through a channel fed by the [session.Store] subscription, the same way the feed
// pages come back as messages from commands.
//
// Overlays (guest interstitial, sign-in prompt, add-to-library dialog) take every key while visible.
package ui
