// Package models defines domain entities and persistence interfaces for the resonance client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs mirroring the Resonance API's JSON
//   - [MediaItem] : a track, album or artist as served by the feed and search
//   - [Page] : the paginated envelope returned by list endpoints ([FeedPage] for media)
//   - [UserLibraryEntry] : a saved library or favorites row
//   - [LoginRequest], [RegisterRequest], [CreateLibraryEntryRequest], [FavoriteRequest] : request bodies
//
// 2. Persistent Entities: database-backed models with full lifecycle management
//   - [Credential] : a bearer token captured from the OAuth cookie or password login
//
// Persistent entities implement the Model interface providing ID, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
