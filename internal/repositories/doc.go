// Package repositories implements SQLite persistence for domain entities.
//
// The client persists one thing: the bearer tokens that make up a session. Everything else is
// fetched from the API on demand.
//
// Key Implementations:
//   - [CredentialRepository] : one token row per [models.CredentialSource], with [CredentialRepository.Save]
//     upserting by source and [CredentialRepository.DeleteBySource] used on logout
//
// Lookups and mutations that match no row return errors wrapping [ErrNotFound].
package repositories
