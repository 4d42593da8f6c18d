// package services defines the collaborator interfaces the client core depends on and
// implements them over HTTP
package services

import (
	"context"

	"github.com/desertthunder/resonance/internal/models"
)

// FeedService fetches discovery feed pages.
type FeedService interface {
	Feed(ctx context.Context, token string, page, size int) (*models.FeedPage, error)
}

// SearchService runs catalogue searches.
type SearchService interface {
	Search(ctx context.Context, token, query string, filter models.MediaType, page, size int) (*models.FeedPage, error)
}

// LibraryService reads and mutates the user's library.
type LibraryService interface {
	AddToFavorites(ctx context.Context, token, mediaID string) error
	AddToLibrary(ctx context.Context, token, mediaID string, mediaType models.MediaType, comment string) error
	Library(ctx context.Context, token string) ([]models.UserLibraryEntry, error)
	Favorites(ctx context.Context, token string) ([]models.UserLibraryEntry, error)
}

// AuthService signs users in and up with email and password.
type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error)
}

// Service is the full Resonance API surface.
type Service interface {
	FeedService
	SearchService
	LibraryService
	AuthService
}

var _ Service = (*APIService)(nil)
