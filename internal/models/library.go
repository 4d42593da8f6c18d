package models

import "time"

// UserLibraryEntry is a media item saved to the user's library.
type UserLibraryEntry struct {
	ID         string     `json:"id"`
	MediaID    string     `json:"mediaId"`
	MediaTitle string     `json:"mediaTitle"`
	ArtistName string     `json:"artistName"`
	ImageURL   *string    `json:"imageUrl,omitempty"`
	PreviewURL *string    `json:"previewUrl,omitempty"`
	MediaType  MediaType  `json:"mediaType"`
	Rating     *int       `json:"rating,omitempty"`
	IsFavorite bool       `json:"isFavorite"`
	Comment    *string    `json:"comment,omitempty"`
	AddedAt    time.Time  `json:"addedAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// CommentText returns the comment, or "".
func (e UserLibraryEntry) CommentText() string { return deref(e.Comment) }

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token issued by password login.
type LoginResponse struct {
	Token string `json:"token"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResponse describes the created account.
type RegisterResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// CreateLibraryEntryRequest is the body of POST /library.
type CreateLibraryEntryRequest struct {
	MediaID   string    `json:"mediaId"`
	MediaType MediaType `json:"mediaType"`
	Comment   string    `json:"comment,omitempty"`
}

// FavoriteRequest is the body of POST /library/favorites.
type FavoriteRequest struct {
	MediaID string `json:"mediaId"`
}
