package models

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// MediaType identifies the kind of catalogue entry.
type MediaType string

const (
	MediaTrack  MediaType = "TRACK"
	MediaAlbum  MediaType = "ALBUM"
	MediaArtist MediaType = "ARTIST"
)

// MediaTypes lists every media type in display order.
var MediaTypes = []MediaType{MediaTrack, MediaAlbum, MediaArtist}

// ParseMediaType parses an exact, case-insensitive media type name.
func ParseMediaType(s string) (MediaType, error) {
	t := MediaType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range MediaTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown media type %q", s)
}

// ParseTypeFilter resolves partial user input to a search filter.
//
// Empty input or "all" means no filter and returns "". Otherwise the first media type that fuzzily
// contains the input wins, so "alb" and "trk" both resolve.
func ParseTypeFilter(s string) (MediaType, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return "", nil
	}
	for _, t := range MediaTypes {
		if fuzzy.MatchFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown media type filter %q", s)
}

// Label is the human-readable form of the type.
func (t MediaType) Label() string {
	switch t {
	case MediaTrack:
		return "Track"
	case MediaAlbum:
		return "Album"
	case MediaArtist:
		return "Artist"
	case "":
		return "All"
	}
	return string(t)
}

// MediaItem is a catalogue entry as returned by the feed and search endpoints.
type MediaItem struct {
	ID            string    `json:"id"`
	Type          MediaType `json:"type"`
	Title         string    `json:"title"`
	ArtistName    string    `json:"artistName"`
	ImageURL      *string   `json:"imageUrl,omitempty"`
	PreviewURL    *string   `json:"previewUrl,omitempty"`
	ITunesURL     *string   `json:"itunesUrl,omitempty"`
	ReleaseDate   *string   `json:"releaseDate,omitempty"`
	AverageRating *float64  `json:"averageRating,omitempty"`
	RatingCount   int       `json:"ratingCount"`
	Description   *string   `json:"description,omitempty"`
	Genre         *string   `json:"genre,omitempty"`
}

// ItemKey is the composite identity of a media item. IDs are only unique within a type.
type ItemKey struct {
	Type MediaType
	ID   string
}

func (k ItemKey) String() string { return string(k.Type) + ":" + k.ID }

// Key returns the item's composite identity.
func (m MediaItem) Key() ItemKey { return ItemKey{Type: m.Type, ID: m.ID} }

// Preview returns the preview URL, or "" when the item has none.
func (m MediaItem) Preview() string { return deref(m.PreviewURL) }

// ITunes returns the store URL, or "".
func (m MediaItem) ITunes() string { return deref(m.ITunesURL) }

// Image returns the artwork URL, or "".
func (m MediaItem) Image() string { return deref(m.ImageURL) }

// Page is the paginated envelope used by list endpoints.
type Page[T any] struct {
	Content       []T  `json:"content"`
	Page          int  `json:"page"`
	Size          int  `json:"size"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Last          bool `json:"last"`
	First         bool `json:"first"`
}

// FeedPage is one page of the discovery feed or of search results.
type FeedPage = Page[MediaItem]

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
