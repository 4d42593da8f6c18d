// Package feeditem holds the per-item state of a rendered feed entry: optimistic like and
// library flags, the add-to-library dialog, and preview playback.
//
// Flags are optimistic and never reconciled with the server. Once set they stay set for the
// lifetime of the [Item].
package feeditem

import (
	"context"

	"github.com/desertthunder/resonance/internal/models"
)

// Mutator performs the authenticated item mutations. [services.APIService] implements it.
type Mutator interface {
	AddToFavorites(ctx context.Context, token, mediaID string) error
	AddToLibrary(ctx context.Context, token, mediaID string, mediaType models.MediaType, comment string) error
}

// Item is the local state of one media item.
type Item struct {
	media models.MediaItem

	liked       bool
	likePending bool
	likeErr     error

	inLibrary      bool
	libraryPending bool
	dialogOpen     bool
	dialogErr      error

	preview *Preview
}

// NewItem creates the state for media with no preview attached.
func NewItem(media models.MediaItem) *Item {
	return &Item{media: media}
}

func (i *Item) Media() models.MediaItem { return i.media }
func (i *Item) Liked() bool             { return i.liked }
func (i *Item) LikePending() bool       { return i.likePending }
func (i *Item) LikeErr() error          { return i.likeErr }
func (i *Item) InLibrary() bool         { return i.inLibrary }
func (i *Item) LibraryPending() bool    { return i.libraryPending }
func (i *Item) DialogOpen() bool        { return i.dialogOpen }
func (i *Item) DialogErr() error        { return i.dialogErr }

// Preview returns the attached preview, or nil when the item has no preview audio.
func (i *Item) Preview() *Preview { return i.preview }

// BeginLike reports whether a favorite call should be issued and marks it pending.
// It returns false once the item is liked or while a call is in flight.
func (i *Item) BeginLike() bool {
	if i.liked || i.likePending {
		return false
	}
	i.likePending = true
	i.likeErr = nil
	return true
}

// FinishLike records the outcome of the favorite call started by [Item.BeginLike].
func (i *Item) FinishLike(err error) {
	i.likePending = false
	if err != nil {
		i.likeErr = err
		return
	}
	i.liked = true
}

// OpenLibraryDialog shows the add-to-library dialog. It reports false when the item is
// already in the library.
func (i *Item) OpenLibraryDialog() bool {
	if i.inLibrary {
		return false
	}
	i.dialogOpen = true
	i.dialogErr = nil
	return true
}

// BeginAddToLibrary reports whether the library call should be issued and marks it pending.
func (i *Item) BeginAddToLibrary() bool {
	if !i.dialogOpen || i.inLibrary || i.libraryPending {
		return false
	}
	i.libraryPending = true
	i.dialogErr = nil
	return true
}

// FinishAddToLibrary records the outcome of the library call. A failure keeps the dialog
// open so the user can retry.
func (i *Item) FinishAddToLibrary(err error) {
	i.libraryPending = false
	if err != nil {
		i.dialogErr = err
		return
	}
	i.inLibrary = true
	i.dialogOpen = false
}

// CloseLibraryDialog hides the dialog. A pending call still completes.
func (i *Item) CloseLibraryDialog() {
	i.dialogOpen = false
	i.dialogErr = nil
}

// Like favorites the item through m. Repeated calls after success are no-ops.
func (i *Item) Like(ctx context.Context, m Mutator, token string) error {
	if !i.BeginLike() {
		return nil
	}
	err := m.AddToFavorites(ctx, token, i.media.ID)
	i.FinishLike(err)
	return err
}

// AddToLibrary opens the dialog if needed and submits the entry with comment.
func (i *Item) AddToLibrary(ctx context.Context, m Mutator, token, comment string) error {
	if !i.dialogOpen && !i.OpenLibraryDialog() {
		return nil
	}
	if !i.BeginAddToLibrary() {
		return nil
	}
	err := m.AddToLibrary(ctx, token, i.media.ID, i.media.Type, comment)
	i.FinishAddToLibrary(err)
	return err
}
