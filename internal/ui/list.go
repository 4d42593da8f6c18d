package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/resonance/internal/models"
	"github.com/sahilm/fuzzy"
)

var (
	_ list.Item    = mediaItem{}
	_ fuzzy.Source = (*entryIndex)(nil)
)

// mediaItem wraps [models.MediaItem] to implement [list.Item].
type mediaItem struct {
	media models.MediaItem
	liked bool
	saved bool
}

func (i mediaItem) FilterValue() string { return i.media.Title }
func (i mediaItem) Title() string {
	title := i.media.Title
	if i.liked {
		title += " ♥"
	}
	if i.saved {
		title += " ✓"
	}
	return title
}
func (i mediaItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.media.Type.Label(), i.media.ArtistName)
	if i.media.Genre != nil && *i.media.Genre != "" {
		desc = fmt.Sprintf("%s • %s", desc, *i.media.Genre)
	}
	return desc
}

// entryIndex implements [fuzzy.Source] over lowercased "title artist" strings.
type entryIndex struct {
	entries []models.UserLibraryEntry
	lower   []string
}

func newEntryIndex(entries []models.UserLibraryEntry) *entryIndex {
	lower := make([]string, len(entries))
	for i, e := range entries {
		lower[i] = strings.ToLower(e.MediaTitle + " " + e.ArtistName)
	}
	return &entryIndex{entries: entries, lower: lower}
}

func (idx *entryIndex) String(i int) string { return idx.lower[i] }
func (idx *entryIndex) Len() int            { return len(idx.entries) }

// Filter returns the indexes of entries matching query, best match first. An empty query
// matches everything in order.
func (idx *entryIndex) Filter(query string) []int {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		out := make([]int, idx.Len())
		for i := range out {
			out[i] = i
		}
		return out
	}

	matches := fuzzy.FindFrom(query, idx)
	out := make([]int, len(matches))
	for i, match := range matches {
		out[i] = match.Index
	}
	return out
}
