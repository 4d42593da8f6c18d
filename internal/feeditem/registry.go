package feeditem

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/shared"
)

// AudioFactory creates the playback channel for one preview URL.
type AudioFactory func(url string) Audio

// Registry keeps one [Item] per composite key for the current browsing session.
type Registry struct {
	items    map[models.ItemKey]*Item
	audio    AudioFactory
	duration time.Duration
	logger   *log.Logger
}

// NewRegistry creates a registry. With a nil factory items get no preview.
func NewRegistry(audio AudioFactory, duration time.Duration, logger *log.Logger) *Registry {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Registry{
		items:    make(map[models.ItemKey]*Item),
		audio:    audio,
		duration: duration,
		logger:   logger,
	}
}

// Get returns the item state for media, creating it on first use.
func (r *Registry) Get(media models.MediaItem) *Item {
	key := media.Key()
	if item, ok := r.items[key]; ok {
		return item
	}

	item := NewItem(media)
	if url := media.Preview(); url != "" && r.audio != nil {
		item.preview = NewPreview(url, r.audio(url), r.duration, shared.WithLogger(r.logger, "item", key.String()))
	}
	r.items[key] = item
	return item
}

// Lookup returns the item state for key if it exists.
func (r *Registry) Lookup(key models.ItemKey) (*Item, bool) {
	item, ok := r.items[key]
	return item, ok
}

// Deactivate tears down the preview of key, if any.
func (r *Registry) Deactivate(key models.ItemKey) {
	if item, ok := r.items[key]; ok && item.preview != nil {
		item.preview.Deactivate()
	}
}

// Reset tears down every preview and forgets all item state.
func (r *Registry) Reset() {
	for _, item := range r.items {
		if item.preview != nil {
			item.preview.Deactivate()
		}
	}
	r.items = make(map[models.ItemKey]*Item)
}

func (r *Registry) Len() int { return len(r.items) }
