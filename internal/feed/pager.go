package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/shared"
)

// PageFetcher is the remote page query. [services.APIService] implements it.
type PageFetcher interface {
	Feed(ctx context.Context, token string, page, size int) (*models.FeedPage, error)
}

// Pager caches fetched pages for one identity. Switching identity drops every cached page.
//
// Failures are returned as-is and never retried.
type Pager struct {
	fetcher PageFetcher
	logger  *log.Logger

	mu       sync.Mutex
	identity string
	pages    map[pageKey]*models.FeedPage
}

type pageKey struct {
	page, size int
}

// NewPager wraps fetcher with a per-identity page cache.
func NewPager(fetcher PageFetcher, logger *log.Logger) *Pager {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Pager{fetcher: fetcher, logger: logger, pages: make(map[pageKey]*models.FeedPage)}
}

// Fetch returns the page for identity, from cache when possible. The identity doubles as the
// bearer token; the empty identity is the guest.
func (p *Pager) Fetch(ctx context.Context, identity string, page, size int) (*models.FeedPage, error) {
	key := pageKey{page: page, size: size}

	p.mu.Lock()
	p.switchIdentity(identity)
	if cached, ok := p.pages[key]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	result, err := p.fetcher.Feed(ctx, identity, page, size)
	if err != nil {
		p.logger.Warn("feed page failed", "page", page, "err", err)
		return nil, fmt.Errorf("feed page %d: %w", page, err)
	}

	p.mu.Lock()
	if p.identity == identity {
		p.pages[key] = result
	}
	p.mu.Unlock()

	p.logger.Debug("feed page fetched", "page", page, "items", len(result.Content), "last", result.Last)
	return result, nil
}

// cached reports how many pages are cached for identity.
func (p *Pager) cached(identity string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if identity != p.identity {
		return 0
	}
	return len(p.pages)
}

// Invalidate drops every cached page.
func (p *Pager) Invalidate() {
	p.mu.Lock()
	p.pages = make(map[pageKey]*models.FeedPage)
	p.mu.Unlock()
}

func (p *Pager) switchIdentity(identity string) {
	if identity == p.identity {
		return
	}
	p.identity = identity
	p.pages = make(map[pageKey]*models.FeedPage)
}
