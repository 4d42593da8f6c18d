package feed

import (
	"github.com/desertthunder/resonance/internal/models"
)

// State is the controller's fetch state.
type State int

const (
	Loading      State = iota // first page pending
	Ready                     // feed non-empty, nothing in flight
	FetchingMore              // next page in flight
	Errored                   // first page failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case FetchingMore:
		return "fetching"
	case Errored:
		return "errored"
	}
	return "unknown"
}

// Config tunes the controller.
type Config struct {
	PageSize         int
	PrefetchDistance int
	PromptIndex      int
	GuestMaxIndex    int
	ClampGuestScroll bool
}

// DefaultConfig returns the stock feed tuning.
func DefaultConfig() Config {
	return Config{PageSize: 10, PrefetchDistance: 3, PromptIndex: 3, GuestMaxIndex: 4}
}

// Request asks the host to fetch one page.
type Request struct {
	Generation uint64
	Identity   string
	Page       int
	Size       int
}

// Result is the outcome of a [Request].
type Result struct {
	Request
	Page *models.FeedPage
	Err  error
}

// Controller owns the ordered, deduplicated feed and decides when to fetch and when to
// interrupt guests. It is not safe for concurrent use; the host calls it from its event loop.
type Controller struct {
	cfg Config

	started       bool
	identity      string
	authenticated bool
	generation    uint64

	state     State
	items     []models.MediaItem
	seen      map[models.ItemKey]struct{}
	nextPage  int
	requested int
	held      map[int]*models.FeedPage
	inFlight  bool
	hasMore   bool
	lastErr   error

	active        int
	prompted      bool
	promptVisible bool
}

// NewController creates a controller. Non-positive config values fall back to [DefaultConfig].
func NewController(cfg Config) *Controller {
	def := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.PrefetchDistance <= 0 {
		cfg.PrefetchDistance = def.PrefetchDistance
	}
	if cfg.PromptIndex <= 0 {
		cfg.PromptIndex = def.PromptIndex
	}
	if cfg.GuestMaxIndex <= 0 {
		cfg.GuestMaxIndex = def.GuestMaxIndex
	}
	return &Controller{cfg: cfg}
}

// Start begins a browsing session and returns the first-page request.
func (c *Controller) Start(identity string, authenticated bool) Request {
	return c.reset(identity, authenticated)
}

// SetIdentity reacts to a session change. When the identity differs the feed is reset to
// page 0 and the returned request must be executed; results of older requests will be ignored.
func (c *Controller) SetIdentity(identity string, authenticated bool) (Request, bool) {
	if c.started && identity == c.identity && authenticated == c.authenticated {
		return Request{}, false
	}
	return c.reset(identity, authenticated), true
}

func (c *Controller) reset(identity string, authenticated bool) Request {
	c.started = true
	c.identity = identity
	c.authenticated = authenticated
	c.generation++

	c.items = nil
	c.seen = make(map[models.ItemKey]struct{})
	c.nextPage = 0
	c.requested = -1
	c.held = make(map[int]*models.FeedPage)
	c.hasMore = false
	c.lastErr = nil
	c.active = 0
	if authenticated {
		c.promptVisible = false
	}

	c.state = Loading
	return c.request()
}

// Retry re-requests the first page after a terminal first-page failure.
func (c *Controller) Retry() (Request, bool) {
	if c.state != Errored {
		return Request{}, false
	}
	return c.reset(c.identity, c.authenticated), true
}

// request marks the next page as in flight.
func (c *Controller) request() Request {
	if c.requested < c.nextPage-1 {
		c.requested = c.nextPage - 1
	}
	c.requested++
	c.inFlight = true
	return Request{Generation: c.generation, Identity: c.identity, Page: c.requested, Size: c.cfg.PageSize}
}

// Apply folds a fetch result into the feed. It returns a follow-up request when the new state
// already warrants a prefetch. Results from an older generation or for already-applied pages
// are dropped.
func (c *Controller) Apply(r Result) (Request, bool) {
	if r.Generation != c.generation || r.Request.Page < c.nextPage {
		return Request{}, false
	}

	if r.Request.Page == c.requested {
		c.inFlight = false
	}

	if r.Err != nil || r.Page == nil {
		c.lastErr = r.Err
		if len(c.items) == 0 && c.nextPage == 0 {
			c.state = Errored
			return Request{}, false
		}
		c.state = Ready
		c.requested = c.nextPage - 1
		return Request{}, false
	}

	c.held[r.Request.Page] = r.Page
	for {
		page, ok := c.held[c.nextPage]
		if !ok {
			break
		}
		delete(c.held, c.nextPage)
		c.append(page)
		c.nextPage++
	}

	if c.nextPage == 0 {
		// still waiting on page 0
		return Request{}, false
	}

	c.lastErr = nil
	if c.inFlight {
		c.state = FetchingMore
		return Request{}, false
	}
	c.state = Ready
	return c.maybePrefetch()
}

func (c *Controller) append(page *models.FeedPage) {
	for _, item := range page.Content {
		key := item.Key()
		if _, dup := c.seen[key]; dup {
			continue
		}
		c.seen[key] = struct{}{}
		c.items = append(c.items, item)
	}
	c.hasMore = !page.Last
}

// Activate records the item at index as the active one. For guests the first activation at or
// beyond the prompt index raises the interstitial. For signed-in users it may return a
// prefetch request.
func (c *Controller) Activate(index int) (Request, bool) {
	if n := c.Slots(); n == 0 {
		return Request{}, false
	} else if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}
	c.active = index

	if !c.authenticated && index >= c.cfg.PromptIndex {
		c.ShowInterstitial()
	}
	return c.maybePrefetch()
}

func (c *Controller) maybePrefetch() (Request, bool) {
	if !c.authenticated || !c.hasMore || c.inFlight {
		return Request{}, false
	}
	if c.state != Ready {
		return Request{}, false
	}
	if c.active < len(c.items)-c.cfg.PrefetchDistance {
		return Request{}, false
	}
	c.state = FetchingMore
	return c.request(), true
}

// ShowInterstitial raises the guest sign-in prompt. It is a no-op once the prompt has been
// shown in this session.
func (c *Controller) ShowInterstitial() {
	if c.prompted {
		return
	}
	c.prompted = true
	c.promptVisible = true
}

// DismissInterstitial hides the prompt without resetting the once-per-session record.
func (c *Controller) DismissInterstitial() { c.promptVisible = false }

// InterstitialVisible reports whether the prompt is currently shown.
func (c *Controller) InterstitialVisible() bool { return c.promptVisible }

// HasPrompted reports whether the prompt has been shown this session.
func (c *Controller) HasPrompted() bool { return c.prompted }

// Slots is the number of scrollable positions: every item, plus the end-of-feed prompt for guests.
func (c *Controller) Slots() int {
	if !c.authenticated && len(c.items) > 0 {
		return len(c.items) + 1
	}
	return len(c.items)
}

// IsEndSlot reports whether index is the guest end-of-feed prompt.
func (c *Controller) IsEndSlot(index int) bool {
	return !c.authenticated && len(c.items) > 0 && index == len(c.items)
}

// MaxIndex is the furthest index the user may scroll to.
func (c *Controller) MaxIndex() int {
	last := c.Slots() - 1
	if last < 0 {
		return 0
	}
	if c.clamped() && last > c.cfg.GuestMaxIndex {
		return c.cfg.GuestMaxIndex
	}
	return last
}

// ClampOffset limits a scroll offset (in rows) for guests who reached the maximum index.
// Without the clamp variant, or for signed-in users, offset is returned unchanged.
func (c *Controller) ClampOffset(offset, itemHeight int) int {
	if !c.clamped() || c.active < c.cfg.GuestMaxIndex {
		return offset
	}
	if limit := c.cfg.GuestMaxIndex * itemHeight; offset > limit {
		return limit
	}
	return offset
}

func (c *Controller) clamped() bool {
	return c.cfg.ClampGuestScroll && !c.authenticated
}

func (c *Controller) State() State              { return c.state }
func (c *Controller) Items() []models.MediaItem { return c.items }
func (c *Controller) Len() int                  { return len(c.items) }
func (c *Controller) Active() int               { return c.active }
func (c *Controller) HasMore() bool             { return c.hasMore }
func (c *Controller) InFlight() bool            { return c.inFlight }
func (c *Controller) Err() error                { return c.lastErr }
func (c *Controller) Generation() uint64        { return c.generation }
func (c *Controller) Identity() string          { return c.identity }
func (c *Controller) Authenticated() bool       { return c.authenticated }
func (c *Controller) Config() Config            { return c.cfg }

// ActiveItem returns the active media item, or false when the active slot is not an item.
func (c *Controller) ActiveItem() (models.MediaItem, bool) {
	if c.active < 0 || c.active >= len(c.items) {
		return models.MediaItem{}, false
	}
	return c.items[c.active], true
}
