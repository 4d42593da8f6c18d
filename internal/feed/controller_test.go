package feed

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/desertthunder/resonance/internal/models"
)

func page(n int, last bool, ids ...string) *models.FeedPage {
	p := &models.FeedPage{Page: n, Size: len(ids), Last: last}
	for _, id := range ids {
		p.Content = append(p.Content, models.MediaItem{ID: id, Type: models.MediaTrack, Title: id})
	}
	return p
}

func pageOf(n, size int, last bool) *models.FeedPage {
	ids := make([]string, size)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d-%d", n, i)
	}
	return page(n, last, ids...)
}

func ids(c *Controller) []string {
	var out []string
	for _, item := range c.Items() {
		out = append(out, item.ID)
	}
	return out
}

func TestController(t *testing.T) {
	t.Run("First Page Loads", func(t *testing.T) {
		c := NewController(DefaultConfig())
		req := c.Start("", false)

		if req.Page != 0 || req.Size != 10 || c.State() != Loading {
			t.Fatalf("unexpected first request %+v in state %s", req, c.State())
		}

		if _, ok := c.Apply(Result{Request: req, Page: pageOf(0, 10, false)}); ok {
			t.Error("guests should never prefetch")
		}
		if c.State() != Ready || c.Len() != 10 {
			t.Errorf("expected ready with 10 items, got %s with %d", c.State(), c.Len())
		}
	})

	t.Run("First Page Failure Is Terminal Until Retry", func(t *testing.T) {
		c := NewController(DefaultConfig())
		req := c.Start("tok", true)

		c.Apply(Result{Request: req, Err: errors.New("boom")})
		if c.State() != Errored || c.Err() == nil {
			t.Fatalf("expected errored state, got %s", c.State())
		}
		if _, ok := c.Activate(0); ok {
			t.Error("errored feed must not fetch on scroll")
		}

		retry, ok := c.Retry()
		if !ok || retry.Page != 0 || retry.Generation == req.Generation {
			t.Fatalf("unexpected retry %+v %v", retry, ok)
		}
		c.Apply(Result{Request: retry, Page: pageOf(0, 10, false)})
		if c.State() != Ready {
			t.Errorf("expected ready after retry, got %s", c.State())
		}
		if _, ok := c.Retry(); ok {
			t.Error("retry should only apply to errored feeds")
		}
	})

	t.Run("Empty First Page Requests The Next", func(t *testing.T) {
		c := NewController(DefaultConfig())
		first := c.Start("tok", true)

		next, ok := c.Apply(Result{Request: first, Page: page(0, false)})
		if !ok || next.Page != 1 {
			t.Fatalf("expected prefetch of page 1 after an empty page, got %+v %v", next, ok)
		}
		if c.State() != FetchingMore || c.Len() != 0 {
			t.Errorf("expected fetching more with no items, got %s with %d", c.State(), c.Len())
		}

		if _, ok := c.Apply(Result{Request: next, Page: pageOf(1, 10, true)}); ok {
			t.Error("last page should stop prefetching")
		}
		if c.State() != Ready || c.Len() != 10 {
			t.Errorf("expected ready with 10 items, got %s with %d", c.State(), c.Len())
		}
	})

	t.Run("Empty Guest Page Does Not Prefetch", func(t *testing.T) {
		c := NewController(DefaultConfig())
		first := c.Start("", false)
		if _, ok := c.Apply(Result{Request: first, Page: page(0, false)}); ok {
			t.Error("guests should never prefetch")
		}
	})

	t.Run("Authenticated Prefetch Scenario", func(t *testing.T) {
		c := NewController(DefaultConfig())
		first := c.Start("tok", true)
		c.Apply(Result{Request: first, Page: pageOf(0, 10, false)})

		if _, ok := c.Activate(6); ok {
			t.Fatal("index 6 of 10 is outside the prefetch window")
		}

		next, ok := c.Activate(7)
		if !ok || next.Page != 1 {
			t.Fatalf("expected prefetch of page 1, got %+v %v", next, ok)
		}
		if c.State() != FetchingMore {
			t.Errorf("expected fetching state, got %s", c.State())
		}

		if _, ok := c.Activate(8); ok {
			t.Error("a second trigger while in flight must be suppressed")
		}
		if _, ok := c.Activate(9); ok {
			t.Error("a second trigger while in flight must be suppressed")
		}

		c.Apply(Result{Request: next, Page: pageOf(1, 10, true)})
		if c.Len() != 20 {
			t.Errorf("expected 20 items, got %d", c.Len())
		}
		if c.Active() != 9 {
			t.Errorf("active index should be unaffected, got %d", c.Active())
		}
		if _, ok := c.Activate(19); ok {
			t.Error("last page reached, no further prefetch")
		}
	})

	t.Run("Guests Never Prefetch", func(t *testing.T) {
		c := NewController(DefaultConfig())
		req := c.Start("", false)
		c.Apply(Result{Request: req, Page: pageOf(0, 10, false)})

		for i := 0; i <= 10; i++ {
			if _, ok := c.Activate(i); ok {
				t.Fatalf("guest activation at %d produced a request", i)
			}
		}
	})

	t.Run("Out Of Order Pages Are Held", func(t *testing.T) {
		c := NewController(DefaultConfig())
		first := c.Start("tok", true)
		c.Apply(Result{Request: first, Page: page(0, false, "a", "b")})

		// page 1 is requested immediately because the first page is short
		if !c.InFlight() {
			t.Fatal("expected page 1 in flight")
		}
		gen := c.Generation()

		c.Apply(Result{Request: Request{Generation: gen, Page: 2}, Page: page(2, false, "e", "f")})
		if got := ids(c); !reflect.DeepEqual(got, []string{"a", "b"}) {
			t.Fatalf("page 2 must wait for page 1, got %v", got)
		}

		c.Apply(Result{Request: Request{Generation: gen, Page: 1}, Page: page(1, false, "c", "d")})
		if got := ids(c); !reflect.DeepEqual(got, []string{"a", "b", "c", "d", "e", "f"}) {
			t.Errorf("expected page order, got %v", got)
		}

		follow, ok := c.Activate(5)
		if !ok || follow.Page != 3 {
			t.Errorf("next request should skip held pages, got %+v %v", follow, ok)
		}
	})

	t.Run("Duplicates Are Dropped By Composite Key", func(t *testing.T) {
		c := NewController(DefaultConfig())
		req := c.Start("tok", true)
		p := page(0, true, "1", "1")
		p.Content = append(p.Content, models.MediaItem{ID: "1", Type: models.MediaAlbum})
		c.Apply(Result{Request: req, Page: p})

		if c.Len() != 2 {
			t.Errorf("expected track 1 and album 1, got %d items", c.Len())
		}
	})

	t.Run("Identity Change Resets Feed", func(t *testing.T) {
		c := NewController(DefaultConfig())
		guest := c.Start("", false)
		c.Apply(Result{Request: guest, Page: pageOf(0, 10, false)})
		c.Activate(2)

		if _, changed := c.SetIdentity("", false); changed {
			t.Error("same identity should not reset")
		}

		req, changed := c.SetIdentity("tok", true)
		if !changed || req.Page != 0 || req.Identity != "tok" {
			t.Fatalf("expected page 0 request for new identity, got %+v", req)
		}
		if c.Len() != 0 || c.Active() != 0 || c.State() != Loading {
			t.Errorf("expected empty loading feed, got %d items at %d in %s", c.Len(), c.Active(), c.State())
		}

		// a late result from the guest generation is discarded
		c.Apply(Result{Request: guest, Page: pageOf(0, 10, false)})
		if c.Len() != 0 {
			t.Error("stale generation result must be discarded")
		}

		c.Apply(Result{Request: req, Page: pageOf(0, 10, false)})
		if c.Len() != 10 {
			t.Errorf("expected fresh page, got %d items", c.Len())
		}
	})

	t.Run("Next Page Failure Keeps Feed And Retries On Scroll", func(t *testing.T) {
		c := NewController(DefaultConfig())
		first := c.Start("tok", true)
		c.Apply(Result{Request: first, Page: pageOf(0, 10, false)})

		next, _ := c.Activate(8)
		c.Apply(Result{Request: next, Err: errors.New("timeout")})

		if c.State() != Ready || c.Len() != 10 || c.Err() == nil {
			t.Fatalf("expected ready with inline error, got %s %d %v", c.State(), c.Len(), c.Err())
		}

		again, ok := c.Activate(9)
		if !ok || again.Page != 1 {
			t.Errorf("expected retry of page 1, got %+v %v", again, ok)
		}
	})
}

func TestGuestGate(t *testing.T) {
	t.Run("Prompt Shown Once", func(t *testing.T) {
		c := NewController(DefaultConfig())
		req := c.Start("", false)
		c.Apply(Result{Request: req, Page: pageOf(0, 10, false)})

		c.Activate(2)
		if c.HasPrompted() {
			t.Fatal("prompt should not show before index 3")
		}

		c.Activate(3)
		if !c.HasPrompted() || !c.InterstitialVisible() {
			t.Fatal("prompt should show at index 3")
		}

		c.DismissInterstitial()
		c.Activate(1)
		c.Activate(3)
		c.Activate(5)
		if c.InterstitialVisible() {
			t.Error("prompt must not show again")
		}
		if !c.HasPrompted() {
			t.Error("prompt must remain recorded as shown")
		}
	})

	t.Run("ShowInterstitial Is Idempotent", func(t *testing.T) {
		c := NewController(DefaultConfig())
		c.ShowInterstitial()
		c.ShowInterstitial()
		if !c.InterstitialVisible() {
			t.Fatal("expected visible prompt")
		}
		c.DismissInterstitial()
		c.ShowInterstitial()
		if c.InterstitialVisible() {
			t.Error("prompt already shown once, must stay hidden")
		}
	})

	t.Run("Survives Identity Changes", func(t *testing.T) {
		c := NewController(DefaultConfig())
		req := c.Start("", false)
		c.Apply(Result{Request: req, Page: pageOf(0, 10, false)})
		c.Activate(4)

		c.SetIdentity("tok", true)
		if c.InterstitialVisible() {
			t.Error("signing in hides the prompt")
		}
		req, _ = c.SetIdentity("", false)
		c.Apply(Result{Request: req, Page: pageOf(0, 10, false)})
		c.Activate(4)
		if c.InterstitialVisible() {
			t.Error("prompt is once per session, not per identity")
		}
	})

	t.Run("Authenticated Users Are Never Prompted", func(t *testing.T) {
		c := NewController(DefaultConfig())
		req := c.Start("tok", true)
		c.Apply(Result{Request: req, Page: pageOf(0, 10, true)})
		c.Activate(9)
		if c.HasPrompted() {
			t.Error("signed-in users should not see the interstitial")
		}
	})

	t.Run("End Slot", func(t *testing.T) {
		c := NewController(DefaultConfig())
		req := c.Start("", false)
		c.Apply(Result{Request: req, Page: pageOf(0, 10, false)})

		if c.Slots() != 11 || !c.IsEndSlot(10) || c.IsEndSlot(9) {
			t.Errorf("expected end prompt at index 10, slots=%d", c.Slots())
		}
		c.Activate(50)
		if c.Active() != 10 {
			t.Errorf("activation should clamp to the last slot, got %d", c.Active())
		}
		if _, ok := c.ActiveItem(); ok {
			t.Error("end slot is not an item")
		}
	})
}

func TestClamp(t *testing.T) {
	t.Run("Variant Disabled", func(t *testing.T) {
		c := NewController(DefaultConfig())
		req := c.Start("", false)
		c.Apply(Result{Request: req, Page: pageOf(0, 10, false)})
		c.Activate(4)

		if c.MaxIndex() != 10 {
			t.Errorf("expected no index cap, got %d", c.MaxIndex())
		}
		if got := c.ClampOffset(9*20, 20); got != 180 {
			t.Errorf("offset should pass through, got %d", got)
		}
	})

	t.Run("Variant Enabled Scenario", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ClampGuestScroll = true
		c := NewController(cfg)
		req := c.Start("", false)
		c.Apply(Result{Request: req, Page: pageOf(0, 10, false)})

		c.Activate(3)
		if !c.HasPrompted() {
			t.Fatal("prompt should show at 3")
		}
		if got := c.ClampOffset(6*20, 20); got != 120 {
			t.Errorf("below max index no clamp applies, got %d", got)
		}

		c.Activate(1)
		c.Activate(4)
		if c.MaxIndex() != 4 {
			t.Errorf("expected cap at 4, got %d", c.MaxIndex())
		}
		if got := c.ClampOffset(6*20, 20); got != 80 {
			t.Errorf("expected offset held at index 4 (80 rows), got %d", got)
		}
	})

	t.Run("Signed In Users Are Not Clamped", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ClampGuestScroll = true
		c := NewController(cfg)
		req := c.Start("tok", true)
		c.Apply(Result{Request: req, Page: pageOf(0, 10, true)})
		c.Activate(6)

		if c.MaxIndex() != 9 || c.ClampOffset(200, 20) != 200 {
			t.Error("clamp applies to guests only")
		}
	})
}
