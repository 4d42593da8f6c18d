package feed

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/desertthunder/resonance/internal/models"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeFetcher) Feed(_ context.Context, token string, page, size int) (*models.FeedPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, token)
	if f.err != nil {
		return nil, f.err
	}
	return pageOf(page, size, page >= 1), nil
}

func (f *fakeFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestPager(t *testing.T) {
	ctx := context.Background()

	t.Run("Caches Per Identity", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		p := NewPager(fetcher, nil)

		for range 2 {
			got, err := p.Fetch(ctx, "", 0, 10)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got.Content) != 10 {
				t.Errorf("expected 10 items, got %d", len(got.Content))
			}
		}
		if fetcher.count() != 1 {
			t.Errorf("expected one remote call, got %d", fetcher.count())
		}
		if p.cached("") != 1 {
			t.Errorf("expected one cached page, got %d", p.cached(""))
		}
	})

	t.Run("Identity Switch Drops Cache", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		p := NewPager(fetcher, nil)

		_, _ = p.Fetch(ctx, "", 0, 10)
		_, _ = p.Fetch(ctx, "tok", 0, 10)
		_, _ = p.Fetch(ctx, "", 0, 10)

		if fetcher.count() != 3 {
			t.Errorf("expected a refetch per identity change, got %d calls", fetcher.count())
		}
		if p.cached("tok") != 0 {
			t.Error("old identity pages should be gone")
		}
	})

	t.Run("Size Is Part Of The Key", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		p := NewPager(fetcher, nil)

		_, _ = p.Fetch(ctx, "tok", 0, 10)
		_, _ = p.Fetch(ctx, "tok", 0, 20)
		if fetcher.count() != 2 {
			t.Errorf("expected 2 calls, got %d", fetcher.count())
		}
	})

	t.Run("Errors Are Wrapped And Not Cached", func(t *testing.T) {
		boom := errors.New("boom")
		fetcher := &fakeFetcher{err: boom}
		p := NewPager(fetcher, nil)

		if _, err := p.Fetch(ctx, "tok", 2, 10); !errors.Is(err, boom) {
			t.Errorf("expected wrapped error, got %v", err)
		}
		if p.cached("tok") != 0 {
			t.Error("failed pages must not be cached")
		}
	})

	t.Run("Invalidate", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		p := NewPager(fetcher, nil)

		_, _ = p.Fetch(ctx, "tok", 0, 10)
		p.Invalidate()
		_, _ = p.Fetch(ctx, "tok", 0, 10)
		if fetcher.count() != 2 {
			t.Errorf("expected refetch after invalidate, got %d calls", fetcher.count())
		}
	})
}
