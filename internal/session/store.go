// Package session holds the process-wide authentication state.
//
// A [Store] resolves the bearer token from its sources in priority order (OAuth cookie first,
// then the password-login token) and notifies subscribers whenever the resolved
// [Snapshot] changes. Components that only need to ask "is anyone signed in" depend on [Reader].
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/resonance/internal/shared"
)

// Snapshot is the resolved session at one point in time.
type Snapshot struct {
	Token         string
	Authenticated bool
}

// Identity is the cache key for per-user data. Guests share the empty identity.
func (s Snapshot) Identity() string { return s.Token }

// Reader exposes the current session without the ability to change it.
type Reader interface {
	Snapshot() Snapshot
}

// Ticker abstracts the polling clock used by [Store.Watch].
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

// NewTicker returns a [Ticker] firing every d. Non-positive intervals fall back to one second.
func NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		d = time.Second
	}
	return timeTicker{time.NewTicker(d)}
}

// Store is the reactive session.
type Store struct {
	sources []Source
	logger  *log.Logger

	mu     sync.Mutex
	snap   Snapshot
	subs   map[int]func(Snapshot)
	nextID int
}

// NewStore creates a store that consults sources in the given order.
func NewStore(logger *log.Logger, sources ...Source) *Store {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Store{sources: sources, logger: logger, subs: make(map[int]func(Snapshot))}
}

// Snapshot returns the current session.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers fn to run after every change. The returned func unsubscribes.
//
// Callbacks run on the goroutine that caused the change and must not block.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Refresh re-reads the sources. The first non-empty token wins.
//
// A failing source is skipped. When a source failed and no other source holds a token, the
// current snapshot is kept and the joined error is returned.
func (s *Store) Refresh(ctx context.Context) (Snapshot, error) {
	var (
		next Snapshot
		errs []error
	)
	for _, src := range s.sources {
		token, err := src.Token(ctx)
		if err != nil {
			s.logger.Warn("session source failed", "source", src.Name(), "err", err)
			errs = append(errs, err)
			continue
		}
		if token != "" {
			next = Snapshot{Token: token, Authenticated: true}
			break
		}
	}

	if ctx.Err() != nil {
		return s.Snapshot(), ctx.Err()
	}
	if len(errs) > 0 && !next.Authenticated {
		return s.Snapshot(), errors.Join(errs...)
	}
	s.set(next)
	return next, errors.Join(errs...)
}

// Login stores token in the named source and refreshes.
func (s *Store) Login(ctx context.Context, source, token string) (Snapshot, error) {
	if token == "" {
		return s.Snapshot(), fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}

	src := s.source(source)
	if src == nil {
		return s.Snapshot(), fmt.Errorf("%w: unknown session source %q", shared.ErrInvalidArgument, source)
	}
	if err := src.Save(ctx, token); err != nil {
		return s.Snapshot(), err
	}

	s.logger.Info("signed in", "source", source)
	return s.Refresh(ctx)
}

// Logout clears every source and publishes the guest snapshot.
func (s *Store) Logout(ctx context.Context) error {
	var errs []error
	for _, src := range s.sources {
		if err := src.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.set(Snapshot{})
	s.logger.Info("signed out")
	return errors.Join(errs...)
}

// Watch refreshes on every tick until ctx ends, then stops the ticker.
func (s *Store) Watch(ctx context.Context, ticker Ticker) error {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Debug("session refresh", "err", err)
			}
		}
	}
}

func (s *Store) source(name string) Source {
	for _, src := range s.sources {
		if src.Name() == name {
			return src
		}
	}
	return nil
}

func (s *Store) set(next Snapshot) {
	s.mu.Lock()
	if next == s.snap {
		s.mu.Unlock()
		return
	}
	s.snap = next
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}
