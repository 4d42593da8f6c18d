package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/resonance/internal/feed"
	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/session"
	"github.com/desertthunder/resonance/internal/shared"
)

func (m *Model) fetchPage(req feed.Request) tea.Cmd {
	return func() tea.Msg {
		page, err := m.pager.Fetch(m.ctx, req.Identity, req.Page, req.Size)
		return feedPageMsg(feed.Result{Request: req, Page: page, Err: err})
	}
}

func (m *Model) handleFeedPage(res feed.Result) tea.Cmd {
	stale := res.Generation != m.feed.Generation()
	next, more := m.feed.Apply(res)
	if stale {
		return nil
	}

	var cmds []tea.Cmd
	if more {
		cmds = append(cmds, m.fetchPage(next))
	}

	if res.Err != nil {
		if m.feed.State() == feed.Errored {
			m.logger.Error("feed failed", "err", res.Err)
		} else {
			m.setError("Could not load more", res.Err)
		}
		return tea.Batch(cmds...)
	}

	cmds = append(cmds, m.observe())
	return tea.Batch(cmds...)
}

// observe feeds the current viewport to the observer and applies the resulting events.
func (m *Model) observe() tea.Cmd {
	if m.view != FeedView {
		return nil
	}

	h := m.itemHeight()
	events := m.observer.Observe(feed.Stack(m.feed.Slots(), h), feed.Viewport{Top: m.offset, Height: h})

	items := m.feed.Items()
	for _, ev := range events {
		if ev.Kind == feed.Deactivated && ev.Index < len(items) {
			m.items.Deactivate(items[ev.Index].Key())
		}
	}

	idx, ok := feed.LastActivated(events)
	if !ok {
		return nil
	}
	if req, fetch := m.feed.Activate(idx); fetch {
		return m.fetchPage(req)
	}
	return nil
}

// scrollTo moves the viewport to offset rows, bounded by the feed and the guest clamp.
func (m *Model) scrollTo(offset int) tea.Cmd {
	h := m.itemHeight()
	offset = max(0, min(offset, m.feed.MaxIndex()*h))
	m.offset = m.feed.ClampOffset(offset, h)
	return m.observe()
}

// snapOffset returns the card boundary after (dir > 0) or before (dir < 0) offset.
func snapOffset(offset, height, dir int) int {
	if dir > 0 {
		return (offset/height + 1) * height
	}
	if offset%height != 0 {
		return (offset / height) * height
	}
	return offset - height
}

func (m *Model) deactivateActive() {
	if item, ok := m.feed.ActiveItem(); ok {
		m.items.Deactivate(item.Key())
	}
}

func (m *Model) tickActivePreview() {
	if m.view != FeedView {
		return
	}
	media, ok := m.feed.ActiveItem()
	if !ok {
		return
	}
	if item, ok := m.items.Lookup(media.Key()); ok && item.Preview() != nil {
		item.Preview().Tick()
	}
}

func (m *Model) handleFeedKeys(msg tea.KeyMsg) tea.Cmd {
	h := m.itemHeight()

	switch {
	case key.Matches(msg, m.keys.down):
		return m.scrollTo(snapOffset(m.offset, h, 1))
	case key.Matches(msg, m.keys.up):
		return m.scrollTo(snapOffset(m.offset, h, -1))
	case key.Matches(msg, m.keys.halfDown):
		return m.scrollTo(m.offset + h/2)
	case key.Matches(msg, m.keys.halfUp):
		return m.scrollTo(m.offset - h/2)
	case key.Matches(msg, m.keys.reload):
		if req, ok := m.feed.Retry(); ok {
			m.pager.Invalidate()
			m.observer.Reset()
			m.offset = 0
			return m.fetchPage(req)
		}
		return nil
	case key.Matches(msg, m.keys.enter):
		if m.feed.IsEndSlot(m.feed.Active()) {
			return m.navigate(loginRoute(session.RouteHome))
		}
		return nil
	}

	media, ok := m.feed.ActiveItem()
	if !ok {
		return nil
	}
	return m.handleItemKeys(msg, media, true)
}

// handleItemKeys applies the per-item actions shared by the feed and search results.
func (m *Model) handleItemKeys(msg tea.KeyMsg, media models.MediaItem, withPreview bool) tea.Cmd {
	item := m.items.Get(media)

	switch {
	case withPreview && key.Matches(msg, m.keys.preview):
		if p := item.Preview(); p != nil {
			_ = p.Toggle(m.ctx)
		}
	case key.Matches(msg, m.keys.like):
		return m.gated(func() tea.Cmd { return m.like(item) })
	case key.Matches(msg, m.keys.add):
		return m.gated(func() tea.Cmd { return m.openLibraryDialog(item) })
	case key.Matches(msg, m.keys.open):
		return m.openITunes(media)
	}
	return nil
}

func (m *Model) handleInterstitialKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.enter):
		m.feed.DismissInterstitial()
		return m.navigate(loginRoute(session.RouteHome))
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.feed.DismissInterstitial()
	}
	return nil
}

func (m *Model) handleGateKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.enter):
		m.gate.Close()
		return m.navigate(loginRoute(m.route))
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.gate.Close()
	}
	return nil
}

func (m *Model) renderFeed() string {
	switch m.feed.State() {
	case feed.Loading:
		return m.spinner.View() + " Loading discovery feed..."
	case feed.Errored:
		return styles.err.Render(fmt.Sprintf("Could not load the feed: %v", m.feed.Err())) +
			"\n\n" + styles.help.Render("press r to retry")
	}
	if m.feed.Slots() == 0 {
		return styles.help.Render("Nothing to discover right now.")
	}

	h := m.itemHeight()
	first := m.offset / h
	var lines []string
	for i := first; i <= first+1 && i < m.feed.Slots(); i++ {
		lines = append(lines, strings.Split(m.renderSlot(i, h), "\n")...)
	}

	start := min(m.offset-first*h, len(lines))
	end := min(start+h, len(lines))
	return strings.Join(lines[start:end], "\n")
}

// renderSlot renders slot i as exactly h lines.
func (m *Model) renderSlot(i, h int) string {
	width := max(m.width-4, 20)
	style := styles.card
	if i == m.feed.Active() {
		style = styles.focus
	}
	style = style.Width(width).Height(h).MaxHeight(h)

	if m.feed.IsEndSlot(i) {
		return style.Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.title.Render("You've reached the end of the free preview"),
			"Sign in to keep discovering, like tracks and build your library.",
			"",
			styles.help.Render("press enter to log in"),
		))
	}

	media := m.feed.Items()[i]
	return style.Render(m.renderCard(media, width))
}

func (m *Model) renderCard(media models.MediaItem, width int) string {
	lines := []string{
		styles.title.Render(fmt.Sprintf("[%s] %s", media.Type.Label(), media.Title)),
		media.ArtistName,
	}

	var meta []string
	if media.Genre != nil && *media.Genre != "" {
		meta = append(meta, *media.Genre)
	}
	if media.ReleaseDate != nil && *media.ReleaseDate != "" {
		date := *media.ReleaseDate
		if len(date) > 10 {
			date = date[:10]
		}
		meta = append(meta, date)
	}
	if media.AverageRating != nil {
		meta = append(meta, fmt.Sprintf("★ %.1f (%d)", *media.AverageRating, media.RatingCount))
	}
	if len(meta) > 0 {
		lines = append(lines, styles.help.Render(strings.Join(meta, " • ")))
	}

	if media.Description != nil && *media.Description != "" {
		lines = append(lines, "", shared.Truncate(*media.Description, width*2))
	}

	lines = append(lines, "", m.renderPreview(media), m.renderFlags(media))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderPreview(media models.MediaItem) string {
	if media.Preview() == "" {
		return styles.help.Render("no preview available")
	}

	icon, pct := "▶", 0.0
	if item, ok := m.items.Lookup(media.Key()); ok && item.Preview() != nil {
		if item.Preview().Playing() {
			icon = "⏸"
		}
		pct = item.Preview().Progress()
	}
	return icon + " " + m.progress.ViewAs(pct/100)
}

func (m *Model) renderFlags(media models.MediaItem) string {
	like, lib := styles.help.Render("♡ like"), styles.help.Render("+ add to library")
	if item, ok := m.items.Lookup(media.Key()); ok {
		switch {
		case item.Liked():
			like = styles.ok.Render("♥ liked")
		case item.LikePending():
			like = styles.warn.Render("♥ liking...")
		}
		if item.InLibrary() {
			lib = styles.ok.Render("✓ in library")
		}
	}
	parts := []string{like, lib}
	if media.ITunes() != "" {
		parts = append(parts, styles.help.Render("o iTunes"))
	}
	return strings.Join(parts, "   ")
}
