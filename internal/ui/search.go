package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/resonance/internal/feeditem"
	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/search"
	"github.com/desertthunder/resonance/internal/shared"
)

// filters is the tab cycle of the search type filter; "" means all types.
var filters = append([]models.MediaType{""}, models.MediaTypes...)

type searchModel struct {
	input     textinput.Model
	debouncer *search.Debouncer
	results   list.Model
	pageSize  int

	issued  search.Query
	loading bool
	total   int
	media   []models.MediaItem
	err     error
}

func newSearchModel(cfg shared.SearchConfig) searchModel {
	ti := textinput.New()
	ti.Placeholder = "Search tracks, albums, artists..."
	ti.CharLimit = 100
	ti.Prompt = "› "

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = "Results"
	results.SetShowHelp(false)
	results.SetFilteringEnabled(false)
	results.DisableQuitKeybindings()

	return searchModel{
		input:     ti,
		debouncer: search.NewDebouncer(cfg.Debounce(), cfg.MinQueryLength),
		results:   results,
		pageSize:  cfg.PageSize,
	}
}

func (s *searchModel) resize(width, height int) {
	s.input.Width = max(width-6, 10)
	s.results.SetSize(max(width-2, 10), max(height-3, 3))
}

func (s *searchModel) reset() {
	s.debouncer.Reset()
	s.issued = search.Query{}
	s.loading = false
	s.media = nil
	s.total = 0
	s.err = nil
	s.results.SetItems(nil)
}

func (s *searchModel) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return cmd
}

// refreshFlags re-renders result rows after a like or library change.
func (s *searchModel) refreshFlags(items *feeditem.Registry) {
	rows := make([]list.Item, len(s.media))
	for i, media := range s.media {
		row := mediaItem{media: media}
		if item, ok := items.Lookup(media.Key()); ok {
			row.liked, row.saved = item.Liked(), item.InLibrary()
		}
		rows[i] = row
	}
	s.results.SetItems(rows)
}

func (s *searchModel) selected() (models.MediaItem, bool) {
	row, ok := s.results.SelectedItem().(mediaItem)
	return row.media, ok
}

func (s *searchModel) nextFilter() models.MediaType {
	current := s.debouncer.Filter()
	for i, f := range filters {
		if f == current {
			return filters[(i+1)%len(filters)]
		}
	}
	return filters[0]
}

// debounce schedules the settle check for seq.
func (s *searchModel) debounce(seq uint64) tea.Cmd {
	return tea.Tick(s.debouncer.Delay(), func(time.Time) tea.Msg { return searchSettleMsg(seq) })
}

func (m *Model) handleSearchInput(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.search.input.Blur()
		return nil
	case key.Matches(msg, m.keys.filter):
		return m.search.debounce(m.search.debouncer.SetFilter(m.search.nextFilter()))
	}

	before := m.search.input.Value()
	cmd := m.search.update(msg)
	if after := m.search.input.Value(); after != before {
		return tea.Batch(cmd, m.search.debounce(m.search.debouncer.Input(after)))
	}
	return cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.find):
		return m.search.input.Focus()
	case key.Matches(msg, m.keys.filter):
		return m.search.debounce(m.search.debouncer.SetFilter(m.search.nextFilter()))
	}

	if media, ok := m.search.selected(); ok {
		if key.Matches(msg, m.keys.like, m.keys.add, m.keys.open) {
			return m.handleItemKeys(msg, media, false)
		}
	}

	var cmd tea.Cmd
	m.search.results, cmd = m.search.results.Update(msg)
	return cmd
}

// settleSearch issues the query for seq when the debouncer lets it through.
func (m *Model) settleSearch(seq uint64) tea.Cmd {
	q, ok := m.search.debouncer.Settle(seq)
	if !ok {
		return nil
	}

	m.search.issued = q
	m.search.loading = true
	token, size := m.snap.Token, m.search.pageSize
	m.logger.Debug("search", "query", q.Text, "type", q.Filter)

	return func() tea.Msg {
		page, err := m.api.Search(m.ctx, token, q.Text, q.Filter, 0, size)
		return searchResultsMsg(q, page, err)
	}
}

func (m *Model) handleSearchResults(res searchResults) {
	if res.query != m.search.issued {
		return
	}
	m.search.loading = false
	m.search.err = res.err
	if res.err != nil {
		m.logger.Warn("search failed", "query", res.query.Text, "err", res.err)
		return
	}

	m.search.media = res.page.Content
	m.search.total = res.page.TotalElements
	m.search.refreshFlags(m.items)
	m.search.results.Select(0)
}

func (m *Model) renderSearch() string {
	s := &m.search
	filter := fmt.Sprintf("type: %s", s.debouncer.Filter().Label())

	var state string
	switch {
	case s.loading:
		state = m.spinner.View() + " searching"
	case s.err != nil:
		state = styles.err.Render(fmt.Sprintf("Search failed: %v", s.err))
	case s.issued.Text == "" && len([]rune(s.input.Value())) < s.debouncer.MinLength():
		state = styles.help.Render(fmt.Sprintf("type at least %d characters", s.debouncer.MinLength()))
	case s.issued.Text != "" && len(s.media) == 0:
		state = styles.help.Render(fmt.Sprintf("no results for %q", s.issued.Text))
	case s.issued.Text != "":
		state = styles.help.Render(fmt.Sprintf("%d results for %q", s.total, s.issued.Text))
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top, s.input.View(), "  ", styles.warn.Render(filter))
	return lipgloss.JoinVertical(lipgloss.Left, header, state, "", s.results.View())
}
