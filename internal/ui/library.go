package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/shared"
)

type libraryModel struct {
	library   []models.UserLibraryEntry
	favorites []models.UserLibraryEntry
	favTab    bool

	index   *entryIndex
	visible []int
	cursor  int
	filter  textinput.Model

	loading bool
	loaded  bool
	err     error
}

func newLibraryModel() libraryModel {
	ti := textinput.New()
	ti.Placeholder = "filter..."
	ti.Prompt = "/ "
	ti.CharLimit = 50
	return libraryModel{filter: ti, index: newEntryIndex(nil)}
}

func (l *libraryModel) clear() {
	*l = libraryModel{filter: l.filter, index: newEntryIndex(nil)}
	l.filter.SetValue("")
	l.filter.Blur()
}

func (l *libraryModel) entries() []models.UserLibraryEntry {
	if l.favTab {
		return l.favorites
	}
	return l.library
}

// reindex rebuilds the fuzzy index for the current tab and reapplies the filter.
func (l *libraryModel) reindex() {
	l.index = newEntryIndex(l.entries())
	l.applyFilter()
}

func (l *libraryModel) applyFilter() {
	l.visible = l.index.Filter(l.filter.Value())
	l.cursor = 0
}

func (l *libraryModel) move(delta int) {
	if len(l.visible) == 0 {
		l.cursor = 0
		return
	}
	l.cursor = max(0, min(l.cursor+delta, len(l.visible)-1))
}

func (m *Model) loadLibrary() tea.Cmd {
	m.library.loading = true
	token := m.snap.Token
	return func() tea.Msg {
		library, lerr := m.api.Library(m.ctx, token)
		favorites, ferr := m.api.Favorites(m.ctx, token)
		return libraryLoadedMsg(library, favorites, errors.Join(lerr, ferr))
	}
}

func (m *Model) handleLibrary(res libraryLoaded) {
	m.library.loading = false
	m.library.loaded = true
	m.library.err = res.err
	if res.err != nil {
		m.logger.Warn("library load failed", "err", res.err)
	}
	m.library.library = res.library
	m.library.favorites = res.favorites
	m.library.reindex()
}

func (m *Model) handleLibraryFilter(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.back):
		m.library.filter.SetValue("")
		m.library.filter.Blur()
		m.library.applyFilter()
		return nil
	case key.Matches(msg, m.keys.enter):
		m.library.filter.Blur()
		return nil
	}

	var cmd tea.Cmd
	m.library.filter, cmd = m.library.filter.Update(msg)
	m.library.applyFilter()
	return cmd
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.find):
		return m.library.filter.Focus()
	case key.Matches(msg, m.keys.tabs):
		m.library.favTab = !m.library.favTab
		m.library.reindex()
	case key.Matches(msg, m.keys.reload):
		return m.loadLibrary()
	case key.Matches(msg, m.keys.down):
		m.library.move(1)
	case key.Matches(msg, m.keys.up):
		m.library.move(-1)
	case key.Matches(msg, m.keys.halfDown):
		m.library.move(m.bodyHeight() / 2)
	case key.Matches(msg, m.keys.halfUp):
		m.library.move(-m.bodyHeight() / 2)
	}
	return nil
}

func (m *Model) renderLibrary() string {
	l := &m.library

	tabs := []string{styles.tab.Render("Library"), styles.tab.Render("Favorites")}
	if l.favTab {
		tabs[1] = styles.active.Render("Favorites")
	} else {
		tabs[0] = styles.active.Render("Library")
	}

	lines := []string{strings.Join(tabs, " ")}
	if l.filter.Focused() || l.filter.Value() != "" {
		lines = append(lines, l.filter.View())
	}
	lines = append(lines, "")

	switch {
	case l.loading && !l.loaded:
		return strings.Join(append(lines, m.spinner.View()+" loading library"), "\n")
	case l.err != nil:
		lines = append(lines, styles.err.Render(fmt.Sprintf("Could not load library: %v", l.err)))
	case len(l.entries()) == 0:
		lines = append(lines, styles.help.Render("Nothing here yet. Add items from the feed with a."))
	case len(l.visible) == 0:
		lines = append(lines, styles.help.Render("No matches."))
	}

	rows := max(m.bodyHeight()-len(lines), 1)
	first := max(0, l.cursor-rows+1)
	entries := l.entries()
	for i := first; i < len(l.visible) && i < first+rows; i++ {
		lines = append(lines, m.renderEntry(entries[l.visible[i]], i == l.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderEntry(e models.UserLibraryEntry, selected bool) string {
	cursor := "  "
	if selected {
		cursor = styles.ok.Render("▸ ")
	}

	line := fmt.Sprintf("%s — %s %s", e.MediaTitle, e.ArtistName, styles.help.Render("["+e.MediaType.Label()+"]"))
	if e.IsFavorite {
		line += " " + styles.warn.Render("♥")
	}
	if e.Rating != nil {
		line += fmt.Sprintf(" %s", strings.Repeat("★", max(0, min(*e.Rating, 5))))
	}
	if c := e.CommentText(); c != "" {
		line += " " + styles.help.Render(fmt.Sprintf("%q", shared.Truncate(c, 40)))
	}
	return cursor + line
}
