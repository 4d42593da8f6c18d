package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/resonance/internal/feeditem"
)

// libraryDialog collects an optional comment before adding an item to the library.
type libraryDialog struct {
	item  *feeditem.Item
	input textarea.Model
}

func newLibraryDialog() libraryDialog {
	ta := textarea.New()
	ta.Placeholder = "Add a comment (optional)"
	ta.CharLimit = 500
	ta.ShowLineNumbers = false
	ta.SetWidth(48)
	ta.SetHeight(3)
	return libraryDialog{input: ta}
}

func (d *libraryDialog) visible() bool {
	return d.item != nil && d.item.DialogOpen()
}

func (d *libraryDialog) open(item *feeditem.Item) tea.Cmd {
	d.item = item
	d.input.Reset()
	return d.input.Focus()
}

func (d *libraryDialog) close() {
	if d.item != nil {
		d.item.CloseLibraryDialog()
	}
	d.item = nil
	d.input.Blur()
}

func (d *libraryDialog) resize(width int) {
	d.input.SetWidth(max(min(width-12, 60), 20))
}

func (d *libraryDialog) comment() string { return d.input.Value() }

func (d *libraryDialog) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return cmd
}

func (m *Model) handleDialogKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.back):
		m.dialog.close()
		return nil
	case key.Matches(msg, m.keys.submit):
		return m.addToLibrary()
	}
	if m.dialog.item.LibraryPending() {
		return nil
	}
	return m.dialog.update(msg)
}

func (m *Model) renderOverlay() string {
	switch {
	case m.dialog.visible():
		return m.renderDialog()
	case m.gate.Visible():
		return styles.overlay.Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.title.Render("Sign in required"),
			"Log in to like tracks and save them to your library.",
			"",
			styles.help.Render("enter: log in • esc: not now"),
		))
	case m.view == FeedView && m.feed.InterstitialVisible():
		return styles.overlay.Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.title.Render("Enjoying the music?"),
			"Create an account or log in to keep discovering",
			"and get recommendations built around your taste.",
			"",
			styles.help.Render("enter: log in • esc: keep browsing"),
		))
	}
	return ""
}

func (m *Model) renderDialog() string {
	item := m.dialog.item
	media := item.Media()

	lines := []string{
		styles.title.Render("Add to library"),
		fmt.Sprintf("%s — %s", media.Title, media.ArtistName),
		"",
		m.dialog.input.View(),
		"",
	}
	switch {
	case item.LibraryPending():
		lines = append(lines, m.spinner.View()+" saving")
	case item.DialogErr() != nil:
		lines = append(lines, styles.err.Render(fmt.Sprintf("Could not add: %v", item.DialogErr())))
	}
	lines = append(lines, styles.help.Render("ctrl+s: save • esc: cancel"))
	return styles.overlay.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
