package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	halfDown key.Binding
	halfUp   key.Binding
	preview  key.Binding
	like     key.Binding
	add      key.Binding
	open     key.Binding
	feed     key.Binding
	search   key.Binding
	library  key.Binding
	filter   key.Binding
	typeNext key.Binding
	find     key.Binding
	tabs     key.Binding
	reload   key.Binding
	login    key.Binding
	logout   key.Binding
	enter    key.Binding
	submit   key.Binding
	back     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
		halfDown: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "half down")),
		halfUp:   key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "half up")),
		preview:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "preview")),
		like:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to library")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in iTunes")),
		feed:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "discover")),
		search:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "search")),
		library:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "library")),
		filter:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "type filter")),
		typeNext: key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		find:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "type")),
		tabs:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "library/favorites")),
		reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		login:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log in")),
		logout:   key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "log out")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		submit:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.feed, k.search, k.library, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.halfDown, k.halfUp},
		{k.preview, k.like, k.add, k.open},
		{k.feed, k.search, k.library, k.login, k.logout, k.quit},
	}
}
