package ui

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/resonance/internal/feed"
	"github.com/desertthunder/resonance/internal/feeditem"
	"github.com/desertthunder/resonance/internal/gate"
	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/services"
	"github.com/desertthunder/resonance/internal/session"
	"github.com/desertthunder/resonance/internal/shared"
)

// View is the screen currently shown.
type View int

const (
	FeedView View = iota
	SearchView
	LibraryView
	LoginView
)

func (v View) String() string {
	switch v {
	case SearchView:
		return "Search"
	case LibraryView:
		return "Library"
	case LoginView:
		return "Log in"
	}
	return "Discover"
}

const (
	previewInterval = 250 * time.Millisecond
	minItemHeight   = 8
	chromeHeight    = 4 // header, gap, status, help
)

// viewFor maps a route to the view rendering it.
func viewFor(route string) View {
	path, _, _ := strings.Cut(route, "?")
	switch path {
	case session.RouteSearch:
		return SearchView
	case session.RouteLibrary, session.RouteProfile:
		return LibraryView
	case session.RouteLogin, session.RouteRegister:
		return LoginView
	}
	return FeedView
}

// loginRoute builds the login route that returns to from.
func loginRoute(from string) string {
	path, _, _ := strings.Cut(from, "?")
	if path == "" || viewFor(path) == LoginView {
		return session.RouteLogin
	}
	return session.RouteLogin + "?" + url.Values{"from": {path}}.Encode()
}

// Deps holds the collaborators of the TUI.
type Deps struct {
	API     services.Service
	Session *session.Store
	Audio   feeditem.AudioFactory
	Config  *shared.Config
	Logger  *log.Logger
	OpenURL func(string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	api     services.Service
	session *session.Store
	cfg     *shared.Config
	logger  *log.Logger
	openURL func(string) error

	view   View
	route  string
	width  int
	height int

	snap        session.Snapshot
	sessionCh   chan struct{}
	unsubscribe func()

	feed     *feed.Controller
	pager    *feed.Pager
	observer *feed.Observer
	items    *feeditem.Registry
	offset   int

	gate    *gate.Gate
	dialog  libraryDialog
	search  searchModel
	library libraryModel
	login   loginModel

	spinner   spinner.Model
	progress  progress.Model
	help      help.Model
	keys      keyMap
	status    string
	statusErr bool
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	cfg := deps.Config
	if cfg == nil {
		cfg = shared.DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = shared.NopLogger()
	}
	openURL := deps.OpenURL
	if openURL == nil {
		openURL = shared.OpenBrowser
	}

	m := &Model{
		ctx:     ctx,
		api:     deps.API,
		session: deps.Session,
		cfg:     cfg,
		logger:  logger,
		openURL: openURL,
		view:    FeedView,
		route:   session.RouteHome,

		sessionCh: make(chan struct{}, 1),

		feed: feed.NewController(feed.Config{
			PageSize:         cfg.Feed.PageSize,
			PrefetchDistance: cfg.Feed.PrefetchDistance,
			PromptIndex:      cfg.Feed.GuestPromptIndex,
			GuestMaxIndex:    cfg.Feed.GuestMaxIndex,
			ClampGuestScroll: cfg.Feed.ClampGuestScroll,
		}),
		pager:    feed.NewPager(deps.API, shared.WithLogger(logger, "component", "pager")),
		observer: feed.NewObserver(cfg.Feed.VisibilityThreshold),
		items: feeditem.NewRegistry(
			deps.Audio,
			time.Duration(cfg.Preview.DurationSeconds)*time.Second,
			shared.WithLogger(logger, "component", "preview"),
		),
		gate:    gate.New(deps.Session),
		dialog:  newLibraryDialog(),
		search:  newSearchModel(cfg.Search),
		library: newLibraryModel(),
		login:   newLoginModel(),

		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		help:     help.New(),
		keys:     newKeyMap(),
	}

	m.unsubscribe = deps.Session.Subscribe(func(session.Snapshot) {
		select {
		case m.sessionCh <- struct{}{}:
		default:
		}
	})
	return m
}

// Close stops every preview and the session subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.items.Reset()
}

// Init reads the session, which starts the feed, and begins the background loops.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refreshSession(), m.waitForSession(), m.tickPreview())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m, m.handleMsg(msg)
	}

	return m, m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgSessionChanged:
		watched, _ := msg.data.(bool)
		return m.handleSession(watched)
	case MsgFeedPage:
		return m.handleFeedPage(msg.data.(feed.Result))
	case MsgSearchSettle:
		return m.settleSearch(msg.data.(uint64))
	case MsgSearchResults:
		m.handleSearchResults(msg.data.(searchResults))
	case MsgLibraryLoaded:
		m.handleLibrary(msg.data.(libraryLoaded))
	case MsgLiked:
		m.handleLiked(msg.data.(mutationDone))
	case MsgAddedToLibrary:
		m.handleAdded(msg.data.(mutationDone))
	case MsgLoggedIn:
		return m.handleLoggedIn(errOf(msg))
	case MsgLoggedOut:
		if err := errOf(msg); err != nil {
			m.setError("Sign out incomplete", err)
		} else {
			m.setStatus("Signed out")
		}
		return m.handleSession(false)
	case MsgPreviewTick:
		m.tickActivePreview()
		return m.tickPreview()
	case MsgOpened:
		if err := errOf(msg); err != nil {
			m.setError("Could not open browser", err)
		}
	}
	return nil
}

func (m *Model) refreshSession() tea.Cmd {
	return func() tea.Msg {
		if _, err := m.session.Refresh(m.ctx); err != nil {
			m.logger.Warn("session refresh failed", "err", err)
		}
		return Msg{kind: MsgSessionChanged, data: false}
	}
}

// waitForSession blocks until the session store reports a change.
func (m *Model) waitForSession() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.sessionCh:
			return Msg{kind: MsgSessionChanged, data: true}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) handleSession(watched bool) tea.Cmd {
	var cmds []tea.Cmd
	if watched {
		cmds = append(cmds, m.waitForSession())
	}

	m.snap = m.session.Snapshot()
	identity := m.snap.Identity()

	var (
		req     feed.Request
		changed = true
	)
	if m.feed.Generation() == 0 {
		req = m.feed.Start(identity, m.snap.Authenticated)
	} else {
		req, changed = m.feed.SetIdentity(identity, m.snap.Authenticated)
	}
	if !changed {
		return tea.Batch(cmds...)
	}

	m.logger.Info("session changed", "authenticated", m.snap.Authenticated)
	m.resetItems()
	cmds = append(cmds, m.fetchPage(req))

	switch {
	case m.view == LoginView && m.snap.Authenticated:
		cmds = append(cmds, m.navigate(session.ReturnTo(m.route)))
	default:
		cmds = append(cmds, m.navigate(m.route))
	}
	return tea.Batch(cmds...)
}

func (m *Model) resetItems() {
	m.items.Reset()
	m.observer.Reset()
	m.offset = 0
	m.dialog.close()
	m.gate.Close()
	m.search.reset()
	m.library.clear()
}

// navigate applies the route guard and switches view.
func (m *Model) navigate(route string) tea.Cmd {
	target, redirected := session.Resolve(route, m.snap.Authenticated)
	if redirected {
		m.logger.Debug("route redirected", "from", route, "to", target)
	}

	next := viewFor(target)
	if m.view == FeedView && next != FeedView {
		m.deactivateActive()
	}
	prev := m.view
	m.route = target
	m.view = next

	switch next {
	case LibraryView:
		if !m.library.loaded || prev != LibraryView {
			return m.loadLibrary()
		}
	case LoginView:
		return m.login.focus()
	case SearchView:
		if prev != SearchView {
			return m.search.input.Focus()
		}
	case FeedView:
		if prev != FeedView {
			return m.observe()
		}
	}
	return nil
}

func (m *Model) resize(width, height int) tea.Cmd {
	before := m.itemHeight()
	m.width, m.height = width, height
	m.help.Width = width
	m.search.resize(width, m.bodyHeight())
	m.dialog.resize(width)

	if after := m.itemHeight(); after != before {
		m.offset = m.feed.Active() * after
		m.observer.Reset()
		return m.observe()
	}
	return nil
}

func (m *Model) bodyHeight() int {
	return max(m.height-chromeHeight, minItemHeight)
}

// itemHeight is the height of one feed card: the full body, so one card fills the viewport.
func (m *Model) itemHeight() int {
	return m.bodyHeight()
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	switch {
	case m.dialog.visible():
		return m.handleDialogKeys(msg)
	case m.gate.Visible():
		return m.handleGateKeys(msg)
	case m.view == FeedView && m.feed.InterstitialVisible():
		return m.handleInterstitialKeys(msg)
	}

	if m.inputFocused() {
		switch m.view {
		case SearchView:
			return m.handleSearchInput(msg)
		case LibraryView:
			return m.handleLibraryFilter(msg)
		case LoginView:
			return m.handleLoginKeys(msg)
		}
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit
	case key.Matches(msg, m.keys.feed):
		return m.navigate(session.RouteHome)
	case key.Matches(msg, m.keys.search):
		return m.navigate(session.RouteSearch)
	case key.Matches(msg, m.keys.library):
		return m.navigate(session.RouteLibrary)
	case key.Matches(msg, m.keys.login):
		return m.navigate(loginRoute(m.route))
	case key.Matches(msg, m.keys.logout):
		if m.snap.Authenticated {
			return m.logout()
		}
		return nil
	}

	switch m.view {
	case FeedView:
		return m.handleFeedKeys(msg)
	case SearchView:
		return m.handleSearchKeys(msg)
	case LibraryView:
		return m.handleLibraryKeys(msg)
	}
	return nil
}

func (m *Model) inputFocused() bool {
	switch m.view {
	case SearchView:
		return m.search.input.Focused()
	case LibraryView:
		return m.library.filter.Focused()
	case LoginView:
		return true
	}
	return false
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if m.dialog.visible() {
		cmds = append(cmds, m.dialog.update(msg))
	}
	switch m.view {
	case SearchView:
		cmds = append(cmds, m.search.update(msg))
	case LoginView:
		cmds = append(cmds, m.login.update(msg))
	}
	return tea.Batch(cmds...)
}

// gated runs action through the auth gate, returning whatever command it produced.
func (m *Model) gated(action func() tea.Cmd) tea.Cmd {
	var cmd tea.Cmd
	m.gate.Run(func() { cmd = action() })
	return cmd
}

func (m *Model) like(item *feeditem.Item) tea.Cmd {
	if !item.BeginLike() {
		return nil
	}
	media, token := item.Media(), m.snap.Token
	return func() tea.Msg {
		err := m.api.AddToFavorites(m.ctx, token, media.ID)
		return likedMsg(media.Key(), err)
	}
}

func (m *Model) handleLiked(done mutationDone) {
	item, ok := m.items.Lookup(done.key)
	if !ok {
		return
	}
	item.FinishLike(done.err)
	if done.err != nil {
		m.setError("Could not like "+item.Media().Title, done.err)
		return
	}
	m.setStatus("Liked " + item.Media().Title)
	m.search.refreshFlags(m.items)
}

func (m *Model) openLibraryDialog(item *feeditem.Item) tea.Cmd {
	if !item.OpenLibraryDialog() {
		m.setStatus(item.Media().Title + " is already in your library")
		return nil
	}
	return m.dialog.open(item)
}

func (m *Model) addToLibrary() tea.Cmd {
	item := m.dialog.item
	if item == nil || !item.BeginAddToLibrary() {
		return nil
	}
	media, token, comment := item.Media(), m.snap.Token, m.dialog.comment()
	return func() tea.Msg {
		err := m.api.AddToLibrary(m.ctx, token, media.ID, media.Type, comment)
		return addedToLibraryMsg(media.Key(), err)
	}
}

func (m *Model) handleAdded(done mutationDone) {
	item, ok := m.items.Lookup(done.key)
	if !ok {
		return
	}
	item.FinishAddToLibrary(done.err)
	if done.err != nil {
		m.logger.Warn("add to library failed", "item", done.key.String(), "err", done.err)
		return
	}
	if m.dialog.item == item {
		m.dialog.close()
	}
	m.setStatus("Added " + item.Media().Title + " to your library")
	m.search.refreshFlags(m.items)
	m.library.loaded = false
}

func (m *Model) openITunes(media models.MediaItem) tea.Cmd {
	link := media.ITunes()
	if link == "" {
		m.setStatus("No iTunes link for " + media.Title)
		return nil
	}
	return func() tea.Msg {
		return openedMsg(m.openURL(link))
	}
}

func (m *Model) logout() tea.Cmd {
	return func() tea.Msg {
		return loggedOutMsg(m.session.Logout(m.ctx))
	}
}

func (m *Model) tickPreview() tea.Cmd {
	return tea.Tick(previewInterval, func(time.Time) tea.Msg { return previewTickMsg() })
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(s string, err error) {
	m.logger.Warn(s, "err", err)
	m.status, m.statusErr = fmt.Sprintf("%s: %v", s, err), true
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	body := m.renderBody()
	if overlay := m.renderOverlay(); overlay != "" {
		body = lipgloss.Place(max(m.width, 40), m.bodyHeight(), lipgloss.Center, lipgloss.Center, overlay)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		"",
		body,
		m.renderStatus(),
		m.help.ShortHelpView(m.helpKeys()),
	)
}

func (m *Model) renderBody() string {
	h := m.bodyHeight()
	var body string
	switch m.view {
	case SearchView:
		body = m.renderSearch()
	case LibraryView:
		body = m.renderLibrary()
	case LoginView:
		body = m.renderLogin()
	default:
		body = m.renderFeed()
	}
	return lipgloss.NewStyle().Height(h).MaxHeight(h).Render(body)
}

func (m *Model) renderHeader() string {
	var tabs []string
	for _, v := range []View{FeedView, SearchView, LibraryView} {
		label := fmt.Sprintf("%d %s", int(v)+1, v)
		if v == m.view {
			tabs = append(tabs, styles.active.Render(label))
		} else {
			tabs = append(tabs, styles.tab.Render(label))
		}
	}

	who := styles.help.Render("guest")
	if m.snap.Authenticated {
		who = styles.ok.Render("signed in")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, append(tabs, "  ", who)...)
}

func (m *Model) renderStatus() string {
	switch {
	case m.view == FeedView && m.feed.State() == feed.FetchingMore:
		return m.spinner.View() + " loading more"
	case m.status == "":
		return ""
	case m.statusErr:
		return styles.err.Render(m.status)
	}
	return styles.ok.Render(m.status)
}

func (m *Model) helpKeys() []key.Binding {
	switch {
	case m.dialog.visible():
		return []key.Binding{m.keys.submit, m.keys.back}
	case m.gate.Visible(), m.view == FeedView && m.feed.InterstitialVisible():
		return []key.Binding{m.keys.enter, m.keys.back}
	}

	switch m.view {
	case FeedView:
		return []key.Binding{m.keys.down, m.keys.up, m.keys.preview, m.keys.like, m.keys.add, m.keys.open, m.keys.search, m.keys.library, m.keys.quit}
	case SearchView:
		if m.search.input.Focused() {
			return []key.Binding{m.keys.filter, m.keys.enter, m.keys.back}
		}
		return []key.Binding{m.keys.find, m.keys.filter, m.keys.like, m.keys.add, m.keys.open, m.keys.feed, m.keys.quit}
	case LibraryView:
		return []key.Binding{m.keys.find, m.keys.tabs, m.keys.reload, m.keys.logout, m.keys.feed, m.keys.quit}
	case LoginView:
		return []key.Binding{m.keys.typeNext, m.keys.enter, m.keys.back}
	}
	return m.keys.ShortHelp()
}
