package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/resonance/internal/feed"
	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/search"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSessionChanged MsgKind = iota
	MsgFeedPage
	MsgSearchSettle
	MsgSearchResults
	MsgLibraryLoaded
	MsgLiked
	MsgAddedToLibrary
	MsgLoggedIn
	MsgLoggedOut
	MsgPreviewTick
	MsgOpened
)

type searchResults struct {
	query search.Query
	page  *models.FeedPage
	err   error
}

type libraryLoaded struct {
	library   []models.UserLibraryEntry
	favorites []models.UserLibraryEntry
	err       error
}

type mutationDone struct {
	key models.ItemKey
	err error
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg() Msg {
	return Msg{kind: MsgSessionChanged}
}

// feedPageMsg is the constructor for [MsgFeedPage]
func feedPageMsg(result feed.Result) Msg {
	return Msg{kind: MsgFeedPage, data: result}
}

// searchSettleMsg is the constructor for [MsgSearchSettle]
func searchSettleMsg(seq uint64) Msg {
	return Msg{kind: MsgSearchSettle, data: seq}
}

// searchResultsMsg is the constructor for [MsgSearchResults]
func searchResultsMsg(q search.Query, page *models.FeedPage, err error) Msg {
	return Msg{kind: MsgSearchResults, data: searchResults{query: q, page: page, err: err}}
}

// libraryLoadedMsg is the constructor for [MsgLibraryLoaded]
func libraryLoadedMsg(library, favorites []models.UserLibraryEntry, err error) Msg {
	return Msg{kind: MsgLibraryLoaded, data: libraryLoaded{library: library, favorites: favorites, err: err}}
}

// likedMsg is the constructor for [MsgLiked]
func likedMsg(key models.ItemKey, err error) Msg {
	return Msg{kind: MsgLiked, data: mutationDone{key: key, err: err}}
}

// addedToLibraryMsg is the constructor for [MsgAddedToLibrary]
func addedToLibraryMsg(key models.ItemKey, err error) Msg {
	return Msg{kind: MsgAddedToLibrary, data: mutationDone{key: key, err: err}}
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(err error) Msg {
	return Msg{kind: MsgLoggedIn, data: err}
}

// loggedOutMsg is the constructor for [MsgLoggedOut]
func loggedOutMsg(err error) Msg {
	return Msg{kind: MsgLoggedOut, data: err}
}

// previewTickMsg is the constructor for [MsgPreviewTick]
func previewTickMsg() Msg {
	return Msg{kind: MsgPreviewTick}
}

// openedMsg is the constructor for [MsgOpened]
func openedMsg(err error) Msg {
	return Msg{kind: MsgOpened, data: err}
}

// errOf extracts the error payload of messages that carry only an error.
func errOf(msg Msg) error {
	err, _ := msg.data.(error)
	return err
}
