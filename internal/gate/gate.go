// Package gate wraps actions that need a signed-in user.
package gate

import "github.com/desertthunder/resonance/internal/session"

// Gate runs an action for signed-in users and shows a login prompt to guests instead.
//
// The only state it keeps is whether the prompt is visible.
type Gate struct {
	session session.Reader
	visible bool
}

// New creates a gate reading authentication from r.
func New(r session.Reader) *Gate {
	return &Gate{session: r}
}

// Run invokes action when the session is authenticated and reports whether it ran. For
// guests the prompt is shown and action is dropped. A nil action is allowed.
func (g *Gate) Run(action func()) bool {
	if !g.session.Snapshot().Authenticated {
		g.visible = true
		return false
	}
	if action != nil {
		action()
	}
	return true
}

// Visible reports whether the login prompt is shown.
func (g *Gate) Visible() bool { return g.visible }

// Close hides the prompt.
func (g *Gate) Close() { g.visible = false }
