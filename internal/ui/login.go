package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/session"
	"github.com/desertthunder/resonance/internal/shared"
)

type loginModel struct {
	inputs  []textinput.Model // email, password
	focused int
	pending bool
	err     error
}

func newLoginModel() loginModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email    "
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	return loginModel{inputs: []textinput.Model{email, password}}
}

func (l *loginModel) focus() tea.Cmd {
	for i := range l.inputs {
		l.inputs[i].Blur()
	}
	return l.inputs[l.focused].Focus()
}

func (l *loginModel) cycle(delta int) tea.Cmd {
	l.focused = (l.focused + delta + len(l.inputs)) % len(l.inputs)
	return l.focus()
}

func (l *loginModel) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.inputs[l.focused], cmd = l.inputs[l.focused].Update(msg)
	return cmd
}

func (l *loginModel) request() models.LoginRequest {
	return models.LoginRequest{
		Email:    strings.TrimSpace(l.inputs[0].Value()),
		Password: l.inputs[1].Value(),
	}
}

func (l *loginModel) reset() {
	for i := range l.inputs {
		l.inputs[i].SetValue("")
	}
	l.focused = 0
	l.pending = false
	l.err = nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.back):
		m.login.err = nil
		return m.navigate(session.RouteHome)
	case msg.String() == "tab", msg.String() == "down":
		return m.login.cycle(1)
	case msg.String() == "shift+tab", msg.String() == "up":
		return m.login.cycle(-1)
	case key.Matches(msg, m.keys.enter):
		if m.login.focused == 0 {
			return m.login.cycle(1)
		}
		return m.submitLogin()
	}
	return m.login.update(msg)
}

func (m *Model) submitLogin() tea.Cmd {
	if m.login.pending {
		return nil
	}
	req := m.login.request()
	if req.Email == "" || req.Password == "" {
		m.login.err = fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)
		return nil
	}

	m.login.pending = true
	m.login.err = nil
	return func() tea.Msg {
		resp, err := m.api.Login(m.ctx, req)
		if err != nil {
			return loggedInMsg(err)
		}
		_, err = m.session.Login(m.ctx, string(models.SourceLocal), resp.Token)
		return loggedInMsg(err)
	}
}

func (m *Model) handleLoggedIn(err error) tea.Cmd {
	m.login.pending = false
	if err != nil {
		m.login.err = err
		m.logger.Warn("login failed", "err", err)
		return nil
	}

	m.login.reset()
	m.setStatus("Signed in")
	return m.handleSession(false)
}

func (m *Model) renderLogin() string {
	lines := []string{styles.title.Render("Log in to Resonance")}
	for _, in := range m.login.inputs {
		lines = append(lines, in.View())
	}
	lines = append(lines, "")

	switch {
	case m.login.pending:
		lines = append(lines, m.spinner.View()+" signing in")
	case m.login.err != nil:
		lines = append(lines, styles.err.Render(loginError(m.login.err)))
	}

	lines = append(lines, "", styles.help.Render("Google sign-in: run `resonance auth google`"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// loginError phrases a login failure for the form.
func loginError(err error) string {
	switch shared.StatusCode(err) {
	case 400, 401, 403:
		return "Invalid email or password"
	}
	return err.Error()
}
