package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/postdesk/internal/auth"
	"github.com/fragmede/postdesk/internal/ui/messages"
	"github.com/fragmede/postdesk/internal/ui/theme"
)

var (
	focusedStyle = lipgloss.NewStyle().Foreground(theme.Accent)
	labelStyle   = lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(theme.Error)
	noticeStyle  = lipgloss.NewStyle().Foreground(theme.OK)
	titleStyle   = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).
			Padding(1, 0)
)

// Authenticator is the part of the session store the form drives.
type Authenticator interface {
	Login(ctx context.Context, email, password string) auth.Result
	SignUp(ctx context.Context, email, password string) auth.Result
}

// Mode selects what the form submits.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

// Model is the login and registration form.
type Model struct {
	emailInput    textinput.Model
	passwordInput textinput.Model
	focusIndex    int
	mode          Mode
	err           string
	notice        string
	submitting    bool
	auth          Authenticator
	width         int
	height        int
}

// New creates an empty form in login mode.
func New(a Authenticator) Model {
	emailInput := textinput.New()
	emailInput.Placeholder = "email"
	emailInput.Focus()
	emailInput.Width = 30

	passwordInput := textinput.New()
	passwordInput.Placeholder = "password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.Width = 30

	return Model{
		emailInput:    emailInput,
		passwordInput: passwordInput,
		auth:          a,
	}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Mode returns what the form will submit.
func (m Model) Mode() Mode { return m.mode }

// Err returns the message shown under the form.
func (m Model) Err() string { return m.err }

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab":
			m.toggleFocus()
			return m, nil
		case "ctrl+r":
			if m.submitting {
				return m, nil
			}
			if m.mode == ModeLogin {
				m.mode = ModeRegister
			} else {
				m.mode = ModeLogin
			}
			m.err = ""
			m.notice = ""
			return m, nil
		case "enter":
			return m.submit()
		}

	case messages.LoginResultMsg:
		m.submitting = false
		if !msg.Result.Success {
			m.err = msg.Result.Error
		}
		return m, nil

	case messages.RegisterResultMsg:
		m.submitting = false
		if !msg.Result.Success {
			m.err = msg.Result.Error
			return m, nil
		}
		m.mode = ModeLogin
		m.passwordInput.SetValue("")
		m.notice = "Account created for " + msg.Email + ", log in to continue"
		return m, nil
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focusIndex == 0 {
		m.focusIndex = 1
		m.emailInput.Blur()
		m.passwordInput.Focus()
	} else {
		m.focusIndex = 0
		m.passwordInput.Blur()
		m.emailInput.Focus()
	}
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	email := strings.TrimSpace(m.emailInput.Value())
	password := m.passwordInput.Value()
	if email == "" || password == "" {
		m.err = "Email and password required"
		return m, nil
	}
	m.submitting = true
	m.err = ""
	m.notice = ""

	a := m.auth
	if m.mode == ModeRegister {
		return m, func() tea.Msg {
			return messages.RegisterResultMsg{Email: email, Result: a.SignUp(context.Background(), email, password)}
		}
	}
	return m, func() tea.Msg {
		return messages.LoginResultMsg{Result: a.Login(context.Background(), email, password)}
	}
}

// View renders the form.
func (m Model) View() string {
	var sb strings.Builder

	title, action := "Log in", "Logging in..."
	if m.mode == ModeRegister {
		title, action = "Create an account", "Registering..."
	}

	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render("Email:"))
	sb.WriteString("\n")
	sb.WriteString(m.emailInput.View())
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render("Password:"))
	sb.WriteString("\n")
	sb.WriteString(m.passwordInput.View())
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n\n")
	}
	if m.notice != "" {
		sb.WriteString(noticeStyle.Render(m.notice))
		sb.WriteString("\n\n")
	}

	if m.submitting {
		sb.WriteString(action)
	} else {
		other := "register"
		if m.mode == ModeRegister {
			other = "log in"
		}
		sb.WriteString(focusedStyle.Render("Enter") + " to submit, " +
			focusedStyle.Render("Ctrl+R") + " to " + other + ", " +
			focusedStyle.Render("Esc") + " to cancel")
	}

	return theme.Centered(m.width, m.height, sb.String())
}
