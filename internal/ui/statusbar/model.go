package statusbar

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/postdesk/internal/auth"
	"github.com/fragmede/postdesk/internal/ui/theme"
)

var (
	barStyle = lipgloss.NewStyle().
			Background(theme.Bar).
			Foreground(theme.Text)

	viewStyle = lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(theme.Text).
			Bold(true).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Background(theme.Bar).
			Foreground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	newStyle = lipgloss.NewStyle().
			Background(theme.Error).
			Foreground(theme.Text).
			Bold(true).
			Padding(0, 1)

	statusTextStyle = lipgloss.NewStyle().
			Background(theme.Bar).
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1)

	errorTextStyle = lipgloss.NewStyle().
			Background(theme.Bar).
			Foreground(lipgloss.Color("#FF5555")).
			Padding(0, 1)

	offlineStyle = lipgloss.NewStyle().
			Background(theme.Offline).
			Foreground(theme.Text).
			Bold(true).
			Padding(0, 1)
)

// Model is the status bar at the bottom of the screen.
type Model struct {
	width      int
	view       string
	session    auth.State
	newCount   int
	statusText string
	isError    bool
	offline    bool
}

// New creates a status bar showing the session as loading.
func New() Model {
	return Model{view: "Posts", session: auth.State{Loading: true}}
}

// SetSize sets the width.
func (m *Model) SetSize(w int) {
	m.width = w
}

// SetView sets the name of the active view.
func (m *Model) SetView(name string) {
	m.view = name
}

// SetSession shows the session owner.
func (m *Model) SetSession(st auth.State) {
	m.session = st
}

// SetNew sets the count of posts that arrived since the list was last seen.
func (m *Model) SetNew(count int) {
	m.newCount = count
}

// SetStatus sets a temporary status message.
func (m *Model) SetStatus(text string, isError bool) {
	m.statusText = text
	m.isError = isError
}

// SetOffline sets the offline indicator.
func (m *Model) SetOffline(offline bool) {
	m.offline = offline
}

// Update is a no-op for the status bar.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	left := viewStyle.Render(m.view)

	var right string
	if m.offline {
		right += offlineStyle.Render("OFFLINE")
	}
	if m.newCount > 0 {
		right += newStyle.Render(fmt.Sprintf(" %d new ", m.newCount))
	}
	switch {
	case m.session.IsAuthenticated && m.session.User != nil:
		right += userStyle.Render(m.session.User.Email)
	case m.session.Loading:
		right += statusTextStyle.Render("...")
	default:
		right += statusTextStyle.Render("L:login")
	}
	if m.statusText != "" {
		if m.isError {
			right += errorTextStyle.Render(m.statusText)
		} else {
			right += statusTextStyle.Render(m.statusText)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	mid := barStyle.Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, mid, right)
}
