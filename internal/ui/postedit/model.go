package postedit

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/postdesk/internal/api"
	"github.com/fragmede/postdesk/internal/loader"
	"github.com/fragmede/postdesk/internal/render"
	"github.com/fragmede/postdesk/internal/ui/messages"
	"github.com/fragmede/postdesk/internal/ui/theme"
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	hintStyle      = lipgloss.NewStyle().Foreground(theme.Muted)
	errorStyle     = lipgloss.NewStyle().Foreground(theme.Error)
	publishedStyle = lipgloss.NewStyle().Foreground(theme.OK).Bold(true)
	draftStyle     = lipgloss.NewStyle().Foreground(theme.Warn).Bold(true)
)

// Saver writes posts. *api.Client implements it.
type Saver interface {
	CreatePost(ctx context.Context, p api.Post) (*api.Post, error)
	UpdatePost(ctx context.Context, id int, p api.Post) (*api.Post, error)
	DeletePost(ctx context.Context, id int) error
}

// Session reports who is logged in. *auth.Store implements it.
type Session interface {
	RequireUser() (*api.User, error)
}

// Model is the post editor. A zero id edits a new post.
type Model struct {
	titleInput textinput.Model
	body       textarea.Model
	focusIndex int
	published  bool

	id      int
	fetch   loader.Fetch
	saver   Saver
	session Session

	loading bool
	// loadFailed blocks saving so an unloaded post is never overwritten.
	loadFailed    bool
	notFound      bool
	preview       bool
	previewWidth  int
	confirmDelete bool
	err           string
	submitting    bool
	width         int
	height        int
}

// New creates an editor for post id.
func New(id int, fetch loader.Fetch, saver Saver, session Session) Model {
	ti := textinput.New()
	ti.Placeholder = "Title"
	ti.Focus()
	ti.Width = 60

	ta := textarea.New()
	ta.Placeholder = "Write your post..."
	ta.SetWidth(80)
	ta.SetHeight(10)

	return Model{
		titleInput:   ti,
		body:         ta,
		id:           id,
		fetch:        fetch,
		saver:        saver,
		session:      session,
		loading:      id != 0,
		previewWidth: 80,
	}
}

// Init loads the post being edited.
func (m Model) Init() tea.Cmd {
	if m.id == 0 {
		return nil
	}
	fetch := m.fetch
	params := loader.Params{"id": strconv.Itoa(m.id)}
	return func() tea.Msg {
		data, err := loader.EditPost(context.Background(), fetch, params)
		return messages.PostLoadedMsg{Post: data.Post, Err: err}
	}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	tw := w - 4
	if tw > 100 {
		tw = 100
	}
	m.body.SetWidth(tw)
	m.titleInput.Width = tw
	m.previewWidth = tw
	th := h - 10
	if th < 5 {
		th = 5
	}
	m.body.SetHeight(th)
}

// Post returns the post as currently edited.
func (m Model) Post() api.Post {
	return api.Post{
		ID:          m.id,
		Title:       strings.TrimSpace(m.titleInput.Value()),
		Body:        m.body.Value(),
		IsPublished: m.published,
	}
}

// LoadFailed reports whether the post could not be loaded for a reason
// other than it not existing.
func (m Model) LoadFailed() bool { return m.loadFailed }

// Previewing reports whether the rendered body is shown instead of the
// editor.
func (m Model) Previewing() bool { return m.preview }

// Err returns the message shown under the editor.
func (m Model) Err() string { return m.err }

// NotFound reports whether the post could not be loaded.
func (m Model) NotFound() bool { return m.notFound }

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.PostLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.notFound = errors.Is(msg.Err, loader.ErrPostNotFound)
			m.loadFailed = !m.notFound
			m.err = msg.Err.Error()
			return m, nil
		}
		m.loadFailed = false
		m.err = ""
		m.titleInput.SetValue(msg.Post.Title)
		m.body.SetValue(msg.Post.Body)
		m.published = msg.Post.IsPublished
		return m, nil

	case messages.SaveResultMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		m.id = msg.Post.ID
		m.err = ""
		return m, nil

	case messages.DeleteResultMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		if m.loading || m.notFound {
			return m, nil
		}
		if m.loadFailed {
			if msg.String() == "ctrl+r" {
				m.loading = true
				m.loadFailed = false
				m.err = ""
				return m, m.Init()
			}
			return m, nil
		}
		if m.confirmDelete {
			m.confirmDelete = false
			if msg.String() == "y" {
				return m.delete()
			}
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab":
			m.toggleFocus()
			return m, nil
		case "ctrl+p":
			m.published = !m.published
			return m, nil
		case "ctrl+o":
			m.preview = !m.preview
			return m, nil
		case "ctrl+s":
			return m.save()
		case "ctrl+d":
			if m.id == 0 || m.submitting {
				return m, nil
			}
			if _, err := m.session.RequireUser(); err != nil {
				m.err = "Log in to delete posts"
				return m, nil
			}
			m.confirmDelete = true
			return m, nil
		}
		if m.preview {
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.titleInput, cmd = m.titleInput.Update(msg)
	} else {
		m.body, cmd = m.body.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focusIndex == 0 {
		m.focusIndex = 1
		m.titleInput.Blur()
		m.body.Focus()
	} else {
		m.focusIndex = 0
		m.body.Blur()
		m.titleInput.Focus()
	}
}

func (m Model) save() (Model, tea.Cmd) {
	if m.submitting || m.loading || m.loadFailed || m.notFound {
		return m, nil
	}
	if _, err := m.session.RequireUser(); err != nil {
		m.err = "Log in to save posts"
		return m, nil
	}
	post := m.Post()
	if post.Title == "" {
		m.err = "Title cannot be empty"
		return m, nil
	}
	m.submitting = true
	m.err = ""

	saver := m.saver
	return m, func() tea.Msg {
		ctx := context.Background()
		var saved *api.Post
		var err error
		if post.ID == 0 {
			saved, err = saver.CreatePost(ctx, post)
		} else {
			saved, err = saver.UpdatePost(ctx, post.ID, post)
		}
		if err != nil {
			return messages.SaveResultMsg{Post: post, Err: err}
		}
		return messages.SaveResultMsg{Post: *saved}
	}
}

func (m Model) delete() (Model, tea.Cmd) {
	m.submitting = true
	m.err = ""
	saver, id := m.saver, m.id
	return m, func() tea.Msg {
		return messages.DeleteResultMsg{ID: id, Err: saver.DeletePost(context.Background(), id)}
	}
}

// View renders the editor.
func (m Model) View() string {
	var sb strings.Builder

	heading := "New Post"
	if m.id != 0 {
		heading = "Edit Post #" + strconv.Itoa(m.id)
	}
	sb.WriteString(titleStyle.Render(heading))
	sb.WriteString("\n\n")

	if m.loading {
		sb.WriteString("Loading...")
		return theme.Centered(m.width, m.height, sb.String())
	}
	if m.notFound {
		sb.WriteString(errorStyle.Render("Post not found"))
		sb.WriteString("\n\n")
		sb.WriteString(hintStyle.Render("Esc to go back"))
		return theme.Centered(m.width, m.height, sb.String())
	}

	if m.loadFailed {
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n\n")
		sb.WriteString(hintStyle.Render("Ctrl+R to retry | Esc to go back"))
		return theme.Centered(m.width, m.height, sb.String())
	}

	sb.WriteString(m.titleInput.View())
	sb.WriteString("\n\n")
	if m.preview {
		sb.WriteString(render.BodyToText(m.body.Value(), m.previewWidth))
	} else {
		sb.WriteString(m.body.View())
	}
	sb.WriteString("\n\n")
	if m.published {
		sb.WriteString(publishedStyle.Render("Published"))
	} else {
		sb.WriteString(draftStyle.Render("Draft"))
	}
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n")
	}

	switch {
	case m.confirmDelete:
		sb.WriteString(errorStyle.Render("Delete this post? y to confirm, any other key to cancel"))
	case m.submitting:
		sb.WriteString("Saving...")
	default:
		sb.WriteString(hintStyle.Render("Tab switch field | Ctrl+P publish | Ctrl+O preview | Ctrl+S save | Ctrl+D delete | Esc cancel"))
	}

	return theme.Centered(m.width, m.height, sb.String())
}
