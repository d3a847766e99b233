package postlist

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/postdesk/internal/api"
	"github.com/fragmede/postdesk/internal/ui/messages"
)

const title = "Posts"

// Source produces post lists. *refresh.Refresher implements it.
type Source interface {
	Load(ctx context.Context) messages.PostsLoadedMsg
	Cached() (messages.PostsLoadedMsg, bool)
}

// Model is the post list view.
type Model struct {
	list    list.Model
	source  Source
	loading bool
	width   int
	height  int
}

// New creates a new post list model.
func New(source Source) Model {
	l := list.New(nil, Delegate{}, 0, 0)
	l.Title = title + " (loading...)"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	return Model{
		list:    l,
		source:  source,
		loading: true,
	}
}

// Init shows a fresh cached list when there is one and loads otherwise.
func (m Model) Init() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		if msg, fresh := source.Cached(); fresh {
			return msg
		}
		return source.Load(context.Background())
	}
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.list.SetSize(w, h)
}

// Loading reports whether a load is in flight.
func (m Model) Loading() bool { return m.loading }

// Items returns the posts currently shown.
func (m Model) Items() []PostItem {
	items := m.list.Items()
	out := make([]PostItem, 0, len(items))
	for _, it := range items {
		if p, ok := it.(PostItem); ok {
			out = append(out, p)
		}
	}
	return out
}

// Title returns the list header.
func (m Model) Title() string { return m.list.Title }

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.PostsLoadedMsg:
		m.loading = false
		if msg.Err != nil && msg.Posts == nil {
			m.list.Title = "Error: " + msg.Err.Error()
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.Posts))
		for i, p := range msg.Posts {
			items = append(items, PostItem{Post: p, Index: i})
		}
		cmd := m.list.SetItems(items)
		m.list.Title = title
		if msg.Err != nil {
			m.list.Title = title + " (offline)"
		}
		return m, cmd

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(PostItem); ok {
				id := item.ID
				return m, func() tea.Msg {
					return messages.OpenPostMsg{ID: id}
				}
			}
		case "r", "ctrl+r":
			return m, m.Refresh()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Refresh reloads the list from the server.
func (m *Model) Refresh() tea.Cmd {
	m.loading = true
	m.list.Title = title + " (refreshing...)"
	source := m.source
	return func() tea.Msg {
		return source.Load(context.Background())
	}
}

// View renders the post list.
func (m Model) View() string {
	return m.list.View()
}

// Upsert replaces the shown post with p's ID, or appends p.
func (m *Model) Upsert(p api.Post) tea.Cmd {
	items := m.list.Items()
	for i, it := range items {
		if old, ok := it.(PostItem); ok && old.ID == p.ID {
			return m.list.SetItem(i, PostItem{Post: p, Index: old.Index})
		}
	}
	return m.list.InsertItem(len(items), PostItem{Post: p, Index: len(items)})
}

// Filtering reports whether the user is typing a filter.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Remove drops the post with id from the list.
func (m *Model) Remove(id int) {
	for i, it := range m.list.Items() {
		if p, ok := it.(PostItem); ok && p.ID == id {
			m.list.RemoveItem(i)
			return
		}
	}
}
