package ui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/postdesk/internal/api"
	"github.com/fragmede/postdesk/internal/auth"
	"github.com/fragmede/postdesk/internal/cache"
	"github.com/fragmede/postdesk/internal/refresh"
	"github.com/fragmede/postdesk/internal/ui/login"
	"github.com/fragmede/postdesk/internal/ui/messages"
	"github.com/fragmede/postdesk/internal/ui/postedit"
	"github.com/fragmede/postdesk/internal/ui/postlist"
	"github.com/fragmede/postdesk/internal/ui/statusbar"
)

// ViewType identifies the active view.
type ViewType int

const (
	ViewPostList ViewType = iota
	ViewPostEdit
	ViewLogin
)

func (v ViewType) String() string {
	switch v {
	case ViewPostEdit:
		return "Editor"
	case ViewLogin:
		return "Login"
	}
	return "Posts"
}

// App is the root Bubble Tea model.
type App struct {
	// View state
	activeView    ViewType
	previousViews []ViewType

	// Child models
	postList  postlist.Model
	editor    postedit.Model
	loginForm login.Model
	statusBar statusbar.Model

	// Shared state
	client    *api.Client
	store     *auth.Store
	cache     *cache.DB
	refresher *refresh.Refresher
	feed      *sessionFeed
	logger    *slog.Logger

	// Dimensions
	width  int
	height int
}

// NewApp creates the root application model. db may be nil.
func NewApp(client *api.Client, store *auth.Store, db *cache.DB, refresher *refresh.Refresher, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		activeView: ViewPostList,
		postList:   postlist.New(refresher),
		statusBar:  statusbar.New(),
		client:     client,
		store:      store,
		cache:      db,
		refresher:  refresher,
		feed:       newSessionFeed(store),
		logger:     logger,
	}
}

// Start begins background refreshes that report to s, usually the
// running *tea.Program.
func (a *App) Start(s refresh.Sender) {
	a.refresher.Start(s)
}

// Stop ends background work.
func (a *App) Stop() {
	a.refresher.Stop()
	a.feed.close()
}

// Init loads the post list and the session owner.
func (a *App) Init() tea.Cmd {
	store := a.store
	return tea.Batch(
		a.feed.wait(),
		a.postList.Init(),
		func() tea.Msg {
			store.AutoInit(context.Background())
			return nil
		},
	)
}

// ActiveView returns the view being shown.
func (a *App) ActiveView() ViewType { return a.activeView }

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		contentHeight := msg.Height - 1 // Reserve 1 line for status bar.
		a.postList.SetSize(msg.Width, contentHeight)
		a.statusBar.SetSize(msg.Width)
		switch a.activeView {
		case ViewPostEdit:
			a.editor.SetSize(msg.Width, contentHeight)
		case ViewLogin:
			a.loginForm.SetSize(msg.Width, contentHeight)
		}
		return a, nil

	case tea.KeyMsg:
		if a.activeView == ViewPostList {
			switch {
			case msg.String() == "ctrl+c":
				return a, a.quit()
			case a.postList.Filtering():
			case key.Matches(msg, Keys.Quit):
				return a, a.quit()
			case key.Matches(msg, Keys.Login):
				if !a.store.IsAuthenticated() {
					a.openLogin()
				}
				return a, nil
			case key.Matches(msg, Keys.Logout):
				if a.store.IsAuthenticated() {
					return a, a.logout()
				}
				return a, nil
			case key.Matches(msg, Keys.NewPost):
				return a, a.openEditor(0)
			}
		} else {
			// Text input views only take esc and ctrl+c.
			if key.Matches(msg, Keys.Back) {
				return a, a.goBack()
			}
			if msg.String() == "ctrl+c" {
				return a, a.quit()
			}
		}

	case messages.SessionMsg:
		a.statusBar.SetSession(msg.State)
		return a, a.feed.wait()

	case messages.OpenPostMsg:
		return a, a.openEditor(msg.ID)

	case messages.OpenLoginMsg:
		a.openLogin()
		return a, nil

	case messages.GoBackMsg:
		return a, a.goBack()

	case messages.LoginResultMsg:
		if msg.Result.Success {
			a.statusBar.SetStatus("Logged in as "+msg.Result.User.Email, false)
			return a, a.goBack()
		}

	case messages.LogoutDoneMsg:
		a.statusBar.SetStatus("Logged out", false)
		return a, nil

	// Background refreshes land here whatever view is active.
	case messages.PostsLoadedMsg:
		a.statusBar.SetOffline(msg.Err != nil)
		if msg.Err != nil {
			a.statusBar.SetStatus("Refresh failed", true)
		} else if !msg.FromCache {
			a.statusBar.SetNew(msg.NewCount)
		}
		var cmd tea.Cmd
		a.postList, cmd = a.postList.Update(msg)
		return a, cmd

	case messages.SaveResultMsg:
		if msg.Err != nil {
			a.statusBar.SetStatus("Save failed", true)
			break
		}
		a.statusBar.SetStatus("Saved", false)
		if a.cache != nil {
			if err := a.cache.PutPost(msg.Post); err != nil {
				a.logger.Warn("caching saved post", "id", msg.Post.ID, "error", err)
			}
		}
		cmds = append(cmds, a.postList.Upsert(msg.Post))

	case messages.DeleteResultMsg:
		if msg.Err != nil {
			a.statusBar.SetStatus("Delete failed", true)
			break
		}
		a.statusBar.SetStatus("Deleted", false)
		if a.cache != nil {
			if err := a.cache.DeletePost(msg.ID); err != nil {
				a.logger.Warn("uncaching deleted post", "id", msg.ID, "error", err)
			}
		}
		a.postList.Remove(msg.ID)
		if a.activeView == ViewPostEdit {
			return a, a.goBack()
		}
		return a, nil

	case messages.StatusMsg:
		a.statusBar.SetStatus(msg.Text, msg.IsError)
	}

	// Route to active view.
	var cmd tea.Cmd
	switch a.activeView {
	case ViewPostList:
		a.postList, cmd = a.postList.Update(msg)
	case ViewPostEdit:
		a.editor, cmd = a.editor.Update(msg)
	case ViewLogin:
		a.loginForm, cmd = a.loginForm.Update(msg)
	}
	cmds = append(cmds, cmd)

	a.statusBar, cmd = a.statusBar.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// View renders the application.
func (a *App) View() string {
	var content string
	switch a.activeView {
	case ViewPostList:
		content = a.postList.View()
	case ViewPostEdit:
		content = a.editor.View()
	case ViewLogin:
		content = a.loginForm.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, a.statusBar.View())
}

func (a *App) pushView(v ViewType) {
	a.previousViews = append(a.previousViews, a.activeView)
	a.activeView = v
	a.statusBar.SetView(v.String())
}

func (a *App) goBack() tea.Cmd {
	if len(a.previousViews) > 0 {
		a.activeView = a.previousViews[len(a.previousViews)-1]
		a.previousViews = a.previousViews[:len(a.previousViews)-1]
	}
	a.statusBar.SetView(a.activeView.String())
	return nil
}

func (a *App) openLogin() {
	a.pushView(ViewLogin)
	a.loginForm = login.New(a.store)
	a.loginForm.SetSize(a.width, a.height-1)
}

func (a *App) openEditor(id int) tea.Cmd {
	a.pushView(ViewPostEdit)
	a.editor = postedit.New(id, a.client.Fetch, a.client, a.store)
	a.editor.SetSize(a.width, a.height-1)
	return a.editor.Init()
}

func (a *App) logout() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		store.Logout(context.Background())
		return messages.LogoutDoneMsg{}
	}
}

func (a *App) quit() tea.Cmd {
	a.Stop()
	return tea.Quit
}
