package ui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/postdesk/internal/api"
	"github.com/fragmede/postdesk/internal/auth"
	"github.com/fragmede/postdesk/internal/cache"
	"github.com/fragmede/postdesk/internal/refresh"
	"github.com/fragmede/postdesk/internal/testutil/fakeapi"
	"github.com/fragmede/postdesk/internal/ui/messages"
)

type harness struct {
	srv   *fakeapi.Server
	store *auth.Store
	db    *cache.DB
	app   *App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := fakeapi.New(t)
	srv.AddUser("a@b.com", "pw")

	client, err := api.NewClient(srv.URL)
	require.NoError(t, err)
	db, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := auth.NewStore(client, auth.WithInteractive(true))
	r := refresh.New(client.Fetch, time.Hour, refresh.WithCache(db, time.Minute))
	app := NewApp(client, store, db, r, nil)
	t.Cleanup(app.Stop)

	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return &harness{srv: srv, store: store, db: db, app: app}
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	_, cmd := h.app.Update(msg)
	return cmd
}

func (h *harness) key(s string) tea.Cmd {
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestSessionFeed_DeliversLatestState(t *testing.T) {
	h := newHarness(t)
	wait := h.app.feed.wait()

	require.True(t, h.store.Login(context.Background(), "a@b.com", "pw").Success)
	h.store.Logout(context.Background())
	require.True(t, h.store.Login(context.Background(), "a@b.com", "pw").Success)

	msg, ok := wait().(messages.SessionMsg)
	require.True(t, ok)
	assert.True(t, msg.State.IsAuthenticated)
	assert.Equal(t, "a@b.com", msg.State.User.Email)

	next := h.send(msg)
	require.NotNil(t, next, "the app keeps listening")
	assert.Contains(t, h.app.View(), "a@b.com")
}

func TestSessionFeed_StopsOnClose(t *testing.T) {
	h := newHarness(t)
	wait := h.app.feed.wait()
	<-h.app.feed.ready // drain the state delivered on subscribe
	h.app.Stop()
	assert.Nil(t, wait())
}

func TestLoginFlow(t *testing.T) {
	h := newHarness(t)

	h.key("L")
	require.Equal(t, ViewLogin, h.app.ActiveView())

	h.send(messages.LoginResultMsg{Result: auth.Result{Error: "Invalid credentials"}})
	assert.Equal(t, ViewLogin, h.app.ActiveView())
	assert.Contains(t, h.app.View(), "Invalid credentials")

	res := h.store.Login(context.Background(), "a@b.com", "pw")
	h.send(messages.LoginResultMsg{Result: res})
	assert.Equal(t, ViewPostList, h.app.ActiveView())

	h.key("L")
	assert.Equal(t, ViewPostList, h.app.ActiveView(), "no login form while logged in")
}

func TestEscLeavesLoginForm(t *testing.T) {
	h := newHarness(t)
	h.key("L")
	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewPostList, h.app.ActiveView())
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.store.Login(context.Background(), "a@b.com", "pw").Success)

	cmd := h.key("O")
	require.NotNil(t, cmd)
	assert.Equal(t, messages.LogoutDoneMsg{}, cmd())
	assert.False(t, h.store.IsAuthenticated())
	assert.Zero(t, h.srv.Sessions())
}

func TestBackgroundPostsReachListWhileEditing(t *testing.T) {
	h := newHarness(t)
	p := h.srv.AddPost(api.Post{Title: "one"})

	cmd := h.send(messages.OpenPostMsg{ID: p.ID})
	require.Equal(t, ViewPostEdit, h.app.ActiveView())
	require.NotNil(t, cmd)
	h.send(cmd())

	h.send(messages.PostsLoadedMsg{Posts: []api.Post{p}, NewCount: 1})
	assert.Equal(t, ViewPostEdit, h.app.ActiveView())
	assert.Len(t, h.app.postList.Items(), 1)
	assert.Contains(t, h.app.View(), "1 new")
}

func TestSaveUpdatesCacheAndList(t *testing.T) {
	h := newHarness(t)
	p := h.srv.AddPost(api.Post{Title: "one"})
	require.NoError(t, h.db.PutPosts([]api.Post{p}))
	h.send(messages.PostsLoadedMsg{Posts: []api.Post{p}})

	saved := api.Post{ID: p.ID, Title: "renamed", IsPublished: true}
	h.send(messages.SaveResultMsg{Post: saved})

	cached, _, err := h.db.GetPosts(time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []api.Post{saved}, cached)
	assert.Equal(t, "renamed", h.app.postList.Items()[0].Title())
}

func TestDeleteDropsPostFromCacheAndList(t *testing.T) {
	h := newHarness(t)
	a := h.srv.AddPost(api.Post{Title: "one"})
	b := h.srv.AddPost(api.Post{Title: "two"})
	require.NoError(t, h.db.PutPosts([]api.Post{a, b}))
	h.send(messages.PostsLoadedMsg{Posts: []api.Post{a, b}})
	h.send(messages.OpenPostMsg{ID: a.ID})
	require.Equal(t, ViewPostEdit, h.app.ActiveView())

	h.send(messages.DeleteResultMsg{ID: a.ID})
	assert.Equal(t, ViewPostList, h.app.ActiveView())
	cached, _, err := h.db.GetPosts(time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []api.Post{b}, cached)
	require.Len(t, h.app.postList.Items(), 1)
	assert.Equal(t, "two", h.app.postList.Items()[0].Title())
}

func TestQuit(t *testing.T) {
	h := newHarness(t)
	cmd := h.key("q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
