package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/postdesk/internal/api"
	"github.com/fragmede/postdesk/internal/testutil/fakeapi"
)

func newClient(t *testing.T, baseURL string, opts ...api.Option) *api.Client {
	t.Helper()
	c, err := api.NewClient(baseURL, opts...)
	require.NoError(t, err)
	return c
}

func TestUserID_RoundTrips(t *testing.T) {
	tests := []struct {
		name, raw, str string
	}{
		{name: "integer", raw: `1`, str: "1"},
		{name: "uuid", raw: `"3f8e0c1a-9d2b-4b8e-a1c4-2f6d7e8a9b0c"`, str: "3f8e0c1a-9d2b-4b8e-a1c4-2f6d7e8a9b0c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u api.User
			require.NoError(t, json.Unmarshal([]byte(`{"id":`+tt.raw+`,"email":"a@b.com"}`), &u))
			assert.Equal(t, tt.str, u.ID.String())

			out, err := json.Marshal(u)
			require.NoError(t, err)
			assert.Contains(t, string(out), `"id":`+tt.raw+`,`)
		})
	}
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := api.NewClient("/just/a/path")
	require.Error(t, err)
}

func TestNewClient_TrimsBaseURL(t *testing.T) {
	c := newClient(t, "http://localhost:8000/")
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	srv := fakeapi.New(t)
	want := srv.AddUser("a@b.com", "pw")
	c := newClient(t, srv.URL)
	ctx := context.Background()

	_, err := c.CurrentUser(ctx)
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)

	require.NoError(t, c.Login(ctx, "a@b.com", "pw"))
	require.Len(t, c.Cookies(), 1)
	assert.Equal(t, fakeapi.CookieName, c.Cookies()[0].Name)

	got, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestLogin_SendsFormFields(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		form = r.PostForm
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, newClient(t, srv.URL).Login(context.Background(), "a@b.com", "pw"))
	assert.Equal(t, []string{"a@b.com"}, form["username"])
	assert.Equal(t, []string{"pw"}, form["password"])
	assert.Equal(t, []string{""}, form["scope"])
}

func TestLogin_StatusErrorDetail(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{name: "string detail", body: `{"detail":"Invalid credentials"}`, wantDetail: "Invalid credentials"},
		{name: "structured detail", body: `{"detail":[{"msg":"field required"}]}`},
		{name: "not json", body: `<html>bad gateway</html>`},
		{name: "empty body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			err := newClient(t, srv.URL).Login(context.Background(), "a@b.com", "pw")
			var se *api.StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
			assert.Equal(t, tt.wantDetail, se.Detail)
		})
	}
}

func TestRegister_DoesNotStartSession(t *testing.T) {
	srv := fakeapi.New(t)
	c := newClient(t, srv.URL)
	ctx := context.Background()

	u, err := c.Register(ctx, api.UserCreate{Email: "new@b.com", Password: "pw", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "new@b.com", u.Email)
	assert.True(t, u.IsActive)
	assert.Empty(t, c.Cookies())

	_, err = c.Register(ctx, api.UserCreate{Email: "new@b.com", Password: "pw"})
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "REGISTER_USER_ALREADY_EXISTS", se.Detail)
}

func TestLogout_ClearsCookieAndIgnoresStatus(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddUser("a@b.com", "pw")
	c := newClient(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, c.Logout(ctx), "a 401 from logout is not an error")

	require.NoError(t, c.Login(ctx, "a@b.com", "pw"))
	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Cookies())
	assert.Zero(t, srv.Sessions())
}

func TestLogout_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	err := newClient(t, srv.URL).Logout(context.Background())
	require.Error(t, err)
}

func TestFetch_DoesNotCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/posts", r.URL.Path)
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	resp, err := newClient(t, srv.URL+"/").Fetch(context.Background(), "api/v1/posts")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestPosts_CRUDRequiresSession(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddUser("a@b.com", "pw")
	c := newClient(t, srv.URL)
	ctx := context.Background()

	_, err := c.CreatePost(ctx, api.Post{Title: "t", Body: "b"})
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)

	require.NoError(t, c.Login(ctx, "a@b.com", "pw"))

	created, err := c.CreatePost(ctx, api.Post{Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)

	updated, err := c.UpdatePost(ctx, created.ID, api.Post{Title: "t2", Body: "b2", IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, api.Post{ID: 1, Title: "t2", Body: "b2", IsPublished: true}, *updated)

	require.NoError(t, c.DeletePost(ctx, created.ID))
	err = c.DeletePost(ctx, created.ID)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Empty(t, srv.Posts())
}

type memCookies struct {
	mu      sync.Mutex
	byHost  map[string][]*http.Cookie
	loadErr error
}

func (m *memCookies) LoadCookies(host string) ([]*http.Cookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byHost[host], m.loadErr
}

func (m *memCookies) SaveCookies(host string, c []*http.Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byHost == nil {
		m.byHost = make(map[string][]*http.Cookie)
	}
	m.byHost[host] = c
	return nil
}

func (m *memCookies) cookies(rawURL string) []*http.Cookie {
	u, _ := url.Parse(rawURL)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byHost[u.Host]
}

func TestCookieStore_SessionSurvivesNewClient(t *testing.T) {
	srv := fakeapi.New(t)
	want := srv.AddUser("a@b.com", "pw")
	store := &memCookies{}
	ctx := context.Background()

	first := newClient(t, srv.URL, api.WithCookieStore(store))
	require.NoError(t, first.Login(ctx, "a@b.com", "pw"))
	saved := store.cookies(srv.URL)
	require.Len(t, saved, 1)
	assert.False(t, saved[0].Expires.IsZero(), "max-age is turned into an absolute expiry")

	second := newClient(t, srv.URL, api.WithCookieStore(store))
	got, err := second.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)

	require.NoError(t, second.Logout(ctx))
	assert.Empty(t, store.cookies(srv.URL))
}

func TestCookieStore_StaysOnItsHost(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddUser("a@b.com", "pw")
	store := &memCookies{}
	require.NoError(t, newClient(t, srv.URL, api.WithCookieStore(store)).Login(context.Background(), "a@b.com", "pw"))
	require.Len(t, store.cookies(srv.URL), 1)

	var sent []string
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent = append(sent, r.Header.Get("Cookie"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer other.Close()

	c := newClient(t, other.URL, api.WithCookieStore(store))
	assert.Empty(t, c.Cookies())
	_, err := c.CurrentUser(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{""}, sent)
	assert.Len(t, store.cookies(srv.URL), 1, "the first host's session is kept")
}

func TestCookieStore_LoadError(t *testing.T) {
	store := &memCookies{loadErr: errors.New("disk on fire")}
	_, err := api.NewClient("http://localhost:8000", api.WithCookieStore(store))
	require.Error(t, err)
}
