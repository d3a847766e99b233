// Package fakeapi runs an in-memory stand-in for the blog API for tests.
// It speaks the same cookie-session protocol as the real server: a
// successful login sets an "auth" cookie that the other endpoints check.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fragmede/postdesk/internal/api"
)

// CookieName is the session cookie the server sets on login.
const CookieName = "auth"

type account struct {
	user     api.User
	password string
}

// Server is a running fake API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]*account
	sessions map[string]api.UserID
	posts    []api.Post
	nextID   int
	calls    map[string]int
}

// New starts a fake API and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts: make(map[string]*account),
		sessions: make(map[string]api.UserID),
		calls:    make(map[string]int),
		nextID:   1,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.count)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/users/me", s.handleMe)
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/logout", s.handleLogout)
	})
	r.Route("/api/v1/posts", func(r chi.Router) {
		r.Get("/", s.handleListPosts)
		r.Post("/", s.requireUser(s.handleCreatePost))
		r.Get("/{id}", s.handleGetPost)
		r.Put("/{id}", s.requireUser(s.handleUpdatePost))
		r.Delete("/{id}", s.requireUser(s.handleDeletePost))
	})
	return r
}

// AddUser registers an account directly.
func (s *Server) AddUser(email, password string) api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := api.User{ID: api.UserIDFromUUID(uuid.New()), Email: email, IsActive: true}
	s.accounts[email] = &account{user: u, password: password}
	return u
}

// AddPost stores a post and returns it with its assigned ID.
func (s *Server) AddPost(p api.Post) api.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	s.posts = append(s.posts, p)
	return p
}

// Posts returns a copy of the stored posts.
func (s *Server) Posts() []api.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Post{}, s.posts...)
}

// Calls reports how many requests hit "METHOD /path".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Sessions reports how many sessions are open.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) sessionUser(r *http.Request) (api.User, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return api.User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[c.Value]
	if !ok {
		return api.User{}, false
	}
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a.user, true
		}
	}
	return api.User{}, false
}

func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.sessionUser(r); !ok {
			writeDetail(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := s.sessionUser(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	s.mu.Lock()
	a, ok := s.accounts[email]
	if !ok || a.password != password {
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "LOGIN_BAD_CREDENTIALS")
		return
	}
	token := uuid.NewString()
	s.sessions[token] = a.user.ID
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in api.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	if _, exists := s.accounts[in.Email]; exists {
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "REGISTER_USER_ALREADY_EXISTS")
		return
	}
	u := api.User{
		ID:          api.UserIDFromUUID(uuid.New()),
		Email:       in.Email,
		IsActive:    in.IsActive,
		IsSuperuser: in.IsSuperuser,
		IsVerified:  in.IsVerified,
	}
	s.accounts[in.Email] = &account{user: u, password: in.Password}
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s.mu.Lock()
	delete(s.sessions, c.Value)
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Posts())
}

func (s *Server) findPost(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return -1, false
	}
	for i, p := range s.posts {
		if p.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	i, ok := s.findPost(r)
	var p api.Post
	if ok {
		p = s.posts[i]
	}
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in api.Post
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	writeJSON(w, http.StatusCreated, s.AddPost(in))
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var in api.Post
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	i, ok := s.findPost(r)
	if ok {
		in.ID = s.posts[i].ID
		s.posts[i] = in
	}
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	i, ok := s.findPost(r)
	if ok {
		s.posts = append(s.posts[:i], s.posts[i+1:]...)
	}
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Post not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
