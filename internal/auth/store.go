// Package auth holds the client's single view of who is logged in and keeps
// it in step with the server's session cookie.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/fragmede/postdesk/internal/api"
)

const (
	loginFailed       = "Login failed"
	registerFailed    = "Registration failed"
	currentUserFailed = "Failed to get current user"
)

// ErrNotLoggedIn is returned by RequireUser when no session is active.
var ErrNotLoggedIn = errors.New("not logged in")

// State is a snapshot of the session. IsAuthenticated equals User != nil
// whenever no operation is in flight.
type State struct {
	User            *api.User
	IsAuthenticated bool
	Loading         bool
}

// initialState is what a Store holds before Init settles.
var initialState = State{Loading: true}

// Result reports the outcome of Login and Register. Error is set only when
// Success is false.
type Result struct {
	Success bool
	User    *api.User
	Error   string
}

// Backend is the part of the API the store talks to. *api.Client
// implements it.
type Backend interface {
	CurrentUser(ctx context.Context) (*api.User, error)
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, in api.UserCreate) (*api.User, error)
	Logout(ctx context.Context) error
}

type subscriber struct {
	id int
	fn func(State)
}

// Store is the shared session state plus the actions that change it.
//
// Actions are not serialized against each other. Each one does its request
// and then replaces the state, so when calls race the last replacement wins.
// Subscribers see every replacement, in order.
type Store struct {
	backend     Backend
	logger      *slog.Logger
	interactive bool

	// notifyMu orders replacements and their notifications.
	notifyMu sync.Mutex

	mu     sync.Mutex
	state  State
	subs   []subscriber
	nextID int

	initOnce sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithInteractive marks the store as running behind a persistent UI with a
// cookie jar of its own. Init is a no-op otherwise.
func WithInteractive(interactive bool) Option {
	return func(s *Store) { s.interactive = interactive }
}

// NewStore creates a Store in the loading state.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
		state:   initialState,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the current state.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated reports whether a user is logged in right now.
func (s *Store) IsAuthenticated() bool {
	return s.Get().IsAuthenticated
}

// RequireUser returns the logged-in user or ErrNotLoggedIn.
func (s *Store) RequireUser() (*api.User, error) {
	st := s.Get()
	if !st.IsAuthenticated || st.User == nil {
		return nil, ErrNotLoggedIn
	}
	return st.User, nil
}

// Subscribe calls fn with the current state now and after every change.
// fn runs on the goroutine that made the change and must not call back into
// the Store. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	current := s.state
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) set(st State) {
	s.update(func(State) State { return st })
}

func (s *Store) update(fn func(State) State) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.state = fn(s.state)
	current := s.state
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(current)
	}
}

// AutoInit runs Init the first time it is called and does nothing after.
func (s *Store) AutoInit(ctx context.Context) {
	s.initOnce.Do(func() { s.Init(ctx) })
}

// Init loads the session owner from the server. Any failure leaves the
// store unauthenticated. Non-interactive stores skip the request.
func (s *Store) Init(ctx context.Context) {
	if !s.interactive {
		return
	}

	s.update(func(st State) State {
		st.Loading = true
		return st
	})

	user, err := s.backend.CurrentUser(ctx)
	if err != nil {
		s.logger.Debug("no active session", "error", err)
		s.set(State{})
		return
	}
	s.set(State{User: user, IsAuthenticated: true})
}

// Login authenticates with email and password, then loads the full user
// record. The state is only touched on success.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	if err := s.backend.Login(ctx, email, password); err != nil {
		s.logger.Info("login rejected", "email", email, "error", err)
		return Result{Error: errorMessage(err, loginFailed)}
	}

	user, err := s.backend.CurrentUser(ctx)
	if err != nil {
		s.logger.Warn("loading user after login", "email", email, "error", err)
		return Result{Error: currentUserFailed}
	}

	s.set(State{User: user, IsAuthenticated: true})
	return Result{Success: true, User: user}
}

// Register creates an account. It never logs the new user in.
func (s *Store) Register(ctx context.Context, in api.UserCreate) Result {
	user, err := s.backend.Register(ctx, in)
	if err != nil {
		s.logger.Info("registration rejected", "email", in.Email, "error", err)
		return Result{Error: errorMessage(err, registerFailed)}
	}
	return Result{Success: true, User: user}
}

// SignUp registers an active, unverified, non-superuser account.
func (s *Store) SignUp(ctx context.Context, email, password string) Result {
	return s.Register(ctx, api.UserCreate{
		Email:    email,
		Password: password,
		IsActive: true,
	})
}

// Logout ends the session. The local state is cleared even when the
// request fails.
func (s *Store) Logout(ctx context.Context) {
	defer s.set(State{})

	if err := s.backend.Logout(ctx); err != nil {
		s.logger.Warn("logout request failed", "error", err)
	}
}

// errorMessage prefers the server's detail message over fallback.
func errorMessage(err error, fallback string) string {
	var se *api.StatusError
	if errors.As(err, &se) && se.Detail != "" {
		return se.Detail
	}
	return fallback
}
