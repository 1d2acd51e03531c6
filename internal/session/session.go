// Package session is the single process-wide authentication gate. One
// Manager is created at start and shared; views read its state instead of
// checking the session themselves.
//
// The persisted cookie and cached user are not synchronized across
// processes: every process verifies on its own start.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tgienger/taskflow/internal/models"
	"github.com/tgienger/taskflow/internal/route"
)

// LoginPrompt is sent to the notifier when a protected route loses its session
const LoginPrompt = "Please log in to continue"

// State is a snapshot of the session
type State struct {
	Loading       bool
	Authenticated bool
	User          *models.User
}

// Route returns the part of s the route guard needs
func (s State) Route() route.State {
	return route.State{Loading: s.Loading, Authenticated: s.Authenticated}
}

// Gateway is the slice of the API client the gate uses
type Gateway interface {
	Protected(ctx context.Context) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	ClearSession() error
	SessionExpired(now time.Time) bool
}

// UserCache persists the last known user for display before the check returns
type UserCache interface {
	SaveUser(u models.User) error
	CachedUser() (*models.User, error)
	ClearUser() error
}

// Manager owns the session lifecycle
type Manager struct {
	gw     Gateway
	cache  UserCache
	log    *slog.Logger
	notify func(string)
	now    func() time.Time

	mu    sync.Mutex
	state State
	route string
	subs  map[int]func(State)
	next  int
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the debug logger
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithNotifier receives user-visible messages such as LoginPrompt
func WithNotifier(fn func(string)) Option {
	return func(m *Manager) { m.notify = fn }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a Manager in the loading state
func New(gw Gateway, cache UserCache, opts ...Option) *Manager {
	m := &Manager{
		gw:     gw,
		cache:  cache,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		notify: func(string) {},
		now:    time.Now,
		state:  State{Loading: true},
		route:  route.Home,
		subs:   map[int]func(State){},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current session snapshot
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetRoute records the route being shown; it decides whether a failed
// check prompts the user
func (m *Manager) SetRoute(path string) {
	m.mu.Lock()
	m.route = path
	m.mu.Unlock()
}

// Subscribe registers fn for every state change and returns a function
// that removes it
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	id := m.next
	m.next++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// CachedUser returns the persisted user, for display while loading
func (m *Manager) CachedUser() *models.User {
	if m.cache == nil {
		return nil
	}
	u, err := m.cache.CachedUser()
	if err != nil {
		m.log.Warn("failed to read cached user", "err", err)
		return nil
	}
	return u
}

// Verify asks the gateway whether the session is valid. Any failure,
// whatever its cause, leaves the session unauthenticated.
func (m *Manager) Verify(ctx context.Context) State {
	m.set(State{Loading: true})

	if m.gw.SessionExpired(m.now()) {
		m.log.Debug("stored token expired, clearing before check")
		if err := m.gw.ClearSession(); err != nil {
			m.log.Warn("failed to clear expired session", "err", err)
		}
	}

	u, err := m.gw.Protected(ctx)
	if err != nil {
		m.log.Debug("session check failed", "err", err)
		m.clearLocal()

		m.mu.Lock()
		current := m.route
		m.mu.Unlock()
		if !route.IsPublic(current) {
			m.notify(LoginPrompt)
		}
		return m.State()
	}

	m.saveUser(*u)
	m.set(State{Authenticated: true, User: u})
	return m.State()
}

// Login exchanges credentials and authenticates the session
func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	u, err := m.gw.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.saveUser(*u)
	m.set(State{Authenticated: true, User: u})
	return u, nil
}

// Logout ends the session remotely and always clears it locally. A remote
// failure is returned after the local session is already gone.
func (m *Manager) Logout(ctx context.Context) error {
	remoteErr := m.gw.Logout(ctx)
	if err := m.gw.ClearSession(); err != nil {
		m.log.Warn("failed to clear cookies", "err", err)
	}
	m.clearLocal()
	if remoteErr != nil {
		return fmt.Errorf("logout: %w", remoteErr)
	}
	return nil
}

// Invalidate drops the session without calling the gateway, used when an
// authenticated call answers 401
func (m *Manager) Invalidate() {
	if err := m.gw.ClearSession(); err != nil {
		m.log.Warn("failed to clear cookies", "err", err)
	}
	m.clearLocal()
}

// UpdateUser replaces the session user after a profile change
func (m *Manager) UpdateUser(u models.User) {
	m.mu.Lock()
	if !m.state.Authenticated {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.saveUser(u)
	m.set(State{Authenticated: true, User: &u})
}

func (m *Manager) clearLocal() {
	if m.cache != nil {
		if err := m.cache.ClearUser(); err != nil {
			m.log.Warn("failed to clear cached user", "err", err)
		}
	}
	m.set(State{})
}

func (m *Manager) saveUser(u models.User) {
	if m.cache == nil {
		return
	}
	if err := m.cache.SaveUser(u); err != nil {
		m.log.Warn("failed to cache user", "err", err)
	}
}

func (m *Manager) set(s State) {
	m.mu.Lock()
	m.state = s
	subs := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}
