// Package session owns the process-wide answer to "who is logged in".
//
// A Manager starts in Hydrating, moves to Anonymous or Authenticated when
// Hydrate reads the credential store, and then cycles between the two. Every
// transition that depends on stored credentials is persisted first and made
// visible second.
package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vidyasetu/vidyasetu/internal/client/clienterr"
	"github.com/vidyasetu/vidyasetu/internal/client/credstore"
	"github.com/vidyasetu/vidyasetu/internal/models"
)

// State is the coarse session state.
type State int

const (
	// Hydrating lasts from construction until Hydrate returns.
	Hydrating State = iota
	// Anonymous means nobody is logged in.
	Anonymous
	// Authenticated means User is set and the store holds its token.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Hydrating:
		return "hydrating"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// Session is an immutable snapshot of the manager state.
type Session struct {
	State State
	// User is nil unless State is Authenticated.
	User *models.User
}

// IsLoading reports the startup hydration window.
func (s Session) IsLoading() bool {
	return s.State == Hydrating
}

// IsAuthenticated reports whether a user is logged in.
func (s Session) IsAuthenticated() bool {
	return s.State == Authenticated && s.User != nil
}

// Authenticator is the backend the manager logs in against.
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (models.LoginResponse, error)
	SendOTP(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) (models.ResetPasswordResponse, error)
	Profile(ctx context.Context, path string) (models.User, error)
}

type observer struct {
	id int
	fn func(Session)
}

// Manager is the provider of session state. Create one per process and pass
// it to whatever needs it.
type Manager struct {
	store credstore.Store
	auth  Authenticator
	log   *zap.Logger

	// writeMu serializes every transition backed by the store.
	writeMu sync.Mutex

	mu        sync.RWMutex
	state     State
	user      *models.User
	observers []observer
	nextID    int
	// epoch changes whenever the logged-in principal does.
	epoch uint64
}

// NewManager returns a manager in the Hydrating state.
func NewManager(store credstore.Store, auth Authenticator, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, auth: auth, log: log, state: Hydrating}
}

// Session returns the current snapshot.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Session {
	s := Session{State: m.state}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

// Subscribe registers fn to receive every new snapshot. fn runs on the
// goroutine that caused the transition and must not call state-changing
// Manager methods. The returned func removes the observer.
func (m *Manager) Subscribe(fn func(Session)) (cancel func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.observers = append(m.observers, observer{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, o := range m.observers {
				if o.id == id {
					m.observers = append(m.observers[:i:i], m.observers[i+1:]...)
					return
				}
			}
		})
	}
}

func principalID(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

// current returns the snapshot together with its principal epoch.
func (m *Manager) current() (Session, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(), m.epoch
}

// transition sets the state and notifies observers outside the lock.
func (m *Manager) transition(state State, user *models.User) {
	m.mu.Lock()
	if state != m.state || principalID(user) != principalID(m.user) {
		m.epoch++
	}
	m.state = state
	if user != nil {
		u := *user
		m.user = &u
	} else {
		m.user = nil
	}
	snap := m.snapshotLocked()
	observers := make([]observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	for _, o := range observers {
		o.fn(snap)
	}
}

// Hydrate rebuilds the session from the credential store. Both the token
// and a decodable user record are required for Authenticated; anything else,
// including read and decode failures, yields Anonymous.
func (m *Manager) Hydrate(ctx context.Context) Session {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	var (
		token, raw          string
		haveToken, haveUser bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		token, haveToken, err = m.store.Get(gctx, credstore.KeyToken)
		return err
	})
	g.Go(func() error {
		var err error
		raw, haveUser, err = m.store.Get(gctx, credstore.KeyUserData)
		return err
	})

	user, ok := m.decodeHydrated(g.Wait(), token, haveToken, raw, haveUser)
	if !ok {
		m.transition(Anonymous, nil)
		return m.Session()
	}
	m.transition(Authenticated, &user)
	m.log.Info("session restored", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return m.Session()
}

func (m *Manager) decodeHydrated(readErr error, token string, haveToken bool, raw string, haveUser bool) (models.User, bool) {
	if readErr != nil {
		m.log.Warn("credential store unreadable, starting anonymous", zap.Error(readErr))
		return models.User{}, false
	}
	if !haveToken || strings.TrimSpace(token) == "" || !haveUser {
		return models.User{}, false
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		m.log.Warn("stored user record is corrupt, starting anonymous", zap.Error(err))
		return models.User{}, false
	}
	if user.ID == "" {
		m.log.Warn("stored user record has no id, starting anonymous")
		return models.User{}, false
	}
	return user, true
}

// commitSession persists token and user and only then flips to
// Authenticated. If the user record cannot be written the token is rolled
// back and the state is left alone. Callers hold writeMu.
func (m *Manager) commitSession(ctx context.Context, token string, user models.User) error {
	const op = "session.commit"

	raw, err := json.Marshal(user)
	if err != nil {
		return clienterr.Wrap(clienterr.KindInvalid, op, "encode user record", err)
	}
	if err := m.store.Set(ctx, credstore.KeyToken, token); err != nil {
		return clienterr.Wrap(clienterr.KindStorage, op, "persist token", err)
	}
	if err := m.store.Set(ctx, credstore.KeyUserData, string(raw)); err != nil {
		rollback := m.store.RemoveMany(ctx, credstore.KeyToken, credstore.KeyUserData)
		if rollback != nil {
			m.log.Error("failed to roll back partial session", zap.Error(rollback))
		}
		return clienterr.Wrap(clienterr.KindStorage, op, "persist user record", multierr.Append(err, rollback))
	}

	m.transition(Authenticated, &user)
	return nil
}

// commitIfAnonymous takes writeMu and commits unless someone is logged in.
func (m *Manager) commitIfAnonymous(ctx context.Context, op, token string, user models.User) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.Session().State == Authenticated {
		return clienterr.New(clienterr.KindAuth, op, "already logged in, log out first")
	}
	return m.commitSession(ctx, token, user)
}
