// Package session owns the authentication state of the client: the current
// user snapshot and the Anonymous / Authenticating / Authenticated state
// machine around login, register, logout, and session probes.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/talkscribe/talkscribe-go/internal/client/api"
	"github.com/talkscribe/talkscribe-go/internal/client/token"
	"github.com/talkscribe/talkscribe-go/internal/models"
)

// Status is the session state.
type Status string

const (
	// StatusAnonymous means no session is established.
	StatusAnonymous Status = "anonymous"
	// StatusAuthenticating means a login or register call is in flight.
	StatusAuthenticating Status = "authenticating"
	// StatusAuthenticated means tokens are stored and a user snapshot exists.
	StatusAuthenticated Status = "authenticated"
)

// Manager coordinates the token store and the API client. It is constructed
// once at application start and injected into every consumer; the user
// snapshot it holds is shared read-only.
type Manager struct {
	api    *api.Client
	tokens *token.Store
	log    *zap.Logger

	mu     sync.Mutex
	status Status
	user   *models.User
}

// NewManager wires the session manager to the client and token store. It
// also registers itself as the client's expiry observer, so a failed token
// refresh anywhere downgrades the session to Anonymous.
func NewManager(client *api.Client, tokens *token.Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		api:    client,
		tokens: tokens,
		log:    log,
		status: StatusAnonymous,
	}
	client.OnSessionExpired(m.invalidate)
	return m
}

// Login authenticates with credentials. On success the token pair is
// persisted and the user snapshot fetched and stored. On failure the
// previous in-memory state is kept, so a failed re-login does not log the
// user out.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	prevStatus, prevUser := m.snapshot()
	m.setState(StatusAuthenticating, prevUser)

	pair, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.setState(prevStatus, prevUser)
		return nil, err
	}
	if err := m.tokens.SetPair(pair.Access, pair.Refresh); err != nil {
		m.setState(prevStatus, prevUser)
		return nil, err
	}
	user, err := m.api.CurrentUser(ctx)
	if err != nil {
		m.setState(prevStatus, prevUser)
		return nil, err
	}

	m.setState(StatusAuthenticated, user)
	m.log.Info("logged in", zap.Int64("user_id", user.ID))
	return user, nil
}

// Register creates an account and establishes a session from the returned
// user and token pair.
func (m *Manager) Register(ctx context.Context, p api.RegisterParams) (*models.User, error) {
	prevStatus, prevUser := m.snapshot()
	m.setState(StatusAuthenticating, prevUser)

	res, err := m.api.Register(ctx, p)
	if err != nil {
		m.setState(prevStatus, prevUser)
		return nil, err
	}
	if err := m.tokens.SetPair(res.Access, res.Refresh); err != nil {
		m.setState(prevStatus, prevUser)
		return nil, err
	}

	user := res.User
	m.setState(StatusAuthenticated, &user)
	m.log.Info("registered", zap.Int64("user_id", user.ID))
	return &user, nil
}

// Logout revokes the session server-side on a best-effort basis and clears
// local tokens and the user snapshot unconditionally. The returned error is
// the revocation outcome; local state is Anonymous either way.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.api.Logout(ctx)
	if err != nil {
		m.log.Warn("server-side logout failed, clearing local session anyway", zap.Error(err))
	}
	_ = m.tokens.Clear()
	m.setState(StatusAnonymous, nil)
	return err
}

// CheckAuth probes the session. It never fails: any error, including a
// network failure, is reported as Visitor. Calling it repeatedly without
// intervening auth actions yields the same answer.
func (m *Manager) CheckAuth(ctx context.Context) models.AuthStatus {
	if m.tokens.Get(token.Access) == "" {
		m.setState(StatusAnonymous, nil)
		return models.AuthStatus{Auth: models.StateVisitor}
	}
	user, err := m.api.CurrentUser(ctx)
	if err != nil {
		m.log.Debug("auth probe failed", zap.Error(err))
		return models.AuthStatus{Auth: models.StateVisitor}
	}
	m.setState(StatusAuthenticated, user)
	return models.AuthStatus{Auth: models.StateAuthenticated, User: user}
}

// CurrentUser returns the cached user snapshot, or nil when anonymous.
func (m *Manager) CurrentUser() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Status returns the current session state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// IsAuthenticated reports whether a session is established.
func (m *Manager) IsAuthenticated() bool {
	return m.Status() == StatusAuthenticated
}

// invalidate downgrades to Anonymous after the client cleared the token
// store on an irrecoverable refresh failure.
func (m *Manager) invalidate() {
	m.setState(StatusAnonymous, nil)
	m.log.Info("session expired")
}

func (m *Manager) snapshot() (Status, *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.user
}

func (m *Manager) setState(s Status, u *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
	m.user = u
}
