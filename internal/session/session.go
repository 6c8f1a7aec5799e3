// Package session holds the shell's authentication state. Stores receive
// the manager explicitly and ask it for the acting user before every
// remote call; there is no ambient per-process user.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	apperrors "wolfquant/internal/errors"
	"wolfquant/internal/gateway"
	"wolfquant/internal/logger"
	"wolfquant/internal/models"
)

// Session is the active authenticated session.
type Session struct {
	UserID   uint
	Username string
	Token    string
}

// Manager owns the current session and the auth commands that change it.
type Manager struct {
	mu      sync.Mutex
	gw      gateway.Gateway
	log     *zap.SugaredLogger
	current *Session
}

// NewManager returns a manager with no active session.
func NewManager(gw gateway.Gateway) *Manager {
	return &Manager{gw: gw, log: logger.Get()}
}

// Register creates a new account. It does not log the user in.
func (m *Manager) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	req := &gateway.RegisterRequest{Username: username, Email: email, Password: password}
	var user models.User
	if err := m.gw.Invoke(ctx, gateway.CmdAuthRegister, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and installs the resulting session as current.
func (m *Manager) Login(ctx context.Context, usernameOrEmail, password string) (*Session, error) {
	req := &gateway.LoginRequest{UsernameOrEmail: usernameOrEmail, Password: password}
	var resp gateway.LoginResponse
	if err := m.gw.Invoke(ctx, gateway.CmdAuthLogin, req, &resp); err != nil {
		return nil, err
	}

	session := &Session{
		UserID:   resp.User.ID,
		Username: resp.User.Username,
		Token:    resp.Token,
	}

	m.mu.Lock()
	m.current = session
	m.mu.Unlock()

	m.log.Infow("session started", "user_id", session.UserID)
	return session, nil
}

// Resume verifies a previously issued token and installs it as the current
// session. Used at startup with a persisted token.
func (m *Manager) Resume(ctx context.Context, token string) (*Session, error) {
	req := &gateway.VerifySessionRequest{Token: token}
	var resp gateway.VerifySessionResponse
	if err := m.gw.Invoke(ctx, gateway.CmdAuthVerifySession, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Valid {
		return nil, apperrors.ErrInvalidSession
	}

	session := &Session{UserID: resp.UserID, Token: token}

	m.mu.Lock()
	m.current = session
	m.mu.Unlock()

	return session, nil
}

// Logout revokes the current session remotely and clears it locally. The
// local session is cleared even if the remote call fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	current := m.current
	m.current = nil
	m.mu.Unlock()

	if current == nil {
		return nil
	}
	req := &gateway.LogoutRequest{Token: current.Token}
	if err := m.gw.Invoke(ctx, gateway.CmdAuthLogout, req, nil); err != nil {
		m.log.Warnw("remote logout failed", "error", err)
		return err
	}
	return nil
}

// Current returns the active session, if any.
func (m *Manager) Current() (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, false
	}
	s := *m.current
	return &s, true
}

// UserID returns the acting user or ErrNotAuthenticated. Every store
// operation resolves ownership through this call.
func (m *Manager) UserID() (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return 0, apperrors.ErrNotAuthenticated
	}
	return m.current.UserID, nil
}
