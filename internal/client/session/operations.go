package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vidyasetu/vidyasetu/internal/client/clienterr"
	"github.com/vidyasetu/vidyasetu/internal/client/credstore"
	"github.com/vidyasetu/vidyasetu/internal/models"
)

// Login authenticates against the backend and commits the returned session.
func (m *Manager) Login(ctx context.Context, identifier, password string) (models.User, error) {
	const op = "session.login"

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return models.User{}, clienterr.New(clienterr.KindInvalid, op, "identifier and password are required")
	}
	if m.Session().State == Authenticated {
		return models.User{}, clienterr.New(clienterr.KindAuth, op, "already logged in, log out first")
	}

	resp, err := m.auth.Login(ctx, identifier, password)
	if err != nil {
		return models.User{}, clienterr.Wrap(clienterr.KindAuth, op, "login rejected", err)
	}
	if strings.TrimSpace(resp.Token) == "" || resp.User == nil {
		return models.User{}, clienterr.New(clienterr.KindDecode, op, "login response missing token or user")
	}

	if err := m.commitIfAnonymous(ctx, op, resp.Token, *resp.User); err != nil {
		return models.User{}, err
	}
	m.log.Info("logged in", zap.String("user_id", resp.User.ID), zap.String("role", string(resp.User.Role)))
	return *resp.User, nil
}

// SendOTP requests a password reset code for email.
func (m *Manager) SendOTP(ctx context.Context, email string) error {
	const op = "session.send_otp"

	email = strings.TrimSpace(email)
	if email == "" {
		return clienterr.New(clienterr.KindInvalid, op, "email is required")
	}
	return clienterr.Wrap(clienterr.KindAuth, op, "send reset code", m.auth.SendOTP(ctx, email))
}

// ResetPassword sets a new password with the mailed code. When the backend
// also returns a session it is committed and ResetPassword reports true;
// otherwise the state is unchanged and the user logs in normally.
func (m *Manager) ResetPassword(ctx context.Context, email, otp, newPassword string) (bool, error) {
	const op = "session.reset_password"

	email, otp = strings.TrimSpace(email), strings.TrimSpace(otp)
	if email == "" || otp == "" || newPassword == "" {
		return false, clienterr.New(clienterr.KindInvalid, op, "email, code and new password are required")
	}

	resp, err := m.auth.ResetPassword(ctx, email, otp, newPassword)
	if err != nil {
		return false, clienterr.Wrap(clienterr.KindAuth, op, "reset rejected", err)
	}
	if strings.TrimSpace(resp.Token) == "" || resp.User == nil {
		return false, nil
	}
	if err := m.commitIfAnonymous(ctx, op, resp.Token, *resp.User); err != nil {
		return false, err
	}
	m.log.Info("logged in after password reset", zap.String("user_id", resp.User.ID))
	return true, nil
}

// LogoutError reports that stored credentials could not be removed. The
// session is still Authenticated; Retry attempts the logout again.
type LogoutError struct {
	Err     error
	manager *Manager
}

func (e *LogoutError) Error() string {
	return fmt.Sprintf("logout incomplete, still logged in: %v", e.Err)
}

func (e *LogoutError) Unwrap() error {
	return e.Err
}

// Retry runs Logout again.
func (e *LogoutError) Retry(ctx context.Context) error {
	return e.manager.Logout(ctx)
}

// Logout removes the token and the user record together, then clears the
// session. If removal fails the session is kept and a *LogoutError is
// returned.
func (m *Manager) Logout(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := m.store.RemoveMany(ctx, credstore.KeyToken, credstore.KeyUserData); err != nil {
		m.log.Error("logout failed, session kept", zap.Error(err))
		return &LogoutError{
			Err:     clienterr.Wrap(clienterr.KindStorage, "session.logout", "remove credentials", err),
			manager: m,
		}
	}
	m.transition(Anonymous, nil)
	m.log.Info("logged out")
	return nil
}

// UpdateUser replaces the whole user record, persisting it first. Neither
// the id nor the role can change within a session.
func (m *Manager) UpdateUser(ctx context.Context, user *models.User) error {
	return m.updateUser(ctx, "session.update_user", user, 0)
}

// updateUser applies user when epoch is 0 or still names the current
// principal.
func (m *Manager) updateUser(ctx context.Context, op string, user *models.User, epoch uint64) error {
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return clienterr.New(clienterr.KindInvalid, op, "a complete user record is required")
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	cur, curEpoch := m.current()
	if epoch != 0 && epoch != curEpoch {
		m.log.Info("session changed while fetching profile, result dropped")
		return clienterr.New(clienterr.KindAuth, op, "session changed before the profile arrived")
	}
	if !cur.IsAuthenticated() {
		return clienterr.New(clienterr.KindAuth, op, "not logged in")
	}
	if user.ID != cur.User.ID {
		return clienterr.New(clienterr.KindInvalid, op, fmt.Sprintf("record for %s cannot replace %s", user.ID, cur.User.ID))
	}
	if user.Role != cur.User.Role {
		return clienterr.New(clienterr.KindInvalid, op, fmt.Sprintf("role cannot change from %s to %s", cur.User.Role, user.Role))
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return clienterr.Wrap(clienterr.KindInvalid, op, "encode user record", err)
	}
	if err := m.store.Set(ctx, credstore.KeyUserData, string(raw)); err != nil {
		return clienterr.Wrap(clienterr.KindStorage, op, "persist user record", err)
	}
	m.transition(Authenticated, user)
	return nil
}

// RefreshProfile fetches the full record from path and applies it. A result
// that arrives after a logout or a login as someone else changes nothing.
func (m *Manager) RefreshProfile(ctx context.Context, path string) (models.User, error) {
	const op = "session.refresh_profile"

	cur, epoch := m.current()
	if !cur.IsAuthenticated() {
		return models.User{}, clienterr.New(clienterr.KindAuth, op, "not logged in")
	}
	user, err := m.auth.Profile(ctx, path)
	if err != nil {
		return models.User{}, clienterr.Wrap(clienterr.KindAuth, op, "fetch profile", err)
	}
	if err := m.updateUser(ctx, op, &user, epoch); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// StartProfileRefresh refreshes the profile every interval while logged in,
// until ctx is cancelled. A non-positive interval starts nothing.
func (m *Manager) StartProfileRefresh(ctx context.Context, interval time.Duration, path string) {
	if interval <= 0 {
		m.log.Debug("profile refresh disabled", zap.Duration("interval", interval))
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !m.Session().IsAuthenticated() {
					continue
				}
				if _, err := m.RefreshProfile(ctx, path); err != nil {
					m.log.Warn("profile refresh failed", zap.Error(err))
				}
			}
		}
	}()
}
