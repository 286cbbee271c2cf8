package state

import (
	"context"
	"fmt"
	"strings"

	"github.com/phrazzld/medinodus/internal/domain"
	"github.com/phrazzld/medinodus/internal/events"
	"github.com/phrazzld/medinodus/internal/haptic"
	"github.com/phrazzld/medinodus/internal/redact"
	"github.com/phrazzld/medinodus/internal/store"
)

// Login authenticates against the backend and establishes a session.
// The display name is the one supplied by the server, falling back to the
// local part of email. On failure the container is left unchanged and the
// backend error is returned wrapped.
func (c *Container) Login(ctx context.Context, email, password string) error {
	return c.login(ctx, email, password, "")
}

// Register creates an account and then logs in with the same credentials.
// fullName is used as the display name when the server does not supply one.
// Any token returned by registration itself is ignored.
func (c *Container) Register(ctx context.Context, email, password, fullName string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.ErrEmptyEmail
	}

	if err := c.auth.Register(ctx, email, password, fullName); err != nil {
		c.metrics.AuthAttempt("register", false)
		c.logger.Info("registration failed", "error", redact.Error(err))
		return fmt.Errorf("register: %w", err)
	}
	c.metrics.AuthAttempt("register", true)

	return c.login(ctx, email, password, fullName)
}

func (c *Container) login(ctx context.Context, email, password, fallbackName string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.ErrEmptyEmail
	}

	res, err := c.auth.Login(ctx, email, password)
	if err != nil {
		c.metrics.AuthAttempt("login", false)
		c.logger.Info("login failed", "error", redact.Error(err))
		return fmt.Errorf("login: %w", err)
	}

	session, err := domain.NewSession(res.AccessToken)
	if err != nil {
		c.metrics.AuthAttempt("login", false)
		return fmt.Errorf("login: %w", err)
	}

	name := res.FullName
	if strings.TrimSpace(name) == "" {
		name = fallbackName
	}
	profile, err := domain.NewUserProfile(email, name)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.metrics.AuthAttempt("login", true)

	persistCtx := context.WithoutCancel(ctx)

	c.sessionMu.Lock()
	c.mu.Lock()
	replaced := c.snap.Session.IsLoggedIn && c.snap.Session.Token != session.Token
	c.snap.Session = session
	c.snap.Profile = &profile
	if replaced {
		// medical data of the previous session must not leak into this one
		c.snap.Medical = domain.MedicalProfile{}
		c.medicalGen++
	}
	rev := c.medicalGen
	c.mu.Unlock()

	if replaced {
		c.remove(persistCtx, store.KeyMedicalInfo)
	}
	c.write(persistCtx, store.KeyIsLoggedIn, "true")
	c.write(persistCtx, store.KeyUserToken, session.Token)
	c.writeJSON(persistCtx, store.KeyUser, profile)
	c.sessionMu.Unlock()

	c.logger.Info("session started")
	c.notifier.Pulse(haptic.Medium)
	c.emit(ctx, events.TypeSessionStarted, session.Token, rev)
	return nil
}

// Logout ends the session. The backend is notified on a best-effort basis;
// local state is always cleared: token, profile and medical profile are
// reset and their keys removed from the store. Preferences and reports are
// kept.
func (c *Container) Logout(ctx context.Context) {
	token := c.currentToken()
	if token != "" {
		if err := c.auth.Logout(ctx, token); err != nil {
			c.metrics.AuthAttempt("logout", false)
			c.logger.Warn("remote logout failed, clearing local session anyway", "error", redact.Error(err))
		} else {
			c.metrics.AuthAttempt("logout", true)
		}
	}

	c.sessionMu.Lock()
	c.mu.Lock()
	wasLoggedIn := c.snap.Session.IsLoggedIn
	c.snap.Session = domain.Session{}
	c.snap.Profile = nil
	c.snap.Medical = domain.MedicalProfile{}
	c.medicalGen++
	rev := c.medicalGen
	c.mu.Unlock()

	c.remove(context.WithoutCancel(ctx), store.SessionKeys...)
	c.sessionMu.Unlock()

	c.notifier.Pulse(haptic.Medium)
	if wasLoggedIn {
		c.logger.Info("session ended")
		c.emit(ctx, events.TypeSessionEnded, "", rev)
	}
}

// UpdateProfile changes the display name of the active session's profile.
// Returns domain.ErrNotAuthenticated when no session is active.
func (c *Container) UpdateProfile(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", domain.ErrValidation)
	}

	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	c.mu.Lock()
	if !c.snap.Session.IsLoggedIn || c.snap.Profile == nil {
		c.mu.Unlock()
		return domain.ErrNotAuthenticated
	}
	profile := *c.snap.Profile
	profile.Name = name
	c.snap.Profile = &profile
	c.mu.Unlock()

	c.writeJSON(context.WithoutCancel(ctx), store.KeyUser, profile)

	c.notifier.Pulse(haptic.Light)
	return nil
}

// emit publishes a session event. Handler failures are already logged by
// the emitter and never undo the transition.
func (c *Container) emit(ctx context.Context, eventType, token string, rev uint64) {
	event := events.NewEvent(eventType, token)
	event.Revision = rev
	if err := c.events.EmitEvent(ctx, event); err != nil {
		c.logger.Debug("session event not fully handled", "event_type", eventType, "error", redact.Error(err))
	}
}
