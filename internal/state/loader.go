package state

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/medinodus/internal/domain"
	"github.com/phrazzld/medinodus/internal/events"
	"github.com/phrazzld/medinodus/internal/store"
)

// persisted holds the raw values read at startup.
type persisted struct {
	isLoggedIn, token, theme, highContrast, user, medical, reports string
	hasUser, hasMedical, hasReports, hasTheme, hasHighContrast     bool
}

// Load populates the snapshot from the store. All keys are read concurrently;
// a key that is absent, unreadable or malformed falls back to its default
// without affecting the others. Load runs once per Container and returns
// ErrAlreadyLoaded afterwards.
//
// Actions issued before Ready is closed may be overwritten by the loaded
// values.
func (c *Container) Load(ctx context.Context) error {
	if !c.loaded.CompareAndSwap(false, true) {
		return ErrAlreadyLoaded
	}
	start := time.Now()

	c.sessionMu.Lock()
	c.reportsMu.Lock()

	var raw persisted
	var g errgroup.Group
	g.Go(func() error { raw.isLoggedIn, _ = c.read(ctx, store.KeyIsLoggedIn); return nil })
	g.Go(func() error { raw.token, _ = c.read(ctx, store.KeyUserToken); return nil })
	g.Go(func() error { raw.theme, raw.hasTheme = c.read(ctx, store.KeyTheme); return nil })
	g.Go(func() error {
		raw.highContrast, raw.hasHighContrast = c.read(ctx, store.KeyHighContrast)
		return nil
	})
	g.Go(func() error { raw.user, raw.hasUser = c.read(ctx, store.KeyUser); return nil })
	g.Go(func() error { raw.medical, raw.hasMedical = c.read(ctx, store.KeyMedicalInfo); return nil })
	g.Go(func() error { raw.reports, raw.hasReports = c.read(ctx, store.KeyReports); return nil })
	_ = g.Wait()

	session, cleared := c.restoreSession(ctx, raw)

	prefs := domain.DefaultPreferences()
	if raw.hasTheme {
		if mode, err := domain.ParseThemeMode(raw.theme); err == nil {
			prefs.ThemeMode = mode
		} else {
			c.logger.Warn("ignoring unknown persisted theme", "value", raw.theme)
		}
	}
	if raw.hasHighContrast {
		switch raw.highContrast {
		case "true":
			prefs.HighContrast = true
		case "false":
		default:
			c.logger.Warn("ignoring malformed persisted high contrast flag", "value", raw.highContrast)
		}
	}

	var profile *domain.UserProfile
	if session.IsLoggedIn && raw.hasUser {
		var p domain.UserProfile
		if c.decode(store.KeyUser, raw.user, &p) {
			profile = &p
		}
	}
	if session.IsLoggedIn && profile == nil {
		p := profileFromToken(session.Token)
		c.logger.Warn("persisted session has no readable profile, using token subject",
			"has_email", p.Email != "")
		profile = &p
	}

	var medical domain.MedicalProfile
	if raw.hasMedical && !cleared {
		var m domain.MedicalProfile
		if c.decode(store.KeyMedicalInfo, raw.medical, &m) {
			medical = m
		}
	}

	reports := []domain.Report{}
	if raw.hasReports {
		var rs []domain.Report
		if c.decode(store.KeyReports, raw.reports, &rs) && rs != nil {
			reports = rs
		}
	}

	c.mu.Lock()
	c.snap = Snapshot{
		Session:     session,
		Preferences: prefs,
		Profile:     profile,
		Medical:     medical,
		Reports:     reports,
		Loading:     false,
	}
	rev := c.medicalGen
	c.mu.Unlock()

	c.reportsMu.Unlock()
	c.sessionMu.Unlock()
	close(c.ready)

	c.logger.Info("state loaded",
		"logged_in", session.IsLoggedIn,
		"report_count", len(reports),
		"duration_ms", time.Since(start).Milliseconds())

	if session.IsLoggedIn {
		c.emit(ctx, events.TypeSessionStarted, session.Token, rev)
	}
	return nil
}

// restoreSession decides whether the persisted session is usable. The token
// is authoritative: a logged-in flag without a token is not a session.
// cleared reports that the session keys were removed from the store.
// Callers hold sessionMu.
func (c *Container) restoreSession(ctx context.Context, raw persisted) (session domain.Session, cleared bool) {
	token := strings.TrimSpace(raw.token)
	if raw.isLoggedIn != "true" {
		return domain.Session{}, false
	}
	if token == "" {
		c.logger.Warn("persisted session has no token, starting logged out")
		return domain.Session{}, false
	}

	if c.invalidateExpired && tokenExpired(token, c.now()) {
		c.logger.Info("persisted session token has expired, clearing session")
		c.remove(context.WithoutCancel(ctx), store.SessionKeys...)
		return domain.Session{}, true
	}

	session, err := domain.NewSession(token)
	if err != nil {
		return domain.Session{}, false
	}
	return session, false
}

// tokenExpired reports whether token is a JWT whose exp claim is not after
// now. The signature is not checked; only the server can do that. Tokens
// that are not JWTs, or carry no exp claim, never expire here.
func tokenExpired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}

// profileFromToken builds a stand-in profile from the token's sub claim. The
// result is empty when the token is not a JWT or carries no subject.
func profileFromToken(token string) domain.UserProfile {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return domain.UserProfile{}
	}
	p, err := domain.NewUserProfile(claims.Subject, "")
	if err != nil {
		return domain.UserProfile{}
	}
	return p
}
