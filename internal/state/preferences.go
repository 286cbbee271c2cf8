package state

import (
	"context"
	"strconv"

	"github.com/phrazzld/medinodus/internal/domain"
	"github.com/phrazzld/medinodus/internal/store"
)

// SetTheme changes the theme mode. The new value is visible immediately and
// persisted in the background; persistence failures are logged only.
func (c *Container) SetTheme(mode domain.ThemeMode) error {
	if !mode.Valid() {
		return domain.ErrInvalidThemeMode
	}

	c.mu.Lock()
	c.snap.Preferences.ThemeMode = mode
	c.mu.Unlock()

	c.persistPreference(store.KeyTheme, func(p domain.Preferences) string {
		return string(p.ThemeMode)
	})
	return nil
}

// SetHighContrast toggles high-contrast mode, persisting in the background.
func (c *Container) SetHighContrast(on bool) {
	c.mu.Lock()
	c.snap.Preferences.HighContrast = on
	c.mu.Unlock()

	c.persistPreference(store.KeyHighContrast, func(p domain.Preferences) string {
		return strconv.FormatBool(p.HighContrast)
	})
}

// persistPreference writes the current value of one preference. The value is
// read under prefMu at write time, so the last write always carries the
// latest value regardless of goroutine scheduling.
func (c *Container) persistPreference(key string, value func(domain.Preferences) string) {
	c.goBackground(func() {
		c.prefMu.Lock()
		defer c.prefMu.Unlock()

		c.mu.RLock()
		v := value(c.snap.Preferences)
		c.mu.RUnlock()

		c.write(context.Background(), key, v)
	})
}
