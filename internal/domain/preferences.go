package domain

// ThemeMode selects the colour scheme used by the presentation layer.
type ThemeMode string

// Supported theme modes
const (
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
	ThemeSystem ThemeMode = "system"
)

// Preferences holds process-wide display and accessibility settings.
// They are independent of the session and survive logout.
type Preferences struct {
	ThemeMode    ThemeMode `json:"themeMode"`
	HighContrast bool      `json:"highContrast"`
}

// DefaultPreferences returns the settings used before anything is persisted.
func DefaultPreferences() Preferences {
	return Preferences{ThemeMode: ThemeSystem, HighContrast: false}
}

// Valid reports whether the mode is one of the supported theme modes.
func (m ThemeMode) Valid() bool {
	switch m {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	default:
		return false
	}
}

// ParseThemeMode converts a stored or user-supplied value to a ThemeMode.
func ParseThemeMode(s string) (ThemeMode, error) {
	mode := ThemeMode(s)
	if !mode.Valid() {
		return "", ErrInvalidThemeMode
	}
	return mode, nil
}
