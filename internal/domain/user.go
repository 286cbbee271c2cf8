package domain

import (
	"strings"
)

// UserProfile is the display identity attached to an active session.
// It is persisted as a single JSON record and cleared together with the session.
type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the authenticated state of the client.
// A session is logged in if and only if it carries a token.
type Session struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	Token      string `json:"-"` // never serialized alongside the profile
}

// NewSession creates an authenticated session for the given token.
// Returns ErrEmptyToken if the token is blank.
func NewSession(token string) (Session, error) {
	if strings.TrimSpace(token) == "" {
		return Session{}, ErrEmptyToken
	}
	return Session{IsLoggedIn: true, Token: token}, nil
}

// Valid reports whether the session satisfies the token invariant.
func (s Session) Valid() bool {
	return s.IsLoggedIn == (s.Token != "")
}

// NewUserProfile builds a profile for the given email. When name is empty the
// display name is derived from the local part of the email address.
func NewUserProfile(email, name string) (UserProfile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return UserProfile{}, ErrEmptyEmail
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = DisplayNameFromEmail(email)
	}

	return UserProfile{Name: name, Email: email}, nil
}

// DisplayNameFromEmail returns the part of an email address before the '@'.
// If there is no '@', the whole input is returned.
func DisplayNameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}
	return local
}
