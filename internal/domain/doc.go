// Package domain contains the core entities of the client state container:
// the authenticated session and its user profile, display preferences, the
// medical profile that is synchronized with the backend, and locally stored
// analysis reports. It is independent of any storage or transport mechanism.
package domain
