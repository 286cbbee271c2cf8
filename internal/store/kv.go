package store

import "context"

// Persisted key layout. Values are plain strings or JSON documents.
const (
	KeyIsLoggedIn   = "isLoggedIn"   // "true" or absent
	KeyUserToken    = "userToken"    // opaque access token
	KeyUser         = "user"         // JSON {name,email}
	KeyTheme        = "theme"        // light|dark|system
	KeyHighContrast = "highContrast" // "true"/"false"
	KeyMedicalInfo  = "medicalInfo"  // JSON {conditions,allergies,medications}
	KeyReports      = "reports"      // JSON array, most-recent-first
)

// SessionKeys are removed together when a session ends.
var SessionKeys = []string{KeyIsLoggedIn, KeyUserToken, KeyUser, KeyMedicalInfo}

// SensitiveKeys hold data that backends may seal at rest.
var SensitiveKeys = []string{KeyUserToken, KeyUser, KeyMedicalInfo, KeyReports}

// KVStore defines the interface for durable string-keyed persistence.
// A successful write is durable; there are no transactions across keys.
type KVStore interface {
	// Get returns the value stored under key.
	// Returns ErrNotFound if the key has no value.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// RemoveMany deletes all the given keys. Absent keys are ignored.
	RemoveMany(ctx context.Context, keys []string) error
}

// Backend is a KVStore that owns resources which must be released.
type Backend interface {
	KVStore

	// Close releases the backend's resources. Further calls return ErrClosed.
	Close() error
}
