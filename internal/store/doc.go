// Package store defines the persistent key-value contract used by the client
// state container. It abstracts the underlying storage mechanism (file,
// SQLite, Redis, Postgres, memory) from the container's synchronization
// logic, and fixes the key layout the container persists under.
package store
