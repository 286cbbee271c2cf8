// Package events carries session lifecycle notifications between the
// session manager and the components that react to them.
//
// The session manager emits an Event whenever the authenticated identity
// changes. Handlers such as the medical profile synchronizer register on an
// EventEmitter and decide for themselves which event types they care about,
// so the session manager never calls them directly.
package events
