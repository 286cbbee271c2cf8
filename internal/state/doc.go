// Package state implements the client-side state container.
//
// A Container owns the in-memory snapshot of session, preferences, user
// profile, medical profile and reports. It loads the snapshot from a
// store.KVStore once at startup, writes every mutation through to the store,
// and keeps the medical profile in step with the backend: pulls run when a
// session starts, pushes run through a single-worker queue in mutation order.
//
// Lifecycle:
//
//	c, err := state.New(deps, state.Options{})
//	err = c.Load(ctx)       // closes c.Ready()
//	err = c.Login(ctx, email, password)
//	snap := c.Snapshot()
//	c.Close()
//
// Consumers read through Snapshot and mutate only through the action
// methods. There is no package-level container.
package state
