// Package task runs background work through a bounded in-memory queue drained
// by a pool of workers.
//
// A pool with a single worker executes tasks strictly in enqueue order, which
// is how the medical profile synchronizer serializes its remote pushes.
package task
