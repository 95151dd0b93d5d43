// Package database persists small pieces of world state across sessions as a
// key to JSON-value mapping.
//
// Two backends implement Store: a single-file binary store (the default) and
// a redis store for installations that already run one. Both are used only
// from the engine's single tick goroutine.
package database

import "errors"

// ErrNoSuchKey is returned by Get and Remove for absent keys.
var ErrNoSuchKey = errors.New("database: no such key")

// Store is the session database used by the engine core and exposed to
// scripts. Values are anything JSON-serializable.
type Store interface {
	// Has reports whether key exists.
	Has(key string) bool
	// Get unmarshals the value stored under key into out.
	Get(key string, out any) error
	// Put creates or replaces the value stored under key.
	Put(key string, v any) error
	// Remove deletes key. Removing an absent key returns ErrNoSuchKey.
	Remove(key string) error
	// Flush forces any pending writes to durable storage now.
	Flush() error
	// Update is the per-tick callback: it flushes opportunistically if the
	// store has unwritten changes.
	Update() error
	// Close flushes and releases the store.
	Close() error
}
