// Package kv is the persisted key/value namespace shared by every engine
// component: one flat string-to-string map, plus a change bus so the sync
// engine can observe writes without polling.
package kv

import "context"

// Store is the persistence interface. Implementations must publish an Event
// on the configured Bus after every successful Set or Delete.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes key to value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns all keys with the given prefix, in unspecified order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
