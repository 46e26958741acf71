// Package backend provides key-value stores that persist native values.
//
// Every store holds single-key operations atomic with last-writer-wins
// semantics and returns normalized native values (see package native).
package backend

import "errors"

var (
	// ErrUnknownKind is returned by Open for an unrecognized backend kind.
	ErrUnknownKind = errors.New("unknown backend kind")
	// ErrUnsupported is returned when a backend is not available on this platform.
	ErrUnsupported = errors.New("backend not supported on this platform")
)

// Store is a key-value store of native values.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(key string) (v any, ok bool, err error)
	// Set stores a native value under key, replacing any previous value.
	Set(key string, v any) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
	Close() error
}
