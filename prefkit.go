// Package prefkit reads and writes typed values in a key-value preference
// store that only persists native shapes.
//
// Each read and write names the Converter for the value's type:
//
//	p := prefkit.New(store)
//	prefkit.SetValue(p, convert.List(convert.Int()), []int{5, 6}, "recent")
//	recent := prefkit.Value(p, convert.List(convert.Int()), "recent", nil)
//
// Reads never fail: a missing, unreadable or foreign-shaped entry yields the
// caller's default. Writes never fail either: a value that cannot be
// encoded leaves the store untouched. Both cases are logged.
package prefkit

import (
	"log/slog"

	"github.com/kalambet/prefkit/convert"
	"github.com/kalambet/prefkit/native"
)

// Store is the key-value store a Preferences reads and writes.
// backend.Store implementations satisfy it.
type Store interface {
	Get(key string) (v any, ok bool, err error)
	Set(key string, v any) error
	Remove(key string) error
}

// Preferences binds typed access to one Store. It holds no state of its
// own and is safe for concurrent use if the Store is.
type Preferences struct {
	store Store
	log   *slog.Logger
}

// Option configures a Preferences.
type Option func(*Preferences)

// WithLogger sets the logger used to report recovered failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Preferences) { p.log = l }
}

// New returns a Preferences backed by store.
func New(store Store, opts ...Option) *Preferences {
	p := &Preferences{store: store, log: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Value returns the value stored under key decoded with c, or def when the
// key is absent, the store fails, or the stored value does not decode.
// Nothing is written back.
func Value[T any](p *Preferences, c convert.Converter[T], key string, def T) T {
	raw, ok, err := p.store.Get(key)
	if err != nil {
		p.log.Warn("prefs: read failed, using default", "key", key, "error", err)
		return def
	}
	if !ok {
		return def
	}
	v, err := c.Decode(raw)
	if err != nil {
		p.log.Debug("prefs: decode failed, using default", "key", key, "kind", native.KindOf(raw), "error", err)
		return def
	}
	return v
}

// SetValue encodes value with c and stores it under key. A value that
// encodes to nothing, such as a nil optional, removes the key. A value that
// fails to encode leaves the store unchanged.
func SetValue[T any](p *Preferences, c convert.Converter[T], value T, key string) {
	raw, err := c.Encode(value)
	if err != nil {
		p.log.Warn("prefs: encode failed, store unchanged", "key", key, "error", err)
		return
	}
	if raw == nil {
		if err := p.store.Remove(key); err != nil {
			p.log.Warn("prefs: remove failed", "key", key, "error", err)
		}
		return
	}
	n, err := native.Normalize(raw)
	if err != nil {
		p.log.Warn("prefs: converter produced a non-native value, store unchanged", "key", key, "error", err)
		return
	}
	if err := p.store.Set(key, n); err != nil {
		p.log.Warn("prefs: write failed", "key", key, "error", err)
	}
}
