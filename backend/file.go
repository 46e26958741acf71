package backend

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kalambet/prefkit/native"
)

// File stores one domain as a binary property list on disk, the same
// layout the platform uses for its preference files. The file is read once
// on open and rewritten atomically after every change.
type File struct {
	path string

	mu   sync.Mutex
	data map[string]any
}

// OpenFile opens the property list at path. A missing file is an empty
// domain. An unreadable or corrupt file is logged and treated as empty; it
// is replaced on the next write.
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("opening preference file: empty path")
	}
	f := &File{path: path, data: make(map[string]any)}
	f.load()
	return f, nil
}

func (f *File) load() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("could not read preference file, starting empty", "path", f.path, "error", err)
		}
		return
	}
	entries, err := native.UnmarshalDomain(data)
	if err != nil {
		slog.Warn("could not parse preference file, starting empty", "path", f.path, "error", err)
		return
	}
	f.data = entries
}

func (f *File) save() error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating preference dir: %w", err)
	}
	data, err := native.MarshalDomain(f.data, native.BinaryFormat)
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing preference file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing preference file: %w", err)
	}
	return nil
}

// Path returns the location of the property list.
func (f *File) Path() string { return f.path }

func (f *File) Get(key string) (any, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.data[key]
	if !ok {
		return nil, false, nil
	}
	return native.Clone(v), true, nil
}

func (f *File) Set(key string, v any) error {
	n, err := native.Normalize(v)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.data[key]
	f.data[key] = native.Clone(n)
	if err := f.save(); err != nil {
		f.restore(key, prev, had)
		return err
	}
	return nil
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.data[key]
	if !had {
		return nil
	}
	delete(f.data, key)
	if err := f.save(); err != nil {
		f.restore(key, prev, had)
		return err
	}
	return nil
}

// restore undoes an in-memory change whose write failed.
func (f *File) restore(key string, prev any, had bool) {
	if had {
		f.data[key] = prev
	} else {
		delete(f.data, key)
	}
}

// Keys returns the stored keys in ascending order.
func (f *File) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f *File) Close() error { return nil }
