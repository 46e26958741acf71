//go:build darwin

package backend

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kalambet/prefkit/native"
)

func defaultKind() Kind { return KindUserDefaults }

func defaultDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "Library", "Preferences")
	}
	return "prefkit-data"
}

func openUserDefaults(domain string) (Store, error) {
	return NewUserDefaults(domain), nil
}

// UserDefaults talks to the macOS preferences system through the
// `defaults` tool. Reads export the whole domain as a property list; writes
// and removes touch a single key. Operations are serialized within the
// process.
type UserDefaults struct {
	domain string
	mu     sync.Mutex
}

// NewUserDefaults returns a store for the given defaults domain.
func NewUserDefaults(domain string) *UserDefaults {
	return &UserDefaults{domain: domain}
}

func (d *UserDefaults) export() (map[string]any, error) {
	cmd := exec.Command("defaults", "export", d.domain, "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("exporting defaults domain '%s': %w, output: %s", d.domain, err, strings.TrimSpace(stderr.String()))
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return map[string]any{}, nil
	}
	return native.UnmarshalDomain(out)
}

func (d *UserDefaults) Get(key string) (any, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := d.export()
	if err != nil {
		return nil, false, err
	}
	v, ok := entries[key]
	return v, ok, nil
}

// Set writes one key with `defaults write`. Other keys in the domain are
// not read or rewritten.
func (d *UserDefaults) Set(key string, v any) error {
	n, err := native.Normalize(v)
	if err != nil {
		return err
	}
	data, err := native.MarshalFormat(n, native.XMLFormat)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cmd := exec.Command("defaults", "write", d.domain, key, string(data))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("writing default for key '%s': %w, output: %s", key, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (d *UserDefaults) Remove(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cmd := exec.Command("defaults", "delete", d.domain, key)
	if out, err := cmd.CombinedOutput(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			// Key or domain does not exist.
			return nil
		}
		return fmt.Errorf("deleting default for key '%s': %w, output: %s", key, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (d *UserDefaults) Close() error { return nil }
