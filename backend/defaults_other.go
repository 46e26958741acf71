//go:build !darwin

package backend

import (
	"os"
	"path/filepath"
)

func defaultKind() Kind { return KindFile }

func defaultDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			return "prefkit-data"
		}
	}
	return filepath.Join(dir, "prefkit")
}

func openUserDefaults(string) (Store, error) {
	return nil, ErrUnsupported
}
