//go:build !darwin

package backend

import (
	"errors"
	"testing"
)

func TestUserDefaultsUnsupported(t *testing.T) {
	s, err := Open(Config{Kind: KindUserDefaults, Domain: "com.prefkit.test"})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Open = %v, want ErrUnsupported", err)
	}
	if s != nil {
		t.Errorf("Open returned non-nil store %v", s)
	}
}

func TestDefaultDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := defaultDir(); got != "/tmp/xdg/prefkit" {
		t.Errorf("defaultDir = %q, want /tmp/xdg/prefkit", got)
	}
}
