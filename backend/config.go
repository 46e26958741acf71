package backend

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Kind selects a backend implementation.
type Kind string

const (
	KindMemory       Kind = "memory"
	KindFile         Kind = "file"
	KindSQLite       Kind = "sqlite"
	KindUserDefaults Kind = "defaults"
)

func (k Kind) valid() bool {
	switch k {
	case KindMemory, KindFile, KindSQLite, KindUserDefaults:
		return true
	}
	return false
}

// Config selects and locates a backend.
type Config struct {
	Kind   Kind
	Domain string
	// Dir holds the property list file or the SQLite database.
	Dir string
}

const defaultDomain = "com.prefkit.app"

// DefaultConfig returns the platform defaults: the macOS preferences system
// on darwin, a property list under $XDG_CONFIG_HOME/prefkit elsewhere.
func DefaultConfig() Config {
	return Config{
		Kind:   defaultKind(),
		Domain: defaultDomain,
		Dir:    defaultDir(),
	}
}

type envSpec struct {
	env   string
	apply func(cfg *Config, v string) error
}

var envSpecs = []envSpec{
	{
		env: "PREFKIT_BACKEND",
		apply: func(cfg *Config, v string) error {
			k := Kind(v)
			if !k.valid() {
				return fmt.Errorf("%q: %w", v, ErrUnknownKind)
			}
			cfg.Kind = k
			return nil
		},
	},
	{
		env:   "PREFKIT_DOMAIN",
		apply: func(cfg *Config, v string) error { cfg.Domain = v; return nil },
	},
	{
		env:   "PREFKIT_DIR",
		apply: func(cfg *Config, v string) error { cfg.Dir = v; return nil },
	},
}

// LoadConfig returns DefaultConfig with PREFKIT_* environment overrides
// applied. Invalid overrides are logged and ignored.
func LoadConfig() Config {
	cfg := DefaultConfig()
	applyEnvOverrides(&cfg)
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range envSpecs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		if err := s.apply(cfg, raw); err != nil {
			slog.Warn("ignoring invalid environment override", "env", s.env, "value", raw, "error", err)
		}
	}
}

// Open creates the store described by cfg.
func Open(cfg Config) (Store, error) {
	switch cfg.Kind {
	case KindMemory:
		return NewMemory(), nil
	case KindFile:
		f, err := OpenFile(filepath.Join(cfg.Dir, cfg.Domain+".plist"))
		if err != nil {
			return nil, err
		}
		return f, nil
	case KindSQLite:
		s, err := OpenSQLite(cfg.Dir, cfg.Domain)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindUserDefaults:
		return openUserDefaults(cfg.Domain)
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Kind, ErrUnknownKind)
	}
}
