// Package native defines the closed set of value shapes a preference store
// persists, and the property list encoding used to write them to disk.
package native

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNotNative is returned when a value falls outside the native shape set.
var ErrNotNative = errors.New("not a native value")

// Kind identifies the shape of a native value.
type Kind int

const (
	Invalid Kind = iota
	Integer
	Float
	Bool
	String
	Blob
	Time
	Array
	Dictionary
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Blob:
		return "blob"
	case Time:
		return "time"
	case Array:
		return "array"
	case Dictionary:
		return "dictionary"
	default:
		return "invalid"
	}
}

// KindOf reports the shape of v. Only canonical representations are
// recognized; run Normalize first on values coming from decoders.
func KindOf(v any) Kind {
	switch v.(type) {
	case int64:
		return Integer
	case float64:
		return Float
	case bool:
		return Bool
	case string:
		return String
	case []byte:
		return Blob
	case time.Time:
		return Time
	case []any:
		return Array
	case map[string]any:
		return Dictionary
	default:
		return Invalid
	}
}

// Validate checks that v and everything nested in it is a canonical native value.
func Validate(v any) error {
	return validate(v, "$")
}

func validate(v any, path string) error {
	switch x := v.(type) {
	case []any:
		for i, e := range x {
			if err := validate(e, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		for k, e := range x {
			if err := validate(e, path+"."+k); err != nil {
				return err
			}
		}
		return nil
	}
	if KindOf(v) == Invalid {
		return fmt.Errorf("%s: %T: %w", path, v, ErrNotNative)
	}
	return nil
}

// Normalize converts v into its canonical native form. Integer kinds
// become int64, float32 becomes float64, and collections are normalized
// recursively into fresh []any and map[string]any values.
func Normalize(v any) (any, error) {
	return normalize(v, "$")
}

func normalize(v any, path string) (any, error) {
	switch x := v.(type) {
	case int64, float64, bool, string, time.Time:
		return x, nil
	case []byte:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint:
		return unsigned(uint64(x), path)
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return unsigned(x, path)
	case float32:
		return float64(x), nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			n, err := normalize(e, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			n, err := normalize(e, path+"."+k)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: %T: %w", path, v, ErrNotNative)
	}
}

func unsigned(u uint64, path string) (any, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("%s: %d overflows int64: %w", path, u, ErrNotNative)
	}
	return int64(u), nil
}

// Clone returns a deep copy of a native value. Non-native values are
// returned as-is.
func Clone(v any) any {
	switch x := v.(type) {
	case []byte:
		if x == nil {
			return []byte(nil)
		}
		out := make([]byte, len(x))
		copy(out, x)
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Clone(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Clone(e)
		}
		return out
	default:
		return v
	}
}
