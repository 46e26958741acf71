package convert

import (
	"fmt"
	"math"
	"net/url"
	"time"

	"golang.org/x/exp/constraints"

	"github.com/kalambet/prefkit/native"
)

// Signed converts signed integers through the native integer shape.
// Stored integers outside T's range are mismatches.
func Signed[T constraints.Signed]() Converter[T] {
	return Func(
		func(v any) (T, error) {
			n, ok := asInt64(v)
			if !ok {
				return 0, mismatch(native.Integer, v)
			}
			t := T(n)
			if int64(t) != n {
				return 0, fmt.Errorf("%w: %d overflows %T", ErrMismatch, n, t)
			}
			return t, nil
		},
		func(t T) (any, error) { return int64(t), nil },
	)
}

// Unsigned converts unsigned integers through the native integer shape.
// Values above math.MaxInt64 cannot be encoded.
func Unsigned[T constraints.Unsigned]() Converter[T] {
	return Func(
		func(v any) (T, error) {
			n, ok := asInt64(v)
			if !ok {
				return 0, mismatch(native.Integer, v)
			}
			t := T(n)
			if n < 0 || uint64(t) != uint64(n) {
				return 0, fmt.Errorf("%w: %d overflows %T", ErrMismatch, n, t)
			}
			return t, nil
		},
		func(t T) (any, error) {
			if uint64(t) > math.MaxInt64 {
				return nil, fmt.Errorf("%w: %d overflows int64", ErrEncode, uint64(t))
			}
			return int64(t), nil
		},
	)
}

// Float converts floating-point numbers through the native float shape.
// A stored finite value too large for T is a mismatch.
func Float[T constraints.Float]() Converter[T] {
	return Func(
		func(v any) (T, error) {
			var f float64
			switch x := v.(type) {
			case float64:
				f = x
			case float32:
				f = float64(x)
			default:
				return 0, mismatch(native.Float, v)
			}
			t := T(f)
			if !math.IsInf(f, 0) && math.IsInf(float64(t), 0) {
				return 0, fmt.Errorf("%w: %g overflows %T", ErrMismatch, f, t)
			}
			return t, nil
		},
		func(t T) (any, error) { return float64(t), nil },
	)
}

// Int converts int through the native integer shape.
func Int() Converter[int] { return Signed[int]() }

// Int64 converts int64 through the native integer shape.
func Int64() Converter[int64] { return Signed[int64]() }

// Float64 converts float64 through the native float shape.
func Float64() Converter[float64] { return Float[float64]() }

// Float32 converts float32 through the native float shape.
func Float32() Converter[float32] { return Float[float32]() }

// Bool converts booleans. Integers are not accepted as booleans.
func Bool() Converter[bool] {
	return Func(
		func(v any) (bool, error) {
			b, ok := v.(bool)
			if !ok {
				return false, mismatch(native.Bool, v)
			}
			return b, nil
		},
		func(b bool) (any, error) { return b, nil },
	)
}

// String converts strings.
func String() Converter[string] {
	return Func(
		func(v any) (string, error) {
			s, ok := v.(string)
			if !ok {
				return "", mismatch(native.String, v)
			}
			return s, nil
		},
		func(s string) (any, error) { return s, nil },
	)
}

// Bytes converts binary blobs. Both directions copy, so callers never share
// a backing array with the store.
func Bytes() Converter[[]byte] {
	return Func(
		func(v any) ([]byte, error) {
			b, ok := v.([]byte)
			if !ok {
				return nil, mismatch(native.Blob, v)
			}
			return native.Clone(b).([]byte), nil
		},
		func(b []byte) (any, error) {
			if b == nil {
				b = []byte{}
			}
			return native.Clone(b), nil
		},
	)
}

// Time converts timestamps. Equality after a round trip is time.Time.Equal;
// the monotonic reading is dropped.
func Time() Converter[time.Time] {
	return Func(
		func(v any) (time.Time, error) {
			t, ok := v.(time.Time)
			if !ok {
				return time.Time{}, mismatch(native.Time, v)
			}
			return t, nil
		},
		func(t time.Time) (any, error) { return t.Round(0), nil },
	)
}

// Duration stores a time.Duration as integer nanoseconds.
func Duration() Converter[time.Duration] {
	return Signed[time.Duration]()
}

// URL stores a URL as its string form. Text that does not parse is a mismatch.
func URL() Converter[*url.URL] {
	return Via(String(),
		func(u *url.URL) (string, error) {
			if u == nil {
				return "", fmt.Errorf("nil URL")
			}
			return u.String(), nil
		},
		url.Parse,
	)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	}
	return 0, false
}
