// Package convert defines how Go values round-trip through the native
// shapes a preference store persists.
//
// A Converter is defined once per type. Converters for optional values,
// slices and string-keyed maps are built from the converter of their
// element type, so nested shapes compose without knowing the concrete
// element representation:
//
//	c := convert.List(convert.Dictionary(convert.List(convert.Int())))
//	v, err := c.Decode(raw) // []map[string][]int
package convert

import (
	"errors"
	"fmt"

	"github.com/kalambet/prefkit/native"
)

var (
	// ErrMismatch is returned by Decode when a native value does not have
	// the shape the converter's Encode would have produced.
	ErrMismatch = errors.New("native value shape mismatch")
	// ErrEncode is returned by Encode when a value cannot be represented.
	ErrEncode = errors.New("value cannot be encoded")
)

// Converter is a two-way conversion between T and a native value.
//
// Decode is only called with a present value; absence is handled by the
// caller. Encode may return a nil value with a nil error to signal that
// there is nothing to store.
type Converter[T any] interface {
	Decode(v any) (T, error)
	Encode(value T) (any, error)
}

type funcConverter[T any] struct {
	decode func(any) (T, error)
	encode func(T) (any, error)
}

func (f funcConverter[T]) Decode(v any) (T, error) { return f.decode(v) }

func (f funcConverter[T]) Encode(value T) (any, error) { return f.encode(value) }

// Func builds a Converter from a decode and an encode function.
func Func[T any](decode func(any) (T, error), encode func(T) (any, error)) Converter[T] {
	return funcConverter[T]{decode: decode, encode: encode}
}

// Via derives a converter for T from a converter for U. to and from map
// between the two types; errors from from are reported as mismatches and
// errors from to as encode failures.
func Via[T, U any](c Converter[U], to func(T) (U, error), from func(U) (T, error)) Converter[T] {
	return Func(
		func(v any) (T, error) {
			var zero T
			u, err := c.Decode(v)
			if err != nil {
				return zero, err
			}
			t, err := from(u)
			if err != nil {
				return zero, fmt.Errorf("%w: %v", ErrMismatch, err)
			}
			return t, nil
		},
		func(t T) (any, error) {
			u, err := to(t)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrEncode, err)
			}
			return c.Encode(u)
		},
	)
}

func mismatch(want native.Kind, v any) error {
	return fmt.Errorf("%w: want %s, got %s (%T)", ErrMismatch, want, native.KindOf(v), v)
}
