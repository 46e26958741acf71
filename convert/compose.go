package convert

import (
	"fmt"

	"github.com/kalambet/prefkit/native"
)

// Optional converts a pointer to T. A present native value decodes to a
// non-nil pointer; a nil pointer encodes to no value at all, which tells
// the store to drop the key rather than write a placeholder.
func Optional[T any](c Converter[T]) Converter[*T] {
	return Func(
		func(v any) (*T, error) {
			t, err := c.Decode(v)
			if err != nil {
				return nil, err
			}
			return &t, nil
		},
		func(p *T) (any, error) {
			if p == nil {
				return nil, nil
			}
			return c.Encode(*p)
		},
	)
}

// List converts slices element by element. Decoding is all-or-nothing: one
// element that fails to decode fails the whole slice.
func List[T any](c Converter[T]) Converter[[]T] {
	return Func(
		func(v any) ([]T, error) {
			items, ok := v.([]any)
			if !ok {
				return nil, mismatch(native.Array, v)
			}
			out := make([]T, len(items))
			for i, item := range items {
				t, err := c.Decode(item)
				if err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}
				out[i] = t
			}
			return out, nil
		},
		func(ts []T) (any, error) {
			out := make([]any, len(ts))
			for i, t := range ts {
				item, err := encodeElement(c, t)
				if err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}
				out[i] = item
			}
			return out, nil
		},
	)
}

// Dictionary converts string-keyed maps value by value with the same
// all-or-nothing policy as List. Key order carries no meaning.
func Dictionary[T any](c Converter[T]) Converter[map[string]T] {
	return Func(
		func(v any) (map[string]T, error) {
			entries, ok := v.(map[string]any)
			if !ok {
				return nil, mismatch(native.Dictionary, v)
			}
			out := make(map[string]T, len(entries))
			for k, entry := range entries {
				t, err := c.Decode(entry)
				if err != nil {
					return nil, fmt.Errorf("key %q: %w", k, err)
				}
				out[k] = t
			}
			return out, nil
		},
		func(m map[string]T) (any, error) {
			out := make(map[string]any, len(m))
			for k, t := range m {
				entry, err := encodeElement(c, t)
				if err != nil {
					return nil, fmt.Errorf("key %q: %w", k, err)
				}
				out[k] = entry
			}
			return out, nil
		},
	)
}

// encodeElement encodes a collection member. Collections have no slot for
// an absent member, so a member that encodes to no value is a failure.
func encodeElement[T any](c Converter[T], t T) (any, error) {
	v, err := c.Encode(t)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("%w: absent member", ErrEncode)
	}
	return v, nil
}
