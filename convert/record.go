package convert

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kalambet/prefkit/archive"
	"github.com/kalambet/prefkit/native"
)

// Structured stores T as a blob in the given interchange format. Any parse
// failure, including unknown fields, is a mismatch. So is a blob missing a
// top-level field that Encode always writes, or a null where Encode never
// writes one.
func Structured[T any](codec Codec) Converter[T] {
	want := sync.OnceValue(func() shape { return shapeOf[T](codec) })
	return Func(
		func(v any) (T, error) {
			var t T
			b, ok := v.([]byte)
			if !ok {
				return t, mismatch(native.Blob, v)
			}
			if err := codec.Unmarshal(b, &t); err != nil {
				var zero T
				return zero, fmt.Errorf("%w: %s: %v", ErrMismatch, codec.Name(), err)
			}
			if err := want().check(codec, b); err != nil {
				var zero T
				return zero, fmt.Errorf("%w: %s: %v", ErrMismatch, codec.Name(), err)
			}
			return t, nil
		},
		func(t T) (any, error) {
			b, err := codec.Marshal(t)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrEncode, codec.Name(), err)
			}
			return b, nil
		},
	)
}

// shape is the top level of what a codec writes for a type, learned by
// encoding its zero value.
type shape struct {
	nullable bool
	required []string
}

func shapeOf[T any](codec Codec) shape {
	var zero T
	b, err := codec.Marshal(zero)
	if err != nil {
		return shape{nullable: true}
	}
	var g any
	if err := codec.Unmarshal(b, &g); err != nil || g == nil {
		return shape{nullable: true}
	}
	keys, _ := topLevelKeys(g)
	required := make([]string, 0, len(keys))
	for k := range keys {
		required = append(required, k)
	}
	sort.Strings(required)
	return shape{required: required}
}

func (s shape) check(codec Codec, b []byte) error {
	var g any
	if err := codec.Unmarshal(b, &g); err != nil {
		return err
	}
	if g == nil {
		if s.nullable {
			return nil
		}
		return errors.New("null value")
	}
	if len(s.required) == 0 {
		return nil
	}
	keys, ok := topLevelKeys(g)
	if !ok {
		return fmt.Errorf("%T is not a record", g)
	}
	for _, k := range s.required {
		if _, ok := keys[k]; !ok {
			return fmt.Errorf("missing field %q", k)
		}
	}
	return nil
}

func topLevelKeys(g any) (map[string]struct{}, bool) {
	keys := make(map[string]struct{})
	switch m := g.(type) {
	case map[string]any:
		for k := range m {
			keys[k] = struct{}{}
		}
	case map[any]any:
		for k := range m {
			keys[fmt.Sprint(k)] = struct{}{}
		}
	default:
		return nil, false
	}
	return keys, true
}

// Archival stores T as an archive blob. Decoding only constructs classes in
// the allow-list, and the root object must be a T.
func Archival[T archive.Object](classes *archive.Classes) Converter[T] {
	return Func(
		func(v any) (T, error) {
			var zero T
			b, ok := v.([]byte)
			if !ok {
				return zero, mismatch(native.Blob, v)
			}
			o, err := archive.Unmarshal(b, classes)
			if err != nil {
				return zero, fmt.Errorf("%w: %w", ErrMismatch, err)
			}
			t, ok := o.(T)
			if !ok {
				return zero, fmt.Errorf("%w: archive root is %T, want %T", ErrMismatch, o, zero)
			}
			return t, nil
		},
		func(t T) (any, error) {
			b, err := archive.Marshal(t)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrEncode, err)
			}
			return b, nil
		},
	)
}
