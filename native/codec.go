package native

import (
	"fmt"

	"howett.net/plist"
)

// Marshal encodes a single native value as a binary property list, the
// on-disk format of the platform preference store. Timestamps keep
// sub-microsecond precision only approximately since the format stores
// them as floating-point seconds.
func Marshal(v any) ([]byte, error) {
	return MarshalFormat(v, BinaryFormat)
}

// MarshalFormat encodes a single native value as a property list in the
// given format.
func MarshalFormat(v any, format int) ([]byte, error) {
	if err := Validate(v); err != nil {
		return nil, err
	}
	b, err := plist.Marshal(v, format)
	if err != nil {
		return nil, fmt.Errorf("encoding property list: %w", err)
	}
	return b, nil
}

// Unmarshal decodes a property list (any format) into a normalized native value.
func Unmarshal(data []byte) (any, error) {
	var v any
	if _, err := plist.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding property list: %w", err)
	}
	return Normalize(v)
}

// MarshalDomain encodes a whole key/value domain as one property list dictionary.
func MarshalDomain(entries map[string]any, format int) ([]byte, error) {
	if entries == nil {
		entries = map[string]any{}
	}
	if err := Validate(entries); err != nil {
		return nil, err
	}
	b, err := plist.Marshal(entries, format)
	if err != nil {
		return nil, fmt.Errorf("encoding property list: %w", err)
	}
	return b, nil
}

// UnmarshalDomain decodes a property list dictionary into normalized entries.
func UnmarshalDomain(data []byte) (map[string]any, error) {
	var v map[string]any
	if _, err := plist.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding property list: %w", err)
	}
	n, err := Normalize(v)
	if err != nil {
		return nil, err
	}
	return n.(map[string]any), nil
}

// Property list encodings accepted by MarshalFormat and MarshalDomain.
const (
	BinaryFormat = plist.BinaryFormat
	XMLFormat    = plist.XMLFormat
)
