package convert

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOptional(t *testing.T) {
	c := Optional(Int())

	raw, err := c.Encode(nil)
	if err != nil || raw != nil {
		t.Fatalf("Encode(nil) = %v, %v; want nil, nil", raw, err)
	}

	two := 2
	got := roundTrip(t, c, &two)
	if got == nil || *got != 2 {
		t.Errorf("Optional round trip = %v", got)
	}

	if _, err := c.Decode("two"); !errors.Is(err, ErrMismatch) {
		t.Errorf("Decode(string) = %v, want ErrMismatch", err)
	}
}

func TestListRoundTrip(t *testing.T) {
	c := List(String())
	for _, v := range [][]string{{"new string"}, {}, {"a", "b", "c"}} {
		if diff := cmp.Diff(v, roundTrip(t, c, v)); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	}

	raw, err := List(Int()).Encode([]int{5, 6})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]any{int64(5), int64(6)}, raw); diff != "" {
		t.Errorf("native shape mismatch (-want +got):\n%s", diff)
	}
}

func TestListNilEncodesEmpty(t *testing.T) {
	raw, err := List(Int()).Encode(nil)
	if err != nil {
		t.Fatalf("Encode(nil): %v", err)
	}
	if diff := cmp.Diff([]any{}, raw); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestListAllOrNothing(t *testing.T) {
	got, err := List(Int()).Decode([]any{int64(1), "two", int64(3)})
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("Decode = %v, want ErrMismatch", err)
	}
	if got != nil {
		t.Errorf("partial result returned: %v", got)
	}
	if want := "element 1: "; err.Error()[:len(want)] != want {
		t.Errorf("error %q does not name the element", err)
	}

	if _, err := List(Int()).Decode(map[string]any{}); !errors.Is(err, ErrMismatch) {
		t.Errorf("Decode(map) = %v, want ErrMismatch", err)
	}
}

func TestListAbsentMemberFailsEncode(t *testing.T) {
	one := 1
	_, err := List(Optional(Int())).Encode([]*int{&one, nil})
	if !errors.Is(err, ErrEncode) {
		t.Errorf("Encode = %v, want ErrEncode", err)
	}
}

func TestDictionaryRoundTrip(t *testing.T) {
	c := Dictionary(Float32())
	v := map[string]float32{"k5": 5.5, "k6": 6.6}
	if diff := cmp.Diff(v, roundTrip(t, c, v)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	empty := map[string]float32{}
	if diff := cmp.Diff(empty, roundTrip(t, c, empty)); diff != "" {
		t.Errorf("empty mismatch (-want +got):\n%s", diff)
	}
}

func TestDictionaryAllOrNothing(t *testing.T) {
	got, err := Dictionary(Float64()).Decode(map[string]any{"k1": 1.1, "k2": "2.2"})
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("Decode = %v, want ErrMismatch", err)
	}
	if got != nil {
		t.Errorf("partial result returned: %v", got)
	}

	if _, err := Dictionary(Float64()).Decode([]any{1.1}); !errors.Is(err, ErrMismatch) {
		t.Errorf("Decode(array) = %v, want ErrMismatch", err)
	}
}

func TestDictionaryAbsentMemberFailsEncode(t *testing.T) {
	_, err := Dictionary(Optional(String())).Encode(map[string]*string{"k": nil})
	if !errors.Is(err, ErrEncode) {
		t.Errorf("Encode = %v, want ErrEncode", err)
	}
}

func TestNestedComposition(t *testing.T) {
	c := List(Dictionary(List(Int())))
	v := []map[string][]int{{"k5": {5}}, {"k6": {}}}

	raw, err := c.Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []any{
		map[string]any{"k5": []any{int64(5)}},
		map[string]any{"k6": []any{}},
	}
	if diff := cmp.Diff(want, raw); diff != "" {
		t.Errorf("native shape mismatch (-want +got):\n%s", diff)
	}

	got, err := c.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(v, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	// A single bad leaf fails the whole tree.
	want[1].(map[string]any)["k6"] = []any{"x"}
	if _, err := c.Decode(want); !errors.Is(err, ErrMismatch) {
		t.Errorf("Decode(bad leaf) = %v, want ErrMismatch", err)
	}
}

func TestOptionalOfList(t *testing.T) {
	c := Optional(List(Int()))
	v := []int{5, 6}
	got := roundTrip(t, c, &v)
	if got == nil {
		t.Fatal("got nil")
	}
	if diff := cmp.Diff(v, *got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
