package convert

import (
	"errors"
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// roundTrip encodes v with c and decodes the result.
func roundTrip[T any](t *testing.T, c Converter[T], v T) T {
	t.Helper()
	raw, err := c.Encode(v)
	if err != nil {
		t.Fatalf("Encode(%v): %v", v, err)
	}
	got, err := c.Decode(raw)
	if err != nil {
		t.Fatalf("Decode(%#v): %v", raw, err)
	}
	return got
}

func TestPrimitiveRoundTrip(t *testing.T) {
	if got := roundTrip(t, Int(), -7); got != -7 {
		t.Errorf("Int = %d", got)
	}
	if got := roundTrip(t, Int64(), math.MinInt64); got != math.MinInt64 {
		t.Errorf("Int64 = %d", got)
	}
	if got := roundTrip(t, Signed[int8](), -128); got != -128 {
		t.Errorf("int8 = %d", got)
	}
	if got := roundTrip(t, Unsigned[uint16](), 65535); got != 65535 {
		t.Errorf("uint16 = %d", got)
	}
	if got := roundTrip(t, Float64(), 2.5); got != 2.5 {
		t.Errorf("Float64 = %v", got)
	}
	if got := roundTrip(t, Float32(), float32(6.6)); got != float32(6.6) {
		t.Errorf("Float32 = %v", got)
	}
	if got := roundTrip(t, Bool(), false); got {
		t.Errorf("Bool = %v", got)
	}
	if got := roundTrip(t, String(), "new string"); got != "new string" {
		t.Errorf("String = %q", got)
	}
	if got := roundTrip(t, Bytes(), []byte("new data")); string(got) != "new data" {
		t.Errorf("Bytes = %q", got)
	}
	if got := roundTrip(t, Duration(), 90*time.Second); got != 90*time.Second {
		t.Errorf("Duration = %v", got)
	}

	ts := time.Date(2001, 1, 1, 1, 0, 0, 0, time.UTC)
	if got := roundTrip(t, Time(), ts); !got.Equal(ts) {
		t.Errorf("Time = %v, want %v", got, ts)
	}

	u, _ := url.Parse("https://new.com/")
	if got := roundTrip(t, URL(), u); got.String() != "https://new.com/" {
		t.Errorf("URL = %v", got)
	}
}

func TestPrimitiveEncodeShapes(t *testing.T) {
	cases := []struct {
		name string
		got  func() (any, error)
		want any
	}{
		{"int", func() (any, error) { return Int().Encode(2) }, int64(2)},
		{"uint8", func() (any, error) { return Unsigned[uint8]().Encode(2) }, int64(2)},
		{"float32", func() (any, error) { return Float32().Encode(2) }, float64(2)},
		{"string", func() (any, error) { return String().Encode("s") }, "s"},
		{"nil bytes", func() (any, error) { return Bytes().Encode(nil) }, []byte{}},
		{"url", func() (any, error) {
			u, _ := url.Parse("https://default.com/")
			return URL().Encode(u)
		}, "https://default.com/"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := c.got()
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrimitiveDecodeMismatch(t *testing.T) {
	cases := []struct {
		name string
		run  func() error
	}{
		{"int from string", func() error { _, err := Int().Decode("1"); return err }},
		{"int from float", func() error { _, err := Int().Decode(1.0); return err }},
		{"float from int", func() error { _, err := Float64().Decode(int64(1)); return err }},
		{"bool from int", func() error { _, err := Bool().Decode(int64(1)); return err }},
		{"string from blob", func() error { _, err := String().Decode([]byte("s")); return err }},
		{"blob from string", func() error { _, err := Bytes().Decode("s"); return err }},
		{"time from string", func() error { _, err := Time().Decode("2001-01-01"); return err }},
		{"int8 overflow", func() error { _, err := Signed[int8]().Decode(int64(300)); return err }},
		{"uint negative", func() error { _, err := Unsigned[uint]().Decode(int64(-1)); return err }},
		{"uint8 overflow", func() error { _, err := Unsigned[uint8]().Decode(int64(256)); return err }},
		{"url from int", func() error { _, err := URL().Decode(int64(1)); return err }},
		{"url unparsable", func() error { _, err := URL().Decode("http://[::1"); return err }},
		{"float32 overflow", func() error { _, err := Float32().Decode(1e300); return err }},
		{"float32 negative overflow", func() error { _, err := Float32().Decode(-1e300); return err }},
		{"nil", func() error { _, err := String().Decode(nil); return err }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.run(); !errors.Is(err, ErrMismatch) {
				t.Errorf("err = %v, want ErrMismatch", err)
			}
		})
	}
}

func TestFloat32KeepsInfinity(t *testing.T) {
	got, err := Float32().Decode(math.Inf(1))
	if err != nil {
		t.Fatalf("Decode(+Inf): %v", err)
	}
	if !math.IsInf(float64(got), 1) {
		t.Errorf("Decode(+Inf) = %v", got)
	}
	if got, err := Float32().Decode(math.MaxFloat32); err != nil || got != math.MaxFloat32 {
		t.Errorf("Decode(MaxFloat32) = %v, %v", got, err)
	}
}

func TestUnsignedEncodeOverflow(t *testing.T) {
	_, err := Unsigned[uint64]().Encode(math.MaxUint64)
	if !errors.Is(err, ErrEncode) {
		t.Errorf("err = %v, want ErrEncode", err)
	}
}

func TestNilURLEncodeFails(t *testing.T) {
	if _, err := URL().Encode(nil); !errors.Is(err, ErrEncode) {
		t.Errorf("err = %v, want ErrEncode", err)
	}
}

func TestBytesDoNotAlias(t *testing.T) {
	in := []byte{1, 2, 3}
	raw, err := Bytes().Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	in[0] = 9
	if raw.([]byte)[0] != 1 {
		t.Error("encoded blob aliases the input")
	}

	out, err := Bytes().Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out[1] = 9
	if raw.([]byte)[1] != 2 {
		t.Error("decoded slice aliases the native blob")
	}
}

func TestTimeDropsMonotonic(t *testing.T) {
	now := time.Now()
	raw, err := Time().Encode(now)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got := raw.(time.Time); got != now.Round(0) {
		t.Errorf("encoded %v, want %v", got, now.Round(0))
	}
}

func TestFuncAndVia(t *testing.T) {
	type celsius float64
	c := Via(Float64(),
		func(c celsius) (float64, error) { return float64(c), nil },
		func(f float64) (celsius, error) {
			if f < -273.15 {
				return 0, errors.New("below absolute zero")
			}
			return celsius(f), nil
		},
	)
	if got := roundTrip(t, c, celsius(21.5)); got != 21.5 {
		t.Errorf("celsius = %v", got)
	}
	if _, err := c.Decode(-300.0); !errors.Is(err, ErrMismatch) {
		t.Errorf("Decode(-300) = %v, want ErrMismatch", err)
	}
}
