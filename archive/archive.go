// Package archive implements a keyed object-graph archiver.
//
// Objects write their state as named fields through an Encoder and read it
// back through a Decoder. Nested objects are stored once in an object table
// and referenced by index, so pointers shared by several fields decode to a
// single instance and reference cycles survive a round trip.
//
// Decoding is restricted to an explicit allow-list of classes: an archive
// that names a class missing from the list is rejected before any of its
// objects are constructed.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrMalformed is returned when data is not a valid archive.
	ErrMalformed = errors.New("malformed archive")
	// ErrClassNotAllowed is returned when an archive names a class outside the allow-list.
	ErrClassNotAllowed = errors.New("class not allowed")
	// ErrInvalidObject is returned when an object cannot be archived.
	ErrInvalidObject = errors.New("invalid object")
)

const formatVersion = 1

// Object is implemented by types that can be archived.
type Object interface {
	// ArchiveClass names the concrete type. It must be stable across
	// releases since it is persisted and checked against the allow-list.
	ArchiveClass() string
	EncodeArchive(e *Encoder)
	DecodeArchive(d *Decoder) error
}

// Classes is an allow-list of archivable classes and their constructors.
type Classes struct {
	mu        sync.RWMutex
	factories map[string]func() Object
}

// NewClasses returns an allow-list containing the classes of the given prototypes.
// Each prototype's type is used to construct fresh instances on decode.
func NewClasses(prototypes ...Object) *Classes {
	c := &Classes{factories: make(map[string]func() Object)}
	for _, p := range prototypes {
		c.Register(p.ArchiveClass(), factoryFor(p))
	}
	return c
}

func factoryFor(p Object) func() Object {
	t := reflect.TypeOf(p)
	if t.Kind() == reflect.Pointer {
		elem := t.Elem()
		return func() Object { return reflect.New(elem).Interface().(Object) }
	}
	return func() Object { return reflect.New(t).Elem().Interface().(Object) }
}

// Register adds a class with an explicit constructor. The constructor must
// return a pointer-backed Object so DecodeArchive can fill it in.
func (c *Classes) Register(class string, factory func() Object) *Classes {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[class] = factory
	return c
}

// Allowed reports whether class is on the allow-list.
func (c *Classes) Allowed(class string) bool {
	_, ok := c.lookup(class)
	return ok
}

func (c *Classes) lookup(class string) (func() Object, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.factories[class]
	return f, ok
}

type fieldKind uint8

const (
	kindNil fieldKind = iota + 1
	kindRef
	kindString
	kindInt
	kindFloat
	kindBool
	kindBytes
	kindTime
)

type field struct {
	Kind  fieldKind `msgpack:"k"`
	Int   int64     `msgpack:"i,omitempty"`
	Nsec  int64     `msgpack:"n,omitempty"`
	Float float64   `msgpack:"f,omitempty"`
	Str   string    `msgpack:"s,omitempty"`
	Bytes []byte    `msgpack:"b,omitempty"`
}

type record struct {
	Class  string           `msgpack:"class"`
	Fields map[string]field `msgpack:"fields"`
}

type container struct {
	Version int      `msgpack:"version"`
	Root    int      `msgpack:"root"`
	Objects []record `msgpack:"objects"`
}

// Marshal archives root and every object reachable from it.
func Marshal(root Object) ([]byte, error) {
	if isNil(root) {
		return nil, fmt.Errorf("archiving nil root: %w", ErrInvalidObject)
	}
	a := &archiver{seen: make(map[Object]int)}
	idx := a.add(root)
	if a.err != nil {
		return nil, a.err
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(container{Version: formatVersion, Root: idx, Objects: a.objects}); err != nil {
		return nil, fmt.Errorf("encoding archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes an archive, constructing only classes present in classes.
func Unmarshal(data []byte, classes *Classes) (Object, error) {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	dec.DisallowUnknownFields(true)

	var c container
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, r.Len())
	}
	if c.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, c.Version)
	}
	// Reject the whole archive up front so no disallowed object is ever built.
	for _, rec := range c.Objects {
		if !classes.Allowed(rec.Class) {
			return nil, fmt.Errorf("%q: %w", rec.Class, ErrClassNotAllowed)
		}
	}

	u := &unarchiver{
		objects: c.Objects,
		classes: classes,
		built:   make([]Object, len(c.Objects)),
	}
	return u.object(c.Root)
}

func isNil(o Object) bool {
	if o == nil {
		return true
	}
	v := reflect.ValueOf(o)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

type archiver struct {
	objects []record
	seen    map[Object]int
	err     error
}

func (a *archiver) add(o Object) int {
	identity := reflect.ValueOf(o).Kind() == reflect.Pointer
	if identity {
		if idx, ok := a.seen[o]; ok {
			return idx
		}
	}

	class := o.ArchiveClass()
	if class == "" {
		a.fail(fmt.Errorf("%T has an empty class name: %w", o, ErrInvalidObject))
	}
	idx := len(a.objects)
	a.objects = append(a.objects, record{Class: class})
	if identity {
		a.seen[o] = idx
	}

	e := &Encoder{a: a, fields: make(map[string]field)}
	o.EncodeArchive(e)
	a.objects[idx].Fields = e.fields
	return idx
}

func (a *archiver) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

// Encoder collects the keyed fields of one object.
type Encoder struct {
	a      *archiver
	fields map[string]field
}

func (e *Encoder) EncodeString(key, v string) {
	e.fields[key] = field{Kind: kindString, Str: v}
}

func (e *Encoder) EncodeInt(key string, v int64) {
	e.fields[key] = field{Kind: kindInt, Int: v}
}

func (e *Encoder) EncodeFloat(key string, v float64) {
	e.fields[key] = field{Kind: kindFloat, Float: v}
}

func (e *Encoder) EncodeBool(key string, v bool) {
	f := field{Kind: kindBool}
	if v {
		f.Int = 1
	}
	e.fields[key] = f
}

func (e *Encoder) EncodeBytes(key string, v []byte) {
	e.fields[key] = field{Kind: kindBytes, Bytes: v}
}

// EncodeTime stores t as an instant; the location is not preserved.
func (e *Encoder) EncodeTime(key string, t time.Time) {
	e.fields[key] = field{Kind: kindTime, Int: t.Unix(), Nsec: int64(t.Nanosecond())}
}

// EncodeObject stores a reference to o. A nil o is stored as an explicit nil.
func (e *Encoder) EncodeObject(key string, o Object) {
	if isNil(o) {
		e.fields[key] = field{Kind: kindNil}
		return
	}
	e.fields[key] = field{Kind: kindRef, Int: int64(e.a.add(o))}
}

type unarchiver struct {
	objects []record
	classes *Classes
	built   []Object
}

func (u *unarchiver) object(idx int) (Object, error) {
	if idx < 0 || idx >= len(u.objects) {
		return nil, fmt.Errorf("%w: object index %d out of range", ErrMalformed, idx)
	}
	if o := u.built[idx]; o != nil {
		return o, nil
	}

	rec := u.objects[idx]
	factory, ok := u.classes.lookup(rec.Class)
	if !ok {
		return nil, fmt.Errorf("%q: %w", rec.Class, ErrClassNotAllowed)
	}
	o := factory()
	if isNil(o) {
		return nil, fmt.Errorf("%w: constructor for %q returned nil", ErrMalformed, rec.Class)
	}
	// Registered before decoding fields so back references resolve to o.
	u.built[idx] = o

	d := &Decoder{u: u, class: rec.Class, fields: rec.Fields}
	if err := o.DecodeArchive(d); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", rec.Class, err)
	}
	if d.err != nil {
		return nil, d.err
	}
	return o, nil
}

// Decoder reads the keyed fields of one object. Missing keys decode to the
// zero value; a key holding a different kind records an error reported by
// Err and by Unmarshal.
type Decoder struct {
	u      *unarchiver
	class  string
	fields map[string]field
	err    error
}

// Contains reports whether key was encoded.
func (d *Decoder) Contains(key string) bool {
	_, ok := d.fields[key]
	return ok
}

// Err returns the first error recorded while decoding.
func (d *Decoder) Err() error {
	return d.err
}

func (d *Decoder) field(key string, kind fieldKind) (field, bool) {
	f, ok := d.fields[key]
	if !ok {
		return field{}, false
	}
	if f.Kind != kind {
		d.fail(fmt.Errorf("%w: %s.%s has kind %d, want %d", ErrMalformed, d.class, key, f.Kind, kind))
		return field{}, false
	}
	return f, true
}

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Decoder) DecodeString(key string) string {
	f, _ := d.field(key, kindString)
	return f.Str
}

func (d *Decoder) DecodeInt(key string) int64 {
	f, _ := d.field(key, kindInt)
	return f.Int
}

func (d *Decoder) DecodeFloat(key string) float64 {
	f, _ := d.field(key, kindFloat)
	return f.Float
}

func (d *Decoder) DecodeBool(key string) bool {
	f, _ := d.field(key, kindBool)
	return f.Int != 0
}

func (d *Decoder) DecodeBytes(key string) []byte {
	f, _ := d.field(key, kindBytes)
	return f.Bytes
}

func (d *Decoder) DecodeTime(key string) time.Time {
	f, ok := d.field(key, kindTime)
	if !ok {
		return time.Time{}
	}
	return time.Unix(f.Int, f.Nsec).UTC()
}

// DecodeObject returns the object referenced by key, or nil.
func (d *Decoder) DecodeObject(key string) Object {
	f, ok := d.fields[key]
	if !ok || f.Kind == kindNil {
		return nil
	}
	if f.Kind != kindRef {
		d.fail(fmt.Errorf("%w: %s.%s is not an object reference", ErrMalformed, d.class, key))
		return nil
	}
	o, err := d.u.object(int(f.Int))
	if err != nil {
		d.fail(err)
		return nil
	}
	return o
}

// DecodeObjectAs is DecodeObject with a type check. A reference to an
// object of another type records an error and returns the zero T.
func DecodeObjectAs[T Object](d *Decoder, key string) T {
	var zero T
	o := d.DecodeObject(key)
	if o == nil {
		return zero
	}
	t, ok := o.(T)
	if !ok {
		d.fail(fmt.Errorf("%w: %s.%s holds %T, want %T", ErrMalformed, d.class, key, o, zero))
		return zero
	}
	return t
}
