package core

import (
	"fmt"
)

// MissingFieldError reports a required dictionary entry that is absent.
type MissingFieldError struct {
	Key  string
	Dict string // description of the dictionary, e.g. "Catalog 1 0 R"
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("pdf: required field /%s missing in %s", e.Key, e.Dict)
}

// FieldTypeError reports an entry whose value cannot be represented as the
// requested type.
type FieldTypeError struct {
	Key  string
	Want string
	Got  Kind
}

func (e *FieldTypeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("pdf: expected %s, got %s", e.Want, e.Got)
	}
	return fmt.Sprintf("pdf: field /%s: expected %s, got %s", e.Key, e.Want, e.Got)
}

// describe names a dictionary for error messages.
func describe(d *Dictionary) string {
	desc := "dictionary"
	if t := d.TypeName(); t != "" {
		desc = t
	}
	if ref, ok := FindIndirect(d, true); ok {
		desc += " " + ref.String()
	}
	return desc
}

// Field describes a typed dictionary entry.
type Field[T Object] struct {
	Key string
	// Optional fields read as their default when absent instead of failing.
	Optional bool
	// Indirect fields store newly set values as indirect objects.
	Indirect bool
	// Default builds the value returned for an absent optional field and
	// the value Maybe.Get materializes.
	Default func() T
	// Wrap converts a stored value of another variant into T.
	Wrap func(obj Object) (T, bool)
}

// Lookup returns the entry converted to T. ok is false when the entry is
// absent.
func (f Field[T]) Lookup(d *Dictionary) (v T, ok bool, err error) {
	raw := d.Get(f.Key)
	if raw == nil {
		return v, false, nil
	}
	v, err = f.convert(raw)
	return v, err == nil, err
}

func (f Field[T]) convert(raw Object) (T, error) {
	var zero T
	if v, ok := raw.(T); ok {
		return v, nil
	}
	obj := raw
	if ref, ok := raw.(*Reference); ok {
		resolved, err := ref.Value()
		if err != nil {
			return zero, fmt.Errorf("field /%s: %w", f.Key, err)
		}
		obj = resolved
		if v, ok := obj.(T); ok {
			return v, nil
		}
	}
	if f.Wrap != nil {
		if v, ok := f.Wrap(obj); ok {
			return v, nil
		}
	}
	if v, ok := rewrap[T](obj); ok {
		return v, nil
	}
	return zero, &FieldTypeError{Key: f.Key, Want: fmt.Sprintf("%T", zero), Got: obj.Kind()}
}

// Get returns the entry. A required absent entry fails with
// *MissingFieldError; an optional one yields Default, or the zero T.
func (f Field[T]) Get(d *Dictionary) (T, error) {
	v, ok, err := f.Lookup(d)
	if err != nil || ok {
		return v, err
	}
	if !f.Optional {
		return v, &MissingFieldError{Key: f.Key, Dict: describe(d)}
	}
	if f.Default != nil {
		return f.Default(), nil
	}
	return v, nil
}

// Has reports whether the entry is present.
func (f Field[T]) Has(d *Dictionary) bool { return d.Has(f.Key) }

// Set stores v, promoting d into the current update first. It returns the
// dictionary that received the value, which differs from d after a
// promotion.
func (f Field[T]) Set(d *Dictionary, v T) (*Dictionary, error) {
	target, err := modifyDict(d)
	if err != nil {
		return nil, err
	}
	var stored Object = v
	if f.Indirect && !v.IsIndirect() {
		if u := target.Update(); u != nil {
			if v.Update() == nil {
				setUpdate(v, u)
			}
			io, err := MakeIndirect(v, false)
			if err != nil {
				return nil, fmt.Errorf("field /%s: %w", f.Key, err)
			}
			stored = io
		}
	}
	target.Set(f.Key, stored)
	return target, nil
}

// Delete removes the entry, promoting d first.
func (f Field[T]) Delete(d *Dictionary) (*Dictionary, error) {
	if !d.Has(f.Key) {
		return d, nil
	}
	target, err := modifyDict(d)
	if err != nil {
		return nil, err
	}
	target.Delete(f.Key)
	return target, nil
}

// Maybe returns a lazily materialized view of the entry.
func (f Field[T]) Maybe(d *Dictionary) Maybe[T] {
	return Maybe[T]{dict: d, field: f}
}

// modifyDict runs Modify on d, which may be the dictionary of a stream.
func modifyDict(d *Dictionary) (*Dictionary, error) {
	if s, ok := d.self.(*Stream); ok {
		m, err := Modify(s)
		if err != nil {
			return nil, err
		}
		return &m.Dictionary, nil
	}
	return Modify(d)
}

// Maybe is an optional entry that is created on demand.
type Maybe[T Object] struct {
	dict  *Dictionary
	field Field[T]
}

// Has reports whether the entry is present without materializing it.
func (m Maybe[T]) Has() bool { return m.dict.Has(m.field.Key) }

// Get returns the entry. When it is absent and required is set, Get fails
// with *MissingFieldError; otherwise a default value is created, stored in
// the dictionary and returned.
func (m Maybe[T]) Get(required bool) (T, error) {
	v, ok, err := m.field.Lookup(m.dict)
	if err != nil || ok {
		return v, err
	}
	if required {
		return v, &MissingFieldError{Key: m.field.Key, Dict: describe(m.dict)}
	}
	if m.field.Default != nil {
		v = m.field.Default()
	} else if v, err = blank[T](); err != nil {
		return v, err
	}
	target, err := m.field.Set(m.dict, v)
	if err != nil {
		return v, err
	}
	m.dict = target
	return m.field.convert(target.Get(m.field.Key))
}

// Set replaces the entry.
func (m Maybe[T]) Set(v T) error {
	_, err := m.field.Set(m.dict, v)
	return err
}

// blank returns an empty instance of T.
func blank[T Object]() (T, error) {
	var zero T
	var obj Object
	switch any(zero).(type) {
	case *Dictionary:
		obj = NewDictionary()
	case *Array:
		obj = NewArray()
	case *Number:
		obj = NewNumber(0)
	case *Boolean:
		obj = NewBoolean(false)
	case *Name:
		obj = NewName("")
	case *LiteralString:
		obj = NewLiteralString(nil)
	case *HexString:
		obj = NewHexString(nil)
	case *Stream:
		obj = NewStream(nil)
	case *Null:
		obj = NewNull()
	default:
		return zero, fmt.Errorf("pdf: no default value for %T", zero)
	}
	return obj.(T), nil
}

// Value is a Field whose value is exposed as a Go type V.
type Value[V any, T Object] struct {
	Field[T]
	From func(T) (V, error)
	To   func(V) T
	// Fallback is returned by Get for an absent optional entry.
	Fallback V
}

// Lookup returns the converted entry. ok is false when it is absent.
func (f Value[V, T]) Lookup(d *Dictionary) (v V, ok bool, err error) {
	obj, ok, err := f.Field.Lookup(d)
	if err != nil || !ok {
		return v, ok, err
	}
	v, err = f.From(obj)
	return v, err == nil, err
}

// Get returns the converted entry, Fallback for an absent optional entry,
// or *MissingFieldError.
func (f Value[V, T]) Get(d *Dictionary) (V, error) {
	v, ok, err := f.Lookup(d)
	if err != nil || ok {
		return v, err
	}
	if !f.Optional {
		return v, &MissingFieldError{Key: f.Key, Dict: describe(d)}
	}
	return f.Fallback, nil
}

// Set stores v, promoting d first, and returns the dictionary that received
// it.
func (f Value[V, T]) Set(d *Dictionary, v V) (*Dictionary, error) {
	return f.Field.Set(d, f.To(v))
}

// NumberValue describes a numeric entry read as float64.
func NumberValue(key string, optional bool) Value[float64, *Number] {
	return Value[float64, *Number]{
		Field: Field[*Number]{Key: key, Optional: optional},
		From:  func(n *Number) (float64, error) { return n.Value(), nil },
		To:    NewNumber,
	}
}

// IntValue describes a numeric entry read as int.
func IntValue(key string, optional bool) Value[int, *Number] {
	return Value[int, *Number]{
		Field: Field[*Number]{Key: key, Optional: optional},
		From:  func(n *Number) (int, error) { return n.Int(), nil },
		To:    NewInt,
	}
}

// NameValue describes a name entry read as its text.
func NameValue(key string, optional bool) Value[string, *Name] {
	return Value[string, *Name]{
		Field: Field[*Name]{Key: key, Optional: optional},
		From:  func(n *Name) (string, error) { return n.Value(), nil },
		To:    NewName,
	}
}

// BoolValue describes a boolean entry.
func BoolValue(key string, optional bool) Value[bool, *Boolean] {
	return Value[bool, *Boolean]{
		Field: Field[*Boolean]{Key: key, Optional: optional},
		From:  func(b *Boolean) (bool, error) { return b.Value(), nil },
		To:    NewBoolean,
	}
}

// TextValue describes a text string entry. Hex strings are accepted and
// re-wrapped as literal strings.
func TextValue(key string, optional bool) Value[string, *LiteralString] {
	return Value[string, *LiteralString]{
		Field: Field[*LiteralString]{Key: key, Optional: optional},
		From:  func(s *LiteralString) (string, error) { return s.Text() },
		To:    NewText,
	}
}

// Stream dictionary entries.
var (
	streamLength      = IntValue("Length", false)
	streamFilter      = Field[Object]{Key: "Filter", Optional: true}
	streamDecodeParms = Field[Object]{Key: "DecodeParms", Optional: true}
	streamType        = NameValue("Type", true)
)
