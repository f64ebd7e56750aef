package core

import (
	"iter"
)

// Dictionary represents a PDF dictionary. Keys are unique and keep their
// insertion order when serialized.
type Dictionary struct {
	objectBase
	keys   []string
	values map[string]Object
}

// NewDictionary returns an empty freestanding dictionary.
func NewDictionary() *Dictionary {
	d := &Dictionary{values: make(map[string]Object)}
	d.self = d
	return d
}

func (d *Dictionary) Kind() Kind { return KindDictionary }

// Get retrieves a value from the dictionary, or nil. References are
// returned as stored; use Resolve to follow them.
func (d *Dictionary) Get(key string) Object {
	return d.values[key]
}

// Resolve returns the value for key with references followed, or nil.
func (d *Dictionary) Resolve(key string) (Object, error) {
	return deref(d.values[key])
}

// Has checks if a key exists in the dictionary
func (d *Dictionary) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Set stores v under key and returns the stored value. An indirect v is
// stored as a reference; a v held by another container is copied. On a
// dictionary of an older update the entry is set on its counterpart in the
// open update, which is returned by Modify.
func (d *Dictionary) Set(key string, v Object) Object {
	if w, ok := promoted(d.self); ok {
		return dictOf(w).Set(key, v)
	}
	return d.set(key, v)
}

func (d *Dictionary) set(key string, v Object) Object {
	v = attachable(d.self, v)
	if old, ok := d.values[key]; ok {
		release(old)
	} else {
		d.keys = append(d.keys, key)
	}
	adopt(d.self, v)
	d.values[key] = v
	d.invalidate()
	return v
}

// Delete removes key and reports whether it was present.
func (d *Dictionary) Delete(key string) bool {
	if w, ok := promoted(d.self); ok {
		return dictOf(w).Delete(key)
	}
	old, ok := d.values[key]
	if !ok {
		return false
	}
	release(old)
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	d.invalidate()
	return true
}

// dictOf returns the dictionary part of a dictionary or stream.
func dictOf(obj Object) *Dictionary {
	if s, ok := obj.(*Stream); ok {
		return &s.Dictionary
	}
	return obj.(*Dictionary)
}

// Keys returns all keys in insertion order.
func (d *Dictionary) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of entries.
func (d *Dictionary) Len() int { return len(d.keys) }

// All iterates over the entries in insertion order.
func (d *Dictionary) All() iter.Seq2[string, Object] {
	return func(yield func(string, Object) bool) {
		for _, k := range d.keys {
			if !yield(k, d.values[k]) {
				return
			}
		}
	}
}

// TypeName returns the value of the /Type entry, or "".
func (d *Dictionary) TypeName() string {
	if n, ok := d.values["Type"].(*Name); ok {
		return n.value
	}
	return ""
}

func (d *Dictionary) writePDF(s *Sink) error {
	return d.writeEntries(s)
}

func (d *Dictionary) writeEntries(s *Sink) error {
	if _, err := s.WriteString("<<"); err != nil {
		return err
	}
	for i, k := range d.keys {
		if i > 0 {
			s.WriteByte(' ')
		}
		s.WriteString(EscapeName(k))
		s.WriteByte(' ')
		if err := Write(s, d.values[k]); err != nil {
			return err
		}
	}
	_, err := s.WriteString(">>")
	return err
}

func (d *Dictionary) equal(other Object) bool {
	return d.entriesEqual(other.(*Dictionary))
}

func (d *Dictionary) entriesEqual(o *Dictionary) bool {
	if len(d.values) != len(o.values) {
		return false
	}
	for k, v := range d.values {
		ov, ok := o.values[k]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

func (d *Dictionary) copy() Object {
	c := NewDictionary()
	c.objectBase = copyBase(&d.objectBase)
	c.self = c
	d.copyEntries(c, c)
	return c
}

// copyEntries deep-copies the entries of d into dst, parented to owner.
func (d *Dictionary) copyEntries(dst *Dictionary, owner Object) {
	dst.keys = append([]string(nil), d.keys...)
	for k, v := range d.values {
		cp := v.copy()
		cp.base().parent = owner
		dst.values[k] = cp
	}
}
