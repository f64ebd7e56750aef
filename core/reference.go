package core

import (
	"fmt"
	"strconv"
)

// Reference represents an indirect reference "n g R".
type Reference struct {
	objectBase
	Ref Ref
}

func NewReference(ref Ref) *Reference {
	r := &Reference{Ref: ref}
	r.self = r
	return r
}

func (r *Reference) Kind() Kind { return KindReference }

// Indirect returns the newest indirect object the reference points to.
func (r *Reference) Indirect() (*IndirectObject, error) {
	if r.update == nil || r.update.Document() == nil {
		return nil, fmt.Errorf("resolve %s: %w", r.Ref, ErrNoDocument)
	}
	return r.update.Document().Resolve(r.Ref)
}

// Value returns the value of the newest indirect object the reference
// points to.
func (r *Reference) Value() (Object, error) {
	io, err := r.Indirect()
	if err != nil {
		return nil, err
	}
	return io.Value(), nil
}

// deref follows obj when it is a reference.
func deref(obj Object) (Object, error) {
	if ref, ok := obj.(*Reference); ok {
		return ref.Value()
	}
	return obj, nil
}

func (r *Reference) writePDF(s *Sink) error {
	_, err := s.WriteString(r.Ref.String())
	return err
}

func (r *Reference) equal(other Object) bool { return r.Ref == other.(*Reference).Ref }

func (r *Reference) copy() Object {
	c := &Reference{objectBase: copyBase(&r.objectBase), Ref: r.Ref}
	c.self = c
	return c
}

// IndirectObject represents an indirect object with its reference: the
// "n g obj ... endobj" container wrapping exactly one value.
type IndirectObject struct {
	objectBase
	Ref   Ref
	value Object
}

func NewIndirectObject(ref Ref, value Object) *IndirectObject {
	io := &IndirectObject{Ref: ref}
	io.self = io
	io.setValue(value)
	return io
}

func (io *IndirectObject) Kind() Kind { return KindIndirectObject }

func (io *IndirectObject) Value() Object { return io.value }

// SetValue replaces the wrapped value. A value held elsewhere is copied.
func (io *IndirectObject) SetValue(v Object) {
	if w, ok := promoted(io); ok {
		w.(*IndirectObject).SetValue(v)
		return
	}
	io.setValue(v)
}

func (io *IndirectObject) setValue(v Object) {
	if v == nil {
		v = NewNull()
	}
	b := v.base()
	if b.parent != nil || (b.holder != nil && b.holder != io) {
		v = v.copy()
		b = v.base()
	}
	if io.value != nil {
		io.value.base().holder = nil
	}
	b.holder = io
	b.parent = nil
	if b.update == nil && io.update != nil {
		setUpdate(v, io.update)
	}
	io.value = v
	io.invalidate()
}

func (io *IndirectObject) writePDF(s *Sink) error {
	s.WriteString(strconv.Itoa(io.Ref.Num) + " " + strconv.Itoa(io.Ref.Gen) + " obj\n")
	if err := Write(s, io.value); err != nil {
		return err
	}
	_, err := s.WriteString("\nendobj")
	return err
}

func (io *IndirectObject) equal(other Object) bool {
	o := other.(*IndirectObject)
	return io.Ref == o.Ref && Equal(io.value, o.value)
}

func (io *IndirectObject) copy() Object {
	c := &IndirectObject{objectBase: copyBase(&io.objectBase), Ref: io.Ref}
	c.self = c
	if io.value != nil {
		v := io.value.copy()
		v.base().holder = c
		c.value = v
	}
	return c
}
