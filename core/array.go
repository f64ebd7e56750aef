package core

import (
	"iter"
)

// Array represents a PDF array
type Array struct {
	objectBase
	items []Object
}

// NewArray returns a freestanding array holding items.
func NewArray(items ...Object) *Array {
	a := &Array{}
	a.self = a
	a.Push(items...)
	return a
}

func (a *Array) Kind() Kind { return KindArray }

// Len returns the length of the array
func (a *Array) Len() int {
	return len(a.items)
}

// Get retrieves an element at the given index, or nil when out of range.
// References are returned as stored; use Resolve to follow them.
func (a *Array) Get(index int) Object {
	if index < 0 || index >= len(a.items) {
		return nil
	}
	return a.items[index]
}

// Resolve returns the element at index with references followed.
func (a *Array) Resolve(index int) (Object, error) {
	return deref(a.Get(index))
}

// Set replaces the element at index and returns the stored value.
func (a *Array) Set(index int, v Object) Object {
	if index < 0 || index >= len(a.items) {
		return nil
	}
	if w, ok := promoted(a); ok {
		return w.(*Array).Set(index, v)
	}
	v = attachable(a, v)
	release(a.items[index])
	adopt(a, v)
	a.items[index] = v
	a.invalidate()
	return v
}

// Push appends items.
func (a *Array) Push(items ...Object) {
	if w, ok := promoted(a); ok {
		w.(*Array).Push(items...)
		return
	}
	for _, v := range items {
		v = attachable(a, v)
		adopt(a, v)
		a.items = append(a.items, v)
	}
	if len(items) > 0 {
		a.invalidate()
	}
}

// Splice removes deleteCount elements at start, inserts items in their
// place and returns the removed elements.
func (a *Array) Splice(start, deleteCount int, items ...Object) []Object {
	if w, ok := promoted(a); ok {
		return w.(*Array).Splice(start, deleteCount, items...)
	}
	if start < 0 {
		start = 0
	}
	if start > len(a.items) {
		start = len(a.items)
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if start+deleteCount > len(a.items) {
		deleteCount = len(a.items) - start
	}

	removed := append([]Object(nil), a.items[start:start+deleteCount]...)
	for _, r := range removed {
		release(r)
	}

	inserted := make([]Object, 0, len(items))
	for _, v := range items {
		v = attachable(a, v)
		adopt(a, v)
		inserted = append(inserted, v)
	}

	tail := append([]Object(nil), a.items[start+deleteCount:]...)
	a.items = append(append(a.items[:start], inserted...), tail...)
	a.invalidate()
	return removed
}

// IndexOf returns the index of the first element equal to obj, or -1.
func (a *Array) IndexOf(obj Object) int {
	for i, item := range a.items {
		if Equal(item, obj) {
			return i
		}
	}
	return -1
}

// Includes reports whether an element equal to obj is present.
func (a *Array) Includes(obj Object) bool {
	return a.IndexOf(obj) >= 0
}

// All iterates over index and element pairs.
func (a *Array) All() iter.Seq2[int, Object] {
	return func(yield func(int, Object) bool) {
		for i, item := range a.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

func (a *Array) writePDF(s *Sink) error {
	if err := s.WriteByte('['); err != nil {
		return err
	}
	for i, item := range a.items {
		if i > 0 {
			s.WriteByte(' ')
		}
		if err := Write(s, item); err != nil {
			return err
		}
	}
	return s.WriteByte(']')
}

func (a *Array) equal(other Object) bool {
	o := other.(*Array)
	if len(a.items) != len(o.items) {
		return false
	}
	for i := range a.items {
		if !Equal(a.items[i], o.items[i]) {
			return false
		}
	}
	return true
}

func (a *Array) copy() Object {
	c := &Array{objectBase: copyBase(&a.objectBase)}
	c.self = c
	c.items = make([]Object, len(a.items))
	for i, item := range a.items {
		cp := item.copy()
		cp.base().parent = c
		c.items[i] = cp
	}
	return c
}
