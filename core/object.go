package core

import (
	"fmt"
	"strconv"
)

// Object is a PDF object. The set of implementations is closed: *Null,
// *Boolean, *Number, *Name, *LiteralString, *HexString, *Array, *Dictionary,
// *Stream, *Reference, *IndirectObject and *Comment.
type Object interface {
	Kind() Kind
	String() string

	// Update returns the incremental update the object belongs to, or nil
	// for freestanding objects.
	Update() Update

	// IsIndirect reports whether the object is the value of an indirect object.
	IsIndirect() bool

	base() *objectBase
	writePDF(s *Sink) error
	equal(other Object) bool
	copy() Object
}

// Kind identifies the variant of an Object.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindName
	KindLiteralString
	KindHexString
	KindArray
	KindDictionary
	KindStream
	KindReference
	KindIndirectObject
	KindComment
)

// String returns the string representation of the object kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBoolean:
		return "Boolean"
	case KindNumber:
		return "Number"
	case KindName:
		return "Name"
	case KindLiteralString:
		return "LiteralString"
	case KindHexString:
		return "HexString"
	case KindArray:
		return "Array"
	case KindDictionary:
		return "Dictionary"
	case KindStream:
		return "Stream"
	case KindReference:
		return "Reference"
	case KindIndirectObject:
		return "IndirectObject"
	case KindComment:
		return "Comment"
	default:
		return "Unknown"
	}
}

// Ref is the identity of an indirect object.
type Ref struct {
	Num int
	Gen int
}

func (r Ref) String() string {
	return strconv.Itoa(r.Num) + " " + strconv.Itoa(r.Gen) + " R"
}

// objectBase holds the state shared by every variant: the owner (a direct
// container or an indirect object), the update generation and the cached
// serialized bytes.
type objectBase struct {
	self   Object
	parent Object
	holder *IndirectObject
	update Update
	view   []byte
}

func (b *objectBase) base() *objectBase { return b }

func (b *objectBase) Update() Update { return b.update }

func (b *objectBase) IsIndirect() bool { return b.holder != nil }

// Parent returns the direct container holding the object, or nil.
func (b *objectBase) Parent() Object { return b.parent }

// View returns the bytes last parsed or serialized for the object, or nil
// once it has been modified.
func (b *objectBase) View() []byte { return b.view }

func (b *objectBase) String() string {
	out, err := ToPDF(b.self)
	if err != nil {
		return fmt.Sprintf("%%!%s(%v)", b.self.Kind(), err)
	}
	return string(out)
}

// invalidate drops the cached view of the object and of every container
// that holds it.
func (b *objectBase) invalidate() {
	for cur := b; cur != nil; {
		cur.view = nil
		switch {
		case cur.parent != nil:
			cur = cur.parent.base()
		case cur.holder != nil:
			cur = cur.holder.base()
		default:
			cur = nil
		}
	}
}

// adopt makes owner the direct container of child. A child without an
// update inherits the owner's.
func adopt(owner, child Object) {
	cb := child.base()
	cb.parent = owner
	cb.holder = nil
	if cb.update == nil {
		if u := owner.Update(); u != nil {
			setUpdate(child, u)
		}
	}
}

func release(child Object) {
	if child != nil {
		child.base().parent = nil
	}
}

// attachable prepares v for storage inside owner. Indirect values are
// replaced by a reference; values already held by another container are
// copied.
func attachable(owner, v Object) Object {
	if v == nil {
		v = NewNull()
	}
	b := v.base()
	if b.holder != nil {
		ref := NewReference(b.holder.Ref)
		ref.update = b.holder.update
		if ref.update == nil {
			ref.update = owner.Update()
		}
		return ref
	}
	if io, ok := v.(*IndirectObject); ok {
		ref := NewReference(io.Ref)
		ref.update = io.update
		return ref
	}
	if b.parent != nil && b.parent != owner {
		return v.copy()
	}
	return v
}

// setUpdate assigns u to obj and everything it directly contains.
func setUpdate(obj Object, u Update) {
	obj.base().update = u
	forEachChild(obj, func(child Object) { setUpdate(child, u) })
}

func forEachChild(obj Object, fn func(Object)) {
	switch o := obj.(type) {
	case *Array:
		for _, item := range o.items {
			fn(item)
		}
	case *Stream:
		for _, k := range o.keys {
			fn(o.values[k])
		}
	case *Dictionary:
		for _, k := range o.keys {
			fn(o.values[k])
		}
	case *IndirectObject:
		if o.value != nil {
			fn(o.value)
		}
	}
}

// Equal reports whether a and b are the same object, values of the same
// indirect object, or structurally equal.
func Equal(a, b Object) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	if ra, ok := FindIndirect(a, false); ok {
		if rb, ok := FindIndirect(b, false); ok && ra == rb {
			return true
		}
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return a.equal(b)
}

// Copy returns an unattached deep copy of obj.
func Copy[T Object](obj T) T {
	return obj.copy().(T)
}

// copyBase carries the cached view into a copy; the copy has no owner and
// no update.
func copyBase(b *objectBase) objectBase {
	return objectBase{view: b.view}
}

// Write serializes obj into s, reusing its cached view when the object is
// unmodified.
func Write(s *Sink, obj Object) error {
	b := obj.base()
	if b.view != nil {
		_, err := s.Write(b.view)
		return err
	}
	return s.Record(obj.writePDF, func(v View) {
		b.view = append([]byte(nil), s.Slice(v)...)
	})
}

// ToPDF returns the serialized form of obj.
func ToPDF(obj Object) ([]byte, error) {
	s := NewSink()
	if err := Write(s, obj); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

// Create attaches obj to u and applies variant defaults: a stream without a
// Length entry gets Length 0.
func Create[T Object](u Update, obj T) T {
	setUpdate(obj, u)
	if s, ok := any(obj).(*Stream); ok && !s.Has("Length") {
		s.set("Length", NewInt(len(s.data)))
	}
	return obj
}

// As converts obj to T. References are resolved through their document and
// literal and hex strings are re-wrapped into each other when needed.
func As[T Object](obj Object) (T, error) {
	var zero T
	if obj == nil {
		return zero, fmt.Errorf("pdf: expected %T, got nothing", zero)
	}
	if v, ok := obj.(T); ok {
		return v, nil
	}
	if ref, ok := obj.(*Reference); ok {
		resolved, err := ref.Value()
		if err != nil {
			return zero, err
		}
		return As[T](resolved)
	}
	if v, ok := rewrap[T](obj); ok {
		return v, nil
	}
	return zero, &FieldTypeError{Want: fmt.Sprintf("%T", zero), Got: obj.Kind()}
}

// rewrap builds a T from a value of a compatible variant.
func rewrap[T Object](obj Object) (T, bool) {
	var zero T
	var out Object
	switch o := obj.(type) {
	case *HexString:
		if _, ok := any(zero).(*LiteralString); ok {
			out = NewLiteralString(o.value)
		}
	case *LiteralString:
		if _, ok := any(zero).(*HexString); ok {
			out = NewHexString(o.value)
		}
	}
	if out == nil {
		return zero, false
	}
	ob := out.base()
	ob.update = obj.Update()
	if src, ok := obj.(Encryptable); ok {
		out.(Encryptable).setEncrypted(src.Encrypted())
	}
	return out.(T), true
}
