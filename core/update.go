package core

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/tsawler/pdfcore/observability"
)

var (
	// ErrNoDocument is returned when an operation needs a document and the
	// object is freestanding.
	ErrNoDocument = errors.New("pdf: object is not attached to a document")
	// ErrNotIndirect is returned by GetIndirect for direct objects.
	ErrNotIndirect = errors.New("pdf: object is not indirect")
)

// Document is the object table an update chain exposes to the object model.
type Document interface {
	// Resolve returns the newest indirect object stored under ref.
	Resolve(ref Ref) (*IndirectObject, error)
	// Append registers obj as a new indirect object in the current update.
	// Compressed objects are written into an object stream.
	Append(obj Object, compressed bool) (*IndirectObject, error)
	// Promote copies the newest version of ref into the current update and
	// returns the copy. An object already in the current update is returned
	// as is.
	Promote(ref Ref) (*IndirectObject, error)
	// Current returns the open update that receives modifications.
	Current() Update
	// Encryption returns the active encryption handler, or nil.
	Encryption() EncryptionHandler
	Logger() observability.Logger
}

// Update is one generation of an incremental update chain.
type Update interface {
	Document() Document
	// Previous returns the update this one supersedes, or nil for the base.
	Previous() Update
	// Index is the position of the update in the chain, starting at 0.
	Index() int
}

// EncryptionHandler transforms string and stream content for the indirect
// object identified by ref.
type EncryptionHandler interface {
	Encrypt(ctx context.Context, data []byte, ref Ref) ([]byte, error)
	Decrypt(ctx context.Context, data []byte, ref Ref) ([]byte, error)
}

// indirectOwner returns the indirect object holding obj. With deep set it
// walks up through direct containers.
func indirectOwner(obj Object, deep bool) *IndirectObject {
	if io, ok := obj.(*IndirectObject); ok {
		return io
	}
	b := obj.base()
	for {
		if b.holder != nil {
			return b.holder
		}
		if !deep || b.parent == nil {
			return nil
		}
		b = b.parent.base()
	}
}

// FindIndirect returns the identity of the indirect object obj belongs to.
// Without deep only the value of an indirect object itself qualifies.
func FindIndirect(obj Object, deep bool) (Ref, bool) {
	io := indirectOwner(obj, deep)
	if io == nil {
		return Ref{}, false
	}
	return io.Ref, true
}

// GetIndirect is FindIndirect reporting ErrNotIndirect on failure.
func GetIndirect(obj Object, deep bool) (Ref, error) {
	ref, ok := FindIndirect(obj, deep)
	if !ok {
		return Ref{}, ErrNotIndirect
	}
	return ref, nil
}

// MakeIndirect registers obj as a new indirect object in its document. An
// object that is already indirect returns its holder. When obj sits in a
// container, the container slot is replaced by a reference.
func MakeIndirect(obj Object, compressed bool) (*IndirectObject, error) {
	if io := indirectOwner(obj, false); io != nil {
		return io, nil
	}
	b := obj.base()
	if b.update == nil || b.update.Document() == nil {
		return nil, ErrNoDocument
	}

	parent := b.parent
	var key string
	index := -1
	switch p := parent.(type) {
	case *Array:
		index = slices.Index(p.items, obj)
	case *Dictionary:
		key = p.keyOf(obj)
	case *Stream:
		key = p.keyOf(obj)
	}
	b.parent = nil

	io, err := b.update.Document().Append(obj, compressed)
	if err != nil {
		b.parent = parent
		return nil, err
	}

	ref := NewReference(io.Ref)
	switch p := parent.(type) {
	case *Array:
		if index >= 0 {
			p.items[index] = ref
			adopt(p, ref)
			p.invalidate()
		}
	case *Dictionary:
		if key != "" {
			p.Set(key, ref)
		}
	case *Stream:
		if key != "" {
			p.Set(key, ref)
		}
	}
	return io, nil
}

func (d *Dictionary) keyOf(obj Object) string {
	for _, k := range d.keys {
		if d.values[k] == obj {
			return k
		}
	}
	return ""
}

// pathStep addresses a child inside a container: a dictionary key or an
// array index.
type pathStep struct {
	key   string
	index int
}

// pathFromHolder returns the indirect holder of obj and the steps from its
// value down to obj.
func pathFromHolder(obj Object) (*IndirectObject, []pathStep, bool) {
	if io, ok := obj.(*IndirectObject); ok {
		return io, nil, true
	}
	var steps []pathStep
	cur := obj
	for {
		b := cur.base()
		if b.holder != nil {
			// Steps were collected child-first.
			for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
				steps[i], steps[j] = steps[j], steps[i]
			}
			return b.holder, steps, true
		}
		switch p := b.parent.(type) {
		case *Array:
			steps = append(steps, pathStep{index: slices.Index(p.items, cur)})
		case *Dictionary:
			steps = append(steps, pathStep{key: p.keyOf(cur), index: -1})
		case *Stream:
			steps = append(steps, pathStep{key: p.keyOf(cur), index: -1})
		default:
			return nil, nil, false
		}
		cur = b.parent
	}
}

// follow walks steps from the value of io.
func follow(io *IndirectObject, steps []pathStep, target Object) (Object, error) {
	if _, ok := target.(*IndirectObject); ok {
		return io, nil
	}
	cur := io.value
	for _, st := range steps {
		var next Object
		switch c := cur.(type) {
		case *Array:
			next = c.Get(st.index)
		case *Dictionary:
			next = c.Get(st.key)
		case *Stream:
			next = c.Get(st.key)
		}
		if next == nil {
			return nil, fmt.Errorf("pdf: object moved inside %s", io.Ref)
		}
		cur = next
	}
	return cur, nil
}

// Modify prepares obj for mutation in the document's current update and
// returns the object the mutation must be applied to.
//
// Objects without an update, or already in the current one, are returned
// unchanged. Otherwise the newest version of the indirect object that holds
// obj is consulted: if it already belongs to the current update, obj itself
// (when it lives there) or its counterpart inside it is returned. If not,
// the indirect object is promoted into the current update and the
// counterpart of obj inside the copy is returned.
func Modify[T Object](obj T) (T, error) {
	var zero T
	b := obj.base()
	if b.update == nil || b.update.Document() == nil {
		return obj, nil
	}
	doc := b.update.Document()
	cur := doc.Current()
	if b.update == cur {
		return obj, nil
	}

	holder, steps, ok := pathFromHolder(obj)
	if !ok {
		// A direct object outside any indirect object has nothing to promote.
		setUpdate(obj, cur)
		return obj, nil
	}

	stored, err := doc.Resolve(holder.Ref)
	if err != nil {
		return zero, err
	}
	if stored.update != cur {
		stored, err = doc.Promote(holder.Ref)
		if err != nil {
			return zero, err
		}
	} else if stored == holder {
		setUpdate(obj, cur)
		return obj, nil
	}

	counterpart, err := follow(stored, steps, obj)
	if err != nil {
		return zero, err
	}
	out, ok := counterpart.(T)
	if !ok {
		return zero, fmt.Errorf("pdf: %s in %s changed type to %s", obj.Kind(), holder.Ref, counterpart.Kind())
	}
	return out, nil
}

// promoted returns the counterpart in the open update that a mutation of obj
// must be applied to, when obj belongs to an older update. It reports false
// when obj itself can be changed.
func promoted(obj Object) (Object, bool) {
	b := obj.base()
	if b.update == nil {
		return nil, false
	}
	doc := b.update.Document()
	if doc == nil {
		return nil, false
	}
	if cur := doc.Current(); cur == nil || b.update == cur {
		return nil, false
	}
	m, err := Modify(obj)
	if err != nil {
		doc.Logger().Error("failed to promote modified object", observability.Error("error", err))
		return nil, false
	}
	return m, m != obj
}

// EncryptPending encrypts every string and stream reachable from obj that is
// not encrypted yet, without following references. Writers call it before
// serializing an object into an encrypted document.
func EncryptPending(ctx context.Context, obj Object) error {
	if e, ok := obj.(Encryptable); ok && e.Encrypted() != True {
		if err := e.Encrypt(ctx); err != nil {
			return err
		}
	}
	var err error
	forEachChild(obj, func(child Object) {
		if err == nil {
			err = EncryptPending(ctx, child)
		}
	})
	return err
}

// DecryptAll decrypts every encrypted string and stream reachable from obj,
// without following references, and drops their cached views. Object stream
// members are stored in plaintext, so writers call it before packing.
func DecryptAll(ctx context.Context, obj Object) error {
	if e, ok := obj.(Encryptable); ok && e.Encrypted() == True {
		if err := e.Decrypt(ctx); err != nil {
			return err
		}
		obj.base().invalidate()
	}
	var err error
	forEachChild(obj, func(child Object) {
		if err == nil {
			err = DecryptAll(ctx, child)
		}
	})
	return err
}
