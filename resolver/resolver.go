package resolver

import (
	"errors"
	"fmt"

	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/pdferr"
)

var (
	// ErrCircularReference is returned when a reference leads back to an
	// object that is already being resolved.
	ErrCircularReference = errors.New("circular reference")
	// ErrMaxDepth is returned when nesting exceeds the configured depth.
	ErrMaxDepth = errors.New("maximum resolution depth exceeded")
)

// DefaultMaxDepth bounds the nesting of containers and references followed
// by a single deep resolution.
const DefaultMaxDepth = 100

// Resolver follows indirect references against a document.
type Resolver struct {
	doc      core.Document
	maxDepth int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxDepth sets the maximum resolution depth (default: DefaultMaxDepth).
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		r.maxDepth = depth
	}
}

// New creates a resolver reading objects from doc.
func New(doc core.Document, opts ...Option) *Resolver {
	r := &Resolver{
		doc:      doc,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve follows obj while it is a reference or an indirect object and
// returns the direct value it ends at. Nested references are left alone.
func (r *Resolver) Resolve(obj core.Object) (core.Object, error) {
	seen := make(map[core.Ref]bool)
	for {
		switch v := obj.(type) {
		case *core.IndirectObject:
			obj = v.Value()
		case *core.Reference:
			if seen[v.Ref] {
				return nil, fmt.Errorf("%w: %s", ErrCircularReference, v.Ref)
			}
			seen[v.Ref] = true
			io, err := r.doc.Resolve(v.Ref)
			if err != nil {
				return nil, pdferr.Wrapf(err, "failed to resolve %s", v.Ref)
			}
			obj = io.Value()
		default:
			return obj, nil
		}
	}
}

// ResolveRef returns the direct value stored under ref.
func (r *Resolver) ResolveRef(ref core.Ref) (core.Object, error) {
	return r.Resolve(core.NewReference(ref))
}

// ResolveDeep returns a detached copy of obj in which every reference is
// replaced by a copy of the value it points to. The document is not
// modified. A reference that leads back into its own chain fails with
// ErrCircularReference, so shared targets are copied once per path.
func (r *Resolver) ResolveDeep(obj core.Object) (core.Object, error) {
	w := &walk{r: r, path: make(map[core.Ref]bool)}
	return w.resolve(obj, 0)
}

// ResolveDict deep-resolves a dictionary.
func (r *Resolver) ResolveDict(dict *core.Dictionary) (*core.Dictionary, error) {
	out, err := r.ResolveDeep(dict)
	if err != nil {
		return nil, err
	}
	return out.(*core.Dictionary), nil
}

// ResolveArray deep-resolves an array.
func (r *Resolver) ResolveArray(arr *core.Array) (*core.Array, error) {
	out, err := r.ResolveDeep(arr)
	if err != nil {
		return nil, err
	}
	return out.(*core.Array), nil
}

// walk carries the state of one deep resolution.
type walk struct {
	r    *Resolver
	path map[core.Ref]bool
}

func (w *walk) resolve(obj core.Object, depth int) (core.Object, error) {
	if depth >= w.r.maxDepth {
		return nil, fmt.Errorf("%w (%d)", ErrMaxDepth, w.r.maxDepth)
	}

	switch v := obj.(type) {
	case *core.IndirectObject:
		return w.resolve(v.Value(), depth)

	case *core.Reference:
		if w.path[v.Ref] {
			return nil, fmt.Errorf("%w: %s", ErrCircularReference, v.Ref)
		}
		io, err := w.r.doc.Resolve(v.Ref)
		if err != nil {
			return nil, pdferr.Wrapf(err, "failed to resolve %s", v.Ref)
		}
		w.path[v.Ref] = true
		defer delete(w.path, v.Ref)
		return w.resolve(io.Value(), depth+1)

	case *core.Dictionary:
		out := core.NewDictionary()
		if err := w.entries(out, v, depth); err != nil {
			return nil, err
		}
		return out, nil

	case *core.Stream:
		out := core.Copy(v)
		if err := w.entries(out.Dict(), v.Dict(), depth); err != nil {
			return nil, fmt.Errorf("failed to resolve stream dictionary: %w", err)
		}
		return out, nil

	case *core.Array:
		out := core.NewArray()
		for i, item := range v.All() {
			resolved, err := w.resolve(item, depth+1)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out.Push(resolved)
		}
		return out, nil

	case nil:
		return nil, nil

	default:
		return core.Copy(obj), nil
	}
}

func (w *walk) entries(dst, src *core.Dictionary, depth int) error {
	for key, value := range src.All() {
		resolved, err := w.resolve(value, depth+1)
		if err != nil {
			return fmt.Errorf("key /%s: %w", key, err)
		}
		dst.Set(key, resolved)
	}
	return nil
}
