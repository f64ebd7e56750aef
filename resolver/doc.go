// Package resolver expands indirect references against a document.
//
// PDF objects refer to each other with indirect references (e.g. "5 0 R").
// A core.Reference already resolves itself through the update it belongs
// to; this package works on detached values too and can expand a whole
// object tree at once.
//
// # Basic Usage
//
//	r := resolver.New(doc)
//	obj, err := r.Resolve(ref)
//
// # Deep Resolution
//
// ResolveDeep returns a detached copy in which every nested reference is
// replaced by a copy of its target. The document is left untouched:
//
//	page, err := r.ResolveDict(pageDict)
//
// # Cycle Detection
//
// A reference that leads back into its own chain fails with
// ErrCircularReference. Nesting is bounded by WithMaxDepth:
//
//	r := resolver.New(doc, resolver.WithMaxDepth(50))
package resolver
