package resolver

import (
	"errors"
	"testing"

	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/document"
)

// appendObj adds obj to doc and fails the test on error.
func appendObj(t *testing.T, doc *document.Document, obj core.Object) *core.IndirectObject {
	t.Helper()
	io, err := doc.Append(obj, false)
	if err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	return io
}

// TestResolveReference tests resolving a simple indirect reference
func TestResolveReference(t *testing.T) {
	doc := document.New()
	target := appendObj(t, doc, core.NewInt(42))

	r := New(doc)
	resolved, err := r.ResolveRef(target.Ref)
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	n, ok := resolved.(*core.Number)
	if !ok {
		t.Fatalf("expected Number, got %T", resolved)
	}
	if n.Int() != 42 {
		t.Errorf("expected 42, got %d", n.Int())
	}
}

// TestResolveChain tests following a reference to a reference
func TestResolveChain(t *testing.T) {
	doc := document.New()
	target := appendObj(t, doc, core.NewName("End"))
	middle := appendObj(t, doc, core.NewReference(target.Ref))

	r := New(doc)
	resolved, err := r.Resolve(core.NewReference(middle.Ref))
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if resolved.String() != "/End" {
		t.Errorf("expected /End, got %s", resolved)
	}

	resolved, err = r.Resolve(middle)
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if resolved.String() != "/End" {
		t.Errorf("expected /End from the indirect object, got %s", resolved)
	}
}

// TestResolvePassThrough tests that direct values come back unchanged
func TestResolvePassThrough(t *testing.T) {
	r := New(document.New())

	tests := []struct {
		name string
		obj  core.Object
	}{
		{"Boolean", core.NewBoolean(true)},
		{"Number", core.NewNumber(3.14)},
		{"String", core.NewText("hello")},
		{"Name", core.NewName("Test")},
		{"Null", core.NewNull()},
		{"Dictionary", core.NewDictionary()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := r.Resolve(tt.obj)
			if err != nil {
				t.Fatalf("failed to resolve: %v", err)
			}
			if resolved != tt.obj {
				t.Errorf("value changed: %v -> %v", tt.obj, resolved)
			}
		})
	}
}

// TestResolveSelfReference tests that a reference chain looping onto
// itself is reported
func TestResolveSelfReference(t *testing.T) {
	doc := document.New()
	// The first object number of a new document is 1.
	loop := appendObj(t, doc, core.NewReference(core.Ref{Num: 1}))
	if loop.Ref.Num != 1 {
		t.Fatalf("unexpected object number %d", loop.Ref.Num)
	}

	_, err := New(doc).Resolve(core.NewReference(loop.Ref))
	if !errors.Is(err, ErrCircularReference) {
		t.Errorf("expected ErrCircularReference, got %v", err)
	}
}

// TestResolveMissing tests that lookup failures keep their cause
func TestResolveMissing(t *testing.T) {
	r := New(document.New())

	_, err := r.ResolveRef(core.Ref{Num: 7})
	if !errors.Is(err, document.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}

	arr := core.NewArray(core.NewReference(core.Ref{Num: 7}))
	_, err = r.ResolveArray(arr)
	if !errors.Is(err, document.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound from deep resolution, got %v", err)
	}
}

// TestResolveDeep tests that deep resolution expands nested references
// into a detached copy
func TestResolveDeep(t *testing.T) {
	doc := document.New()
	contents := appendObj(t, doc, core.NewStream([]byte("BT ET")))
	font := appendObj(t, doc, core.NewName("Helvetica"))

	resources := core.NewDictionary()
	resources.Set("F1", core.NewReference(font.Ref))
	resources.Set("F2", core.NewReference(font.Ref))
	page := core.NewDictionary()
	page.Set("Contents", core.NewReference(contents.Ref))
	page.Set("Resources", resources)
	page.Set("MediaBox", core.NewArray(core.NewInt(0), core.NewInt(0), core.NewInt(612), core.NewInt(792)))

	r := New(doc)
	out, err := r.ResolveDict(page)
	if err != nil {
		t.Fatalf("deep resolve failed: %v", err)
	}

	s, ok := out.Get("Contents").(*core.Stream)
	if !ok {
		t.Fatalf("expected Stream, got %T", out.Get("Contents"))
	}
	if string(s.Data()) != "BT ET" {
		t.Errorf("stream data = %q", s.Data())
	}

	res := out.Get("Resources").(*core.Dictionary)
	for _, key := range []string{"F1", "F2"} {
		if got := res.Get(key).String(); got != "/Helvetica" {
			t.Errorf("%s = %s, shared targets should resolve on each path", key, got)
		}
	}
	if got := out.Get("MediaBox").String(); got != "[0 0 612 792]" {
		t.Errorf("MediaBox = %s", got)
	}

	if _, ok := page.Get("Contents").(*core.Reference); !ok {
		t.Error("the source dictionary must keep its references")
	}
	if !core.Equal(out.Get("Contents"), contents.Value()) {
		t.Error("resolved stream should equal the stored one")
	}

	shallow, err := r.Resolve(page)
	if err != nil {
		t.Fatalf("shallow resolve failed: %v", err)
	}
	if _, ok := shallow.(*core.Dictionary).Get("Contents").(*core.Reference); !ok {
		t.Error("shallow resolution should not touch nested references")
	}
}

// TestResolveDeepCycle tests that objects pointing at each other are
// reported rather than expanded forever
func TestResolveDeepCycle(t *testing.T) {
	doc := document.New()
	parent := appendObj(t, doc, core.NewDictionary())
	kid := core.NewDictionary()
	kid.Set("Parent", core.NewReference(parent.Ref))
	child := appendObj(t, doc, kid)
	parent.Value().(*core.Dictionary).Set("Kids", core.NewArray(core.NewReference(child.Ref)))

	r := New(doc)
	_, err := r.ResolveDeep(core.NewReference(parent.Ref))
	if !errors.Is(err, ErrCircularReference) {
		t.Errorf("expected ErrCircularReference, got %v", err)
	}

	// Resolution state does not leak between calls.
	got, err := r.ResolveDeep(core.NewArray(core.NewReference(child.Ref), core.NewInt(1)))
	if !errors.Is(err, ErrCircularReference) {
		t.Errorf("expected ErrCircularReference, got %v (%v)", err, got)
	}
	if _, err := r.Resolve(core.NewReference(child.Ref)); err != nil {
		t.Errorf("shallow resolution of a cyclic object failed: %v", err)
	}
}

// TestResolveMaxDepth tests the nesting limit
func TestResolveMaxDepth(t *testing.T) {
	nested := core.NewArray(core.NewInt(1))
	for i := 0; i < 4; i++ {
		nested = core.NewArray(nested)
	}

	tests := []struct {
		name     string
		maxDepth int
		wantErr  bool
	}{
		{"within limit", 10, false},
		{"exceeded", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(document.New(), WithMaxDepth(tt.maxDepth))
			_, err := r.ResolveArray(nested)
			if tt.wantErr != errors.Is(err, ErrMaxDepth) {
				t.Errorf("maxDepth %d: got %v", tt.maxDepth, err)
			}
		})
	}
}
