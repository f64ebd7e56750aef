package core

import (
	"context"
	"fmt"

	"github.com/tsawler/pdfcore/observability"
)

// memUpdate is one generation of memDoc.
type memUpdate struct {
	doc     *memDoc
	index   int
	objects map[Ref]*IndirectObject
}

func (u *memUpdate) Document() Document { return u.doc }

func (u *memUpdate) Previous() Update {
	if u.index == 0 {
		return nil
	}
	return u.doc.updates[u.index-1]
}

func (u *memUpdate) Index() int { return u.index }

// memDoc is a minimal in-memory Document for exercising the object model.
type memDoc struct {
	updates []*memUpdate
	next    int
	handler EncryptionHandler
	logger  observability.Logger
}

func newMemDoc() *memDoc {
	d := &memDoc{next: 1}
	d.newUpdate()
	return d
}

func (d *memDoc) newUpdate() *memUpdate {
	u := &memUpdate{doc: d, index: len(d.updates), objects: make(map[Ref]*IndirectObject)}
	d.updates = append(d.updates, u)
	return u
}

func (d *memDoc) current() *memUpdate { return d.updates[len(d.updates)-1] }

func (d *memDoc) Current() Update { return d.current() }

func (d *memDoc) Resolve(ref Ref) (*IndirectObject, error) {
	for i := len(d.updates) - 1; i >= 0; i-- {
		if io, ok := d.updates[i].objects[ref]; ok {
			return io, nil
		}
	}
	return nil, fmt.Errorf("object %s not found", ref)
}

func (d *memDoc) Append(obj Object, compressed bool) (*IndirectObject, error) {
	ref := Ref{Num: d.next}
	d.next++
	return d.store(ref, obj), nil
}

// store places obj under ref in the current update.
func (d *memDoc) store(ref Ref, obj Object) *IndirectObject {
	if ref.Num >= d.next {
		d.next = ref.Num + 1
	}
	io := NewIndirectObject(ref, obj)
	setUpdate(io, d.current())
	d.current().objects[ref] = io
	return io
}

func (d *memDoc) Promote(ref Ref) (*IndirectObject, error) {
	stored, err := d.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if stored.update == d.Current() {
		return stored, nil
	}
	cp := Copy(stored)
	setUpdate(cp, d.current())
	d.current().objects[ref] = cp
	return cp, nil
}

func (d *memDoc) Encryption() EncryptionHandler { return d.handler }

func (d *memDoc) Logger() observability.Logger { return observability.OrNop(d.logger) }

// parseInto parses an indirect object from text and stores it in the
// current update.
func (d *memDoc) parseInto(text string) *IndirectObject {
	io, err := ParseIndirectObject(NewCursor([]byte(text)), d.Current())
	if err != nil {
		panic(err)
	}
	d.current().objects[io.Ref] = io
	if io.Ref.Num >= d.next {
		d.next = io.Ref.Num + 1
	}
	return io
}

// xorHandler is a reversible test cipher that records the calls it gets.
type xorHandler struct {
	calls []string
}

func (h *xorHandler) apply(data []byte, ref Ref) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ byte(0x5A+ref.Num)
	}
	return out
}

func (h *xorHandler) Encrypt(_ context.Context, data []byte, ref Ref) ([]byte, error) {
	h.calls = append(h.calls, "encrypt "+ref.String())
	return h.apply(data, ref), nil
}

func (h *xorHandler) Decrypt(_ context.Context, data []byte, ref Ref) ([]byte, error) {
	h.calls = append(h.calls, "decrypt "+ref.String())
	return h.apply(data, ref), nil
}

// recordingLogger collects warning messages.
type recordingLogger struct {
	observability.NopLogger
	warnings []string
}

func (l *recordingLogger) Warn(msg string, _ ...observability.Field) {
	l.warnings = append(l.warnings, msg)
}
