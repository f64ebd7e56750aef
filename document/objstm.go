package document

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tsawler/pdfcore/core"
)

// Object stream entries.
var (
	objStmN       = core.IntValue("N", false)
	objStmFirst   = core.IntValue("First", false)
	objStmExtends = core.Field[*core.Reference]{Key: "Extends", Optional: true}
)

// objectStream is a decoded object stream (Type /ObjStm). Object streams
// store several non-stream objects in one compressed stream.
type objectStream struct {
	ref     core.Ref
	update  *Update
	n       int
	first   int
	extends *core.Reference
	offsets []memberOffset
	data    []byte
}

// memberOffset pairs an object number with its offset relative to First.
type memberOffset struct {
	num    int
	offset int
}

// newObjectStream decodes the object stream held by host. Members are
// parsed into u, the update whose entries point at them.
func newObjectStream(host *core.IndirectObject, u *Update) (*objectStream, error) {
	s, ok := host.Value().(*core.Stream)
	if !ok || s.TypeName() != "ObjStm" {
		return nil, fmt.Errorf("object %s is not an object stream", host.Ref)
	}
	n, err := objStmN.Get(s.Dict())
	if err != nil {
		return nil, err
	}
	first, err := objStmFirst.Get(s.Dict())
	if err != nil {
		return nil, err
	}
	if n < 0 || first < 0 {
		return nil, fmt.Errorf("object stream %s: invalid /N %d or /First %d", host.Ref, n, first)
	}
	extends, _, err := objStmExtends.Lookup(s.Dict())
	if err != nil {
		return nil, err
	}

	data, err := s.Decode(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to decode object stream %s: %w", host.Ref, err)
	}
	if first > len(data) {
		return nil, fmt.Errorf("object stream %s: /First %d exceeds decoded length %d", host.Ref, first, len(data))
	}

	stm := &objectStream{
		ref:     host.Ref,
		update:  u,
		n:       n,
		first:   first,
		extends: extends,
		offsets: make([]memberOffset, 0, n),
		data:    data,
	}
	header := core.NewCursor(data[:first])
	for i := 0; i < n; i++ {
		num, err := readInt(header)
		if err != nil {
			return nil, fmt.Errorf("object stream %s: object number %d: %w", host.Ref, i, err)
		}
		off, err := readInt(header)
		if err != nil {
			return nil, fmt.Errorf("object stream %s: offset %d: %w", host.Ref, i, err)
		}
		stm.offsets = append(stm.offsets, memberOffset{num: int(num), offset: int(off)})
	}
	return stm, nil
}

// member parses the object at index and returns it with its object number.
func (stm *objectStream) member(index int) (core.Object, int, error) {
	if index < 0 || index >= len(stm.offsets) {
		return nil, 0, fmt.Errorf("object stream %s: index %d out of range [0, %d)", stm.ref, index, len(stm.offsets))
	}
	pos := stm.first + stm.offsets[index].offset
	if pos >= len(stm.data) {
		return nil, 0, fmt.Errorf("object stream %s: offset %d exceeds decoded length %d", stm.ref, pos, len(stm.data))
	}
	c := core.NewCursor(stm.data)
	c.SetPos(pos)
	obj, err := core.ParseObjectStreamMember(c, stm.update)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse object at index %d of %s: %w", index, stm.ref, err)
	}
	return obj, stm.offsets[index].num, nil
}

// indexOf returns the index of object num in the stream, or -1.
func (stm *objectStream) indexOf(num int) int {
	for i, m := range stm.offsets {
		if m.num == num {
			return i
		}
	}
	return -1
}

// packObjectStream builds a Flate-compressed object stream holding the
// values of members, in order. Member content must be plaintext.
func packObjectStream(members []*core.IndirectObject) (*core.Stream, error) {
	var header bytes.Buffer
	body := core.NewSink()
	for _, m := range members {
		fmt.Fprintf(&header, "%d %d ", m.Ref.Num, body.Offset())
		if err := core.Write(body, m.Value()); err != nil {
			return nil, fmt.Errorf("write object %s: %w", m.Ref, err)
		}
		body.WriteByte('\n')
	}
	header.WriteByte('\n')

	s := core.NewStream(nil)
	s.Set("Type", core.NewName("ObjStm"))
	if _, err := objStmN.Set(s.Dict(), len(members)); err != nil {
		return nil, err
	}
	if _, err := objStmFirst.Set(s.Dict(), header.Len()); err != nil {
		return nil, err
	}
	s.SetFilter([]string{"FlateDecode"}, nil)
	if err := s.EncodeFilters(append(header.Bytes(), body.Bytes()...)); err != nil {
		return nil, fmt.Errorf("failed to compress object stream: %w", err)
	}
	return s, nil
}
