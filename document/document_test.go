package document

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsawler/pdfcore/core"
)

// TestOpenClassic tests loading a file with a classic cross-reference table
func TestOpenClassic(t *testing.T) {
	doc, err := Open(samplePDF())
	require.NoError(t, err)
	require.Equal(t, Version{Major: 1, Minor: 4}, doc.Version())
	require.Equal(t, "1.4", doc.Version().String())

	updates := doc.Updates()
	require.Len(t, updates, 2)
	require.True(t, updates[0].Sealed())
	require.False(t, updates[1].Sealed())
	require.Equal(t, core.Update(updates[1]), doc.Current())
	require.Equal(t, core.Update(updates[0]), updates[1].Previous())
	require.Nil(t, updates[0].Previous())

	e, ok := updates[0].Entry(3)
	require.True(t, ok)
	require.Equal(t, EntryInUse, e.Type)

	root, err := doc.Root()
	require.NoError(t, err)
	require.Equal(t, "Catalog", root.TypeName())

	pages, err := core.Field[*core.Dictionary]{Key: "Pages"}.Get(root)
	require.NoError(t, err)
	count, err := core.IntValue("Count", false).Get(pages)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	io, err := doc.Resolve(core.Ref{Num: 3})
	require.NoError(t, err)
	require.Equal(t, core.Update(updates[0]), io.Update())
	again, err := doc.Resolve(core.Ref{Num: 3})
	require.NoError(t, err)
	require.Same(t, io, again, "loaded objects are cached")

	info, err := doc.Info()
	require.NoError(t, err)
	require.Nil(t, info)
}

// TestOpenErrors tests malformed input and unknown references
func TestOpenErrors(t *testing.T) {
	_, err := Open([]byte("hello"))
	require.ErrorIs(t, err, ErrNotPDF)

	_, err = Open([]byte("%PDF-x\n"))
	require.ErrorIs(t, err, ErrNotPDF)

	_, err = Open([]byte("%PDF-1.4\n1 0 obj null endobj\n"))
	require.ErrorIs(t, err, ErrNoStartXRef)

	doc, err := Open(samplePDF())
	require.NoError(t, err)
	for _, ref := range []core.Ref{{Num: 99}, {Num: 0}, {Num: 1, Gen: 1}} {
		_, err := doc.Resolve(ref)
		require.ErrorIs(t, err, ErrObjectNotFound, "ref %s", ref)
	}

	_, err = New().Root()
	var mfe *core.MissingFieldError
	require.True(t, errors.As(err, &mfe))
}

// TestXRefLoop tests that a /Prev chain pointing back at itself terminates
func TestXRefLoop(t *testing.T) {
	data := buildPDF(func(xref int) string { return "/Prev " + itoa(xref) }, "<</Type /Catalog>>")
	logger := &recordingLogger{}
	doc, err := Open(data, WithLogger(logger))
	require.NoError(t, err)
	require.Len(t, doc.Updates(), 2)
	require.Len(t, logger.warnings, 1)
}

// TestHybridXRef tests a classic table with an /XRefStm section listing a
// compressed object
func TestHybridXRef(t *testing.T) {
	var b bytes.Buffer
	b.WriteString("%PDF-1.5\n")
	off1 := b.Len()
	b.WriteString("1 0 obj\n<</Type /Catalog>>\nendobj\n")
	member := "3 0 <</Hidden true>>"
	off2 := b.Len()
	b.WriteString("2 0 obj\n<</Type /ObjStm /N 1 /First 4 /Length " + itoa(len(member)) + ">>\nstream\n" + member + "\nendstream\nendobj\n")
	off4 := b.Len()
	b.WriteString("4 0 obj\n<</Type /XRef /Size 5 /W [1 2 1] /Index [3 1] /Length 4>>\nstream\n\x02\x00\x02\x00\nendstream\nendobj\n")
	xref := b.Len()
	b.WriteString("xref\n0 4\n0000000000 65535 f \n" + pad10(off1) + " 00000 n \n" + pad10(off2) + " 00000 n \n0000000000 00000 f \n")
	b.WriteString("trailer\n<</Size 5 /Root 1 0 R /XRefStm " + itoa(off4) + ">>\nstartxref\n" + itoa(xref) + "\n%%EOF\n")

	doc, err := Open(b.Bytes())
	require.NoError(t, err)

	e, ok := doc.Updates()[0].Entry(3)
	require.True(t, ok)
	require.Equal(t, Entry{Type: EntryCompressed, Offset: 2}, e)

	io, err := doc.Resolve(core.Ref{Num: 3})
	require.NoError(t, err)
	hidden, err := core.BoolValue("Hidden", false).Get(io.Value().(*core.Dictionary))
	require.NoError(t, err)
	require.True(t, hidden)
	require.False(t, doc.useXRefStreams(), "a hybrid section is written as a table")
}

// TestObjectStreamExtends tests finding a compressed object through the
// /Extends chain of the stream its entry names
func TestObjectStreamExtends(t *testing.T) {
	build := func(extends string) []byte {
		var b bytes.Buffer
		b.WriteString("%PDF-1.5\n")
		off1 := b.Len()
		b.WriteString("1 0 obj\n<</Type /Catalog>>\nendobj\n")
		base := "3 0 <</Hidden true>>"
		off2 := b.Len()
		b.WriteString("2 0 obj\n<</Type /ObjStm /N 1 /First 4 /Length " + itoa(len(base)) + ">>\nstream\n" + base + "\nendstream\nendobj\n")
		top := "6 0 <</Other 1>>"
		off4 := b.Len()
		b.WriteString("4 0 obj\n<</Type /ObjStm /N 1 /First 4 /Extends " + extends + " /Length " + itoa(len(top)) + ">>\nstream\n" + top + "\nendstream\nendobj\n")
		off5 := b.Len()
		b.WriteString("5 0 obj\n<</Type /XRef /Size 6 /W [1 2 1] /Index [3 1] /Length 4>>\nstream\n\x02\x00\x04\x00\nendstream\nendobj\n")
		xref := b.Len()
		b.WriteString("xref\n0 5\n0000000000 65535 f \n" + pad10(off1) + " 00000 n \n" + pad10(off2) + " 00000 n \n0000000000 00000 f \n" + pad10(off4) + " 00000 n \n")
		b.WriteString("trailer\n<</Size 6 /Root 1 0 R /XRefStm " + itoa(off5) + ">>\nstartxref\n" + itoa(xref) + "\n%%EOF\n")
		return b.Bytes()
	}

	logger := &recordingLogger{}
	doc, err := Open(build("2 0 R"), WithLogger(logger))
	require.NoError(t, err)

	io, err := doc.Resolve(core.Ref{Num: 3})
	require.NoError(t, err)
	hidden, err := core.BoolValue("Hidden", false).Get(io.Value().(*core.Dictionary))
	require.NoError(t, err)
	require.True(t, hidden)
	require.Equal(t, []string{"compressed object found outside its xref position"}, logger.warnings)

	again, err := doc.Resolve(core.Ref{Num: 3})
	require.NoError(t, err)
	require.Same(t, io, again)

	// A chain that loops back on itself ends without a match.
	doc, err = Open(build("4 0 R"))
	require.NoError(t, err)
	_, err = doc.Resolve(core.Ref{Num: 3})
	require.ErrorContains(t, err, "not found in object stream")
}

// TestAppendAndPromote tests object number allocation and promotion
func TestAppendAndPromote(t *testing.T) {
	doc, err := Open(samplePDF())
	require.NoError(t, err)

	io, err := doc.Append(core.NewArray(core.NewInt(1)), false)
	require.NoError(t, err)
	require.Equal(t, core.Ref{Num: 4}, io.Ref)
	require.Equal(t, doc.Current(), io.Value().Update())

	_, err = doc.Append(nil, false)
	require.Error(t, err)
	_, err = doc.Append(io, false)
	require.Error(t, err)

	old, err := doc.Resolve(core.Ref{Num: 2})
	require.NoError(t, err)
	promoted, err := doc.Promote(core.Ref{Num: 2})
	require.NoError(t, err)
	require.NotSame(t, old, promoted)
	require.Equal(t, doc.Current(), promoted.Update())
	require.True(t, core.Equal(old.Value(), promoted.Value()))

	again, err := doc.Promote(core.Ref{Num: 2})
	require.NoError(t, err)
	require.Same(t, promoted, again)

	_, err = doc.Promote(core.Ref{Num: 42})
	require.ErrorIs(t, err, ErrObjectNotFound)
	require.Equal(t, []core.Ref{{Num: 2}, {Num: 4}}, doc.Updates()[1].Refs())
}

// TestReferencesResolveNewest tests references across several written
// updates
func TestReferencesResolveNewest(t *testing.T) {
	ctx := context.Background()
	doc, err := Open(buildPDF(nil, "<</Type /Catalog /Value 2 0 R>>", "1"))
	require.NoError(t, err)

	root, err := doc.Root()
	require.NoError(t, err)
	ref := root.Get("Value").(*core.Reference)

	for want := 2; want <= 4; want++ {
		io, err := doc.Resolve(core.Ref{Num: 2})
		require.NoError(t, err)
		n, err := core.Modify(io.Value().(*core.Number))
		require.NoError(t, err)
		n.SetValue(float64(want))
		require.NoError(t, doc.Commit(ctx))

		v, err := ref.Value()
		require.NoError(t, err)
		require.Equal(t, want, v.(*core.Number).Int())
	}

	data, err := doc.Bytes()
	require.NoError(t, err)
	reopened, err := Open(data)
	require.NoError(t, err)
	require.Len(t, reopened.Updates(), 5)

	io, err := reopened.Resolve(core.Ref{Num: 2})
	require.NoError(t, err)
	require.Equal(t, "4", io.Value().String())
}

func itoa(v int) string {
	return core.FormatNumber(float64(v))
}

func pad10(v int) string {
	s := itoa(v)
	for len(s) < 10 {
		s = "0" + s
	}
	return s
}
