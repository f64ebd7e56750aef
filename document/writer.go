package document

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"slices"

	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/observability"
)

// binaryMarker follows the header so transfer tools treat the file as
// binary.
const binaryMarker = "%\xE2\xE3\xCF\xD3\n"

// WriteTo commits the open update and writes the whole file to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if err := d.Commit(context.Background()); err != nil {
		return 0, err
	}
	n, err := w.Write(d.data)
	return int64(n), err
}

// Bytes commits the open update and returns the whole file.
func (d *Document) Bytes() ([]byte, error) {
	if err := d.Commit(context.Background()); err != nil {
		return nil, err
	}
	return bytes.Clone(d.data), nil
}

// Commit appends the open update to the file bytes as an incremental
// section and starts a new open update. Loaded sections are never
// rewritten. An open update without objects is not written, unless the
// document has no bytes yet.
func (d *Document) Commit(ctx context.Context) error {
	u := d.current()
	if len(u.objects) == 0 && len(d.data) > 0 {
		return nil
	}
	data, next := d.data, d.next
	if len(d.data) == 0 {
		d.data = []byte("%PDF-" + d.version.String() + "\n" + binaryMarker)
	}
	// The update must start on a line of its own.
	var sep []byte
	if last := d.data[len(d.data)-1]; last != '\n' && last != '\r' {
		sep = []byte{'\n'}
	}

	w := &updateWriter{
		doc:     d,
		u:       u,
		sink:    core.NewSinkAt(int64(len(d.data) + len(sep))),
		entries: make(map[int]Entry),
		streams: d.useXRefStreams(),
	}
	if err := w.write(ctx); err != nil {
		// Drop the object and xref stream hosts the writer allocated.
		for ref := range u.objects {
			if ref.Num >= next {
				delete(u.objects, ref)
				delete(u.packed, ref)
			}
		}
		d.data, d.next = data, next
		return fmt.Errorf("failed to write update %d: %w", u.index, err)
	}

	d.data = append(append(d.data, sep...), w.sink.Bytes()...)
	u.entries = w.entries
	u.trailer = w.trailer
	u.xrefOffset = w.xrefOffset
	u.xrefStream = w.streams
	u.sealed = true
	d.openUpdate()

	d.logger.Info("update written",
		observability.Int("update", u.index),
		observability.Int("objects", len(w.entries)),
		observability.Int64("startxref", w.xrefOffset))
	return nil
}

// updateWriter serializes one update.
type updateWriter struct {
	doc     *Document
	u       *Update
	sink    *core.Sink
	entries map[int]Entry
	streams bool

	trailer    *core.Dictionary
	xrefOffset int64
}

func (w *updateWriter) write(ctx context.Context) error {
	var plain, packed []*core.IndirectObject
	for _, ref := range w.u.Refs() {
		io := w.u.objects[ref]
		if w.streams && w.u.packed[ref] && ref.Gen == 0 && io.Value().Kind() != core.KindStream {
			packed = append(packed, io)
		} else {
			plain = append(plain, io)
		}
	}

	for _, io := range plain {
		if err := w.writeObject(ctx, io); err != nil {
			return err
		}
	}
	if len(packed) > 0 {
		if err := w.writeObjectStream(ctx, packed); err != nil {
			return err
		}
	}
	if w.u.index == 0 {
		w.entries[0] = Entry{Type: EntryFree, Generation: 65535}
	}
	if w.streams {
		return w.writeXRefStream()
	}
	return w.writeXRefTable()
}

func (w *updateWriter) writeObject(ctx context.Context, io *core.IndirectObject) error {
	if w.doc.handler != nil {
		if err := core.EncryptPending(ctx, io); err != nil {
			return err
		}
	}
	w.entries[io.Ref.Num] = Entry{Type: EntryInUse, Offset: w.sink.Offset(), Generation: io.Ref.Gen}
	if err := core.Write(w.sink, io); err != nil {
		return fmt.Errorf("write object %s: %w", io.Ref, err)
	}
	w.sink.WriteByte('\n')
	return nil
}

// writeObjectStream packs members into a new object stream of the update.
func (w *updateWriter) writeObjectStream(ctx context.Context, members []*core.IndirectObject) error {
	for _, m := range members {
		if err := core.DecryptAll(ctx, m.Value()); err != nil {
			return err
		}
	}
	s, err := packObjectStream(members)
	if err != nil {
		return err
	}
	host, err := w.doc.Append(s, false)
	if err != nil {
		return err
	}
	if err := w.writeObject(ctx, host); err != nil {
		return err
	}
	for i, m := range members {
		w.entries[m.Ref.Num] = Entry{Type: EntryCompressed, Offset: int64(host.Ref.Num), Generation: i}
	}
	return nil
}

// subsection is a run of consecutive object numbers.
type subsection struct {
	start int
	nums  []int
}

func (w *updateWriter) subsections() []subsection {
	nums := make([]int, 0, len(w.entries))
	for num := range w.entries {
		nums = append(nums, num)
	}
	slices.Sort(nums)

	var subs []subsection
	for _, num := range nums {
		if n := len(subs); n > 0 && subs[n-1].start+len(subs[n-1].nums) == num {
			subs[n-1].nums = append(subs[n-1].nums, num)
			continue
		}
		subs = append(subs, subsection{start: num, nums: []int{num}})
	}
	return subs
}

// fillTrailer sets the trailer entries of the update on dict.
func (w *updateWriter) fillTrailer(dict *core.Dictionary) error {
	d := w.doc
	if _, err := trailerSize.Set(dict, d.next); err != nil {
		return err
	}
	if prev := w.u.Previous(); prev != nil {
		if _, err := trailerPrev.Set(dict, int(prev.(*Update).xrefOffset)); err != nil {
			return err
		}
	}
	if d.root != nil {
		if _, err := trailerRoot.Set(dict, core.NewReference(*d.root)); err != nil {
			return err
		}
	}
	if d.info != nil {
		if _, err := trailerInfo.Set(dict, core.NewReference(*d.info)); err != nil {
			return err
		}
	}
	previous := d.Trailer()
	if previous != nil {
		enc, ok, err := trailerEncrypt.Lookup(previous)
		if err != nil {
			return err
		}
		if ok {
			dict.Set("Encrypt", core.Copy(enc))
		}
	}
	id, err := fileID(previous)
	if err != nil {
		return err
	}
	_, err = trailerID.Set(dict, id)
	return err
}

// fileID keeps the permanent first half of the previous file identifier
// and generates a new second half.
func fileID(previous *core.Dictionary) (*core.Array, error) {
	changing := make([]byte, 16)
	if _, err := rand.Read(changing); err != nil {
		return nil, fmt.Errorf("failed to generate file identifier: %w", err)
	}
	permanent := changing
	if previous != nil {
		if id, ok, _ := trailerID.Lookup(previous); ok && id.Len() == 2 {
			if s, err := core.As[*core.HexString](id.Get(0)); err == nil {
				permanent = s.Bytes()
			}
		}
	}
	return core.NewArray(core.NewHexString(permanent), core.NewHexString(changing)), nil
}

// writeXRefTable writes a classic cross-reference table and trailer.
func (w *updateWriter) writeXRefTable() error {
	w.xrefOffset = w.sink.Offset()
	w.sink.WriteLine("xref")
	for _, sub := range w.subsections() {
		fmt.Fprintf(w.sink, "%d %d\n", sub.start, len(sub.nums))
		for _, num := range sub.nums {
			e := w.entries[num]
			flag := 'n'
			if e.Type == EntryFree {
				flag = 'f'
			}
			fmt.Fprintf(w.sink, "%010d %05d %c \n", e.Offset, e.Generation, flag)
		}
	}

	w.trailer = core.NewDictionary()
	if err := w.fillTrailer(w.trailer); err != nil {
		return err
	}
	w.sink.WriteLine("trailer")
	if err := core.Write(w.sink, w.trailer); err != nil {
		return err
	}
	fmt.Fprintf(w.sink, "\nstartxref\n%d\n%%%%EOF\n", w.xrefOffset)
	core.Create(w.u, w.trailer)
	return nil
}

// byteWidth returns the number of bytes needed to store v big-endian.
func byteWidth(v int64) int {
	n := 1
	for v > 0xFF {
		v >>= 8
		n++
	}
	return n
}

// writeXRefStream writes a cross-reference stream that also serves as the
// trailer. Rows are PNG Up predicted and Flate compressed.
func (w *updateWriter) writeXRefStream() error {
	host, err := w.doc.Append(core.NewStream(nil), false)
	if err != nil {
		return err
	}
	w.xrefOffset = w.sink.Offset()
	w.entries[host.Ref.Num] = Entry{Type: EntryInUse, Offset: w.xrefOffset}

	var maxField2, maxField3 int64
	for _, e := range w.entries {
		maxField2 = max(maxField2, e.Offset)
		maxField3 = max(maxField3, int64(e.Generation))
	}
	widths := [3]int{1, byteWidth(maxField2), byteWidth(maxField3)}

	var rows []byte
	index := core.NewArray()
	for _, sub := range w.subsections() {
		index.Push(core.NewInt(sub.start), core.NewInt(len(sub.nums)))
		for _, num := range sub.nums {
			e := w.entries[num]
			rows = append(rows, byte(e.Type))
			rows = appendBigEndian(rows, e.Offset, widths[1])
			rows = appendBigEndian(rows, int64(e.Generation), widths[2])
		}
	}

	s := host.Value().(*core.Stream)
	s.Set("Type", core.NewName("XRef"))
	if err := w.fillTrailer(s.Dict()); err != nil {
		return err
	}
	if _, err := xrefW.Set(s.Dict(), core.NewArray(core.NewInt(widths[0]), core.NewInt(widths[1]), core.NewInt(widths[2]))); err != nil {
		return err
	}
	if _, err := xrefIndex.Set(s.Dict(), index); err != nil {
		return err
	}
	params := core.NewDictionary()
	params.Set("Predictor", core.NewInt(12))
	params.Set("Columns", core.NewInt(widths[0]+widths[1]+widths[2]))
	s.SetFilter([]string{"FlateDecode"}, []*core.Dictionary{params})
	if err := s.EncodeFilters(rows); err != nil {
		return fmt.Errorf("failed to encode xref stream: %w", err)
	}

	if err := core.Write(w.sink, host); err != nil {
		return err
	}
	fmt.Fprintf(w.sink, "\nstartxref\n%d\n%%%%EOF\n", w.xrefOffset)
	w.trailer = s.Dict()
	return nil
}

func appendBigEndian(dst []byte, v int64, width int) []byte {
	for i := width - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>(8*i)))
	}
	return dst
}
