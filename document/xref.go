package document

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/observability"
	"github.com/tsawler/pdfcore/pdferr"
)

// EntryType identifies the kind of a cross-reference entry.
type EntryType int

const (
	// EntryFree marks a deleted or unused object number.
	EntryFree EntryType = iota
	// EntryInUse locates an object by its byte offset.
	EntryInUse
	// EntryCompressed locates an object inside an object stream.
	EntryCompressed
)

func (t EntryType) String() string {
	switch t {
	case EntryFree:
		return "free"
	case EntryInUse:
		return "in-use"
	case EntryCompressed:
		return "compressed"
	default:
		return "unknown"
	}
}

// Entry is a cross-reference entry.
//
// For in-use entries Offset is the byte offset of the object and Generation
// its generation. For compressed entries Offset is the object number of the
// object stream and Generation the index inside it. For free entries Offset
// is the next free object number.
type Entry struct {
	Type       EntryType
	Offset     int64
	Generation int
}

// Trailer and cross-reference stream entries.
var (
	trailerSize    = core.IntValue("Size", false)
	trailerPrev    = core.IntValue("Prev", true)
	trailerRoot    = core.Field[*core.Reference]{Key: "Root", Optional: true}
	trailerInfo    = core.Field[*core.Reference]{Key: "Info", Optional: true}
	trailerID      = core.Field[*core.Array]{Key: "ID", Optional: true}
	trailerEncrypt = core.Field[core.Object]{Key: "Encrypt", Optional: true}
	trailerXRefStm = core.IntValue("XRefStm", true)
	xrefW          = core.Field[*core.Array]{Key: "W"}
	xrefIndex      = core.Field[*core.Array]{Key: "Index", Optional: true}
)

// findStartXRef scans backward from the end of the file for the startxref
// marker and returns the offset that follows it.
func findStartXRef(data []byte) (int64, error) {
	c := core.NewCursor(data)
	c.SetPos(c.Len())
	c.Backward = true
	idx := c.FindIndex([]byte("startxref"))
	if idx < 0 {
		return 0, ErrNoStartXRef
	}

	c = core.NewCursor(data)
	c.SetPos(idx + len("startxref"))
	offset, err := readInt(c)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoStartXRef, err)
	}
	return offset, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// readInt reads an unsigned decimal integer after optional white space.
func readInt(c *core.Cursor) (int64, error) {
	core.SkipSpace(c)
	start := c.Pos()
	digits := c.ReadWhile(isDigit)
	if len(digits) == 0 {
		return 0, pdferr.NewBadCharError(start, c.Peek(), "digit")
	}
	return strconv.ParseInt(string(digits), 10, 64)
}

// loadXRef reads the cross-reference sections from the newest one back
// through /Prev and builds the update chain, oldest first.
func (d *Document) loadXRef() error {
	offset, err := findStartXRef(d.data)
	if err != nil {
		return err
	}

	var chain []*Update
	seen := make(map[int64]bool)
	for {
		if seen[offset] {
			d.logger.Warn("xref chain loops, ignoring older sections", observability.Int64("offset", offset))
			break
		}
		seen[offset] = true

		u := newUpdate(d)
		if err := d.readSection(u, offset); err != nil {
			return err
		}
		chain = append(chain, u)

		prev, ok, err := trailerPrev.Lookup(u.trailer)
		if err != nil {
			return fmt.Errorf("invalid /Prev entry: %w", err)
		}
		if !ok {
			break
		}
		offset = int64(prev)
	}

	slices.Reverse(chain)
	for i, u := range chain {
		u.index = i
		u.sealed = true
		d.updates = append(d.updates, u)
		for num := range u.entries {
			if num >= d.next {
				d.next = num + 1
			}
		}
	}

	newest := chain[len(chain)-1].trailer
	if size, err := trailerSize.Get(newest); err == nil && size > d.next {
		d.next = size
	}
	if root, ok, _ := trailerRoot.Lookup(newest); ok {
		d.root = &root.Ref
	}
	if info, ok, _ := trailerInfo.Lookup(newest); ok {
		d.info = &info.Ref
	}
	return nil
}

// readSection reads the classic table or cross-reference stream at offset
// into u.
func (d *Document) readSection(u *Update, offset int64) error {
	if offset < 0 || offset >= int64(len(d.data)) {
		return fmt.Errorf("xref offset %d out of range", offset)
	}
	u.xrefOffset = offset
	c := core.NewCursor(d.data)
	c.SetPos(int(offset))

	if !c.HasPrefix("xref") {
		s, entries, err := d.readStream(u, c)
		if err != nil {
			return err
		}
		u.entries = entries
		u.trailer = s.Dict()
		u.xrefStream = true
		return nil
	}

	if err := d.readTable(u, c); err != nil {
		return err
	}

	// Hybrid files list compressed objects in a stream next to the table.
	stm, ok, err := trailerXRefStm.Lookup(u.trailer)
	if err != nil || !ok {
		return err
	}
	hc := core.NewCursor(d.data)
	hc.SetPos(stm)
	_, extra, err := d.readStream(u, hc)
	if err != nil {
		d.logger.Warn("ignoring unreadable /XRefStm section",
			observability.Int("offset", stm),
			observability.Error("error", err))
		return nil
	}
	for num, e := range extra {
		if cur, ok := u.entries[num]; !ok || cur.Type == EntryFree {
			u.entries[num] = e
		}
	}
	return nil
}

// readTable parses a classic "xref" table and its trailer.
func (d *Document) readTable(u *Update, c *core.Cursor) error {
	c.Skip(len("xref"))
	for {
		core.SkipSpace(c)
		if c.HasPrefix("trailer") {
			c.Skip(len("trailer"))
			break
		}
		if c.EOF() {
			return pdferr.NewParsingError(c.Pos(), "xref table without trailer")
		}

		start, err := readInt(c)
		if err != nil {
			return pdferr.Enrich(err, c.Pos(), "XRefSubsection")
		}
		count, err := readInt(c)
		if err != nil {
			return pdferr.Enrich(err, c.Pos(), "XRefSubsection")
		}
		for i := int64(0); i < count; i++ {
			e, err := readTableEntry(c)
			if err != nil {
				return pdferr.Enrich(err, c.Pos(), "XRefEntry")
			}
			num := int(start + i)
			if _, dup := u.entries[num]; !dup {
				u.entries[num] = e
			}
		}
	}

	trailer, err := core.FromPDF[*core.Dictionary](c, nil)
	if err != nil {
		return fmt.Errorf("failed to parse trailer dictionary: %w", err)
	}
	u.trailer = core.Create(u, trailer)
	return nil
}

// readTableEntry parses "nnnnnnnnnn ggggg n" or "... f".
func readTableEntry(c *core.Cursor) (Entry, error) {
	offset, err := readInt(c)
	if err != nil {
		return Entry{}, err
	}
	gen, err := readInt(c)
	if err != nil {
		return Entry{}, err
	}
	core.SkipSpace(c)
	e := Entry{Offset: offset, Generation: int(gen)}
	switch flag := c.Peek(); flag {
	case 'n':
		e.Type = EntryInUse
	case 'f':
		e.Type = EntryFree
	default:
		return Entry{}, pdferr.NewBadCharError(c.Pos(), flag, "n or f")
	}
	c.Next()
	return e, nil
}

// readStream parses the cross-reference stream object at the cursor and
// decodes its entries.
func (d *Document) readStream(u *Update, c *core.Cursor) (*core.Stream, map[int]Entry, error) {
	io, err := core.ParseIndirectObject(c, u)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse xref stream: %w", err)
	}
	s, ok := io.Value().(*core.Stream)
	if !ok || !s.IsXRef() {
		return nil, nil, fmt.Errorf("object %s is not a cross-reference stream", io.Ref)
	}
	u.objects[io.Ref] = io

	data, err := s.DecodeFilters()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode xref stream: %w", err)
	}
	entries, err := decodeXRefRows(s.Dict(), data)
	if err != nil {
		return nil, nil, err
	}
	return s, entries, nil
}

// decodeXRefRows splits decoded cross-reference stream data into entries
// according to /W and /Index.
func decodeXRefRows(dict *core.Dictionary, data []byte) (map[int]Entry, error) {
	w, err := xrefW.Get(dict)
	if err != nil {
		return nil, err
	}
	if w.Len() != 3 {
		return nil, fmt.Errorf("invalid /W array: must have 3 elements")
	}
	var widths [3]int
	for i := range widths {
		n, err := core.As[*core.Number](w.Get(i))
		if err != nil || n.Int() < 0 {
			return nil, fmt.Errorf("invalid /W array: %s", w)
		}
		widths[i] = n.Int()
	}
	rowSize := widths[0] + widths[1] + widths[2]
	if rowSize == 0 {
		return nil, fmt.Errorf("invalid /W array: entry size is 0")
	}

	var index []int
	if arr, ok, err := xrefIndex.Lookup(dict); err != nil {
		return nil, err
	} else if ok {
		for _, v := range arr.All() {
			n, err := core.As[*core.Number](v)
			if err != nil {
				return nil, fmt.Errorf("invalid /Index array: %w", err)
			}
			index = append(index, n.Int())
		}
	} else {
		size, err := trailerSize.Get(dict)
		if err != nil {
			return nil, err
		}
		index = []int{0, size}
	}
	if len(index)%2 != 0 {
		return nil, fmt.Errorf("invalid /Index array: odd length %d", len(index))
	}

	entries := make(map[int]Entry)
	pos := 0
	for i := 0; i < len(index); i += 2 {
		for j := 0; j < index[i+1]; j++ {
			num := index[i] + j
			if pos+rowSize > len(data) {
				return nil, fmt.Errorf("xref stream data truncated at object %d", num)
			}
			row := data[pos : pos+rowSize]
			pos += rowSize

			kind := int64(1)
			if widths[0] > 0 {
				kind = readBigEndian(row[:widths[0]])
			}
			f2 := readBigEndian(row[widths[0] : widths[0]+widths[1]])
			f3 := readBigEndian(row[widths[0]+widths[1]:])

			var e Entry
			switch kind {
			case 0:
				e = Entry{Type: EntryFree, Offset: f2, Generation: int(f3)}
			case 1:
				e = Entry{Type: EntryInUse, Offset: f2, Generation: int(f3)}
			case 2:
				e = Entry{Type: EntryCompressed, Offset: f2, Generation: int(f3)}
			default:
				// Unknown types are treated as references to the null object.
				continue
			}
			if _, dup := entries[num]; !dup {
				entries[num] = e
			}
		}
	}
	return entries, nil
}

// readBigEndian reads a big-endian integer from bytes.
func readBigEndian(data []byte) int64 {
	var result int64
	for _, b := range data {
		result = result<<8 | int64(b)
	}
	return result
}
