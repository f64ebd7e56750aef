package document

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/observability"
)

var (
	// ErrObjectNotFound is returned when a reference names no object in use.
	ErrObjectNotFound = errors.New("pdf: object not found")
	// ErrNoStartXRef is returned when the startxref marker is missing.
	ErrNoStartXRef = errors.New("pdf: startxref not found")
	// ErrNotPDF is returned when the data does not start with a PDF header.
	ErrNotPDF = errors.New("pdf: missing %PDF- header")
)

// Version represents a PDF version
type Version struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less reports whether v is older than o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

// Update is one generation of a document: the objects one incremental
// section of the file defines, or the open update receiving edits.
type Update struct {
	doc     *Document
	index   int
	entries map[int]Entry
	objects map[core.Ref]*core.IndirectObject
	// packed marks objects that live, or will be written, in an object
	// stream.
	packed     map[core.Ref]bool
	trailer    *core.Dictionary
	xrefOffset int64
	xrefStream bool
	sealed     bool
}

func newUpdate(d *Document) *Update {
	return &Update{
		doc:        d,
		entries:    make(map[int]Entry),
		objects:    make(map[core.Ref]*core.IndirectObject),
		packed:     make(map[core.Ref]bool),
		xrefOffset: -1,
	}
}

func (u *Update) Document() core.Document { return u.doc }

func (u *Update) Previous() core.Update {
	if u.index == 0 {
		return nil
	}
	return u.doc.updates[u.index-1]
}

func (u *Update) Index() int { return u.index }

// Sealed reports whether the update is stored in the file bytes.
func (u *Update) Sealed() bool { return u.sealed }

// Trailer returns the trailer dictionary of a sealed update. For sections
// stored as cross-reference streams it is the stream dictionary.
func (u *Update) Trailer() *core.Dictionary { return u.trailer }

// XRefOffset returns the offset of the update's cross-reference section,
// or -1 for the open update.
func (u *Update) XRefOffset() int64 { return u.xrefOffset }

// Entry returns the cross-reference entry the update defines for num.
func (u *Update) Entry(num int) (Entry, bool) {
	e, ok := u.entries[num]
	return e, ok
}

// Refs returns the identities of the objects held in memory by the update,
// sorted by number.
func (u *Update) Refs() []core.Ref {
	refs := make([]core.Ref, 0, len(u.objects))
	for ref := range u.objects {
		refs = append(refs, ref)
	}
	slices.SortFunc(refs, func(a, b core.Ref) int {
		if a.Num != b.Num {
			return a.Num - b.Num
		}
		return a.Gen - b.Gen
	})
	return refs
}

// Document is a PDF file as a chain of updates. Loaded sections are kept
// byte for byte; edits go to the open update and are appended when the
// document is written.
type Document struct {
	data    []byte
	version Version
	updates []*Update
	next    int

	handler     core.EncryptionHandler
	logger      observability.Logger
	xrefStreams *bool

	root *core.Ref
	info *core.Ref

	objStms map[*core.IndirectObject]*objectStream
}

func newDocument(opts []Option) *Document {
	d := &Document{
		version: Version{Major: 1, Minor: 7},
		next:    1,
		objStms: make(map[*core.IndirectObject]*objectStream),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = observability.OrNop(d.logger)
	return d
}

// New creates an empty document with one open update.
func New(opts ...Option) *Document {
	d := newDocument(opts)
	if d.useXRefStreams() && d.version.Less(Version{Major: 1, Minor: 5}) {
		d.version = Version{Major: 1, Minor: 5}
	}
	d.openUpdate()
	return d
}

// Open loads a document from the bytes of a PDF file. Objects are parsed
// on first access.
func Open(data []byte, opts ...Option) (*Document, error) {
	d := newDocument(opts)
	d.data = slices.Clip(data)

	version, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	d.version = version

	if err := d.loadXRef(); err != nil {
		return nil, fmt.Errorf("failed to load xref: %w", err)
	}
	d.openUpdate()

	d.logger.Debug("document loaded",
		observability.String("version", d.version.String()),
		observability.Int("updates", len(d.updates)-1),
		observability.Int("size", d.next))
	return d, nil
}

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)`)

// parseHeader parses the PDF header (%PDF-x.y)
func parseHeader(data []byte) (Version, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return Version{}, ErrNotPDF
	}
	matches := versionPattern.FindSubmatch(data[len("%PDF-"):])
	if matches == nil {
		return Version{}, fmt.Errorf("%w: invalid version", ErrNotPDF)
	}
	major, _ := strconv.Atoi(string(matches[1]))
	minor, _ := strconv.Atoi(string(matches[2]))
	return Version{Major: major, Minor: minor}, nil
}

func (d *Document) openUpdate() *Update {
	u := newUpdate(d)
	u.index = len(d.updates)
	d.updates = append(d.updates, u)
	return u
}

func (d *Document) current() *Update { return d.updates[len(d.updates)-1] }

// Current returns the open update.
func (d *Document) Current() core.Update {
	if len(d.updates) == 0 {
		return nil
	}
	return d.current()
}

// Updates returns the update chain, oldest first. The last one is open.
func (d *Document) Updates() []*Update { return slices.Clone(d.updates) }

// Version returns the version in the file header.
func (d *Document) Version() Version { return d.version }

func (d *Document) Encryption() core.EncryptionHandler { return d.handler }

func (d *Document) Logger() observability.Logger { return d.logger }

// Trailer returns the trailer of the newest sealed update, or nil for a
// document that was never written.
func (d *Document) Trailer() *core.Dictionary {
	for i := len(d.updates) - 1; i >= 0; i-- {
		if t := d.updates[i].trailer; t != nil {
			return t
		}
	}
	return nil
}

func notFound(ref core.Ref) error {
	return fmt.Errorf("%w: %s", ErrObjectNotFound, ref)
}

// Resolve returns the newest version of the object stored under ref.
func (d *Document) Resolve(ref core.Ref) (*core.IndirectObject, error) {
	return d.resolveFrom(len(d.updates)-1, ref)
}

// resolveFrom looks ref up in the update at index top and the ones before
// it.
func (d *Document) resolveFrom(top int, ref core.Ref) (*core.IndirectObject, error) {
	for i := top; i >= 0; i-- {
		u := d.updates[i]
		if io, ok := u.objects[ref]; ok {
			return io, nil
		}
		e, ok := u.entries[ref.Num]
		if !ok {
			continue
		}
		switch e.Type {
		case EntryInUse:
			if e.Generation != ref.Gen {
				return nil, notFound(ref)
			}
			return d.loadObject(u, ref, e)
		case EntryCompressed:
			if ref.Gen != 0 {
				return nil, notFound(ref)
			}
			return d.loadCompressed(u, ref, e)
		default:
			return nil, notFound(ref)
		}
	}
	return nil, notFound(ref)
}

// loadObject parses the object an in-use entry points at.
func (d *Document) loadObject(u *Update, ref core.Ref, e Entry) (*core.IndirectObject, error) {
	if e.Offset < 0 || e.Offset >= int64(len(d.data)) {
		return nil, fmt.Errorf("object %s: offset %d out of range", ref, e.Offset)
	}
	c := core.NewCursor(d.data)
	c.SetPos(int(e.Offset))
	io, err := core.ParseIndirectObject(c, u)
	if err != nil {
		return nil, fmt.Errorf("failed to parse object %s: %w", ref, err)
	}
	if io.Ref != ref {
		return nil, fmt.Errorf("object number mismatch: expected %s, got %s", ref, io.Ref)
	}
	u.objects[ref] = io
	return io, nil
}

// loadCompressed extracts an object from the object stream a compressed
// entry points at.
func (d *Document) loadCompressed(u *Update, ref core.Ref, e Entry) (*core.IndirectObject, error) {
	stm, err := d.objectStream(u, int(e.Offset))
	if err != nil {
		return nil, fmt.Errorf("object stream of %s: %w", ref, err)
	}
	obj, num, err := stm.member(e.Generation)
	if err != nil || num != ref.Num {
		obj, err = d.findMember(u, stm, ref)
		if err != nil {
			return nil, err
		}
		d.logger.Warn("compressed object found outside its xref position",
			observability.Ref(ref.Num, ref.Gen), observability.Int("stream", stm.ref.Num))
	}
	io := core.Create(u, core.NewIndirectObject(ref, obj))
	u.objects[ref] = io
	u.packed[ref] = true
	return io, nil
}

// objectStream returns the decoded object stream num as seen from update u.
func (d *Document) objectStream(u *Update, num int) (*objectStream, error) {
	host, err := d.resolveFrom(u.index, core.Ref{Num: num})
	if err != nil {
		return nil, err
	}
	stm, ok := d.objStms[host]
	if !ok {
		stm, err = newObjectStream(host, u)
		if err != nil {
			return nil, err
		}
		d.objStms[host] = stm
	}
	return stm, nil
}

// findMember looks ref up by object number in stm and in the streams it
// extends.
func (d *Document) findMember(u *Update, stm *objectStream, ref core.Ref) (core.Object, error) {
	seen := make(map[core.Ref]bool)
	for {
		seen[stm.ref] = true
		if i := stm.indexOf(ref.Num); i >= 0 {
			obj, _, err := stm.member(i)
			return obj, err
		}
		if stm.extends == nil || seen[stm.extends.Ref] {
			return nil, fmt.Errorf("object %s not found in object stream %s", ref, stm.ref)
		}
		next, err := d.objectStream(u, stm.extends.Ref.Num)
		if err != nil {
			return nil, fmt.Errorf("object stream %s extends %s: %w", stm.ref, stm.extends.Ref, err)
		}
		stm = next
	}
}

// Append registers obj as a new indirect object in the open update.
// Compressed objects are written into an object stream when the document
// writes cross-reference streams.
func (d *Document) Append(obj core.Object, compressed bool) (*core.IndirectObject, error) {
	if obj == nil {
		return nil, errors.New("pdf: cannot append a nil object")
	}
	if _, ok := obj.(*core.IndirectObject); ok {
		return nil, errors.New("pdf: cannot nest indirect objects")
	}
	u := d.current()
	ref := core.Ref{Num: d.next}
	d.next++
	io := core.Create(u, core.NewIndirectObject(ref, obj))
	u.objects[ref] = io
	if compressed {
		u.packed[ref] = true
	}
	return io, nil
}

// Promote copies the newest version of ref into the open update.
func (d *Document) Promote(ref core.Ref) (*core.IndirectObject, error) {
	stored, err := d.Resolve(ref)
	if err != nil {
		return nil, err
	}
	u := d.current()
	if stored.Update() == core.Update(u) {
		return stored, nil
	}
	cp := core.Create(u, core.Copy(stored))
	u.objects[ref] = cp
	if from, ok := stored.Update().(*Update); ok && from.packed[ref] {
		u.packed[ref] = true
	}
	d.logger.Debug("object promoted", observability.Ref(ref.Num, ref.Gen), observability.Int("update", u.index))
	return cp, nil
}

// indirect registers obj as an indirect object of the open update unless it
// already is one.
func (d *Document) indirect(obj core.Object) (core.Ref, error) {
	if obj.Update() == nil {
		core.Create(d.Current(), obj)
	}
	io, err := core.MakeIndirect(obj, false)
	if err != nil {
		return core.Ref{}, err
	}
	return io.Ref, nil
}

// SetRoot makes obj the document catalog. A direct object is registered as
// an indirect object first.
func (d *Document) SetRoot(obj core.Object) error {
	ref, err := d.indirect(obj)
	if err != nil {
		return fmt.Errorf("set root: %w", err)
	}
	d.root = &ref
	return nil
}

// Root returns the document catalog.
func (d *Document) Root() (*core.Dictionary, error) {
	if d.root == nil {
		return nil, &core.MissingFieldError{Key: "Root", Dict: "trailer"}
	}
	io, err := d.Resolve(*d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog: %w", err)
	}
	return core.As[*core.Dictionary](io.Value())
}

// SetInfo makes obj the document information dictionary.
func (d *Document) SetInfo(obj core.Object) error {
	ref, err := d.indirect(obj)
	if err != nil {
		return fmt.Errorf("set info: %w", err)
	}
	d.info = &ref
	return nil
}

// Info returns the document information dictionary, or nil when the
// document has none.
func (d *Document) Info() (*core.Dictionary, error) {
	if d.info == nil {
		return nil, nil
	}
	io, err := d.Resolve(*d.info)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve info: %w", err)
	}
	return core.As[*core.Dictionary](io.Value())
}

func (d *Document) useXRefStreams() bool {
	if d.xrefStreams != nil {
		return *d.xrefStreams
	}
	for i := len(d.updates) - 1; i >= 0; i-- {
		if u := d.updates[i]; u.sealed {
			return u.xrefStream
		}
	}
	return false
}
