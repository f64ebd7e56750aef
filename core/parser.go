package core

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/tsawler/pdfcore/observability"
	"github.com/tsawler/pdfcore/pdferr"
)

const hexDigits = "0123456789ABCDEF"

// maxNesting bounds array and dictionary nesting while parsing.
const maxNesting = 512

func isWhitespace(b byte) bool {
	// PDF whitespace: space, tab, LF, CR, FF, null
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

func isRegular(b byte) bool { return !isWhitespace(b) && !isDelimiter(b) }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isOctalDigit(b byte) bool { return b >= '0' && b <= '7' }

func hexValue(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// skipWhitespace consumes whitespace only.
func skipWhitespace(c *Cursor) {
	c.ReadWhile(isWhitespace)
}

// SkipSpace consumes whitespace and comments.
func SkipSpace(c *Cursor) {
	for {
		skipWhitespace(c)
		if c.Peek() != '%' {
			return
		}
		c.ReadUntil(func(b byte) bool { return b == '\r' || b == '\n' })
	}
}

// parser holds the state of one parse call.
type parser struct {
	c *Cursor
	u Update
	// plain marks content read from a decoded object stream, whose strings
	// are never encrypted individually.
	plain bool
	depth int
}

// ParseObject parses the object at the cursor position. Leading whitespace
// is skipped; a comment at that position is returned as a *Comment. Parsed
// objects belong to u, which may be nil, and cache the bytes they were read
// from.
func ParseObject(c *Cursor, u Update) (Object, error) {
	p := &parser{c: c, u: u}
	return p.object()
}

// ParseObjectStreamMember parses an object stored inside an object stream.
// Its strings and streams are plaintext regardless of document encryption.
func ParseObjectStreamMember(c *Cursor, u Update) (Object, error) {
	p := &parser{c: c, u: u, plain: true}
	return p.object()
}

// ParseIndirectObject parses "<num> <gen> obj <value> endobj". A missing
// endobj keyword is tolerated.
func ParseIndirectObject(c *Cursor, u Update) (*IndirectObject, error) {
	p := &parser{c: c, u: u}
	return p.indirectObject()
}

// FromPDF parses an object of type T at the cursor position. Literal and
// hex strings are converted into each other when T asks for the other one.
func FromPDF[T Object](c *Cursor, u Update) (T, error) {
	var zero T
	var obj Object
	var err error
	if _, ok := any(zero).(*IndirectObject); ok {
		obj, err = ParseIndirectObject(c, u)
	} else {
		obj, err = ParseObject(c, u)
	}
	if err != nil {
		return zero, err
	}
	if v, ok := obj.(T); ok {
		return v, nil
	}
	if v, ok := rewrap[T](obj); ok {
		return v, nil
	}
	return zero, &FieldTypeError{Want: fmt.Sprintf("%T", zero), Got: obj.Kind()}
}

// FromPDFString parses text as an object of type T.
func FromPDFString[T Object](text string, u Update) (T, error) {
	return FromPDF[T](NewCursor([]byte(text)), u)
}

func (p *parser) document() Document {
	if p.u == nil {
		return nil
	}
	return p.u.Document()
}

func (p *parser) logger() observability.Logger {
	if doc := p.document(); doc != nil {
		return observability.OrNop(doc.Logger())
	}
	return observability.NopLogger{}
}

// encryptedState is the state of freshly parsed string and stream content.
func (p *parser) encryptedState() Tristate {
	doc := p.document()
	if doc == nil {
		return Unknown
	}
	if p.plain || doc.Encryption() == nil {
		return False
	}
	return True
}

// finish attaches obj to the update and caches the bytes from start to the
// cursor position as its view.
func (p *parser) finish(obj Object, start int) Object {
	b := obj.base()
	if p.u != nil && b.update == nil {
		b.update = p.u
	}
	b.view = append([]byte(nil), p.c.data[start:p.c.pos]...)
	return obj
}

func (p *parser) badChar(expected string) error {
	return pdferr.NewBadCharError(p.c.Pos(), p.c.Peek(), expected)
}

// keyword consumes word if it is followed by a delimiter, whitespace or the
// end of input.
func (p *parser) keyword(word string) bool {
	if !p.c.HasPrefix(word) {
		return false
	}
	next := p.c.PeekAt(len(word))
	if next != EOF && isRegular(byte(next)) {
		return false
	}
	p.c.Skip(len(word))
	return true
}

func (p *parser) object() (Object, error) {
	skipWhitespace(p.c)
	start := p.c.Pos()
	switch b := p.c.Peek(); {
	case b == EOF:
		return nil, p.badChar("object")
	case b == '%':
		return p.comment(), nil
	case b == '/':
		obj, err := p.name()
		return obj, pdferr.Enrich(err, start, "Name")
	case b == '(':
		obj, err := p.literalString()
		return obj, pdferr.Enrich(err, start, "LiteralString")
	case b == '<' && p.c.PeekAt(1) == '<':
		obj, err := p.dictionaryOrStream()
		return obj, pdferr.Enrich(err, start, "Dictionary")
	case b == '<':
		obj, err := p.hexString()
		return obj, pdferr.Enrich(err, start, "HexString")
	case b == '[':
		obj, err := p.array()
		return obj, pdferr.Enrich(err, start, "Array")
	case b == 'n':
		if !p.keyword("null") {
			return nil, pdferr.Enrich(p.badChar("null"), start, "Null")
		}
		return p.finish(NewNull(), start), nil
	case b == 't':
		if !p.keyword("true") {
			return nil, pdferr.Enrich(p.badChar("true"), start, "Boolean")
		}
		return p.finish(NewBoolean(true), start), nil
	case b == 'f':
		if !p.keyword("false") {
			return nil, pdferr.Enrich(p.badChar("false"), start, "Boolean")
		}
		return p.finish(NewBoolean(false), start), nil
	case isDigit(byte(b)) || b == '+' || b == '-' || b == '.':
		if ref, ok := p.reference(); ok {
			return ref, nil
		}
		obj, err := p.number()
		return obj, pdferr.Enrich(err, start, "Number")
	default:
		return nil, p.badChar("object")
	}
}

func (p *parser) comment() Object {
	start := p.c.Pos()
	p.c.Next()
	text := p.c.ReadUntil(func(b byte) bool { return b == '\r' || b == '\n' })
	if p.c.Next() == '\r' && p.c.Peek() == '\n' {
		p.c.Next()
	}
	return p.finish(NewComment(string(bytes.TrimSpace(text))), start)
}

// unsigned reads a run of digits as an int.
func (p *parser) unsigned() (int, bool) {
	digits := p.c.ReadWhile(isDigit)
	if len(digits) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(string(digits))
	return n, err == nil
}

// reference tries "<num> <gen> R" and rewinds on failure.
func (p *parser) reference() (Object, bool) {
	start := p.c.Pos()
	num, ok := p.unsigned()
	if ok && isWhitespace(byte(p.c.Peek())) {
		skipWhitespace(p.c)
		var gen int
		if gen, ok = p.unsigned(); ok && isWhitespace(byte(p.c.Peek())) {
			skipWhitespace(p.c)
			if p.keyword("R") {
				return p.finish(NewReference(Ref{Num: num, Gen: gen}), start), true
			}
		}
	}
	p.c.SetPos(start)
	return nil, false
}

func (p *parser) number() (Object, error) {
	start := p.c.Pos()
	if b := p.c.Peek(); b == '+' || b == '-' {
		p.c.Next()
	}
	intPart := p.c.ReadWhile(isDigit)
	var fracPart []byte
	if p.c.Peek() == '.' {
		p.c.Next()
		fracPart = p.c.ReadWhile(isDigit)
	}
	if len(intPart) == 0 && len(fracPart) == 0 {
		return nil, p.badChar("digit")
	}
	text := string(p.c.data[start:p.c.pos])
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, pdferr.NewParsingError(start, "invalid number %q", text)
	}
	return p.finish(NewNumber(v), start), nil
}

func (p *parser) name() (Object, error) {
	start := p.c.Pos()
	p.c.Next()
	raw := p.c.ReadWhile(isRegular)
	var out []byte
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' && i+2 < len(raw) {
			hi, ok1 := hexValue(raw[i+1])
			lo, ok2 := hexValue(raw[i+2])
			if ok1 && ok2 {
				out = append(out, hi<<4|lo)
				i += 2
				continue
			}
		}
		out = append(out, raw[i])
	}
	return p.finish(NewName(string(out)), start), nil
}

func (p *parser) literalString() (Object, error) {
	start := p.c.Pos()
	p.c.Next()
	var buf []byte
	depth := 1
	for {
		b := p.c.Next()
		switch b {
		case EOF:
			return nil, p.badChar("')'")
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				s := NewLiteralString(buf)
				s.encrypted = p.encryptedState()
				return p.finish(s, start), nil
			}
		case '\\':
			buf = p.escape(buf)
			continue
		}
		buf = append(buf, byte(b))
	}
}

// escape decodes the sequence following a backslash in a literal string.
func (p *parser) escape(buf []byte) []byte {
	b := p.c.Next()
	switch b {
	case EOF:
		return buf
	case 'n':
		return append(buf, '\n')
	case 'r':
		return append(buf, '\r')
	case 't':
		return append(buf, '\t')
	case 'b':
		return append(buf, '\b')
	case 'f':
		return append(buf, '\f')
	case '\r':
		// Line continuation.
		if p.c.Peek() == '\n' {
			p.c.Next()
		}
		return buf
	case '\n':
		return buf
	}
	if isOctalDigit(byte(b)) {
		v := b - '0'
		for i := 0; i < 2; i++ {
			next := p.c.Peek()
			if next == EOF || !isOctalDigit(byte(next)) {
				break
			}
			v = v*8 + p.c.Next() - '0'
		}
		return append(buf, byte(v))
	}
	// \( \) \\ and unknown escapes: the backslash is dropped.
	return append(buf, byte(b))
}

func (p *parser) hexString() (Object, error) {
	start := p.c.Pos()
	p.c.Next()
	var digits []byte
	for {
		b := p.c.Peek()
		switch {
		case b == '>':
			p.c.Next()
			if len(digits)%2 != 0 {
				digits = append(digits, '0')
			}
			out := make([]byte, len(digits)/2)
			for i := range out {
				hi, _ := hexValue(digits[2*i])
				lo, _ := hexValue(digits[2*i+1])
				out[i] = hi<<4 | lo
			}
			s := NewHexString(out)
			s.encrypted = p.encryptedState()
			return p.finish(s, start), nil
		case b == EOF:
			return nil, p.badChar("'>'")
		case isWhitespace(byte(b)):
			p.c.Next()
		default:
			if _, ok := hexValue(byte(b)); !ok {
				return nil, p.badChar("hex digit")
			}
			digits = append(digits, byte(p.c.Next()))
		}
	}
}

func (p *parser) nest() error {
	p.depth++
	if p.depth > maxNesting {
		return pdferr.NewParsingError(p.c.Pos(), "nesting deeper than %d", maxNesting)
	}
	return nil
}

func (p *parser) array() (Object, error) {
	start := p.c.Pos()
	if err := p.nest(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	p.c.Next()
	arr := NewArray()
	for {
		SkipSpace(p.c)
		switch p.c.Peek() {
		case ']':
			p.c.Next()
			return p.finish(arr, start), nil
		case EOF:
			return nil, p.badChar("']'")
		}
		item, err := p.object()
		if err != nil {
			return nil, err
		}
		arr.Push(item)
	}
}

func (p *parser) dictionaryOrStream() (Object, error) {
	start := p.c.Pos()
	if err := p.nest(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	p.c.Skip(2)
	dict := NewDictionary()
	for {
		SkipSpace(p.c)
		if p.c.HasPrefix(">>") {
			p.c.Skip(2)
			break
		}
		switch p.c.Peek() {
		case '/':
		case EOF:
			return nil, p.badChar("'>>'")
		default:
			// A bare null right before the end marker is tolerated.
			if mark := p.c.Pos(); p.keyword("null") {
				SkipSpace(p.c)
				if p.c.HasPrefix(">>") {
					continue
				}
				p.c.SetPos(mark)
			}
			return nil, p.badChar("name")
		}
		key, err := p.name()
		if err != nil {
			return nil, err
		}
		SkipSpace(p.c)
		value, err := p.object()
		if err != nil {
			return nil, err
		}
		dict.Set(key.(*Name).value, value)
	}

	end := p.c.Pos()
	skipWhitespace(p.c)
	if p.keyword("stream") {
		return p.stream(dict, start)
	}
	p.c.SetPos(end)
	return p.finish(dict, start), nil
}

func (p *parser) stream(dict *Dictionary, start int) (Object, error) {
	eol := p.c.Pos()
	switch p.c.Next() {
	case '\n':
	case '\r':
		if p.c.Peek() != '\n' {
			return nil, pdferr.Enrich(p.badChar("line feed after carriage return"), start, "Stream")
		}
		p.c.Next()
	default:
		p.c.SetPos(eol)
		return nil, pdferr.Enrich(p.badChar("end of line after stream"), start, "Stream")
	}

	s := &Stream{Dictionary: Dictionary{keys: dict.keys, values: dict.values}}
	s.self = s
	for _, v := range s.values {
		v.base().parent = s
	}
	if p.u != nil {
		s.update = p.u
	}

	dataStart := p.c.Pos()
	length, lenErr := streamLength.Get(&s.Dictionary)
	if lenErr == nil && length >= 0 && length <= p.c.Len()-dataStart {
		p.c.Skip(length)
		after := p.c.Pos()
		skipWhitespace(p.c)
		if p.keyword("endstream") {
			s.data = append([]byte(nil), p.c.data[dataStart:after]...)
		} else {
			p.c.SetPos(after)
			lenErr = fmt.Errorf("endstream not found after %d bytes", length)
		}
	} else if lenErr == nil {
		lenErr = fmt.Errorf("length %d out of range", length)
	}

	if lenErr != nil {
		p.c.SetPos(dataStart)
		idx := p.c.FindIndex([]byte("endstream"))
		if idx < 0 {
			return nil, pdferr.Enrich(pdferr.NewParsingError(dataStart, "endstream not found"), start, "Stream")
		}
		end := idx
		if end > dataStart && p.c.data[end-1] == '\n' {
			end--
		}
		if end > dataStart && p.c.data[end-1] == '\r' {
			end--
		}
		s.data = append([]byte(nil), p.c.data[dataStart:end]...)
		p.c.SetPos(idx + len("endstream"))
		p.logger().Warn("stream length mismatch, resynchronized on endstream",
			observability.Int("offset", start),
			observability.Int("length", len(s.data)),
			observability.Error("error", lenErr))
	}

	if st := p.encryptedState(); st == True && s.IsXRef() {
		s.encrypted = False
	} else {
		s.encrypted = st
	}
	return p.finish(s, start), nil
}

func (p *parser) indirectObject() (*IndirectObject, error) {
	SkipSpace(p.c)
	start := p.c.Pos()
	io, err := p.indirectBody(start)
	return io, pdferr.Enrich(err, start, "IndirectObject")
}

func (p *parser) indirectBody(start int) (*IndirectObject, error) {
	num, ok := p.unsigned()
	if !ok {
		return nil, p.badChar("object number")
	}
	skipWhitespace(p.c)
	gen, ok := p.unsigned()
	if !ok {
		return nil, p.badChar("generation number")
	}
	skipWhitespace(p.c)
	if !p.keyword("obj") {
		return nil, p.badChar("obj")
	}
	SkipSpace(p.c)
	value, err := p.object()
	if err != nil {
		return nil, err
	}

	io := &IndirectObject{Ref: Ref{Num: num, Gen: gen}}
	io.self = io
	io.update = p.u
	io.setValue(value)

	end := p.c.Pos()
	SkipSpace(p.c)
	if p.keyword("endobj") {
		p.finish(io, start)
	} else {
		p.c.SetPos(end)
	}
	return io, nil
}
