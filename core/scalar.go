package core

import (
	"math"
	"strconv"
	"strings"
)

// Null represents a PDF null object
type Null struct {
	objectBase
}

func NewNull() *Null {
	n := &Null{}
	n.self = n
	return n
}

func (n *Null) Kind() Kind { return KindNull }

func (n *Null) writePDF(s *Sink) error {
	_, err := s.WriteString("null")
	return err
}

func (n *Null) equal(Object) bool { return true }

func (n *Null) copy() Object {
	c := &Null{objectBase: copyBase(&n.objectBase)}
	c.self = c
	return c
}

// Boolean represents a PDF boolean
type Boolean struct {
	objectBase
	value bool
}

func NewBoolean(v bool) *Boolean {
	b := &Boolean{value: v}
	b.self = b
	return b
}

func (b *Boolean) Kind() Kind  { return KindBoolean }
func (b *Boolean) Value() bool { return b.value }

func (b *Boolean) SetValue(v bool) {
	if w, ok := promoted(b); ok {
		w.(*Boolean).SetValue(v)
		return
	}
	if b.value != v {
		b.value = v
		b.invalidate()
	}
}

func (b *Boolean) writePDF(s *Sink) error {
	_, err := s.WriteString(strconv.FormatBool(b.value))
	return err
}

func (b *Boolean) equal(other Object) bool { return b.value == other.(*Boolean).value }

func (b *Boolean) copy() Object {
	c := &Boolean{objectBase: copyBase(&b.objectBase), value: b.value}
	c.self = c
	return c
}

// Number represents a PDF integer or real number.
type Number struct {
	objectBase
	value float64
}

func NewNumber(v float64) *Number {
	n := &Number{value: v}
	n.self = n
	return n
}

func NewInt(v int) *Number { return NewNumber(float64(v)) }

func (n *Number) Kind() Kind      { return KindNumber }
func (n *Number) Value() float64  { return n.value }
func (n *Number) Int() int        { return int(math.Round(n.value)) }
func (n *Number) IsInteger() bool { return n.value == math.Trunc(n.value) }

func (n *Number) SetValue(v float64) {
	if w, ok := promoted(n); ok {
		w.(*Number).SetValue(v)
		return
	}
	if n.value != v {
		n.value = v
		n.invalidate()
	}
}

func (n *Number) writePDF(s *Sink) error {
	_, err := s.WriteString(FormatNumber(n.value))
	return err
}

func (n *Number) equal(other Object) bool { return n.value == other.(*Number).value }

func (n *Number) copy() Object {
	c := &Number{objectBase: copyBase(&n.objectBase), value: n.value}
	c.self = c
	return c
}

// FormatNumber formats v with at most three fractional digits, trailing
// zeros removed.
func FormatNumber(v float64) string {
	out := strconv.FormatFloat(v, 'f', 3, 64)
	out = strings.TrimRight(out, "0")
	out = strings.TrimSuffix(out, ".")
	if out == "-0" || out == "" {
		return "0"
	}
	return out
}

// Name represents a PDF name. The value is the decoded text, without the
// leading slash.
type Name struct {
	objectBase
	value string
}

func NewName(v string) *Name {
	n := &Name{value: v}
	n.self = n
	return n
}

func (n *Name) Kind() Kind    { return KindName }
func (n *Name) Value() string { return n.value }

func (n *Name) SetValue(v string) {
	if w, ok := promoted(n); ok {
		w.(*Name).SetValue(v)
		return
	}
	if n.value != v {
		n.value = v
		n.invalidate()
	}
}

func (n *Name) writePDF(s *Sink) error {
	_, err := s.WriteString(EscapeName(n.value))
	return err
}

func (n *Name) equal(other Object) bool { return n.value == other.(*Name).value }

func (n *Name) copy() Object {
	c := &Name{objectBase: copyBase(&n.objectBase), value: n.value}
	c.self = c
	return c
}

// EscapeName returns the serialized form of a name, including the slash.
// Bytes outside the printable range, delimiters and '#' are written as #xx.
func EscapeName(v string) string {
	var sb strings.Builder
	sb.WriteByte('/')
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c < '!' || c > '~' || c == '#' || isDelimiter(c) {
			sb.WriteByte('#')
			sb.WriteByte(hexDigits[c>>4])
			sb.WriteByte(hexDigits[c&0x0F])
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// Comment represents a % comment. The value excludes the percent sign and
// surrounding whitespace.
type Comment struct {
	objectBase
	value string
}

func NewComment(v string) *Comment {
	c := &Comment{value: v}
	c.self = c
	return c
}

func (c *Comment) Kind() Kind    { return KindComment }
func (c *Comment) Value() string { return c.value }

func (c *Comment) writePDF(s *Sink) error {
	s.WriteLine("%" + c.value)
	return nil
}

func (c *Comment) equal(other Object) bool { return c.value == other.(*Comment).value }

func (c *Comment) copy() Object {
	cp := &Comment{objectBase: copyBase(&c.objectBase), value: c.value}
	cp.self = cp
	return cp
}
