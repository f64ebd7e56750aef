package core

import (
	"bytes"
)

// EOF is returned by Cursor methods that run past the end of the buffer.
const EOF = -1

// Cursor is a movable read position over an immutable byte buffer.
//
// When Backward is set every scan moves toward the start of the buffer:
// Peek and Next look at the byte before the position, and FindIndex returns
// the start of the last match before it. Spans are always returned in file
// order. No method fails; absence is reported as EOF, -1 or an empty span.
type Cursor struct {
	data     []byte
	pos      int
	Backward bool
}

// NewCursor returns a forward cursor at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Data returns the whole underlying buffer.
func (c *Cursor) Data() []byte { return c.data }

// Pos returns the current offset.
func (c *Cursor) Pos() int { return c.pos }

// SetPos moves the cursor, clamped to the buffer.
func (c *Cursor) SetPos(pos int) {
	switch {
	case pos < 0:
		pos = 0
	case pos > len(c.data):
		pos = len(c.data)
	}
	c.pos = pos
}

// Len returns the buffer length.
func (c *Cursor) Len() int { return len(c.data) }

// Remaining returns the number of bytes left in the scan direction.
func (c *Cursor) Remaining() int {
	if c.Backward {
		return c.pos
	}
	return len(c.data) - c.pos
}

// EOF reports whether no bytes are left in the scan direction.
func (c *Cursor) EOF() bool { return c.Remaining() == 0 }

// Peek returns the next byte without consuming it, or EOF.
func (c *Cursor) Peek() int {
	if c.Backward {
		if c.pos == 0 {
			return EOF
		}
		return int(c.data[c.pos-1])
	}
	if c.pos >= len(c.data) {
		return EOF
	}
	return int(c.data[c.pos])
}

// PeekAt returns the byte offset bytes ahead in the scan direction, or EOF.
func (c *Cursor) PeekAt(offset int) int {
	i := c.pos + offset
	if c.Backward {
		i = c.pos - 1 - offset
	}
	if i < 0 || i >= len(c.data) {
		return EOF
	}
	return int(c.data[i])
}

// Next consumes and returns the next byte, or EOF.
func (c *Cursor) Next() int {
	b := c.Peek()
	if b != EOF {
		c.advance(1)
	}
	return b
}

// Skip consumes up to n bytes.
func (c *Cursor) Skip(n int) {
	if n > c.Remaining() {
		n = c.Remaining()
	}
	c.advance(n)
}

func (c *Cursor) advance(n int) {
	if c.Backward {
		c.pos -= n
	} else {
		c.pos += n
	}
}

// span returns the bytes between the current position and to, in file order.
func (c *Cursor) span(to int) []byte {
	if c.Backward {
		return c.data[to:c.pos]
	}
	return c.data[c.pos:to]
}

// Read consumes up to n bytes.
func (c *Cursor) Read(n int) []byte {
	if n > c.Remaining() {
		n = c.Remaining()
	}
	to := c.pos + n
	if c.Backward {
		to = c.pos - n
	}
	out := c.span(to)
	c.pos = to
	return out
}

// ReadUntil consumes bytes until stop reports true or the buffer ends. The
// stop byte is not consumed.
func (c *Cursor) ReadUntil(stop func(b byte) bool) []byte {
	idx := c.FindFunc(stop)
	if idx < 0 {
		idx = len(c.data)
		if c.Backward {
			idx = 0
		}
	} else if c.Backward {
		idx++
	}
	out := c.span(idx)
	c.pos = idx
	return out
}

// ReadWhile consumes bytes while keep reports true.
func (c *Cursor) ReadWhile(keep func(b byte) bool) []byte {
	return c.ReadUntil(func(b byte) bool { return !keep(b) })
}

// ReadUntilBytes consumes bytes up to, not including, the next occurrence of
// pattern. Without a match it consumes the rest of the buffer.
func (c *Cursor) ReadUntilBytes(pattern []byte) []byte {
	idx := c.FindIndex(pattern)
	switch {
	case idx < 0 && c.Backward:
		idx = 0
	case idx < 0:
		idx = len(c.data)
	case c.Backward:
		idx += len(pattern)
	}
	out := c.span(idx)
	c.pos = idx
	return out
}

// ReadUntilString is ReadUntilBytes for text patterns.
func (c *Cursor) ReadUntilString(text string) []byte {
	return c.ReadUntilBytes([]byte(text))
}

// FindIndex returns the absolute offset of the next occurrence of pattern
// in the scan direction without moving the cursor, or -1.
func (c *Cursor) FindIndex(pattern []byte) int {
	if c.Backward {
		return bytes.LastIndex(c.data[:c.pos], pattern)
	}
	i := bytes.Index(c.data[c.pos:], pattern)
	if i < 0 {
		return -1
	}
	return c.pos + i
}

// FindFunc returns the absolute offset of the next byte satisfying pred in
// the scan direction without moving the cursor, or -1.
func (c *Cursor) FindFunc(pred func(b byte) bool) int {
	if c.Backward {
		for i := c.pos - 1; i >= 0; i-- {
			if pred(c.data[i]) {
				return i
			}
		}
		return -1
	}
	for i := c.pos; i < len(c.data); i++ {
		if pred(c.data[i]) {
			return i
		}
	}
	return -1
}

// HasPrefix reports whether the bytes ahead of a forward cursor start with text.
func (c *Cursor) HasPrefix(text string) bool {
	if c.Backward {
		return bytes.HasSuffix(c.data[:c.pos], []byte(text))
	}
	return bytes.HasPrefix(c.data[c.pos:], []byte(text))
}
