package core

import (
	"bytes"
)

// View is the [Start, End) byte range a write occupied in a Sink.
type View struct {
	Start int64
	End   int64
}

// Len returns the size of the range.
func (v View) Len() int64 { return v.End - v.Start }

// Sink is an append-only byte accumulator that tracks absolute offsets, so
// callers can learn where each object landed in the output file.
type Sink struct {
	buf  bytes.Buffer
	base int64
}

// NewSink returns an empty sink whose first byte is at offset 0.
func NewSink() *Sink { return &Sink{} }

// NewSinkAt returns an empty sink whose first byte is at offset. Incremental
// writers use it to continue after the original file bytes.
func NewSinkAt(offset int64) *Sink { return &Sink{base: offset} }

func (s *Sink) Write(p []byte) (int, error) { return s.buf.Write(p) }

func (s *Sink) WriteByte(b byte) error { return s.buf.WriteByte(b) }

func (s *Sink) WriteString(str string) (int, error) { return s.buf.WriteString(str) }

// WriteLine writes str followed by a line feed.
func (s *Sink) WriteLine(str string) {
	s.buf.WriteString(str)
	s.buf.WriteByte('\n')
}

// Offset returns the absolute offset of the next byte written.
func (s *Sink) Offset() int64 { return s.base + int64(s.buf.Len()) }

// Bytes returns everything written so far.
func (s *Sink) Bytes() []byte { return s.buf.Bytes() }

// Slice returns the bytes of a view produced by this sink.
func (s *Sink) Slice(v View) []byte {
	return s.buf.Bytes()[v.Start-s.base : v.End-s.base]
}

// Record runs fn and, if it succeeds, passes the range it wrote to done.
func (s *Sink) Record(fn func(s *Sink) error, done func(v View)) error {
	start := s.Offset()
	if err := fn(s); err != nil {
		return err
	}
	if done != nil {
		done(View{Start: start, End: s.Offset()})
	}
	return nil
}

// WritePadded writes p and pads it with spaces to at least minLen bytes.
// Placeholders that are overwritten after the layout is fixed use it to
// reserve their space.
func (s *Sink) WritePadded(p []byte, minLen int, done func(v View)) {
	start := s.Offset()
	s.buf.Write(p)
	for i := len(p); i < minLen; i++ {
		s.buf.WriteByte(' ')
	}
	if done != nil {
		done(View{Start: start, End: s.Offset()})
	}
}

// Patch overwrites bytes already written, starting at the absolute offset.
// It reports false if the range is outside the sink.
func (s *Sink) Patch(offset int64, p []byte) bool {
	i := offset - s.base
	if i < 0 || i+int64(len(p)) > int64(s.buf.Len()) {
		return false
	}
	copy(s.buf.Bytes()[i:], p)
	return true
}
