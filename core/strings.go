package core

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/tsawler/pdfcore/internal/textenc"
)

// Tristate is the encryption state of a string or stream payload.
type Tristate int8

const (
	// Unknown means the payload was not parsed inside a document.
	Unknown Tristate = iota
	// True means the payload holds ciphertext.
	True
	// False means the payload holds plaintext.
	False
)

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// Encryptable is implemented by objects whose content an encryption handler
// transforms: strings and streams.
type Encryptable interface {
	Object
	Encrypted() Tristate
	// Encrypt replaces plaintext content with ciphertext. Content in the
	// Unknown state was built in memory and counts as plaintext. It is a
	// no-op for encrypted content or when the document has no handler.
	Encrypt(ctx context.Context) error
	// Decrypt replaces ciphertext content with plaintext. It is a no-op
	// unless the content is encrypted.
	Decrypt(ctx context.Context) error

	setEncrypted(Tristate)
}

// encryptionTarget returns the handler and object identity used to encrypt
// or decrypt obj.
func encryptionTarget(obj Object) (EncryptionHandler, Ref, error) {
	u := obj.Update()
	if u == nil || u.Document() == nil {
		return nil, Ref{}, nil
	}
	handler := u.Document().Encryption()
	if handler == nil {
		return nil, Ref{}, nil
	}
	ref, err := GetIndirect(obj, true)
	if err != nil {
		return nil, Ref{}, fmt.Errorf("cannot locate encryption key: %w", err)
	}
	return handler, ref, nil
}

// textString is the content shared by literal and hex strings.
type textString struct {
	objectBase
	value     []byte
	encrypted Tristate
}

// Bytes returns the raw string bytes.
func (t *textString) Bytes() []byte { return t.value }

// SetBytes replaces the raw string bytes. The bytes are taken as plaintext.
func (t *textString) SetBytes(v []byte) {
	if w, ok := promoted(t.self); ok {
		w.(interface{ SetBytes([]byte) }).SetBytes(v)
		return
	}
	t.value = append([]byte(nil), v...)
	t.encrypted = False
	if t.update == nil {
		t.encrypted = Unknown
	}
	t.invalidate()
}

// Text decodes the string as a PDF text string: UTF-16BE or UTF-8 when a
// byte order mark is present, PDFDocEncoding otherwise.
func (t *textString) Text() (string, error) {
	return textenc.Decode(t.value)
}

// SetText stores s in PDFDocEncoding when it can, otherwise as UTF-16BE
// with a byte order mark.
func (t *textString) SetText(s string) error {
	v, err := textenc.Encode(s)
	if err != nil {
		return err
	}
	t.SetBytes(v)
	return nil
}

func (t *textString) Encrypted() Tristate { return t.encrypted }

func (t *textString) setEncrypted(v Tristate) { t.encrypted = v }

func (t *textString) Encrypt(ctx context.Context) error {
	if t.encrypted == True {
		return nil
	}
	handler, ref, err := encryptionTarget(t.self)
	if err != nil || handler == nil {
		return err
	}
	out, err := handler.Encrypt(ctx, t.value, ref)
	if err != nil {
		return fmt.Errorf("encrypt string in %s: %w", ref, err)
	}
	t.value = out
	t.encrypted = True
	t.invalidate()
	return nil
}

// Decrypt keeps the cached view: the file bytes still hold the ciphertext.
func (t *textString) Decrypt(ctx context.Context) error {
	if t.encrypted != True {
		return nil
	}
	handler, ref, err := encryptionTarget(t.self)
	if err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("pdf: encrypted string without an encryption handler")
	}
	out, err := handler.Decrypt(ctx, t.value, ref)
	if err != nil {
		return fmt.Errorf("decrypt string in %s: %w", ref, err)
	}
	t.value = out
	t.encrypted = False
	return nil
}

// LiteralString represents a PDF string written in parentheses.
type LiteralString struct {
	textString
}

func NewLiteralString(v []byte) *LiteralString {
	s := &LiteralString{textString{value: append([]byte(nil), v...)}}
	s.self = s
	return s
}

// NewText returns a literal string holding s as a PDF text string.
func NewText(s string) *LiteralString {
	v, err := textenc.Encode(s)
	if err != nil {
		v = []byte(s)
	}
	return NewLiteralString(v)
}

func (s *LiteralString) Kind() Kind { return KindLiteralString }

func (s *LiteralString) writePDF(sink *Sink) error {
	_, err := sink.Write(EscapeLiteral(s.value))
	return err
}

func (s *LiteralString) equal(other Object) bool {
	return bytes.Equal(s.value, other.(*LiteralString).value)
}

func (s *LiteralString) copy() Object {
	c := &LiteralString{textString{
		objectBase: copyBase(&s.objectBase),
		value:      append([]byte(nil), s.value...),
		encrypted:  s.encrypted,
	}}
	c.self = c
	return c
}

// EscapeLiteral returns v as a parenthesized literal string.
func EscapeLiteral(v []byte) []byte {
	out := make([]byte, 0, len(v)+2)
	out = append(out, '(')
	for _, c := range v {
		switch c {
		case '(', ')', '\\':
			out = append(out, '\\', c)
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		case '\b':
			out = append(out, '\\', 'b')
		case '\f':
			out = append(out, '\\', 'f')
		default:
			out = append(out, c)
		}
	}
	return append(out, ')')
}

// HexString represents a PDF string written as hexadecimal digits.
type HexString struct {
	textString
}

func NewHexString(v []byte) *HexString {
	s := &HexString{textString{value: append([]byte(nil), v...)}}
	s.self = s
	return s
}

func (s *HexString) Kind() Kind { return KindHexString }

// Hex returns the upper-case hexadecimal digits of the string.
func (s *HexString) Hex() string {
	return fmt.Sprintf("%X", s.value)
}

// SetHex replaces the string bytes with the decoded digits. An odd digit
// count is padded with a trailing zero.
func (s *HexString) SetHex(digits string) error {
	if len(digits)%2 != 0 {
		digits += "0"
	}
	v, err := hex.DecodeString(digits)
	if err != nil {
		return err
	}
	s.SetBytes(v)
	return nil
}

func (s *HexString) writePDF(sink *Sink) error {
	_, err := sink.WriteString("<" + s.Hex() + ">")
	return err
}

func (s *HexString) equal(other Object) bool {
	return bytes.Equal(s.value, other.(*HexString).value)
}

func (s *HexString) copy() Object {
	c := &HexString{textString{
		objectBase: copyBase(&s.objectBase),
		value:      append([]byte(nil), s.value...),
		encrypted:  s.encrypted,
	}}
	c.self = c
	return c
}
