// Package textenc implements the PDF "text string" conventions: bytes that
// start with a UTF-16BE or UTF-8 byte order mark carry Unicode text, all
// other bytes are PDFDocEncoding.
package textenc

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// noRune marks PDFDocEncoding codes without a character assignment.
const noRune = utf8.RuneError

// pdfDocHigh maps PDFDocEncoding codes 0x18-0x1F and 0x7F-0xFF to Unicode.
// Codes below 0x80 not listed map to themselves.
var pdfDocHigh = map[byte]rune{
	0x18: 0x02D8, 0x19: 0x02C7, 0x1A: 0x02C6, 0x1B: 0x02D9,
	0x1C: 0x02DD, 0x1D: 0x02DB, 0x1E: 0x02DA, 0x1F: 0x02DC,
	0x7F: noRune,
	0x80: 0x2022, 0x81: 0x2020, 0x82: 0x2021, 0x83: 0x2026,
	0x84: 0x2014, 0x85: 0x2013, 0x86: 0x0192, 0x87: 0x2044,
	0x88: 0x2039, 0x89: 0x203A, 0x8A: 0x2212, 0x8B: 0x2030,
	0x8C: 0x201E, 0x8D: 0x201C, 0x8E: 0x201D, 0x8F: 0x2018,
	0x90: 0x2019, 0x91: 0x201A, 0x92: 0x2122, 0x93: 0xFB01,
	0x94: 0xFB02, 0x95: 0x0141, 0x96: 0x0152, 0x97: 0x0160,
	0x98: 0x0178, 0x99: 0x017D, 0x9A: 0x0131, 0x9B: 0x0142,
	0x9C: 0x0153, 0x9D: 0x0161, 0x9E: 0x017E, 0x9F: noRune,
	0xA0: 0x20AC, 0xAD: noRune,
}

var pdfDocReverse = func() map[rune]byte {
	m := make(map[rune]byte, len(pdfDocHigh))
	for b, r := range pdfDocHigh {
		if r != noRune {
			m[r] = b
		}
	}
	return m
}()

func decodePDFDocByte(b byte) rune {
	if r, ok := pdfDocHigh[b]; ok {
		return r
	}
	return rune(b)
}

// IsUnicode reports whether b starts with a UTF-16BE or UTF-8 byte order mark.
func IsUnicode(b []byte) bool {
	return bytes.HasPrefix(b, bomUTF16BE) || bytes.HasPrefix(b, bomUTF8)
}

// Decode converts a text string to UTF-8.
func Decode(b []byte) (string, error) {
	switch {
	case bytes.HasPrefix(b, bomUTF16BE):
		out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
		if err != nil {
			return "", err
		}
		return string(out), nil
	case bytes.HasPrefix(b, bomUTF8):
		out, err := unicode.UTF8BOM.NewDecoder().Bytes(b)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = decodePDFDocByte(c)
	}
	return string(runes), nil
}

// EncodePDFDoc converts s to PDFDocEncoding. ok is false when s holds a
// character PDFDocEncoding cannot represent.
func EncodePDFDoc(s string) (out []byte, ok bool) {
	out = make([]byte, 0, len(s))
	for _, r := range s {
		if b, found := pdfDocReverse[r]; found {
			out = append(out, b)
			continue
		}
		if r < 0x100 {
			if _, remapped := pdfDocHigh[byte(r)]; !remapped {
				out = append(out, byte(r))
				continue
			}
		}
		return nil, false
	}
	return out, true
}

// Encode converts s to a text string: PDFDocEncoding when possible,
// otherwise UTF-16BE with a byte order mark.
func Encode(s string) ([]byte, error) {
	if out, ok := EncodePDFDoc(s); ok {
		return out, nil
	}
	return EncodeUTF16(s)
}

// EncodeUTF16 converts s to UTF-16BE prefixed with a byte order mark.
func EncodeUTF16(s string) ([]byte, error) {
	return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(s))
}
