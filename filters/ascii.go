package filters

import (
	"bytes"
	"fmt"
)

type asciiHexFilter struct{}

// NewASCIIHexFilter returns the ASCIIHexDecode filter. It takes no parameters.
func NewASCIIHexFilter(Params) Filter { return asciiHexFilter{} }

func (asciiHexFilter) Name() string { return "ASCIIHexDecode" }

// Decode decodes ASCII hexadecimal encoded data.
// Each pair of hexadecimal digits (0-9, A-F, a-f) represents one byte.
// Whitespace is ignored, and > marks end of data.
func (asciiHexFilter) Decode(data []byte) ([]byte, error) {
	var result bytes.Buffer

	i := 0
	for i < len(data) {
		// Skip whitespace
		if isWhitespace(data[i]) {
			i++
			continue
		}

		// Check for EOD marker
		if data[i] == '>' {
			break
		}

		// Get first hex digit
		b1, err := hexDigitToByte(data[i])
		if err != nil {
			return nil, err
		}
		i++

		// Skip whitespace before second digit
		for i < len(data) && isWhitespace(data[i]) {
			i++
		}

		if i >= len(data) || data[i] == '>' {
			// Odd number of digits - assume trailing 0
			result.WriteByte(b1 << 4)
			break
		}

		b2, err := hexDigitToByte(data[i])
		if err != nil {
			return nil, err
		}
		i++

		result.WriteByte((b1 << 4) | b2)
	}

	return result.Bytes(), nil
}

const hexDigits = "0123456789ABCDEF"

// Encode writes two upper-case hex digits per byte followed by the > marker.
func (asciiHexFilter) Encode(data []byte) ([]byte, error) {
	out := make([]byte, 0, 2*len(data)+1)
	for _, b := range data {
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0F])
	}
	return append(out, '>'), nil
}

type ascii85Filter struct{}

// NewASCII85Filter returns the ASCII85Decode filter. It takes no parameters.
func NewASCII85Filter(Params) Filter { return ascii85Filter{} }

func (ascii85Filter) Name() string { return "ASCII85Decode" }

// Decode decodes ASCII base-85 (Ascii85) encoded data.
// Each group of 5 ASCII characters (! to u, values 33-117) represents 4 bytes.
// The special character 'z' represents four zero bytes. The sequence ~> marks
// end of data; an optional leading <~ is skipped.
func (ascii85Filter) Decode(data []byte) ([]byte, error) {
	var result bytes.Buffer

	// Skip leading whitespace
	i := 0
	for i < len(data) && isWhitespace(data[i]) {
		i++
	}
	if bytes.HasPrefix(data[i:], []byte("<~")) {
		i += 2
	}

	digits := make([]byte, 0, 5)
	for ; i < len(data); i++ {
		c := data[i]
		if isWhitespace(c) {
			continue
		}

		// Check for EOD marker ~>
		if c == '~' {
			if i+1 < len(data) && data[i+1] != '>' {
				return nil, fmt.Errorf("invalid ASCII85 end marker at offset %d", i)
			}
			break
		}

		// Special case: 'z' represents 0x00000000
		if c == 'z' {
			if len(digits) != 0 {
				return nil, fmt.Errorf("ASCII85 'z' inside a group at offset %d", i)
			}
			result.Write([]byte{0, 0, 0, 0})
			continue
		}

		if c < '!' || c > 'u' {
			return nil, fmt.Errorf("invalid ASCII85 character: %c", c)
		}

		digits = append(digits, c-'!')
		if len(digits) == 5 {
			value, err := base85Value(digits)
			if err != nil {
				return nil, err
			}
			result.Write([]byte{byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value)})
			digits = digits[:0]
		}
	}

	if len(digits) == 1 {
		return nil, fmt.Errorf("ASCII85 final group has a single character")
	}
	if len(digits) > 1 {
		// Pad incomplete group with 'u' (84 = highest ASCII85 value)
		numBytes := len(digits) - 1
		for len(digits) < 5 {
			digits = append(digits, 84)
		}
		value, err := base85Value(digits)
		if err != nil {
			return nil, err
		}
		for j := 0; j < numBytes; j++ {
			result.WriteByte(byte(value >> (24 - j*8)))
		}
	}

	return result.Bytes(), nil
}

// Encode writes base-85 groups, abbreviating all-zero groups as 'z', and
// terminates the output with ~>.
func (ascii85Filter) Encode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*5/4+7)
	for len(data) >= 4 {
		value := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
		if value == 0 {
			out = append(out, 'z')
		} else {
			out = appendBase85(out, value, 5)
		}
		data = data[4:]
	}
	if n := len(data); n > 0 {
		var group [4]byte
		copy(group[:], data)
		value := uint32(group[0])<<24 | uint32(group[1])<<16 | uint32(group[2])<<8 | uint32(group[3])
		out = appendBase85(out, value, n+1)
	}
	return append(out, '~', '>'), nil
}

func appendBase85(out []byte, value uint32, n int) []byte {
	var group [5]byte
	for j := 4; j >= 0; j-- {
		group[j] = byte(value%85) + '!'
		value /= 85
	}
	return append(out, group[:n]...)
}

func base85Value(digits []byte) (uint32, error) {
	var value uint64
	for _, d := range digits {
		value = value*85 + uint64(d)
	}
	if value > 0xFFFFFFFF {
		return 0, fmt.Errorf("ASCII85 group overflows 32 bits")
	}
	return uint32(value), nil
}

// hexDigitToByte converts a hexadecimal character to its numeric value (0-15).
func hexDigitToByte(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit: %c", c)
	}
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
