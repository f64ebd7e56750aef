package filters

import (
	"bytes"
	"compress/lzw"
	"fmt"
	"io"

	tifflzw "golang.org/x/image/tiff/lzw"

	"github.com/tsawler/pdfcore/observability"
)

const (
	lzwClear    = 256
	lzwEOD      = 257
	lzwFirst    = 258
	lzwMaxWidth = 12
)

type lzwFilter struct {
	params Params
}

// NewLZWFilter returns the LZWDecode filter. The EarlyChange parameter
// (default 1) selects when the code width grows; predictor parameters are
// honoured as for FlateDecode.
func NewLZWFilter(params Params) Filter {
	return lzwFilter{params: params}
}

func (lzwFilter) Name() string { return "LZWDecode" }

func (f lzwFilter) earlyChange() int {
	if getIntParam(f.params, "EarlyChange", 1) == 0 {
		return 0
	}
	return 1
}

// Decode expands LZW codes. EarlyChange 1 is the TIFF variant of the code
// width schedule; EarlyChange 0 is the GIF one.
func (f lzwFilter) Decode(data []byte) ([]byte, error) {
	var r io.ReadCloser
	if f.earlyChange() == 1 {
		r = tifflzw.NewReader(bytes.NewReader(data), tifflzw.MSB, 8)
	} else {
		r = lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	}
	defer r.Close()

	decompressed, err := io.ReadAll(r)
	if err != nil {
		if len(decompressed) == 0 {
			return nil, fmt.Errorf("lzw decompression failed: %w", err)
		}
		logger().Warn("lzw stream truncated",
			observability.Int("recovered", len(decompressed)), observability.Error("cause", err))
	}

	predictor, err := NewPredictor(f.params)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	return predictor.Decode(decompressed)
}

func (f lzwFilter) Encode(data []byte) ([]byte, error) {
	predictor, err := NewPredictor(f.params)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	predicted, err := predictor.Encode(data)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	return lzwEncode(predicted, f.earlyChange()), nil
}

// lzwEncode compresses data with 8-bit literals, MSB-first packing and a
// leading clear code. With earlyChange set, the code width grows one entry
// before the table would overflow the current width.
func lzwEncode(data []byte, earlyChange int) []byte {
	var w bitWriter
	width := 9
	table := make(map[int]int)
	next := lzwFirst

	w.write(lzwClear, width)
	if len(data) == 0 {
		w.write(lzwEOD, width)
		return w.bytes()
	}

	prefix := int(data[0])
	for _, c := range data[1:] {
		key := prefix<<8 | int(c)
		if code, ok := table[key]; ok {
			prefix = code
			continue
		}
		w.write(prefix, width)
		table[key] = next
		if next == 1<<uint(width)-earlyChange && width < lzwMaxWidth {
			width++
		}
		next++
		prefix = int(c)

		if next >= 1<<lzwMaxWidth-2 {
			w.write(lzwClear, width)
			table = make(map[int]int)
			next = lzwFirst
			width = 9
		}
	}
	w.write(prefix, width)
	// The decoder adds one more entry on reading the last code.
	if next == 1<<uint(width)-earlyChange && width < lzwMaxWidth {
		width++
	}
	w.write(lzwEOD, width)
	return w.bytes()
}

// bitWriter packs variable-width codes most significant bit first.
type bitWriter struct {
	buf   []byte
	acc   uint32
	nbits uint
}

func (w *bitWriter) write(code, width int) {
	w.acc = w.acc<<uint(width) | uint32(code)
	w.nbits += uint(width)
	for w.nbits >= 8 {
		w.nbits -= 8
		w.buf = append(w.buf, byte(w.acc>>w.nbits))
	}
	w.acc &= 1<<w.nbits - 1
}

func (w *bitWriter) bytes() []byte {
	if w.nbits > 0 {
		return append(w.buf, byte(w.acc<<(8-w.nbits)))
	}
	return w.buf
}
