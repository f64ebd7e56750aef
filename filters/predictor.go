package filters

import (
	"fmt"
)

// Predictor reverses (Decode) or applies (Encode) a row prediction scheme.
// Predictors run after Flate or LZW decompression and before compression.
type Predictor interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// NewPredictor returns the predictor selected by the Predictor entry of
// params. Predictor 1 or a missing entry yields the identity.
func NewPredictor(params Params) (Predictor, error) {
	predictor := getIntParam(params, "Predictor", 1)
	layout := rowLayout{
		colors:  getIntParam(params, "Colors", 1),
		bpc:     getIntParam(params, "BitsPerComponent", 8),
		columns: getIntParam(params, "Columns", 1),
	}

	switch {
	case predictor == 1:
		return identityPredictor{}, nil
	case predictor == 2:
		if err := layout.validate(); err != nil {
			return nil, err
		}
		return tiffPredictor{layout}, nil
	case predictor >= 10 && predictor <= 15:
		if err := layout.validate(); err != nil {
			return nil, err
		}
		return pngPredictor{rowLayout: layout, predictor: predictor}, nil
	}
	return nil, fmt.Errorf("unsupported predictor: %d", predictor)
}

// rowLayout describes the sample geometry shared by TIFF and PNG prediction.
type rowLayout struct {
	colors  int
	bpc     int
	columns int
}

func (l rowLayout) validate() error {
	switch l.bpc {
	case 1, 2, 4, 8, 16:
	default:
		return fmt.Errorf("unsupported BitsPerComponent: %d", l.bpc)
	}
	if l.colors < 1 || l.columns < 1 {
		return fmt.Errorf("invalid predictor geometry: Colors %d, Columns %d", l.colors, l.columns)
	}
	return nil
}

func (l rowLayout) bytesPerPixel() int {
	return (l.colors*l.bpc + 7) / 8
}

func (l rowLayout) bytesPerRow() int {
	return (l.colors*l.bpc*l.columns + 7) / 8
}

type identityPredictor struct{}

func (identityPredictor) Encode(data []byte) ([]byte, error) { return data, nil }
func (identityPredictor) Decode(data []byte) ([]byte, error) { return data, nil }

// tiffPredictor implements TIFF Predictor 2: each sample is stored as the
// difference from the same component of the pixel to its left.
type tiffPredictor struct {
	rowLayout
}

func (p tiffPredictor) Decode(data []byte) ([]byte, error) {
	return p.apply(data, true), nil
}

func (p tiffPredictor) Encode(data []byte) ([]byte, error) {
	return p.apply(data, false), nil
}

// apply runs the horizontal differencing over every complete row. Trailing
// bytes that do not fill a row are copied unchanged.
func (p tiffPredictor) apply(data []byte, decode bool) []byte {
	out := make([]byte, len(data))
	copy(out, data)

	rowLen := p.bytesPerRow()
	samples := p.colors * p.columns
	mask := uint32(1)<<uint(p.bpc) - 1

	for start := 0; start+rowLen <= len(out); start += rowLen {
		row := out[start : start+rowLen]
		if decode {
			for s := p.colors; s < samples; s++ {
				v := getSample(row, s, p.bpc) + getSample(row, s-p.colors, p.bpc)
				setSample(row, s, p.bpc, v&mask)
			}
			continue
		}
		// Right to left so the left neighbour still holds its original value.
		for s := samples - 1; s >= p.colors; s-- {
			v := getSample(row, s, p.bpc) - getSample(row, s-p.colors, p.bpc)
			setSample(row, s, p.bpc, v&mask)
		}
	}
	return out
}

func getSample(row []byte, idx, bpc int) uint32 {
	switch bpc {
	case 8:
		return uint32(row[idx])
	case 16:
		return uint32(row[2*idx])<<8 | uint32(row[2*idx+1])
	}
	bit := idx * bpc
	shift := 8 - bpc - bit%8
	return uint32(row[bit/8]>>uint(shift)) & (1<<uint(bpc) - 1)
}

func setSample(row []byte, idx, bpc int, v uint32) {
	switch bpc {
	case 8:
		row[idx] = byte(v)
		return
	case 16:
		row[2*idx] = byte(v >> 8)
		row[2*idx+1] = byte(v)
		return
	}
	bit := idx * bpc
	shift := uint(8 - bpc - bit%8)
	mask := byte(1<<uint(bpc)-1) << shift
	row[bit/8] = row[bit/8]&^mask | byte(v)<<shift&mask
}

// PNG filter types stored in the tag byte of each row.
const (
	pngNone    = 0
	pngSub     = 1
	pngUp      = 2
	pngAverage = 3
	pngPaeth   = 4
)

// pngPredictor implements the PNG predictors 10-15. Each encoded row is
// prefixed by a tag byte naming the filter type used for that row.
type pngPredictor struct {
	rowLayout
	predictor int
}

// Decode reconstructs rows against the previously reconstructed row. A short
// final row is decoded as far as it goes.
func (p pngPredictor) Decode(data []byte) ([]byte, error) {
	bpp := p.bytesPerPixel()
	rowLen := p.bytesPerRow()
	stride := rowLen + 1

	out := make([]byte, 0, len(data)/stride*rowLen)
	prev := make([]byte, rowLen)
	cur := make([]byte, rowLen)

	for off, row := 0, 0; off < len(data); off, row = off+stride, row+1 {
		tag := data[off]
		end := off + stride
		if end > len(data) {
			end = len(data)
		}
		raw := data[off+1 : end]

		for i, b := range raw {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]

			switch tag {
			case pngNone:
				cur[i] = b
			case pngSub:
				cur[i] = b + left
			case pngUp:
				cur[i] = b + up
			case pngAverage:
				cur[i] = b + byte((int(left)+int(up))/2)
			case pngPaeth:
				cur[i] = b + paethPredictor(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG predictor %d in row %d", tag, row)
			}
		}
		out = append(out, cur[:len(raw)]...)
		prev, cur = cur, prev
	}
	return out, nil
}

// Encode filters each row with the type selected by the predictor number.
// Predictor 15 picks, per row, the type with the smallest sum of absolute
// signed residuals.
func (p pngPredictor) Encode(data []byte) ([]byte, error) {
	bpp := p.bytesPerPixel()
	rowLen := p.bytesPerRow()
	rows := (len(data) + rowLen - 1) / rowLen

	out := make([]byte, 0, len(data)+rows)
	prev := make([]byte, rowLen)

	for start := 0; start < len(data); start += rowLen {
		end := start + rowLen
		if end > len(data) {
			end = len(data)
		}
		row := data[start:end]

		var tag byte
		var filtered []byte
		if p.predictor == 15 {
			best := -1
			for t := byte(pngNone); t <= pngPaeth; t++ {
				candidate := filterPNGRow(t, row, prev, bpp)
				if sum := residualSum(candidate); best < 0 || sum < best {
					best, tag, filtered = sum, t, candidate
				}
			}
		} else {
			tag = byte(p.predictor - 10)
			filtered = filterPNGRow(tag, row, prev, bpp)
		}

		out = append(out, tag)
		out = append(out, filtered...)
		copy(prev, row)
	}
	return out, nil
}

func filterPNGRow(tag byte, row, prev []byte, bpp int) []byte {
	out := make([]byte, len(row))
	for i, b := range row {
		var left, upLeft byte
		if i >= bpp {
			left = row[i-bpp]
			upLeft = prev[i-bpp]
		}
		up := prev[i]

		switch tag {
		case pngNone:
			out[i] = b
		case pngSub:
			out[i] = b - left
		case pngUp:
			out[i] = b - up
		case pngAverage:
			out[i] = b - byte((int(left)+int(up))/2)
		case pngPaeth:
			out[i] = b - paethPredictor(left, up, upLeft)
		}
	}
	return out
}

func residualSum(row []byte) int {
	sum := 0
	for _, b := range row {
		sum += abs(int(int8(b)))
	}
	return sum
}

// paethPredictor implements the Paeth predictor algorithm from the PNG specification.
// It selects the neighbor (left, above, or upper-left) closest to a linear prediction.
func paethPredictor(a, b, c byte) byte {
	// a = left, b = above, c = upper left
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

// abs returns the absolute value of an integer.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
