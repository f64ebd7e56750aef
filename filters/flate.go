package filters

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/tsawler/pdfcore/observability"
)

type flateFilter struct {
	params Params
}

// NewFlateFilter returns the FlateDecode filter. Predictor parameters in
// params are applied after inflating and before deflating.
func NewFlateFilter(params Params) Filter {
	return flateFilter{params: params}
}

func (flateFilter) Name() string { return "FlateDecode" }

// Decode inflates data. If nothing can be inflated the input is returned
// unchanged; a truncated stream yields the bytes recovered before the error.
func (f flateFilter) Decode(data []byte) ([]byte, error) {
	decompressed, err := zlibDecompress(data)
	if len(decompressed) == 0 {
		logger().Warn("flate stream not decodable, keeping raw bytes",
			observability.Int("size", len(data)), observability.Error("cause", err))
		return data, nil
	}
	if err != nil {
		logger().Warn("flate stream truncated",
			observability.Int("recovered", len(decompressed)), observability.Error("cause", err))
	}

	predictor, err := NewPredictor(f.params)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	decoded, err := predictor.Decode(decompressed)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	return decoded, nil
}

func (f flateFilter) Encode(data []byte) ([]byte, error) {
	predictor, err := NewPredictor(f.params)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	predicted, err := predictor.Encode(data)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(predicted); err != nil {
		return nil, fmt.Errorf("zlib compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib compression failed: %w", err)
	}
	return buf.Bytes(), nil
}

// zlibDecompress decompresses zlib-compressed data using the standard library.
// Streams without a valid zlib header are retried as raw deflate. On error the
// bytes produced so far are returned alongside it.
func zlibDecompress(data []byte) ([]byte, error) {
	var reader io.ReadCloser
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		reader = flate.NewReader(bytes.NewReader(data))
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return buf.Bytes(), fmt.Errorf("failed to decompress: %w", err)
	}
	return buf.Bytes(), nil
}
