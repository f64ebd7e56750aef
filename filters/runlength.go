package filters

import (
	"github.com/tsawler/pdfcore/pdferr"
)

const runLengthEOD = 128

type runLengthFilter struct{}

// NewRunLengthFilter returns the RunLengthDecode filter. It takes no parameters.
func NewRunLengthFilter(Params) Filter { return runLengthFilter{} }

func (runLengthFilter) Name() string { return "RunLengthDecode" }

// Decode expands runs. A length byte L below 128 copies the next L+1 bytes,
// above 128 repeats the next byte 257-L times, and 128 ends the data. Bytes
// after the end marker are an error; a missing end marker is tolerated.
func (runLengthFilter) Decode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*2)
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == runLengthEOD:
			if i < len(data) {
				return nil, pdferr.NewParsingError(i, "RunLengthDecode: %d bytes after end of data", len(data)-i)
			}
			return out, nil
		case n < runLengthEOD:
			if i+n+1 > len(data) {
				return nil, pdferr.NewParsingError(i, "RunLengthDecode: literal run of %d bytes is truncated", n+1)
			}
			out = append(out, data[i:i+n+1]...)
			i += n + 1
		default:
			if i >= len(data) {
				return nil, pdferr.NewParsingError(i, "RunLengthDecode: repeat run has no byte")
			}
			for j := 0; j < 257-n; j++ {
				out = append(out, data[i])
			}
			i++
		}
	}
	return out, nil
}

// Encode emits repeat runs for two or more equal bytes and literal runs
// otherwise, each at most 128 bytes long, followed by the end marker.
func (runLengthFilter) Encode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)+len(data)/128+2)
	for i := 0; i < len(data); {
		run := 1
		for i+run < len(data) && run < 128 && data[i+run] == data[i] {
			run++
		}
		if run > 1 {
			out = append(out, byte(257-run), data[i])
			i += run
			continue
		}

		start := i
		for i < len(data) && i-start < 128 {
			if i+1 < len(data) && data[i+1] == data[i] {
				break
			}
			i++
		}
		out = append(out, byte(i-start-1))
		out = append(out, data[start:i]...)
	}
	return append(out, runLengthEOD), nil
}
