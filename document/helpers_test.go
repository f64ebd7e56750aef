package document

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/observability"
)

// buildPDF assembles a file with a classic cross-reference table. Object i
// of the list gets number i+1. trailer returns extra trailer entries for
// the table at the given offset.
func buildPDF(trailer func(xref int) string, objects ...string) []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	extra := ""
	if trailer != nil {
		extra = " " + trailer(xref)
	}
	fmt.Fprintf(&b, "trailer\n<</Size %d /Root 1 0 R%s>>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, extra, xref)
	return b.Bytes()
}

// samplePDF returns a three object file: catalog, page tree and page.
func samplePDF() []byte {
	return buildPDF(nil,
		"<</Type /Catalog /Pages 2 0 R>>",
		"<</Type /Pages /Kids [3 0 R] /Count 1>>",
		"<</Type /Page /Parent 2 0 R /MediaBox [0 0 612 792]>>",
	)
}

// xorHandler is a reversible test cipher keyed by object number.
type xorHandler struct{}

func (xorHandler) apply(data []byte, ref core.Ref) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ byte(0x5A+ref.Num)
	}
	return out
}

func (h xorHandler) Encrypt(_ context.Context, data []byte, ref core.Ref) ([]byte, error) {
	return h.apply(data, ref), nil
}

func (h xorHandler) Decrypt(_ context.Context, data []byte, ref core.Ref) ([]byte, error) {
	return h.apply(data, ref), nil
}

// recordingLogger collects warning messages.
type recordingLogger struct {
	observability.NopLogger
	warnings []string
}

func (l *recordingLogger) Warn(msg string, _ ...observability.Field) {
	l.warnings = append(l.warnings, msg)
}
