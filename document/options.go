package document

import (
	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/observability"
)

// Option configures a Document
type Option func(*Document)

// WithLogger sets the logger for load and save diagnostics (default: none)
func WithLogger(l observability.Logger) Option {
	return func(d *Document) {
		d.logger = l
	}
}

// WithEncryption installs the handler that encrypts and decrypts string
// and stream content.
func WithEncryption(h core.EncryptionHandler) Option {
	return func(d *Document) {
		d.handler = h
	}
}

// WithXRefStreams selects cross-reference streams, and with them object
// streams, for written updates. Without it a loaded document keeps the
// format of its newest section and a new document writes classic tables.
func WithXRefStreams(on bool) Option {
	return func(d *Document) {
		d.xrefStreams = &on
	}
}

// WithVersion sets the header version of a new document (default: 1.7).
// Loaded documents keep their header.
func WithVersion(v Version) Option {
	return func(d *Document) {
		d.version = v
	}
}
