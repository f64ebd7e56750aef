// Package filters provides the PDF stream filter pipeline.
//
// Every filter implements [Filter], a synchronous byte transform with an
// Encode and a Decode direction. Filters are looked up by their PDF name
// through a process-wide registry:
//
//	f, err := filters.New("FlateDecode", filters.Params{"Predictor": 12, "Columns": 5})
//	decoded, err := f.Decode(data)
//
// # Supported Filters
//
// ASCIIHexDecode (AHx) and ASCII85Decode (A85) handle the text encodings.
// RunLengthDecode (RL) implements the byte-oriented run-length scheme.
// FlateDecode (Fl) and LZWDecode (LZW) handle the dictionary compressors and
// accept predictor parameters:
//   - 1: No prediction (default)
//   - 2: TIFF Predictor 2
//   - 10-15: PNG predictors (None, Sub, Up, Average, Paeth, Optimum)
//
// DCTDecode, JPXDecode, JBIG2Decode, CCITTFaxDecode and Crypt are registered
// as pass-through filters: their bytes are interpreted by image and security
// handlers. [EnableCCITTDecoding] replaces the CCITTFaxDecode pass-through
// with a real decoder.
//
// # Decode Parameters
//
// Filters accept a Params map for additional parameters:
//
//	params := filters.Params{
//	    "Predictor": 12,
//	    "Columns":   100,
//	    "Colors":    3,
//	}
//
// # Extending
//
// [Register] installs a constructor under a name and its abbreviations.
// Registering an existing name replaces it.
package filters
