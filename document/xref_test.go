package document

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/pdferr"
)

// TestFindStartXRef tests the backward scan for the startxref marker
func TestFindStartXRef(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    int64
		wantErr bool
	}{
		{"simple", "%PDF-1.4\nstartxref\n123\n%%EOF\n", 123, false},
		{"last wins", "startxref\n1\n%%EOF\nstartxref\n2\n%%EOF\n", 2, false},
		{"no trailing newline", "startxref 77\n%%EOF", 77, false},
		{"missing", "%PDF-1.4\n%%EOF\n", 0, true},
		{"no offset", "startxref\n%%EOF\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findStartXRef([]byte(tt.data))
			if tt.wantErr {
				if !errors.Is(err, ErrNoStartXRef) {
					t.Fatalf("expected ErrNoStartXRef, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

// TestEntryType tests entry type names
func TestEntryType(t *testing.T) {
	tests := map[EntryType]string{
		EntryFree:       "free",
		EntryInUse:      "in-use",
		EntryCompressed: "compressed",
		EntryType(9):    "unknown",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("%d: got %q, want %q", int(typ), got, want)
		}
	}
}

// TestReadTableEntry tests classic table rows
func TestReadTableEntry(t *testing.T) {
	c := core.NewCursor([]byte("0000000017 00002 n \r\n0000000000 65535 f\n0000000017 00000 x"))

	e, err := readTableEntry(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e != (Entry{Type: EntryInUse, Offset: 17, Generation: 2}) {
		t.Errorf("got %+v", e)
	}

	e, err = readTableEntry(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e != (Entry{Type: EntryFree, Generation: 65535}) {
		t.Errorf("got %+v", e)
	}

	_, err = readTableEntry(c)
	var bce *pdferr.BadCharError
	if !errors.As(err, &bce) || bce.Char != 'x' {
		t.Errorf("expected BadCharError on 'x', got %v", err)
	}
}

// TestDecodeXRefRows tests splitting cross-reference stream data
func TestDecodeXRefRows(t *testing.T) {
	tests := []struct {
		name    string
		dict    string
		data    []byte
		want    map[int]Entry
		wantErr bool
	}{
		{
			name: "default index",
			dict: "<</W [1 2 1] /Size 3>>",
			data: []byte{0, 0, 0, 255, 1, 0, 16, 0, 2, 0, 5, 3},
			want: map[int]Entry{
				0: {Type: EntryFree, Generation: 255},
				1: {Type: EntryInUse, Offset: 16},
				2: {Type: EntryCompressed, Offset: 5, Generation: 3},
			},
		},
		{
			name: "implicit type",
			dict: "<</W [0 2 0] /Index [7 1]>>",
			data: []byte{1, 0},
			want: map[int]Entry{7: {Type: EntryInUse, Offset: 256}},
		},
		{
			name: "several subsections",
			dict: "<</W [1 1 1] /Index [2 1 9 1]>>",
			data: []byte{1, 10, 0, 1, 20, 1},
			want: map[int]Entry{
				2: {Type: EntryInUse, Offset: 10},
				9: {Type: EntryInUse, Offset: 20, Generation: 1},
			},
		},
		{
			name: "unknown type skipped",
			dict: "<</W [1 1 1] /Size 2>>",
			data: []byte{3, 0, 0, 1, 4, 0},
			want: map[int]Entry{1: {Type: EntryInUse, Offset: 4}},
		},
		{name: "short W", dict: "<</W [1 2] /Size 1>>", data: []byte{1, 0, 0}, wantErr: true},
		{name: "empty rows", dict: "<</W [0 0 0] /Size 1>>", wantErr: true},
		{name: "truncated", dict: "<</W [1 2 1] /Size 2>>", data: []byte{1, 0, 0, 0}, wantErr: true},
		{name: "odd index", dict: "<</W [1 1 1] /Index [1]>>", wantErr: true},
		{name: "missing W", dict: "<</Size 1>>", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dict, err := core.FromPDFString[*core.Dictionary](tt.dict, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, err := decodeXRefRows(dict, tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("entries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestByteWidth tests field width selection for written streams
func TestByteWidth(t *testing.T) {
	tests := []struct {
		v    int64
		want int
	}{
		{0, 1}, {255, 1}, {256, 2}, {65535, 2}, {65536, 3},
	}
	for _, tt := range tests {
		if got := byteWidth(tt.v); got != tt.want {
			t.Errorf("byteWidth(%d) = %d, want %d", tt.v, got, tt.want)
		}
		if got := readBigEndian(appendBigEndian(nil, tt.v, tt.want)); got != tt.v {
			t.Errorf("round trip of %d gave %d", tt.v, got)
		}
	}
}
