package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestKindString tests the string representation of object kinds
func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNull, "Null"},
		{KindBoolean, "Boolean"},
		{KindNumber, "Number"},
		{KindName, "Name"},
		{KindLiteralString, "LiteralString"},
		{KindHexString, "HexString"},
		{KindArray, "Array"},
		{KindDictionary, "Dictionary"},
		{KindStream, "Stream"},
		{KindReference, "Reference"},
		{KindIndirectObject, "IndirectObject"},
		{KindComment, "Comment"},
		{Kind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

// TestFormatNumber tests numeric serialization
func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{34.5678, "34.568"},
		{123, "123"},
		{0.12345, "0.123"},
		{-0.0, "0"},
		{-0.0001, "0"},
		{-1.5, "-1.5"},
		{1.10, "1.1"},
		{1000000, "1000000"},
		{-42, "-42"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestSerializeFresh tests serialization of objects built in memory
func TestSerializeFresh(t *testing.T) {
	kids := NewArray(NewReference(Ref{Num: 3}), NewReference(Ref{Num: 4}))
	page := NewDictionary()
	page.Set("Type", NewName("Page"))
	page.Set("Count", NewInt(2))
	page.Set("Kids", kids)

	tests := []struct {
		name string
		obj  Object
		want string
	}{
		{"null", NewNull(), "null"},
		{"true", NewBoolean(true), "true"},
		{"number", NewNumber(34.5678), "34.568"},
		{"name", NewName("Lime Green"), "/Lime#20Green"},
		{"name delimiters", NewName("a/b#c(d)"), "/a#2Fb#23c#28d#29"},
		{"name high byte", NewName("caf\xe9"), "/caf#E9"},
		{"literal", NewLiteralString([]byte("a(b)\\c\n\r\t\b\f")), `(a\(b\)\\c\n\r\t\b\f)`},
		{"hex", NewHexString([]byte{0x90, 0x1F, 0xA0}), "<901FA0>"},
		{"reference", NewReference(Ref{Num: 12, Gen: 1}), "12 1 R"},
		{"dictionary", page, "<</Type /Page /Count 2 /Kids [3 0 R 4 0 R]>>"},
		{"empty dictionary", NewDictionary(), "<<>>"},
		{"empty array", NewArray(), "[]"},
		{"stream", NewStream([]byte("abc")), "<</Length 3>>\nstream\nabc\nendstream"},
		{"indirect", NewIndirectObject(Ref{Num: 7}, NewInt(5)), "7 0 obj\n5\nendobj"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ToPDF(tt.obj)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(out) != tt.want {
				t.Errorf("got %q, want %q", out, tt.want)
			}
			if tt.obj.String() != tt.want {
				t.Errorf("String() = %q", tt.obj.String())
			}
		})
	}
}

// TestScalarRoundTrip tests that parsing then serializing reproduces the
// input and that fresh serializations parse back to equal values
func TestScalarRoundTrip(t *testing.T) {
	inputs := []string{
		"true",
		"false",
		"null",
		"1.50",
		"-12",
		"/Lime#20Green",
		"(Hello \\(World\\)\\n)",
		"(\\101\\102)",
		"<901FA>",
		"<< /Type   /Page\n/Kids [ 1 0 R ] >>",
		"[1 [2 3] << /A (x) >>]",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			obj := mustParse(t, input, nil)
			out, err := ToPDF(obj)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(out) != input {
				t.Errorf("view round trip: got %q", out)
			}

			fresh, err := ToPDF(Copy(obj))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			again := mustParse(t, string(fresh), nil)
			again.base().view = nil
			rewritten, err := ToPDF(again)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			reparsed := mustParse(t, string(rewritten), nil)
			if !Equal(obj, reparsed) {
				t.Errorf("reparsed %q is not equal to %q", rewritten, input)
			}
		})
	}
}

// TestViewInvalidation tests that modifications drop cached bytes up the
// container chain only
func TestViewInvalidation(t *testing.T) {
	d, err := FromPDFString[*Dictionary]("<< /Type   /Page\n/Kids [ 1 0 R ] >>", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.Set("Count", NewInt(1))
	if got := d.String(); got != "<</Type /Page /Kids [ 1 0 R ] /Count 1>>" {
		t.Errorf("after Set: %q", got)
	}

	kids := d.Get("Kids").(*Array)
	kids.Push(NewReference(Ref{Num: 2}))
	if kids.View() != nil || d.View() != nil {
		t.Error("push should drop the views of the array and its dictionary")
	}
	if got := d.String(); got != "<</Type /Page /Kids [1 0 R 2 0 R] /Count 1>>" {
		t.Errorf("after Push: %q", got)
	}

	n, err := FromPDFString[*Number]("1.50", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n.SetValue(1.5)
	if n.String() != "1.50" {
		t.Errorf("unchanged value should keep its view, got %q", n.String())
	}
	n.SetValue(2)
	if n.String() != "2" {
		t.Errorf("got %q", n.String())
	}
}

// TestEqual tests structural equality of containers
func TestEqual(t *testing.T) {
	parse := func(s string) Object { return mustParse(t, s, nil) }

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"dict key order", "<</A 1 /B [1 2]>>", "<</B [1 2] /A 1>>", true},
		{"dict value differs", "<</A 1 /B [1 2]>>", "<</A 1 /B [1 3]>>", false},
		{"dict size differs", "<</A 1 /B 2>>", "<</A 1>>", false},
		{"dict key differs", "<</A 1 /B 2>>", "<</A 1 /C 2>>", false},
		{"array equal", "[1 (x) /N]", "[1.0 (x) /N]", true},
		{"array order", "[1 2]", "[2 1]", false},
		{"array length", "[1 2]", "[1 2 3]", false},
		{"string kinds", "(AB)", "<4142>", false},
		{"hex spacing", "<41 42>", "<4142>", true},
		{"references", "1 0 R", "1 0 R", true},
		{"reference gen", "1 0 R", "1 1 R", false},
		{"streams", "<</Length 1>>stream\nx\nendstream", "<</Length 1>>\nstream\nx\nendstream", true},
		{"stream data", "<</Length 1>>stream\nx\nendstream", "<</Length 1>>stream\ny\nendstream", false},
		{"stream vs dict", "<</Length 1>>stream\nx\nendstream", "<</Length 1>>", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(parse(tt.a), parse(tt.b)); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}

	if !Equal(nil, nil) || Equal(NewNull(), nil) {
		t.Error("nil handling")
	}
}

// TestEqualIndirectIdentity tests that values of the same indirect object
// compare equal regardless of content
func TestEqualIndirectIdentity(t *testing.T) {
	a := NewIndirectObject(Ref{Num: 4}, NewInt(1))
	b := NewIndirectObject(Ref{Num: 4}, NewInt(2))
	if !Equal(a.Value(), b.Value()) {
		t.Error("values of the same indirect object should be equal")
	}
	c := NewIndirectObject(Ref{Num: 5}, NewInt(1))
	if !Equal(a.Value(), c.Value()) {
		t.Error("values with equal content should be equal")
	}
	if Equal(b.Value(), c.Value()) {
		t.Error("different objects with different content should differ")
	}
}

// TestCopy tests deep copies
func TestCopy(t *testing.T) {
	d, err := FromPDFString[*Dictionary]("<</A [1 2] /B <</C (x)>>>>", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	io := NewIndirectObject(Ref{Num: 1}, d)

	cp := Copy(d)
	if cp.IsIndirect() || cp.Parent() != nil || cp.Update() != nil {
		t.Error("copy should be freestanding")
	}
	if !Equal(cp, d) {
		t.Error("copy should equal the original")
	}
	if cp.String() != d.String() {
		t.Errorf("copy serializes as %q, original as %q", cp.String(), d.String())
	}

	cp.Get("A").(*Array).Push(NewInt(3))
	if d.Get("A").(*Array).Len() != 2 {
		t.Error("modifying the copy changed the original")
	}
	if Equal(cp, io.Value()) {
		t.Error("modified copy should differ")
	}
}

// TestContainerAttachment tests how values are attached to containers
func TestContainerAttachment(t *testing.T) {
	n := NewInt(1)
	first := NewArray(n)
	if n.Parent() != first {
		t.Fatal("array should own its element")
	}

	second := NewArray()
	second.Push(n)
	if second.Get(0) == Object(n) {
		t.Error("a value held elsewhere should be copied")
	}
	if n.Parent() != first {
		t.Error("original owner should be kept")
	}

	io := NewIndirectObject(Ref{Num: 9}, NewDictionary())
	d := NewDictionary()
	stored := d.Set("X", io.Value())
	ref, ok := stored.(*Reference)
	if !ok || ref.Ref != (Ref{Num: 9}) {
		t.Fatalf("indirect value should be stored as a reference, got %s", stored)
	}

	d.Set("Nil", nil)
	if d.Get("Nil").Kind() != KindNull {
		t.Error("nil should be stored as null")
	}

	if !d.Delete("X") || d.Delete("X") || d.Has("X") {
		t.Error("Delete semantics")
	}
	if ref.Parent() != nil {
		t.Error("deleted value should be released")
	}
}

// TestArrayOperations tests Splice, IndexOf and Includes
func TestArrayOperations(t *testing.T) {
	a := NewArray(NewInt(1), NewInt(2), NewInt(3), NewInt(4))
	removed := a.Splice(1, 2, NewInt(9))
	if len(removed) != 2 || !Equal(removed[0], NewInt(2)) || !Equal(removed[1], NewInt(3)) {
		t.Errorf("removed = %v", removed)
	}
	if a.String() != "[1 9 4]" {
		t.Errorf("after Splice: %s", a)
	}
	if a.IndexOf(NewInt(9)) != 1 || a.IndexOf(NewInt(7)) != -1 {
		t.Error("IndexOf")
	}
	if !a.Includes(NewInt(4)) || a.Includes(NewName("4")) {
		t.Error("Includes")
	}

	a.Splice(10, 5, NewInt(5))
	if a.String() != "[1 9 4 5]" {
		t.Errorf("splice past the end: %s", a)
	}
	a.Set(0, NewName("X"))
	if a.String() != "[/X 9 4 5]" {
		t.Errorf("after Set: %s", a)
	}
	if a.Get(-1) != nil || a.Get(4) != nil {
		t.Error("out of range Get should return nil")
	}

	var got []string
	for i, item := range a.All() {
		if i == 2 {
			break
		}
		got = append(got, item.String())
	}
	if diff := cmp.Diff([]string{"/X", "9"}, got); diff != "" {
		t.Errorf("All mismatch (-want +got):\n%s", diff)
	}
}

// TestTextStrings tests text decoding and encoding of string objects
func TestTextStrings(t *testing.T) {
	s := NewText("Grüße")
	if s.Bytes()[0] == 0xFE {
		t.Error("representable text should use PDFDocEncoding")
	}
	text, err := s.Text()
	if err != nil || text != "Grüße" {
		t.Errorf("Text() = %q, %v", text, err)
	}

	u := NewText("日本")
	if diff := cmp.Diff([]byte{0xFE, 0xFF, 0x65, 0xE5, 0x67, 0x2C}, u.Bytes()); diff != "" {
		t.Errorf("UTF-16 mismatch (-want +got):\n%s", diff)
	}

	h := NewHexString(nil)
	if err := h.SetText("日本"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Hex() != "FEFF65E5672C" {
		t.Errorf("Hex() = %q", h.Hex())
	}
	if err := h.SetHex("414"); err != nil || string(h.Bytes()) != "A@" {
		t.Errorf("SetHex padding: %q %v", h.Bytes(), err)
	}
}

// TestCreate tests attaching objects to an update
func TestCreate(t *testing.T) {
	doc := newMemDoc()
	s := &Stream{Dictionary: Dictionary{values: make(map[string]Object)}}
	s.self = s
	s = Create(doc.Current(), s)
	if s.Update() != doc.Current() {
		t.Error("stream should belong to the update")
	}
	if n, ok := s.Get("Length").(*Number); !ok || n.Int() != 0 {
		t.Errorf("Length = %v", s.Get("Length"))
	}

	d := Create(doc.Current(), NewDictionary())
	d.Set("A", NewArray(NewInt(1)))
	if d.Get("A").(*Array).Get(0).Update() != doc.Current() {
		t.Error("children should inherit the update")
	}
}
