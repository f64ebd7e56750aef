package core

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tsawler/pdfcore/filters"
)

// Stream represents a PDF stream object: a dictionary plus a raw payload.
// The payload is kept exactly as stored in the file, still filtered and,
// when Encrypted reports True, still encrypted.
type Stream struct {
	Dictionary
	data      []byte
	encrypted Tristate
}

// NewStream returns a freestanding stream holding raw payload bytes, with
// Length set accordingly.
func NewStream(data []byte) *Stream {
	s := &Stream{
		Dictionary: Dictionary{values: make(map[string]Object)},
		data:       append([]byte(nil), data...),
	}
	s.self = s
	s.Set("Length", NewInt(len(s.data)))
	return s
}

func (s *Stream) Kind() Kind { return KindStream }

// Dict returns the stream dictionary.
func (s *Stream) Dict() *Dictionary { return &s.Dictionary }

// Data returns the raw payload.
func (s *Stream) Data() []byte { return s.data }

// SetData replaces the raw payload and updates Length. The payload is taken
// as plaintext.
func (s *Stream) SetData(data []byte) {
	if w, ok := promoted(s); ok {
		w.(*Stream).SetData(data)
		return
	}
	s.data = append([]byte(nil), data...)
	s.set("Length", NewInt(len(s.data)))
	s.encrypted = s.plainState()
}

// IsXRef reports whether the stream is a cross-reference stream. Those are
// never encrypted.
func (s *Stream) IsXRef() bool {
	typ, _ := streamType.Get(&s.Dictionary)
	return typ == "XRef"
}

func (s *Stream) plainState() Tristate {
	if s.update == nil {
		return Unknown
	}
	return False
}

func (s *Stream) Encrypted() Tristate { return s.encrypted }

func (s *Stream) setEncrypted(v Tristate) { s.encrypted = v }

// Encrypt replaces a plaintext payload with ciphertext.
func (s *Stream) Encrypt(ctx context.Context) error {
	if s.encrypted == True || s.IsXRef() {
		return nil
	}
	handler, ref, err := encryptionTarget(s)
	if err != nil || handler == nil {
		return err
	}
	out, err := handler.Encrypt(ctx, s.data, ref)
	if err != nil {
		return fmt.Errorf("encrypt stream %s: %w", ref, err)
	}
	s.data = out
	s.set("Length", NewInt(len(out)))
	s.encrypted = True
	return nil
}

// Decrypt replaces an encrypted payload with plaintext. The cached view is
// kept: the file bytes still hold the ciphertext.
func (s *Stream) Decrypt(ctx context.Context) error {
	if s.encrypted != True {
		return nil
	}
	handler, ref, err := encryptionTarget(s)
	if err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("pdf: encrypted stream without an encryption handler")
	}
	out, err := handler.Decrypt(ctx, s.data, ref)
	if err != nil {
		return fmt.Errorf("decrypt stream %s: %w", ref, err)
	}
	s.data = out
	s.encrypted = False
	return nil
}

// Decode decrypts the payload if needed and then runs the filter chain.
func (s *Stream) Decode(ctx context.Context) ([]byte, error) {
	if err := s.Decrypt(ctx); err != nil {
		return nil, err
	}
	return s.DecodeFilters()
}

// Encode runs the filter chain over data, stores the result and encrypts it
// when the stream is already an indirect object of an encrypted document.
// Streams that are not yet indirect are encrypted when written.
func (s *Stream) Encode(ctx context.Context, data []byte) error {
	if w, ok := promoted(s); ok {
		return w.(*Stream).Encode(ctx, data)
	}
	if err := s.EncodeFilters(data); err != nil {
		return err
	}
	if _, ok := FindIndirect(s, true); !ok {
		return nil
	}
	return s.Encrypt(ctx)
}

// DecodeFilters applies the Filter chain to the payload in declared order.
// The payload must not be encrypted.
func (s *Stream) DecodeFilters() ([]byte, error) {
	chain, err := s.filterChain()
	if err != nil {
		return nil, err
	}
	data := s.data
	for i, f := range chain {
		data, err = f.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %d (%s) failed: %w", i, f.Name(), err)
		}
	}
	return data, nil
}

// EncodeFilters applies the Filter chain to data in reverse order and
// stores the result as the plaintext payload.
func (s *Stream) EncodeFilters(data []byte) error {
	if w, ok := promoted(s); ok {
		return w.(*Stream).EncodeFilters(data)
	}
	chain, err := s.filterChain()
	if err != nil {
		return err
	}
	for i := len(chain) - 1; i >= 0; i-- {
		data, err = chain[i].Encode(data)
		if err != nil {
			return fmt.Errorf("filter %d (%s) failed: %w", i, chain[i].Name(), err)
		}
	}
	s.SetData(data)
	return nil
}

// SetFilter sets the Filter and DecodeParms entries. params may be nil.
func (s *Stream) SetFilter(names []string, params []*Dictionary) {
	if w, ok := promoted(s); ok {
		w.(*Stream).SetFilter(names, params)
		return
	}
	s.Delete("Filter")
	s.Delete("DecodeParms")
	switch len(names) {
	case 0:
		return
	case 1:
		s.Set("Filter", NewName(names[0]))
		if len(params) > 0 && params[0] != nil {
			s.Set("DecodeParms", params[0])
		}
		return
	}
	arr := NewArray()
	for _, n := range names {
		arr.Push(NewName(n))
	}
	s.Set("Filter", arr)
	if len(params) > 0 {
		parms := NewArray()
		for i := range names {
			if i < len(params) && params[i] != nil {
				parms.Push(params[i])
			} else {
				parms.Push(NewNull())
			}
		}
		s.Set("DecodeParms", parms)
	}
}

// filterChain resolves the Filter and DecodeParms entries, a single name or
// parallel arrays, into filters.
func (s *Stream) filterChain() ([]filters.Filter, error) {
	filterObj, ok, err := streamFilter.Lookup(&s.Dictionary)
	if err != nil || !ok {
		return nil, err
	}
	if filterObj, err = deref(filterObj); err != nil {
		return nil, err
	}
	paramsObj, _, err := streamDecodeParms.Lookup(&s.Dictionary)
	if err != nil {
		return nil, err
	}
	if paramsObj, err = deref(paramsObj); err != nil {
		return nil, err
	}

	var names []*Name
	var params []Object
	switch f := filterObj.(type) {
	case *Name:
		names = []*Name{f}
		params = []Object{paramsObj}
	case *Array:
		for i := range f.Len() {
			item, err := f.Resolve(i)
			if err != nil {
				return nil, err
			}
			name, ok := item.(*Name)
			if !ok {
				return nil, fmt.Errorf("filter %d is not a name: %s", i, item.Kind())
			}
			names = append(names, name)
			if parms, ok := paramsObj.(*Array); ok {
				p, err := parms.Resolve(i)
				if err != nil {
					return nil, err
				}
				params = append(params, p)
			} else {
				params = append(params, paramsObj)
			}
		}
	case *Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid Filter type: %s", filterObj.Kind())
	}

	chain := make([]filters.Filter, len(names))
	for i, name := range names {
		f, err := filters.New(name.value, dictToParams(params[i]))
		if err != nil {
			return nil, err
		}
		chain[i] = f
	}
	return chain, nil
}

// dictToParams converts a DecodeParms dictionary to filters.Params,
// translating PDF object types to Go primitive types. Anything other than a
// dictionary yields nil.
func dictToParams(obj Object) filters.Params {
	dict, ok := obj.(*Dictionary)
	if !ok {
		return nil
	}

	params := make(filters.Params, dict.Len())
	for k, v := range dict.All() {
		if ref, ok := v.(*Reference); ok {
			if resolved, err := ref.Value(); err == nil {
				v = resolved
			}
		}
		switch o := v.(type) {
		case *Number:
			if o.IsInteger() {
				params[k] = o.Int()
			} else {
				params[k] = o.value
			}
		case *Boolean:
			params[k] = o.value
		case *Name:
			params[k] = o.value
		case *LiteralString:
			params[k] = string(o.value)
		case *HexString:
			params[k] = string(o.value)
		default:
			params[k] = v
		}
	}
	return params
}

func (s *Stream) writePDF(sink *Sink) error {
	if _, isRef := s.values["Length"].(*Reference); !isRef {
		if n, ok := s.values["Length"].(*Number); !ok || n.Int() != len(s.data) {
			s.set("Length", NewInt(len(s.data)))
		}
	}
	if err := s.writeEntries(sink); err != nil {
		return err
	}
	sink.WriteString("\nstream\n")
	sink.Write(s.data)
	_, err := sink.WriteString("\nendstream")
	return err
}

func (s *Stream) equal(other Object) bool {
	o := other.(*Stream)
	return bytes.Equal(s.data, o.data) && s.entriesEqual(&o.Dictionary)
}

func (s *Stream) copy() Object {
	c := &Stream{
		Dictionary: Dictionary{values: make(map[string]Object)},
		data:       append([]byte(nil), s.data...),
		encrypted:  s.encrypted,
	}
	c.objectBase = copyBase(&s.objectBase)
	c.self = c
	s.copyEntries(&c.Dictionary, c)
	return c
}
