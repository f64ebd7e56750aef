package filters

import (
	"sort"
	"sync"

	"github.com/tsawler/pdfcore/observability"
	"github.com/tsawler/pdfcore/pdferr"
)

// Filter encodes and decodes one stream transform.
type Filter interface {
	// Name returns the canonical PDF filter name, e.g. "FlateDecode".
	Name() string
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// Constructor builds a Filter from its decode parameters. params may be nil.
type Constructor func(params Params) Filter

// Params represents decode parameters from PDF stream dictionaries.
// Common parameters include Predictor, Columns, Colors, and BitsPerComponent.
type Params map[string]interface{}

var registry = struct {
	sync.RWMutex
	ctors  map[string]Constructor
	logger observability.Logger
}{
	ctors:  make(map[string]Constructor),
	logger: observability.NopLogger{},
}

func init() {
	registerBuiltins()
}

func registerBuiltins() {
	Register("ASCIIHexDecode", NewASCIIHexFilter, "AHx")
	Register("ASCII85Decode", NewASCII85Filter, "A85")
	Register("RunLengthDecode", NewRunLengthFilter, "RL")
	Register("FlateDecode", NewFlateFilter, "Fl")
	Register("LZWDecode", NewLZWFilter, "LZW")
	Register("DCTDecode", passthrough("DCTDecode"), "DCT")
	Register("JPXDecode", passthrough("JPXDecode"))
	Register("JBIG2Decode", passthrough("JBIG2Decode"))
	Register("CCITTFaxDecode", passthrough("CCITTFaxDecode"), "CCF")
	Register("Crypt", passthrough("Crypt"))
}

// Register adds or replaces the constructor for name and its aliases.
// Collaborators call it to plug in codecs the package does not implement.
func Register(name string, ctor Constructor, aliases ...string) {
	registry.Lock()
	defer registry.Unlock()
	registry.ctors[name] = ctor
	for _, a := range aliases {
		registry.ctors[a] = ctor
	}
}

// New returns the filter registered under name. Unknown names fail with
// *pdferr.UnregisteredObjectTypeError.
func New(name string, params Params) (Filter, error) {
	ctor, ok := Lookup(name)
	if !ok {
		return nil, &pdferr.UnregisteredObjectTypeError{Kind: "filter", Name: name}
	}
	return ctor(params), nil
}

// Lookup returns the constructor registered under name.
func Lookup(name string) (Constructor, bool) {
	registry.RLock()
	defer registry.RUnlock()
	ctor, ok := registry.ctors[name]
	return ctor, ok
}

// Registered reports whether a filter is registered under name.
func Registered(name string) bool {
	registry.RLock()
	defer registry.RUnlock()
	_, ok := registry.ctors[name]
	return ok
}

// Names returns every registered filter name and alias, sorted.
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.ctors))
	for n := range registry.ctors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SetLogger sets the logger used to report recoverable codec conditions.
func SetLogger(l observability.Logger) {
	registry.Lock()
	defer registry.Unlock()
	registry.logger = observability.OrNop(l)
}

func logger() observability.Logger {
	registry.RLock()
	defer registry.RUnlock()
	return registry.logger
}

// getIntParam extracts an integer parameter from Params, returning defaultValue
// if the parameter is missing or cannot be converted to an integer.
func getIntParam(params Params, key string, defaultValue int) int {
	if params == nil {
		return defaultValue
	}

	obj, ok := params[key]
	if !ok {
		return defaultValue
	}

	// Handle various integer types
	switch v := obj.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	default:
		return defaultValue
	}
}

// getBoolParam extracts a boolean parameter from Params, returning defaultValue
// if the parameter is missing or cannot be converted to a boolean.
func getBoolParam(params Params, key string, defaultValue bool) bool {
	if params == nil {
		return defaultValue
	}

	obj, ok := params[key]
	if !ok {
		return defaultValue
	}

	switch v := obj.(type) {
	case bool:
		return v
	default:
		return defaultValue
	}
}

type passthroughFilter struct{ name string }

// passthrough returns a constructor for a filter that leaves bytes unchanged.
// Image and crypt filters are interpreted by downstream collaborators.
func passthrough(name string) Constructor {
	return func(Params) Filter { return passthroughFilter{name: name} }
}

func (f passthroughFilter) Name() string                       { return f.name }
func (f passthroughFilter) Encode(data []byte) ([]byte, error) { return data, nil }
func (f passthroughFilter) Decode(data []byte) ([]byte, error) { return data, nil }
