package registry

import (
	"sort"
	"sync"

	"go.dedis.ch/rgbd/serde"
	"golang.org/x/xerrors"
)

// SimpleRegistry is the default implementation of the registry. It can be
// used concurrently.
//
// - implements registry.Registry
type SimpleRegistry struct {
	sync.RWMutex
	engines map[serde.Format]serde.FormatEngine
}

// NewSimpleRegistry returns a new empty registry.
func NewSimpleRegistry() *SimpleRegistry {
	return &SimpleRegistry{
		engines: make(map[serde.Format]serde.FormatEngine),
	}
}

// Register implements registry.Registry.
func (r *SimpleRegistry) Register(format serde.Format, engine serde.FormatEngine) {
	r.Lock()
	r.engines[format] = engine
	r.Unlock()
}

// Get implements registry.Registry. It returns a failing engine when the
// format is unknown.
func (r *SimpleRegistry) Get(format serde.Format) serde.FormatEngine {
	r.RLock()
	engine := r.engines[format]
	r.RUnlock()

	if engine == nil {
		return unknownFormat{format: format}
	}

	return engine
}

// Formats implements registry.Registry.
func (r *SimpleRegistry) Formats() []serde.Format {
	r.RLock()
	defer r.RUnlock()

	formats := make([]serde.Format, 0, len(r.engines))
	for format := range r.engines {
		formats = append(formats, format)
	}

	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })

	return formats
}

// unknownFormat is the engine of a format missing from a registry.
//
// - implements serde.FormatEngine
type unknownFormat struct {
	format serde.Format
}

// Encode implements serde.FormatEngine. It always returns an error.
func (f unknownFormat) Encode(serde.Context, serde.Message) ([]byte, error) {
	return nil, f.err()
}

// Decode implements serde.FormatEngine. It always returns an error.
func (f unknownFormat) Decode(serde.Context, []byte) (serde.Message, error) {
	return nil, f.err()
}

func (f unknownFormat) err() error {
	if f.format == "" {
		return xerrors.New("context without format")
	}

	return xerrors.Errorf("format '%s' is not implemented", f.format)
}
