package compress

import (
	"fmt"
	"slices"
	"sync"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/format"
)

// Descriptor binds a tile Control to an algorithm.
type Descriptor struct {
	// Name identifies the implementation, for example "rice" or "gzip".
	Name      string
	Algorithm format.CompressionType
	// Kinds lists the element kinds the control accepts. Empty means every
	// kind except KindBit.
	Kinds   []format.ElementKind
	Control Control
}

// Supports reports whether the descriptor accepts kind.
func (d Descriptor) Supports(kind format.ElementKind) bool {
	if len(d.Kinds) == 0 {
		return kind != format.KindBit && format.TypeOf(kind) != nil
	}

	return slices.Contains(d.Kinds, kind)
}

var integerKinds = []format.ElementKind{format.KindUint8, format.KindInt16, format.KindInt32, format.KindInt64}

// DefaultDescriptors returns the built-in tile controls in resolution order.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{Name: "nocompress", Algorithm: format.CompressionNone, Control: NewByteControl(NewNoOpCompressor())},
		{Name: "gzip", Algorithm: format.CompressionGzip1, Control: NewByteControl(NewGzipCompressor())},
		{Name: "gzip-shuffle", Algorithm: format.CompressionGzip2, Control: shuffleControl{codec: NewGzipCompressor()}},
		{Name: "rice", Algorithm: format.CompressionRice1, Kinds: integerKinds, Control: riceControl{}},
		{
			Name:      "hcompress",
			Algorithm: format.CompressionHCompress,
			Kinds:     []format.ElementKind{format.KindUint8, format.KindInt16, format.KindInt32},
			Control:   hcompressControl{},
		},
		{Name: "zstd", Algorithm: format.CompressionZstd, Control: NewByteControl(NewZstdCompressor())},
		{Name: "lz4", Algorithm: format.CompressionLZ4, Control: NewByteControl(NewLZ4Compressor())},
		{Name: "s2", Algorithm: format.CompressionS2, Control: NewByteControl(NewS2Compressor())},
	}
}

// Registry resolves tile controls by algorithm. It is built once from an
// explicit descriptor list and is read-only afterwards, so it is safe for
// concurrent use.
type Registry struct {
	descriptors []Descriptor
}

// NewRegistry creates a registry. Descriptor order is the resolution order
// among descriptors of the same algorithm.
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	seen := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		if d.Name == "" || d.Control == nil {
			return nil, fmt.Errorf("descriptor %q for %s is incomplete: %w", d.Name, d.Algorithm, errs.ErrInvalidConfig)
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("descriptor %q registered twice: %w", d.Name, errs.ErrInvalidConfig)
		}
		seen[d.Name] = struct{}{}
	}

	return &Registry{descriptors: slices.Clone(descriptors)}, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(DefaultDescriptors())
	if err != nil {
		panic(err)
	}

	return r
})

// DefaultRegistry returns a shared registry over DefaultDescriptors.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Descriptors returns a copy of the registered descriptors.
func (r *Registry) Descriptors() []Descriptor {
	return slices.Clone(r.descriptors)
}

// FindControl returns the control for algorithm and element kind. Among the
// matching descriptors the one named preferred wins; otherwise the first
// registered one is used. An algorithm without descriptors is an
// ErrUnknownAlgorithm; one whose descriptors all reject kind is an
// ErrUnsupportedElement.
func (r *Registry) FindControl(preferred string, algorithm format.CompressionType, kind format.ElementKind) (Control, error) {
	var (
		first Control
		known bool
	)

	for _, d := range r.descriptors {
		if d.Algorithm != algorithm {
			continue
		}
		known = true
		if !d.Supports(kind) {
			continue
		}
		if d.Name == preferred {
			return d.Control, nil
		}
		if first == nil {
			first = d.Control
		}
	}

	switch {
	case first != nil:
		return first, nil
	case known:
		return nil, fmt.Errorf("%s does not handle %s tiles: %w", algorithm, kind, errs.ErrUnsupportedElement)
	default:
		return nil, fmt.Errorf("no control for %s: %w", algorithm, errs.ErrUnknownAlgorithm)
	}
}
