package compress

import (
	"bytes"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"slices"

	"github.com/arloliu/fitstile/errs"
	"github.com/arloliu/fitstile/internal/options"
	"github.com/klauspost/compress/s2"
	"github.com/pierrec/lz4/v4"
)

// StreamProvider decompresses whole opaque streams, such as a gzip wrapped
// FITS file, recognised by their first two bytes.
type StreamProvider struct {
	Name     string
	Priority int
	Magic    [2]byte
	// Decompress returns the decompressed stream.
	Decompress func(ctx context.Context, data []byte) ([]byte, error)
	// Compress is optional; providers backed by external tools leave it nil.
	Compress func(data []byte) ([]byte, error)
}

// Provides reports whether the provider claims a stream starting with b1, b2.
func (p StreamProvider) Provides(b1, b2 byte) bool {
	return p.Magic[0] == b1 && p.Magic[1] == b2
}

// StreamRegistry resolves stream providers by magic bytes. Providers are
// tried in descending priority; equal priorities keep their registration
// order. A failing provider hands the stream to the next one claiming the
// same magic bytes.
type StreamRegistry struct {
	providers []StreamProvider
	logger    *log.Logger
}

// StreamOption configures a StreamRegistry.
type StreamOption = options.Option[*StreamRegistry]

// WithStreamLogger sets the logger used to report provider fallbacks.
func WithStreamLogger(logger *log.Logger) StreamOption {
	return options.NoError(func(r *StreamRegistry) {
		if logger != nil {
			r.logger = logger
		}
	})
}

// NewStreamRegistry creates a registry over providers.
func NewStreamRegistry(providers []StreamProvider, opts ...StreamOption) (*StreamRegistry, error) {
	for _, p := range providers {
		if p.Name == "" || p.Decompress == nil {
			return nil, fmt.Errorf("stream provider %q is incomplete: %w", p.Name, errs.ErrInvalidConfig)
		}
	}

	r := &StreamRegistry{
		providers: slices.Clone(providers),
		logger:    log.New(io.Discard, "", 0),
	}
	if err := options.Apply(r, opts...); err != nil {
		return nil, err
	}

	slices.SortStableFunc(r.providers, func(a, b StreamProvider) int {
		return b.Priority - a.Priority
	})

	return r, nil
}

// Providers returns the providers in resolution order.
func (r *StreamRegistry) Providers() []StreamProvider {
	return slices.Clone(r.providers)
}

// Find returns the providers claiming the magic bytes, in resolution order.
func (r *StreamRegistry) Find(b1, b2 byte) []StreamProvider {
	var found []StreamProvider
	for _, p := range r.providers {
		if p.Provides(b1, b2) {
			found = append(found, p)
		}
	}

	return found
}

// Decompress sniffs data and decompresses it with the first provider that
// succeeds. It fails with ErrNoStreamProvider when no provider claims the
// stream or every claiming provider failed.
func (r *StreamRegistry) Decompress(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("stream of %d bytes: %w", len(data), errs.ErrNoStreamProvider)
	}

	candidates := r.Find(data[0], data[1])
	if len(candidates) == 0 {
		return nil, fmt.Errorf("magic %02x %02x: %w", data[0], data[1], errs.ErrNoStreamProvider)
	}

	var failures []error
	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := p.Decompress(ctx, data)
		if err == nil {
			return out, nil
		}

		r.logger.Printf("stream provider %s (priority %d) failed: %v", p.Name, p.Priority, err)
		failures = append(failures, fmt.Errorf("%s: %w", p.Name, err))
	}

	return nil, fmt.Errorf("magic %02x %02x: %w: %w", data[0], data[1], errs.ErrNoStreamProvider, errors.Join(failures...))
}

// Built-in provider priorities. Library providers win over external tools.
const (
	LibraryPriority  = 10
	ExternalPriority = 5
)

// DefaultStreamProviders returns the built-in providers: gzip, zstd, lz4
// frames, s2/snappy streams and bzip2 through libraries, and gzip and
// compress(1) through external tools as fallbacks.
func DefaultStreamProviders() []StreamProvider {
	return []StreamProvider{
		{
			Name: "gzip", Priority: LibraryPriority, Magic: [2]byte{0x1F, 0x8B},
			Decompress: func(_ context.Context, data []byte) ([]byte, error) {
				return gunzip(bytes.NewReader(data), len(data)*4)
			},
			Compress: NewGzipCompressor().Compress,
		},
		{
			Name: "zstd", Priority: LibraryPriority, Magic: [2]byte{0x28, 0xB5},
			Decompress: func(_ context.Context, data []byte) ([]byte, error) {
				return NewZstdCompressor().Decompress(data)
			},
			Compress: NewZstdCompressor().Compress,
		},
		{
			Name: "lz4", Priority: LibraryPriority, Magic: [2]byte{0x04, 0x22},
			Decompress: func(_ context.Context, data []byte) ([]byte, error) {
				return readAll(lz4.NewReader(bytes.NewReader(data)), len(data)*4)
			},
			Compress: lz4Frame,
		},
		{
			Name: "s2", Priority: LibraryPriority, Magic: [2]byte{0xFF, 0x06},
			Decompress: func(_ context.Context, data []byte) ([]byte, error) {
				return readAll(s2.NewReader(bytes.NewReader(data)), len(data)*4)
			},
			Compress: s2Stream,
		},
		{
			Name: "bzip2", Priority: LibraryPriority, Magic: [2]byte{'B', 'Z'},
			Decompress: func(_ context.Context, data []byte) ([]byte, error) {
				return readAll(bzip2.NewReader(bytes.NewReader(data)), len(data)*6)
			},
		},
		ExternalProvider("gzip-external", ExternalPriority, [2]byte{0x1F, 0x8B}, "gzip", "-dc"),
		ExternalProvider("uncompress", ExternalPriority, [2]byte{0x1F, 0x9D}, "uncompress", "-c"),
	}
}

// ExternalProvider runs command with data on stdin and returns its stdout.
// A missing binary or a non-zero exit is a provider failure, so the registry
// moves on to the next provider.
func ExternalProvider(name string, priority int, magic [2]byte, command string, args ...string) StreamProvider {
	return StreamProvider{
		Name:     name,
		Priority: priority,
		Magic:    magic,
		Decompress: func(ctx context.Context, data []byte) ([]byte, error) {
			path, err := exec.LookPath(command)
			if err != nil {
				return nil, err
			}

			var stdout, stderr bytes.Buffer
			cmd := exec.CommandContext(ctx, path, args...)
			cmd.Stdin = bytes.NewReader(data)
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			if err := cmd.Run(); err != nil {
				return nil, fmt.Errorf("%s: %w: %s", command, err, bytes.TrimSpace(stderr.Bytes()))
			}

			return stdout.Bytes(), nil
		},
	}
}

func readAll(r io.Reader, sizeHint int) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(sizeHint)
	if _, err := io.Copy(&out, r); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

func lz4Frame(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func s2Stream(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := s2.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
