package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// gzipWriterPool pools gzip writers; Reset rebinds them to a new buffer.
var gzipWriterPool = sync.Pool{
	New: func() any {
		w, err := gzip.NewWriterLevel(nil, gzip.DefaultCompression)
		if err != nil {
			panic(fmt.Sprintf("failed to create gzip writer for pool: %v", err))
		}

		return w
	},
}

var gzipReaderPool = sync.Pool{
	New: func() any { return new(gzip.Reader) },
}

// GzipCompressor produces RFC 1952 gzip members, the payload format of
// GZIP_1 and GZIP_2 tiles and of the default null pixel mask codec.
type GzipCompressor struct{}

var _ Codec = (*GzipCompressor)(nil)

// NewGzipCompressor creates a new gzip compressor.
func NewGzipCompressor() GzipCompressor {
	return GzipCompressor{}
}

// Compress compresses the input data into a single gzip member.
func (c GzipCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 64)

	w, _ := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip compression failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decompresses gzip data. Concatenated members are read as one
// stream.
func (c GzipCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gunzip(bytes.NewReader(data), len(data)*4)
}

func gunzip(r io.Reader, sizeHint int) ([]byte, error) {
	zr, _ := gzipReaderPool.Get().(*gzip.Reader)
	defer gzipReaderPool.Put(zr)

	if err := zr.Reset(r); err != nil {
		return nil, fmt.Errorf("gzip decompression failed: %w", err)
	}

	var out bytes.Buffer
	out.Grow(sizeHint)
	if _, err := io.Copy(&out, zr); err != nil {
		return nil, fmt.Errorf("gzip decompression failed: %w", err)
	}

	return out.Bytes(), nil
}
