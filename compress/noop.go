package compress

// NoOpCompressor is the NOCOMPRESS codec: tile bytes are stored as they are.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates the NOCOMPRESS codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data itself. The tile control copies it before storing
// it in a table cell.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data itself.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
