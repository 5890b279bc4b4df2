package pool

import "sync"

// Default sizes of pooled payload buffers.
const (
	TileBufferDefaultSize  = 1024 * 64       // 64KiB, a 128x128 int32 tile
	TileBufferMaxThreshold = 1024 * 1024 * 4 // 4MiB
	MaskBufferDefaultSize  = 1024 * 16       // 16KiB
	MaskBufferMaxThreshold = 1024 * 1024     // 1MiB
)

type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Resize sets the length of the buffer to n, growing the capacity when needed.
// The content of the first min(n, Len()) bytes is preserved.
func (bb *ByteBuffer) Resize(n int) {
	if n <= cap(bb.B) {
		bb.B = bb.B[:n]
		return
	}

	bb.Grow(n - len(bb.B))
	bb.B = bb.B[:n]
}

// Grow grows the buffer to ensure it can hold requiredBytes more bytes without reallocating.
//
// Small buffers grow by TileBufferDefaultSize, larger ones by 25% of their
// capacity, and never by less than requiredBytes.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := TileBufferDefaultSize
	if cap(bb.B) > 4*TileBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}

	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends the contents of data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// Clone returns a copy of the buffer content that does not alias pooled memory.
func (bb *ByteBuffer) Clone() []byte {
	if len(bb.B) == 0 {
		return nil
	}
	out := make([]byte, len(bb.B))
	copy(out, bb.B)

	return out
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
//
// Buffers whose capacity grew beyond maxThreshold are dropped on Put
// so a single huge tile does not pin memory for the rest of the process.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	tileDefaultPool = NewByteBufferPool(TileBufferDefaultSize, TileBufferMaxThreshold)
	maskDefaultPool = NewByteBufferPool(MaskBufferDefaultSize, MaskBufferMaxThreshold)
)

// GetTileBuffer retrieves a buffer for serialized tile pixels.
func GetTileBuffer() *ByteBuffer {
	return tileDefaultPool.Get()
}

// PutTileBuffer returns a tile buffer to the pool.
func PutTileBuffer(bb *ByteBuffer) {
	tileDefaultPool.Put(bb)
}

// GetMaskBuffer retrieves a buffer for a raw null pixel mask.
func GetMaskBuffer() *ByteBuffer {
	return maskDefaultPool.Get()
}

// PutMaskBuffer returns a mask buffer to the pool.
func PutMaskBuffer(bb *ByteBuffer) {
	maskDefaultPool.Put(bb)
}
