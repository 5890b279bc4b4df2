package pool

import "sync"

// SlicePool pools typed work slices, such as quantized tiles and transform
// coefficients, between tile workers.
type SlicePool[T any] struct {
	pool sync.Pool
}

// NewSlicePool creates an empty SlicePool.
func NewSlicePool[T any]() *SlicePool[T] {
	return &SlicePool[T]{
		pool: sync.Pool{
			New: func() any { return &[]T{} },
		},
	}
}

// Get retrieves a slice of exactly size elements. The content is not cleared.
//
// The caller must call the returned cleanup function, typically with defer,
// and must not keep the slice afterwards.
//
// Example:
//
//	coeffs, cleanup := pool.GetInt64Slice(width * height)
//	defer cleanup()
func (p *SlicePool[T]) Get(size int) ([]T, func()) {
	ptr, _ := p.pool.Get().(*[]T)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]T, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { p.pool.Put(ptr) }
}

var (
	int32SlicePool   = NewSlicePool[int32]()
	int64SlicePool   = NewSlicePool[int64]()
	float64SlicePool = NewSlicePool[float64]()
)

// GetInt32Slice retrieves an int32 slice of the given length.
func GetInt32Slice(size int) ([]int32, func()) {
	return int32SlicePool.Get(size)
}

// GetInt64Slice retrieves an int64 slice of the given length.
func GetInt64Slice(size int) ([]int64, func()) {
	return int64SlicePool.Get(size)
}

// GetFloat64Slice retrieves a float64 slice of the given length.
func GetFloat64Slice(size int) ([]float64, func()) {
	return float64SlicePool.Get(size)
}
