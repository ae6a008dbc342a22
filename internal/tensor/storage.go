package tensor

import (
	"slices"
	"unsafe"
)

// Storage is the owning, flat, typed buffer behind a Tensor.
//
// The set of implementations is closed: every Storage is a typedStorage[T]
// for one of the element types selected by the dispatch table in dispatch.go.
// A Storage is not safe for concurrent mutation; Data materializes the buffer
// and therefore counts as one.
type Storage interface {
	// Size returns the element count fixed at construction.
	Size() int
	// ItemSize returns the byte width of one element.
	ItemSize() int
	// NBytes returns Size() * ItemSize().
	NBytes() int
	// NDim returns the dimension count fixed at construction.
	NDim() int

	// Data returns a pointer to the first element, allocating a zeroed buffer
	// on first use. Empty storages return a pointer to a shared placeholder.
	Data() unsafe.Pointer
	// Bytes returns a byte view of Data() of length NBytes().
	Bytes() []byte

	// Equals reports whether other has the same element type and either is the
	// same storage or holds equal dimensions, size and values. Unmaterialized
	// buffers compare as zeros.
	Equals(other Storage) bool

	// String renders the buffer using dtype and shape, see render.go.
	String(dtype DataType, shape Shape) string

	// Materialized reports whether the buffer has been allocated.
	Materialized() bool

	sealed()
}

// placeholder backs Data() for empty shapes so callers never get nil.
// Sized and aligned for the widest element type.
var placeholder [1]uint64

// typedStorage holds elements of a single Go type T.
// len(data) is either 0 (not yet materialized) or size.
type typedStorage[T Element] struct {
	ndim int
	size int
	data []T
}

func newTypedStorage[T Element](shape Shape) *typedStorage[T] {
	return &typedStorage[T]{
		ndim: len(shape),
		size: shape.NumElements(),
	}
}

func (s *typedStorage[T]) Size() int { return s.size }

func (s *typedStorage[T]) ItemSize() int { return sizeOf[T]() }

func (s *typedStorage[T]) NBytes() int { return s.Size() * s.ItemSize() }

func (s *typedStorage[T]) NDim() int { return s.ndim }

func (s *typedStorage[T]) Materialized() bool { return len(s.data) != 0 }

func (s *typedStorage[T]) sealed() {}

func (s *typedStorage[T]) Data() unsafe.Pointer {
	if s.size == 0 {
		return unsafe.Pointer(&placeholder[0])
	}
	// Lazy allocation.
	if len(s.data) == 0 {
		s.data = make([]T, s.size)
	}
	return unsafe.Pointer(&s.data[0])
}

func (s *typedStorage[T]) Bytes() []byte {
	p := s.Data()
	//nolint:gosec // unsafe.Slice for zero-copy byte view, bounded by NBytes()
	return unsafe.Slice((*byte)(p), s.NBytes())
}

func (s *typedStorage[T]) Equals(other Storage) bool {
	o, ok := other.(*typedStorage[T])
	if !ok {
		return false
	}
	// Comparing contents materializes both buffers.
	return o == s || (s.ndim == o.ndim && s.size == o.size && slices.Equal(s.values(), o.values()))
}

// values returns the materialized element slice.
func (s *typedStorage[T]) values() []T {
	if s.size == 0 {
		return []T{}
	}
	s.Data()
	return s.data
}

// Values returns the elements of s as []T, materializing the buffer.
// It reports false when s does not hold T. Bool storage holds uint8.
func Values[T Element](s Storage) ([]T, bool) {
	ts, ok := s.(*typedStorage[T])
	if !ok {
		return nil, false
	}
	return ts.values(), true
}

func sizeOf[T Element]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// asBytes reinterprets data as raw bytes without copying.
func asBytes[T Element](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy byte view, bounded by len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*sizeOf[T]())
}

// viewAs reinterprets the first n elements of src as []T without copying.
func viewAs[T Element](src []byte, n int) []T {
	if n == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy typed view, length checked by callers
	return unsafe.Slice((*T)(unsafe.Pointer(&src[0])), n)
}
