package tensor

import (
	"fmt"
	"unsafe"

	"github.com/x448/float16"
)

// sourceKind selects how a new storage is populated.
type sourceKind int

const (
	fromShape  sourceKind = iota // lazy, no data
	fromBytes                    // raw bytes of the target type
	fromTyped                    // raw bytes of another type, converted
	fromScalar                   // a single converted value
)

// storageSource carries the optional initial data of a storage.
type storageSource struct {
	kind  sourceKind
	data  []byte
	dtype DataType
}

// makeStorage is the single dispatch point from a DataType to a typed storage.
// Bool shares the uint8 representation.
func makeStorage(dtype DataType, shape Shape, src storageSource) (Storage, error) {
	switch dtype {
	case Bool, Uint8:
		return buildStorage[uint8](shape, src)
	case Int8:
		return buildStorage[int8](shape, src)
	case Int16:
		return buildStorage[int16](shape, src)
	case Int32:
		return buildStorage[int32](shape, src)
	case Int64:
		return buildStorage[int64](shape, src)
	case Uint16:
		return buildStorage[uint16](shape, src)
	case Uint32:
		return buildStorage[uint32](shape, src)
	case Uint64:
		return buildStorage[uint64](shape, src)
	case Float16:
		return buildStorage[float16.Float16](shape, src)
	case Float32:
		return buildStorage[float32](shape, src)
	case Float64:
		return buildStorage[float64](shape, src)
	}
	panic(fmt.Sprintf("cannot construct tensor because of %v: %d", ErrUnsupportedType, int(dtype)))
}

func buildStorage[T Element](shape Shape, src storageSource) (Storage, error) {
	s := newTypedStorage[T](shape)

	var err error
	switch src.kind {
	case fromShape:
	case fromBytes:
		s.data, err = copyBytes[T](s.size, src.data)
	case fromTyped:
		s.data, err = copyConverted[T](s.size, src.data, src.dtype)
	case fromScalar:
		if s.size != 1 {
			return nil, fmt.Errorf("%w: scalar requires a single element shape, got [%v]", ErrInvalidShape, shape)
		}
		s.data, err = copyConverted[T](1, src.data, src.dtype)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewStorage creates a lazily allocated storage for dtype and shape.
func NewStorage(dtype DataType, shape Shape) Storage {
	s, _ := makeStorage(dtype, shape, storageSource{kind: fromShape})
	return s
}

// NewStorageFromBytes copies data, which must hold exactly
// shape.NumElements() * dtype.Size() bytes.
func NewStorageFromBytes(dtype DataType, shape Shape, data []byte) (Storage, error) {
	return makeStorage(dtype, shape, storageSource{kind: fromBytes, data: data})
}

// NewStorageFromData reads shape.NumElements() elements of srcType from data
// and converts them to dtype.
func NewStorageFromData(dtype DataType, shape Shape, data []byte, srcType DataType) (Storage, error) {
	return makeStorage(dtype, shape, storageSource{kind: fromTyped, data: data, dtype: srcType})
}

// NewStorageFromSlice converts values into a storage of dtype.
// len(values) must equal shape.NumElements().
func NewStorageFromSlice[S Element](dtype DataType, shape Shape, values []S) (Storage, error) {
	if len(values) != shape.NumElements() {
		return nil, fmt.Errorf("%w: shape [%v] requires %d elements, but got %d",
			ErrLengthMismatch, shape, shape.NumElements(), len(values))
	}
	return makeStorage(dtype, shape, storageSource{kind: fromTyped, data: asBytes(values), dtype: InferDataType[S]()})
}

// NewStorageFromScalar creates a single element storage holding value.
func NewStorageFromScalar[S Element](dtype DataType, shape Shape, value S) (Storage, error) {
	//nolint:gosec // unsafe.Slice over a single local value
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&value)), sizeOf[S]())
	return makeStorage(dtype, shape, storageSource{kind: fromScalar, data: raw, dtype: InferDataType[S]()})
}
