package tensor

import (
	"fmt"

	"github.com/x448/float16"

	"github.com/born-ml/tensordata/internal/parallel"
)

// conversionConfig controls chunked element conversion. Buffers smaller than
// MinChunkSize are converted on the calling goroutine.
var conversionConfig = parallel.Config{
	Enabled:      parallel.DefaultConfig().Enabled,
	NumWorkers:   parallel.DefaultConfig().NumWorkers,
	MinChunkSize: 1 << 14,
}

// copyBytes copies src into a new []T of size elements.
// len(src) must equal size * sizeof(T).
func copyBytes[T Element](size int, src []byte) ([]T, error) {
	itemSize := sizeOf[T]()
	if size*itemSize != len(src) {
		return nil, fmt.Errorf("%w %d, expect %d item size %d", ErrLengthMismatch, len(src), size*itemSize, itemSize)
	}
	data := make([]T, size)
	copy(asBytes(data), src)
	return data, nil
}

// copyConverted reads size elements of type srcType from src and casts each
// into T.
func copyConverted[T Element](size int, src []byte, srcType DataType) ([]T, error) {
	if !srcType.Valid() {
		panic(fmt.Sprintf("cannot construct tensor because of %v: %d", ErrUnsupportedType, int(srcType)))
	}
	if need := size * srcType.Size(); len(src) < need {
		return nil, fmt.Errorf("%w %d, expect at least %d for %d %s elements",
			ErrLengthMismatch, len(src), need, size, srcType)
	}

	data := make([]T, size)
	if size == 0 {
		return data, nil
	}

	switch srcType {
	case Bool, Uint8:
		castInto(data, viewAs[uint8](src, size))
	case Int8:
		castInto(data, viewAs[int8](src, size))
	case Int16:
		castInto(data, viewAs[int16](src, size))
	case Int32:
		castInto(data, viewAs[int32](src, size))
	case Int64:
		castInto(data, viewAs[int64](src, size))
	case Uint16:
		castInto(data, viewAs[uint16](src, size))
	case Uint32:
		castInto(data, viewAs[uint32](src, size))
	case Uint64:
		castInto(data, viewAs[uint64](src, size))
	case Float16:
		castInto(data, viewAs[float16.Float16](src, size))
	case Float32:
		castInto(data, viewAs[float32](src, size))
	case Float64:
		castInto(data, viewAs[float64](src, size))
	}
	return data, nil
}

// castInto converts src element-wise into dst. len(dst) == len(src).
func castInto[D, S Element](dst []D, src []S) {
	parallel.ForRange(len(dst), func(start, end int) {
		castRange(dst[start:end], src[start:end])
	}, conversionConfig)
}

// castRange applies Go numeric conversion, routing float16 through float32.
func castRange[D, S Element](dst []D, src []S) {
	srcHalf, dstHalf := isHalf[S](), isHalf[D]()
	switch {
	case srcHalf && dstHalf:
		for i, v := range src {
			dst[i] = D(v)
		}
	case srcHalf:
		for i, v := range src {
			dst[i] = D(float16.Float16(v).Float32())
		}
	case dstHalf:
		for i, v := range src {
			dst[i] = D(float16.Fromfloat32(float32(v)))
		}
	default:
		for i, v := range src {
			dst[i] = D(v)
		}
	}
}
