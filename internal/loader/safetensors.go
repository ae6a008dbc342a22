package loader

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/tensordata/internal/tensor"
)

// maxHeaderSize bounds the JSON header (100MB).
const maxHeaderSize = 100 * 1024 * 1024

// Common errors.
var (
	ErrTensorNotFound = errors.New("tensor not found")
	ErrOutOfBounds    = errors.New("tensor data out of bounds")
	ErrClosed         = errors.New("reader is closed")
)

// SafeTensorsDType represents supported SafeTensors data types.
type SafeTensorsDType string

// Supported SafeTensors dtypes.
const (
	SafeTensorsBool SafeTensorsDType = "BOOL"
	SafeTensorsU8   SafeTensorsDType = "U8"
	SafeTensorsI8   SafeTensorsDType = "I8"
	SafeTensorsI16  SafeTensorsDType = "I16"
	SafeTensorsI32  SafeTensorsDType = "I32"
	SafeTensorsI64  SafeTensorsDType = "I64"
	SafeTensorsU16  SafeTensorsDType = "U16"
	SafeTensorsU32  SafeTensorsDType = "U32"
	SafeTensorsU64  SafeTensorsDType = "U64"
	SafeTensorsF16  SafeTensorsDType = "F16"
	SafeTensorsF32  SafeTensorsDType = "F32"
	SafeTensorsF64  SafeTensorsDType = "F64"
)

var safeTensorsDTypes = map[SafeTensorsDType]tensor.DataType{
	SafeTensorsBool: tensor.Bool,
	SafeTensorsU8:   tensor.Uint8,
	SafeTensorsI8:   tensor.Int8,
	SafeTensorsI16:  tensor.Int16,
	SafeTensorsI32:  tensor.Int32,
	SafeTensorsI64:  tensor.Int64,
	SafeTensorsU16:  tensor.Uint16,
	SafeTensorsU32:  tensor.Uint32,
	SafeTensorsU64:  tensor.Uint64,
	SafeTensorsF16:  tensor.Float16,
	SafeTensorsF32:  tensor.Float32,
	SafeTensorsF64:  tensor.Float64,
}

// DataType converts the SafeTensors dtype to a tensor.DataType.
func (d SafeTensorsDType) DataType() (tensor.DataType, error) {
	dt, ok := safeTensorsDTypes[d]
	if !ok {
		return 0, fmt.Errorf("%w: safetensors dtype %s", tensor.ErrUnsupportedType, d)
	}
	return dt, nil
}

// safeTensorsDType converts a tensor.DataType to its SafeTensors name.
func safeTensorsDType(dt tensor.DataType) (SafeTensorsDType, error) {
	for name, v := range safeTensorsDTypes {
		if v == dt {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", tensor.ErrUnsupportedType, dt)
}

// SafeTensorInfo describes a tensor in SafeTensors format.
type SafeTensorInfo struct {
	DType       SafeTensorsDType `json:"dtype"`
	Shape       []int            `json:"shape"`
	DataOffsets [2]int64         `json:"data_offsets"` // [start, end]
}

// SafeTensorsHeader is the JSON header in SafeTensors format.
type SafeTensorsHeader struct {
	Metadata map[string]string         `json:"__metadata__"`
	Tensors  map[string]SafeTensorInfo `json:"-"`
}

// UnmarshalJSON implements custom JSON unmarshaling for SafeTensorsHeader.
func (h *SafeTensorsHeader) UnmarshalJSON(data []byte) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return err
	}

	if metadataRaw, ok := rawMap["__metadata__"]; ok {
		if err := json.Unmarshal(metadataRaw, &h.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	// Everything except __metadata__ is a tensor.
	h.Tensors = make(map[string]SafeTensorInfo, len(rawMap))
	for key, value := range rawMap {
		if key == "__metadata__" {
			continue
		}
		var info SafeTensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		h.Tensors[key] = info
	}

	return nil
}

// SafeTensorsReader reads SafeTensors format files.
type SafeTensorsReader struct {
	file       *os.File
	header     SafeTensorsHeader
	dataOffset int64 // Offset where tensor data starts
	dataSize   int64
}

// NewSafeTensorsReader opens path and parses its header.
func NewSafeTensorsReader(path string) (*SafeTensorsReader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for tensor loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	var headerSize uint64
	if err := binary.Read(file, binary.LittleEndian, &headerSize); err != nil {
		_ = file.Close() // Best effort close on error
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > maxHeaderSize {
		_ = file.Close() // Best effort close on error
		return nil, fmt.Errorf("invalid header size: %d (too large)", headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(file, headerBytes); err != nil {
		_ = file.Close() // Best effort close on error
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var header SafeTensorsHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		_ = file.Close() // Best effort close on error
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close() // Best effort close on error
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	dataOffset := int64(8 + headerSize) //nolint:gosec // G115: headerSize bounded by maxHeaderSize
	return &SafeTensorsReader{
		file:       file,
		header:     header,
		dataOffset: dataOffset,
		dataSize:   stat.Size() - dataOffset,
	}, nil
}

// Close closes the SafeTensors file.
func (r *SafeTensorsReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Metadata returns the metadata map from the header.
func (r *SafeTensorsReader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns all tensor names in the file, sorted.
func (r *SafeTensorsReader) TensorNames() []string {
	names := make([]string, 0, len(r.header.Tensors))
	for name := range r.header.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TensorInfo returns information about a specific tensor.
func (r *SafeTensorsReader) TensorInfo(name string) (*SafeTensorInfo, error) {
	info, ok := r.header.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	return &info, nil
}

// ReadTensorData reads raw tensor data for a given tensor name.
func (r *SafeTensorsReader) ReadTensorData(name string) ([]byte, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	if err := info.checkOffsets(name, r.dataSize); err != nil {
		return nil, err
	}
	start := r.dataOffset + info.DataOffsets[0]
	size := info.DataOffsets[1] - info.DataOffsets[0]

	if _, err := r.file.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to tensor data: %w", err)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r.file, data); err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	return data, nil
}

// LoadTensor reads name into a new tensor of the stored dtype.
// The byte range must match shape × dtype size exactly.
func (r *SafeTensorsReader) LoadTensor(name string) (*tensor.Tensor, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	data, err := r.ReadTensorData(name)
	if err != nil {
		return nil, err
	}
	return info.build(name, data)
}

// LoadTensorAs reads name and converts it to dtype.
func (r *SafeTensorsReader) LoadTensorAs(name string, dtype tensor.DataType) (*tensor.Tensor, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	data, err := r.ReadTensorData(name)
	if err != nil {
		return nil, err
	}
	return info.buildAs(name, data, dtype)
}

// build copies data into a tensor of the stored dtype.
func (info *SafeTensorInfo) build(name string, data []byte) (*tensor.Tensor, error) {
	dtype, err := info.DType.DataType()
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	t, err := tensor.NewFromBytes(dtype, tensor.Shape(info.Shape), data)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	return t, nil
}

// buildAs converts data from the stored dtype into a tensor of dtype.
// data must be aligned for the stored element type.
func (info *SafeTensorInfo) buildAs(name string, data []byte, dtype tensor.DataType) (*tensor.Tensor, error) {
	srcType, err := info.DType.DataType()
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}

	shape := tensor.Shape(info.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tensor %s: %w: %w", name, tensor.ErrInvalidShape, err)
	}
	if want := shape.NumElements() * srcType.Size(); want != len(data) {
		return nil, fmt.Errorf("tensor %s: %w %d, expect %d", name, tensor.ErrLengthMismatch, len(data), want)
	}

	t, err := tensor.NewFromData(dtype, shape, data, srcType)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	return t, nil
}

// checkOffsets validates a tensor byte range against the data section size.
func (info *SafeTensorInfo) checkOffsets(name string, dataSize int64) error {
	start, end := info.DataOffsets[0], info.DataOffsets[1]
	if start < 0 || end < start || end > dataSize {
		return fmt.Errorf("%w: tensor %s: [%d, %d] outside %d data bytes", ErrOutOfBounds, name, start, end, dataSize)
	}
	return nil
}
