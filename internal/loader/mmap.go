package loader

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/born-ml/tensordata/internal/tensor"
)

// MmapReader provides memory-mapped access to SafeTensors files.
// Only the header is parsed on open; tensor bytes are paged in by the OS
// when a tensor is loaded.
type MmapReader struct {
	file       *os.File
	data       []byte // mmap'd region (read-only)
	size       int64
	header     SafeTensorsHeader
	dataOffset int64
	closed     bool
}

// NewMmapReader maps path read-only and parses its header.
//
// Important: Always call Close() when done to unmap the file (use defer).
func NewMmapReader(path string) (*MmapReader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for tensor loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.Size() < 8 {
		_ = file.Close()
		return nil, fmt.Errorf("file too small: %d bytes", stat.Size())
	}

	// Memory map the file (platform-specific implementation)
	data, err := mmapFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	r := &MmapReader{
		file: file,
		data: data,
		size: stat.Size(),
	}
	if err := r.parseHeader(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	return r, nil
}

func (r *MmapReader) parseHeader() error {
	headerSize := binary.LittleEndian.Uint64(r.data[:8])
	if headerSize > maxHeaderSize || int64(headerSize) > r.size-8 { //nolint:gosec // G115: bounded by maxHeaderSize
		return fmt.Errorf("invalid header size: %d", headerSize)
	}

	r.dataOffset = int64(8 + headerSize) //nolint:gosec // G115: bounded by maxHeaderSize
	if err := json.Unmarshal(r.data[8:r.dataOffset], &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}
	return nil
}

// Close unmaps and closes the file.
func (r *MmapReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.data != nil {
		err = munmapFile(r.data)
		r.data = nil
	}
	if closeErr := r.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Metadata returns the metadata map from the header.
func (r *MmapReader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns all tensor names in the file, sorted.
func (r *MmapReader) TensorNames() []string {
	names := make([]string, 0, len(r.header.Tensors))
	for name := range r.header.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TensorInfo returns information about a specific tensor.
func (r *MmapReader) TensorInfo(name string) (*SafeTensorInfo, error) {
	info, ok := r.header.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	return &info, nil
}

// TensorData returns a zero-copy slice of the tensor bytes.
// The slice is valid only while the reader is open.
// WARNING: The data is read-only - writing to it will cause undefined behavior.
func (r *MmapReader) TensorData(name string) ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	if err := info.checkOffsets(name, r.size-r.dataOffset); err != nil {
		return nil, err
	}
	start := r.dataOffset + info.DataOffsets[0]
	end := r.dataOffset + info.DataOffsets[1]
	return r.data[start:end], nil
}

// LoadTensor copies name out of the mapping into a tensor of the stored dtype.
// The result stays valid after Close.
func (r *MmapReader) LoadTensor(name string) (*tensor.Tensor, error) {
	data, err := r.TensorData(name)
	if err != nil {
		return nil, err
	}
	info, _ := r.TensorInfo(name)
	return info.build(name, data)
}

// LoadTensorAs copies name out of the mapping and converts it to dtype.
func (r *MmapReader) LoadTensorAs(name string, dtype tensor.DataType) (*tensor.Tensor, error) {
	data, err := r.TensorData(name)
	if err != nil {
		return nil, err
	}
	info, _ := r.TensorInfo(name)
	// Tensor offsets inside the mapping carry no alignment guarantee.
	aligned := make([]byte, len(data))
	copy(aligned, data)
	return info.buildAs(name, aligned, dtype)
}
