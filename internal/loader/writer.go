package loader

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/tensordata/internal/tensor"
)

// safeTensorHeader represents a tensor in the written header.
type safeTensorHeader struct {
	DType       SafeTensorsDType `json:"dtype"`
	Shape       []int64          `json:"shape"`
	DataOffsets [2]int64         `json:"data_offsets"`
}

// WriteSafeTensors writes tensors to a SafeTensors file at path.
// Tensors are synced from their device first and written in alphabetical order.
func WriteSafeTensors(path string, tensors map[string]*tensor.Tensor, metadata map[string]string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for tensor saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := EncodeSafeTensors(file, tensors, metadata); err != nil {
		_ = file.Close() // Best effort close on error
		return err
	}
	return file.Close()
}

// EncodeSafeTensors writes tensors in SafeTensors format to w.
func EncodeSafeTensors(w io.Writer, tensors map[string]*tensor.Tensor, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	if len(metadata) > 0 {
		header["__metadata__"] = metadata
	}

	var offset int64
	for _, name := range names {
		t := tensors[name]
		if err := t.DataSync(); err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}
		dtype, err := safeTensorsDType(t.DType())
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}

		shape := make([]int64, len(t.Shape()))
		for i, dim := range t.Shape() {
			shape[i] = int64(dim)
		}

		size := int64(t.NBytes())
		header[name] = safeTensorHeader{
			DType:       dtype,
			Shape:       shape,
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, name := range names {
		if _, err := w.Write(tensors[name].Bytes()); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}

	return nil
}
