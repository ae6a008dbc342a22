// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loader reads and writes tensor files for tensordata.
//
// This package wraps the internal SafeTensors reader and writer and exports a
// clean public API.
//
// Example usage:
//
//	import "github.com/born-ml/tensordata/loader"
//
//	r, err := loader.Open("weights.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	for _, name := range r.TensorNames() {
//	    t, err := r.LoadTensor(name)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(name, t)
//	}
package loader

import (
	"io"

	"github.com/born-ml/tensordata/internal/loader"
	"github.com/born-ml/tensordata/tensor"
)

// Reader reads tensors from a SafeTensors file.
type Reader interface {
	// Metadata returns the free-form metadata of the file.
	Metadata() map[string]string
	// TensorNames returns the tensor names, sorted.
	TensorNames() []string
	// LoadTensor reads a tensor with its stored data type.
	LoadTensor(name string) (*tensor.Tensor, error)
	// LoadTensorAs reads a tensor and converts it to dtype.
	LoadTensorAs(name string, dtype tensor.DataType) (*tensor.Tensor, error)
	// Close releases the file.
	Close() error
}

// Errors returned by readers.
var (
	ErrTensorNotFound = loader.ErrTensorNotFound
	ErrOutOfBounds    = loader.ErrOutOfBounds
)

// Open opens a SafeTensors file with buffered reads.
func Open(path string) (Reader, error) {
	r, err := loader.NewSafeTensorsReader(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// OpenMapped opens a SafeTensors file through a read-only memory mapping.
func OpenMapped(path string) (Reader, error) {
	r, err := loader.NewMmapReader(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Save writes tensors and metadata to a SafeTensors file at path.
// Tensors with a device address are synced first.
func Save(path string, tensors map[string]*tensor.Tensor, metadata map[string]string) error {
	return loader.WriteSafeTensors(path, tensors, metadata)
}

// Encode writes tensors and metadata in SafeTensors format to w.
func Encode(w io.Writer, tensors map[string]*tensor.Tensor, metadata map[string]string) error {
	return loader.EncodeSafeTensors(w, tensors, metadata)
}
