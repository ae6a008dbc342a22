// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"go.uber.org/zap"

	"github.com/born-ml/tensordata/internal/tensor"
)

// Type aliases for public API

// Element is a constraint for the Go types backing a storage buffer.
// Bool is stored as uint8 and Float16 as float16.Float16.
type Element = tensor.Element

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Bool    DataType = tensor.Bool
	Int8    DataType = tensor.Int8
	Int16   DataType = tensor.Int16
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Uint16  DataType = tensor.Uint16
	Uint32  DataType = tensor.Uint32
	Uint64  DataType = tensor.Uint64
	Float16 DataType = tensor.Float16
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device represents the device where a tensor's device-side copy resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	Vulkan Device = tensor.Vulkan
	Metal  Device = tensor.Metal
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is a shape-aware handle over a shared Storage.
type Tensor = tensor.Tensor

// Storage is the type-erased flat buffer behind a Tensor.
type Storage = tensor.Storage

// Meta carries the data type and shape of a tensor.
type Meta = tensor.Meta

// DeviceAddress is a borrowed reference to device-resident tensor memory.
type DeviceAddress = tensor.DeviceAddress

// AbstractTensor is the symbolic form of a tensor.
type AbstractTensor = tensor.AbstractTensor

// Errors returned by tensor constructors and DataSync.
var (
	ErrUnsupportedType = tensor.ErrUnsupportedType
	ErrLengthMismatch  = tensor.ErrLengthMismatch
	ErrDeviceSync      = tensor.ErrDeviceSync
	ErrNotNumber       = tensor.ErrNotNumber
	ErrInvalidShape    = tensor.ErrInvalidShape
)

// Creation functions

// New creates a tensor whose memory is allocated on first access.
func New(dtype DataType, shape Shape) (*Tensor, error) {
	return tensor.New(dtype, shape)
}

// NewFromBytes creates a tensor by copying exactly
// shape.NumElements() * dtype.Size() bytes from data.
func NewFromBytes(dtype DataType, shape Shape, data []byte) (*Tensor, error) {
	return tensor.NewFromBytes(dtype, shape, data)
}

// NewFromData creates a tensor of dtype from data holding elements of srcType.
func NewFromData(dtype DataType, shape Shape, data []byte, srcType DataType) (*Tensor, error) {
	return tensor.NewFromData(dtype, shape, data, srcType)
}

// FromSlice creates a tensor of dtype from values.
//
// Example:
//
//	x, err := tensor.FromSlice([]float64{0.5, 1.5}, tensor.Shape{2}, tensor.Float16)
func FromSlice[S Element](values []S, shape Shape, dtype DataType) (*Tensor, error) {
	return tensor.FromSlice(values, shape, dtype)
}

// FromSliceDefault creates a tensor using the default data type for S:
// Int32 for integers, Float32 for floating point.
func FromSliceDefault[S Element](values []S, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(values, shape, tensor.DefaultDataType[S]())
}

// Scalar creates a 0-D tensor of dtype holding value.
func Scalar[S Element](value S, dtype DataType) *Tensor {
	return tensor.Scalar(value, dtype)
}

// AsSlice returns the tensor elements as []T, or false when T is not the
// storage type of the tensor.
func AsSlice[T Element](t *Tensor) ([]T, bool) {
	return tensor.AsSlice[T](t)
}

// ParseDataType converts a name such as "float32" to a DataType.
func ParseDataType(name string) (DataType, error) {
	return tensor.ParseDataType(name)
}

// MakeID returns a new process-unique tensor identifier.
func MakeID() string {
	return tensor.MakeID()
}

// SetLogger sets the logger used for conversion and device sync events.
func SetLogger(l *zap.Logger) {
	tensor.SetLogger(l)
}
