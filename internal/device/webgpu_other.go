//go:build !windows

package device

import (
	"fmt"
	"runtime"

	"github.com/born-ml/tensordata/internal/tensor"
)

// GPU is unavailable on this platform.
type GPU struct{}

// NewGPU always returns ErrNotAvailable on this platform.
func NewGPU() (*GPU, error) {
	return nil, fmt.Errorf("%w: webgpu is not supported on %s", ErrNotAvailable, runtime.GOOS)
}

// Upload is never reachable since NewGPU fails.
func (g *GPU) Upload(_ []byte) *GPUBuffer {
	return &GPUBuffer{}
}

// Release is a no-op.
func (g *GPU) Release() {}

// GPUBuffer is unavailable on this platform.
type GPUBuffer struct{}

// Device implements tensor.DeviceAddress.
func (b *GPUBuffer) Device() tensor.Device {
	return tensor.WebGPU
}

// SyncDeviceToHost implements tensor.DeviceAddress.
func (b *GPUBuffer) SyncDeviceToHost(_ tensor.Shape, _ tensor.DataType, _ []byte) error {
	return ErrNotAvailable
}

// Release is a no-op.
func (b *GPUBuffer) Release() {}
