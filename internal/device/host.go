// Package device provides tensor.DeviceAddress implementations: a host-memory
// mirror and, on supported platforms, WebGPU buffers.
package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/born-ml/tensordata/internal/tensor"
)

// Common errors.
var (
	ErrReleased     = errors.New("device buffer released")
	ErrSizeMismatch = errors.New("device buffer size mismatch")
	ErrNotAvailable = errors.New("device not available")
)

// HostBuffer is device memory simulated in host RAM. It is what CPU-side
// producers hand to tensors, and what tests use to exercise DataSync.
type HostBuffer struct {
	mu     sync.RWMutex
	device tensor.Device
	data   []byte
}

// NewHostBuffer copies data into a new buffer reporting itself as device.
func NewHostBuffer(device tensor.Device, data []byte) *HostBuffer {
	return &HostBuffer{
		device: device,
		data:   append(make([]byte, 0, len(data)), data...),
	}
}

// Device implements tensor.DeviceAddress.
func (h *HostBuffer) Device() tensor.Device {
	return h.device
}

// Len returns the buffer size in bytes, 0 once released.
func (h *HostBuffer) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.data)
}

// Write replaces the device-side bytes starting at offset.
func (h *HostBuffer) Write(offset int, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.data == nil {
		return ErrReleased
	}
	if offset < 0 || offset+len(data) > len(h.data) {
		return fmt.Errorf("%w: write [%d, %d) into %d bytes", ErrSizeMismatch, offset, offset+len(data), len(h.data))
	}
	copy(h.data[offset:], data)
	return nil
}

// SyncDeviceToHost implements tensor.DeviceAddress.
func (h *HostBuffer) SyncDeviceToHost(shape tensor.Shape, dtype tensor.DataType, dst []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.data == nil {
		return ErrReleased
	}
	want := shape.NumElements() * dtype.Size()
	if want != len(dst) || want > len(h.data) {
		return fmt.Errorf("%w: %s [%v] needs %d bytes, host has %d, device has %d",
			ErrSizeMismatch, dtype, shape, want, len(dst), len(h.data))
	}
	copy(dst, h.data[:want])
	return nil
}

// Release drops the device-side bytes. Tensors holding the buffer fail to sync
// afterwards.
func (h *HostBuffer) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.data = nil
}
