//go:build windows

package device

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/tensordata/internal/tensor"
)

// copyAlignment is the WebGPU requirement for buffer copy sizes.
const copyAlignment = 4

// GPU owns a WebGPU device and queue used to hold tensor data.
type GPU struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	mu       sync.Mutex // serializes submissions and mapping
}

// NewGPU opens the default high-performance adapter.
// Returns ErrNotAvailable if WebGPU cannot be initialized.
func NewGPU() (gpu *GPU, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			gpu = nil
			err = fmt.Errorf("%w: webgpu native library: %v", ErrNotAvailable, r)
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNotAvailable, err)
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %w", ErrNotAvailable, err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %w", ErrNotAvailable, err)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: failed to get queue", ErrNotAvailable)
	}

	return &GPU{instance: instance, adapter: adapter, device: device, queue: queue}, nil
}

// Upload copies data into a new storage buffer.
func (g *GPU) Upload(data []byte) *GPUBuffer {
	size := alignedSize(uint64(len(data)))

	buffer := g.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mapped := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mapped, data)
	buffer.Unmap()

	return &GPUBuffer{gpu: g, buffer: buffer, size: uint64(len(data))}
}

// Release frees the device, adapter and instance. Buffers must be released first.
func (g *GPU) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.queue != nil {
		g.queue.Release()
		g.queue = nil
	}
	if g.device != nil {
		g.device.Release()
		g.device = nil
	}
	if g.adapter != nil {
		g.adapter.Release()
		g.adapter = nil
	}
	if g.instance != nil {
		g.instance.Release()
		g.instance = nil
	}
}

// read copies size bytes of src back to host memory through a staging buffer.
func (g *GPU) read(src *wgpu.Buffer, size uint64) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.device == nil {
		return nil, ErrReleased
	}

	aligned := alignedSize(size)
	staging := g.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  aligned,
	})
	defer staging.Release()

	encoder := g.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, aligned)
	cmdBuffer := encoder.Finish(nil)
	g.queue.Submit(cmdBuffer)

	if err := staging.MapAsync(g.device, wgpu.MapModeRead, 0, aligned); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := staging.GetMappedRange(0, aligned)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mapped := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mapped)
	staging.Unmap()

	return result, nil
}

// GPUBuffer is tensor data resident in a WebGPU storage buffer.
type GPUBuffer struct {
	gpu    *GPU
	buffer *wgpu.Buffer
	size   uint64
}

// Device implements tensor.DeviceAddress.
func (b *GPUBuffer) Device() tensor.Device {
	return tensor.WebGPU
}

// SyncDeviceToHost implements tensor.DeviceAddress.
func (b *GPUBuffer) SyncDeviceToHost(shape tensor.Shape, dtype tensor.DataType, dst []byte) error {
	if b.buffer == nil {
		return ErrReleased
	}
	want := uint64(shape.NumElements() * dtype.Size()) //nolint:gosec // G115: element counts are non-negative
	if want != uint64(len(dst)) || want > b.size {
		return fmt.Errorf("%w: %s [%v] needs %d bytes, host has %d, device has %d",
			ErrSizeMismatch, dtype, shape, want, len(dst), b.size)
	}
	if want == 0 {
		return nil
	}
	data, err := b.gpu.read(b.buffer, want)
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// Release frees the GPU buffer. Tensors borrowing it fail to sync afterwards.
func (b *GPUBuffer) Release() {
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
}

func alignedSize(size uint64) uint64 {
	if size == 0 {
		return copyAlignment
	}
	return (size + copyAlignment - 1) &^ (copyAlignment - 1)
}
