package device

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/born-ml/tensordata/internal/tensor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHostBufferSync(t *testing.T) {
	src, err := tensor.FromSlice([]int32{4, 5, 6}, tensor.Shape{3}, tensor.Int32)
	require.NoError(t, err)

	buf := NewHostBuffer(tensor.Metal, src.Bytes())
	assert.Equal(t, tensor.Metal, buf.Device())
	assert.Equal(t, 12, buf.Len())

	dst, err := tensor.New(tensor.Int32, tensor.Shape{3})
	require.NoError(t, err)
	dst.SetDeviceAddress(buf)

	require.NoError(t, dst.DataSync())
	assert.True(t, dst.ValueEqual(src))

	// Device-side writes become visible on the next sync.
	patch, err := tensor.FromSlice([]int32{-1}, tensor.Shape{1}, tensor.Int32)
	require.NoError(t, err)
	require.NoError(t, buf.Write(4, patch.Bytes()))
	require.NoError(t, dst.DataSync())

	got, _ := tensor.AsSlice[int32](dst)
	assert.Equal(t, []int32{4, -1, 6}, got)
}

func TestHostBufferCopiesInput(t *testing.T) {
	data := []byte{1, 2}
	buf := NewHostBuffer(tensor.CPU, data)
	data[0] = 9

	dst := make([]byte, 2)
	require.NoError(t, buf.SyncDeviceToHost(tensor.Shape{2}, tensor.Uint8, dst))
	assert.Equal(t, []byte{1, 2}, dst)
}

func TestHostBufferEmpty(t *testing.T) {
	buf := NewHostBuffer(tensor.CPU, nil)
	require.NoError(t, buf.SyncDeviceToHost(tensor.Shape{0}, tensor.Float32, []byte{}))

	buf.Release()
	assert.ErrorIs(t, buf.SyncDeviceToHost(tensor.Shape{0}, tensor.Float32, []byte{}), ErrReleased)
}

func TestHostBufferSizeMismatch(t *testing.T) {
	buf := NewHostBuffer(tensor.CPU, make([]byte, 8))

	err := buf.SyncDeviceToHost(tensor.Shape{4}, tensor.Float32, make([]byte, 16))
	assert.ErrorIs(t, err, ErrSizeMismatch, "device smaller than request")

	err = buf.SyncDeviceToHost(tensor.Shape{2}, tensor.Float32, make([]byte, 4))
	assert.ErrorIs(t, err, ErrSizeMismatch, "host buffer smaller than request")

	assert.ErrorIs(t, buf.Write(6, []byte{1, 2, 3}), ErrSizeMismatch)
	assert.ErrorIs(t, buf.Write(-1, []byte{1}), ErrSizeMismatch)
}

func TestHostBufferRelease(t *testing.T) {
	buf := NewHostBuffer(tensor.CPU, make([]byte, 4))
	buf.Release()

	assert.Equal(t, 0, buf.Len())
	assert.ErrorIs(t, buf.Write(0, []byte{1}), ErrReleased)
	assert.ErrorIs(t, buf.SyncDeviceToHost(tensor.Shape{1}, tensor.Int32, make([]byte, 4)), ErrReleased)
}

func TestHostBufferConcurrentReaders(t *testing.T) {
	buf := NewHostBuffer(tensor.CPU, []byte{1, 2, 3, 4})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dst := make([]byte, 4)
			assert.NoError(t, buf.SyncDeviceToHost(tensor.Shape{4}, tensor.Uint8, dst))
			assert.Equal(t, []byte{1, 2, 3, 4}, dst)
		}()
	}
	wg.Wait()
}

func TestGPUBuffer(t *testing.T) {
	gpu, err := NewGPU()
	if err != nil {
		require.ErrorIs(t, err, ErrNotAvailable)
		t.Skipf("webgpu unavailable: %v", err)
	}
	defer gpu.Release()

	src, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, tensor.Float32)
	require.NoError(t, err)

	buf := gpu.Upload(src.Bytes())
	defer buf.Release()
	assert.Equal(t, tensor.WebGPU, buf.Device())

	dst, err := tensor.New(tensor.Float32, tensor.Shape{3})
	require.NoError(t, err)
	dst.SetDeviceAddress(buf)
	require.NoError(t, dst.DataSync())
	assert.True(t, dst.ValueEqual(src))
}
