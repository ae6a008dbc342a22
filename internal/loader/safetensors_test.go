package loader

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tensordata/internal/device"
	"github.com/born-ml/tensordata/internal/tensor"
)

// createTestSafeTensorsFile creates a minimal SafeTensors file for testing.
func createTestSafeTensorsFile(t *testing.T, path string) {
	t.Helper()

	tensors := map[string]SafeTensorInfo{
		"weight": {
			DType:       SafeTensorsF32,
			Shape:       []int{2, 3},
			DataOffsets: [2]int64{0, 24}, // 2*3*4 = 24 bytes
		},
		"bias": {
			DType:       SafeTensorsI16,
			Shape:       []int{3},
			DataOffsets: [2]int64{24, 30}, // 3*2 = 6 bytes
		},
		"broken": {
			DType:       SafeTensorsI32,
			Shape:       []int{4},
			DataOffsets: [2]int64{30, 34}, // 4 bytes, needs 16
		},
	}

	headerMap := make(map[string]interface{})
	headerMap["__metadata__"] = map[string]string{"format": "pt"}
	for name, info := range tensors {
		headerMap[name] = info
	}

	headerJSON, err := json.Marshal(headerMap)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(headerJSON))))
	buf.Write(headerJSON)

	// weight: [2, 3] = [[1, 2, 3], [4, 5, 6]]
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, []float32{1, 2, 3, 4, 5, 6}))
	// bias: [3] = [-1, 0, 7]
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, []int16{-1, 0, 7}))
	// broken: only one int32
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(9)))

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func openTestReader(t *testing.T) *SafeTensorsReader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.safetensors")
	createTestSafeTensorsFile(t, path)

	reader, err := NewSafeTensorsReader(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })
	return reader
}

func TestNewSafeTensorsReader(t *testing.T) {
	reader := openTestReader(t)

	assert.Equal(t, "pt", reader.Metadata()["format"])
	assert.Equal(t, []string{"bias", "broken", "weight"}, reader.TensorNames())
}

func TestSafeTensorsReader_TensorInfo(t *testing.T) {
	reader := openTestReader(t)

	info, err := reader.TensorInfo("weight")
	require.NoError(t, err)
	assert.Equal(t, SafeTensorsF32, info.DType)
	assert.Equal(t, []int{2, 3}, info.Shape)

	_, err = reader.TensorInfo("nonexistent")
	assert.ErrorIs(t, err, ErrTensorNotFound)
}

func TestSafeTensorsReader_LoadTensor(t *testing.T) {
	reader := openTestReader(t)

	weight, err := reader.LoadTensor("weight")
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, weight.DType())
	assert.True(t, weight.Shape().Equal(tensor.Shape{2, 3}))

	data, ok := tensor.AsSlice[float32](weight)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, data)

	bias, err := reader.LoadTensor("bias")
	require.NoError(t, err)
	assert.Equal(t, "Tensor shape:[3] dtype:int16, value:[-1  0  7]", bias.String())
}

func TestSafeTensorsReader_LoadTensorLengthMismatch(t *testing.T) {
	reader := openTestReader(t)

	_, err := reader.LoadTensor("broken")
	assert.ErrorIs(t, err, tensor.ErrLengthMismatch)

	_, err = reader.LoadTensorAs("broken", tensor.Float64)
	assert.ErrorIs(t, err, tensor.ErrLengthMismatch)
}

func TestSafeTensorsReader_LoadTensorAs(t *testing.T) {
	reader := openTestReader(t)

	bias, err := reader.LoadTensorAs("bias", tensor.Float64)
	require.NoError(t, err)
	assert.Equal(t, tensor.Float64, bias.DType())

	data, ok := tensor.AsSlice[float64](bias)
	require.True(t, ok)
	assert.Equal(t, []float64{-1, 0, 7}, data)
}

func TestSafeTensorsDTypeMapping(t *testing.T) {
	for _, dt := range []tensor.DataType{
		tensor.Bool, tensor.Int8, tensor.Int16, tensor.Int32, tensor.Int64,
		tensor.Uint8, tensor.Uint16, tensor.Uint32, tensor.Uint64,
		tensor.Float16, tensor.Float32, tensor.Float64,
	} {
		name, err := safeTensorsDType(dt)
		require.NoError(t, err, dt.String())
		back, err := name.DataType()
		require.NoError(t, err)
		assert.Equal(t, dt, back)
	}

	_, err := SafeTensorsDType("BF16").DataType()
	assert.ErrorIs(t, err, tensor.ErrUnsupportedType)
}

func TestWriteSafeTensorsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.safetensors")

	mask, err := tensor.FromSlice([]uint8{1, 0, 1, 1}, tensor.Shape{2, 2}, tensor.Bool)
	require.NoError(t, err)
	ids, err := tensor.FromSlice([]int64{-5, 10, 1 << 40}, tensor.Shape{3}, tensor.Int64)
	require.NoError(t, err)
	half, err := tensor.FromSlice([]float32{0.5, -2}, tensor.Shape{2}, tensor.Float16)
	require.NoError(t, err)

	in := map[string]*tensor.Tensor{"mask": mask, "ids": ids, "half": half}
	require.NoError(t, WriteSafeTensors(path, in, map[string]string{"format": "tensordata"}))

	reader, err := NewSafeTensorsReader(path)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "tensordata", reader.Metadata()["format"])
	for name, want := range in {
		got, err := reader.LoadTensor(name)
		require.NoError(t, err, name)
		assert.True(t, got.ValueEqual(want), "%s: got %s want %s", name, got, want)
		assert.False(t, got.Equal(want), "%s: independent loads must not be identical", name)
	}
}

func TestEncodeSafeTensorsSyncsDevice(t *testing.T) {
	src, err := tensor.FromSlice([]int32{1, 2, 3}, tensor.Shape{3}, tensor.Int32)
	require.NoError(t, err)

	dst, err := tensor.New(tensor.Int32, tensor.Shape{3})
	require.NoError(t, err)
	dst.SetDeviceAddress(device.NewHostBuffer(tensor.CPU, src.Bytes()))

	var buf bytes.Buffer
	require.NoError(t, EncodeSafeTensors(&buf, map[string]*tensor.Tensor{"x": dst}, nil))

	data, _ := tensor.AsSlice[int32](dst)
	assert.Equal(t, []int32{1, 2, 3}, data)
	assert.True(t, bytes.HasSuffix(buf.Bytes(), src.Bytes()))
}

func TestEncodeSafeTensorsSyncFailure(t *testing.T) {
	dst, err := tensor.New(tensor.Int32, tensor.Shape{3})
	require.NoError(t, err)
	addr := device.NewHostBuffer(tensor.CPU, make([]byte, 12))
	addr.Release()
	dst.SetDeviceAddress(addr)

	err = EncodeSafeTensors(&bytes.Buffer{}, map[string]*tensor.Tensor{"x": dst}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tensor.ErrDeviceSync))
	assert.True(t, errors.Is(err, device.ErrReleased))
}
