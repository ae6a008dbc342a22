package loader

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tensordata/internal/tensor"
)

func TestMmapReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.safetensors")
	createTestSafeTensorsFile(t, path)

	reader, err := NewMmapReader(path)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "pt", reader.Metadata()["format"])
	assert.Equal(t, []string{"bias", "broken", "weight"}, reader.TensorNames())

	raw, err := reader.TensorData("weight")
	require.NoError(t, err)
	assert.Len(t, raw, 24)

	weight, err := reader.LoadTensor("weight")
	require.NoError(t, err)
	data, _ := tensor.AsSlice[float32](weight)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, data)

	bias, err := reader.LoadTensorAs("bias", tensor.Int64)
	require.NoError(t, err)
	ids, _ := tensor.AsSlice[int64](bias)
	assert.Equal(t, []int64{-1, 0, 7}, ids)

	_, err = reader.LoadTensor("broken")
	assert.ErrorIs(t, err, tensor.ErrLengthMismatch)
	_, err = reader.LoadTensor("missing")
	assert.ErrorIs(t, err, ErrTensorNotFound)
}

func TestMmapReaderMatchesFileReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.safetensors")
	createTestSafeTensorsFile(t, path)

	mapped, err := NewMmapReader(path)
	require.NoError(t, err)
	defer mapped.Close()
	plain, err := NewSafeTensorsReader(path)
	require.NoError(t, err)
	defer plain.Close()

	for _, name := range []string{"weight", "bias"} {
		a, err := mapped.LoadTensor(name)
		require.NoError(t, err)
		b, err := plain.LoadTensor(name)
		require.NoError(t, err)
		assert.True(t, a.ValueEqual(b), name)
	}
}

func TestMmapReaderClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.safetensors")
	createTestSafeTensorsFile(t, path)

	reader, err := NewMmapReader(path)
	require.NoError(t, err)

	weight, err := reader.LoadTensor("weight")
	require.NoError(t, err)

	require.NoError(t, reader.Close())
	require.NoError(t, reader.Close(), "second close is a no-op")

	_, err = reader.TensorData("weight")
	assert.ErrorIs(t, err, ErrClosed)

	data, _ := tensor.AsSlice[float32](weight)
	assert.Equal(t, float32(6), data[5], "loaded tensors outlive the mapping")
}

func TestReadersRejectOutOfBounds(t *testing.T) {
	header := []byte(`{"big":{"dtype":"U8","shape":[64],"data_offsets":[0,64]}}`)
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(header))))
	buf.Write(header)
	buf.Write(make([]byte, 16))

	path := filepath.Join(t.TempDir(), "short.safetensors")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	plain, err := NewSafeTensorsReader(path)
	require.NoError(t, err)
	defer plain.Close()
	_, err = plain.LoadTensor("big")
	assert.ErrorIs(t, err, ErrOutOfBounds)

	mapped, err := NewMmapReader(path)
	require.NoError(t, err)
	defer mapped.Close()
	_, err = mapped.LoadTensor("big")
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestReadersRejectOverflowingShape(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("dimension does not fit in int")
	}
	// 4611686018427387905 * 4 wraps to 4 elements in 64-bit int.
	header := []byte(`{"wrap":{"dtype":"I8","shape":[4611686018427387905,4],"data_offsets":[0,4]}}`)
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(header))))
	buf.Write(header)
	buf.Write([]byte{1, 2, 3, 4})

	path := filepath.Join(t.TempDir(), "wrap.safetensors")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	plain, err := NewSafeTensorsReader(path)
	require.NoError(t, err)
	defer plain.Close()

	mapped, err := NewMmapReader(path)
	require.NoError(t, err)
	defer mapped.Close()

	for name, r := range map[string]interface {
		LoadTensor(string) (*tensor.Tensor, error)
		LoadTensorAs(string, tensor.DataType) (*tensor.Tensor, error)
	}{"file": plain, "mmap": mapped} {
		t.Run(name, func(t *testing.T) {
			_, err := r.LoadTensor("wrap")
			assert.ErrorIs(t, err, tensor.ErrInvalidShape)
			_, err = r.LoadTensorAs("wrap", tensor.Float32)
			assert.ErrorIs(t, err, tensor.ErrInvalidShape)
		})
	}
}

func TestMmapReaderInvalidHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.safetensors")
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(1<<20)))
	buf.WriteString("{}")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	_, err := NewMmapReader(path)
	assert.Error(t, err)
}
