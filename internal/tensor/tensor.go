package tensor

import (
	"fmt"
	"strings"
	"unsafe"

	"go.uber.org/zap"
)

// smallTensorSize is the element count below which String includes values.
const smallTensorSize = 30

// Tensor is a shape-aware handle over a shared Storage.
//
// Clone shares the storage between handles; every operation that changes the
// element type builds a new storage instead of mutating the shared one, so
// aliasing handles always observe the same bytes.
//
// A Tensor is not safe for concurrent mutation. Concurrent reads of a
// materialized, synced tensor are fine.
type Tensor struct {
	meta     Meta
	data     Storage
	initFlag bool
	dirty    bool
	id       string
	device   DeviceAddress // borrowed, never released by the tensor
}

func newTensor(dtype DataType, shape Shape, data Storage) *Tensor {
	return &Tensor{
		meta:  NewMeta(dtype, shape),
		data:  data,
		dirty: true,
		id:    MakeID(),
	}
}

func validate(shape Shape) error {
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidShape, err)
	}
	return nil
}

// New creates a tensor whose memory is allocated on first access.
//
// Example:
//
//	t, _ := tensor.New(tensor.Float32, tensor.Shape{3, 4})
//	t.Storage().Materialized() // false
func New(dtype DataType, shape Shape) (*Tensor, error) {
	if err := validate(shape); err != nil {
		return nil, err
	}
	return newTensor(dtype, shape, NewStorage(dtype, shape)), nil
}

// NewFromBytes creates a tensor by copying data, which must hold exactly
// shape.NumElements() * dtype.Size() bytes in the host byte order.
func NewFromBytes(dtype DataType, shape Shape, data []byte) (*Tensor, error) {
	if err := validate(shape); err != nil {
		return nil, err
	}
	s, err := NewStorageFromBytes(dtype, shape, data)
	if err != nil {
		return nil, fmt.Errorf("new %s tensor [%v]: %w", dtype, shape, err)
	}
	return newTensor(dtype, shape, s), nil
}

// NewFromData creates a tensor of dtype from data holding elements of srcType,
// converting each element.
func NewFromData(dtype DataType, shape Shape, data []byte, srcType DataType) (*Tensor, error) {
	if err := validate(shape); err != nil {
		return nil, err
	}
	s, err := NewStorageFromData(dtype, shape, data, srcType)
	if err != nil {
		return nil, fmt.Errorf("new %s tensor [%v] from %s: %w", dtype, shape, srcType, err)
	}
	return newTensor(dtype, shape, s), nil
}

// FromSlice creates a tensor of dtype from values.
// len(values) must equal shape.NumElements().
//
// Example:
//
//	t, _ := tensor.FromSlice([]int64{1, 2, 3}, tensor.Shape{3}, tensor.Int32)
func FromSlice[S Element](values []S, shape Shape, dtype DataType) (*Tensor, error) {
	if err := validate(shape); err != nil {
		return nil, err
	}
	s, err := NewStorageFromSlice(dtype, shape, values)
	if err != nil {
		return nil, err
	}
	return newTensor(dtype, shape, s), nil
}

// Scalar creates a 0-D tensor of dtype holding value.
func Scalar[S Element](value S, dtype DataType) *Tensor {
	s, err := NewStorageFromScalar(dtype, Shape{}, value)
	if err != nil {
		panic(err) // Shape{} always has one element
	}
	return newTensor(dtype, Shape{}, s)
}

// Clone returns a handle sharing t's storage, metadata, flags and identifier.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		meta:     NewMeta(t.meta.dtype, t.meta.shape),
		data:     t.data,
		initFlag: t.initFlag,
		dirty:    t.dirty,
		id:       t.id,
		device:   t.device,
	}
}

// CloneAs returns a handle of dtype. For the same dtype this is Clone;
// otherwise every element is converted into a new storage.
func (t *Tensor) CloneAs(dtype DataType) *Tensor {
	if dtype == t.meta.dtype {
		return t.Clone()
	}
	c := t.Clone()
	c.meta.dtype = dtype
	c.data = t.convert(dtype)
	return c
}

// convert builds a new storage of dtype from t's current values.
func (t *Tensor) convert(dtype DataType) Storage {
	s, err := NewStorageFromData(dtype, t.meta.shape, t.data.Bytes(), t.meta.dtype)
	if err != nil {
		// The source bytes always cover the declared size.
		panic(fmt.Sprintf("convert %s to %s: %v", t.meta.dtype, dtype, err))
	}
	logger().Debug("tensor storage converted",
		zap.String("id", t.id),
		zap.Stringer("from", t.meta.dtype),
		zap.Stringer("to", dtype),
		zap.Int("elements", s.Size()))
	return s
}

// AssignValue makes t an alias of other: metadata, flags, device address,
// storage and identifier are taken from other. Assigning a tensor to itself
// is a no-op.
func (t *Tensor) AssignValue(other *Tensor) *Tensor {
	if t != other {
		t.meta = NewMeta(other.meta.dtype, other.meta.shape)
		t.dirty = other.dirty
		t.device = other.device
		t.data = other.data
		t.id = other.id
	}
	return t
}

// Equal reports identity: the same handle, or equal metadata over the very
// same storage instance.
func (t *Tensor) Equal(other *Tensor) bool {
	return t == other || (t.meta.Equal(&other.meta) && t.data == other.data)
}

// ValueEqual reports equal metadata and equal storage contents.
func (t *Tensor) ValueEqual(other *Tensor) bool {
	return t == other || (t.meta.Equal(&other.meta) && t.data.Equals(other.data))
}

// SetDataType converts t to dtype and returns the previous data type.
// Handles sharing the old storage are not affected.
func (t *Tensor) SetDataType(dtype DataType) DataType {
	prev := t.meta.dtype
	if dtype != prev {
		t.data = t.convert(dtype)
		t.meta.SetDType(dtype)
	}
	return prev
}

// DataSync copies device-resident data into the host buffer when t has a
// device address. A failed sync leaves the host data undefined.
func (t *Tensor) DataSync() error {
	if t.device == nil {
		return nil
	}
	dst := t.data.Bytes()
	if err := t.device.SyncDeviceToHost(t.meta.shape, t.meta.dtype, dst); err != nil {
		logger().Error("tensor device sync failed",
			zap.String("id", t.id),
			zap.Stringer("device", t.device.Device()),
			zap.Error(err))
		return fmt.Errorf("%w: tensor %s on %s: %w", ErrDeviceSync, t.id, t.device.Device(), err)
	}
	logger().Debug("tensor synced from device",
		zap.String("id", t.id),
		zap.Stringer("device", t.device.Device()),
		zap.Int("bytes", len(dst)))
	return nil
}

// ID returns the tensor identifier.
func (t *Tensor) ID() string { return t.id }

// Meta returns a copy of the metadata.
func (t *Tensor) Meta() Meta { return NewMeta(t.meta.dtype, t.meta.shape) }

// DType returns the data type.
func (t *Tensor) DType() DataType { return t.meta.dtype }

// Shape returns the tensor shape. The result must not be modified.
func (t *Tensor) Shape() Shape { return t.meta.shape }

// NDim returns the number of dimensions.
func (t *Tensor) NDim() int { return t.data.NDim() }

// Size returns the element count.
func (t *Tensor) Size() int { return t.data.Size() }

// NBytes returns the storage size in bytes.
func (t *Tensor) NBytes() int { return t.data.NBytes() }

// Storage returns the underlying, possibly shared, storage.
func (t *Tensor) Storage() Storage { return t.data }

// Data returns a pointer to the host buffer, allocating it if needed.
func (t *Tensor) Data() unsafe.Pointer { return t.data.Data() }

// Bytes returns a byte view of the host buffer, allocating it if needed.
//
// WARNING: the view aliases storage shared with clones.
func (t *Tensor) Bytes() []byte { return t.data.Bytes() }

// Dirty reports whether the host data may differ from the device copy.
func (t *Tensor) Dirty() bool { return t.dirty }

// SetDirty sets the dirty flag.
func (t *Tensor) SetDirty(dirty bool) { t.dirty = dirty }

// InitFlag reports whether the tensor has been initialized by its producer.
func (t *Tensor) InitFlag() bool { return t.initFlag }

// SetInitFlag sets the init flag.
func (t *Tensor) SetInitFlag(flag bool) { t.initFlag = flag }

// DeviceAddress returns the borrowed device reference, or nil.
func (t *Tensor) DeviceAddress() DeviceAddress { return t.device }

// SetDeviceAddress sets the borrowed device reference.
func (t *Tensor) SetDeviceAddress(addr DeviceAddress) { t.device = addr }

// AsSlice returns the tensor elements as []T, materializing the buffer.
// It reports false when T is not the storage type of the tensor (uint8 for Bool).
func AsSlice[T Element](t *Tensor) ([]T, bool) {
	return Values[T](t.data)
}

// ShapeAndDataTypeInfo returns the header shared by String and StringRepr.
func (t *Tensor) ShapeAndDataTypeInfo() string {
	return fmt.Sprintf("Tensor shape:[%v] dtype:%s", t.meta.shape, t.meta.dtype)
}

// String renders the header and, for tensors under 30 elements, the values.
// It does not sync from the device; use Inspect for that.
func (t *Tensor) String() string {
	var b strings.Builder
	b.WriteString(t.ShapeAndDataTypeInfo())
	if t.Size() < smallTensorSize {
		b.WriteString(", value:")
		b.WriteString(t.data.String(t.meta.dtype, t.meta.shape))
	}
	return b.String()
}

// StringRepr renders the header and the (summarized) values.
func (t *Tensor) StringRepr() string {
	var b strings.Builder
	b.WriteString(t.ShapeAndDataTypeInfo())
	b.WriteString("\nvalue:")
	b.WriteString(t.data.String(t.meta.dtype, t.meta.shape))
	return b.String()
}

// Inspect syncs from the device and renders t, in full (StringRepr) or
// short (String) form.
func (t *Tensor) Inspect(full bool) (string, error) {
	if err := t.DataSync(); err != nil {
		return "", err
	}
	if full {
		return t.StringRepr(), nil
	}
	return t.String(), nil
}
