package tensor

// Meta carries the data type and shape of a tensor.
type Meta struct {
	dtype DataType
	shape Shape
}

// NewMeta creates metadata for dtype and shape. The shape is copied.
func NewMeta(dtype DataType, shape Shape) Meta {
	return Meta{dtype: dtype, shape: shape.Clone()}
}

// DType returns the data type.
func (m *Meta) DType() DataType {
	return m.dtype
}

// SetDType sets the data type and returns it.
func (m *Meta) SetDType(dtype DataType) DataType {
	m.dtype = dtype
	return dtype
}

// Shape returns the shape.
func (m *Meta) Shape() Shape {
	return m.shape
}

// SetShape replaces the shape and returns the new element count.
func (m *Meta) SetShape(shape Shape) int {
	m.shape = shape.Clone()
	return m.shape.NumElements()
}

// NumElements returns the element count described by the shape.
func (m *Meta) NumElements() int {
	return m.shape.NumElements()
}

// DimensionSize returns the size of dimension index, or -1 if out of range.
func (m *Meta) DimensionSize(index int) int {
	if index < 0 || index >= len(m.shape) {
		return -1
	}
	return m.shape[index]
}

// ByteSize returns NumElements() * DType().Size().
func (m *Meta) ByteSize() int {
	return m.NumElements() * m.dtype.Size()
}

// Equal reports whether both data type and shape match.
func (m *Meta) Equal(other *Meta) bool {
	return m.dtype == other.dtype && m.shape.Equal(other.shape)
}
