package tensor

import (
	"fmt"
	"math"
)

// maxElements keeps the byte size of any valid shape, at 8 bytes per element,
// within int.
const maxElements = math.MaxInt / 8

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
// A zero-length dimension yields zero elements.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that no dimension is negative and that the element count
// fits in maxElements.
func (s Shape) Validate() error {
	n := 1
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
		if dim > 0 && n > maxElements/dim {
			return fmt.Errorf("shape [%v] exceeds %d elements", s, maxElements)
		}
		n *= dim
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// String formats the shape as space separated dimensions, e.g. "2 3 4".
func (s Shape) String() string {
	out := make([]byte, 0, len(s)*3)
	for i, dim := range s {
		if i > 0 {
			out = append(out, ' ')
		}
		out = fmt.Appendf(out, "%d", dim)
	}
	return string(out)
}
