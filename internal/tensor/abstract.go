package tensor

import "fmt"

// AbstractTensor is the symbolic form of a tensor used when building graphs.
// Value points back to the concrete tensor.
type AbstractTensor struct {
	DType DataType
	Shape Shape
	Value *Tensor
}

// String returns a compact description, e.g. "AbstractTensor(float32, [2 3])".
func (a *AbstractTensor) String() string {
	return fmt.Sprintf("AbstractTensor(%s, [%v])", a.DType, a.Shape)
}

// ToAbstract returns the abstract value of t.
func (t *Tensor) ToAbstract() (*AbstractTensor, error) {
	if !t.meta.dtype.IsNumber() {
		return nil, fmt.Errorf("%w but got: %s", ErrNotNumber, t.meta.dtype)
	}
	return &AbstractTensor{
		DType: t.meta.dtype,
		Shape: t.meta.shape.Clone(),
		Value: t,
	}, nil
}
