package models

import "fmt"

// Tensor is the dense row-major container exchanged with predictive models.
type Tensor struct {
	Shape []int     `json:"shape" msgpack:"shape"`
	Data  []float64 `json:"data" msgpack:"data"`
}

// NewTensor copies data into a tensor of the given shape.
func NewTensor(data []float64, shape ...int) (Tensor, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return Tensor{}, fmt.Errorf("negative dimension in shape %v", shape)
		}
		n *= d
	}
	if n != len(data) {
		return Tensor{}, fmt.Errorf("shape %v holds %d values, got %d", shape, n, len(data))
	}
	cp := make([]float64, len(data))
	copy(cp, data)
	return Tensor{Shape: append([]int(nil), shape...), Data: cp}, nil
}

// Scalar wraps a single value as a rank-0 tensor.
func Scalar(v float64) Tensor {
	return Tensor{Shape: []int{}, Data: []float64{v}}
}

// Size is the number of elements implied by the shape.
func (t Tensor) Size() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Rank is the number of dimensions.
func (t Tensor) Rank() int { return len(t.Shape) }

// ShapeEquals reports whether the tensor has exactly the given shape.
func (t Tensor) ShapeEquals(shape ...int) bool {
	if len(t.Shape) != len(shape) {
		return false
	}
	for i := range shape {
		if t.Shape[i] != shape[i] {
			return false
		}
	}
	return true
}
