// Package tensor provides scalar and array-shaped numeric values for
// parameter fitting.
//
// A Tensor is an immutable-shape, N-dimensional array of float64 with a
// dedicated scalar form (empty shape). The scalar/array distinction is
// preserved end-to-end through fitting: a scalar parameter unflattens back to
// a scalar, never to a one-element array, which affects how its fitted value
// and uncertainty are reported.
package tensor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thoinka/optimazing/pkg/errors"
)

// Tensor is an N-dimensional array of float64. An empty shape denotes a
// scalar holding exactly one element.
type Tensor struct {
	data  []float64
	shape []int
}

// New creates a new tensor with the given shape. With no shape, data must
// hold exactly one element and the result is a scalar.
func New(data []float64, shape ...int) (*Tensor, error) {
	size := 1
	for _, s := range shape {
		if s < 0 {
			return nil, errors.NewValueError("New", "all dimensions must be non-negative")
		}
		size *= s
	}
	if len(data) != size {
		return nil, errors.NewDimensionError("New", size, len(data))
	}
	return &Tensor{
		data:  append([]float64{}, data...),
		shape: append([]int{}, shape...),
	}, nil
}

// Scalar creates a scalar tensor.
func Scalar(v float64) *Tensor {
	return &Tensor{data: []float64{v}}
}

// FromSlice creates a 1-D tensor from a slice.
func FromSlice(v []float64) *Tensor {
	return &Tensor{
		data:  append([]float64{}, v...),
		shape: []int{len(v)},
	}
}

// Zeros creates a zero-filled tensor of the given shape.
func Zeros(shape ...int) (*Tensor, error) {
	return Full(0, shape...)
}

// Ones creates a one-filled tensor of the given shape.
func Ones(shape ...int) (*Tensor, error) {
	return Full(1, shape...)
}

// Full creates a tensor of the given shape with every element set to value.
// With no shape the result is a scalar.
func Full(value float64, shape ...int) (*Tensor, error) {
	size := 1
	for _, s := range shape {
		if s < 0 {
			return nil, errors.NewValueError("Full", "all dimensions must be non-negative")
		}
		size *= s
	}
	data := make([]float64, size)
	for i := range data {
		data[i] = value
	}
	return &Tensor{data: data, shape: append([]int{}, shape...)}, nil
}

// FromAny coerces a numeric Go value into a tensor. Accepted types are
// float64, float32, int variants, []float64, [][]float64 (rows of equal
// length) and *Tensor. Anything else is rejected.
func FromAny(v interface{}) (*Tensor, error) {
	switch x := v.(type) {
	case *Tensor:
		return x.Copy(), nil
	case float64:
		return Scalar(x), nil
	case float32:
		return Scalar(float64(x)), nil
	case int:
		return Scalar(float64(x)), nil
	case int32:
		return Scalar(float64(x)), nil
	case int64:
		return Scalar(float64(x)), nil
	case []float64:
		return FromSlice(x), nil
	case [][]float64:
		if len(x) == 0 {
			return New(nil, 0, 0)
		}
		cols := len(x[0])
		data := make([]float64, 0, len(x)*cols)
		for _, row := range x {
			if len(row) != cols {
				return nil, errors.NewValueError("FromAny", "rows must have equal length")
			}
			data = append(data, row...)
		}
		return New(data, len(x), cols)
	default:
		return nil, errors.NewValueError("FromAny", fmt.Sprintf("unsupported type %T", v))
	}
}

// IsScalar reports whether the tensor is a scalar (empty shape).
func (t *Tensor) IsScalar() bool {
	return len(t.shape) == 0
}

// Shape returns a copy of the tensor's shape. A scalar has an empty shape.
func (t *Tensor) Shape() []int {
	return append([]int{}, t.shape...)
}

// Size returns the number of elements.
func (t *Tensor) Size() int {
	return len(t.data)
}

// Float returns the value of a scalar tensor. It panics on non-scalar input;
// shapes are validated before values reach user model functions, so inside a
// model function the accessors never fail for declared parameters.
func (t *Tensor) Float() float64 {
	if !t.IsScalar() {
		panic(fmt.Sprintf("tensor: Float called on tensor with shape %v", t.shape))
	}
	return t.data[0]
}

// At returns the element at the given multi-dimensional index. A scalar is
// addressed with no indices.
func (t *Tensor) At(indices ...int) float64 {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("tensor: At got %d indices for shape %v", len(indices), t.shape))
	}
	flat := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for axis %d (size %d)", idx, i, t.shape[i]))
		}
		flat = flat*t.shape[i] + idx
	}
	return t.data[flat]
}

// Data returns the underlying flat data in row-major order.
// Note: this is a reference, not a copy; mutate with care.
func (t *Tensor) Data() []float64 {
	return t.data
}

// RawData returns a copy of the flat data in row-major order.
func (t *Tensor) RawData() []float64 {
	return append([]float64{}, t.data...)
}

// Copy creates a deep copy of the tensor.
func (t *Tensor) Copy() *Tensor {
	return &Tensor{
		data:  append([]float64{}, t.data...),
		shape: append([]int{}, t.shape...),
	}
}

// Reshape returns a tensor with the same data and a new shape. The element
// count must be unchanged.
func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	newSize := 1
	for _, s := range shape {
		if s < 0 {
			return nil, errors.NewValueError("Reshape", "all dimensions must be non-negative")
		}
		newSize *= s
	}
	if newSize != len(t.data) {
		return nil, errors.Newf("cannot reshape tensor of size %d to size %d", len(t.data), newSize)
	}
	return &Tensor{
		data:  append([]float64{}, t.data...),
		shape: append([]int{}, shape...),
	}, nil
}

// SameShape reports whether two tensors have identical shapes, including the
// scalar/array distinction.
func (t *Tensor) SameShape(other *Tensor) bool {
	if len(t.shape) != len(other.shape) {
		return false
	}
	for i := range t.shape {
		if t.shape[i] != other.shape[i] {
			return false
		}
	}
	return true
}

// String renders a scalar as a plain number and an array with nested
// brackets, e.g. "[1 2 3]" or "[[1 2] [3 4]]".
func (t *Tensor) String() string {
	if t.IsScalar() {
		return strconv.FormatFloat(t.data[0], 'g', -1, 64)
	}
	var render func(shape []int, data []float64) string
	render = func(shape []int, data []float64) string {
		if len(shape) == 1 {
			parts := make([]string, len(data))
			for i, v := range data {
				parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			return "[" + strings.Join(parts, " ") + "]"
		}
		stride := 1
		for _, s := range shape[1:] {
			stride *= s
		}
		parts := make([]string, shape[0])
		for i := 0; i < shape[0]; i++ {
			parts[i] = render(shape[1:], data[i*stride:(i+1)*stride])
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return render(t.shape, t.data)
}
