// Package params translates between named, possibly multi-dimensional
// parameters and the single flat vector a numerical minimizer understands.
//
// A Layout assigns each parameter a disjoint, contiguous block of flat
// indices in declaration order; the blocks partition [0, Len()) exactly.
// Unflatten is the mathematical inverse of Flatten for values matching the
// declared shapes, and a scalar parameter round-trips as a scalar, never as a
// one-element array.
package params

import (
	"fmt"

	"github.com/thoinka/optimazing/core/tensor"
	"github.com/thoinka/optimazing/pkg/errors"
)

// Layout is an immutable mapping from parameter names to index blocks within
// one flat vector.
type Layout struct {
	names   []string
	shapes  map[string][]int
	offsets map[string]int
	total   int
}

// FromValues builds a layout from parameter names in declaration order and
// their initial values, whose shapes become the declared shapes.
func FromValues(names []string, values map[string]*tensor.Tensor) (*Layout, error) {
	l := &Layout{
		names:   append([]string{}, names...),
		shapes:  make(map[string][]int, len(names)),
		offsets: make(map[string]int, len(names)),
	}
	for _, name := range names {
		v, ok := values[name]
		if !ok {
			return nil, errors.NewInputResolutionError("Layout", name, "no value to derive a shape from")
		}
		l.shapes[name] = v.Shape()
		l.offsets[name] = l.total
		l.total += v.Size()
	}
	return l, nil
}

// Names returns the parameter names in layout order.
func (l *Layout) Names() []string {
	return append([]string{}, l.names...)
}

// Shape returns the declared shape of a parameter.
func (l *Layout) Shape(name string) ([]int, bool) {
	s, ok := l.shapes[name]
	if !ok {
		return nil, false
	}
	return append([]int{}, s...), true
}

// Len returns the total flat vector length, the sum of all parameter sizes.
func (l *Layout) Len() int {
	return l.total
}

// Flatten concatenates the named values in layout order into one flat
// vector. Every declared name must be present with its declared shape.
func (l *Layout) Flatten(values map[string]*tensor.Tensor) ([]float64, error) {
	flat := make([]float64, 0, l.total)
	for _, name := range l.names {
		v, ok := values[name]
		if !ok {
			return nil, errors.NewInputResolutionError("Flatten", name, "value missing")
		}
		if !shapeEqual(v.Shape(), l.shapes[name]) {
			return nil, errors.NewInputResolutionError("Flatten", name,
				fmt.Sprintf("shape mismatch: declared %v, got %v", l.shapes[name], v.Shape()))
		}
		flat = append(flat, v.Data()...)
	}
	return flat, nil
}

// Unflatten slices a flat vector back into named values with their declared
// shapes. It is the inverse of Flatten.
func (l *Layout) Unflatten(flat []float64) (map[string]*tensor.Tensor, error) {
	if len(flat) != l.total {
		return nil, errors.NewDimensionError("Unflatten", l.total, len(flat))
	}
	values := make(map[string]*tensor.Tensor, len(l.names))
	for _, name := range l.names {
		shape := l.shapes[name]
		start := l.offsets[name]
		size := blockSize(shape)
		v, err := tensor.New(flat[start:start+size], shape...)
		if err != nil {
			return nil, err
		}
		values[name] = v
	}
	return values, nil
}

func blockSize(shape []int) int {
	size := 1
	for _, s := range shape {
		size *= s
	}
	return size
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
