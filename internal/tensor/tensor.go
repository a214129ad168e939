// Package tensor provides the runtime-neutral tensor values passed between
// the conversion layer and model runners, together with the shape
// normalization helpers the conversions rely on (fixed-length framing,
// frame stacking, classification readout, embedding statistics).
package tensor

import (
	"fmt"
	"math"
	"strings"
)

type DType string

const (
	Float32 DType = "float32"
	Int64   DType = "int64"
)

// Tensor is an immutable dense tensor with an explicit shape.
// Data is copied in and out; callers cannot alias the backing slice.
type Tensor struct {
	dtype DType
	shape []int64
	data  any
}

// New builds a tensor from a flat data slice and a shape. The shape's element
// count must match len(data).
func New[T ~int64 | ~float32](data []T, shape []int64) (*Tensor, error) {
	dtype, err := dtypeFromSlice(data)
	if err != nil {
		return nil, err
	}
	if err := validateShapeAgainstData(shape, len(data)); err != nil {
		return nil, err
	}

	t := &Tensor{
		dtype: dtype,
		shape: append([]int64(nil), shape...),
	}
	switch dtype {
	case Float32:
		converted := make([]float32, len(data))
		for i, v := range data {
			converted[i] = float32(v)
		}
		t.data = converted
	case Int64:
		converted := make([]int64, len(data))
		for i, v := range data {
			converted[i] = int64(v)
		}
		t.data = converted
	default:
		return nil, fmt.Errorf("unsupported tensor dtype %q", dtype)
	}
	return t, nil
}

// Zeros builds an all-zero tensor of the given dtype and shape. The
// conversion layer uses it for placeholder outputs in compatibility mode.
func Zeros(dtype DType, shape []int64) (*Tensor, error) {
	count, err := elementCount(shape)
	if err != nil {
		return nil, err
	}

	switch dtype {
	case Float32:
		return New(make([]float32, count), shape)
	case Int64:
		return New(make([]int64, count), shape)
	default:
		return nil, fmt.Errorf("unsupported tensor dtype %q", dtype)
	}
}

func (t *Tensor) DType() DType {
	return t.dtype
}

func (t *Tensor) Shape() []int64 {
	return append([]int64(nil), t.shape...)
}

// Len returns the total number of elements.
func (t *Tensor) Len() int {
	n, _ := elementCount(t.shape)
	return n
}

// Data returns a copy of the backing slice as []float32 or []int64.
func (t *Tensor) Data() any {
	switch v := t.data.(type) {
	case []float32:
		return append([]float32(nil), v...)
	case []int64:
		return append([]int64(nil), v...)
	default:
		return nil
	}
}

// Float32s returns a copy of the backing data of a float32 tensor.
func (t *Tensor) Float32s() ([]float32, error) {
	data, ok := t.data.([]float32)
	if !ok {
		return nil, fmt.Errorf("expected float32 tensor, got %s", t.dtype)
	}
	return append([]float32(nil), data...), nil
}

// Int64s returns a copy of the backing data of an int64 tensor.
func (t *Tensor) Int64s() ([]int64, error) {
	data, ok := t.data.([]int64)
	if !ok {
		return nil, fmt.Errorf("expected int64 tensor, got %s", t.dtype)
	}
	return append([]int64(nil), data...), nil
}

// SameShape reports whether the tensor has exactly the given shape.
func (t *Tensor) SameShape(shape []int64) bool {
	if len(t.shape) != len(shape) {
		return false
	}
	for i, d := range t.shape {
		if d != shape[i] {
			return false
		}
	}
	return true
}

func dtypeFromSlice[T ~int64 | ~float32](data []T) (DType, error) {
	var zero T
	switch any(zero).(type) {
	case int64:
		return Int64, nil
	case float32:
		return Float32, nil
	default:
		return "", fmt.Errorf("unsupported tensor data type %T", zero)
	}
}

// CanonicalDType maps manifest dtype spellings ("float", "tensor(int64)",
// "long") onto the internal dtype names.
func CanonicalDType(raw string) (DType, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.TrimPrefix(normalized, "tensor(")
	normalized = strings.TrimSuffix(normalized, ")")
	switch normalized {
	case "float", "float32":
		return Float32, nil
	case "int64", "long":
		return Int64, nil
	default:
		return "", fmt.Errorf("unsupported tensor dtype %q", raw)
	}
}

func validateShapeAgainstData(shape []int64, dataLen int) error {
	count, err := elementCount(shape)
	if err != nil {
		return err
	}
	if count != dataLen {
		return fmt.Errorf("shape %v expects %d elements, got %d", shape, count, dataLen)
	}
	return nil
}

func elementCount(shape []int64) (int, error) {
	if len(shape) == 0 {
		return 1, nil
	}
	count := int64(1)
	for i, dim := range shape {
		if dim < 1 {
			return 0, fmt.Errorf("shape[%d]=%d is not positive", i, dim)
		}
		if count > math.MaxInt64/dim {
			return 0, fmt.Errorf("shape %v overflows element count", shape)
		}
		count *= dim
	}
	if count > int64(math.MaxInt) {
		return 0, fmt.Errorf("shape %v exceeds platform int capacity", shape)
	}
	return int(count), nil
}
