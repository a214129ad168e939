package tensor

import (
	"fmt"
)

// Stack concatenates float32 tensors of identical shape along a new axis
// inserted at position 1, so N frames of shape [1, ...dims] become
// [1, N, ...dims]. This is how generated video frames are assembled.
func Stack(frames []*Tensor) (*Tensor, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to stack")
	}

	first := frames[0].Shape()
	if len(first) < 1 || first[0] != 1 {
		return nil, fmt.Errorf("frames must have a leading batch dim of 1, got shape %v", first)
	}

	var combined []float32
	for i, f := range frames {
		if !f.SameShape(first) {
			return nil, fmt.Errorf("frame %d has shape %v, want %v", i, f.Shape(), first)
		}
		data, err := f.Float32s()
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		combined = append(combined, data...)
	}

	outShape := make([]int64, 0, len(first)+1)
	outShape = append(outShape, first[0], int64(len(frames)))
	outShape = append(outShape, first[1:]...)

	return New(combined, outShape)
}

// FitLength truncates or right-pads a flat float32 sample slice to exactly n
// elements, padding with zeros. Mirrors the fixed-length framing applied to
// generated waveforms before they leave the conversion layer.
func FitLength(samples []float32, n int) []float32 {
	if n < 0 {
		n = 0
	}
	out := make([]float32, n)
	copy(out, samples)
	return out
}

// ArgMax returns the index of the maximum value along the last axis of a
// float32 tensor with shape [1, C]. Ties resolve to the lowest index.
func ArgMax(t *Tensor) (int, error) {
	shape := t.Shape()
	if len(shape) != 2 || shape[0] != 1 || shape[1] < 1 {
		return 0, fmt.Errorf("ArgMax expects shape [1, C], got %v", shape)
	}

	data, err := t.Float32s()
	if err != nil {
		return 0, err
	}

	best := 0
	for i, v := range data {
		if v > data[best] {
			best = i
		}
	}
	return best, nil
}

// MeanVariance returns the mean and population variance of a float32
// tensor's elements. Used for the embedding statistics report.
func MeanVariance(t *Tensor) (float64, float64, error) {
	data, err := t.Float32s()
	if err != nil {
		return 0, 0, err
	}
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("tensor has no elements")
	}

	var sum float64
	for _, v := range data {
		sum += float64(v)
	}
	mean := sum / float64(len(data))

	var sq float64
	for _, v := range data {
		d := float64(v) - mean
		sq += d * d
	}
	variance := sq / float64(len(data))

	return mean, variance, nil
}
