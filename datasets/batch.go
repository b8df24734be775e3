package datasets

import (
	"slices"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// ImageBatchFlat stores a batch of images in one contiguous buffer.
type ImageBatchFlat struct {
	Pixels    []float32
	Indices   []int
	BatchSize int
	Height    int
	Width     int
	Channels  int
}

// MakeImageBatchFlat stacks the samples into a contiguous [B, H, W, C] buffer.
// All samples must have the same dimensions.
func MakeImageBatchFlat(samples []Sample) (*ImageBatchFlat, error) {
	if len(samples) == 0 {
		return nil, errors.New("trying to batch zero samples")
	}
	first := samples[0]
	exampleSize := first.Height * first.Width * first.Channels
	b := &ImageBatchFlat{
		Pixels:    make([]float32, len(samples)*exampleSize),
		Indices:   make([]int, len(samples)),
		BatchSize: len(samples),
		Height:    first.Height,
		Width:     first.Width,
		Channels:  first.Channels,
	}
	for i, s := range samples {
		if s.Height != b.Height || s.Width != b.Width || s.Channels != b.Channels {
			return nil, errors.Errorf("inconsistent image dimensions at example %d (%q): expected %dx%dx%d, got %dx%dx%d",
				i, s.Path, b.Height, b.Width, b.Channels, s.Height, s.Width, s.Channels)
		}
		if len(s.Pixels) != exampleSize {
			return nil, errors.Errorf("example %d (%q) has %d values, expected %d", i, s.Path, len(s.Pixels), exampleSize)
		}
		copy(b.Pixels[i*exampleSize:], s.Pixels)
		b.Indices[i] = s.Index
	}
	return b, nil
}

// ToGomlxTensors returns the images as a float32 tensor shaped [B, H, W, C],
// and a second tensor with a copy of the same values to be used as the
// reconstruction target.
func (b *ImageBatchFlat) ToGomlxTensors() (inputs, labels *tensors.Tensor) {
	dims := []int{b.BatchSize, b.Height, b.Width, b.Channels}
	inputs = tensors.FromFlatDataAndDimensions(b.Pixels, dims...)
	labels = tensors.FromFlatDataAndDimensions(slices.Clone(b.Pixels), dims...)
	return
}

// CollateReconstruction turns a batch of samples into the inputs and labels
// of a gomlx training step: both hold the same [B, H, W, C] images.
func CollateReconstruction(samples []Sample) (inputs, labels []*tensors.Tensor, err error) {
	flat, err := MakeImageBatchFlat(samples)
	if err != nil {
		return nil, nil, err
	}
	in, la := flat.ToGomlxTensors()
	return []*tensors.Tensor{in}, []*tensors.Tensor{la}, nil
}
