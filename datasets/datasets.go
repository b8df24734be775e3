package datasets

// This file describes the dataset adapters used by the reconstruction data
// module. A dataset adapter wraps one split directory (train, val or test) and
// presents it as an indexable collection of samples.
//
// Datasets use lazy loading: construction only lists the files of the split,
// the pixels of an image are decoded when Example is called (typically from
// one of the dataloader workers). Example must therefore be safe for
// concurrent use.
//
// Layout and intended usage:
//
// ReconstructionDataset
//   - Stores the sorted paths of the images found directly under a split directory
//   - Decodes an image on-demand, center-crops and resizes it to ImageSize x ImageSize
//   - Sample pixels: flat HWC float32 in [0, 1], 3 channels (RGB)
//   - The reconstruction target is the input image itself
//
// Batches are stacked with MakeImageBatchFlat and converted to gomlx tensors
// with ImageBatchFlat.ToGomlxTensors, see CollateReconstruction.
type Dataset interface {
	Name() string
	Len() int
	Example(i int) (Sample, error)
}

// Sample is one decoded image of a split.
type Sample struct {
	// Index of the sample in its dataset.
	Index int

	// Path of the image file the sample was decoded from.
	Path string

	// Pixels holds Height*Width*Channels values, row-major, channels last.
	Pixels []float32

	Height, Width, Channels int
}
