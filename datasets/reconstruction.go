package datasets

import (
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// DefaultImageSize is the side of the square every image is fitted to.
const DefaultImageSize = 256

// ReconstructionDataset lazily loads the images of one split directory.
// Inputs and targets are the same image, as needed by reconstruction models.
type ReconstructionDataset struct {
	// RootDir is the split directory the images were listed from.
	RootDir string

	// ImageSize is the side of the square crop each image is resized to.
	ImageSize int

	// Sorted list of image paths, the index of the example.
	imagePaths []string
}

var _ Dataset = (*ReconstructionDataset)(nil)

// NewReconstructionDataset lists the images under rootDir. Images are only
// decoded when requested with Example.
//
// If imageSize is 0, DefaultImageSize is used.
func NewReconstructionDataset(rootDir string, imageSize int) (*ReconstructionDataset, error) {
	if imageSize < 0 {
		return nil, errors.Errorf("invalid image size %d for dataset %q", imageSize, rootDir)
	}
	if imageSize == 0 {
		imageSize = DefaultImageSize
	}
	paths, err := ListImageFiles(rootDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no images found in %q", rootDir)
	}
	return &ReconstructionDataset{
		RootDir:    rootDir,
		ImageSize:  imageSize,
		imagePaths: paths,
	}, nil
}

// Name returns the name of the dataset, derived from the split directory.
func (d *ReconstructionDataset) Name() string {
	return "Reconstruction(" + filepath.Base(d.RootDir) + ")"
}

// Len returns the number of images in the split.
func (d *ReconstructionDataset) Len() int {
	return len(d.imagePaths)
}

// Paths returns the image paths in index order. The slice must not be modified.
func (d *ReconstructionDataset) Paths() []string {
	return d.imagePaths
}

// Example decodes the image at index idx. It is safe for concurrent use.
func (d *ReconstructionDataset) Example(idx int) (Sample, error) {
	if idx < 0 || idx >= len(d.imagePaths) {
		return Sample{}, errors.Errorf("index %d out of range [0, %d)", idx, len(d.imagePaths))
	}
	path := d.imagePaths[idx]
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return Sample{}, errors.WithMessagef(err, "failed to read image #%d", idx)
	}

	// Resize the smallest dimension to ImageSize and crop the center.
	fitted := imaging.Fill(img, d.ImageSize, d.ImageSize, imaging.Center, imaging.Linear)
	return Sample{
		Index:    idx,
		Path:     path,
		Pixels:   nrgbaToFloat32(fitted),
		Height:   d.ImageSize,
		Width:    d.ImageSize,
		Channels: 3,
	}, nil
}
