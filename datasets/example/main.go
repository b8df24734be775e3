package main

// Example command that loads one split directory as a ReconstructionDataset
// and converts a small batch into gomlx tensors using the helpers provided in
// the package.
//
// The dataset uses lazy loading - it only lists the image files, and decodes
// an image when its example is requested.
//
// Usage:
//   go run ./datasets/example -dir ~/data/coco/val2014 -n 8

import (
	"flag"
	"fmt"

	"github.com/bozeklab/AME/datasets"
	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"
)

var (
	flagDir       = flag.String("dir", "../assets/coco/val2014", "split directory with the images")
	flagImageSize = flag.Int("image_size", datasets.DefaultImageSize, "side of the square crop images are resized to")
	flagN         = flag.Int("n", 8, "number of examples to batch")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	ds, err := datasets.NewReconstructionDataset(*flagDir, *flagImageSize)
	if err != nil {
		klog.Exitf("failed to load dataset: %v", err)
	}
	fmt.Printf("Using split directory: %s\n", ds.RootDir)
	fmt.Printf("Total images available: %s\n", humanize.Comma(int64(ds.Len())))

	// Prepare a small batch (first N examples)
	n := min(*flagN, ds.Len())
	samples := make([]datasets.Sample, n)
	for i := range n {
		samples[i], err = ds.Example(i)
		if err != nil {
			klog.Exitf("failed to read example: %v", err)
		}
	}

	flat, err := datasets.MakeImageBatchFlat(samples)
	if err != nil {
		klog.Exitf("failed to batch examples: %v", err)
	}
	inputs, labels := flat.ToGomlxTensors()
	fmt.Printf("Created tensors: inputs=%s labels=%s (%s)\n", inputs.Shape(), labels.Shape(),
		humanize.Bytes(uint64(4*len(flat.Pixels))))
	fmt.Printf("  First image: %s\n", samples[0].Path)
}
