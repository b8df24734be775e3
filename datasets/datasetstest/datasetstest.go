// Package datasetstest provides fixtures to test code that reads image splits.
package datasetstest

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// WriteImages creates dir (if needed) and writes n PNG images of width x height
// pixels named img_000.png, img_001.png, ... Image i is filled with a gray
// level of i, so samples can be told apart by their pixels.
//
// It returns the paths of the written images, in order.
func WriteImages(t testing.TB, dir string, n, width, height int) []string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	paths := make([]string, n)
	for i := range n {
		level := uint8(i % 256)
		img := imaging.New(width, height, color.NRGBA{R: level, G: level, B: level, A: 255})
		paths[i] = filepath.Join(dir, fmt.Sprintf("img_%03d.png", i))
		if err := imaging.Save(img, paths[i]); err != nil {
			t.Fatalf("failed to write image %s: %v", paths[i], err)
		}
	}
	return paths
}

// WriteSplits creates the given split subdirectories under root, each with the
// given number of images. A negative count skips the directory entirely.
func WriteSplits(t testing.TB, root string, counts map[string]int, size int) {
	t.Helper()
	for name, n := range counts {
		if n < 0 {
			continue
		}
		WriteImages(t, filepath.Join(root, name), n, size, size)
	}
}
