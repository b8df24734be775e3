package datasets

import (
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	// Decoders for the formats the standard library doesn't register.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageExtensions lists the (lower case) file extensions recognized as images.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp", ".gif"}

func isImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range ImageExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// ListImageFiles returns the sorted paths of the image files directly under dir.
// Subdirectories and files with unknown extensions are ignored.
func ListImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list images in %q", dir)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// nrgbaToFloat32 converts the RGB channels of img to a flat HWC buffer in [0, 1].
// Alpha is dropped.
func nrgbaToFloat32(img *image.NRGBA) []float32 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]float32, 0, width*height*3)
	for y := range height {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := range width {
			px := row[x*4 : x*4+3]
			pixels = append(pixels, float32(px[0])/255, float32(px[1])/255, float32(px[2])/255)
		}
	}
	return pixels
}
