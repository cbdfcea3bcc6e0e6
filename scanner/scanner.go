// Package scanner discovers source images in the input directory.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"slideshow/models"
)

// ScanImages lists the images directly inside dir.
//
// Only regular entries with a .png, .jpg or .jpeg extension (any case) are
// returned; subdirectories are not descended into. The result is sorted by
// file name in byte order so batch membership is reproducible across
// platforms.
func ScanImages(dir string) ([]models.ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	images := make([]models.ImageFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		img, err := models.NewImageFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		images = append(images, *img)
	}

	sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })
	return images, nil
}
