package models

import (
	"fmt"
	"path/filepath"
)

// OutputPattern is the file name pattern for encoded segments.
const OutputPattern = "output_video_%d.mp4"

// Batch is an ordered, contiguous slice of the sorted image list.
//
// Batches are created by the batcher; each one is assembled, encoded and
// released independently. Index is 1-based and determines the output file
// name.
type Batch struct {
	Index  int         `json:"index"`
	Images []ImageFile `json:"images"`
}

// NewBatch creates a new Batch with validation.
//
// Example:
//
//	batch, err := models.NewBatch(1, images[:10])
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewBatch(index int, images []ImageFile) (*Batch, error) {
	b := &Batch{Index: index, Images: images}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch: %w", err)
	}
	return b, nil
}

// Validate checks if the Batch has valid data.
//
// Returns an error if:
//   - Index is less than 1
//   - Images is empty
func (b *Batch) Validate() error {
	if b.Index < 1 {
		return fmt.Errorf("index must be at least 1")
	}
	if len(b.Images) == 0 {
		return fmt.Errorf("batch must contain at least one image")
	}
	return nil
}

// OutputName returns the segment file name for this batch.
func (b *Batch) OutputName() string {
	return fmt.Sprintf(OutputPattern, b.Index)
}

// OutputPath joins the segment file name onto dir.
func (b *Batch) OutputPath(dir string) string {
	return filepath.Join(dir, b.OutputName())
}
