package batcher

import (
	"fmt"

	"slideshow/models"
)

const (
	// DefaultBatchSize is the number of images per output segment
	DefaultBatchSize = 10

	// MinBatchSize is the minimum allowed batch size
	MinBatchSize = 1

	// MaxBatchSize bounds a single segment to a sane number of clips
	MaxBatchSize = 10000
)

// Batcher splits a sorted image list into fixed-size batches
type Batcher struct {
	images    []models.ImageFile
	batchSize int
}

// NewBatcher creates a new Batcher with default settings
func NewBatcher(images []models.ImageFile) *Batcher {
	return &Batcher{
		images:    images,
		batchSize: DefaultBatchSize,
	}
}

// SetBatchSize sets the number of images per batch
func (b *Batcher) SetBatchSize(size int) *Batcher {
	b.batchSize = size
	return b
}

// CreateBatches partitions the images into consecutive batches.
//
// Every batch holds batchSize images except possibly the last one. Order is
// preserved and indices start at 1. An empty image list yields no batches
// and no error.
//
// Example:
//
//	images, _ := scanner.ScanImages("input_images")
//	batches, err := batcher.NewBatcher(images).SetBatchSize(10).CreateBatches()
func (b *Batcher) CreateBatches() ([]*models.Batch, error) {
	if b.batchSize < MinBatchSize {
		return nil, fmt.Errorf("batch size must be at least %d", MinBatchSize)
	}

	if b.batchSize > MaxBatchSize {
		return nil, fmt.Errorf("batch size cannot exceed %d", MaxBatchSize)
	}

	if len(b.images) == 0 {
		return nil, nil
	}

	// Ceiling division
	count := (len(b.images) + b.batchSize - 1) / b.batchSize
	batches := make([]*models.Batch, 0, count)

	for i := 0; i < len(b.images); i += b.batchSize {
		end := min(i+b.batchSize, len(b.images))

		batch, err := models.NewBatch(len(batches)+1, b.images[i:end:end])
		if err != nil {
			return nil, fmt.Errorf("invalid batch %d: %w", len(batches)+1, err)
		}

		batches = append(batches, batch)
	}

	return batches, nil
}

// ValidateBatches validates a sequence of batches for completeness and correctness
func ValidateBatches(batches []*models.Batch, batchSize int) error {
	if len(batches) == 0 {
		return fmt.Errorf("batch list is empty")
	}

	for i, batch := range batches {
		if err := batch.Validate(); err != nil {
			return fmt.Errorf("batch %d is invalid: %w", i, err)
		}
	}

	// Check for sequential batch indices
	for i, batch := range batches {
		if batch.Index != i+1 {
			return fmt.Errorf("batch %d has incorrect index: expected %d, got %d",
				i, i+1, batch.Index)
		}
	}

	// Only the last batch may be short
	for i, batch := range batches {
		n := len(batch.Images)
		if n > batchSize {
			return fmt.Errorf("batch %d has %d images, exceeds batch size %d", batch.Index, n, batchSize)
		}
		if i < len(batches)-1 && n != batchSize {
			return fmt.Errorf("batch %d has %d images, only the last batch may be short", batch.Index, n)
		}
	}

	return nil
}
