// Package models provides core data structures for the slideshow system.
package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ImageFormat is the source format inferred from a file extension.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
)

// ImageFile is a source image discovered in the input directory.
//
// Image files are discovered at scan time, consumed once by the batch
// assembler and never mutated.
type ImageFile struct {
	Path   string      `json:"path"`
	Name   string      `json:"name"`
	Format ImageFormat `json:"format"`
}

// FormatFromExt maps a file extension (case-insensitive, with or without the
// leading dot) to a supported image format.
func FormatFromExt(ext string) (ImageFormat, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "png":
		return FormatPNG, true
	case "jpg", "jpeg":
		return FormatJPEG, true
	default:
		return "", false
	}
}

// NewImageFile creates an ImageFile for path, inferring its format.
//
// Returns an error if the path is empty or the extension is not supported.
func NewImageFile(path string) (*ImageFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}
	format, ok := FormatFromExt(filepath.Ext(path))
	if !ok {
		return nil, fmt.Errorf("unsupported image extension: %q", filepath.Ext(path))
	}
	return &ImageFile{
		Path:   path,
		Name:   filepath.Base(path),
		Format: format,
	}, nil
}
