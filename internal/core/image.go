// Image buffer validation and metadata
package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// DefaultMaxDimension bounds the width and height of a loaded image.
const DefaultMaxDimension = 16384

// ImageMetadata describes the loaded image.
type ImageMetadata struct {
	Name     string
	Format   string
	Width    int
	Height   int
	Channels int
}

func newMetadata(mat gocv.Mat, name string) ImageMetadata {
	return ImageMetadata{
		Name:     name,
		Format:   formatFromPath(name),
		Width:    mat.Cols(),
		Height:   mat.Rows(),
		Channels: mat.Channels(),
	}
}

// ValidateImage checks that mat is a non-empty 8-bit BGR or BGRA buffer no
// larger than maxDimension on either side. A maxDimension <= 0 means the
// default.
func ValidateImage(mat gocv.Mat, maxDimension int) error {
	if mat.Empty() {
		return fmt.Errorf("%w: image is empty", ErrUnsupportedImage)
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrUnsupportedImage, mat.Cols(), mat.Rows())
	}

	switch mat.Type() {
	case gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
	default:
		return fmt.Errorf("%w: expected 8-bit BGR or BGRA, got %d channels of type %v",
			ErrUnsupportedImage, mat.Channels(), mat.Type())
	}

	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if mat.Cols() > maxDimension || mat.Rows() > maxDimension {
		return fmt.Errorf("%w: image too large %dx%d (max: %d)",
			ErrUnsupportedImage, mat.Cols(), mat.Rows(), maxDimension)
	}

	return nil
}

func formatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}
