package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ResizeDims resolves the target size for a w x h image. A zero width or
// height means "not given" and is derived from the other one so the aspect
// ratio is kept.
func ResizeDims(w, h, width, height int) (int, int, error) {
	switch {
	case width < 0 || height < 0:
		return 0, 0, fmt.Errorf("resize dimensions must not be negative: %dx%d", width, height)
	case width > 0 && height > 0:
		return width, height, nil
	case width > 0:
		return width, int(float64(h) * float64(width) / float64(w)), nil
	case height > 0:
		return int(float64(w) * float64(height) / float64(h)), height, nil
	default:
		return 0, 0, fmt.Errorf("at least one of width or height is required")
	}
}

// Resize scales input with area interpolation. BGRA images are resized one
// channel at a time, alpha included, and merged back.
func Resize(input gocv.Mat, width, height int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}

	newW, newH, err := ResizeDims(input.Cols(), input.Rows(), width, height)
	if err != nil {
		return gocv.NewMat(), err
	}
	if newW < 1 || newH < 1 {
		return gocv.NewMat(), fmt.Errorf("resize to %dx%d collapses the image", newW, newH)
	}
	size := image.Pt(newW, newH)

	if input.Channels() != 4 {
		output := gocv.NewMat()
		gocv.Resize(input, &output, size, 0, 0, gocv.InterpolationArea)
		return output, nil
	}

	planes := gocv.Split(input)
	defer closeAll(planes)

	resized := make([]gocv.Mat, len(planes))
	for i, plane := range planes {
		resized[i] = gocv.NewMat()
		gocv.Resize(plane, &resized[i], size, 0, 0, gocv.InterpolationArea)
	}
	defer closeAll(resized)

	output := gocv.NewMat()
	gocv.Merge(resized, &output)
	return output, nil
}
