// Blur filters driven by 0-100 slider values
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// GaussianKernel maps a 0-100 slider value to an odd kernel size (>= 3) and
// the sigma OpenCV would derive for that size.
func GaussianKernel(value int) (int, float64) {
	k := max(3, (value/2)*2+1)
	sigma := max(0.3*((float64(k)-1)*0.5-1)+0.8, 0.8)
	return k, sigma
}

// MedianKernel maps a 0-100 slider value to an odd aperture size (>= 3).
// Median apertures grow a quarter as fast as the Gaussian ones.
func MedianKernel(value int) int {
	return max(3, (value/4)*2+1)
}

// GaussianBlur blurs the colour channels of input. A value of 0 returns an
// identical copy. The alpha channel of a BGRA input is passed through.
// The caller owns the returned Mat.
func GaussianBlur(input gocv.Mat, value int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	if value < 0 || value > 100 {
		return gocv.NewMat(), fmt.Errorf("gaussian value must be between 0 and 100, got %d", value)
	}
	if value == 0 {
		return input.Clone(), nil
	}

	k, sigma := GaussianKernel(value)
	return applyToColor(input, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.GaussianBlur(src, dst, image.Pt(k, k), sigma, sigma, gocv.BorderDefault)
	})
}

// MedianBlur applies a median filter to the colour channels of input. A value
// of 0 returns an identical copy. The caller owns the returned Mat.
func MedianBlur(input gocv.Mat, value int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	if value < 0 || value > 100 {
		return gocv.NewMat(), fmt.Errorf("median value must be between 0 and 100, got %d", value)
	}
	if value == 0 {
		return input.Clone(), nil
	}

	k := MedianKernel(value)
	return applyToColor(input, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.MedianBlur(src, dst, k)
	})
}

// applyToColor runs op over the whole image, or over the three colour planes
// of a BGRA image with alpha re-attached unchanged.
func applyToColor(input gocv.Mat, op func(src gocv.Mat, dst *gocv.Mat)) (gocv.Mat, error) {
	if input.Channels() != 4 {
		output := gocv.NewMat()
		op(input, &output)
		if output.Empty() {
			return output, fmt.Errorf("filter produced an empty image")
		}
		return output, nil
	}

	planes := gocv.Split(input)
	defer closeAll(planes)

	merged := make([]gocv.Mat, 0, 4)
	defer func() {
		for _, m := range merged[:min(len(merged), 3)] {
			m.Close()
		}
	}()

	for _, plane := range planes[:3] {
		out := gocv.NewMat()
		op(plane, &out)
		merged = append(merged, out)
	}
	merged = append(merged, planes[3])

	output := gocv.NewMat()
	gocv.Merge(merged, &output)
	if output.Empty() {
		return output, fmt.Errorf("failed to merge channels")
	}
	return output, nil
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}

// GaussianBlurSize blurs the colour channels with an explicit odd kernel
// size, letting OpenCV derive sigma from it.
func GaussianBlurSize(input gocv.Mat, k int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	if k < 1 || k%2 == 0 {
		return gocv.NewMat(), fmt.Errorf("kernel size must be odd and positive, got %d", k)
	}
	return applyToColor(input, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.GaussianBlur(src, dst, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	})
}

// MedianBlurSize applies a median filter with an explicit odd aperture.
func MedianBlurSize(input gocv.Mat, k int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	if k < 1 || k%2 == 0 {
		return gocv.NewMat(), fmt.Errorf("aperture size must be odd and positive, got %d", k)
	}
	if k == 1 {
		return input.Clone(), nil
	}
	return applyToColor(input, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.MedianBlur(src, dst, k)
	})
}
