package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ToneDelta converts a 0-100 darken/brighten value to an 8-bit delta,
// rounding value*2.55 half up.
func ToneDelta(value int) uint8 {
	return uint8((value*255 + 50) / 100)
}

// Darken subtracts the tone delta from every colour channel, clamping at 0.
func Darken(input gocv.Mat, value int) (gocv.Mat, error) {
	return shiftTone(input, value, func(src, delta gocv.Mat, dst *gocv.Mat) {
		gocv.Subtract(src, delta, dst)
	})
}

// Brighten adds the tone delta to every colour channel, clamping at 255.
func Brighten(input gocv.Mat, value int) (gocv.Mat, error) {
	return shiftTone(input, value, func(src, delta gocv.Mat, dst *gocv.Mat) {
		gocv.Add(src, delta, dst)
	})
}

// shiftTone applies a saturating per-channel arithmetic op against a constant
// image. The scalar's fourth component is zero so BGRA alpha stays untouched.
func shiftTone(input gocv.Mat, value int, op func(src, delta gocv.Mat, dst *gocv.Mat)) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	if value < 0 || value > 100 {
		return gocv.NewMat(), fmt.Errorf("tone value must be between 0 and 100, got %d", value)
	}
	if value == 0 {
		return input.Clone(), nil
	}

	d := float64(ToneDelta(value))
	delta := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(d, d, d, 0), input.Rows(), input.Cols(), input.Type())
	defer delta.Close()

	output := gocv.NewMat()
	op(input, delta, &output)
	return output, nil
}

// Grayscale replaces the colour channels with their luminance while keeping
// the channel count (and alpha) of the input.
func Grayscale(input gocv.Mat) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}

	gray, err := luminance(input)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer gray.Close()

	return replicate(gray, input)
}

// BlackWhite converts to grayscale and maps every pixel >= threshold to 255,
// everything else to 0.
func BlackWhite(input gocv.Mat, threshold int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	if threshold < 0 || threshold > 255 {
		return gocv.NewMat(), fmt.Errorf("threshold must be between 0 and 255, got %d", threshold)
	}

	gray, err := luminance(input)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer gray.Close()

	// OpenCV's binary threshold is strict (>), so shift by one for >=.
	bw := gocv.NewMat()
	defer bw.Close()
	gocv.Threshold(gray, &bw, float32(threshold)-1, 255, gocv.ThresholdBinary)

	return replicate(bw, input)
}

// luminance returns the single-channel grayscale view of a BGR or BGRA image.
func luminance(input gocv.Mat) (gocv.Mat, error) {
	gray := gocv.NewMat()
	switch input.Channels() {
	case 1:
		input.CopyTo(&gray)
	case 3:
		gocv.CvtColor(input, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(input, &gray, gocv.ColorBGRAToGray)
	default:
		gray.Close()
		return gocv.NewMat(), fmt.Errorf("unsupported channel count: %d", input.Channels())
	}
	return gray, nil
}

// replicate spreads a single-channel plane across the colour channels of
// like, carrying like's alpha plane over when it has one.
func replicate(plane, like gocv.Mat) (gocv.Mat, error) {
	output := gocv.NewMat()
	switch like.Channels() {
	case 1:
		plane.CopyTo(&output)
	case 3:
		gocv.Merge([]gocv.Mat{plane, plane, plane}, &output)
	case 4:
		planes := gocv.Split(like)
		defer closeAll(planes)
		gocv.Merge([]gocv.Mat{plane, plane, plane, planes[3]}, &output)
	default:
		output.Close()
		return gocv.NewMat(), fmt.Errorf("unsupported channel count: %d", like.Channels())
	}
	return output, nil
}
