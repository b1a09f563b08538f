package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ThresholdMethod picks how the binary-mask preview chooses its threshold.
type ThresholdMethod int

const (
	ThresholdOtsu ThresholdMethod = iota
	ThresholdFixed
)

const (
	fixedBinaryThreshold = 127
	overlayOpacity       = 0.5
)

// overlayColor is the accent painted over threshold-positive pixels (BGR red).
var overlayColor = gocv.NewScalar(0, 0, 255, 0)

// BinaryMask thresholds the luminance of input at threshold and returns the
// single-channel 0/255 mask.
func BinaryMask(input gocv.Mat, threshold int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}

	gray, err := luminance(input)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer gray.Close()

	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, float32(threshold), 255, gocv.ThresholdBinary)
	return binary, nil
}

// BinaryMaskOverlay previews the thresholded foreground by painting it in
// the accent colour at 50% over the image. Alpha, if present, is kept.
func BinaryMaskOverlay(input gocv.Mat, method ThresholdMethod) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}

	colour, err := toBGR(input)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer colour.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(colour, &gray, gocv.ColorBGRToGray)

	binary := gocv.NewMat()
	defer binary.Close()
	switch method {
	case ThresholdOtsu:
		gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	case ThresholdFixed:
		gocv.Threshold(gray, &binary, fixedBinaryThreshold, 255, gocv.ThresholdBinary)
	default:
		return gocv.NewMat(), fmt.Errorf("unknown threshold method: %d", method)
	}

	accent := gocv.NewMatWithSizeFromScalar(overlayColor, colour.Rows(), colour.Cols(), colour.Type())
	defer accent.Close()

	overlay := colour.Clone()
	defer overlay.Close()
	accent.CopyToWithMask(&overlay, binary)

	blended := gocv.NewMat()
	gocv.AddWeighted(colour, 1-overlayOpacity, overlay, overlayOpacity, 0, &blended)

	if input.Channels() != 4 {
		return blended, nil
	}
	defer blended.Close()

	planes := gocv.Split(input)
	defer closeAll(planes)
	return attachAlpha(blended, planes[3])
}
