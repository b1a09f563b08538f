// Region-of-interest helpers for masked, localised effects
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// NonZeroBounds returns the tight bounding box of the non-zero pixels of a
// single-channel 8-bit mask. ok is false for an empty or all-zero mask.
func NonZeroBounds(mask gocv.Mat) (bounds image.Rectangle, ok bool) {
	if mask.Empty() || mask.Channels() != 1 {
		return image.Rectangle{}, false
	}
	if gocv.CountNonZero(mask) == 0 {
		return image.Rectangle{}, false
	}

	cols, rows := mask.Cols(), mask.Rows()
	data := mask.ToBytes()

	minX, minY := cols, rows
	maxX, maxY := -1, -1
	for y := 0; y < rows; y++ {
		row := data[y*cols : (y+1)*cols]
		for x, v := range row {
			if v == 0 {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// BlendWithMask mixes effect over original with per-pixel weights taken from
// mask (0 keeps original, 255 takes effect):
//
//	result = original*(1-w) + effect*w, w = mask/255
//
// All three must share a size; original and effect must share a type.
// Pixels whose weight is 0 come back byte-identical.
func BlendWithMask(original, effect, mask gocv.Mat) (gocv.Mat, error) {
	if original.Empty() || effect.Empty() || mask.Empty() {
		return gocv.NewMat(), fmt.Errorf("blend inputs must not be empty")
	}
	if original.Type() != effect.Type() {
		return gocv.NewMat(), fmt.Errorf("blend type mismatch: %v vs %v", original.Type(), effect.Type())
	}
	if original.Rows() != mask.Rows() || original.Cols() != mask.Cols() ||
		original.Rows() != effect.Rows() || original.Cols() != effect.Cols() {
		return gocv.NewMat(), fmt.Errorf("blend size mismatch: image %dx%d, mask %dx%d",
			original.Cols(), original.Rows(), mask.Cols(), mask.Rows())
	}
	if mask.Channels() != 1 {
		return gocv.NewMat(), fmt.Errorf("mask must be single-channel, got %d channels", mask.Channels())
	}

	ft, err := floatType(original.Channels())
	if err != nil {
		return gocv.NewMat(), err
	}

	a := gocv.NewMat()
	defer a.Close()
	original.ConvertTo(&a, ft)

	b := gocv.NewMat()
	defer b.Close()
	effect.ConvertTo(&b, ft)

	w := gocv.NewMat()
	defer w.Close()
	mask.ConvertToWithParams(&w, gocv.MatTypeCV32F, 1.0/255, 0)

	weights := w
	if n := original.Channels(); n > 1 {
		planes := make([]gocv.Mat, n)
		for i := range planes {
			planes[i] = w
		}
		weights = gocv.NewMat()
		defer weights.Close()
		gocv.Merge(planes, &weights)
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.Subtract(b, a, &diff)

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Multiply(diff, weights, &scaled)

	sum := gocv.NewMat()
	defer sum.Close()
	gocv.Add(a, scaled, &sum)

	output := gocv.NewMat()
	sum.ConvertTo(&output, original.Type())
	return output, nil
}

func floatType(channels int) (gocv.MatType, error) {
	switch channels {
	case 1:
		return gocv.MatTypeCV32F, nil
	case 3:
		return gocv.MatTypeCV32FC3, nil
	case 4:
		return gocv.MatTypeCV32FC4, nil
	default:
		return 0, fmt.Errorf("unsupported channel count: %d", channels)
	}
}
