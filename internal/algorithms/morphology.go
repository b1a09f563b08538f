// Morphological helpers used to clean segmentation masks
package algorithms

import (
	"image"

	"gocv.io/x/gocv"
)

// cleanupKernelSize is the side of the square structuring element used for
// mask cleanup and edge dilation.
const cleanupKernelSize = 3

// closeOpen fills small holes (close) and then removes speckle (open) from a
// binary mask using a square structuring element. The caller owns the result.
func closeOpen(mask gocv.Mat, kernelSize int) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(kernelSize, kernelSize))
	defer kernel.Close()

	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(mask, &closed, gocv.MorphClose, kernel)

	opened := gocv.NewMat()
	gocv.MorphologyEx(closed, &opened, gocv.MorphOpen, kernel)
	return opened
}

// dilate grows non-zero regions with a square kernel, repeated iterations
// times. The caller owns the result.
func dilate(input gocv.Mat, kernelSize, iterations int) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(kernelSize, kernelSize))
	defer kernel.Close()

	output := gocv.NewMat()
	gocv.Dilate(input, &output, kernel)

	for i := 1; i < iterations; i++ {
		temp := gocv.NewMat()
		gocv.Dilate(output, &temp, kernel)
		output.Close()
		output = temp
	}

	return output
}
